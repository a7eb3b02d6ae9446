package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-analytics/internal/core/errors"
	"github.com/lorrc/service-desk-analytics/internal/core/ports"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// AnalyticsService serves reports over an in-memory copy of the stored
// dataset. The copy is loaded on first use and replaced wholesale by Reload.
type AnalyticsService struct {
	repo       ports.DatasetRepository
	aggregator *Aggregator
	recorder   ports.AnalyticsRecorder
	logger     *slog.Logger
	now        func() time.Time

	mu      sync.RWMutex
	tickets []domain.Ticket
	loaded  bool
}

var _ ports.AnalyticsService = (*AnalyticsService)(nil)

// NewAnalyticsService creates a new analytics service. A nil recorder
// disables metrics and a nil clock uses time.Now.
func NewAnalyticsService(
	repo ports.DatasetRepository,
	aggregator *Aggregator,
	recorder ports.AnalyticsRecorder,
	logger *slog.Logger,
	now func() time.Time,
) *AnalyticsService {
	if recorder == nil {
		recorder = ports.NopRecorder{}
	}
	if now == nil {
		now = time.Now
	}
	return &AnalyticsService{
		repo:       repo,
		aggregator: aggregator,
		recorder:   recorder,
		logger:     logger.With("component", "analytics"),
		now:        now,
	}
}

// GetReport computes the KPI report for the tickets matching filter.
func (s *AnalyticsService) GetReport(ctx context.Context, filter domain.ReportFilter) (*domain.Report, error) {
	if err := s.ValidateFilter(filter); err != nil {
		return nil, err
	}

	tickets, err := s.dataset(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	selected := filter.Apply(tickets)
	report := s.aggregator.Compute(selected, s.now())
	s.recorder.ObserveReport(time.Since(start), len(selected))

	if len(report.Warnings) > 0 {
		s.logger.DebugContext(ctx, "report computed with empty groups",
			"tickets", len(selected),
			"warnings", len(report.Warnings),
		)
	}
	return report, nil
}

// ListTickets returns one page of matching tickets, newest first, together
// with the total number of matches.
func (s *AnalyticsService) ListTickets(ctx context.Context, params ports.ListTicketsParams) ([]domain.Ticket, int, error) {
	if err := s.ValidateFilter(params.Filter); err != nil {
		return nil, 0, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset := max(params.Offset, 0)

	tickets, err := s.dataset(ctx)
	if err != nil {
		return nil, 0, err
	}

	// Apply returns the shared slice for an empty filter; sort a copy.
	selected := append([]domain.Ticket(nil), params.Filter.Apply(tickets)...)
	sort.SliceStable(selected, func(i, j int) bool {
		if !selected[i].CreatedAt.Equal(selected[j].CreatedAt) {
			return selected[i].CreatedAt.After(selected[j].CreatedAt)
		}
		return selected[i].ID > selected[j].ID
	})

	total := len(selected)
	if offset >= total {
		return []domain.Ticket{}, total, nil
	}
	end := min(offset+limit, total)
	return selected[offset:end], total, nil
}

// Taxonomy returns the enumerations used for grouping and filtering.
func (s *AnalyticsService) Taxonomy() domain.Taxonomy {
	return s.aggregator.Taxonomy()
}

// Reload replaces the cached dataset with the repository's current content.
// On failure the previous dataset stays in place.
func (s *AnalyticsService) Reload(ctx context.Context) error {
	tickets, err := s.repo.Load(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "dataset reload failed", "source", s.repo.Name(), "error", err)
		return err
	}

	s.mu.Lock()
	s.tickets = tickets
	s.loaded = true
	s.mu.Unlock()

	s.recorder.SetDatasetSize(len(tickets))
	s.logger.InfoContext(ctx, "dataset loaded", "source", s.repo.Name(), "tickets", len(tickets))
	return nil
}

// ValidateFilter rejects values outside the taxonomy and inverted date ranges.
func (s *AnalyticsService) ValidateFilter(filter domain.ReportFilter) error {
	tx := s.aggregator.Taxonomy()
	errs := apperrors.NewValidationErrors()

	if filter.CreatedFrom != nil && filter.CreatedTo != nil && filter.CreatedFrom.After(*filter.CreatedTo) {
		errs.Add("from", "must not be after to")
	}
	for _, p := range filter.Priorities {
		if !tx.HasPriority(p) {
			errs.Add("priority", fmt.Sprintf("unknown priority %q", p))
		}
	}
	for _, c := range filter.Categories {
		if !tx.HasCategory(c) {
			errs.Add("category", fmt.Sprintf("unknown category %q", c))
		}
	}
	for _, d := range filter.Departments {
		if !tx.HasDepartment(d) {
			errs.Add("department", fmt.Sprintf("unknown department %q", d))
		}
	}

	if errs.HasErrors() {
		return apperrors.NewInvalidFilterError(errs)
	}
	return nil
}

func (s *AnalyticsService) dataset(ctx context.Context) ([]domain.Ticket, error) {
	s.mu.RLock()
	tickets, loaded := s.tickets, s.loaded
	s.mu.RUnlock()
	if loaded {
		return tickets, nil
	}

	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tickets, nil
}
