package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	"github.com/lorrc/service-desk-analytics/internal/core/ports"
)

// DatasetService regenerates the synthetic dataset, stores it and tells the
// readers and connected dashboards about it.
type DatasetService struct {
	repo        ports.DatasetRepository
	reloader    ports.DatasetReloader
	broadcaster ports.EventBroadcaster
	taxonomy    domain.Taxonomy
	recorder    ports.AnalyticsRecorder
	logger      *slog.Logger
	now         func() time.Time

	// Serialises generate, save and reload so readers never see a mix.
	mu sync.Mutex
}

var _ ports.DatasetService = (*DatasetService)(nil)

// NewDatasetService creates a new dataset service. The broadcaster and
// recorder may be nil.
func NewDatasetService(
	repo ports.DatasetRepository,
	reloader ports.DatasetReloader,
	broadcaster ports.EventBroadcaster,
	taxonomy domain.Taxonomy,
	recorder ports.AnalyticsRecorder,
	logger *slog.Logger,
	now func() time.Time,
) *DatasetService {
	if recorder == nil {
		recorder = ports.NopRecorder{}
	}
	if now == nil {
		now = time.Now
	}
	return &DatasetService{
		repo:        repo,
		reloader:    reloader,
		broadcaster: broadcaster,
		taxonomy:    taxonomy,
		recorder:    recorder,
		logger:      logger.With("component", "dataset"),
		now:         now,
	}
}

// GeneratorConfig resolves params against the reference dataset settings.
func (s *DatasetService) GeneratorConfig(params ports.GenerateDatasetParams) GeneratorConfig {
	cfg := DefaultGeneratorConfig(s.now())
	cfg.Taxonomy = s.taxonomy

	if params.Count != 0 {
		cfg.Count = params.Count
	}
	if !params.WindowStart.IsZero() {
		cfg.WindowStart = params.WindowStart.UTC()
	}
	if !params.WindowEnd.IsZero() {
		cfg.WindowEnd = params.WindowEnd.UTC()
	}
	if params.ResolutionRate != nil {
		cfg.ResolutionRate = *params.ResolutionRate
	}
	if params.Seed != nil {
		cfg.Seed = *params.Seed
	}
	return cfg
}

// Generate replaces the stored dataset with a freshly generated one.
func (s *DatasetService) Generate(ctx context.Context, params ports.GenerateDatasetParams) (*ports.GenerateDatasetResult, error) {
	cfg := s.GeneratorConfig(params)

	tickets, err := GenerateTickets(cfg)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Save(ctx, tickets); err != nil {
		return nil, fmt.Errorf("saving generated dataset: %w", err)
	}
	if s.reloader != nil {
		if err := s.reloader.Reload(ctx); err != nil {
			return nil, fmt.Errorf("reloading generated dataset: %w", err)
		}
	}

	result := &ports.GenerateDatasetResult{
		Tickets:     len(tickets),
		Seed:        cfg.Seed,
		Source:      s.repo.Name(),
		GeneratedAt: cfg.Now,
	}
	s.recorder.IncDatasetGenerated(result.Source)
	s.logger.InfoContext(ctx, "dataset generated",
		"tickets", result.Tickets,
		"seed", result.Seed,
		"source", result.Source,
	)

	if s.broadcaster != nil {
		event := domain.Event{
			Type: domain.EventDatasetUpdated,
			Payload: domain.DatasetUpdatedPayload{
				Tickets: result.Tickets,
				Seed:    result.Seed,
				Source:  result.Source,
			},
		}
		// Dashboards can still poll, so a failed push is not fatal.
		if err := s.broadcaster.Broadcast(event); err != nil {
			s.logger.WarnContext(ctx, "dataset update broadcast failed", "error", err)
		}
	}

	return result, nil
}
