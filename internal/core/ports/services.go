package ports

import (
	"context"
	"time"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
)

// GenerateDatasetParams defines the input for generating a synthetic dataset.
// Zero values and nil pointers fall back to the reference dataset settings.
type GenerateDatasetParams struct {
	Count          int
	WindowStart    time.Time
	WindowEnd      time.Time
	ResolutionRate *float64
	Seed           *uint64
}

// GenerateDatasetResult describes a persisted synthetic dataset.
type GenerateDatasetResult struct {
	Tickets     int
	Seed        uint64
	Source      string
	GeneratedAt time.Time
}

// ListTicketsParams defines the input for listing raw tickets.
type ListTicketsParams struct {
	Filter domain.ReportFilter
	Limit  int
	Offset int
}

// AnalyticsService defines the port for KPI reporting over the current dataset.
type AnalyticsService interface {
	GetReport(ctx context.Context, filter domain.ReportFilter) (*domain.Report, error)
	ListTickets(ctx context.Context, params ListTicketsParams) ([]domain.Ticket, int, error)
	Taxonomy() domain.Taxonomy
	Reload(ctx context.Context) error
}

// DatasetService defines the port for replacing the dataset with generated data.
type DatasetService interface {
	Generate(ctx context.Context, params GenerateDatasetParams) (*GenerateDatasetResult, error)
}

// DatasetReloader is notified after the stored dataset has been replaced.
type DatasetReloader interface {
	Reload(ctx context.Context) error
}

// EventBroadcaster defines the port for pushing real-time events to dashboards.
type EventBroadcaster interface {
	Broadcast(event domain.Event) error
}

// AnalyticsRecorder receives operational measurements from the services.
type AnalyticsRecorder interface {
	ObserveReport(duration time.Duration, tickets int)
	SetDatasetSize(tickets int)
	IncDatasetGenerated(source string)
}

// NopRecorder discards every measurement.
type NopRecorder struct{}

func (NopRecorder) ObserveReport(time.Duration, int) {}
func (NopRecorder) SetDatasetSize(int)               {}
func (NopRecorder) IncDatasetGenerated(string)       {}
