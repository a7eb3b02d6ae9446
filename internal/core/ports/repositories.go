package ports

import (
	"context"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
)

// DatasetRepository persists and loads a complete ticket dataset. Save
// replaces whatever dataset was stored before.
type DatasetRepository interface {
	Load(ctx context.Context) ([]domain.Ticket, error)
	Save(ctx context.Context, tickets []domain.Ticket) error
	Ping(ctx context.Context) error
	// Name identifies the backing store in logs and events, e.g. "csv".
	Name() string
}
