package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-analytics/internal/core/errors"
	"github.com/lorrc/service-desk-analytics/internal/core/ports"
	"github.com/lorrc/service-desk-analytics/internal/core/utils"
)

const pgUndefinedTable = "42P01"

var ticketColumns = []string{
	"id", "priority", "category", "department", "assignee",
	"created_at", "resolved_at", "sla_target_hours", "status", "breached",
}

// DatasetRun records one replacement of the stored dataset.
type DatasetRun struct {
	ID         uuid.UUID
	Source     string
	Tickets    int
	ImportedAt time.Time
}

// DatasetRepository stores the ticket dataset in the tickets table.
type DatasetRepository struct {
	pool     *pgxpool.Pool
	txm      *TransactionManager
	taxonomy domain.Taxonomy
}

var _ ports.DatasetRepository = (*DatasetRepository)(nil)

// NewDatasetRepository creates a new dataset repository.
func NewDatasetRepository(pool *pgxpool.Pool, taxonomy domain.Taxonomy) *DatasetRepository {
	return &DatasetRepository{
		pool:     pool,
		txm:      NewTransactionManager(pool),
		taxonomy: taxonomy,
	}
}

func (r *DatasetRepository) Name() string {
	return "postgres"
}

func (r *DatasetRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Load reads every ticket ordered by creation time and validates each row
// against the taxonomy.
func (r *DatasetRepository) Load(ctx context.Context) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	err := r.txm.WithReadOnlyTransaction(ctx, func(ctx context.Context, _ pgx.Tx) error {
		var err error
		tickets, err = r.loadTickets(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *DatasetRepository) loadTickets(ctx context.Context) ([]domain.Ticket, error) {
	const query = `
SELECT id, priority, category, department, assignee,
       created_at, resolved_at, sla_target_hours, status, breached
FROM tickets
ORDER BY created_at, id
`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, mapTableError(err)
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		var (
			t          domain.Ticket
			status     string
			resolvedAt pgtype.Timestamptz
		)
		if err := rows.Scan(
			&t.ID, &t.Priority, &t.Category, &t.Department, &t.Assignee,
			&t.CreatedAt, &resolvedAt, &t.SLATargetHours, &status, &t.Breached,
		); err != nil {
			return nil, err
		}
		t.CreatedAt = t.CreatedAt.UTC()
		t.ResolvedAt = utils.FromTimestamptz(resolvedAt)
		t.Status = domain.TicketStatus(status)

		if column, err := r.taxonomy.CheckTicket(&t); err != nil {
			return nil, &apperrors.DatasetError{
				Source: "postgres",
				Line:   len(tickets) + 1,
				Column: column,
				Err:    fmt.Errorf("ticket %s: %w", t.ID, err),
			}
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, mapTableError(err)
	}
	return tickets, nil
}

// Save replaces the stored dataset in one transaction and records the run.
func (r *DatasetRepository) Save(ctx context.Context, tickets []domain.Ticket) error {
	return r.txm.WithTransaction(ctx, func(ctx context.Context, _ pgx.Tx) error {
		db := GetDBTX(ctx, r.pool)

		if _, err := db.Exec(ctx, `DELETE FROM tickets`); err != nil {
			return mapTableError(err)
		}

		rows := make([][]any, len(tickets))
		for i := range tickets {
			t := &tickets[i]
			rows[i] = []any{
				t.ID, t.Priority, t.Category, t.Department, t.Assignee,
				t.CreatedAt.UTC(), utils.ToTimestamptz(t.ResolvedAt), t.SLATargetHours,
				t.Status.String(), t.Breached,
			}
		}

		copied, err := db.CopyFrom(ctx, pgx.Identifier{"tickets"}, ticketColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("copying tickets: %w", err)
		}

		_, err = db.Exec(ctx,
			`INSERT INTO dataset_runs (id, source, tickets, imported_at) VALUES ($1, $2, $3, $4)`,
			uuid.New(), r.Name(), copied, time.Now().UTC(),
		)
		return err
	})
}

// LastRun returns the most recent dataset replacement.
func (r *DatasetRepository) LastRun(ctx context.Context) (*DatasetRun, error) {
	const query = `
SELECT id, source, tickets, imported_at
FROM dataset_runs
ORDER BY imported_at DESC
LIMIT 1
`

	var run DatasetRun
	err := GetDBTX(ctx, r.pool).QueryRow(ctx, query).Scan(&run.ID, &run.Source, &run.Tickets, &run.ImportedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrDatasetNotFound
	}
	if err != nil {
		return nil, mapTableError(err)
	}
	run.ImportedAt = run.ImportedAt.UTC()
	return &run, nil
}

// Describe summarises the latest dataset run for health checks.
func (r *DatasetRepository) Describe(ctx context.Context) (string, error) {
	run, err := r.LastRun(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d tickets imported at %s", run.Tickets, run.ImportedAt.Format(time.RFC3339)), nil
}

func mapTableError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable {
		return fmt.Errorf("%w: %s", apperrors.ErrDatasetNotFound, pgErr.Message)
	}
	return err
}
