package csvstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-analytics/internal/core/errors"
	"github.com/lorrc/service-desk-analytics/internal/core/ports"
)

// Store keeps the dataset in a single CSV file.
type Store struct {
	path     string
	taxonomy domain.Taxonomy
}

var _ ports.DatasetRepository = (*Store)(nil)

func NewStore(path string, taxonomy domain.Taxonomy) *Store {
	return &Store{path: path, taxonomy: taxonomy}
}

func (s *Store) Name() string {
	return "csv"
}

// Path returns the dataset file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load(ctx context.Context) ([]domain.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrDatasetNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	return ReadTickets(f, s.taxonomy, s.path)
}

// Save writes to a temporary file next to the target and renames it, so a
// concurrent Load sees either the old or the new dataset.
func (s *Store) Save(ctx context.Context, tickets []domain.Ticket) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating dataset directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tickets-*.csv")
	if err != nil {
		return fmt.Errorf("creating temporary dataset: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteTickets(tmp, tickets); err != nil {
		tmp.Close()
		return fmt.Errorf("writing dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing dataset: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing dataset: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", apperrors.ErrDatasetNotFound, s.path)
		}
		return err
	}
	return nil
}
