package utils

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// ToTimestamptz converts an optional domain timestamp to a pgtype.Timestamptz.
// A nil pointer becomes NULL.
func ToTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: t.UTC(), Valid: true}
}

// FromTimestamptz converts a pgtype.Timestamptz to an optional UTC timestamp.
// NULL becomes nil.
func FromTimestamptz(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time.UTC()
	return &t
}
