package csvstore_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lorrc/service-desk-analytics/internal/adapters/secondary/csvstore"
	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-analytics/internal/core/errors"
	"github.com/lorrc/service-desk-analytics/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "id,priority,category,department,assignee,created_at,resolved_at,sla_target_hours,status,breached\n"

func generate(t *testing.T, count int) []domain.Ticket {
	t.Helper()
	cfg := services.DefaultGeneratorConfig(time.Date(2026, time.February, 15, 0, 0, 0, 0, time.UTC))
	cfg.Count = count
	tickets, err := services.GenerateTickets(cfg)
	require.NoError(t, err)
	return tickets
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "tickets.csv")
	store := csvstore.NewStore(path, domain.DefaultTaxonomy())

	tickets := generate(t, 300)
	require.NoError(t, store.Save(ctx, tickets))
	require.NoError(t, store.Ping(ctx))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, len(tickets))

	for i := range tickets {
		want, got := tickets[i], loaded[i]
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Priority, got.Priority)
		assert.Equal(t, want.Category, got.Category)
		assert.Equal(t, want.Department, got.Department)
		assert.Equal(t, want.Assignee, got.Assignee)
		assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at of %s", want.ID)
		if want.ResolvedAt == nil {
			assert.Nil(t, got.ResolvedAt)
		} else {
			require.NotNil(t, got.ResolvedAt)
			assert.True(t, want.ResolvedAt.Equal(*got.ResolvedAt), "resolved_at of %s", want.ID)
		}
		assert.Equal(t, want.SLATargetHours, got.SLATargetHours)
		assert.Equal(t, want.Status, got.Status)
		assert.Equal(t, want.Breached, got.Breached)
	}
}

func TestStore_SaveReplacesExistingFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tickets.csv")
	store := csvstore.NewStore(path, domain.DefaultTaxonomy())

	require.NoError(t, store.Save(ctx, generate(t, 50)))
	require.NoError(t, store.Save(ctx, generate(t, 20)))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 20)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := csvstore.NewStore(filepath.Join(t.TempDir(), "missing.csv"), domain.DefaultTaxonomy())

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, apperrors.ErrDatasetNotFound)
	assert.ErrorIs(t, store.Ping(ctx), apperrors.ErrDatasetNotFound)
	assert.Equal(t, "csv", store.Name())
}

func TestReadTickets_AcceptsReorderedColumnsAndLegacyTimestamps(t *testing.T) {
	input := "status,id,priority,category,department,assignee,created_at,resolved_at,sla_target_hours,breached,notes\n" +
		"resolved,TKT-1,P1,Network,Sales,Alex,2025-09-01 08:00:00,2025-09-01 10:30:00,4,False,vpn\n" +
		"open,TKT-2,P4,Email,HR,Mina,2025-09-02T09:15:00Z,,120,true,\n"

	tickets, err := csvstore.ReadTickets(strings.NewReader(input), domain.DefaultTaxonomy(), "inline")
	require.NoError(t, err)
	require.Len(t, tickets, 2)

	assert.Equal(t, time.Date(2025, time.September, 1, 8, 0, 0, 0, time.UTC), tickets[0].CreatedAt)
	hours, ok := tickets[0].ResolutionHours()
	require.True(t, ok)
	assert.InDelta(t, 2.5, hours, 1e-9)
	assert.False(t, tickets[0].Breached)
	assert.Equal(t, domain.StatusOpen, tickets[1].Status)
	assert.True(t, tickets[1].Breached)
}

func TestReadTickets_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		line   int
		column string
	}{
		{
			name:  "empty file",
			input: "",
			line:  1,
		},
		{
			name:   "missing column",
			input:  "id,priority,category,department,assignee,created_at,resolved_at,sla_target_hours,status\n",
			line:   1,
			column: "breached",
		},
		{
			name:   "unknown category",
			input:  header + "TKT-1,P1,Printing,Sales,Alex,2025-09-01T08:00:00Z,,4,open,false\n",
			line:   2,
			column: "category",
		},
		{
			name:   "unknown priority",
			input:  header + "TKT-1,P9,Network,Sales,Alex,2025-09-01T08:00:00Z,,4,open,false\n",
			line:   2,
			column: "priority",
		},
		{
			name:   "unparsable timestamp",
			input:  header + "TKT-1,P1,Network,Sales,Alex,yesterday,,4,open,false\n",
			line:   2,
			column: "created_at",
		},
		{
			name: "resolved before created",
			input: header +
				"TKT-1,P1,Network,Sales,Alex,2025-09-01T08:00:00Z,2025-09-01T10:00:00Z,4,resolved,false\n" +
				"TKT-2,P1,Network,Sales,Alex,2025-09-01T08:00:00Z,2025-09-01T07:00:00Z,4,resolved,false\n",
			line:   3,
			column: "resolved_at",
		},
		{
			name:   "sla disagrees with priority",
			input:  header + "TKT-1,P1,Network,Sales,Alex,2025-09-01T08:00:00Z,,8,open,false\n",
			line:   2,
			column: "sla_target_hours",
		},
		{
			name:   "resolved without timestamp",
			input:  header + "TKT-1,P1,Network,Sales,Alex,2025-09-01T08:00:00Z,,4,resolved,false\n",
			line:   2,
			column: "resolved_at",
		},
		{
			name:   "unknown status",
			input:  header + "TKT-1,P1,Network,Sales,Alex,2025-09-01T08:00:00Z,,4,pending,false\n",
			line:   2,
			column: "status",
		},
		{
			name:   "breached flag disagrees",
			input:  header + "TKT-1,P1,Network,Sales,Alex,2025-09-01T08:00:00Z,2025-09-01T20:00:00Z,4,resolved,false\n",
			line:   2,
			column: "breached",
		},
		{
			name: "duplicate id",
			input: header +
				"TKT-1,P1,Network,Sales,Alex,2025-09-01T08:00:00Z,,4,open,false\n" +
				"TKT-1,P1,Network,Sales,Alex,2025-09-01T08:00:00Z,,4,open,false\n",
			line:   3,
			column: "id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tickets, err := csvstore.ReadTickets(strings.NewReader(tt.input), domain.DefaultTaxonomy(), "inline")

			assert.Nil(t, tickets)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrDatasetMalformed)

			var datasetErr *apperrors.DatasetError
			require.True(t, errors.As(err, &datasetErr))
			assert.Equal(t, tt.line, datasetErr.Line)
			assert.Equal(t, tt.column, datasetErr.Column)
		})
	}
}

func TestWriteTickets_Format(t *testing.T) {
	created := time.Date(2025, time.September, 1, 8, 0, 0, 500, time.UTC)
	resolved := created.Add(90 * time.Minute)
	tickets := []domain.Ticket{
		{
			ID: "TKT-100000", Priority: "P2", Category: "Access", Department: "Finance", Assignee: "Lea",
			CreatedAt: created, ResolvedAt: &resolved, SLATargetHours: 12, Status: domain.StatusResolved,
		},
		{
			ID: "TKT-100001", Priority: "P3", Category: "Other", Department: "Admin", Assignee: "Noah",
			CreatedAt: created, SLATargetHours: 48, Status: domain.StatusOpen, Breached: true,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, csvstore.WriteTickets(&buf, tickets))

	want := header +
		"TKT-100000,P2,Access,Finance,Lea,2025-09-01T08:00:00Z,2025-09-01T09:30:00Z,12,resolved,false\n" +
		"TKT-100001,P3,Other,Admin,Noah,2025-09-01T08:00:00Z,,48,open,true\n"
	assert.Equal(t, want, buf.String())
}
