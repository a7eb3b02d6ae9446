package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-analytics/internal/core/errors"
	"github.com/lorrc/service-desk-analytics/internal/core/mocks"
	"github.com/lorrc/service-desk-analytics/internal/core/ports"
	"github.com/lorrc/service-desk-analytics/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sampleDataset() []domain.Ticket {
	base := time.Date(2025, time.September, 1, 8, 0, 0, 0, time.UTC)
	tickets := []domain.Ticket{
		resolvedTicket("TKT-100000", "P1", "Network", base, 10),
		resolvedTicket("TKT-100001", "P3", "Software", base.Add(24*time.Hour), 3),
		resolvedTicket("TKT-100002", "P2", "Email", base.Add(48*time.Hour), 5),
		openTicket("TKT-100003", "P4", "Software", base.Add(72*time.Hour)),
	}
	tickets[2].Department = "Finance"
	return tickets
}

func newAnalyticsService(repo ports.DatasetRepository, recorder ports.AnalyticsRecorder) *services.AnalyticsService {
	agg := services.NewAggregator(domain.DefaultTaxonomy(), services.AggregatorOptions{})
	return services.NewAnalyticsService(repo, agg, recorder, discardLogger(), fixedClock(reportNow))
}

func TestAnalyticsService_GetReport(t *testing.T) {
	ctx := context.Background()

	t.Run("loads dataset once and computes report", func(t *testing.T) {
		repo := mocks.NewMockDatasetRepository()
		repo.On("Name").Return("csv")
		repo.On("Load", ctx).Return(sampleDataset(), nil).Once()

		svc := newAnalyticsService(repo, nil)

		report, err := svc.GetReport(ctx, domain.ReportFilter{})
		require.NoError(t, err)
		assert.Equal(t, 4, report.TotalTickets)
		assert.Equal(t, reportNow, report.GeneratedAt)

		_, err = svc.GetReport(ctx, domain.ReportFilter{})
		require.NoError(t, err)

		repo.AssertExpectations(t)
	})

	t.Run("applies filter before aggregation", func(t *testing.T) {
		repo := mocks.NewMockDatasetRepository()
		repo.On("Name").Return("csv")
		repo.On("Load", ctx).Return(sampleDataset(), nil)

		svc := newAnalyticsService(repo, nil)

		report, err := svc.GetReport(ctx, domain.ReportFilter{Categories: []string{"Software"}})
		require.NoError(t, err)
		assert.Equal(t, 2, report.TotalTickets)

		from := time.Date(2025, time.September, 2, 0, 0, 0, 0, time.UTC)
		to := time.Date(2025, time.September, 3, 0, 0, 0, 0, time.UTC)
		report, err = svc.GetReport(ctx, domain.ReportFilter{CreatedFrom: &from, CreatedTo: &to})
		require.NoError(t, err)
		assert.Equal(t, 2, report.TotalTickets)
	})

	t.Run("rejects unknown filter values", func(t *testing.T) {
		repo := mocks.NewMockDatasetRepository()
		svc := newAnalyticsService(repo, nil)

		from := time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)
		report, err := svc.GetReport(ctx, domain.ReportFilter{
			Priorities:  []string{"P9"},
			Departments: []string{"Marketing"},
			CreatedFrom: &from,
			CreatedTo:   &to,
		})

		assert.Nil(t, report)
		assert.ErrorIs(t, err, apperrors.ErrInvalidFilter)

		var validationErrs *apperrors.ValidationErrors
		require.True(t, errors.As(err, &validationErrs))
		assert.Contains(t, validationErrs.Errors, "priority")
		assert.Contains(t, validationErrs.Errors, "department")
		assert.Contains(t, validationErrs.Errors, "from")
		repo.AssertNotCalled(t, "Load", mock.Anything)
	})

	t.Run("propagates load errors", func(t *testing.T) {
		repo := mocks.NewMockDatasetRepository()
		repo.On("Name").Return("csv")
		repo.On("Load", ctx).Return(nil, apperrors.ErrDatasetNotFound)

		svc := newAnalyticsService(repo, nil)

		report, err := svc.GetReport(ctx, domain.ReportFilter{})
		assert.Nil(t, report)
		assert.ErrorIs(t, err, apperrors.ErrDatasetNotFound)
	})

	t.Run("records metrics", func(t *testing.T) {
		repo := mocks.NewMockDatasetRepository()
		repo.On("Name").Return("csv")
		repo.On("Load", ctx).Return(sampleDataset(), nil)

		recorder := mocks.NewMockAnalyticsRecorder()
		recorder.On("SetDatasetSize", 4).Once()
		recorder.On("ObserveReport", mock.AnythingOfType("time.Duration"), 4).Once()

		svc := newAnalyticsService(repo, recorder)

		_, err := svc.GetReport(ctx, domain.ReportFilter{})
		require.NoError(t, err)
		recorder.AssertExpectations(t)
	})
}

func TestAnalyticsService_ListTickets(t *testing.T) {
	ctx := context.Background()

	repo := mocks.NewMockDatasetRepository()
	repo.On("Name").Return("csv")
	repo.On("Load", ctx).Return(sampleDataset(), nil)
	svc := newAnalyticsService(repo, nil)

	t.Run("newest first", func(t *testing.T) {
		tickets, total, err := svc.ListTickets(ctx, ports.ListTicketsParams{})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		require.Len(t, tickets, 4)
		assert.Equal(t, "TKT-100003", tickets[0].ID)
		assert.Equal(t, "TKT-100000", tickets[3].ID)
	})

	t.Run("paginates", func(t *testing.T) {
		tickets, total, err := svc.ListTickets(ctx, ports.ListTicketsParams{Limit: 2, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		require.Len(t, tickets, 2)
		assert.Equal(t, "TKT-100002", tickets[0].ID)
		assert.Equal(t, "TKT-100001", tickets[1].ID)
	})

	t.Run("offset past the end", func(t *testing.T) {
		tickets, total, err := svc.ListTickets(ctx, ports.ListTicketsParams{Offset: 10})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		assert.Empty(t, tickets)
	})

	t.Run("filtered", func(t *testing.T) {
		tickets, total, err := svc.ListTickets(ctx, ports.ListTicketsParams{
			Filter: domain.ReportFilter{Departments: []string{"Finance"}},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, "TKT-100002", tickets[0].ID)
	})

	t.Run("does not reorder cached dataset", func(t *testing.T) {
		_, _, err := svc.ListTickets(ctx, ports.ListTicketsParams{})
		require.NoError(t, err)

		tickets, _, err := svc.ListTickets(ctx, ports.ListTicketsParams{Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, "TKT-100003", tickets[0].ID)
	})
}

func TestAnalyticsService_Reload(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces cached dataset", func(t *testing.T) {
		repo := mocks.NewMockDatasetRepository()
		repo.On("Name").Return("csv")
		repo.On("Load", ctx).Return(sampleDataset(), nil).Once()
		repo.On("Load", ctx).Return(sampleDataset()[:1], nil).Once()

		svc := newAnalyticsService(repo, nil)

		report, err := svc.GetReport(ctx, domain.ReportFilter{})
		require.NoError(t, err)
		assert.Equal(t, 4, report.TotalTickets)

		require.NoError(t, svc.Reload(ctx))

		report, err = svc.GetReport(ctx, domain.ReportFilter{})
		require.NoError(t, err)
		assert.Equal(t, 1, report.TotalTickets)
	})

	t.Run("keeps previous dataset on failure", func(t *testing.T) {
		repo := mocks.NewMockDatasetRepository()
		repo.On("Name").Return("csv")
		repo.On("Load", ctx).Return(sampleDataset(), nil).Once()
		repo.On("Load", ctx).Return(nil, apperrors.ErrDatasetMalformed).Once()

		svc := newAnalyticsService(repo, nil)
		require.NoError(t, svc.Reload(ctx))

		err := svc.Reload(ctx)
		assert.ErrorIs(t, err, apperrors.ErrDatasetMalformed)

		report, err := svc.GetReport(ctx, domain.ReportFilter{})
		require.NoError(t, err)
		assert.Equal(t, 4, report.TotalTickets)
	})
}

func TestAnalyticsService_Taxonomy(t *testing.T) {
	svc := newAnalyticsService(mocks.NewMockDatasetRepository(), nil)
	assert.Equal(t, domain.DefaultTaxonomy(), svc.Taxonomy())
}
