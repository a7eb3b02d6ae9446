package services_test

import (
	"context"
	"errors"
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

func TestDatasetService_Generate(t *testing.T) {
	ctx := context.Background()
	seed := uint64(99)
	rate := 0.8

	params := ports.GenerateDatasetParams{
		Count:          50,
		WindowStart:    time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC),
		WindowEnd:      time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC),
		ResolutionRate: &rate,
		Seed:           &seed,
	}

	t.Run("success", func(t *testing.T) {
		repo := mocks.NewMockDatasetRepository()
		reloader := mocks.NewMockDatasetReloader()
		broadcaster := mocks.NewMockEventBroadcaster()
		recorder := mocks.NewMockAnalyticsRecorder()

		svc := services.NewDatasetService(repo, reloader, broadcaster, domain.DefaultTaxonomy(),
			recorder, discardLogger(), fixedClock(reportNow))

		repo.On("Name").Return("postgres")
		repo.On("Save", ctx, mock.MatchedBy(func(tickets []domain.Ticket) bool {
			return len(tickets) == 50
		})).Return(nil)
		reloader.On("Reload", ctx).Return(nil)
		recorder.On("IncDatasetGenerated", "postgres").Once()
		broadcaster.On("Broadcast", domain.Event{
			Type: domain.EventDatasetUpdated,
			Payload: domain.DatasetUpdatedPayload{
				Tickets: 50,
				Seed:    99,
				Source:  "postgres",
			},
		}).Return(nil)

		result, err := svc.Generate(ctx, params)

		require.NoError(t, err)
		assert.Equal(t, 50, result.Tickets)
		assert.Equal(t, uint64(99), result.Seed)
		assert.Equal(t, "postgres", result.Source)
		assert.Equal(t, reportNow, result.GeneratedAt)

		repo.AssertExpectations(t)
		reloader.AssertExpectations(t)
		broadcaster.AssertExpectations(t)
		recorder.AssertExpectations(t)
	})

	t.Run("invalid configuration stores nothing", func(t *testing.T) {
		repo := mocks.NewMockDatasetRepository()
		reloader := mocks.NewMockDatasetReloader()

		svc := services.NewDatasetService(repo, reloader, nil, domain.DefaultTaxonomy(),
			nil, discardLogger(), fixedClock(reportNow))

		bad := params
		bad.Count = -1
		result, err := svc.Generate(ctx, bad)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, apperrors.ErrInvalidConfiguration)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		reloader.AssertNotCalled(t, "Reload", mock.Anything)
	})

	t.Run("save failure", func(t *testing.T) {
		repo := mocks.NewMockDatasetRepository()
		reloader := mocks.NewMockDatasetReloader()
		saveErr := errors.New("disk full")

		svc := services.NewDatasetService(repo, reloader, nil, domain.DefaultTaxonomy(),
			nil, discardLogger(), fixedClock(reportNow))

		repo.On("Save", ctx, mock.Anything).Return(saveErr)

		result, err := svc.Generate(ctx, params)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, saveErr)
		reloader.AssertNotCalled(t, "Reload", mock.Anything)
	})

	t.Run("broadcast failure is not fatal", func(t *testing.T) {
		repo := mocks.NewMockDatasetRepository()
		reloader := mocks.NewMockDatasetReloader()
		broadcaster := mocks.NewMockEventBroadcaster()

		svc := services.NewDatasetService(repo, reloader, broadcaster, domain.DefaultTaxonomy(),
			nil, discardLogger(), fixedClock(reportNow))

		repo.On("Name").Return("csv")
		repo.On("Save", ctx, mock.Anything).Return(nil)
		reloader.On("Reload", ctx).Return(nil)
		broadcaster.On("Broadcast", mock.Anything).Return(errors.New("hub closed"))

		result, err := svc.Generate(ctx, params)

		require.NoError(t, err)
		assert.Equal(t, 50, result.Tickets)
	})
}

func TestDatasetService_GeneratorConfigDefaults(t *testing.T) {
	svc := services.NewDatasetService(mocks.NewMockDatasetRepository(), nil, nil, domain.DefaultTaxonomy(),
		nil, discardLogger(), fixedClock(reportNow))

	cfg := svc.GeneratorConfig(ports.GenerateDatasetParams{})
	want := services.DefaultGeneratorConfig(reportNow)

	assert.Equal(t, want.Count, cfg.Count)
	assert.Equal(t, want.WindowStart, cfg.WindowStart)
	assert.Equal(t, want.WindowEnd, cfg.WindowEnd)
	assert.Equal(t, want.ResolutionRate, cfg.ResolutionRate)
	assert.Equal(t, want.Seed, cfg.Seed)
	assert.Equal(t, reportNow, cfg.Now)
}
