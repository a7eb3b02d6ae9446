package mocks

import (
	"context"
	"time"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	"github.com/lorrc/service-desk-analytics/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockDatasetRepository is a mock implementation of ports.DatasetRepository
type MockDatasetRepository struct {
	mock.Mock
}

func NewMockDatasetRepository() *MockDatasetRepository {
	return &MockDatasetRepository{}
}

func (m *MockDatasetRepository) Load(ctx context.Context) ([]domain.Ticket, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Ticket), args.Error(1)
}

func (m *MockDatasetRepository) Save(ctx context.Context, tickets []domain.Ticket) error {
	args := m.Called(ctx, tickets)
	return args.Error(0)
}

func (m *MockDatasetRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDatasetRepository) Name() string {
	args := m.Called()
	return args.String(0)
}

// MockAnalyticsService is a mock implementation of ports.AnalyticsService
type MockAnalyticsService struct {
	mock.Mock
}

func NewMockAnalyticsService() *MockAnalyticsService {
	return &MockAnalyticsService{}
}

func (m *MockAnalyticsService) GetReport(ctx context.Context, filter domain.ReportFilter) (*domain.Report, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}

func (m *MockAnalyticsService) ListTickets(ctx context.Context, params ports.ListTicketsParams) ([]domain.Ticket, int, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Ticket), args.Int(1), args.Error(2)
}

func (m *MockAnalyticsService) Taxonomy() domain.Taxonomy {
	args := m.Called()
	return args.Get(0).(domain.Taxonomy)
}

func (m *MockAnalyticsService) Reload(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockDatasetService is a mock implementation of ports.DatasetService
type MockDatasetService struct {
	mock.Mock
}

func NewMockDatasetService() *MockDatasetService {
	return &MockDatasetService{}
}

func (m *MockDatasetService) Generate(ctx context.Context, params ports.GenerateDatasetParams) (*ports.GenerateDatasetResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.GenerateDatasetResult), args.Error(1)
}

// MockDatasetReloader is a mock implementation of ports.DatasetReloader
type MockDatasetReloader struct {
	mock.Mock
}

func NewMockDatasetReloader() *MockDatasetReloader {
	return &MockDatasetReloader{}
}

func (m *MockDatasetReloader) Reload(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockEventBroadcaster is a mock implementation of ports.EventBroadcaster
type MockEventBroadcaster struct {
	mock.Mock
}

func NewMockEventBroadcaster() *MockEventBroadcaster {
	return &MockEventBroadcaster{}
}

func (m *MockEventBroadcaster) Broadcast(event domain.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockAnalyticsRecorder is a mock implementation of ports.AnalyticsRecorder
type MockAnalyticsRecorder struct {
	mock.Mock
}

func NewMockAnalyticsRecorder() *MockAnalyticsRecorder {
	return &MockAnalyticsRecorder{}
}

func (m *MockAnalyticsRecorder) ObserveReport(duration time.Duration, tickets int) {
	m.Called(duration, tickets)
}

func (m *MockAnalyticsRecorder) SetDatasetSize(tickets int) {
	m.Called(tickets)
}

func (m *MockAnalyticsRecorder) IncDatasetGenerated(source string) {
	m.Called(source)
}
