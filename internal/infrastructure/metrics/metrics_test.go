package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
)

func TestPublishReport(t *testing.T) {
	report := &domain.Report{
		OpenCount:             3,
		ResolvedCount:         7,
		BreachCount:           2,
		SLAComplianceRate:     domain.Defined(80),
		MedianResolutionHours: domain.Defined(12.5),
		MedianBacklogAgeHours: domain.Undefined(),
		BreachRateByCategory: []domain.GroupRate{
			{Key: "Network", Tickets: 4, Breached: 2, Rate: domain.Defined(50)},
			{Key: "Email", Tickets: 0, Rate: domain.Undefined()},
		},
		BreachRateByPriority: []domain.GroupRate{
			{Key: "P1", Tickets: 2, Breached: 1, Rate: domain.Defined(50)},
		},
	}

	PublishReport(report)

	assert.Equal(t, 80.0, testutil.ToFloat64(SLAComplianceRate))
	assert.Equal(t, 12.5, testutil.ToFloat64(MedianResolutionHours))
	assert.Equal(t, 0.0, testutil.ToFloat64(MedianBacklogAgeHours))
	assert.Equal(t, 3.0, testutil.ToFloat64(TicketsTotal.WithLabelValues("open")))
	assert.Equal(t, 50.0, testutil.ToFloat64(BreachRateByCategory.WithLabelValues("Network")))
	assert.Equal(t, 1, testutil.CollectAndCount(BreachRateByCategory), "empty categories stay unset")
}

func TestRecorder(t *testing.T) {
	var r Recorder

	r.SetDatasetSize(1200)
	assert.Equal(t, 1200.0, testutil.ToFloat64(DatasetTickets))

	before := testutil.ToFloat64(DatasetGeneratedTotal.WithLabelValues("csv"))
	r.IncDatasetGenerated("csv")
	assert.Equal(t, before+1, testutil.ToFloat64(DatasetGeneratedTotal.WithLabelValues("csv")))

	r.ObserveReport(10*time.Millisecond, 50)
	assert.Equal(t, 1, testutil.CollectAndCount(ReportDurationSeconds))
}
