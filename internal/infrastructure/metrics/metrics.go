// Package metrics provides Prometheus metrics for the analytics service and
// the ticketctl batch commands.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	"github.com/lorrc/service-desk-analytics/internal/core/ports"
)

// Registry is the custom prometheus registry for our application
var Registry = prometheus.NewRegistry()

// factory allows us to register metrics to our custom Registry directly
var factory = promauto.With(Registry)

// =============================================================================
// KPI METRICS - published from the latest computed report
// =============================================================================

var SLAComplianceRate = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "servicedesk",
	Name:      "sla_compliance_percent",
	Help:      "Share of tickets that did not breach their SLA target in the latest report",
})

var TicketsTotal = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "servicedesk",
	Name:      "tickets",
	Help:      "Tickets in the latest report by status",
}, []string{"status"})

var MedianResolutionHours = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "servicedesk",
	Name:      "median_resolution_hours",
	Help:      "Median resolution time of resolved tickets in the latest report",
})

var MedianBacklogAgeHours = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "servicedesk",
	Name:      "median_backlog_age_hours",
	Help:      "Median age of open tickets in the latest report",
})

// BreachRateByCategory is only set for categories with tickets.
var BreachRateByCategory = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "servicedesk",
	Name:      "breach_rate_by_category_percent",
	Help:      "SLA breach rate per ticket category",
}, []string{"category"})

var BreachRateByPriority = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "servicedesk",
	Name:      "breach_rate_by_priority_percent",
	Help:      "SLA breach rate per ticket priority",
}, []string{"priority"})

// =============================================================================
// OPERATIONAL METRICS
// =============================================================================

var ReportDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "analytics",
	Name:      "report_duration_seconds",
	Help:      "Time taken to filter and aggregate a report",
	Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
})

var ReportTickets = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "analytics",
	Name:      "report_tickets",
	Help:      "Number of tickets aggregated per report",
	Buckets:   []float64{0, 10, 50, 100, 500, 1000, 5000, 10000},
})

var DatasetTickets = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "analytics",
	Name:      "dataset_tickets",
	Help:      "Tickets in the currently loaded dataset",
})

var DatasetGeneratedTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "analytics",
	Name:      "dataset_generated_total",
	Help:      "Synthetic datasets generated, by storage backend",
}, []string{"source"})

var HTTPRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "http",
	Name:      "requests_total",
	Help:      "HTTP requests by route pattern, method and status code",
}, []string{"route", "method", "status"})

var HTTPRequestDurationSeconds = factory.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by route pattern",
	Buckets:   prometheus.DefBuckets,
}, []string{"route"})

var WebSocketClients = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "websocket",
	Name:      "clients",
	Help:      "Connected dashboard websocket clients",
})

// =============================================================================
// Helper Functions
// =============================================================================

// PublishReport sets the KPI gauges from a report. Undefined metrics read as
// zero and groups without a defined rate are left out.
func PublishReport(report *domain.Report) {
	TicketsTotal.Reset()
	BreachRateByCategory.Reset()
	BreachRateByPriority.Reset()

	TicketsTotal.WithLabelValues("open").Set(float64(report.OpenCount))
	TicketsTotal.WithLabelValues("resolved").Set(float64(report.ResolvedCount))
	TicketsTotal.WithLabelValues("breached").Set(float64(report.BreachCount))

	setMetric(SLAComplianceRate, report.SLAComplianceRate)
	setMetric(MedianResolutionHours, report.MedianResolutionHours)
	setMetric(MedianBacklogAgeHours, report.MedianBacklogAgeHours)

	for _, r := range report.BreachRateByCategory {
		if r.Rate.Valid {
			BreachRateByCategory.WithLabelValues(r.Key).Set(r.Rate.Value)
		}
	}
	for _, r := range report.BreachRateByPriority {
		if r.Rate.Valid {
			BreachRateByPriority.WithLabelValues(r.Key).Set(r.Rate.Value)
		}
	}
}

// Push sends the registry to a Pushgateway under the given job name.
func Push(url, job string) error {
	return push.New(url, job).Gatherer(Registry).Push()
}

func setMetric(g prometheus.Gauge, m domain.Metric) {
	if m.Valid {
		g.Set(m.Value)
	} else {
		g.Set(0)
	}
}

// Recorder feeds service measurements into the registry.
type Recorder struct{}

var _ ports.AnalyticsRecorder = Recorder{}

func (Recorder) ObserveReport(duration time.Duration, tickets int) {
	ReportDurationSeconds.Observe(duration.Seconds())
	ReportTickets.Observe(float64(tickets))
}

func (Recorder) SetDatasetSize(tickets int) {
	DatasetTickets.Set(float64(tickets))
}

func (Recorder) IncDatasetGenerated(source string) {
	DatasetGeneratedTotal.WithLabelValues(source).Inc()
}
