package services_test

import (
	"testing"
	"time"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	"github.com/lorrc/service-desk-analytics/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reportNow = time.Date(2025, time.October, 20, 12, 0, 0, 0, time.UTC)

func resolvedTicket(id, priority, category string, created time.Time, hours float64) domain.Ticket {
	tx := domain.DefaultTaxonomy()
	sla, _ := tx.SLAHours(priority)
	resolved := created.Add(time.Duration(hours * float64(time.Hour)))
	return domain.Ticket{
		ID:             id,
		Priority:       priority,
		Category:       category,
		Department:     "Sales",
		Assignee:       "Alex",
		CreatedAt:      created,
		ResolvedAt:     &resolved,
		SLATargetHours: sla,
		Status:         domain.StatusResolved,
		Breached:       hours > sla,
	}
}

func openTicket(id, priority, category string, created time.Time) domain.Ticket {
	tx := domain.DefaultTaxonomy()
	sla, _ := tx.SLAHours(priority)
	return domain.Ticket{
		ID:             id,
		Priority:       priority,
		Category:       category,
		Department:     "HR",
		Assignee:       "Mina",
		CreatedAt:      created,
		SLATargetHours: sla,
		Status:         domain.StatusOpen,
	}
}

func newTestAggregator() *services.Aggregator {
	return services.NewAggregator(domain.DefaultTaxonomy(), services.AggregatorOptions{})
}

func TestAggregator_EmptyDataset(t *testing.T) {
	report := newTestAggregator().Compute(nil, reportNow)

	require.NotNil(t, report)
	assert.Zero(t, report.TotalTickets)
	assert.Zero(t, report.OpenCount)
	assert.Zero(t, report.ResolvedCount)
	assert.False(t, report.SLAComplianceRate.Valid)
	assert.False(t, report.MedianResolutionHours.Valid)
	assert.False(t, report.MedianBacklogAgeHours.Valid)
	assert.Empty(t, report.WeeklyVolume)
	assert.Nil(t, report.Recommendation)
	assert.Empty(t, report.MostCommonCategory)

	for _, rate := range report.BreachRateByCategory {
		assert.False(t, rate.Rate.Valid, "category %s", rate.Key)
	}
	for _, rate := range report.BreachRateByPriority {
		assert.False(t, rate.Rate.Valid, "priority %s", rate.Key)
	}
	for _, d := range report.DepartmentResolution {
		assert.False(t, d.MedianResolutionHours.Valid)
	}
	for _, w := range report.AssigneeWorkload {
		assert.False(t, w.MedianResolutionHours.Valid)
		assert.False(t, w.ComplianceRate.Valid)
	}
	assert.NotEmpty(t, report.Warnings)
}

func TestAggregator_SingleBreachedTicket(t *testing.T) {
	created := reportNow.Add(-72 * time.Hour)
	tickets := []domain.Ticket{resolvedTicket("TKT-1", "P1", "Network", created, 10)}

	report := newTestAggregator().Compute(tickets, reportNow)

	rate, ok := report.CategoryRate("Network")
	require.True(t, ok)
	assert.Equal(t, 1, rate.Tickets)
	assert.InDelta(t, 100.0, rate.Rate.Value, 1e-9)
	assert.Equal(t, 0.0, report.SLAComplianceRate.Value)

	require.NotNil(t, report.Recommendation)
	assert.Equal(t, "Network", report.Recommendation.Category)
	assert.InDelta(t, 100.0, report.Recommendation.CategoryBreachRate, 1e-9)
	assert.Contains(t, report.Recommendation.Headline, "Network")
	assert.Contains(t, report.Recommendation.Headline, "100.0%")
	assert.Equal(t, 5.0, report.Recommendation.TargetComplianceRate)
	assert.Equal(t, "P1", report.Recommendation.Priority)
}

func TestAggregator_AllOpen(t *testing.T) {
	tickets := []domain.Ticket{
		openTicket("TKT-1", "P3", "Software", reportNow.Add(-2*time.Hour)),
		openTicket("TKT-2", "P3", "Software", reportNow.Add(-10*time.Hour)),
		openTicket("TKT-3", "P4", "Email", reportNow.Add(-30*time.Hour)),
	}

	report := newTestAggregator().Compute(tickets, reportNow)

	assert.Equal(t, 3, report.OpenCount)
	assert.False(t, report.MedianResolutionHours.Valid)
	assert.Equal(t, "N/A", report.MedianResolutionHours.Format())
	require.True(t, report.MedianBacklogAgeHours.Valid)
	assert.InDelta(t, 10.0, report.MedianBacklogAgeHours.Value, 1e-9)

	counts := map[string]int{}
	for _, b := range report.BacklogAge {
		counts[b.Label] = b.Tickets
	}
	assert.Equal(t, 1, counts["0-4h"])
	assert.Equal(t, 1, counts["4-12h"])
	assert.Equal(t, 1, counts["1-2d"])
	assert.Equal(t, 0, counts["5d+"])
}

func TestAggregator_RecomputesBreachAtNow(t *testing.T) {
	ticket := openTicket("TKT-1", "P1", "Access", reportNow.Add(-5*time.Hour))
	ticket.Breached = false

	report := newTestAggregator().Compute([]domain.Ticket{ticket}, reportNow)

	assert.Equal(t, 1, report.BreachCount)
	assert.Equal(t, 0.0, report.SLAComplianceRate.Value)
}

func TestAggregator_Reconciliation(t *testing.T) {
	cfg := services.DefaultGeneratorConfig(generationNow)
	tickets, err := services.GenerateTickets(cfg)
	require.NoError(t, err)

	report := newTestAggregator().Compute(tickets, generationNow)

	require.True(t, report.SLAComplianceRate.Valid)
	assert.GreaterOrEqual(t, report.SLAComplianceRate.Value, 0.0)
	assert.LessOrEqual(t, report.SLAComplianceRate.Value, 100.0)

	overallBreach := float64(report.BreachCount) / float64(report.TotalTickets) * 100
	assert.InDelta(t, 100-overallBreach, report.SLAComplianceRate.Value, 1e-9)

	for _, rates := range [][]domain.GroupRate{report.BreachRateByCategory, report.BreachRateByPriority} {
		var weighted float64
		var total int
		for _, r := range rates {
			if r.Rate.Valid {
				weighted += r.Rate.Value * float64(r.Tickets)
			}
			total += r.Tickets
		}
		assert.Equal(t, report.TotalTickets, total)
		assert.InDelta(t, overallBreach, weighted/float64(total), 1e-9)
	}

	var weekly int
	for i, p := range report.WeeklyVolume {
		weekly += p.Tickets
		assert.Equal(t, time.Monday, p.WeekStart.Weekday())
		if i > 0 {
			assert.True(t, p.WeekStart.After(report.WeeklyVolume[i-1].WeekStart))
		}
	}
	assert.Equal(t, report.TotalTickets, weekly)

	var backlog int
	for _, b := range report.BacklogAge {
		backlog += b.Tickets
	}
	assert.Equal(t, report.OpenCount, backlog)
}

func TestAggregator_WeeklyVolumeIsSparse(t *testing.T) {
	monday := time.Date(2025, time.September, 1, 9, 0, 0, 0, time.UTC)
	tickets := []domain.Ticket{
		resolvedTicket("TKT-1", "P3", "Software", monday, 1),
		resolvedTicket("TKT-2", "P3", "Software", monday.AddDate(0, 0, 6), 1),
		resolvedTicket("TKT-3", "P3", "Software", monday.AddDate(0, 0, 21), 1),
	}

	report := newTestAggregator().Compute(tickets, reportNow)

	require.Len(t, report.WeeklyVolume, 2)
	assert.Equal(t, time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC), report.WeeklyVolume[0].WeekStart)
	assert.Equal(t, 2, report.WeeklyVolume[0].Tickets)
	assert.Equal(t, time.Date(2025, time.September, 22, 0, 0, 0, 0, time.UTC), report.WeeklyVolume[1].WeekStart)
	assert.Equal(t, 1, report.WeeklyVolume[1].Tickets)
}

func TestAggregator_GroupingAndMedians(t *testing.T) {
	base := time.Date(2025, time.September, 10, 8, 0, 0, 0, time.UTC)
	tickets := []domain.Ticket{
		resolvedTicket("TKT-1", "P3", "Software", base, 2),
		resolvedTicket("TKT-2", "P3", "Software", base, 6),
		resolvedTicket("TKT-3", "P2", "Email", base, 20),
		openTicket("TKT-4", "P4", "Email", reportNow.Add(-1*time.Hour)),
	}
	tickets[2].Assignee = "Jonas"

	report := newTestAggregator().Compute(tickets, reportNow)

	assert.InDelta(t, 6.0, report.MedianResolutionHours.Value, 1e-9)

	names := make([]string, len(report.BreachRateByCategory))
	for i, r := range report.BreachRateByCategory {
		names[i] = r.Key
	}
	taxonomy := domain.DefaultTaxonomy()
	assert.Equal(t, taxonomy.CategoryNames(), names)

	network, ok := report.CategoryRate("Network")
	require.True(t, ok)
	assert.False(t, network.Rate.Valid)

	email, ok := report.CategoryRate("Email")
	require.True(t, ok)
	assert.Equal(t, 2, email.Tickets)
	assert.InDelta(t, 50.0, email.Rate.Value, 1e-9)

	assert.Equal(t, "Software", report.MostCommonCategory)
	assert.Equal(t, "P3", report.MostCommonPriority)

	var sales domain.DepartmentResolution
	for _, d := range report.DepartmentResolution {
		if d.Department == "Sales" {
			sales = d
		}
	}
	assert.Equal(t, 3, sales.Resolved)
	assert.InDelta(t, 6.0, sales.MedianResolutionHours.Value, 1e-9)

	var alex, mina domain.WorkloadItem
	for _, w := range report.AssigneeWorkload {
		switch w.Assignee {
		case "Alex":
			alex = w
		case "Mina":
			mina = w
		}
	}
	assert.Equal(t, 2, alex.Tickets)
	assert.InDelta(t, 4.0, alex.MedianResolutionHours.Value, 1e-9)
	assert.InDelta(t, 100.0, alex.ComplianceRate.Value, 1e-9)
	assert.Equal(t, 1, mina.Tickets)
	assert.False(t, mina.MedianResolutionHours.Valid)

	require.NotNil(t, report.Recommendation)
	assert.Equal(t, "Email", report.Recommendation.Category)
}

func TestAggregator_RecommendationTieUsesTaxonomyOrder(t *testing.T) {
	base := time.Date(2025, time.September, 10, 8, 0, 0, 0, time.UTC)
	tickets := []domain.Ticket{
		resolvedTicket("TKT-1", "P1", "Security", base, 10),
		resolvedTicket("TKT-2", "P1", "Hardware", base, 10),
	}

	report := newTestAggregator().Compute(tickets, reportNow)

	require.NotNil(t, report.Recommendation)
	assert.Equal(t, "Hardware", report.Recommendation.Category)
}

func TestAggregator_UnknownKeysAreAppended(t *testing.T) {
	base := time.Date(2025, time.September, 10, 8, 0, 0, 0, time.UTC)
	ticket := resolvedTicket("TKT-1", "P3", "Printing", base, 1)

	report := newTestAggregator().Compute([]domain.Ticket{ticket}, reportNow)

	last := report.BreachRateByCategory[len(report.BreachRateByCategory)-1]
	assert.Equal(t, "Printing", last.Key)
	assert.Equal(t, 1, last.Tickets)
}

func TestNewAggregator_ImprovementDelta(t *testing.T) {
	tests := []struct {
		name  string
		delta float64
		want  float64
	}{
		{name: "default", delta: 0, want: 5},
		{name: "in range", delta: 7.5, want: 7.5},
		{name: "below range", delta: 2, want: 5},
		{name: "above range", delta: 20, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := services.NewAggregator(domain.DefaultTaxonomy(), services.AggregatorOptions{ImprovementDelta: tt.delta})
			assert.Equal(t, tt.want, agg.ImprovementDelta())
		})
	}
}

func TestAggregator_TargetComplianceIsCapped(t *testing.T) {
	base := time.Date(2025, time.September, 10, 8, 0, 0, 0, time.UTC)
	tickets := make([]domain.Ticket, 0, 20)
	for i := 0; i < 19; i++ {
		tickets = append(tickets, resolvedTicket("TKT-OK", "P4", "Software", base, 1))
	}
	tickets = append(tickets, resolvedTicket("TKT-LATE", "P1", "Network", base, 10))

	agg := services.NewAggregator(domain.DefaultTaxonomy(), services.AggregatorOptions{ImprovementDelta: 10})
	report := agg.Compute(tickets, reportNow)

	require.NotNil(t, report.Recommendation)
	assert.InDelta(t, 95.0, report.SLAComplianceRate.Value, 1e-9)
	assert.Equal(t, 100.0, report.Recommendation.TargetComplianceRate)
}
