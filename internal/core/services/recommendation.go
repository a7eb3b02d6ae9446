package services

import (
	"fmt"
	"math"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
)

// buildRecommendation targets the category with the highest breach rate.
// Ties go to the category listed first in the taxonomy. It returns nil when
// no category has tickets.
func buildRecommendation(report *domain.Report, delta float64) *domain.Recommendation {
	worstCategory, ok := worstRate(report.BreachRateByCategory)
	if !ok {
		return nil
	}

	rec := &domain.Recommendation{
		Category:              worstCategory.Key,
		CategoryBreachRate:    worstCategory.Rate.Value,
		CurrentComplianceRate: report.SLAComplianceRate,
		ImprovementDelta:      delta,
		PriorityBreachRate:    domain.Undefined(),
	}
	rec.TargetComplianceRate = math.Min(100, report.SLAComplianceRate.Value+delta)

	if worstPriority, ok := worstRate(report.BreachRateByPriority); ok {
		rec.Priority = worstPriority.Key
		rec.PriorityBreachRate = worstPriority.Rate
	}

	rec.Headline = fmt.Sprintf("%s has the highest SLA breach rate (%.1f%% breached).",
		rec.Category, rec.CategoryBreachRate)
	rec.Actions = []string{
		fmt.Sprintf("Create a short runbook for %s tickets covering common causes and standard fixes.", rec.Category),
		"Add a triage checklist so P1/P2 tickets get the right category and assignee immediately.",
		fmt.Sprintf("Review recurring %s issues weekly and turn each fix into a knowledge-base article.", rec.Category),
		fmt.Sprintf("Target %.1f%% SLA compliance over the next month, up from %s%%.",
			rec.TargetComplianceRate, rec.CurrentComplianceRate.Format()),
	}
	if rec.Priority != "" {
		rec.Actions = append(rec.Actions,
			fmt.Sprintf("Focus first on %s tickets, which breach most often (%s%%).", rec.Priority, rec.PriorityBreachRate.Format()))
	}
	return rec
}

func worstRate(rates []domain.GroupRate) (domain.GroupRate, bool) {
	var worst domain.GroupRate
	found := false
	for _, r := range rates {
		if !r.Rate.Valid {
			continue
		}
		if !found || r.Rate.Value > worst.Rate.Value {
			worst, found = r, true
		}
	}
	return worst, found
}
