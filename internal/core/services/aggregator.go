package services

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-analytics/internal/core/errors"
)

const (
	DefaultImprovementDelta = 5.0
	MinImprovementDelta     = 5.0
	MaxImprovementDelta     = 10.0
)

// backlogBuckets are the upper bounds, in hours, of the open-ticket age
// histogram. The last bucket is unbounded.
var backlogBuckets = []struct {
	label string
	upper float64
}{
	{"0-4h", 4},
	{"4-12h", 12},
	{"12-24h", 24},
	{"1-2d", 48},
	{"2-5d", 120},
	{"5d+", 0},
}

// AggregatorOptions tunes report computation.
type AggregatorOptions struct {
	// ImprovementDelta is the compliance gain, in percentage points, that the
	// recommendation targets. Zero selects DefaultImprovementDelta; other
	// values are clamped to [5, 10].
	ImprovementDelta float64
}

// Aggregator turns a ticket dataset into a Report. It holds no mutable state
// and is safe for concurrent use.
type Aggregator struct {
	taxonomy domain.Taxonomy
	delta    float64
}

func NewAggregator(taxonomy domain.Taxonomy, opts AggregatorOptions) *Aggregator {
	delta := opts.ImprovementDelta
	switch {
	case delta == 0:
		delta = DefaultImprovementDelta
	case delta < MinImprovementDelta:
		delta = MinImprovementDelta
	case delta > MaxImprovementDelta:
		delta = MaxImprovementDelta
	}
	return &Aggregator{taxonomy: taxonomy, delta: delta}
}

// Taxonomy returns the enumerations the aggregator groups by.
func (a *Aggregator) Taxonomy() domain.Taxonomy {
	return a.taxonomy
}

// ImprovementDelta returns the effective recommendation delta.
func (a *Aggregator) ImprovementDelta() float64 {
	return a.delta
}

// Compute builds the report for tickets as seen at now. Breach flags are
// recomputed from the timestamps, so the stored flag of an open ticket may be
// stale without affecting the result. Empty groups degrade to N/A and are
// listed in Report.Warnings.
func (a *Aggregator) Compute(tickets []domain.Ticket, now time.Time) *domain.Report {
	now = now.UTC()
	report := &domain.Report{
		GeneratedAt:  now,
		TotalTickets: len(tickets),
	}

	breached := make([]bool, len(tickets))
	var resolutionHours, backlogHours []float64
	for i := range tickets {
		t := &tickets[i]
		breached[i] = t.IsBreached(now)
		if breached[i] {
			report.BreachCount++
		}
		if hours, ok := t.ResolutionHours(); ok {
			report.ResolvedCount++
			resolutionHours = append(resolutionHours, hours)
		} else {
			report.OpenCount++
			backlogHours = append(backlogHours, t.AgeHours(now))
		}
	}

	if report.TotalTickets > 0 {
		report.SLAComplianceRate = domain.Defined(100 - percent(report.BreachCount, report.TotalTickets))
	} else {
		report.SLAComplianceRate = domain.Undefined()
		report.Warnings = append(report.Warnings, emptyGroupWarning("sla compliance rate", "no tickets"))
	}

	report.MedianResolutionHours = median(resolutionHours)
	if !report.MedianResolutionHours.Valid {
		report.Warnings = append(report.Warnings, emptyGroupWarning("median resolution hours", "no resolved tickets"))
	}
	report.MedianBacklogAgeHours = median(backlogHours)
	if !report.MedianBacklogAgeHours.Valid {
		report.Warnings = append(report.Warnings, emptyGroupWarning("median backlog age hours", "no open tickets"))
	}

	categoryKeys := groupKeys(a.taxonomy.CategoryNames(), tickets, func(t *domain.Ticket) string { return t.Category })
	priorityKeys := groupKeys(a.taxonomy.PriorityNames(), tickets, func(t *domain.Ticket) string { return t.Priority })

	report.BreachRateByCategory = breachRates(categoryKeys, tickets, breached, func(t *domain.Ticket) string { return t.Category })
	report.BreachRateByPriority = breachRates(priorityKeys, tickets, breached, func(t *domain.Ticket) string { return t.Priority })
	report.Warnings = append(report.Warnings, rateWarnings("category", report.BreachRateByCategory)...)
	report.Warnings = append(report.Warnings, rateWarnings("priority", report.BreachRateByPriority)...)

	report.TicketsByCategory = make([]domain.GroupCount, len(report.BreachRateByCategory))
	for i, rate := range report.BreachRateByCategory {
		report.TicketsByCategory[i] = domain.GroupCount{Key: rate.Key, Tickets: rate.Tickets}
	}
	report.MostCommonCategory = mostCommon(report.BreachRateByCategory)
	report.MostCommonPriority = mostCommon(report.BreachRateByPriority)

	report.WeeklyVolume = weeklyVolume(tickets)
	report.BacklogAge = backlogAge(backlogHours)
	report.DepartmentResolution = a.departmentResolution(tickets)
	report.AssigneeWorkload = a.assigneeWorkload(tickets, breached)

	for _, d := range report.DepartmentResolution {
		if !d.MedianResolutionHours.Valid {
			report.Warnings = append(report.Warnings,
				emptyGroupWarning("median resolution hours for department "+d.Department, "no resolved tickets"))
		}
	}
	for _, w := range report.AssigneeWorkload {
		if !w.MedianResolutionHours.Valid {
			report.Warnings = append(report.Warnings,
				emptyGroupWarning("median resolution hours for assignee "+w.Assignee, "no resolved tickets"))
		}
	}

	report.Recommendation = buildRecommendation(report, a.delta)
	return report
}

// groupKeys lists the canonical taxonomy keys followed by any key found in the
// data but not in the taxonomy, in order of first occurrence.
func groupKeys(canonical []string, tickets []domain.Ticket, key func(*domain.Ticket) string) []string {
	keys := slices.Clone(canonical)
	for i := range tickets {
		k := key(&tickets[i])
		if !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	return keys
}

func breachRates(keys []string, tickets []domain.Ticket, breached []bool, key func(*domain.Ticket) string) []domain.GroupRate {
	index := make(map[string]int, len(keys))
	rates := make([]domain.GroupRate, len(keys))
	for i, k := range keys {
		index[k] = i
		rates[i].Key = k
	}

	for i := range tickets {
		r := &rates[index[key(&tickets[i])]]
		r.Tickets++
		if breached[i] {
			r.Breached++
		}
	}

	for i := range rates {
		if rates[i].Tickets > 0 {
			rates[i].Rate = domain.Defined(percent(rates[i].Breached, rates[i].Tickets))
		}
	}
	return rates
}

func rateWarnings(dimension string, rates []domain.GroupRate) []string {
	var warnings []string
	for _, r := range rates {
		if !r.Rate.Valid {
			warnings = append(warnings, emptyGroupWarning(fmt.Sprintf("breach rate for %s %s", dimension, r.Key), "no tickets"))
		}
	}
	return warnings
}

// mostCommon returns the key with the most tickets. Ties keep the earlier key.
func mostCommon(rates []domain.GroupRate) string {
	best, bestCount := "", 0
	for _, r := range rates {
		if r.Tickets > bestCount {
			best, bestCount = r.Key, r.Tickets
		}
	}
	return best
}

// weeklyVolume counts tickets per Monday-start UTC week. Weeks without tickets
// are omitted.
func weeklyVolume(tickets []domain.Ticket) []domain.VolumePoint {
	counts := make(map[time.Time]int)
	for i := range tickets {
		counts[weekStart(tickets[i].CreatedAt)]++
	}

	points := make([]domain.VolumePoint, 0, len(counts))
	for week, n := range counts {
		points = append(points, domain.VolumePoint{WeekStart: week, Tickets: n})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].WeekStart.Before(points[j].WeekStart) })
	return points
}

func weekStart(t time.Time) time.Time {
	u := t.UTC()
	day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func backlogAge(ages []float64) []domain.AgeBucket {
	buckets := make([]domain.AgeBucket, len(backlogBuckets))
	lower := 0.0
	for i, b := range backlogBuckets {
		buckets[i] = domain.AgeBucket{Label: b.label, MinHours: lower, MaxHours: b.upper}
		lower = b.upper
	}

	for _, age := range ages {
		for i, b := range backlogBuckets {
			if b.upper == 0 || age <= b.upper {
				buckets[i].Tickets++
				break
			}
		}
	}
	return buckets
}

func (a *Aggregator) departmentResolution(tickets []domain.Ticket) []domain.DepartmentResolution {
	keys := groupKeys(a.taxonomy.DepartmentNames(), tickets, func(t *domain.Ticket) string { return t.Department })
	index := make(map[string]int, len(keys))
	hours := make([][]float64, len(keys))
	out := make([]domain.DepartmentResolution, len(keys))
	for i, k := range keys {
		index[k] = i
		out[i].Department = k
	}

	for i := range tickets {
		t := &tickets[i]
		idx := index[t.Department]
		out[idx].Tickets++
		if h, ok := t.ResolutionHours(); ok {
			out[idx].Resolved++
			hours[idx] = append(hours[idx], h)
		}
	}

	for i := range out {
		out[i].MedianResolutionHours = median(hours[i])
	}
	return out
}

func (a *Aggregator) assigneeWorkload(tickets []domain.Ticket, breached []bool) []domain.WorkloadItem {
	keys := groupKeys(a.taxonomy.AssigneeNames(), tickets, func(t *domain.Ticket) string { return t.Assignee })
	index := make(map[string]int, len(keys))
	hours := make([][]float64, len(keys))
	met := make([]int, len(keys))
	out := make([]domain.WorkloadItem, len(keys))
	for i, k := range keys {
		index[k] = i
		out[i].Assignee = k
	}

	for i := range tickets {
		t := &tickets[i]
		idx := index[t.Assignee]
		out[idx].Tickets++
		if !breached[i] {
			met[idx]++
		}
		if h, ok := t.ResolutionHours(); ok {
			out[idx].Resolved++
			hours[idx] = append(hours[idx], h)
		}
	}

	for i := range out {
		out[i].MedianResolutionHours = median(hours[i])
		if out[i].Tickets > 0 {
			out[i].ComplianceRate = domain.Defined(percent(met[i], out[i].Tickets))
		}
	}
	return out
}

// median returns the middle value, averaging the two central values for an
// even count. The input is not modified.
func median(values []float64) domain.Metric {
	if len(values) == 0 {
		return domain.Undefined()
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return domain.Defined(sorted[mid])
	}
	return domain.Defined((sorted[mid-1] + sorted[mid]) / 2)
}

func percent(part, total int) float64 {
	if total == 0 {
		return math.NaN()
	}
	return float64(part) / float64(total) * 100
}

func emptyGroupWarning(metric, reason string) string {
	return fmt.Sprintf("%s: %s (%s)", metric, apperrors.ErrEmptyGroup, reason)
}
