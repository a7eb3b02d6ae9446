package services

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-analytics/internal/core/errors"
)

const (
	// resolutionSigma is the log-space spread of resolution durations.
	resolutionSigma    = 0.55
	minResolutionHours = 0.2

	firstTicketNumber = 100000

	// A share of tickets waits on parts or approvals and takes several times
	// longer than usual.
	minOutliers      = 8
	outlierDivisor   = 150
	outlierMinFactor = 2.5
	outlierMaxFactor = 6.0
)

// GeneratorConfig controls synthetic dataset generation.
type GeneratorConfig struct {
	Count       int
	WindowStart time.Time
	WindowEnd   time.Time
	// ResolutionRate is the probability that a ticket is already resolved.
	ResolutionRate float64
	Seed           uint64
	// Now is the generation time used to classify open tickets.
	Now      time.Time
	Taxonomy domain.Taxonomy
}

// DefaultGeneratorConfig mirrors the reference dataset: 1200 tickets created
// over five months starting 2025-09-01, 92% resolved.
func DefaultGeneratorConfig(now time.Time) GeneratorConfig {
	start := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)
	return GeneratorConfig{
		Count:          1200,
		WindowStart:    start,
		WindowEnd:      start.AddDate(0, 5, 0),
		ResolutionRate: 0.92,
		Seed:           7,
		Now:            now.UTC(),
		Taxonomy:       domain.DefaultTaxonomy(),
	}
}

// Validate reports every configuration problem at once.
func (c *GeneratorConfig) Validate() error {
	errs := apperrors.NewValidationErrors()

	if c.Count <= 0 {
		errs.Add("count", "must be positive")
	}
	if c.WindowStart.After(c.WindowEnd) {
		errs.Add("window", "start must not be after end")
	}
	if math.IsNaN(c.ResolutionRate) || c.ResolutionRate < 0 || c.ResolutionRate > 1 {
		errs.Add("resolutionRate", "must be between 0 and 1")
	}
	c.Taxonomy.Check(errs)

	if errs.HasErrors() {
		return apperrors.NewInvalidConfigurationError(errs)
	}
	return nil
}

// GenerateTickets produces cfg.Count tickets ordered by creation time. The
// output depends only on cfg, so a fixed seed reproduces the same dataset.
func GenerateTickets(cfg GeneratorConfig) ([]domain.Ticket, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	tx := cfg.Taxonomy
	n := cfg.Count

	created := sampleCreationTimes(rng, cfg.WindowStart, cfg.WindowEnd, n)

	priorityWeights := tx.PriorityWeights()
	categoryWeights := tx.CategoryWeights()
	departmentWeights := tx.DepartmentWeights()
	assigneeWeights := tx.AssigneeWeights()

	tickets := make([]domain.Ticket, n)
	durations := make([]float64, n)
	for i := range tickets {
		priority := tx.Priorities[weightedIndex(rng, priorityWeights)]
		category := tx.Categories[weightedIndex(rng, categoryWeights)]
		department := tx.Departments[weightedIndex(rng, departmentWeights)]
		assignee := tx.Assignees[weightedIndex(rng, assigneeWeights)]

		tickets[i] = domain.Ticket{
			ID:             fmt.Sprintf("TKT-%d", firstTicketNumber+i),
			Priority:       priority.Name,
			Category:       category.Name,
			Department:     department.Name,
			Assignee:       assignee.Name,
			CreatedAt:      created[i],
			SLATargetHours: priority.SLAHours,
		}
		durations[i] = sampleResolutionHours(rng, priority.BaseResolutionHours*category.ResolutionFactor)
	}

	applyOutliers(rng, durations)

	for i := range tickets {
		t := &tickets[i]
		if rng.Float64() < cfg.ResolutionRate {
			resolved := t.CreatedAt.Add(hoursToDuration(durations[i])).Truncate(time.Second)
			t.ResolvedAt = &resolved
			t.Status = domain.StatusResolved
		} else {
			t.Status = domain.StatusOpen
		}
		t.Breached = t.IsBreached(cfg.Now)
	}

	return tickets, nil
}

// sampleCreationTimes draws whole-second timestamps uniformly from
// [start, end) and returns them sorted.
func sampleCreationTimes(rng *rand.Rand, start, end time.Time, n int) []time.Time {
	from := start.UTC().Unix()
	span := end.UTC().Unix() - from

	seconds := make([]int64, n)
	for i := range seconds {
		if span > 0 {
			seconds[i] = from + rng.Int64N(span)
		} else {
			seconds[i] = from
		}
	}
	sort.Slice(seconds, func(a, b int) bool { return seconds[a] < seconds[b] })

	out := make([]time.Time, n)
	for i, s := range seconds {
		out[i] = time.Unix(s, 0).UTC()
	}
	return out
}

// sampleResolutionHours draws from a log-normal distribution whose median is
// the given base duration.
func sampleResolutionHours(rng *rand.Rand, median float64) float64 {
	if median <= 0 {
		return minResolutionHours
	}
	hours := math.Exp(math.Log(median) + resolutionSigma*rng.NormFloat64())
	return math.Max(minResolutionHours, hours)
}

// applyOutliers stretches max(8, n/150) distinct durations, capped at n.
func applyOutliers(rng *rand.Rand, durations []float64) {
	n := len(durations)
	k := max(minOutliers, n/outlierDivisor)
	if k > n {
		k = n
	}
	for _, idx := range rng.Perm(n)[:k] {
		durations[idx] *= outlierMinFactor + rng.Float64()*(outlierMaxFactor-outlierMinFactor)
	}
}

// weightedIndex picks an index proportionally to weights, or uniformly when
// every weight is zero.
func weightedIndex(rng *rand.Rand, weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return rng.IntN(len(weights))
	}

	target := rng.Float64() * total
	for i, w := range weights {
		target -= w
		if target < 0 {
			return i
		}
	}
	return len(weights) - 1
}

// hoursToDuration saturates instead of overflowing on extreme samples.
func hoursToDuration(hours float64) time.Duration {
	nanos := hours * float64(time.Hour)
	if nanos >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(nanos)
}
