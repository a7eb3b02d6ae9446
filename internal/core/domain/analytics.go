package domain

import (
	"time"
)

// GroupRate is the breach rate of one group of tickets. The denominator is the
// group's own size.
type GroupRate struct {
	Key      string
	Tickets  int
	Breached int
	// Rate is a percentage in [0, 100], undefined for an empty group.
	Rate Metric
}

// GroupCount is a plain ticket count for one group.
type GroupCount struct {
	Key     string
	Tickets int
}

// VolumePoint is the number of tickets created in the week starting WeekStart
// (Monday 00:00 UTC).
type VolumePoint struct {
	WeekStart time.Time
	Tickets   int
}

// DepartmentResolution summarises resolved tickets of one department.
type DepartmentResolution struct {
	Department            string
	Tickets               int
	Resolved              int
	MedianResolutionHours Metric
}

// WorkloadItem summarises one assignee's tickets.
type WorkloadItem struct {
	Assignee              string
	Tickets               int
	Resolved              int
	MedianResolutionHours Metric
	ComplianceRate        Metric
}

// AgeBucket counts open tickets whose age falls in (MinHours, MaxHours].
// MaxHours is zero for the unbounded last bucket.
type AgeBucket struct {
	Label    string
	MinHours float64
	MaxHours float64
	Tickets  int
}

// Recommendation is the action text derived from the worst-performing category.
type Recommendation struct {
	Category              string
	CategoryBreachRate    float64
	Priority              string
	PriorityBreachRate    Metric
	CurrentComplianceRate Metric
	TargetComplianceRate  float64
	ImprovementDelta      float64
	Headline              string
	Actions               []string
}

// Report is the full KPI summary of a ticket dataset at a point in time.
type Report struct {
	GeneratedAt time.Time

	TotalTickets  int
	OpenCount     int
	ResolvedCount int
	BreachCount   int

	SLAComplianceRate     Metric
	MedianResolutionHours Metric
	MedianBacklogAgeHours Metric

	BreachRateByCategory []GroupRate
	BreachRateByPriority []GroupRate
	TicketsByCategory    []GroupCount
	MostCommonCategory   string
	MostCommonPriority   string

	WeeklyVolume         []VolumePoint
	BacklogAge           []AgeBucket
	DepartmentResolution []DepartmentResolution
	AssigneeWorkload     []WorkloadItem

	Recommendation *Recommendation

	// Warnings lists metrics that degraded to N/A because their group was empty.
	Warnings []string
}

// CategoryRate returns the breach rate entry for a category.
func (r *Report) CategoryRate(category string) (GroupRate, bool) {
	return findRate(r.BreachRateByCategory, category)
}

// PriorityRate returns the breach rate entry for a priority.
func (r *Report) PriorityRate(priority string) (GroupRate, bool) {
	return findRate(r.BreachRateByPriority, priority)
}

func findRate(rates []GroupRate, key string) (GroupRate, bool) {
	for _, rate := range rates {
		if rate.Key == key {
			return rate, true
		}
	}
	return GroupRate{}, false
}
