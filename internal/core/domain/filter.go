package domain

import (
	"slices"
	"time"
)

// ReportFilter narrows a dataset before aggregation. Empty slices and nil
// dates match everything. Date bounds are inclusive UTC calendar dates.
type ReportFilter struct {
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Priorities  []string
	Categories  []string
	Departments []string
}

// IsEmpty reports whether the filter matches every ticket.
func (f ReportFilter) IsEmpty() bool {
	return f.CreatedFrom == nil && f.CreatedTo == nil &&
		len(f.Priorities) == 0 && len(f.Categories) == 0 && len(f.Departments) == 0
}

// Matches reports whether a single ticket passes the filter.
func (f ReportFilter) Matches(t *Ticket) bool {
	day := t.CreatedDate()
	if f.CreatedFrom != nil && day.Before(truncateDay(*f.CreatedFrom)) {
		return false
	}
	if f.CreatedTo != nil && day.After(truncateDay(*f.CreatedTo)) {
		return false
	}
	if len(f.Priorities) > 0 && !slices.Contains(f.Priorities, t.Priority) {
		return false
	}
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, t.Category) {
		return false
	}
	if len(f.Departments) > 0 && !slices.Contains(f.Departments, t.Department) {
		return false
	}
	return true
}

// Apply returns the matching tickets in their original order. The input is
// not modified.
func (f ReportFilter) Apply(tickets []Ticket) []Ticket {
	if f.IsEmpty() {
		return tickets
	}
	out := make([]Ticket, 0, len(tickets))
	for i := range tickets {
		if f.Matches(&tickets[i]) {
			out = append(out, tickets[i])
		}
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
