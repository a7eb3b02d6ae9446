package domain

import (
	"strings"
	"time"
)

// TicketStatus represents the lifecycle state of a ticket.
type TicketStatus string

const (
	StatusOpen     TicketStatus = "open"
	StatusResolved TicketStatus = "resolved"
)

// IsValid reports whether the status is one of the known values.
func (s TicketStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusResolved:
		return true
	}
	return false
}

func (s TicketStatus) String() string {
	return string(s)
}

// ParseTicketStatus accepts the persisted spelling in any letter case.
func ParseTicketStatus(value string) (TicketStatus, bool) {
	status := TicketStatus(strings.ToLower(strings.TrimSpace(value)))
	return status, status.IsValid()
}

// Ticket is a single service-desk record. Tickets are created in bulk by the
// generator and are read-only afterwards.
type Ticket struct {
	ID             string
	Priority       string
	Category       string
	Department     string
	Assignee       string
	CreatedAt      time.Time
	ResolvedAt     *time.Time
	SLATargetHours float64
	Status         TicketStatus
	Breached       bool
}

// IsResolved reports whether the ticket has been resolved.
func (t *Ticket) IsResolved() bool {
	return t.Status == StatusResolved && t.ResolvedAt != nil
}

// ResolutionHours returns the time from creation to resolution in hours.
// The second return value is false for open tickets.
func (t *Ticket) ResolutionHours() (float64, bool) {
	if !t.IsResolved() {
		return 0, false
	}
	return t.ResolvedAt.Sub(t.CreatedAt).Hours(), true
}

// AgeHours returns the elapsed time since creation at now, never negative.
func (t *Ticket) AgeHours(now time.Time) float64 {
	age := now.Sub(t.CreatedAt).Hours()
	if age < 0 {
		return 0
	}
	return age
}

// IsBreached derives the breach flag from the ticket's timestamps. Resolved
// tickets compare their resolution duration against the SLA target; open
// tickets compare their age at now.
func (t *Ticket) IsBreached(now time.Time) bool {
	if hours, ok := t.ResolutionHours(); ok {
		return hours > t.SLATargetHours
	}
	return t.AgeHours(now) > t.SLATargetHours
}

// CreatedDate returns the UTC calendar date the ticket was created on.
func (t *Ticket) CreatedDate() time.Time {
	c := t.CreatedAt.UTC()
	return time.Date(c.Year(), c.Month(), c.Day(), 0, 0, 0, 0, time.UTC)
}
