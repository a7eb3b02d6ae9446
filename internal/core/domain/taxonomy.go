package domain

import (
	"errors"
	"fmt"
	"math"
	"slices"

	apperrors "github.com/lorrc/service-desk-analytics/internal/core/errors"
)

// MaxBaseResolutionHours bounds the median resolution time of any
// priority and category combination.
const MaxBaseResolutionHours = 24 * 365

// PriorityLevel describes one priority and the SLA that applies to it.
type PriorityLevel struct {
	Name string `yaml:"name" json:"name"`
	// SLAHours is the maximum resolution time before the ticket breaches.
	SLAHours float64 `yaml:"sla_hours" json:"slaHours"`
	// BaseResolutionHours is the median resolution time used by the generator.
	BaseResolutionHours float64 `yaml:"base_resolution_hours" json:"baseResolutionHours"`
	Weight              float64 `yaml:"weight" json:"weight"`
}

// CategoryLevel describes one ticket category.
type CategoryLevel struct {
	Name string `yaml:"name" json:"name"`
	// ResolutionFactor scales the priority's base resolution time.
	ResolutionFactor float64 `yaml:"resolution_factor" json:"resolutionFactor"`
	Weight           float64 `yaml:"weight" json:"weight"`
}

// PoolMember is a weighted department or assignee.
type PoolMember struct {
	Name   string  `yaml:"name" json:"name"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// Taxonomy is the single source of the enumerations shared by the generator,
// the dataset readers and the aggregator. Slice order is the canonical order
// used for report grouping and tie breaking.
type Taxonomy struct {
	Priorities  []PriorityLevel `yaml:"priorities" json:"priorities"`
	Categories  []CategoryLevel `yaml:"categories" json:"categories"`
	Departments []PoolMember    `yaml:"departments" json:"departments"`
	Assignees   []PoolMember    `yaml:"assignees" json:"assignees"`
}

// DefaultTaxonomy returns the service-desk taxonomy used when no taxonomy file
// is configured.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		Priorities: []PriorityLevel{
			{Name: "P1", SLAHours: 4, BaseResolutionHours: 2, Weight: 0.08},
			{Name: "P2", SLAHours: 12, BaseResolutionHours: 8, Weight: 0.18},
			{Name: "P3", SLAHours: 48, BaseResolutionHours: 30, Weight: 0.44},
			{Name: "P4", SLAHours: 120, BaseResolutionHours: 72, Weight: 0.30},
		},
		Categories: []CategoryLevel{
			{Name: "Network", ResolutionFactor: 1.2, Weight: 0.18},
			{Name: "Hardware", ResolutionFactor: 1.1, Weight: 0.16},
			{Name: "Software", ResolutionFactor: 1.0, Weight: 0.26},
			{Name: "Access", ResolutionFactor: 0.7, Weight: 0.14},
			{Name: "Email", ResolutionFactor: 0.7, Weight: 0.12},
			{Name: "Security", ResolutionFactor: 1.2, Weight: 0.08},
			{Name: "Other", ResolutionFactor: 1.0, Weight: 0.06},
		},
		Departments: []PoolMember{
			{Name: "Sales", Weight: 0.16},
			{Name: "HR", Weight: 0.10},
			{Name: "Finance", Weight: 0.10},
			{Name: "Operations", Weight: 0.18},
			{Name: "Engineering", Weight: 0.18},
			{Name: "Students", Weight: 0.20},
			{Name: "Admin", Weight: 0.08},
		},
		Assignees: []PoolMember{
			{Name: "Alex", Weight: 0.18},
			{Name: "Mina", Weight: 0.14},
			{Name: "Jonas", Weight: 0.16},
			{Name: "Sara", Weight: 0.12},
			{Name: "Lea", Weight: 0.14},
			{Name: "Omar", Weight: 0.14},
			{Name: "Noah", Weight: 0.12},
		},
	}
}

// Validate checks that every pool is populated and the numeric settings are
// usable. All problems are reported together, wrapped in
// ErrInvalidConfiguration.
func (tx *Taxonomy) Validate() error {
	errs := apperrors.NewValidationErrors()
	tx.Check(errs)
	if errs.HasErrors() {
		return apperrors.NewInvalidConfigurationError(errs)
	}
	return nil
}

// Check records every taxonomy problem in errs.
func (tx *Taxonomy) Check(errs *apperrors.ValidationErrors) {
	if len(tx.Priorities) == 0 {
		errs.Add("priorities", "at least one priority is required")
	}
	if len(tx.Categories) == 0 {
		errs.Add("categories", "at least one category is required")
	}
	if len(tx.Departments) == 0 {
		errs.Add("departments", "at least one department is required")
	}
	if len(tx.Assignees) == 0 {
		errs.Add("assignees", "at least one assignee is required")
	}

	for i, p := range tx.Priorities {
		if p.Name == "" {
			errs.Add("priorities", fmt.Sprintf("entry %d has no name", i))
		}
		if !isFinite(p.SLAHours) || p.SLAHours <= 0 {
			errs.Add("priorities", fmt.Sprintf("%s: sla_hours must be a positive number", p.Name))
		}
		if !isFinite(p.BaseResolutionHours) || p.BaseResolutionHours < 0 {
			errs.Add("priorities", fmt.Sprintf("%s: base_resolution_hours must be a non-negative number", p.Name))
		}
	}
	maxFactor := 0.0
	for i, c := range tx.Categories {
		if c.Name == "" {
			errs.Add("categories", fmt.Sprintf("entry %d has no name", i))
		}
		if !isFinite(c.ResolutionFactor) || c.ResolutionFactor < 0 {
			errs.Add("categories", fmt.Sprintf("%s: resolution_factor must be a non-negative number", c.Name))
			continue
		}
		maxFactor = math.Max(maxFactor, c.ResolutionFactor)
	}
	for _, p := range tx.Priorities {
		if isFinite(p.BaseResolutionHours) && p.BaseResolutionHours*maxFactor > MaxBaseResolutionHours {
			errs.Add("priorities", fmt.Sprintf("%s: base_resolution_hours times the largest resolution_factor exceeds %d hours",
				p.Name, MaxBaseResolutionHours))
		}
	}

	checkDuplicates(errs, "priorities", tx.PriorityNames())
	checkDuplicates(errs, "categories", tx.CategoryNames())
	checkDuplicates(errs, "departments", tx.DepartmentNames())
	checkDuplicates(errs, "assignees", tx.AssigneeNames())

	checkWeights(errs, "priorities", priorityWeights(tx.Priorities))
	checkWeights(errs, "categories", categoryWeights(tx.Categories))
	checkWeights(errs, "departments", memberWeights(tx.Departments))
	checkWeights(errs, "assignees", memberWeights(tx.Assignees))
}

// PriorityNames returns the priority names in canonical order.
func (tx *Taxonomy) PriorityNames() []string {
	names := make([]string, len(tx.Priorities))
	for i, p := range tx.Priorities {
		names[i] = p.Name
	}
	return names
}

// CategoryNames returns the category names in canonical order.
func (tx *Taxonomy) CategoryNames() []string {
	names := make([]string, len(tx.Categories))
	for i, c := range tx.Categories {
		names[i] = c.Name
	}
	return names
}

// DepartmentNames returns the department names in canonical order.
func (tx *Taxonomy) DepartmentNames() []string {
	return memberNames(tx.Departments)
}

// AssigneeNames returns the assignee names in canonical order.
func (tx *Taxonomy) AssigneeNames() []string {
	return memberNames(tx.Assignees)
}

// SLAHours looks up the SLA target for a priority.
func (tx *Taxonomy) SLAHours(priority string) (float64, bool) {
	for _, p := range tx.Priorities {
		if p.Name == priority {
			return p.SLAHours, true
		}
	}
	return 0, false
}

// Priority returns the priority level with the given name.
func (tx *Taxonomy) Priority(name string) (PriorityLevel, bool) {
	for _, p := range tx.Priorities {
		if p.Name == name {
			return p, true
		}
	}
	return PriorityLevel{}, false
}

// Category returns the category level with the given name.
func (tx *Taxonomy) Category(name string) (CategoryLevel, bool) {
	for _, c := range tx.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return CategoryLevel{}, false
}

// PriorityWeights returns the sampling weights in canonical order.
func (tx *Taxonomy) PriorityWeights() []float64 {
	return priorityWeights(tx.Priorities)
}

// CategoryWeights returns the sampling weights in canonical order.
func (tx *Taxonomy) CategoryWeights() []float64 {
	return categoryWeights(tx.Categories)
}

// DepartmentWeights returns the sampling weights in canonical order.
func (tx *Taxonomy) DepartmentWeights() []float64 {
	return memberWeights(tx.Departments)
}

// AssigneeWeights returns the sampling weights in canonical order.
func (tx *Taxonomy) AssigneeWeights() []float64 {
	return memberWeights(tx.Assignees)
}

func (tx *Taxonomy) HasPriority(name string) bool {
	return slices.Contains(tx.PriorityNames(), name)
}

func (tx *Taxonomy) HasCategory(name string) bool {
	return slices.Contains(tx.CategoryNames(), name)
}

func (tx *Taxonomy) HasDepartment(name string) bool {
	return slices.Contains(tx.DepartmentNames(), name)
}

func (tx *Taxonomy) HasAssignee(name string) bool {
	return slices.Contains(tx.AssigneeNames(), name)
}

func memberNames(members []PoolMember) []string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	return names
}

func priorityWeights(levels []PriorityLevel) []float64 {
	w := make([]float64, len(levels))
	for i, l := range levels {
		w[i] = l.Weight
	}
	return w
}

func categoryWeights(levels []CategoryLevel) []float64 {
	w := make([]float64, len(levels))
	for i, l := range levels {
		w[i] = l.Weight
	}
	return w
}

func memberWeights(members []PoolMember) []float64 {
	w := make([]float64, len(members))
	for i, m := range members {
		w[i] = m.Weight
	}
	return w
}

// checkWeights rejects negative or non-finite weights. A pool whose weights are all zero
// (typically omitted in the taxonomy file) is sampled uniformly.
func checkWeights(errs *apperrors.ValidationErrors, field string, weights []float64) {
	for _, w := range weights {
		if !isFinite(w) || w < 0 {
			errs.Add(field, "weights must be non-negative numbers")
			return
		}
	}
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func checkDuplicates(errs *apperrors.ValidationErrors, field string, names []string) {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			errs.Add(field, fmt.Sprintf("duplicate entry %q", name))
		}
		seen[name] = true
	}
}

// CheckTicket verifies a stored ticket against the taxonomy and the record
// invariants. It returns the offending field and the problem, or "" and nil.
// The breach flag is only checked for resolved tickets; an open ticket's flag
// depends on when it was computed.
func (tx *Taxonomy) CheckTicket(t *Ticket) (string, error) {
	switch {
	case t.ID == "":
		return "id", errors.New("empty id")
	case !tx.HasPriority(t.Priority):
		return "priority", fmt.Errorf("unknown priority %q", t.Priority)
	case !tx.HasCategory(t.Category):
		return "category", fmt.Errorf("unknown category %q", t.Category)
	case !tx.HasDepartment(t.Department):
		return "department", fmt.Errorf("unknown department %q", t.Department)
	case !tx.HasAssignee(t.Assignee):
		return "assignee", fmt.Errorf("unknown assignee %q", t.Assignee)
	case !t.Status.IsValid():
		return "status", fmt.Errorf("unknown status %q", t.Status)
	case t.Status == StatusResolved && t.ResolvedAt == nil:
		return "resolved_at", errors.New("resolved ticket without resolved_at")
	case t.Status == StatusOpen && t.ResolvedAt != nil:
		return "resolved_at", errors.New("open ticket with resolved_at")
	case t.ResolvedAt != nil && t.ResolvedAt.Before(t.CreatedAt):
		return "resolved_at", errors.New("resolved before creation")
	}

	if want, _ := tx.SLAHours(t.Priority); math.Abs(t.SLATargetHours-want) > 1e-9 {
		return "sla_target_hours", fmt.Errorf("%s expects %g hours, got %g", t.Priority, want, t.SLATargetHours)
	}
	if hours, ok := t.ResolutionHours(); ok && (hours > t.SLATargetHours) != t.Breached {
		return "breached", fmt.Errorf("flag %t disagrees with resolution time", t.Breached)
	}
	return "", nil
}
