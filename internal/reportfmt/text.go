package reportfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	sectionStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// WriteText renders the report as a terminal summary with one table per
// breakdown. Styles degrade to plain text when w is not a terminal.
func WriteText(w io.Writer, r *domain.Report) error {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Service desk KPI report"))
	fmt.Fprintf(&sb, "\nGenerated at %s\n\n", r.GeneratedAt.UTC().Format(time.RFC3339))

	fmt.Fprintf(&sb, "Tickets:                  %d total, %d open, %d resolved, %d breached\n",
		r.TotalTickets, r.OpenCount, r.ResolvedCount, r.BreachCount)
	fmt.Fprintf(&sb, "SLA compliance:           %s\n", percent(r.SLAComplianceRate))
	fmt.Fprintf(&sb, "Median resolution time:   %s\n", hours(r.MedianResolutionHours))
	fmt.Fprintf(&sb, "Median backlog age:       %s\n", hours(r.MedianBacklogAgeHours))
	if r.MostCommonCategory != "" {
		fmt.Fprintf(&sb, "Most common category:     %s\n", r.MostCommonCategory)
	}
	if r.MostCommonPriority != "" {
		fmt.Fprintf(&sb, "Most common priority:     %s\n", r.MostCommonPriority)
	}

	section(&sb, "Breach rate by category", rateTable("Category", r.BreachRateByCategory))
	section(&sb, "Breach rate by priority", rateTable("Priority", r.BreachRateByPriority))

	volume := make([][]string, 0, len(r.WeeklyVolume))
	for _, v := range r.WeeklyVolume {
		volume = append(volume, []string{v.WeekStart.UTC().Format(time.DateOnly), strconv.Itoa(v.Tickets)})
	}
	section(&sb, "Weekly ticket volume", newTable([]string{"Week of", "Tickets"}, volume))

	backlog := make([][]string, 0, len(r.BacklogAge))
	for _, b := range r.BacklogAge {
		backlog = append(backlog, []string{b.Label, strconv.Itoa(b.Tickets)})
	}
	section(&sb, "Backlog age (open tickets)", newTable([]string{"Age", "Tickets"}, backlog))

	departments := make([][]string, 0, len(r.DepartmentResolution))
	for _, d := range r.DepartmentResolution {
		departments = append(departments, []string{
			d.Department, strconv.Itoa(d.Tickets), strconv.Itoa(d.Resolved), d.MedianResolutionHours.Format(),
		})
	}
	section(&sb, "Resolution time by department",
		newTable([]string{"Department", "Tickets", "Resolved", "Median hours"}, departments))

	workload := make([][]string, 0, len(r.AssigneeWorkload))
	for _, a := range r.AssigneeWorkload {
		workload = append(workload, []string{
			a.Assignee, strconv.Itoa(a.Tickets), strconv.Itoa(a.Resolved),
			a.MedianResolutionHours.Format(), a.ComplianceRate.Format(),
		})
	}
	section(&sb, "Assignee workload",
		newTable([]string{"Assignee", "Tickets", "Resolved", "Median hours", "Compliance %"}, workload))

	sb.WriteString("\n" + sectionStyle.Render("Recommendation") + "\n")
	if rec := r.Recommendation; rec != nil {
		sb.WriteString(rec.Headline + "\n")
		for _, action := range rec.Actions {
			sb.WriteString("  - " + action + "\n")
		}
	} else {
		sb.WriteString("No recommendation: the dataset has no categorised tickets.\n")
	}

	if len(r.Warnings) > 0 {
		sb.WriteString("\n" + sectionStyle.Render("Warnings") + "\n")
		for _, warning := range r.Warnings {
			sb.WriteString(warningStyle.Render("  ! "+warning) + "\n")
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func section(sb *strings.Builder, title string, t *table.Table) {
	sb.WriteString("\n" + sectionStyle.Render(title) + "\n")
	sb.WriteString(t.String() + "\n")
}

func rateTable(keyHeader string, rates []domain.GroupRate) *table.Table {
	rows := make([][]string, 0, len(rates))
	for _, g := range rates {
		rows = append(rows, []string{g.Key, strconv.Itoa(g.Tickets), strconv.Itoa(g.Breached), g.Rate.Format()})
	}
	return newTable([]string{keyHeader, "Tickets", "Breached", "Breach %"}, rows)
}

func newTable(headers []string, rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
}

func percent(m domain.Metric) string {
	if !m.Valid {
		return m.Format()
	}
	return m.Format() + "%"
}

func hours(m domain.Metric) string {
	if !m.Valid {
		return m.Format()
	}
	return m.Format() + " h"
}
