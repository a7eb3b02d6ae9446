package reportfmt

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
)

// CSVHeader is the column layout of the long-form CSV export. Every metric of
// the report becomes one row, so spreadsheets can pivot on section and key.
var CSVHeader = []string{"section", "key", "metric", "value"}

// WriteCSV renders the report in long form. Undefined metrics are written as
// an empty value.
func WriteCSV(w io.Writer, r *domain.Report) error {
	cw := csv.NewWriter(w)
	rows := [][]string{CSVHeader}

	add := func(section, key, metric, value string) {
		rows = append(rows, []string{section, key, metric, value})
	}
	addInt := func(section, key, metric string, v int) {
		add(section, key, metric, strconv.Itoa(v))
	}
	addMetric := func(section, key, metric string, m domain.Metric) {
		add(section, key, metric, csvMetric(m))
	}

	add("summary", "", "generated_at", r.GeneratedAt.UTC().Format(time.RFC3339))
	addInt("summary", "", "total_tickets", r.TotalTickets)
	addInt("summary", "", "open_tickets", r.OpenCount)
	addInt("summary", "", "resolved_tickets", r.ResolvedCount)
	addInt("summary", "", "breached_tickets", r.BreachCount)
	addMetric("summary", "", "sla_compliance_rate", r.SLAComplianceRate)
	addMetric("summary", "", "median_resolution_hours", r.MedianResolutionHours)
	addMetric("summary", "", "median_backlog_age_hours", r.MedianBacklogAgeHours)
	add("summary", "", "most_common_category", r.MostCommonCategory)
	add("summary", "", "most_common_priority", r.MostCommonPriority)

	for _, g := range r.BreachRateByCategory {
		addInt("breach_rate_by_category", g.Key, "tickets", g.Tickets)
		addInt("breach_rate_by_category", g.Key, "breached", g.Breached)
		addMetric("breach_rate_by_category", g.Key, "breach_rate", g.Rate)
	}
	for _, g := range r.BreachRateByPriority {
		addInt("breach_rate_by_priority", g.Key, "tickets", g.Tickets)
		addInt("breach_rate_by_priority", g.Key, "breached", g.Breached)
		addMetric("breach_rate_by_priority", g.Key, "breach_rate", g.Rate)
	}
	for _, v := range r.WeeklyVolume {
		addInt("weekly_volume", v.WeekStart.UTC().Format(time.DateOnly), "tickets", v.Tickets)
	}
	for _, b := range r.BacklogAge {
		addInt("backlog_age", b.Label, "tickets", b.Tickets)
	}
	for _, d := range r.DepartmentResolution {
		addInt("department_resolution", d.Department, "tickets", d.Tickets)
		addInt("department_resolution", d.Department, "resolved", d.Resolved)
		addMetric("department_resolution", d.Department, "median_resolution_hours", d.MedianResolutionHours)
	}
	for _, a := range r.AssigneeWorkload {
		addInt("assignee_workload", a.Assignee, "tickets", a.Tickets)
		addInt("assignee_workload", a.Assignee, "resolved", a.Resolved)
		addMetric("assignee_workload", a.Assignee, "median_resolution_hours", a.MedianResolutionHours)
		addMetric("assignee_workload", a.Assignee, "compliance_rate", a.ComplianceRate)
	}
	if rec := r.Recommendation; rec != nil {
		add("recommendation", rec.Category, "headline", rec.Headline)
		add("recommendation", rec.Category, "target_compliance_rate", strconv.FormatFloat(rec.TargetComplianceRate, 'f', 1, 64))
	}

	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func csvMetric(m domain.Metric) string {
	if !m.Valid {
		return ""
	}
	return strconv.FormatFloat(m.Value, 'f', 1, 64)
}
