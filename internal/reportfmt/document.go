// Package reportfmt renders KPI reports for people and machines. The JSON
// document is shared by the HTTP API and the CLI.
package reportfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
)

// Format selects an output representation.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts a format name in any letter case.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	}
	return "", fmt.Errorf("unknown report format %q (want text, json or csv)", name)
}

// Write renders report in the requested format.
func Write(w io.Writer, report *domain.Report, format Format) error {
	switch format {
	case FormatText:
		return WriteText(w, report)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(FromReport(report))
	case FormatCSV:
		return WriteCSV(w, report)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// Document is the wire shape of a report. Undefined metrics encode as null.
type Document struct {
	GeneratedAt string `json:"generatedAt"`
	Totals      Totals `json:"totals"`

	SLAComplianceRate     domain.Metric `json:"slaComplianceRate"`
	MedianResolutionHours domain.Metric `json:"medianResolutionHours"`
	MedianBacklogAgeHours domain.Metric `json:"medianBacklogAgeHours"`

	BreachRateByCategory []RateRow  `json:"breachRateByCategory"`
	BreachRateByPriority []RateRow  `json:"breachRateByPriority"`
	TicketsByCategory    []CountRow `json:"ticketsByCategory"`
	MostCommonCategory   string     `json:"mostCommonCategory,omitempty"`
	MostCommonPriority   string     `json:"mostCommonPriority,omitempty"`

	WeeklyVolume         []VolumeRow     `json:"weeklyVolume"`
	BacklogAge           []AgeBucketRow  `json:"backlogAge"`
	DepartmentResolution []DepartmentRow `json:"departmentResolution"`
	AssigneeWorkload     []WorkloadRow   `json:"assigneeWorkload"`

	Recommendation *RecommendationDoc `json:"recommendation"`
	Warnings       []string           `json:"warnings"`
}

type Totals struct {
	Tickets  int `json:"tickets"`
	Open     int `json:"open"`
	Resolved int `json:"resolved"`
	Breached int `json:"breached"`
}

type RateRow struct {
	Key      string        `json:"key"`
	Tickets  int           `json:"tickets"`
	Breached int           `json:"breached"`
	Rate     domain.Metric `json:"rate"`
}

type CountRow struct {
	Key     string `json:"key"`
	Tickets int    `json:"tickets"`
}

type VolumeRow struct {
	WeekStart string `json:"weekStart"`
	Tickets   int    `json:"tickets"`
}

// AgeBucketRow has a nil MaxHours for the unbounded last bucket.
type AgeBucketRow struct {
	Label    string   `json:"label"`
	MinHours float64  `json:"minHours"`
	MaxHours *float64 `json:"maxHours"`
	Tickets  int      `json:"tickets"`
}

type DepartmentRow struct {
	Department            string        `json:"department"`
	Tickets               int           `json:"tickets"`
	Resolved              int           `json:"resolved"`
	MedianResolutionHours domain.Metric `json:"medianResolutionHours"`
}

type WorkloadRow struct {
	Assignee              string        `json:"assignee"`
	Tickets               int           `json:"tickets"`
	Resolved              int           `json:"resolved"`
	MedianResolutionHours domain.Metric `json:"medianResolutionHours"`
	ComplianceRate        domain.Metric `json:"complianceRate"`
}

type RecommendationDoc struct {
	Category              string        `json:"category"`
	CategoryBreachRate    float64       `json:"categoryBreachRate"`
	Priority              string        `json:"priority,omitempty"`
	PriorityBreachRate    domain.Metric `json:"priorityBreachRate"`
	CurrentComplianceRate domain.Metric `json:"currentComplianceRate"`
	TargetComplianceRate  float64       `json:"targetComplianceRate"`
	ImprovementDelta      float64       `json:"improvementDelta"`
	Headline              string        `json:"headline"`
	Actions               []string      `json:"actions"`
}

// FromReport converts a report into its wire shape. Slices are never nil so
// that empty sections encode as [].
func FromReport(r *domain.Report) Document {
	doc := Document{
		GeneratedAt: r.GeneratedAt.UTC().Format(time.RFC3339),
		Totals: Totals{
			Tickets:  r.TotalTickets,
			Open:     r.OpenCount,
			Resolved: r.ResolvedCount,
			Breached: r.BreachCount,
		},
		SLAComplianceRate:     r.SLAComplianceRate,
		MedianResolutionHours: r.MedianResolutionHours,
		MedianBacklogAgeHours: r.MedianBacklogAgeHours,
		BreachRateByCategory:  rateRows(r.BreachRateByCategory),
		BreachRateByPriority:  rateRows(r.BreachRateByPriority),
		TicketsByCategory:     make([]CountRow, 0, len(r.TicketsByCategory)),
		MostCommonCategory:    r.MostCommonCategory,
		MostCommonPriority:    r.MostCommonPriority,
		WeeklyVolume:          make([]VolumeRow, 0, len(r.WeeklyVolume)),
		BacklogAge:            make([]AgeBucketRow, 0, len(r.BacklogAge)),
		DepartmentResolution:  make([]DepartmentRow, 0, len(r.DepartmentResolution)),
		AssigneeWorkload:      make([]WorkloadRow, 0, len(r.AssigneeWorkload)),
		Warnings:              append([]string{}, r.Warnings...),
	}

	for _, c := range r.TicketsByCategory {
		doc.TicketsByCategory = append(doc.TicketsByCategory, CountRow{Key: c.Key, Tickets: c.Tickets})
	}
	for _, v := range r.WeeklyVolume {
		doc.WeeklyVolume = append(doc.WeeklyVolume, VolumeRow{
			WeekStart: v.WeekStart.UTC().Format(time.DateOnly),
			Tickets:   v.Tickets,
		})
	}
	for _, b := range r.BacklogAge {
		row := AgeBucketRow{Label: b.Label, MinHours: b.MinHours, Tickets: b.Tickets}
		if b.MaxHours > 0 {
			maxHours := b.MaxHours
			row.MaxHours = &maxHours
		}
		doc.BacklogAge = append(doc.BacklogAge, row)
	}
	for _, d := range r.DepartmentResolution {
		doc.DepartmentResolution = append(doc.DepartmentResolution, DepartmentRow(d))
	}
	for _, a := range r.AssigneeWorkload {
		doc.AssigneeWorkload = append(doc.AssigneeWorkload, WorkloadRow(a))
	}

	if rec := r.Recommendation; rec != nil {
		doc.Recommendation = &RecommendationDoc{
			Category:              rec.Category,
			CategoryBreachRate:    rec.CategoryBreachRate,
			Priority:              rec.Priority,
			PriorityBreachRate:    rec.PriorityBreachRate,
			CurrentComplianceRate: rec.CurrentComplianceRate,
			TargetComplianceRate:  rec.TargetComplianceRate,
			ImprovementDelta:      rec.ImprovementDelta,
			Headline:              rec.Headline,
			Actions:               append([]string{}, rec.Actions...),
		}
	}
	return doc
}

func rateRows(rates []domain.GroupRate) []RateRow {
	rows := make([]RateRow, 0, len(rates))
	for _, g := range rates {
		rows = append(rows, RateRow(g))
	}
	return rows
}
