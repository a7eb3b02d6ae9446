package main

import (
	"context"
	"fmt"
	"time"

	"github.com/lorrc/service-desk-analytics/internal/adapters/primary/validation"
	"github.com/lorrc/service-desk-analytics/internal/adapters/secondary/csvstore"
	"github.com/lorrc/service-desk-analytics/internal/config"
	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	"github.com/lorrc/service-desk-analytics/internal/core/services"
	"github.com/lorrc/service-desk-analytics/internal/infrastructure/metrics"
	"github.com/lorrc/service-desk-analytics/internal/reportfmt"
)

const pushJobName = "ticketctl_report"

func runReport(ctx context.Context, env *environment, args []string) error {
	flagSet := newFlagSet(env, "report", "[--input FILE] [--format text|json|csv] [filters]")
	input := flagSet.StringP("input", "i", env.cfg.Dataset.CSVPath, "CSV dataset to analyse")
	formatName := flagSet.StringP("format", "f", string(reportfmt.FormatText), "output format: text, json or csv")
	from := flagSet.String("from", "", "only tickets created on or after this date")
	to := flagSet.String("to", "", "only tickets created on or before this date")
	priorities := flagSet.StringSlice("priority", nil, "only these priorities (repeatable or comma separated)")
	categories := flagSet.StringSlice("category", nil, "only these categories")
	departments := flagSet.StringSlice("department", nil, "only these departments")
	delta := flagSet.Float64("improvement-delta", env.cfg.Analytics.ImprovementDelta, "compliance gain targeted by the recommendation, 5 to 10 points")
	now := flagSet.String("now", "", "reference time for backlog ages (default: current time)")
	taxonomyPath := flagSet.String("taxonomy", env.cfg.Analytics.TaxonomyFile, "YAML taxonomy file (default: built-in)")
	pushURL := flagSet.String("push-url", "", "Prometheus Pushgateway URL to publish the KPI gauges to")

	if err := parseFlags(flagSet, args); err != nil {
		return err
	}

	format, err := reportfmt.ParseFormat(*formatName)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	filter := domain.ReportFilter{
		Priorities:  *priorities,
		Categories:  *categories,
		Departments: *departments,
	}
	if filter.CreatedFrom, err = optionalDate("from", *from); err != nil {
		return err
	}
	if filter.CreatedTo, err = optionalDate("to", *to); err != nil {
		return err
	}

	clock := time.Now
	if *now != "" {
		at, err := validation.ParseDate(*now)
		if err != nil {
			return fmt.Errorf("%w: --now: %v", errUsage, err)
		}
		clock = func() time.Time { return at }
	}

	taxonomy, err := config.LoadTaxonomy(*taxonomyPath)
	if err != nil {
		return err
	}

	aggregator := services.NewAggregator(taxonomy, services.AggregatorOptions{ImprovementDelta: *delta})
	analytics := services.NewAnalyticsService(
		csvstore.NewStore(*input, taxonomy),
		aggregator,
		metrics.Recorder{},
		env.logger,
		clock,
	)

	report, err := analytics.GetReport(ctx, filter)
	if err != nil {
		return err
	}

	if err := reportfmt.Write(env.stdout, report, format); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if *pushURL != "" {
		metrics.PublishReport(report)
		if err := metrics.Push(*pushURL, pushJobName); err != nil {
			return fmt.Errorf("pushing metrics: %w", err)
		}
		env.logger.InfoContext(ctx, "kpi gauges pushed", "url", *pushURL, "job", pushJobName)
	}
	return nil
}

func optionalDate(flag, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := validation.ParseDate(value)
	if err != nil {
		return nil, fmt.Errorf("%w: --%s: %v", errUsage, flag, err)
	}
	return &t, nil
}
