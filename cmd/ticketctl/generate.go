package main

import (
	"context"
	"fmt"
	"time"

	"github.com/lorrc/service-desk-analytics/internal/adapters/primary/validation"
	"github.com/lorrc/service-desk-analytics/internal/adapters/secondary/csvstore"
	"github.com/lorrc/service-desk-analytics/internal/config"
	"github.com/lorrc/service-desk-analytics/internal/core/services"
)

func runGenerate(ctx context.Context, env *environment, args []string) error {
	defaults := services.DefaultGeneratorConfig(time.Now())

	flagSet := newFlagSet(env, "generate", "[--count N] [--start DATE] [--end DATE] [--output FILE]")
	count := flagSet.Int("count", defaults.Count, "number of tickets to generate")
	start := flagSet.String("start", defaults.WindowStart.Format(time.DateOnly), "first creation date (YYYY-MM-DD or RFC 3339)")
	end := flagSet.String("end", defaults.WindowEnd.Format(time.DateOnly), "creation window end (YYYY-MM-DD or RFC 3339)")
	resolutionRate := flagSet.Float64("resolution-rate", defaults.ResolutionRate, "probability that a ticket is already resolved")
	seed := flagSet.Uint64("seed", defaults.Seed, "random seed; the same seed reproduces the same dataset")
	now := flagSet.String("now", "", "generation time used to classify open tickets (default: current time)")
	taxonomyPath := flagSet.String("taxonomy", env.cfg.Analytics.TaxonomyFile, "YAML taxonomy file (default: built-in)")
	output := flagSet.StringP("output", "o", env.cfg.Dataset.CSVPath, `destination CSV file, or "-" for stdout`)

	if err := parseFlags(flagSet, args); err != nil {
		return err
	}

	cfg := defaults
	cfg.Count = *count
	cfg.ResolutionRate = *resolutionRate
	cfg.Seed = *seed

	var err error
	if cfg.WindowStart, err = validation.ParseDate(*start); err != nil {
		return fmt.Errorf("%w: --start: %v", errUsage, err)
	}
	if cfg.WindowEnd, err = validation.ParseDate(*end); err != nil {
		return fmt.Errorf("%w: --end: %v", errUsage, err)
	}
	if *now != "" {
		if cfg.Now, err = validation.ParseDate(*now); err != nil {
			return fmt.Errorf("%w: --now: %v", errUsage, err)
		}
	}
	if cfg.Taxonomy, err = config.LoadTaxonomy(*taxonomyPath); err != nil {
		return err
	}

	tickets, err := services.GenerateTickets(cfg)
	if err != nil {
		return err
	}

	if *output == "-" {
		return csvstore.WriteTickets(env.stdout, tickets)
	}
	if err := csvstore.NewStore(*output, cfg.Taxonomy).Save(ctx, tickets); err != nil {
		return err
	}

	env.logger.InfoContext(ctx, "dataset generated",
		"tickets", len(tickets),
		"seed", cfg.Seed,
		"output", *output,
	)
	return nil
}
