package main

import (
	"context"
	"fmt"

	"github.com/lorrc/service-desk-analytics/internal/adapters/secondary/csvstore"
	"github.com/lorrc/service-desk-analytics/internal/adapters/secondary/postgres"
	"github.com/lorrc/service-desk-analytics/internal/config"
)

func runImport(ctx context.Context, env *environment, args []string) error {
	flagSet := newFlagSet(env, "import", "[--input FILE] [--database-url URL]")
	input := flagSet.StringP("input", "i", env.cfg.Dataset.CSVPath, "CSV dataset to import")
	databaseURL := flagSet.String("database-url", env.cfg.Database.URL, "PostgreSQL URL (default: $DATABASE_URL)")
	taxonomyPath := flagSet.String("taxonomy", env.cfg.Analytics.TaxonomyFile, "YAML taxonomy file (default: built-in)")

	if err := parseFlags(flagSet, args); err != nil {
		return err
	}
	if *databaseURL == "" {
		return fmt.Errorf("%w: --database-url or DATABASE_URL is required", errUsage)
	}

	taxonomy, err := config.LoadTaxonomy(*taxonomyPath)
	if err != nil {
		return err
	}

	// Validate the whole file before touching the database
	tickets, err := csvstore.NewStore(*input, taxonomy).Load(ctx)
	if err != nil {
		return err
	}

	if err := postgres.RunMigrations(*databaseURL); err != nil {
		return err
	}

	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{URL: *databaseURL})
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := postgres.NewDatasetRepository(pool, taxonomy)
	if err := repo.Save(ctx, tickets); err != nil {
		return err
	}

	env.logger.InfoContext(ctx, "dataset imported",
		"tickets", len(tickets),
		"input", *input,
	)
	return nil
}
