// Command initdb creates the posts table in the configured SQLite file and
// seeds it with sample articles when it is empty.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/fairyhunter13/techtrends/internal/adapter/observability"
	"github.com/fairyhunter13/techtrends/internal/adapter/repo/sqlite"
	"github.com/fairyhunter13/techtrends/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	slog.SetDefault(observability.SetupLogger(cfg))

	noSeed := flag.Bool("no-seed", false, "create the schema only, without sample posts")
	flag.Parse()

	seed := sqlite.DefaultSeed
	if *noSeed {
		seed = nil
	}
	if err := sqlite.Provision(context.Background(), cfg.DBPath, seed); err != nil {
		slog.Error("provisioning failed", slog.String("db_path", cfg.DBPath), slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("database ready", slog.String("db_path", cfg.DBPath), slog.Bool("seed_requested", len(seed) > 0))
}
