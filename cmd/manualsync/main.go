// Command manualsync runs a single load or reconciliation cycle from the
// command line. Useful for operators when the worker is stopped or when a
// failed cycle needs a supervised retry.
package main

import (
	"context"
	"flag"
	"strconv"
	"time"

	"nbasched/ingestion/internal/client"
	"nbasched/ingestion/internal/config"
	"nbasched/ingestion/internal/repository"
	"nbasched/ingestion/internal/schedule"

	"github.com/rs/zerolog/log"
)

func main() {
	initSchema := flag.Bool("init-schema", false, "create tables and exit")
	load := flag.Bool("load", false, "run the initial season load instead of a reconcile cycle")
	syncTeams := flag.Bool("sync-teams", false, "refresh the team reference table before running")
	flag.Parse()

	ctx := context.Background()
	cfg := config.MustLoad()

	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     strconv.Itoa(cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	log.Info().Msg("Validating service health...")
	if err := db.Health(ctx); err != nil {
		log.Fatal().Err(err).Msg("Database health check failed")
	}

	if *initSchema {
		if err := db.Admin.CreateTables(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to create schema")
		}
		log.Info().Msg("Schema created. Exiting.")
		return
	}

	feedClient := client.NewClient(cfg.FeedBaseURL, cfg.FeedAPIKey, cfg.FeedTimeout)

	// No cache here: a manual run should always see the live feed
	syncer := schedule.NewSyncer(db, feedClient, nil, cfg.Season, 0)

	if *syncTeams {
		teams, err := feedClient.FetchTeams(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to fetch teams")
		}
		if err := syncer.SyncTeams(ctx, teams); err != nil {
			log.Fatal().Err(err).Msg("Failed to sync teams")
		}
	}

	asOf := time.Now()
	if *load {
		if err := syncer.InitialLoad(ctx, asOf); err != nil {
			log.Fatal().Err(err).Msg("Initial schedule load failed")
		}
		return
	}

	if err := syncer.RunCycle(ctx, asOf); err != nil {
		log.Fatal().Err(err).Msg("Reconciliation cycle failed")
	}
}
