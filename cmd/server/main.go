package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/reddit-tools/modbot/internal/config"
	"github.com/reddit-tools/modbot/internal/handlers"
	"github.com/reddit-tools/modbot/internal/metrics"
	"github.com/reddit-tools/modbot/internal/moderation"
	"github.com/reddit-tools/modbot/internal/reddit"
	"github.com/reddit-tools/modbot/internal/routing"
	"github.com/reddit-tools/modbot/internal/store"
	"github.com/reddit-tools/modbot/internal/subreddits"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Configure zerolog
	switch cfg.LogLevel {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info", "":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Use pretty console logging in development, JSON in production
	if cfg.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	log.Info().Msg("Starting Moderation Bot")

	// The backup file is the bot's entire durable state; refusing to start
	// without it beats silently forgetting every lock and quota.
	st, err := store.Load(cfg.BackupPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.BackupPath).Msg("Failed to load backup")
	}

	client := reddit.NewClient(cfg.RedditHost, st.Cookie, cfg.ValidStatusCodes)
	svc := moderation.NewService(st, client)
	fetcher := subreddits.NewFetcher(client)

	// Load the allow-list before serving; a failure here is tolerable since
	// the backup file carries the last known list.
	if err := fetcher.Refresh(context.Background(), st); err != nil {
		log.Warn().Err(err).Msg("Initial subreddit load failed, using persisted list")
	}

	// Periodic maintenance: expire quota and lock entries once a minute,
	// reload the moderated subreddit list every ten.
	c := cron.New()
	if _, err := c.AddFunc("@every 1m", func() {
		changed, err := st.Sweep(time.Now())
		if err != nil {
			log.Error().Err(err).Msg("Sweep failed to persist")
			return
		}
		if changed {
			log.Debug().Msg("Sweep expired stale entries")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule sweep")
	}
	if _, err := c.AddFunc("@every 10m", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		fetcher.Refresh(ctx, st)
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule subreddit reload")
	}
	c.Start()
	defer c.Stop()

	// Keep the store gauges current
	metrics.StartCollector(context.Background(), metrics.StatsSource{
		RequesterCount: func() int { n, _, _, _ := st.Stats(); return n },
		LockedCount:    func() int { _, n, _, _ := st.Stats(); return n },
		PendingCount:   func() int { _, _, n, _ := st.Stats(); return n },
		SubredditCount: func() int { _, _, _, n := st.Stats(); return n },
	}, time.Minute)

	h, err := handlers.NewHandler(svc, st, cfg.TemplatePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.TemplatePath).Msg("Failed to load page template")
	}

	handler := routing.SetupRouter(routing.Config{
		Handlers: h,
		Logger:   log.Logger,
	})

	log.Info().
		Str("address", "0.0.0.0:"+cfg.Port).
		Str("reddit_host", cfg.RedditHost).
		Str("backup", cfg.BackupPath).
		Msg("Starting HTTP server")

	if err := http.ListenAndServe("0.0.0.0:"+cfg.Port, handler); err != nil {
		log.Fatal().Err(err).Msg("Server failed to start")
	}
}
