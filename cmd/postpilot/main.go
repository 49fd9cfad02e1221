package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"postpilot/internal/adapters/actionlog"
	"postpilot/internal/adapters/inbox"
	"postpilot/internal/adapters/linkedin"
	"postpilot/internal/adapters/statusboard"
	"postpilot/internal/analytics"
	"postpilot/internal/config"
	"postpilot/internal/logging"
	"postpilot/internal/service"
	"postpilot/internal/supervisor"
)

const banner = `
╔══════════════════════════════════════════════════════════╗
║                 postpilot — Starting Up                  ║
║            Automated Social Publishing Pipeline          ║
╚══════════════════════════════════════════════════════════╝
`

func main() {
	// Load .env if it exists; environment variables might be set manually.
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found")
	}

	configPath := flag.String("config", "", "Path to yaml config file (optional)")
	verify := flag.Bool("verify", false, "Verify the access token and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, os.Stderr)

	auth := linkedin.NewAuth(cfg.LinkedIn.AccessToken, cfg.LinkedIn.PersonURN, cfg.LinkedIn.BaseURL, cfg.LinkedIn.Timeout)

	// Setup context with cancellation on interrupt.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info().Msg("received interrupt signal, shutting down")
		cancel()
	}()

	if *verify {
		name, err := auth.VerifyToken(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("token verification failed")
		}
		urn, err := auth.AuthorURN(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("could not resolve person URN")
		}
		fmt.Printf("Token valid. Logged in as: %s\nPerson URN: %s\n", name, urn)
		return
	}

	fmt.Printf("%s\n", banner)
	mode := "LIVE MODE — real posts will be made!"
	stateLabel := "🟢 Running (Live)"
	if cfg.Posting.DryRun {
		mode = "DRY RUN (safe mode)"
		stateLabel = "🟢 Running (Dry Run)"
	}
	logger.Info().Str("mode", mode).Str("vault", cfg.Vault.Path).Msg("starting")

	if _, err := os.Stat(cfg.Vault.Path); err != nil {
		logger.Fatal().Str("vault", cfg.Vault.Path).Msg("vault not found, check vault.path or VAULT_PATH")
	}

	board := statusboard.New(cfg.Vault.DashboardFile())
	if err := board.SetSystemState(stateLabel); err != nil {
		logger.Warn().Err(err).Msg("could not update dashboard state")
	}

	ledger, err := actionlog.New(cfg.Vault.LogsDir())
	if err != nil {
		logger.Fatal().Err(err).Msg("could not open action ledger")
	}

	queue, err := inbox.Open(cfg.Vault.ApprovedDir(), cfg.Vault.PublishedDir(), cfg.Vault.NeedsActionDir(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not open inbox queue")
	}
	defer queue.Close()

	client := linkedin.NewClient(auth, cfg.LinkedIn.Timeout)
	uploader := linkedin.NewUploader(auth, cfg.LinkedIn.Timeout)

	poster := service.NewPoster(client, uploader, ledger, cfg.Posting.DryRun, cfg.Posting.MaxPostsPerDay, logger)
	watcher := service.NewWatcher(queue, poster, board, logger)
	reporter := analytics.NewReporter(ledger, client, auth, cfg.Vault.AnalyticsDir(), cfg.Posting.DryRun, logger)

	tree := supervisor.NewTree(slog.New(logging.NewSlogHandler(logger)))
	tree.AddPipelineService(watcher)
	if cfg.Analytics.Enabled {
		tree.AddReportingService(supervisor.NewScheduledJob("weekly-analytics", cfg.Analytics.Schedule, func(ctx context.Context) {
			if _, err := reporter.GenerateWeekly(ctx); err != nil {
				logger.Error().Err(err).Msg("weekly analytics failed")
			}
		}, logger))
	}

	logger.Info().
		Str("inbox", cfg.Vault.ApprovedDir()).
		Int("max_posts_per_day", cfg.Posting.MaxPostsPerDay).
		Msg("all systems running, drop approved .md files into the inbox")

	if err := tree.Serve(ctx); err != nil && err != context.Canceled {
		logger.Error().Err(err).Msg("supervisor stopped")
	}

	if err := board.SetSystemState("🔴 Stopped"); err != nil {
		logger.Warn().Err(err).Msg("could not update dashboard state")
	}
	logger.Info().Msg("shut down cleanly")
}
