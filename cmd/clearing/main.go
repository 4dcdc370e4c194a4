// Command clearing runs one batch clearing pass over all configured
// entities: read the open-item exports, match, post, report, notify.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/openclear/clearing-backend/internal/adapters/export"
	"github.com/openclear/clearing-backend/internal/adapters/mail"
	"github.com/openclear/clearing-backend/internal/adapters/posting"
	"github.com/openclear/clearing-backend/internal/application/runner"
	"github.com/openclear/clearing-backend/internal/cli"
	"github.com/openclear/clearing-backend/internal/domain/fiscal"
	"github.com/openclear/clearing-backend/internal/domain/rules"
	"github.com/openclear/clearing-backend/internal/infrastructure/config"
	"github.com/openclear/clearing-backend/internal/infrastructure/logging"
	"github.com/openclear/clearing-backend/internal/infrastructure/storage"
)

// Exit codes, one per failing phase.
const (
	exitOK       = 0
	exitConfig   = 1
	exitRules    = 2
	exitCalendar = 3
	exitStorage  = 4
	exitRun      = 5
	exitEntities = 6
)

func main() {
	os.Exit(run())
}

func run() int {
	flags := cli.ParseClearingFlags()

	cfg, err := config.LoadOrEnvWithPath(flags.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "clearing: %v\n", err)
		return exitConfig
	}

	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "clearing")

	cli.PrintHeader(flags.DryRun)

	rulesPath := cfg.Clearing.RulesPath
	if flags.RulesPath != "" {
		rulesPath = flags.RulesPath
	}
	ruleSet, err := rules.Load(rulesPath, logger)
	if err != nil {
		logger.Error("Failed to load clearing rules", "path", rulesPath, "error", err)
		return exitRules
	}

	holidays, err := cfg.Clearing.HolidayDates()
	if err != nil {
		logger.Error("Invalid holiday configuration", "error", err)
		return exitCalendar
	}
	cal := fiscal.NewCalendar(holidays)

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("Failed to initialize run history storage", "error", err)
		return exitStorage
	}
	defer func() { _ = store.Close() }()

	extractor := export.NewFileExtractor(cfg.Data, ruleSet, logger)
	poster := posting.NewClient(cfg.Posting, logger)

	var notifier runner.Notifier
	if cfg.Notifications.Send {
		notifier = mail.NewNotifier(cfg.Notifications)
	}

	service := runner.NewService(cfg, ruleSet, cal, extractor, poster, notifier, store, logger)

	result, err := service.Run(context.Background(), flags.ToRunnerOptions())
	if err != nil {
		logger.Error("Clearing run failed", "error", err)
		return exitRun
	}

	cli.PrintRunSummary(result)

	for _, outcome := range result.Outcomes {
		if outcome.Err != nil {
			return exitEntities
		}
	}
	return exitOK
}
