// Command expensify-process runs one recurring-transaction processing pass
// against the configured ledger and exits. It exits 1 when any rule failed.
package main

import (
	"context"
	"os"
	"time"

	"expensify/internal/cli"
	"expensify/internal/core"
	applog "expensify/internal/log"
	"expensify/internal/services"
)

func main() {
	os.Exit(run())
}

func run() int {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentProcessor)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	result := cli.InitBackend(ctx, logger, cfg)
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Failure(context.Background(), "Failed to release backend", err)
			}
		}()
	}

	now, err := cfg.Now(time.Now)
	if err != nil {
		logger.Failure(ctx, "Invalid processing date", err)
		return 1
	}

	processor := services.NewRecurringProcessor(result.Ledger, result.Publisher, services.ProcessorConfig{
		MaxCatchUp: cfg.MaxCatchUp,
	})

	logger.InfoContext(ctx, "Running recurring transaction pass",
		applog.FieldProcessingDate, core.DateOf(now).ISO(),
		"day", core.DateOf(now).Short(),
		applog.FieldBackend, cfg.DataBackend,
		"events_enabled", result.Publisher != nil)

	summary, err := processor.ProcessAllDueRules(ctx, now)
	if err != nil {
		logger.Failure(ctx, "Processing pass aborted", err)
		return 1
	}

	passLogger := logger.WithFields(applog.NewFields().WithPass(summary.Date, summary.Created(), len(summary.Failed())))
	for _, o := range summary.Failed() {
		passLogger.WithFields(applog.NewFields().WithRule(o.RuleID)).
			Failure(ctx, "Recurring rule not processed", o.Err, "status", o.Status)
	}

	categories := services.NewCategoryDirectory(result.Ledger, cfg.CategoryCacheSize, cfg.CategoryCacheTTL)
	month, err := services.NewSummaryService(result.Ledger, categories).MonthSummary(ctx, summary.Date.Year(), summary.Date.Month())
	if err != nil {
		passLogger.WithFields(applog.NewFields().WithOperation("month_summary")).
			Failure(ctx, "Failed to summarize month", err)
	} else {
		passLogger.InfoContext(ctx, "Month to date",
			"through", summary.Date.Long(),
			"income", core.FormatAmount(month.Income),
			"expense", core.FormatAmount(month.Expense),
			"balance", core.FormatAmount(month.Balance),
			"transactions", month.Count)
	}

	if len(summary.Failed()) > 0 {
		passLogger.WarnContext(ctx, "Processing pass finished with failures")
		return 1
	}
	passLogger.InfoContext(ctx, "Processing pass finished")
	return 0
}
