package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"paisa/internal/amqp"
	"paisa/internal/backend"
	"paisa/internal/budget"
	"paisa/internal/config"
	"paisa/internal/core"
	"paisa/internal/export"
	"paisa/internal/ledger"
	"paisa/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{Level: log.DefaultConfig().Level, Component: "paisa-worker"})
	log.SetDefault(logger)

	logger.Info("Starting paisa-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	// The worker reads what the server wrote; it never seeds and
	// opens its own AMQP consumer below.
	backendCfg.Seed = false
	backendCfg.AMQPURL = ""

	factory := backend.NewFactory(logger.Logger)
	result, err := factory.CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "type", backendCfg.Type)
		os.Exit(1)
	}
	defer func() {
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}
	}()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Sheet export is optional; without it the worker only drains the
	// queue.
	var exporter *export.Exporter
	if cfg.ExportSpreadsheetID != "" && cfg.ExportCredentialsFile != "" {
		exporter, err = export.New(ctx, cfg.ExportSpreadsheetID, cfg.ExportSheetName, cfg.ExportCredentialsFile)
		if err != nil {
			logger.Error("Failed to initialize sheet exporter", "error", err)
			os.Exit(1)
		}
		logger.Info("Sheet exporter initialized",
			"spreadsheet_id", cfg.ExportSpreadsheetID,
			"sheet", cfg.ExportSheetName)
	} else {
		logger.Info("Sheet export disabled - no spreadsheet or credentials configured")
	}

	w := &worker{
		txns:     result.Stores.Transactions,
		budgets:  result.Stores.Budgets,
		engine:   budget.NewEngine(),
		exporter: exporter,
		logger:   logger,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeChanges(gctx, func(event *amqp.ChangeEvent) error {
			return w.handleChange(gctx, event)
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.ExportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := w.exportMonth(gctx, core.MonthKeyOf(time.Now())); err != nil {
					logger.Error("Periodic export failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

type worker struct {
	txns     ledger.TransactionStore
	budgets  ledger.BudgetStore
	engine   *budget.Engine
	exporter *export.Exporter
	logger   *log.Logger
}

// handleChange re-exports the affected month's summary. Events
// without a month (bulk operations) export the current month.
func (w *worker) handleChange(ctx context.Context, event *amqp.ChangeEvent) error {
	month := event.Month
	if month == "" {
		month = core.MonthKeyOf(time.Now())
	}
	w.logger.Info("Change event received",
		"kind", event.Kind, "month", month, "count", event.Count)
	return w.exportMonth(ctx, month)
}

func (w *worker) exportMonth(ctx context.Context, month core.MonthKey) error {
	if w.exporter == nil {
		return nil
	}
	cfg, err := w.budgets.GetOrCreate(ctx, month)
	if err != nil {
		return err
	}
	snapshot, err := w.txns.Snapshot(ctx)
	if err != nil {
		return err
	}
	dto := w.engine.Derive(cfg, snapshot)
	if err := w.exporter.ExportSummary(ctx, dto); err != nil {
		return err
	}
	w.logger.Info("Exported month summary",
		"month", month,
		"total_spent", dto.Summary.TotalSpent,
		"percent_used", dto.Summary.PercentUsed)
	return nil
}
