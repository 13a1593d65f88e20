package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reaganking/cbb-preds/internal/board"
	"github.com/reaganking/cbb-preds/internal/config"
	"github.com/reaganking/cbb-preds/internal/gamelog"
	"github.com/reaganking/cbb-preds/internal/interstat"
	"github.com/reaganking/cbb-preds/internal/logger"
	"github.com/reaganking/cbb-preds/internal/model"
	"github.com/reaganking/cbb-preds/internal/models"
	"github.com/reaganking/cbb-preds/internal/pipeline"
	"github.com/reaganking/cbb-preds/internal/server"
	"github.com/reaganking/cbb-preds/internal/telegram"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
	refresh    = flag.Bool("refresh", false, "Refetch days that already have snapshots (ingest)")
)

const usage = `Usage: cbbpreds [flags] <command> [args]

Commands:
  fetch DATE          Fetch one day's scoreboard snapshot
  ingest FROM TO      Fetch every day in the range (skips existing snapshots)
  rebuild             Rebuild the canonical game log from snapshots
  trainset [OUT]      Build the training CSV from the canonical log
  predict [DATE]      Build and store the prediction board (default: today)
  daily               Run one full daily cycle now
  schedule            Run the daily cycle on the configured cron schedule
  serve               Serve the board over HTTP

Dates are YYYY-MM-DD.`

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	if err := run(ctx, cfg, args[0], args[1:]); err != nil {
		logger.Fatal("%s failed: %v", args[0], err)
	}
}

func run(ctx context.Context, cfg *config.Config, command string, args []string) error {
	switch command {
	case "serve":
		boardStore, err := board.OpenStore(ctx, cfg.Board)
		if err != nil {
			return err
		}
		defer boardStore.Close()
		return server.New(boardStore).Run(cfg.Server.Addr)

	case "fetch", "ingest", "rebuild", "trainset", "predict", "daily", "schedule":
		p, cleanup, err := buildPipeline(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()
		return runPipeline(ctx, cfg, p, command, args)

	default:
		fmt.Fprintln(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func buildPipeline(ctx context.Context, cfg *config.Config) (*pipeline.Pipeline, func(), error) {
	gameLog, err := gamelog.Open(cfg.Storage.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open game log: %w", err)
	}

	boardStore, err := board.OpenStore(ctx, cfg.Board)
	if err != nil {
		gameLog.Close()
		return nil, nil, fmt.Errorf("failed to open board store: %w", err)
	}

	cleanup := func() {
		if err := boardStore.Close(); err != nil {
			logger.Error("Failed to close board store: %v", err)
		}
		if err := gameLog.Close(); err != nil {
			logger.Error("Failed to close game log: %v", err)
		}
	}

	client := interstat.NewClient(
		cfg.Interstat.BaseURL,
		cfg.Interstat.Timeout,
		cfg.Interstat.MaxRetries,
		cfg.Interstat.RetryDelayBase,
	)

	margin, win := loadModels(cfg.Pipeline.ModelsDir)

	var notifier pipeline.Notifier
	if cfg.Telegram.Enabled {
		tg, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID,
			cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to initialize Telegram client: %w", err)
		}
		tg.ListenForCommands(ctx)
		notifier = tg
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	return pipeline.New(cfg, client, gameLog, boardStore, margin, win, notifier), cleanup, nil
}

// loadModels loads the trained baselines, falling back to the constant
// baseline per model when no coefficient file is present yet.
func loadModels(modelsDir string) (model.MarginModel, model.WinModel) {
	var margin model.MarginModel
	var win model.WinModel

	if m, err := model.LoadMargin(modelsDir); err != nil {
		logger.Warn("Using constant margin baseline: %v", err)
		margin = model.ConstantBaseline{}
	} else {
		margin = m
	}
	if m, err := model.LoadWin(modelsDir); err != nil {
		logger.Warn("Using constant win baseline: %v", err)
		win = model.ConstantBaseline{}
	} else {
		win = m
	}
	return margin, win
}

func runPipeline(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, command string, args []string) error {
	switch command {
	case "fetch":
		if len(args) != 1 {
			return fmt.Errorf("fetch needs exactly one DATE argument")
		}
		date, err := models.ParseDate(args[0])
		if err != nil {
			return err
		}
		_, err = p.FetchDay(ctx, date)
		return err

	case "ingest":
		if len(args) != 2 {
			return fmt.Errorf("ingest needs FROM and TO arguments")
		}
		from, err := models.ParseDate(args[0])
		if err != nil {
			return err
		}
		to, err := models.ParseDate(args[1])
		if err != nil {
			return err
		}
		_, _, err = p.IngestRange(ctx, from, to, *refresh)
		return err

	case "rebuild":
		_, err := p.Rebuild()
		return err

	case "trainset":
		out := cfg.Pipeline.TrainingOut
		if len(args) == 1 {
			out = args[0]
		}
		_, err := p.BuildTraining(out)
		return err

	case "predict":
		date := models.Normalize(time.Now().UTC())
		if len(args) == 1 {
			var err error
			date, err = models.ParseDate(args[0])
			if err != nil {
				return err
			}
		}
		_, err := p.PredictDate(ctx, date)
		return err

	case "daily":
		return p.RunDaily(ctx, time.Now().UTC())

	case "schedule":
		s := pipeline.NewScheduler(p, cfg.Pipeline.Schedule)
		if err := s.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return nil
	}
	return fmt.Errorf("unknown command %q", command)
}
