// Package pipeline orchestrates end to end runs: fetching day scoreboards,
// maintaining the canonical game log, building training sets, and producing
// the daily prediction board.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/reaganking/cbb-preds/internal/board"
	"github.com/reaganking/cbb-preds/internal/config"
	"github.com/reaganking/cbb-preds/internal/features"
	"github.com/reaganking/cbb-preds/internal/gamelog"
	"github.com/reaganking/cbb-preds/internal/logger"
	"github.com/reaganking/cbb-preds/internal/model"
	"github.com/reaganking/cbb-preds/internal/models"
	"github.com/reaganking/cbb-preds/internal/pairing"
	"github.com/reaganking/cbb-preds/internal/rolling"
)

// Fetcher pulls one day's scoreboard rows.
type Fetcher interface {
	FetchDay(ctx context.Context, date time.Time) ([]models.TeamGameRow, error)
}

// Notifier delivers run notifications. It matches the Telegram client; a
// nil Notifier disables notifications.
type Notifier interface {
	SendBoard(date time.Time, rows []models.PredictionRow) error
	SendError(runErr error) error
	SendRecovery(failureCount int) error
}

// Pipeline ties the fetcher, stores, and models together.
type Pipeline struct {
	cfg      *config.Config
	fetcher  Fetcher
	log      *gamelog.Store
	board    board.Store
	margin   model.MarginModel
	win      model.WinModel
	notifier Notifier
}

// New assembles a pipeline from its parts. notifier may be nil.
func New(cfg *config.Config, fetcher Fetcher, log *gamelog.Store, boardStore board.Store,
	margin model.MarginModel, win model.WinModel, notifier Notifier) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		fetcher:  fetcher,
		log:      log,
		board:    boardStore,
		margin:   margin,
		win:      win,
		notifier: notifier,
	}
}

func (p *Pipeline) rollingConfig() rolling.Config {
	cfg := rolling.DefaultConfig()
	if p.cfg.Pipeline.WindowSize > 0 {
		cfg.Window = p.cfg.Pipeline.WindowSize
	}
	if p.cfg.Pipeline.RestDefault > 0 {
		cfg.RestDefault = float64(p.cfg.Pipeline.RestDefault)
	}
	if p.cfg.Pipeline.RestMax > 0 {
		cfg.RestMax = float64(p.cfg.Pipeline.RestMax)
	}
	return cfg
}

// FetchDay pulls one date's scoreboard and writes its snapshot file,
// replacing any previous snapshot for that date. It returns the row count.
func (p *Pipeline) FetchDay(ctx context.Context, date time.Time) (int, error) {
	date = models.Normalize(date)
	rows, err := p.fetcher.FetchDay(ctx, date)
	if err != nil {
		return 0, err
	}
	path, err := gamelog.WriteDay(p.cfg.Pipeline.DailyDir, date, rows)
	if err != nil {
		return 0, err
	}
	logger.Info("Saved %d rows for %s to %s", len(rows), date.Format(models.DateLayout), path)
	return len(rows), nil
}

// IngestRange fetches every date in [from, to] inclusive. Dates that
// already have a snapshot are skipped unless refresh is set. A failed fetch
// is logged and skipped so one bad day does not abort a season backfill.
func (p *Pipeline) IngestRange(ctx context.Context, from, to time.Time, refresh bool) (fetched, skipped int, err error) {
	from, to = models.Normalize(from), models.Normalize(to)
	if to.Before(from) {
		return 0, 0, fmt.Errorf("invalid range: %s is after %s",
			from.Format(models.DateLayout), to.Format(models.DateLayout))
	}

	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return fetched, skipped, err
		}
		if !refresh && gamelog.DayExists(p.cfg.Pipeline.DailyDir, d) {
			skipped++
			continue
		}
		if _, err := p.FetchDay(ctx, d); err != nil {
			logger.Warn("Skipping %s: %v", d.Format(models.DateLayout), err)
			skipped++
			continue
		}
		fetched++
	}
	logger.Info("Ingest complete: %d fetched, %d skipped", fetched, skipped)
	return fetched, skipped, nil
}

// Rebuild reloads the canonical game log from the snapshot files. Files
// that fail the schema contract are logged and skipped; duplicate rows
// across files keep their first occurrence.
func (p *Pipeline) Rebuild() (int, error) {
	paths, err := gamelog.ListDays(p.cfg.Pipeline.DailyDir)
	if err != nil {
		return 0, err
	}

	if err := p.log.Clear(); err != nil {
		return 0, err
	}

	total := 0
	for _, path := range paths {
		rows, err := gamelog.ReadDay(path)
		if err != nil {
			logger.Warn("Skipping bad snapshot %s: %v", path, err)
			continue
		}
		n, err := p.log.InsertRows(rows)
		if err != nil {
			return total, fmt.Errorf("failed to load %s: %w", path, err)
		}
		total += n
	}
	logger.Info("Rebuilt game log from %d snapshots: %d rows", len(paths), total)
	return total, nil
}

// PredictDate builds and persists the prediction board for one date. The
// target day's schedule comes from its snapshot file; rolling features come
// from the canonical log strictly before the date. A date with no games
// yields an empty board, not an error.
func (p *Pipeline) PredictDate(ctx context.Context, date time.Time) ([]models.PredictionRow, error) {
	date = models.Normalize(date)
	runID := uuid.NewString()
	logger.Info("Prediction run %s for %s", runID, date.Format(models.DateLayout))

	dayRows, err := p.targetDayRows(ctx, date)
	if err != nil {
		return nil, err
	}

	pairs := pairing.ForDate(dayRows, date)
	if len(pairs) == 0 {
		logger.Info("Run %s: no games on %s", runID, date.Format(models.DateLayout))
		return nil, nil
	}

	history, err := p.log.History(date)
	if err != nil {
		return nil, err
	}
	states := rolling.AsOf(history, date, p.rollingConfig())

	vectors := make([]models.FeatureVector, len(pairs))
	for i, pair := range pairs {
		vectors[i] = features.Build(stateFor(states, pair.HomeTeamID), stateFor(states, pair.AwayTeamID))
	}

	margins := p.margin.PredictMargin(vectors)
	probs := p.win.PredictProb(vectors)

	rows, err := board.Assemble(pairs, margins, probs)
	if err != nil {
		return nil, err
	}
	if err := p.board.Upsert(ctx, rows); err != nil {
		return nil, fmt.Errorf("failed to persist board: %w", err)
	}

	logger.Info("Run %s: wrote %d predictions for %s", runID, len(rows), date.Format(models.DateLayout))
	return rows, nil
}

// targetDayRows loads the date's snapshot, fetching it first when missing.
func (p *Pipeline) targetDayRows(ctx context.Context, date time.Time) ([]models.TeamGameRow, error) {
	path := gamelog.DayPath(p.cfg.Pipeline.DailyDir, date)
	if !gamelog.DayExists(p.cfg.Pipeline.DailyDir, date) {
		if _, err := p.FetchDay(ctx, date); err != nil {
			return nil, fmt.Errorf("failed to fetch target day: %w", err)
		}
	}
	return gamelog.ReadDay(path)
}

func stateFor(states map[models.TeamID]models.TeamRollingState, id models.TeamID) *models.TeamRollingState {
	if st, ok := states[id]; ok {
		return &st
	}
	return nil
}

// BuildTraining writes the training CSV from the full canonical log and
// returns the eligible row count.
func (p *Pipeline) BuildTraining(outPath string) (int, error) {
	log, err := p.log.All()
	if err != nil {
		return 0, err
	}

	cfg := features.TrainingConfig{
		Rolling:  p.rollingConfig(),
		MinGames: p.cfg.Pipeline.MinGames,
	}
	if cfg.MinGames <= 0 {
		cfg.MinGames = features.DefaultTrainingConfig().MinGames
	}

	rows := features.BuildTrainingSet(log, cfg)

	f, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create training file: %w", err)
	}
	defer f.Close()

	if err := features.WriteCSV(f, rows); err != nil {
		return 0, fmt.Errorf("failed to write training file: %w", err)
	}
	logger.Info("Wrote %d training rows to %s", len(rows), outPath)
	return len(rows), nil
}

// RunDaily executes a full day cycle: backfill the season's snapshots
// through yesterday, rebuild the canonical log, predict today, and send the
// board. Today's snapshot is always refreshed so late schedule changes are
// picked up.
func (p *Pipeline) RunDaily(ctx context.Context, now time.Time) error {
	today := models.Normalize(now)
	yesterday := today.AddDate(0, 0, -1)
	seasonStart := time.Date(models.SeasonStartYear(today), time.November, 1, 0, 0, 0, 0, time.UTC)

	if !yesterday.Before(seasonStart) {
		if _, _, err := p.IngestRange(ctx, seasonStart, yesterday, false); err != nil {
			return fmt.Errorf("failed to backfill season: %w", err)
		}
	}
	if _, err := p.FetchDay(ctx, today); err != nil {
		return fmt.Errorf("failed to fetch today: %w", err)
	}
	if _, err := p.Rebuild(); err != nil {
		return fmt.Errorf("failed to rebuild game log: %w", err)
	}

	rows, err := p.PredictDate(ctx, today)
	if err != nil {
		return err
	}

	if p.notifier != nil {
		if err := p.notifier.SendBoard(today, rows); err != nil {
			logger.Warn("Failed to send board notification: %v", err)
		}
	}
	return nil
}
