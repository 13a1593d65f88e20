package board

import (
	"context"
	"time"

	"github.com/reaganking/cbb-preds/internal/config"
	"github.com/reaganking/cbb-preds/internal/models"
)

// Store persists prediction boards. Rewriting a date is idempotent: rows
// are keyed (date, game_id) and a rerun replaces the previous output.
type Store interface {
	// Upsert writes the rows, replacing any existing row with the same
	// date and game id.
	Upsert(ctx context.Context, rows []models.PredictionRow) error
	// ByDate returns a date's board ordered by home spread ascending,
	// then game id, so the strongest home favorites come first.
	ByDate(ctx context.Context, date time.Time) ([]models.PredictionRow, error)
	Close() error
}

// OpenStore builds a Store from the board configuration.
func OpenStore(ctx context.Context, cfg config.BoardConfig) (Store, error) {
	if cfg.Driver == "postgres" {
		return OpenPostgres(ctx, cfg.PostgresDSN)
	}
	return OpenSQLite(cfg.DBPath)
}
