package board

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/reaganking/cbb-preds/internal/models"
)

// SQLiteStore keeps the prediction board in a local SQLite database. It is
// the default backend for single-host deployments.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the predictions database at dbPath.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open predictions database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS predictions (
		date TEXT NOT NULL,
		game_id INTEGER NOT NULL,
		home_team_code TEXT,
		home_team_name TEXT,
		away_team_code TEXT,
		away_team_name TEXT,
		pred_home_margin REAL,
		home_spread REAL,
		prob_home_win REAL,
		home_moneyline_nv REAL,
		away_moneyline_nv REAL,
		PRIMARY KEY (date, game_id)
	);

	CREATE INDEX IF NOT EXISTS idx_predictions_date ON predictions(date);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Upsert writes the board rows, replacing prior rows for the same games.
func (s *SQLiteStore) Upsert(ctx context.Context, rows []models.PredictionRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO predictions
		(date, game_id, home_team_code, home_team_name, away_team_code, away_team_name,
		 pred_home_margin, home_spread, prob_home_win, home_moneyline_nv, away_moneyline_nv)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err := stmt.ExecContext(ctx,
			r.Date.Format(models.DateLayout), r.GameID,
			r.HomeTeamCode, r.HomeTeamName, r.AwayTeamCode, r.AwayTeamName,
			r.PredHomeMargin, r.HomeSpread, r.ProbHomeWin,
			nullFloat(r.HomeMoneyline), nullFloat(r.AwayMoneyline),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert game %d: %w", r.GameID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert: %w", err)
	}
	return nil
}

// ByDate returns a date's board sorted by home spread, then game id.
func (s *SQLiteStore) ByDate(ctx context.Context, date time.Time) ([]models.PredictionRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, game_id, home_team_code, home_team_name, away_team_code, away_team_name,
		       pred_home_margin, home_spread, prob_home_win, home_moneyline_nv, away_moneyline_nv
		FROM predictions
		WHERE date = ?
		ORDER BY home_spread ASC, game_id ASC
	`, date.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var out []models.PredictionRow
	for rows.Next() {
		var r models.PredictionRow
		var dateStr string
		var homeML, awayML sql.NullFloat64
		if err := rows.Scan(
			&dateStr, &r.GameID,
			&r.HomeTeamCode, &r.HomeTeamName, &r.AwayTeamCode, &r.AwayTeamName,
			&r.PredHomeMargin, &r.HomeSpread, &r.ProbHomeWin, &homeML, &awayML,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prediction row: %w", err)
		}
		d, err := models.ParseDate(dateStr)
		if err != nil {
			return nil, err
		}
		r.Date = d
		r.HomeMoneyline = fromNullFloat(homeML)
		r.AwayMoneyline = fromNullFloat(awayML)
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func fromNullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
