package board

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reaganking/cbb-preds/internal/models"
)

// PostgresStore keeps the prediction board in Postgres, for deployments
// where something else (a dashboard, a notebook) reads the same table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to Postgres and ensures the predictions table
// exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.createTables(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) createTables(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS predictions (
			date date NOT NULL,
			game_id bigint NOT NULL,
			home_team_code text,
			home_team_name text,
			away_team_code text,
			away_team_name text,
			pred_home_margin double precision,
			home_spread double precision,
			prob_home_win double precision,
			home_moneyline_nv double precision,
			away_moneyline_nv double precision,
			PRIMARY KEY (date, game_id)
		)
	`)
	return err
}

// Upsert writes the board rows, replacing prior rows for the same games.
func (s *PostgresStore) Upsert(ctx context.Context, rows []models.PredictionRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO predictions
			(date, game_id, home_team_code, home_team_name, away_team_code, away_team_name,
			 pred_home_margin, home_spread, prob_home_win, home_moneyline_nv, away_moneyline_nv)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (date, game_id) DO UPDATE SET
				home_team_code = EXCLUDED.home_team_code,
				home_team_name = EXCLUDED.home_team_name,
				away_team_code = EXCLUDED.away_team_code,
				away_team_name = EXCLUDED.away_team_name,
				pred_home_margin = EXCLUDED.pred_home_margin,
				home_spread = EXCLUDED.home_spread,
				prob_home_win = EXCLUDED.prob_home_win,
				home_moneyline_nv = EXCLUDED.home_moneyline_nv,
				away_moneyline_nv = EXCLUDED.away_moneyline_nv
		`,
			r.Date, r.GameID,
			r.HomeTeamCode, r.HomeTeamName, r.AwayTeamCode, r.AwayTeamName,
			r.PredHomeMargin, r.HomeSpread, r.ProbHomeWin,
			r.HomeMoneyline, r.AwayMoneyline,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range rows {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert predictions: %w", err)
		}
	}
	return nil
}

// ByDate returns a date's board sorted by home spread, then game id.
func (s *PostgresStore) ByDate(ctx context.Context, date time.Time) ([]models.PredictionRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT date, game_id, home_team_code, home_team_name, away_team_code, away_team_name,
		       pred_home_margin, home_spread, prob_home_win, home_moneyline_nv, away_moneyline_nv
		FROM predictions
		WHERE date = $1
		ORDER BY home_spread ASC, game_id ASC
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var out []models.PredictionRow
	for rows.Next() {
		var r models.PredictionRow
		if err := rows.Scan(
			&r.Date, &r.GameID,
			&r.HomeTeamCode, &r.HomeTeamName, &r.AwayTeamCode, &r.AwayTeamName,
			&r.PredHomeMargin, &r.HomeSpread, &r.ProbHomeWin,
			&r.HomeMoneyline, &r.AwayMoneyline,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prediction row: %w", err)
		}
		r.Date = models.Normalize(r.Date)
		out = append(out, r)
	}
	return out, rows.Err()
}
