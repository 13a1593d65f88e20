// Package gamelog provides SQLite-backed persistence for the canonical
// team-game log, plus the per-day raw snapshot files the rebuild pass
// consumes.
package gamelog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/reaganking/cbb-preds/internal/models"
	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database holding the canonical team-game table, one
// row per (date, game_id, team_id, is_home).
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/cbb-preds/games.db.
func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "cbb-preds", "games.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS team_games (
			date         TEXT NOT NULL,
			game_id      INTEGER NOT NULL,
			team_id      TEXT NOT NULL,
			is_home      INTEGER NOT NULL,
			season_start INTEGER NOT NULL,
			status       TEXT,
			start_time   TEXT,
			team_code    TEXT,
			team_name    TEXT,
			opp_id       TEXT,
			opp_code     TEXT,
			opp_name     TEXT,
			pts          INTEGER,
			opp_pts      INTEGER,
			venue_name   TEXT,
			citystate    TEXT,
			neutral      INTEGER NOT NULL DEFAULT 0,
			overtime     INTEGER,
			attendance   INTEGER,
			PRIMARY KEY (date, game_id, team_id, is_home)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_team_games_team_date ON team_games(team_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_team_games_date ON team_games(date)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRows adds rows to the canonical log. The uniqueness key is
// (date, game_id, team_id, is_home); a conflicting row is ignored, so the
// first occurrence wins when a day is re-fetched. Returns the number of
// rows actually inserted.
func (s *Store) InsertRows(rows []models.TeamGameRow) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO team_games
			(date, game_id, team_id, is_home, season_start, status, start_time,
			 team_code, team_name, opp_id, opp_code, opp_name,
			 pts, opp_pts, venue_name, citystate, neutral, overtime, attendance)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range rows {
		r := &rows[i]
		if err := r.Validate(); err != nil {
			return inserted, fmt.Errorf("invalid row for game %d: %w", r.GameID, err)
		}
		season := r.Season
		if season == 0 {
			season = models.SeasonStartYear(r.Date)
		}
		res, err := stmt.Exec(
			r.Date.Format(models.DateLayout), r.GameID, string(r.TeamID), boolToInt(r.IsHome),
			season, r.Status, r.StartTime,
			r.TeamCode, r.TeamName, string(r.OppID), r.OppCode, r.OppName,
			nullInt(r.Pts), nullInt(r.OppPts),
			r.VenueName, r.CityState, boolToInt(r.Neutral),
			nullInt(r.Overtime), nullInt(r.Attendance),
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert row for game %d: %w", r.GameID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	return inserted, tx.Commit()
}

// Clear empties the canonical log ahead of a rebuild.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM team_games`); err != nil {
		return fmt.Errorf("failed to clear game log: %w", err)
	}
	return nil
}

// History returns every row dated strictly before the cutoff, ordered by
// (date, game_id, is_home desc) so the file order is deterministic.
func (s *Store) History(before time.Time) ([]models.TeamGameRow, error) {
	return s.query(`SELECT `+rowCols+` FROM team_games WHERE date < ?
		ORDER BY date, game_id, is_home DESC`, before.Format(models.DateLayout))
}

// All returns the entire canonical log ordered by (date, game_id, is_home
// desc).
func (s *Store) All() ([]models.TeamGameRow, error) {
	return s.query(`SELECT ` + rowCols + ` FROM team_games
		ORDER BY date, game_id, is_home DESC`)
}

// Day returns every row for exactly the given date.
func (s *Store) Day(date time.Time) ([]models.TeamGameRow, error) {
	return s.query(`SELECT `+rowCols+` FROM team_games WHERE date = ?
		ORDER BY game_id, is_home DESC`, date.Format(models.DateLayout))
}

// Count returns the total number of rows in the canonical log.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM team_games`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return n, nil
}

func (s *Store) query(q string, args ...any) ([]models.TeamGameRow, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query game log: %w", err)
	}
	defer rows.Close()

	var out []models.TeamGameRow
	for rows.Next() {
		r, err := scanRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

const rowCols = `date, game_id, team_id, is_home, season_start, status, start_time,
	team_code, team_name, opp_id, opp_code, opp_name,
	pts, opp_pts, venue_name, citystate, neutral, overtime, attendance`

func scanRow(scan func(...any) error) (*models.TeamGameRow, error) {
	var r models.TeamGameRow
	var dateStr, teamID, oppID string
	var isHome, neutral int
	var status, startTime, teamCode, teamName, oppCode, oppName, venueName, cityState sql.NullString
	var pts, oppPts, overtime, attendance sql.NullInt64

	err := scan(
		&dateStr, &r.GameID, &teamID, &isHome, &r.Season, &status, &startTime,
		&teamCode, &teamName, &oppID, &oppCode, &oppName,
		&pts, &oppPts, &venueName, &cityState, &neutral, &overtime, &attendance,
	)
	if err != nil {
		return nil, err
	}

	date, err := models.ParseDate(dateStr)
	if err != nil {
		return nil, err
	}
	r.Date = date
	r.TeamID = models.TeamID(teamID)
	r.OppID = models.TeamID(oppID)
	r.IsHome = isHome != 0
	r.Neutral = neutral != 0
	r.Status = status.String
	r.StartTime = startTime.String
	r.TeamCode = teamCode.String
	r.TeamName = teamName.String
	r.OppCode = oppCode.String
	r.OppName = oppName.String
	r.Pts = fromNullInt(pts)
	r.OppPts = fromNullInt(oppPts)
	r.Overtime = fromNullInt(overtime)
	r.Attendance = fromNullInt(attendance)
	return &r, nil
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func fromNullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
