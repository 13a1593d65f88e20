package gamelog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/reaganking/cbb-preds/internal/models"
)

// Daily snapshot files: one JSON array of TeamGameRows per fetched date,
// named <dir>/<YYYY-MM-DD>.json. They are the raw source the rebuild pass
// folds into the canonical log.

// DayPath returns the snapshot path for a date.
func DayPath(dir string, date time.Time) string {
	return filepath.Join(dir, date.Format(models.DateLayout)+".json")
}

// DayExists reports whether a snapshot for the date is already on disk.
func DayExists(dir string, date time.Time) bool {
	_, err := os.Stat(DayPath(dir, date))
	return err == nil
}

// WriteDay writes a date's rows to its snapshot file, replacing any
// previous snapshot for that date.
func WriteDay(dir string, date time.Time, rows []models.TeamGameRow) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create daily directory: %w", err)
	}
	path := DayPath(dir, date)
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal day %s: %w", date.Format(models.DateLayout), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// ReadDay loads a snapshot file and checks the schema contract. A missing
// required field (date, game_id, team_id) on any row makes the whole file
// unreadable; callers treat that as a skippable bad file during a rebuild.
func ReadDay(path string) ([]models.TeamGameRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var rows []models.TeamGameRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for i := range rows {
		if err := rows[i].Validate(); err != nil {
			return nil, fmt.Errorf("row %d of %s violates the schema contract: %w", i, path, err)
		}
	}
	return rows, nil
}

// ListDays returns the snapshot file paths in dir, sorted by filename,
// which for date-named files is chronological order.
func ListDays(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list daily directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
