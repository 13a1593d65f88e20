package gamelog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/reaganking/cbb-preds/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func date(s string) time.Time {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func intp(v int) *int { return &v }

func gameRows(dateStr string, gameID int64, home, away models.TeamID, homePts, awayPts int) []models.TeamGameRow {
	d := date(dateStr)
	return []models.TeamGameRow{
		{
			Date: d, GameID: gameID, IsHome: true,
			TeamID: home, TeamCode: "H", OppID: away, OppCode: "A",
			Pts: intp(homePts), OppPts: intp(awayPts),
		},
		{
			Date: d, GameID: gameID, IsHome: false,
			TeamID: away, TeamCode: "A", OppID: home, OppCode: "H",
			Pts: intp(awayPts), OppPts: intp(homePts),
		},
	}
}

func TestInsertAndQueryDay(t *testing.T) {
	s := newTestStore(t)
	n, err := s.InsertRows(gameRows("2024-01-10", 100, "1", "2", 80, 75))
	if err != nil {
		t.Fatalf("InsertRows: %v", err)
	}
	if n != 2 {
		t.Errorf("inserted %d rows, want 2", n)
	}

	day, err := s.Day(date("2024-01-10"))
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	if len(day) != 2 {
		t.Fatalf("got %d rows, want 2", len(day))
	}
	// Home row first per the deterministic order.
	if !day[0].IsHome {
		t.Error("expected home row first")
	}
	if day[0].Pts == nil || *day[0].Pts != 80 {
		t.Errorf("home pts = %v, want 80", day[0].Pts)
	}
	if day[0].Season != 2023 {
		t.Errorf("season = %d, want 2023 (January belongs to prior season)", day[0].Season)
	}
}

func TestInsertRows_DedupKeepsFirst(t *testing.T) {
	s := newTestStore(t)
	first := gameRows("2024-01-10", 100, "1", "2", 80, 75)
	if _, err := s.InsertRows(first); err != nil {
		t.Fatalf("InsertRows: %v", err)
	}

	// Same key re-fetched with different scores must be ignored.
	refetched := gameRows("2024-01-10", 100, "1", "2", 99, 0)
	n, err := s.InsertRows(refetched)
	if err != nil {
		t.Fatalf("InsertRows refetch: %v", err)
	}
	if n != 0 {
		t.Errorf("refetch inserted %d rows, want 0", n)
	}

	day, _ := s.Day(date("2024-01-10"))
	if len(day) != 2 {
		t.Fatalf("got %d rows after refetch, want 2", len(day))
	}
	if *day[0].Pts != 80 {
		t.Errorf("pts after refetch = %d, want original 80", *day[0].Pts)
	}
}

func TestHistory_StrictlyBefore(t *testing.T) {
	s := newTestStore(t)
	rows := append(gameRows("2024-01-10", 100, "1", "2", 80, 75),
		gameRows("2024-01-12", 101, "2", "1", 70, 65)...)
	if _, err := s.InsertRows(rows); err != nil {
		t.Fatalf("InsertRows: %v", err)
	}

	hist, err := s.History(date("2024-01-12"))
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("got %d history rows, want 2 (cutoff day excluded)", len(hist))
	}
	for _, r := range hist {
		if !r.Date.Before(date("2024-01-12")) {
			t.Errorf("history row on %v not before cutoff", r.Date)
		}
	}
}

func TestInsertRows_MissingScores(t *testing.T) {
	s := newTestStore(t)
	rows := []models.TeamGameRow{{
		Date: date("2024-01-10"), GameID: 100, IsHome: true, TeamID: "1", OppID: "2",
	}}
	if _, err := s.InsertRows(rows); err != nil {
		t.Fatalf("InsertRows: %v", err)
	}
	day, _ := s.Day(date("2024-01-10"))
	if day[0].Pts != nil || day[0].OppPts != nil {
		t.Errorf("expected nil scores, got %v / %v", day[0].Pts, day[0].OppPts)
	}
	if day[0].Margin() != nil {
		t.Error("margin of unscored game must be nil")
	}
}

func TestInsertRows_InvalidRowRejected(t *testing.T) {
	s := newTestStore(t)
	rows := []models.TeamGameRow{{Date: date("2024-01-10"), GameID: 100, IsHome: true}}
	if _, err := s.InsertRows(rows); err == nil {
		t.Error("expected error for row without team ID")
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.InsertRows(gameRows("2024-01-10", 100, "1", "2", 80, 75)); err != nil {
		t.Fatalf("InsertRows: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	n, err := s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("count after clear = %d, want 0", n)
	}
}

func TestDailyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	d := date("2024-01-10")
	rows := gameRows("2024-01-10", 100, "1", "2", 80, 75)

	path, err := WriteDay(dir, d, rows)
	if err != nil {
		t.Fatalf("WriteDay: %v", err)
	}
	if !DayExists(dir, d) {
		t.Error("DayExists should be true after write")
	}

	got, err := ReadDay(path)
	if err != nil {
		t.Fatalf("ReadDay: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[0].TeamID != "1" || !got[0].Date.Equal(d) {
		t.Errorf("round-trip mismatch: %+v", got[0])
	}
}

func TestReadDay_RejectsSchemaViolation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "2024-01-10.json")
	// game_id missing: the schema contract is non-negotiable.
	if err := os.WriteFile(path, []byte(`[{"date":"2024-01-10T00:00:00Z","team_id":"1"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadDay(path); err == nil {
		t.Error("expected error for row missing required fields")
	}
}

func TestReadDay_RejectsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "2024-01-10.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadDay(path); err == nil {
		t.Error("expected error for malformed file")
	}
}

func TestListDays_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"2024-01-12.json", "2024-01-10.json", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("[]"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	paths, err := ListDays(dir)
	if err != nil {
		t.Fatalf("ListDays: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("got %d paths, want 2", len(paths))
	}
	if filepath.Base(paths[0]) != "2024-01-10.json" {
		t.Errorf("paths not sorted: %v", paths)
	}
}

func TestListDays_MissingDirIsEmpty(t *testing.T) {
	paths, err := ListDays(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("ListDays on missing dir: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("got %d paths, want 0", len(paths))
	}
}
