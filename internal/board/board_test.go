package board

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/reaganking/cbb-preds/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func samplePairs() []models.GamePair {
	d := day(2024, 1, 10)
	return []models.GamePair{
		{Date: d, GameID: 100, HomeTeamCode: "AAA", HomeTeamName: "Alpha", AwayTeamCode: "BBB", AwayTeamName: "Beta"},
		{Date: d, GameID: 200, HomeTeamCode: "CCC", HomeTeamName: "Gamma", AwayTeamCode: "DDD", AwayTeamName: "Delta"},
	}
}

func TestAssemble(t *testing.T) {
	pairs := samplePairs()
	rows, err := Assemble(pairs, []float64{6.0, -3.5}, []float64{0.75, 0.4})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	r := rows[0]
	if r.GameID != 100 {
		t.Errorf("game id = %d, want 100", r.GameID)
	}
	if r.HomeSpread != -6.0 {
		t.Errorf("home spread = %v, want -6.0 (negated margin)", r.HomeSpread)
	}
	if r.HomeMoneyline == nil || *r.HomeMoneyline != -300 {
		t.Errorf("home moneyline = %v, want -300", r.HomeMoneyline)
	}
	if r.AwayMoneyline == nil || *r.AwayMoneyline != 300 {
		t.Errorf("away moneyline = %v, want +300", r.AwayMoneyline)
	}

	r = rows[1]
	if r.HomeSpread != 3.5 {
		t.Errorf("home spread = %v, want 3.5", r.HomeSpread)
	}
	if r.HomeMoneyline == nil || *r.HomeMoneyline != 150 {
		t.Errorf("underdog home moneyline = %v, want +150", r.HomeMoneyline)
	}
}

func TestAssemble_UndefinedProbability(t *testing.T) {
	pairs := samplePairs()[:1]
	for _, p := range []float64{0, 1, math.NaN()} {
		rows, err := Assemble(pairs, []float64{2}, []float64{p})
		if err != nil {
			t.Fatalf("Assemble(prob=%v): %v", p, err)
		}
		if rows[0].HomeMoneyline != nil || rows[0].AwayMoneyline != nil {
			t.Errorf("prob %v: moneylines should be nil, got %v / %v",
				p, rows[0].HomeMoneyline, rows[0].AwayMoneyline)
		}
	}
}

func TestAssemble_MisalignedInputs(t *testing.T) {
	if _, err := Assemble(samplePairs(), []float64{1}, []float64{0.5, 0.5}); err == nil {
		t.Error("expected error for misaligned margins")
	}
}

func TestAssemble_Empty(t *testing.T) {
	rows, err := Assemble(nil, nil, nil)
	if err != nil {
		t.Fatalf("Assemble(nil): %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_UpsertAndByDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	d := day(2024, 1, 10)

	ml := func(v float64) *float64 { return &v }
	rows := []models.PredictionRow{
		{Date: d, GameID: 100, HomeTeamCode: "AAA", AwayTeamCode: "BBB",
			PredHomeMargin: 2, HomeSpread: -2, ProbHomeWin: 0.6, HomeMoneyline: ml(-150), AwayMoneyline: ml(150)},
		{Date: d, GameID: 200, HomeTeamCode: "CCC", AwayTeamCode: "DDD",
			PredHomeMargin: 8, HomeSpread: -8, ProbHomeWin: 0.8, HomeMoneyline: ml(-400), AwayMoneyline: ml(400)},
	}
	if err := s.Upsert(ctx, rows); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := s.ByDate(ctx, d)
	if err != nil {
		t.Fatalf("ByDate: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	// Ordered by home spread ascending: the bigger favorite first.
	if got[0].GameID != 200 || got[1].GameID != 100 {
		t.Errorf("order = [%d, %d], want [200, 100]", got[0].GameID, got[1].GameID)
	}
	if got[0].HomeMoneyline == nil || *got[0].HomeMoneyline != -400 {
		t.Errorf("moneyline round-trip = %v, want -400", got[0].HomeMoneyline)
	}
	if !got[0].Date.Equal(d) {
		t.Errorf("date round-trip = %v, want %v", got[0].Date, d)
	}
}

func TestSQLiteStore_RerunReplacesRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	d := day(2024, 1, 10)

	first := []models.PredictionRow{{Date: d, GameID: 100, ProbHomeWin: 0.6, HomeSpread: -2}}
	if err := s.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	second := []models.PredictionRow{{Date: d, GameID: 100, ProbHomeWin: 0.7, HomeSpread: -4}}
	if err := s.Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert rerun: %v", err)
	}

	got, err := s.ByDate(ctx, d)
	if err != nil {
		t.Fatalf("ByDate: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d rows after rerun, want 1", len(got))
	}
	if got[0].ProbHomeWin != 0.7 || got[0].HomeSpread != -4 {
		t.Errorf("rerun did not replace row: %+v", got[0])
	}
}

func TestSQLiteStore_NilMoneylinesSurvive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	d := day(2024, 1, 10)

	rows := []models.PredictionRow{{Date: d, GameID: 100, ProbHomeWin: 1.0}}
	if err := s.Upsert(ctx, rows); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	got, err := s.ByDate(ctx, d)
	if err != nil {
		t.Fatalf("ByDate: %v", err)
	}
	if got[0].HomeMoneyline != nil || got[0].AwayMoneyline != nil {
		t.Errorf("nil moneylines came back as %v / %v", got[0].HomeMoneyline, got[0].AwayMoneyline)
	}
}

func TestSQLiteStore_ByDate_OtherDatesExcluded(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rows := []models.PredictionRow{
		{Date: day(2024, 1, 10), GameID: 100},
		{Date: day(2024, 1, 11), GameID: 101},
	}
	if err := s.Upsert(ctx, rows); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	got, err := s.ByDate(ctx, day(2024, 1, 11))
	if err != nil {
		t.Fatalf("ByDate: %v", err)
	}
	if len(got) != 1 || got[0].GameID != 101 {
		t.Errorf("got %+v, want only game 101", got)
	}
}
