package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/reaganking/cbb-preds/internal/board"
	"github.com/reaganking/cbb-preds/internal/models"
)

func newTestServer(t *testing.T) (*Server, *board.SQLiteStore) {
	t.Helper()
	store, err := board.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed to open board store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return New(store), store
}

func seedBoard(t *testing.T, store *board.SQLiteStore) time.Time {
	t.Helper()
	d := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	ml := func(v float64) *float64 { return &v }
	rows := []models.PredictionRow{
		{Date: d, GameID: 100, HomeTeamCode: "UK", AwayTeamCode: "DUKE",
			PredHomeMargin: 4, HomeSpread: -4, ProbHomeWin: 0.65,
			HomeMoneyline: ml(-186), AwayMoneyline: ml(186)},
		{Date: d, GameID: 200, HomeTeamCode: "UNC", AwayTeamCode: "NCST",
			PredHomeMargin: 9, HomeSpread: -9, ProbHomeWin: 0.8,
			HomeMoneyline: ml(-400), AwayMoneyline: ml(400)},
	}
	if err := store.Upsert(context.Background(), rows); err != nil {
		t.Fatalf("seeding board: %v", err)
	}
	return d
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	w := get(t, s, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestPredictionsJSON(t *testing.T) {
	s, store := newTestServer(t)
	seedBoard(t, store)

	w := get(t, s, "/api/predictions?d=2024-01-10")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Date        string                 `json:"date"`
		Count       int                    `json:"count"`
		Predictions []models.PredictionRow `json:"predictions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Date != "2024-01-10" || resp.Count != 2 {
		t.Errorf("date %q count %d, want 2024-01-10 / 2", resp.Date, resp.Count)
	}
	// Sorted by home spread, biggest favorite first.
	if resp.Predictions[0].GameID != 200 {
		t.Errorf("first game = %d, want 200", resp.Predictions[0].GameID)
	}
	if resp.Predictions[0].HomeMoneyline == nil || *resp.Predictions[0].HomeMoneyline != -400 {
		t.Errorf("moneyline = %v, want -400", resp.Predictions[0].HomeMoneyline)
	}
}

func TestPredictionsJSON_EmptyDate(t *testing.T) {
	s, store := newTestServer(t)
	seedBoard(t, store)

	w := get(t, s, "/api/predictions?d=2024-07-04")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"predictions":[]`) {
		t.Errorf("empty date should return an empty array: %q", w.Body.String())
	}
}

func TestPredictionsJSON_BadDate(t *testing.T) {
	s, _ := newTestServer(t)
	w := get(t, s, "/api/predictions?d=January+10")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestBoardHTML(t *testing.T) {
	s, store := newTestServer(t)
	seedBoard(t, store)

	w := get(t, s, "/?d=2024-01-10")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "DUKE @ UK") {
		t.Errorf("matchup missing from page: %q", body)
	}
	if !strings.Contains(body, "-4.0") {
		t.Errorf("spread missing from page: %q", body)
	}
	if !strings.Contains(body, "65%") {
		t.Errorf("win probability missing from page: %q", body)
	}
}

func TestBoardHTML_EmptyDay(t *testing.T) {
	s, _ := newTestServer(t)
	w := get(t, s, "/?d=2024-07-04")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "No games on the board") {
		t.Errorf("empty-day message missing: %q", w.Body.String())
	}
}
