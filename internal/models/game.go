// Package models defines the core domain entities: team-game rows, game
// pairs, rolling states, feature vectors, and prediction rows.
package models

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the calendar-date wire format used everywhere in the pipeline.
const DateLayout = "2006-01-02"

// TeamID is the canonical team identifier. Source payloads carry ids
// sometimes as numbers and sometimes as strings; everything is normalized
// through TeamIDOf at ingestion so merge keys always compare equal.
type TeamID string

// TeamIDOf converts a loosely typed identifier into the canonical TeamID.
func TeamIDOf(v any) TeamID {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return TeamID(x)
	case TeamID:
		return x
	case int:
		return TeamID(strconv.Itoa(x))
	case int64:
		return TeamID(strconv.FormatInt(x, 10))
	case float64:
		return TeamID(strconv.FormatInt(int64(x), 10))
	default:
		return TeamID(fmt.Sprintf("%v", x))
	}
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// Normalize truncates t to a UTC calendar date.
func Normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SeasonStartYear maps a date to the starting year of its season.
// College basketball seasons start in November, so January through October
// belong to the season that started the previous year.
func SeasonStartYear(d time.Time) int {
	if d.Month() >= time.November {
		return d.Year()
	}
	return d.Year() - 1
}

// TeamGameRow is one team's participation in one game. Every completed game
// produces exactly two rows, one with IsHome true and one false, with
// team/opp identity swapped between them.
type TeamGameRow struct {
	Date      time.Time `json:"date"`
	GameID    int64     `json:"game_id"`
	Season    int       `json:"season_start"`
	Status    string    `json:"status,omitempty"`
	StartTime string    `json:"start_time,omitempty"`
	IsHome    bool      `json:"is_home"`

	TeamID   TeamID `json:"team_id"`
	TeamCode string `json:"team_code"`
	TeamName string `json:"team_name"`
	OppID    TeamID `json:"opp_id"`
	OppCode  string `json:"opp_code"`
	OppName  string `json:"opp_name"`

	Pts    *int `json:"pts,omitempty"`
	OppPts *int `json:"opp_pts,omitempty"`

	VenueName  string `json:"venue_name,omitempty"`
	CityState  string `json:"citystate,omitempty"`
	Neutral    bool   `json:"neutral,omitempty"`
	Overtime   *int   `json:"overtime,omitempty"`
	Attendance *int   `json:"attendance,omitempty"`
}

// Margin returns pts - opp_pts, or nil when either score is missing.
func (r *TeamGameRow) Margin() *int {
	if r.Pts == nil || r.OppPts == nil {
		return nil
	}
	m := *r.Pts - *r.OppPts
	return &m
}

// Validate checks the row's schema contract.
func (r *TeamGameRow) Validate() error {
	if r.Date.IsZero() {
		return errors.New("date must not be zero")
	}
	if r.GameID <= 0 {
		return errors.New("game ID must be positive")
	}
	if r.TeamID == "" {
		return errors.New("team ID must not be empty")
	}
	if r.Pts != nil && *r.Pts < 0 {
		return errors.New("pts must not be negative")
	}
	if r.OppPts != nil && *r.OppPts < 0 {
		return errors.New("opp pts must not be negative")
	}
	return nil
}

// Key identifies a row for deduplication: re-fetched days keep the first
// occurrence per (date, game_id, team_id, is_home).
func (r *TeamGameRow) Key() string {
	side := "A"
	if r.IsHome {
		side = "H"
	}
	return fmt.Sprintf("%s|%d|%s|%s", r.Date.Format(DateLayout), r.GameID, r.TeamID, side)
}

// GamePair is one row per game with home and away identity merged.
type GamePair struct {
	Date   time.Time `json:"date"`
	GameID int64     `json:"game_id"`

	HomeTeamID   TeamID `json:"home_team_id"`
	HomeTeamCode string `json:"home_team_code"`
	HomeTeamName string `json:"home_team_name"`
	AwayTeamID   TeamID `json:"away_team_id"`
	AwayTeamCode string `json:"away_team_code"`
	AwayTeamName string `json:"away_team_name"`
}

// PredictionRow is the final per-game board output for one date. Moneylines
// are nil when the win probability falls outside the open interval (0,1).
type PredictionRow struct {
	Date   time.Time `json:"date"`
	GameID int64     `json:"game_id"`

	HomeTeamCode string `json:"home_team_code"`
	HomeTeamName string `json:"home_team_name"`
	AwayTeamCode string `json:"away_team_code"`
	AwayTeamName string `json:"away_team_name"`

	PredHomeMargin float64  `json:"pred_home_margin"`
	HomeSpread     float64  `json:"home_spread"`
	ProbHomeWin    float64  `json:"prob_home_win"`
	HomeMoneyline  *float64 `json:"home_moneyline_nv"`
	AwayMoneyline  *float64 `json:"away_moneyline_nv"`
}
