package features

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/reaganking/cbb-preds/internal/logger"
	"github.com/reaganking/cbb-preds/internal/models"
	"github.com/reaganking/cbb-preds/internal/rolling"
)

// TrainingConfig controls window and eligibility for the training set.
type TrainingConfig struct {
	Rolling rolling.Config
	// MinGames is the minimum prior-games count required of BOTH teams for
	// a game to be usable for training.
	MinGames int
}

// DefaultTrainingConfig pairs the standard rolling window with a three
// prior-game eligibility floor.
func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		Rolling:  rolling.DefaultConfig(),
		MinGames: 3,
	}
}

// TrainingRow is one eligible historical game with per-side rolling
// snapshots, the shared feature vector, and the training targets.
type TrainingRow struct {
	Date   time.Time
	GameID int64

	HomeTeamID   models.TeamID
	HomeTeamCode string
	AwayTeamID   models.TeamID
	AwayTeamCode string

	HomePts int
	AwayPts int

	Home models.TeamRollingState
	Away models.TeamRollingState

	Features models.FeatureVector

	TargetHomeMargin int
	TargetHomeWin    int
}

type sideKey struct {
	gameID int64
	teamID models.TeamID
}

type sideState struct {
	row   models.TeamGameRow
	state models.TeamRollingState
}

// BuildTrainingSet derives the labeled training set from the full
// team-game log. Each team's history is independently time-ordered and
// rolled, then home and away sides are joined per game. Games missing
// either score carry no label and are dropped; ties should not occur in
// this sport and are flagged as a data anomaly but scored as a home loss.
// The result is sorted by (date, game_id) for reproducible training order.
func BuildTrainingSet(log []models.TeamGameRow, cfg TrainingConfig) []TrainingRow {
	states := make(map[sideKey]sideState)
	for _, teamRows := range rolling.GroupByTeam(log) {
		sorted, rolled := rolling.ForTeam(teamRows, cfg.Rolling)
		for i, r := range sorted {
			k := sideKey{gameID: r.GameID, teamID: r.TeamID}
			if _, dup := states[k]; dup {
				continue
			}
			states[k] = sideState{row: r, state: rolled[i]}
		}
	}

	var out []TrainingRow
	for k, h := range states {
		if !h.row.IsHome {
			continue
		}
		a, ok := states[sideKey{gameID: k.gameID, teamID: h.row.OppID}]
		if !ok || a.row.IsHome || !models.Normalize(a.row.Date).Equal(models.Normalize(h.row.Date)) {
			continue
		}

		if h.row.Pts == nil || a.row.Pts == nil {
			continue
		}
		margin := *h.row.Pts - *a.row.Pts
		win := 0
		if margin > 0 {
			win = 1
		} else if margin == 0 {
			logger.Warn("Tie recorded for game %d on %s; scoring as home loss",
				h.row.GameID, h.row.Date.Format(models.DateLayout))
		}

		if h.state.GpPrev < cfg.MinGames || a.state.GpPrev < cfg.MinGames {
			continue
		}

		home, away := h.state, a.state
		out = append(out, TrainingRow{
			Date:             models.Normalize(h.row.Date),
			GameID:           h.row.GameID,
			HomeTeamID:       h.row.TeamID,
			HomeTeamCode:     h.row.TeamCode,
			AwayTeamID:       a.row.TeamID,
			AwayTeamCode:     a.row.TeamCode,
			HomePts:          *h.row.Pts,
			AwayPts:          *a.row.Pts,
			Home:             home,
			Away:             away,
			Features:         Build(&home, &away),
			TargetHomeMargin: margin,
			TargetHomeWin:    win,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].GameID < out[j].GameID
	})
	return out
}

var trainingHeader = []string{
	"date", "game_id",
	"home_team_id", "home_team_code", "away_team_id", "away_team_code",
	"home_pts", "away_pts",
	"home_pts_mean_5", "home_pts_std_5", "home_opp_pts_mean_5", "home_opp_pts_std_5",
	"home_margin_mean_5", "home_rest_days", "home_gp_prev",
	"away_pts_mean_5", "away_pts_std_5", "away_opp_pts_mean_5", "away_opp_pts_std_5",
	"away_margin_mean_5", "away_rest_days", "away_gp_prev",
	"diff_pts_mean_5", "diff_opp_pts_mean_5", "diff_margin_mean_5",
	"diff_pts_std_5", "diff_opp_pts_std_5", "diff_rest_days", "sum_gp_prev",
	"target_home_margin", "target_home_win",
}

// WriteCSV streams the training set as CSV. Undefined per-side statistics
// are written as empty cells; the shared feature columns are always defined.
func WriteCSV(w io.Writer, rows []TrainingRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(trainingHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range rows {
		rec := []string{
			r.Date.Format(models.DateLayout),
			strconv.FormatInt(r.GameID, 10),
			string(r.HomeTeamID), r.HomeTeamCode,
			string(r.AwayTeamID), r.AwayTeamCode,
			strconv.Itoa(r.HomePts), strconv.Itoa(r.AwayPts),
		}
		rec = append(rec, sideCells(r.Home)...)
		rec = append(rec, sideCells(r.Away)...)
		for _, x := range r.Features.Values() {
			rec = append(rec, formatFloat(x))
		}
		rec = append(rec,
			strconv.Itoa(r.TargetHomeMargin),
			strconv.Itoa(r.TargetHomeWin),
		)
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write row for game %d: %w", r.GameID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func sideCells(st models.TeamRollingState) []string {
	return []string{
		formatFloat(st.PtsMean),
		formatFloat(st.PtsStd),
		formatFloat(st.OppPtsMean),
		formatFloat(st.OppPtsStd),
		formatFloat(st.MarginMean),
		formatFloat(st.RestDays),
		strconv.Itoa(st.GpPrev),
	}
}

func formatFloat(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return ""
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}
