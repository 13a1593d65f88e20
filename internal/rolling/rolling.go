// Package rolling computes per-team, time-ordered, leakage-free rolling
// statistics over the team-game log. Every statistic attached to a game is
// computed from strictly prior games, so a row's own outcome can never leak
// into the features used to predict it.
package rolling

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/reaganking/cbb-preds/internal/models"
)

// Config controls the rolling window and rest-day policy.
type Config struct {
	Window      int
	RestDefault float64
	RestMax     float64
}

// DefaultConfig returns the standard 5-game window with rest days defaulted
// to 7 and clamped to [0, 14]. The clamp applies to both the training and
// the inference path.
func DefaultConfig() Config {
	return Config{
		Window:      5,
		RestDefault: 7,
		RestMax:     14,
	}
}

// SortTeamGames orders one team's rows by (date, start_time, game_id)
// ascending. The sort is stable, so full-key ties keep their input order.
func SortTeamGames(rows []models.TeamGameRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		if rows[i].StartTime != rows[j].StartTime {
			return rows[i].StartTime < rows[j].StartTime
		}
		return rows[i].GameID < rows[j].GameID
	})
}

// GroupByTeam splits a log into per-team histories keyed by canonical id.
func GroupByTeam(rows []models.TeamGameRow) map[models.TeamID][]models.TeamGameRow {
	groups := make(map[models.TeamID][]models.TeamGameRow)
	for _, r := range rows {
		groups[r.TeamID] = append(groups[r.TeamID], r)
	}
	return groups
}

// ForTeam returns a single team's rows in chronological order together with,
// for each row, the rolling state as of just before that game. A team's
// first game gets zero prior games, undefined means, and the default rest.
func ForTeam(rows []models.TeamGameRow, cfg Config) ([]models.TeamGameRow, []models.TeamRollingState) {
	sorted := make([]models.TeamGameRow, len(rows))
	copy(sorted, rows)
	SortTeamGames(sorted)

	states := make([]models.TeamRollingState, len(sorted))
	for i := range sorted {
		st := windowState(sorted, i, cfg)
		if i == 0 {
			st.RestDays = cfg.RestDefault
		} else {
			st.RestDays = clampRest(daysBetween(sorted[i-1].Date, sorted[i].Date), cfg)
		}
		states[i] = st
	}
	return sorted, states
}

// AsOf builds the per-team feature snapshot strictly before the cutoff
// date: the rolling aggregate over each team's most recent window of games
// played before cutoff, with rest days measured from the last such game to
// the cutoff itself. Teams with no prior games are absent from the result.
func AsOf(history []models.TeamGameRow, cutoff time.Time, cfg Config) map[models.TeamID]models.TeamRollingState {
	cutoff = models.Normalize(cutoff)

	var prior []models.TeamGameRow
	for _, r := range history {
		if r.Date.Before(cutoff) {
			prior = append(prior, r)
		}
	}

	snapshots := make(map[models.TeamID]models.TeamRollingState)
	for teamID, rows := range GroupByTeam(prior) {
		SortTeamGames(rows)
		st := windowState(rows, len(rows), cfg)
		st.RestDays = clampRest(daysBetween(rows[len(rows)-1].Date, cutoff), cfg)
		snapshots[teamID] = st
	}
	return snapshots
}

// windowState aggregates the up-to-Window games strictly before position i
// of a chronologically sorted history. Rows with missing scores still count
// toward gp_prev but contribute nothing to the score statistics.
func windowState(rows []models.TeamGameRow, i int, cfg Config) models.TeamRollingState {
	lo := i - cfg.Window
	if lo < 0 {
		lo = 0
	}

	var pts, oppPts, margins []float64
	var teamID models.TeamID
	if len(rows) > 0 {
		teamID = rows[0].TeamID
	}
	for _, r := range rows[lo:i] {
		if r.Pts != nil {
			pts = append(pts, float64(*r.Pts))
		}
		if r.OppPts != nil {
			oppPts = append(oppPts, float64(*r.OppPts))
		}
		if m := r.Margin(); m != nil {
			margins = append(margins, float64(*m))
		}
	}

	return models.TeamRollingState{
		TeamID:     teamID,
		PtsMean:    mean(pts),
		PtsStd:     stddev(pts),
		OppPtsMean: mean(oppPts),
		OppPtsStd:  stddev(oppPts),
		MarginMean: mean(margins),
		GpPrev:     i,
	}
}

// mean returns NaN for an empty window: "no signal yet", resolved to 0.0
// only when the final feature vector is assembled.
func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	return stat.Mean(vals, nil)
}

// stddev is the sample standard deviation; undefined below two observations.
func stddev(vals []float64) float64 {
	if len(vals) < 2 {
		return math.NaN()
	}
	return stat.StdDev(vals, nil)
}

func daysBetween(from, to time.Time) float64 {
	return models.Normalize(to).Sub(models.Normalize(from)).Hours() / 24
}

func clampRest(days float64, cfg Config) float64 {
	if days < 0 {
		return 0
	}
	if days > cfg.RestMax {
		return cfg.RestMax
	}
	return days
}
