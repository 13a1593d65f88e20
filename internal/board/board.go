// Package board assembles and persists the daily prediction board, one row
// per game on the target date.
package board

import (
	"fmt"
	"sort"

	"github.com/reaganking/cbb-preds/internal/models"
	"github.com/reaganking/cbb-preds/internal/odds"
)

// Assemble joins game pairs with model outputs into prediction rows. The
// slices are parallel: margins[i] and probs[i] belong to pairs[i]. The home
// spread is the negated predicted margin, and the no-vig moneylines are nil
// whenever the win probability has no fair-line representation.
func Assemble(pairs []models.GamePair, margins, probs []float64) ([]models.PredictionRow, error) {
	if len(margins) != len(pairs) || len(probs) != len(pairs) {
		return nil, fmt.Errorf("model outputs misaligned: %d pairs, %d margins, %d probs",
			len(pairs), len(margins), len(probs))
	}

	rows := make([]models.PredictionRow, 0, len(pairs))
	for i, p := range pairs {
		homeLine, awayLine := odds.FairLines(probs[i])
		rows = append(rows, models.PredictionRow{
			Date:           p.Date,
			GameID:         p.GameID,
			HomeTeamCode:   p.HomeTeamCode,
			HomeTeamName:   p.HomeTeamName,
			AwayTeamCode:   p.AwayTeamCode,
			AwayTeamName:   p.AwayTeamName,
			PredHomeMargin: margins[i],
			HomeSpread:     -margins[i],
			ProbHomeWin:    probs[i],
			HomeMoneyline:  odds.Round(homeLine),
			AwayMoneyline:  odds.Round(awayLine),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].GameID < rows[j].GameID
	})
	return rows, nil
}
