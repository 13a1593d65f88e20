// Package pairing merges the two team-rows of a game into a single
// home/away game pair.
package pairing

import (
	"sort"
	"time"

	"github.com/reaganking/cbb-preds/internal/logger"
	"github.com/reaganking/cbb-preds/internal/models"
)

// ForDate assembles one GamePair per game played on the target date.
//
// The home-flagged row is the base: its opp_* fields already name the away
// side, so no second join is needed on the canonical path. Away identity
// still missing after that is filled from the away-flagged row of the same
// game, which tolerates inconsistent source records. Games without a home
// row are excluded; nothing is fabricated.
func ForDate(rows []models.TeamGameRow, target time.Time) []models.GamePair {
	target = models.Normalize(target)

	homes := make([]models.TeamGameRow, 0)
	aways := make(map[int64]models.TeamGameRow)
	for _, r := range rows {
		if !models.Normalize(r.Date).Equal(target) {
			continue
		}
		if r.IsHome {
			homes = append(homes, r)
		} else if _, ok := aways[r.GameID]; !ok {
			aways[r.GameID] = r
		}
	}

	pairs := make([]models.GamePair, 0, len(homes))
	seen := make(map[int64]bool, len(homes))
	for _, h := range homes {
		if seen[h.GameID] {
			continue
		}
		seen[h.GameID] = true

		p := models.GamePair{
			Date:         models.Normalize(h.Date),
			GameID:       h.GameID,
			HomeTeamID:   h.TeamID,
			HomeTeamCode: h.TeamCode,
			HomeTeamName: h.TeamName,
			AwayTeamID:   h.OppID,
			AwayTeamCode: h.OppCode,
			AwayTeamName: h.OppName,
		}

		if a, ok := aways[h.GameID]; ok {
			if p.AwayTeamID == "" {
				p.AwayTeamID = a.TeamID
			}
			if p.AwayTeamCode == "" {
				p.AwayTeamCode = a.TeamCode
			}
			if p.AwayTeamName == "" {
				p.AwayTeamName = a.TeamName
			}
		}

		if p.AwayTeamID == "" {
			logger.Debug("Game %d on %s has no resolvable away identity", h.GameID, target.Format(models.DateLayout))
		}
		pairs = append(pairs, p)
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].GameID < pairs[j].GameID })
	return pairs
}
