// Package features assembles paired home/away rolling states into the fixed
// model matrix, and builds the labeled training set from the game log.
package features

import (
	"math"

	"github.com/reaganking/cbb-preds/internal/models"
)

// sideValues extracts a side's numeric inputs, NaN where the side has no
// rolling state at all.
func sideValues(st *models.TeamRollingState) (ptsMean, oppPtsMean, marginMean, ptsStd, oppPtsStd, restDays, gpPrev float64) {
	if st == nil {
		nan := math.NaN()
		return nan, nan, nan, nan, nan, nan, nan
	}
	return st.PtsMean, st.OppPtsMean, st.MarginMean, st.PtsStd, st.OppPtsStd, st.RestDays, float64(st.GpPrev)
}

// Build produces the feature vector for one game from the two sides' latest
// rolling states. Differences and sums are computed on the raw
// possibly-undefined values; only the final vector has NaN replaced by 0.0.
// Zeroing a side before differencing would bias the difference against a
// team with genuinely missing history. The same function serves training
// matrix construction and same-day inference.
func Build(home, away *models.TeamRollingState) models.FeatureVector {
	hPtsMean, hOppMean, hMgnMean, hPtsStd, hOppStd, hRest, hGp := sideValues(home)
	aPtsMean, aOppMean, aMgnMean, aPtsStd, aOppStd, aRest, aGp := sideValues(away)

	v := models.FeatureVector{
		DiffPtsMean:    hPtsMean - aPtsMean,
		DiffOppPtsMean: hOppMean - aOppMean,
		DiffMarginMean: hMgnMean - aMgnMean,
		DiffPtsStd:     hPtsStd - aPtsStd,
		DiffOppPtsStd:  hOppStd - aOppStd,
		DiffRestDays:   hRest - aRest,
		SumGpPrev:      hGp + aGp,
	}

	return fillUndefined(v)
}

func fillUndefined(v models.FeatureVector) models.FeatureVector {
	fix := func(x float64) float64 {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0.0
		}
		return x
	}
	v.DiffPtsMean = fix(v.DiffPtsMean)
	v.DiffOppPtsMean = fix(v.DiffOppPtsMean)
	v.DiffMarginMean = fix(v.DiffMarginMean)
	v.DiffPtsStd = fix(v.DiffPtsStd)
	v.DiffOppPtsStd = fix(v.DiffOppPtsStd)
	v.DiffRestDays = fix(v.DiffRestDays)
	v.SumGpPrev = fix(v.SumGpPrev)
	return v
}
