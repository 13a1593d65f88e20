package models

import "math"

// TeamRollingState is a team's rolling-feature snapshot as of just before a
// game (or a cutoff date). It is a derived view over TeamGameRow history and
// is never persisted as authoritative. Undefined statistics are NaN; they are
// resolved to 0.0 only when the final feature vector is assembled.
type TeamRollingState struct {
	TeamID TeamID

	PtsMean    float64
	PtsStd     float64
	OppPtsMean float64
	OppPtsStd  float64
	MarginMean float64

	RestDays float64
	GpPrev   int
}

// FeatureNames lists the model matrix columns in order.
var FeatureNames = []string{
	"diff_pts_mean_5",
	"diff_opp_pts_mean_5",
	"diff_margin_mean_5",
	"diff_pts_std_5",
	"diff_opp_pts_std_5",
	"diff_rest_days",
	"sum_gp_prev",
}

// FeatureVector is the fixed numeric schema shared by training and
// inference. All fields are defined; missing inputs have already been
// resolved to 0.0 by the builder.
type FeatureVector struct {
	DiffPtsMean    float64
	DiffOppPtsMean float64
	DiffMarginMean float64
	DiffPtsStd     float64
	DiffOppPtsStd  float64
	DiffRestDays   float64
	SumGpPrev      float64
}

// Values returns the vector in FeatureNames order.
func (v FeatureVector) Values() []float64 {
	return []float64{
		v.DiffPtsMean,
		v.DiffOppPtsMean,
		v.DiffMarginMean,
		v.DiffPtsStd,
		v.DiffOppPtsStd,
		v.DiffRestDays,
		v.SumGpPrev,
	}
}

// IsDefined reports whether every component is a real number.
func (v FeatureVector) IsDefined() bool {
	for _, x := range v.Values() {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
