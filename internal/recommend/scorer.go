// Package recommend ranks crops against a soil/climate sample.
//
// Each crop carries an inclusive [min, max] range on six dimensions. A crop's
// score is the number of dimensions whose range contains the sample value, so
// scores fall in [0, 6]. Crops that match nothing are dropped, the rest are
// ordered by score (ties keep dataset order) and cut to MaxResults.
package recommend

import "slices"

// MaxResults is the maximum number of crops returned by Score and Rank.
const MaxResults = 5

// Bounds is an inclusive range on a single measurement dimension.
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within b, bounds included.
// NaN never matches.
func (b Bounds) Contains(v float64) bool {
	return b.Min <= v && v <= b.Max
}

// CropRange holds a crop's ideal bounds on every dimension.
type CropRange struct {
	CropName    string `json:"crop_name"`
	Nitrogen    Bounds `json:"nitrogen"`
	Phosphorus  Bounds `json:"phosphorus"`
	Potassium   Bounds `json:"potassium"`
	PH          Bounds `json:"ph"`
	Humidity    Bounds `json:"humidity"`
	Temperature Bounds `json:"temperature"`
}

// SoilSample is one set of measurements submitted for a recommendation.
type SoilSample struct {
	Nitrogen    float64 `json:"nitrogen"`
	Phosphorus  float64 `json:"phosphorus"`
	Potassium   float64 `json:"potassium"`
	PH          float64 `json:"ph"`
	Humidity    float64 `json:"humidity"`
	Temperature float64 `json:"temperature"`
}

// ScoredCrop pairs a crop with the number of dimensions it matched.
type ScoredCrop struct {
	CropName string `json:"crop_name"`
	Score    int    `json:"score"`
}

// MatchCount returns how many of the six dimensions of r contain the sample.
func MatchCount(sample SoilSample, r CropRange) int {
	checks := [...]bool{
		r.Nitrogen.Contains(sample.Nitrogen),
		r.Phosphorus.Contains(sample.Phosphorus),
		r.Potassium.Contains(sample.Potassium),
		r.PH.Contains(sample.PH),
		r.Humidity.Contains(sample.Humidity),
		r.Temperature.Contains(sample.Temperature),
	}

	score := 0
	for _, ok := range checks {
		if ok {
			score++
		}
	}
	return score
}

// Rank scores every range against the sample and returns at most MaxResults
// crops with a non-zero score, highest first. Equal scores keep the order in
// which they appear in ranges. The result is never nil.
func Rank(sample SoilSample, ranges []CropRange) []ScoredCrop {
	scored := make([]ScoredCrop, 0, len(ranges))
	for _, r := range ranges {
		if score := MatchCount(sample, r); score > 0 {
			scored = append(scored, ScoredCrop{CropName: r.CropName, Score: score})
		}
	}

	slices.SortStableFunc(scored, func(a, b ScoredCrop) int {
		return b.Score - a.Score
	})

	if len(scored) > MaxResults {
		scored = scored[:MaxResults]
	}
	return scored
}

// Score returns the names of the best matching crops, most relevant first.
// An empty slice means no crop matched any dimension.
func Score(sample SoilSample, ranges []CropRange) []string {
	ranked := Rank(sample, ranges)
	names := make([]string, len(ranked))
	for i, c := range ranked {
		names[i] = c.CropName
	}
	return names
}
