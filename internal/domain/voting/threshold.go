package voting

import (
	"math"

	"github.com/ericfisherdev/mergevote/internal/domain/model"
)

// ThresholdPolicy derives the approval threshold for a repository.
type ThresholdPolicy struct {
	// Minimum is the lowest threshold ever returned.
	Minimum float64
	// WatcherRatio scales the repository's watcher count into a threshold.
	WatcherRatio float64
	// Fixed, when positive, replaces the computed threshold.
	Fixed float64
}

// Threshold returns max(Minimum, ceil(watchers*WatcherRatio)), or Fixed when set.
func (p ThresholdPolicy) Threshold(watchers int) float64 {
	if p.Fixed > 0 {
		return p.Fixed
	}
	return math.Max(p.Minimum, math.Ceil(float64(watchers)*p.WatcherRatio))
}

// Assess classifies a tally against the approval threshold. The threshold is
// also the bound on variance above which the vote counts as contested.
func Assess(t model.Tally, threshold float64) model.Assessment {
	return model.Assessment{
		Threshold: threshold,
		Approved:  t.Total >= threshold,
		Contested: t.Variance >= threshold,
	}
}
