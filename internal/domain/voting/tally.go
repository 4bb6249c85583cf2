// Package voting implements the pure vote decisioning rules: vote aggregation,
// threshold assessment, voting window selection, and the decision state machine.
package voting

import (
	"sort"

	"github.com/ericfisherdev/mergevote/internal/domain/model"
)

// Accumulator folds vote magnitudes into a running total and population
// variance using Welford's online algorithm.
type Accumulator struct {
	count int
	total float64
	mean  float64
	m2    float64
	pos   float64
	neg   float64
}

// Add folds one signed vote magnitude into the accumulator.
func (a *Accumulator) Add(magnitude float64) {
	a.count++
	a.total += magnitude

	delta := magnitude - a.mean
	a.mean += delta / float64(a.count)
	a.m2 += delta * (magnitude - a.mean)

	if magnitude > 0 {
		a.pos += magnitude
	} else if magnitude < 0 {
		a.neg -= magnitude
	}
}

// Tally returns the current aggregate. An empty accumulator yields the zero Tally.
func (a *Accumulator) Tally() model.Tally {
	if a.count == 0 {
		return model.Tally{}
	}

	variance := a.m2 / float64(a.count)
	if variance < 0 {
		variance = 0
	}

	return model.Tally{
		Count:    a.count,
		Total:    a.total,
		Variance: variance,
		For:      a.pos,
		Against:  a.neg,
	}
}

// Aggregate reduces a vote set to its tally. Magnitudes are folded in sorted
// order so the floating point result does not depend on the order votes were
// cast or fetched.
func Aggregate(votes []model.Vote) model.Tally {
	magnitudes := make([]float64, 0, len(votes))
	for _, v := range votes {
		magnitudes = append(magnitudes, v.Magnitude())
	}
	sort.Float64s(magnitudes)

	var acc Accumulator
	for _, m := range magnitudes {
		acc.Add(m)
	}
	return acc.Tally()
}
