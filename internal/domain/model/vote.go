package model

import "time"

// Vote is a single voter's signed, weighted position on a request.
// Votes are immutable once cast.
type Vote struct {
	Voter         string
	RequestNumber int
	Direction     int     // +1 for support, -1 for opposition.
	Weight        float64 // Non-negative; 0 means the vote is counted but carries no weight.
	CastAt        time.Time
}

// Magnitude returns the signed weighted value of the vote.
func (v Vote) Magnitude() float64 {
	switch {
	case v.Direction > 0:
		return v.Weight
	case v.Direction < 0:
		return -v.Weight
	default:
		return 0
	}
}

// Tally is the reduction of a vote set into a signed total and a dispersion measure.
type Tally struct {
	Count    int
	Total    float64
	Variance float64 // Population variance of vote magnitudes.
	For      float64 // Sum of positive magnitudes.
	Against  float64 // Sum of negative magnitudes, as a positive number.
}
