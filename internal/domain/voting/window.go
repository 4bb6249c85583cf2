package voting

import (
	"time"

	"github.com/ericfisherdev/mergevote/internal/domain/model"
)

// WindowPolicy computes the voting window applied to requests in a cycle.
// Configuration is validated at startup, so none of its methods fail.
type WindowPolicy struct {
	Initial         time.Duration
	AfterHours      time.Duration
	AfterHoursStart int // Hour of day, inclusive.
	AfterHoursEnd   int // Hour of day, exclusive. May be lower than AfterHoursStart.
	Location        *time.Location
	Extended        time.Duration
}

// InitialWindow returns the window for a cleanly approved request at now.
// During the after-hours band in the policy's location the after-hours length applies.
func (p WindowPolicy) InitialWindow(now time.Time) model.VotingWindow {
	length := p.Initial
	if p.AfterHours > 0 && p.isAfterHours(now) {
		length = p.AfterHours
	}
	return model.VotingWindow{Kind: model.WindowInitial, Length: length}
}

// ExtendedWindow returns the longer window used for contested or unapproved requests.
func (p WindowPolicy) ExtendedWindow() model.VotingWindow {
	return model.VotingWindow{Kind: model.WindowExtended, Length: p.Extended}
}

// Select picks the window for an assessment. Only a clean, uncontested
// approval gets the initial window.
func (p WindowPolicy) Select(a model.Assessment, now time.Time) model.VotingWindow {
	if a.Contested || !a.Approved {
		return p.ExtendedWindow()
	}
	return p.InitialWindow(now)
}

func (p WindowPolicy) isAfterHours(now time.Time) bool {
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	hour := now.In(loc).Hour()

	start, end := p.AfterHoursStart, p.AfterHoursEnd
	switch {
	case start == end:
		return false
	case start < end:
		return hour >= start && hour < end
	default:
		// Band wraps past midnight, e.g. 22 -> 10.
		return hour >= start || hour < end
	}
}
