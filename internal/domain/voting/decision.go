package voting

import "github.com/ericfisherdev/mergevote/internal/domain/model"

// Decide returns the state a request reaches given its assessment, vote total,
// and whether its voting period has elapsed. StateApprovedInWindow assumes the
// merge succeeds; the caller downgrades it to StateCannotMerge when it does not.
func Decide(a model.Assessment, total float64, inWindow bool) model.DecisionState {
	if a.Approved {
		if inWindow {
			return model.StateApprovedInWindow
		}
		return model.StateApprovedOutsideWindow
	}

	switch {
	case inWindow:
		return model.StateRejectedInWindow
	case total < 0:
		return model.StateRejectedOutsideWindowNegative
	default:
		return model.StateRejectedOutsideWindowPending
	}
}

// StatusFor returns the status kind reported for a state, and false when the
// state reports no status of its own.
func StatusFor(s model.DecisionState) (model.StatusKind, bool) {
	switch s {
	case model.StateApprovedInWindow, model.StateApprovedOutsideWindow, model.StateCannotMerge:
		return model.StatusAccepted, true
	case model.StateRejectedInWindow, model.StateRejectedOutsideWindowNegative:
		return model.StatusRejected, true
	case model.StateRejectedOutsideWindowPending:
		return model.StatusPending, true
	default:
		return "", false
	}
}
