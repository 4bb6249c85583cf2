package web

import (
	"strconv"
	"time"

	vm "github.com/ericfisherdev/mergevote/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/mergevote/internal/domain/model"
	"github.com/ericfisherdev/mergevote/internal/domain/voting"
)

const (
	displayTime = "2006-01-02 15:04:05 MST"
	shortSHALen = 7
)

func toCycleViewModel(c model.CycleResult) vm.CycleViewModel {
	outcomes := make([]vm.OutcomeViewModel, 0, len(c.Outcomes))
	for _, o := range c.Outcomes {
		outcomes = append(outcomes, toOutcomeViewModel(o))
	}

	return vm.CycleViewModel{
		StartedAt:  c.StartedAt.Format(displayTime),
		FinishedAt: c.FinishedAt.Format(displayTime),
		Duration:   c.FinishedAt.Sub(c.StartedAt).Round(time.Millisecond).String(),
		Threshold:  formatFloat(c.Threshold),
		Changed:    c.Changed,
		Merged:     c.Merged,
		Closed:     c.Closed,
		Failed:     c.Failed,
		Outcomes:   outcomes,
	}
}

func toOutcomeViewModel(o model.RequestOutcome) vm.OutcomeViewModel {
	out := vm.OutcomeViewModel{
		Number:     o.Number,
		Author:     o.Author,
		State:      string(o.State),
		StateClass: stateClass(o.State),
		Votes:      o.Tally.Count,
		Total:      formatFloat(o.Tally.Total),
		Variance:   formatFloat(o.Tally.Variance),
		Approved:   o.Assessment.Approved,
		Contested:  o.Assessment.Contested,
		Window:     windowLabel(o.Window),
		InWindow:   o.InWindow,
		CommitSHA:  shortSHA(o.CommitSHA),
	}
	if o.Err != nil {
		out.Error = o.Err.Error()
	}
	return out
}

func toRecordViewModels(records []model.VoteRecord) []vm.RecordViewModel {
	out := make([]vm.RecordViewModel, 0, len(records))
	for _, r := range records {
		out = append(out, vm.RecordViewModel{
			Number:     r.RequestNumber,
			Outcome:    string(r.Outcome),
			HeadSHA:    shortSHA(r.HeadSHA),
			CommitSHA:  shortSHA(r.CommitSHA),
			Total:      formatFloat(r.Total),
			Threshold:  formatFloat(r.Threshold),
			Votes:      len(r.Votes),
			RecordedAt: r.RecordedAt.Format(displayTime),
			Notice:     renderNotice(recordNotice(r)),
		})
	}
	return out
}

// recordNotice rebuilds the decision comment that was left when the record was archived.
func recordNotice(r model.VoteRecord) model.Notice {
	kind := model.NoticeAccept
	if r.Outcome == model.RecordClosed {
		kind = model.NoticeReject
	}

	tally := voting.Aggregate(r.Votes)

	return model.Notice{
		Kind:          kind,
		RequestNumber: r.RequestNumber,
		CommitSHA:     r.CommitSHA,
		Votes:         r.Votes,
		Tally:         tally,
		Threshold:     r.Threshold,
	}
}

func stateClass(s model.DecisionState) string {
	switch s {
	case model.StateApprovedInWindow:
		return "ok"
	case model.StateRejectedInWindow:
		return "bad"
	case model.StateCannotMerge, model.StateFailed:
		return "warn"
	default:
		return "wait"
	}
}

func windowLabel(w model.VotingWindow) string {
	if w.Kind == "" {
		return ""
	}
	return string(w.Kind) + " " + w.Length.String()
}

func shortSHA(sha string) string {
	if len(sha) > shortSHALen {
		return sha[:shortSHALen]
	}
	return sha
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
