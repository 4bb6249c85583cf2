// Package notice renders the human-facing text the bot leaves on requests:
// decision comments, commit status descriptions, and merge commit messages.
package notice

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/mergevote/internal/domain/model"
)

// statusDescriptionLimit is GitHub's maximum commit status description length.
const statusDescriptionLimit = 140

// Comment renders the markdown body of a decision comment.
func Comment(n model.Notice) string {
	var b strings.Builder

	switch n.Kind {
	case model.NoticeAccept:
		b.WriteString(":ok_woman: **PR passed with a vote of ")
		b.WriteString(formatScore(n.Tally.Total))
		b.WriteString(" (threshold ")
		b.WriteString(formatScore(n.Threshold))
		b.WriteString(")**")
		if n.CommitSHA != "" {
			b.WriteString(" and was merged as ")
			b.WriteString(shortSHA(n.CommitSHA))
		}
		b.WriteString(".\n\n")
	case model.NoticeReject:
		b.WriteString(":no_good: **PR rejected with a vote of ")
		b.WriteString(formatScore(n.Tally.Total))
		b.WriteString(" (threshold ")
		b.WriteString(formatScore(n.Threshold))
		b.WriteString(")** and will be closed.\n\n")
	}

	b.WriteString(VoteTable(n.Votes))
	return b.String()
}

// VoteTable renders the vote set as a markdown table, strongest supporters first.
func VoteTable(votes []model.Vote) string {
	if len(votes) == 0 {
		return "_No votes were cast._\n"
	}

	sorted := make([]model.Vote, len(votes))
	copy(sorted, votes)
	sort.SliceStable(sorted, func(i, j int) bool {
		mi, mj := sorted[i].Magnitude(), sorted[j].Magnitude()
		if mi != mj {
			return mi > mj
		}
		return sorted[i].Voter < sorted[j].Voter
	})

	var b strings.Builder
	b.WriteString("| Voter | Vote | Weight |\n")
	b.WriteString("|---|---|---|\n")
	for _, v := range sorted {
		fmt.Fprintf(&b, "| @%s | %s | %s |\n", v.Voter, directionEmoji(v.Direction), formatScore(v.Weight))
	}
	return b.String()
}

// StatusDescription renders the one-line commit status description for a report.
func StatusDescription(r model.StatusReport) string {
	var verb string
	switch r.Kind {
	case model.StatusAccepted:
		verb = "passing"
	case model.StatusRejected:
		verb = "failing"
	default:
		verb = "pending"
	}

	desc := fmt.Sprintf("%s with %s/%s votes", verb, formatScore(r.Tally.Total), formatScore(r.Threshold))

	if left := r.ClosesAt.Sub(r.Now); left > 0 {
		desc += fmt.Sprintf(", %s window closes in %s", r.Window.Kind, humanDuration(left))
	} else {
		desc += fmt.Sprintf(", %s window closed", r.Window.Kind)
	}

	if len(desc) > statusDescriptionLimit {
		desc = desc[:statusDescriptionLimit]
	}
	return desc
}

// MergeMessage renders the merge commit message for an accepted request.
func MergeMessage(n model.Notice) string {
	voters := make([]string, 0, len(n.Votes))
	for _, v := range n.Votes {
		if v.Magnitude() > 0 {
			voters = append(voters, "@"+v.Voter)
		}
	}
	sort.Strings(voters)

	msg := fmt.Sprintf("Merged #%d with a vote of %s (threshold %s)",
		n.RequestNumber, formatScore(n.Tally.Total), formatScore(n.Threshold))
	if len(voters) > 0 {
		msg += "\n\nSupporters: " + strings.Join(voters, ", ")
	}
	return msg
}

func directionEmoji(direction int) string {
	switch {
	case direction > 0:
		return ":+1:"
	case direction < 0:
		return ":-1:"
	default:
		return ":neutral_face:"
	}
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func shortSHA(sha string) string {
	const shortSHALength = 7
	if len(sha) > shortSHALength {
		return sha[:shortSHALength]
	}
	return sha
}

func humanDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	if d < time.Minute {
		return "under a minute"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh%dm", h, m)
	}
}
