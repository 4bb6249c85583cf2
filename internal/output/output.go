// Package output renders colored status lines and tables for the CLI.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/ericfisherdev/mergevote/internal/domain/model"
)

// UI writes human-facing CLI output. Status lines go to Out, warnings and
// errors to ErrOut.
type UI struct {
	DryRun bool
	Out    io.Writer
	ErrOut io.Writer
}

// New creates a UI with default stdout/stderr writers.
func New() *UI {
	return &UI{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}
}

var (
	infoPrefix    = color.New(color.FgHiBlue).Sprint("i")
	successPrefix = color.New(color.FgHiGreen).Sprint("✓")
	warningPrefix = color.New(color.FgHiYellow).Sprint("⚠")
	errorPrefix   = color.New(color.FgHiRed).Sprint("✗")
	cyan          = color.New(color.FgHiCyan).SprintFunc()
	green         = color.New(color.FgHiGreen).SprintFunc()
	yellow        = color.New(color.FgHiYellow).SprintFunc()
	red           = color.New(color.FgHiRed).SprintFunc()
)

// Cyan returns a cyan-colored string.
func Cyan(s string) string { return cyan(s) }

// StateColor colors a decision state by how it ended: green once merged,
// red once closed, yellow when something needs a human, plain otherwise.
func StateColor(s model.DecisionState) string {
	switch s {
	case model.StateApprovedInWindow:
		return green(string(s))
	case model.StateRejectedInWindow:
		return red(string(s))
	case model.StateCannotMerge, model.StateFailed:
		return yellow(string(s))
	default:
		return string(s)
	}
}

// OutcomeColor colors an archived record outcome.
func OutcomeColor(o model.RecordOutcome) string {
	switch o {
	case model.RecordMerged:
		return green(string(o))
	case model.RecordClosed:
		return red(string(o))
	default:
		return string(o)
	}
}

// ScoreColor colors a vote total relative to the threshold it was measured against.
func ScoreColor(total, threshold float64) string {
	s := fmt.Sprintf("%g/%g", total, threshold)
	switch {
	case total >= threshold:
		return green(s)
	case total < 0:
		return red(s)
	default:
		return yellow(s)
	}
}

func (u *UI) Info(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", infoPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Success(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", successPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Warning(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", warningPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Error(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", errorPrefix, fmt.Sprintf(format, a...))
}

// DryRunMsg prints a warning tagged [DRY-RUN] when the UI is in dry-run mode.
func (u *UI) DryRunMsg(format string, a ...any) {
	if u.DryRun {
		u.Warning("[DRY-RUN] "+format, a...)
	}
}

// Table creates a new tablewriter configured with consistent styling.
func (u *UI) Table(headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(u.Out,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}
