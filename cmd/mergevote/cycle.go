package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/mergevote/internal/domain/model"
	"github.com/ericfisherdev/mergevote/internal/output"
)

func (c *cli) newCycleCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Run one decision cycle and print the outcome of every pull request",
		Long: `Run a single decision cycle against the repository. With --dry-run, statuses,
comments, labels, merges, and closes are logged instead of sent, and no vote
records are archived.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.cycle(cmd.Context(), dryRun)
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Log mutations instead of sending them")
	return cmd
}

func (c *cli) cycle(ctx context.Context, dryRun bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	svc, err := wireServices(ctx, cfg, dryRun)
	if err != nil {
		return err
	}
	defer svc.Close()

	c.ui.DryRun = dryRun
	c.ui.DryRunMsg("no changes will be made to %s", cfg.Repository)
	c.ui.Info("running a cycle for %s", output.Cyan(cfg.Repository))

	result, err := svc.poll.RunCycle(ctx)
	if err != nil {
		return fmt.Errorf("cycle failed: %w", err)
	}

	c.printCycle(result)
	slog.Debug("cycle printed", "outcomes", len(result.Outcomes))
	return nil
}

func (c *cli) printCycle(result model.CycleResult) {
	if len(result.Outcomes) == 0 {
		c.ui.Info("no eligible pull requests (threshold %g)", result.Threshold)
		return
	}

	table := c.ui.Table([]string{"PR", "Author", "Votes", "Total", "Variance", "Window", "State"})
	for _, o := range result.Outcomes {
		window := string(o.Window.Kind)
		if o.Window.Length > 0 {
			window += " " + o.Window.Length.String()
		}
		_ = table.Append([]string{
			requestLabel(o.Number),
			o.Author,
			strconv.Itoa(o.Tally.Count),
			output.ScoreColor(o.Tally.Total, result.Threshold),
			strconv.FormatFloat(o.Tally.Variance, 'f', 2, 64),
			window,
			output.StateColor(o.State),
		})
	}
	_ = table.Render()

	for _, o := range result.Outcomes {
		if o.Err != nil {
			c.ui.Warning("%s: %v", requestLabel(o.Number), o.Err)
		}
	}

	summary := fmt.Sprintf("%d merged, %d closed, %d failed (threshold %g)",
		result.Merged, result.Closed, result.Failed, result.Threshold)
	if result.Failed > 0 {
		c.ui.Warning("%s", summary)
		return
	}
	c.ui.Success("%s", summary)
}
