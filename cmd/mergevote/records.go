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

const recordTimeLayout = "2006-01-02 15:04"

func (c *cli) newRecordsCmd() *cobra.Command {
	var (
		limit   int
		request int
	)

	cmd := &cobra.Command{
		Use:   "records",
		Short: "List archived vote records",
		Long: `List the vote records archived when pull requests were merged or closed,
newest first. With --request, list every record for one pull request, oldest first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			return c.records(cmd.Context(), limit, request)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of records to list")
	cmd.Flags().IntVar(&request, "request", 0, "Only list records for this pull request number")
	return cmd
}

func (c *cli) records(ctx context.Context, limit, request int) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	db, repo, err := openRecords(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	var records []model.VoteRecord
	if request > 0 {
		records, err = repo.ListByRequest(ctx, cfg.Repository, request)
	} else {
		records, err = repo.ListRecent(ctx, cfg.Repository, limit)
	}
	if err != nil {
		return fmt.Errorf("listing vote records: %w", err)
	}

	c.printRecords(cfg.Repository, records)
	return nil
}

func (c *cli) printRecords(repo string, records []model.VoteRecord) {
	if len(records) == 0 {
		c.ui.Info("no vote records for %s", output.Cyan(repo))
		return
	}

	table := c.ui.Table([]string{"PR", "Outcome", "Head", "Commit", "Score", "Votes", "Recorded"})
	for _, r := range records {
		_ = table.Append([]string{
			requestLabel(r.RequestNumber),
			output.OutcomeColor(r.Outcome),
			shortSHA(r.HeadSHA),
			shortSHA(r.CommitSHA),
			output.ScoreColor(r.Total, r.Threshold),
			strconv.Itoa(len(r.Votes)),
			r.RecordedAt.Local().Format(recordTimeLayout),
		})
	}
	_ = table.Render()
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
