package main

import (
	"context"
	"log/slog"

	"github.com/ericfisherdev/mergevote/internal/adapter/driven/dryrun"
	githubadapter "github.com/ericfisherdev/mergevote/internal/adapter/driven/github"
	sqliteadapter "github.com/ericfisherdev/mergevote/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/mergevote/internal/application"
	"github.com/ericfisherdev/mergevote/internal/config"
	"github.com/ericfisherdev/mergevote/internal/domain/port/driven"
	"github.com/ericfisherdev/mergevote/internal/domain/voting"
)

// services bundles the wired adapters and application services for one process.
type services struct {
	db      *sqliteadapter.DB
	records driven.VoteRecordStore
	poll    *application.PollService
}

func (s *services) Close() {
	if err := s.db.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// openRecords opens the database and returns the vote record archive.
func openRecords(ctx context.Context, cfg *config.Config) (*sqliteadapter.DB, *sqliteadapter.VoteRecordRepo, error) {
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("database opened", "path", cfg.DBPath)
	return db, sqliteadapter.NewVoteRecordRepo(db), nil
}

// wireServices connects GitHub, the record archive, and the decision engine.
// In dry-run mode mutations are logged instead of sent, and nothing is archived.
func wireServices(ctx context.Context, cfg *config.Config, dryRun bool) (*services, error) {
	if err := cfg.RequireGitHub(); err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, repo, err := openRecords(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client := githubadapter.NewClient(cfg.GitHub.Token, cfg.GitHub.Username,
		githubadapter.WithMinVoterAge(cfg.Voter.MinAge),
		githubadapter.WithMergeMethod(cfg.Merge.Method),
	)
	slog.Info("github client created", "username", cfg.GitHub.Username)

	var (
		writer  driven.HostingWriter   = client
		records driven.VoteRecordStore = repo
	)
	if dryRun {
		writer = dryrun.NewWriter(slog.Default())
		records = dryrun.NewRecordStore(slog.Default(), repo)
	}

	windows := voting.WindowPolicy{
		Initial:         cfg.Window.Initial,
		AfterHours:      cfg.Window.AfterHours,
		AfterHoursStart: cfg.Window.AfterHoursStart,
		AfterHoursEnd:   cfg.Window.AfterHoursEnd,
		Location:        loc,
		Extended:        cfg.Window.Extended,
	}

	decisions := application.NewDecisionService(client, writer, records, windows)
	poll := application.NewPollService(client, decisions, application.CycleConfig{
		RepoFullName:  cfg.Repository,
		MinRequestAge: cfg.MinRequestAge,
		Interval:      cfg.PollInterval,
		ExitOnChange:  cfg.ExitOnChange,
		Thresholds: voting.ThresholdPolicy{
			Minimum:      cfg.Threshold.Minimum,
			WatcherRatio: cfg.Threshold.WatcherRatio,
			Fixed:        cfg.Threshold.Fixed,
		},
	})

	return &services{db: db, records: records, poll: poll}, nil
}
