package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/mergevote/internal/config"
	"github.com/ericfisherdev/mergevote/internal/output"
)

// cli holds state shared by every subcommand.
type cli struct {
	ui         *output.UI
	configFile string
}

func newRootCmd(ui *output.UI) *cobra.Command {
	c := &cli{ui: ui}

	root := &cobra.Command{
		Use:   "mergevote",
		Short: "Merge or close pull requests by vote",
		Long: `mergevote watches one GitHub repository and tallies the thumbs-up and
thumbs-down reactions on each open pull request. Once a pull request's voting
window has elapsed it is merged if the weighted total reaches the threshold,
or closed if the total is negative.`,
		Version:           version + " (" + commit + ")",
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	root.SetOut(ui.Out)
	root.SetErr(ui.ErrOut)

	root.PersistentFlags().StringVar(&c.configFile, "config", "", "YAML config file (optional)")

	root.AddCommand(
		c.newRunCmd(),
		c.newCycleCmd(),
		c.newRecordsCmd(),
		c.newConfigCmd(),
	)
	return root
}

// loadConfig loads and validates configuration, then installs the configured
// slog handler as the default logger.
func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configFile)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(newLogger(cfg.Log, os.Stderr))
	return cfg, nil
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.Level))); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func requestLabel(number int) string {
	return fmt.Sprintf("#%d", number)
}
