package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yanqian/newsdigest/internal/infra/config"
	"github.com/yanqian/newsdigest/pkg/logger"
)

// cli carries state shared by every subcommand.
type cli struct {
	cfgFile string
	verbose bool
	cfg     *config.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "summarize",
		Short: "Batch multi-document news summarization",
		Long: `summarize produces word-budgeted extractive summaries for directories or buckets
of annotated document groups.

Example usage:
  summarize run --input data/groups --output data/summaries
  summarize run --method lexrank --quota 100 --workers 8
  summarize lexicon build --input data/corpus --output data/idf.json --corpus nyt
  summarize upload --input data/groups`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd)
		},
	}
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default is $CONFIG_PATH or configs/config.yaml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newRunCmd(c), newLexiconCmd(c), newUploadCmd(c))
	return root
}

func (c *cli) init(cmd *cobra.Command) error {
	level := os.Getenv("LOG_LEVEL")
	if c.verbose {
		level = "debug"
	}
	c.logger = logger.NewWithWriter(cmd.ErrOrStderr(), level)

	var err error
	if c.cfgFile != "" {
		c.cfg, err = config.LoadFile(c.cfgFile)
	} else {
		c.cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}
