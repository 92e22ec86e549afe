package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yanqian/newsdigest/internal/bootstrap"
	"github.com/yanqian/newsdigest/internal/domain/docgroup"
	"github.com/yanqian/newsdigest/internal/infra/lexicon"
)

type runOptions struct {
	input   string
	output  string
	method  string
	quota   int
	workers int
}

func newRunCmd(c *cli) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Summarize every document group in the input store",
		Long: `Summarize every annotated document group found in the input directory (or the
configured object store) and write one summary per topic.

Examples:
  summarize run --input data/groups --output data/summaries
  summarize run --method glob --quota 250`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSummarize(cmd, c, opts)
		},
	}
	cmd.Flags().StringVar(&opts.input, "input", "", "directory of annotated *.json groups (overrides storage.inputDir)")
	cmd.Flags().StringVar(&opts.output, "output", "", "summary output directory (overrides storage.outputDir)")
	cmd.Flags().StringVar(&opts.method, "method", "", "selection method: ngram, glob, baseline or lexrank")
	cmd.Flags().IntVar(&opts.quota, "quota", 0, "summary word quota")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "topics summarized concurrently")
	return cmd
}

func runSummarize(cmd *cobra.Command, c *cli, opts *runOptions) error {
	cfg := c.cfg
	if opts.input != "" {
		cfg.Storage.InputDir = opts.input
	}
	if opts.output != "" {
		cfg.Storage.OutputDir = opts.output
	}
	if opts.method != "" {
		cfg.Summary.Method = opts.method
	}
	if opts.quota > 0 {
		cfg.Realization.WordQuota = opts.quota
	}
	if opts.workers > 0 {
		cfg.Workers = opts.workers
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	ctx := cmd.Context()
	store, err := bootstrap.NewDocStore(cfg, c.logger)
	if err != nil {
		return err
	}
	lex, err := bootstrap.OpenLexicon(ctx, cfg, c.logger)
	if err != nil {
		return err
	}
	defer lex.Close()
	pair, err := bootstrap.NewPairModels(cfg, c.logger)
	if err != nil {
		return err
	}
	svc, err := bootstrap.NewSummarizer(cfg, lex, pair, nil, c.logger)
	if err != nil {
		return err
	}

	names, err := store.List(ctx)
	if err != nil {
		return err
	}
	groups := make([]*docgroup.Group, 0, len(names))
	for _, name := range names {
		group, err := store.Load(ctx, name)
		if err != nil {
			return err
		}
		groups = append(groups, group)
	}
	if lex.Vectors != nil {
		filled, err := lexicon.FillVectors(ctx, lex.Vectors, groups...)
		if err != nil {
			return err
		}
		c.logger.Debug("vectors attached", "tokens", filled)
	}

	summaries, err := svc.SummarizeAll(ctx, groups)
	if err != nil {
		return err
	}
	for _, summary := range summaries {
		location, err := store.SaveSummary(ctx, summary)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), location)
	}
	c.logger.Info("batch finished", "topics", len(summaries), "method", cfg.Summary.Method)
	return nil
}
