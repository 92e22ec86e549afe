package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yanqian/newsdigest/internal/bootstrap"
	"github.com/yanqian/newsdigest/internal/domain/docgroup"
	"github.com/yanqian/newsdigest/internal/infra/docstore"
	"github.com/yanqian/newsdigest/internal/infra/lexicon"
)

type lexiconOptions struct {
	input  string
	output string
	corpus string
	push   bool
}

func newLexiconCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lexicon",
		Short: "Manage IDF reference corpora",
	}

	opts := &lexiconOptions{}
	build := &cobra.Command{
		Use:   "build",
		Short: "Compute IDF weights from a directory of annotated groups",
		Long: `Compute idf(w) = log(N / df(w)) over every article of the annotated groups in
--input, where N is the number of articles. The table is written as JSON and, with
--push, merged into the Postgres lexicon configured under lexicon.postgres.

Examples:
  summarize lexicon build --input data/corpus --output data/idf.json --corpus nyt
  summarize lexicon build --input data/corpus --corpus nyt --push`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLexiconBuild(cmd, c, opts)
		},
	}
	build.Flags().StringVar(&opts.input, "input", "", "directory of annotated *.json groups")
	build.Flags().StringVar(&opts.output, "output", "", "JSON file to write")
	build.Flags().StringVar(&opts.corpus, "corpus", "", "corpus name (default lexicon.corpus)")
	build.Flags().BoolVar(&opts.push, "push", false, "upsert the table into Postgres")
	_ = build.MarkFlagRequired("input")

	vectors := &cobra.Command{
		Use:   "vectors FILE",
		Short: "Attach word vectors from a GloVe/word2vec text file to a Postgres corpus",
		Long: `Read "term v1 v2 ..." records and store them on the matching terms of the corpus
in lexicon.postgres. Terms absent from the corpus are ignored. The server then fills
token vectors from the corpus for groups posted without embeddings.

Example:
  summarize lexicon vectors glove.6B.50d.txt --corpus nyt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLexiconVectors(cmd, c, args[0], opts.corpus)
		},
	}
	vectors.Flags().StringVar(&opts.corpus, "corpus", "", "corpus name (default lexicon.corpus)")

	cmd.AddCommand(build, vectors)
	return cmd
}

func runLexiconBuild(cmd *cobra.Command, c *cli, opts *lexiconOptions) error {
	if opts.output == "" && !opts.push {
		return errors.New("nothing to do: set --output, --push or both")
	}
	corpus := corpusName(c, opts.corpus)

	ctx := cmd.Context()
	store := docstore.NewFileStore(opts.input, "", c.logger)
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

	df, documents := lexicon.DocumentFrequencies(groups...)
	table, err := lexicon.ComputeIDF(df, documents)
	if err != nil {
		return err
	}
	c.logger.Info("idf computed", "corpus", corpus, "documents", documents, "terms", table.Len())

	if opts.output != "" {
		if err := lexicon.WriteFile(opts.output, corpus, table); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), opts.output)
	}
	if opts.push {
		pool, err := bootstrap.OpenPostgres(ctx, c.cfg.Lexicon.Postgres)
		if err != nil {
			return fmt.Errorf("lexicon: %w", err)
		}
		defer pool.Close()
		pg := lexicon.NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		if err := pg.Upsert(ctx, corpus, table); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pushed %d terms to corpus %s\n", table.Len(), corpus)
	}
	return nil
}

func runLexiconVectors(cmd *cobra.Command, c *cli, path, corpus string) error {
	corpus = corpusName(c, corpus)
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	vectors, err := lexicon.ReadTextVectors(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	ctx := cmd.Context()
	pool, err := bootstrap.OpenPostgres(ctx, c.cfg.Lexicon.Postgres)
	if err != nil {
		return fmt.Errorf("lexicon: %w", err)
	}
	defer pool.Close()
	pg := lexicon.NewPostgresStore(pool)
	if err := pg.Migrate(ctx); err != nil {
		return err
	}
	if err := pg.UpsertVectors(ctx, corpus, vectors); err != nil {
		return err
	}
	c.logger.Info("vectors stored", "corpus", corpus, "terms", len(vectors))
	fmt.Fprintf(cmd.OutOrStdout(), "stored %d vectors for corpus %s\n", len(vectors), corpus)
	return nil
}

func corpusName(c *cli, flag string) string {
	if flag != "" {
		return flag
	}
	return c.cfg.Lexicon.Corpus
}
