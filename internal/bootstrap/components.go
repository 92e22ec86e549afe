package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/newsdigest/internal/domain/features"
	"github.com/yanqian/newsdigest/internal/domain/summarizer"
	"github.com/yanqian/newsdigest/internal/infra/config"
	"github.com/yanqian/newsdigest/internal/infra/docstore"
	"github.com/yanqian/newsdigest/internal/infra/lexicon"
	"github.com/yanqian/newsdigest/internal/infra/pairmodel"
	"github.com/yanqian/newsdigest/internal/infra/summaryrepo"
)

// Lexicon is the resolved IDF table and optional vector source.
type Lexicon struct {
	IDF     features.IDF
	Vectors lexicon.VectorSource
	Store   *lexicon.PostgresStore
	pool    *pgxpool.Pool
}

// Close releases the Postgres pool when the lexicon came from the database.
func (l *Lexicon) Close() {
	if l != nil && l.pool != nil {
		l.pool.Close()
	}
}

// PairModels holds the cached sequence-pair scorers; both are nil when no stage needs them.
type PairModels struct {
	Paraphrase pairmodel.Scorer
	Succession pairmodel.Scorer
}

// OpenPostgres connects a pool and verifies it with a ping.
func OpenPostgres(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(strings.TrimSpace(cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("initialize postgres pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}

// OpenLexicon resolves IDF weights from the JSON file, then Postgres, then uniform weights.
// A configured source that cannot be read is an error.
func OpenLexicon(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Lexicon, error) {
	lex := &Lexicon{IDF: features.UniformIDF{}}
	switch {
	case strings.TrimSpace(cfg.Lexicon.Path) != "":
		table, corpus, err := lexicon.LoadFile(cfg.Lexicon.Path)
		if err != nil {
			return nil, err
		}
		logger.Info("idf table loaded", "path", cfg.Lexicon.Path, "corpus", corpus, "terms", table.Len())
		lex.IDF = table
	case strings.TrimSpace(cfg.Lexicon.Postgres.DSN) != "":
		pool, err := OpenPostgres(ctx, cfg.Lexicon.Postgres)
		if err != nil {
			return nil, fmt.Errorf("lexicon: %w", err)
		}
		lex.pool = pool
		lex.Store = lexicon.NewPostgresStore(pool)
		table, err := lex.Store.Load(ctx, cfg.Lexicon.Corpus)
		if err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("idf table loaded", "corpus", cfg.Lexicon.Corpus, "terms", table.Len())
		lex.IDF = table
	default:
		logger.Warn("no idf source configured, using uniform weights")
	}

	switch {
	case lex.Store != nil:
		lex.Vectors = lexicon.CorpusVectors{Store: lex.Store, Corpus: cfg.Lexicon.Corpus}
	case cfg.Lexicon.HashVectorDim > 0:
		lex.Vectors = lexicon.NewHashVectors(cfg.Lexicon.HashVectorDim)
	}
	return lex, nil
}

// NewPairModels builds the HTTP client and its caches when any stage calls the pair model.
func NewPairModels(cfg *config.Config, logger *slog.Logger) (PairModels, error) {
	if !cfg.NeedsPairModel() {
		return PairModels{}, nil
	}
	client, err := pairmodel.NewClient(cfg.PairModel.BaseURL, cfg.PairModel.APIKey, cfg.PairModel.Timeout)
	if err != nil {
		return PairModels{}, err
	}
	shared := newSharedCache(cfg, logger)

	paraphrase, err := pairmodel.NewCached(client.Scorer(pairmodel.TaskParaphrase), pairmodel.TaskParaphrase, cfg.PairModel.CacheSize, shared, logger)
	if err != nil {
		return PairModels{}, err
	}
	succession, err := pairmodel.NewCached(client.Scorer(pairmodel.TaskSuccession), pairmodel.TaskSuccession, cfg.PairModel.CacheSize, shared, logger)
	if err != nil {
		return PairModels{}, err
	}
	return PairModels{Paraphrase: paraphrase, Succession: succession}, nil
}

func newSharedCache(cfg *config.Config, logger *slog.Logger) pairmodel.SharedCache {
	if !cfg.PairModel.Valkey.Enabled {
		return nil
	}
	fallback := pairmodel.NewMemoryCache(cfg.PairModel.Valkey.TTL)
	opt, err := buildValkeyOptions(cfg.PairModel.Valkey.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory cache", "error", err)
		return fallback
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory cache", "error", err)
		client.Close()
		return fallback
	}
	logger.Info("pair model valkey cache enabled", "addr", cfg.PairModel.Valkey.Addr)
	return pairmodel.NewValkeyCache(client, "pairmodel", cfg.PairModel.Valkey.TTL)
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	if strings.TrimSpace(addr) == "" {
		return valkey.ClientOption{}, errors.New("valkey address is empty")
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

// NewSummaryRepository prefers Postgres and falls back to memory when it is not configured or unreachable.
// The returned cleanup closes whatever connection was opened.
func NewSummaryRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (summarizer.Repository, func()) {
	fallback := summaryrepo.NewMemoryRepository()
	noop := func() {}
	if strings.TrimSpace(cfg.Summaries.Postgres.DSN) == "" {
		logger.Info("summaries postgres dsn not set, using memory repository")
		return fallback, noop
	}
	pool, err := OpenPostgres(ctx, cfg.Summaries.Postgres)
	if err != nil {
		logger.Error("postgres unavailable, using memory repository", "error", err)
		return fallback, noop
	}
	repo := summaryrepo.NewPostgresRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		logger.Error("summaries migration failed, using memory repository", "error", err)
		pool.Close()
		return fallback, noop
	}
	logger.Info("summaries postgres repository enabled")
	return repo, pool.Close
}

// NewDocStore selects the object store when configured and the local directories otherwise.
func NewDocStore(cfg *config.Config, logger *slog.Logger) (docstore.Store, error) {
	obj := cfg.Storage.ObjectStore
	if obj.Enabled() {
		return docstore.NewObjectStore(docstore.ObjectStoreOptions{
			Endpoint:        obj.Endpoint,
			AccessKeyID:     obj.AccessKeyID,
			SecretAccessKey: obj.SecretAccessKey,
			Bucket:          obj.Bucket,
			Region:          obj.Region,
			UseSSL:          obj.UseSSL,
		}, logger)
	}
	return docstore.NewFileStore(cfg.Storage.InputDir, cfg.Storage.OutputDir, logger), nil
}

// NewSummarizer assembles the pipeline service from resolved collaborators.
func NewSummarizer(cfg *config.Config, lex *Lexicon, pair PairModels, repo summarizer.Repository, logger *slog.Logger) (summarizer.Service, error) {
	deps := summarizer.Dependencies{IDF: lex.IDF, Repo: repo}
	if pair.Paraphrase != nil {
		deps.Pair = pair.Paraphrase
	}
	if pair.Succession != nil {
		deps.Succession = pair.Succession
	}
	return summarizer.NewService(cfg.Pipeline(), deps, logger)
}
