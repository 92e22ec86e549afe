package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yanqian/newsdigest/internal/domain/lexrank"
	"github.com/yanqian/newsdigest/internal/domain/ordering"
	"github.com/yanqian/newsdigest/internal/domain/realization"
	"github.com/yanqian/newsdigest/internal/domain/selection"
	"github.com/yanqian/newsdigest/internal/domain/similarity"
	"github.com/yanqian/newsdigest/internal/domain/summarizer"
)

// Config aggregates runtime configuration used across the service and the batch CLI.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Summary     SummaryConfig     `yaml:"summary"`
	Realization RealizationConfig `yaml:"realization"`
	Ordering    OrderingConfig    `yaml:"ordering"`
	Lexicon     LexiconConfig     `yaml:"lexicon"`
	PairModel   PairModelConfig   `yaml:"pairModel"`
	Storage     StorageConfig     `yaml:"storage"`
	Summaries   SummariesConfig   `yaml:"summaries"`
	Workers     int               `yaml:"workers"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	APIKeys        []string        `yaml:"apiKeys"`
	MaxBodyBytes   int64           `yaml:"maxBodyBytes"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures retries of summarization requests that hit a transient upstream failure.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// SummaryConfig selects and tunes the content selection strategy.
type SummaryConfig struct {
	Method string `yaml:"method"`
	Metric string `yaml:"metric"`
	// Threshold binarizes similarities; nil keeps the continuous graph.
	Threshold         *float64      `yaml:"threshold"`
	Damping           float64       `yaml:"damping"`
	Bias              string        `yaml:"bias"`
	Weights           WeightsConfig `yaml:"weights"`
	MinSentenceLength int           `yaml:"minSentenceLength"`
	PerArticle        int           `yaml:"perArticle"`
	GlobalCount       int           `yaml:"globalCount"`
	IncludeHeadlines  bool          `yaml:"includeHeadlines"`
	ExcludePatterns   []string      `yaml:"excludePatterns"`
	MaxParaphrasePool int           `yaml:"maxParaphrasePool"`
}

// WeightsConfig holds the per-signal selection weights.
type WeightsConfig struct {
	Unigram   float64 `yaml:"unigram"`
	Bigram    float64 `yaml:"bigram"`
	Trigram   float64 `yaml:"trigram"`
	Headline  float64 `yaml:"headline"`
	Cartesian float64 `yaml:"cartesian"`
	Query     float64 `yaml:"query"`
	Bias      float64 `yaml:"bias"`
}

// RealizationConfig tunes the word-budgeted filter chain.
type RealizationConfig struct {
	WordQuota           int      `yaml:"wordQuota"`
	MinRealizedLength   int      `yaml:"minRealizedLength"`
	RedundancyThreshold float64  `yaml:"redundancyThreshold"`
	LexicalOverlap      float64  `yaml:"lexicalOverlap"`
	RedundancyMetric    string   `yaml:"redundancyMetric"`
	RemoveQuotes        bool     `yaml:"removeQuotes"`
	RemoveQuestions     bool     `yaml:"removeQuestions"`
	RemovePronounStarts bool     `yaml:"removePronounStarts"`
	RemoveSubjectless   bool     `yaml:"removeSubjectless"`
	RemoveFragments     bool     `yaml:"removeFragments"`
	RemoveAttribution   bool     `yaml:"removeAttribution"`
	Trim                bool     `yaml:"trim"`
	ExcludePatterns     []string `yaml:"excludePatterns"`
	SubspanPatterns     []string `yaml:"subspanPatterns"`
}

// OrderingConfig weighs the sequencing signals.
type OrderingConfig struct {
	Topical           float64            `yaml:"topical"`
	Succession        float64            `yaml:"succession"`
	Chronological     float64            `yaml:"chronological"`
	Start             StartWeightsConfig `yaml:"start"`
	SuccessionEnabled bool               `yaml:"successionEnabled"`
}

// StartWeightsConfig weighs the opening sentence signals.
type StartWeightsConfig struct {
	Score       float64 `yaml:"score"`
	Position    float64 `yaml:"position"`
	DatePenalty float64 `yaml:"datePenalty"`
	Succession  float64 `yaml:"succession"`
}

// LexiconConfig locates IDF weights and word vectors.
type LexiconConfig struct {
	Path     string         `yaml:"path"`
	Corpus   string         `yaml:"corpus"`
	Postgres PostgresConfig `yaml:"postgres"`
	// HashVectorDim attaches deterministic token vectors when the input carries none; 0 disables.
	HashVectorDim int `yaml:"hashVectorDim"`
}

// PairModelConfig points at the sequence-pair classification service.
type PairModelConfig struct {
	BaseURL   string        `yaml:"baseUrl"`
	APIKey    string        `yaml:"apiKey"`
	Timeout   time.Duration `yaml:"timeout"`
	CacheSize int           `yaml:"cacheSize"`
	Valkey    ValkeyConfig  `yaml:"valkey"`
}

// ValkeyConfig contains connection information for the shared probability cache.
type ValkeyConfig struct {
	Enabled bool          `yaml:"enabled"`
	Addr    string        `yaml:"addr"`
	TTL     time.Duration `yaml:"ttl"`
}

// StorageConfig locates annotated input groups and summary output.
type StorageConfig struct {
	InputDir    string            `yaml:"inputDir"`
	OutputDir   string            `yaml:"outputDir"`
	ObjectStore ObjectStoreConfig `yaml:"objectStore"`
}

// ObjectStoreConfig configures an S3-compatible bucket.
type ObjectStoreConfig struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"accessKeyId"`
	SecretAccessKey string `yaml:"secretAccessKey"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	UseSSL          bool   `yaml:"useSsl"`
}

// Enabled reports whether the object store should replace the local directories.
func (c ObjectStoreConfig) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != "" && strings.TrimSpace(c.Bucket) != ""
}

// SummariesConfig configures persistence of produced summaries.
type SummariesConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		if _, err := os.Stat("configs/config.yaml"); err == nil {
			path = "configs/config.yaml"
		}
	}
	return LoadFile(path)
}

// LoadFile is Load with an explicit file; an empty path uses defaults and environment only.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// applyEnvOverrides reports every variable it cannot parse rather than keeping the prior value.
func applyEnvOverrides(cfg *Config) error {
	var errs []error
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_API_KEYS"); v != "" {
		cfg.HTTP.APIKeys = splitList(v)
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	envBool("HTTP_RATE_LIMIT_ENABLED", &cfg.HTTP.RateLimit.Enabled, &errs)
	envInt("HTTP_RATE_LIMIT_RPM", &cfg.HTTP.RateLimit.RequestsPerMinute, &errs)
	envBool("HTTP_RETRY_ENABLED", &cfg.HTTP.Retry.Enabled, &errs)
	if v := os.Getenv("SUMMARY_METHOD"); v != "" {
		cfg.Summary.Method = v
	}
	if v := os.Getenv("SUMMARY_METRIC"); v != "" {
		cfg.Summary.Metric = v
	}
	if v := os.Getenv("SUMMARY_THRESHOLD"); v != "" {
		if strings.EqualFold(v, "continuous") {
			cfg.Summary.Threshold = nil
		} else if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Summary.Threshold = &parsed
		} else {
			errs = append(errs, fmt.Errorf("SUMMARY_THRESHOLD: want a number or \"continuous\", got %q", v))
		}
	}
	if v := os.Getenv("SUMMARY_BIAS"); v != "" {
		cfg.Summary.Bias = v
	}
	envInt("REALIZATION_WORD_QUOTA", &cfg.Realization.WordQuota, &errs)
	if v := os.Getenv("REALIZATION_REDUNDANCY_METRIC"); v != "" {
		cfg.Realization.RedundancyMetric = v
	}
	envBool("ORDERING_SUCCESSION_ENABLED", &cfg.Ordering.SuccessionEnabled, &errs)
	if v := os.Getenv("LEXICON_PATH"); v != "" {
		cfg.Lexicon.Path = v
	}
	if v := os.Getenv("LEXICON_POSTGRES_DSN"); v != "" {
		cfg.Lexicon.Postgres.DSN = v
	}
	if v := os.Getenv("PAIR_MODEL_BASE_URL"); v != "" {
		cfg.PairModel.BaseURL = v
	}
	if v := os.Getenv("PAIR_MODEL_API_KEY"); v != "" {
		cfg.PairModel.APIKey = v
	}
	envBool("PAIR_MODEL_VALKEY_ENABLED", &cfg.PairModel.Valkey.Enabled, &errs)
	if v := os.Getenv("PAIR_MODEL_VALKEY_ADDR"); v != "" {
		cfg.PairModel.Valkey.Addr = v
	}
	if v := os.Getenv("STORAGE_INPUT_DIR"); v != "" {
		cfg.Storage.InputDir = v
	}
	if v := os.Getenv("STORAGE_OUTPUT_DIR"); v != "" {
		cfg.Storage.OutputDir = v
	}
	if v := os.Getenv("OBJECT_STORE_ENDPOINT"); v != "" {
		cfg.Storage.ObjectStore.Endpoint = v
	}
	if v := os.Getenv("OBJECT_STORE_ACCESS_KEY_ID"); v != "" {
		cfg.Storage.ObjectStore.AccessKeyID = v
	}
	if v := os.Getenv("OBJECT_STORE_SECRET_ACCESS_KEY"); v != "" {
		cfg.Storage.ObjectStore.SecretAccessKey = v
	}
	if v := os.Getenv("OBJECT_STORE_BUCKET"); v != "" {
		cfg.Storage.ObjectStore.Bucket = v
	}
	if v := os.Getenv("SUMMARIES_POSTGRES_DSN"); v != "" {
		cfg.Summaries.Postgres.DSN = v
	}
	envInt("WORKERS", &cfg.Workers, &errs)
	return errors.Join(errs...)
}

func envBool(name string, dst *bool, errs *[]error) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: want a boolean, got %q", name, v))
		return
	}
	*dst = parsed
}

func envInt(name string, dst *int, errs *[]error) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: want an integer, got %q", name, v))
		return
	}
	*dst = parsed
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Default returns the built-in settings before any file or environment override.
func Default() *Config {
	sel := selection.DefaultConfig()
	rz := realization.DefaultConfig()
	ord := ordering.DefaultConfig()
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			MaxBodyBytes: 8 << 20,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
			},
		},
		Summary: SummaryConfig{
			Method:  string(sel.Method),
			Metric:  string(sel.Metric),
			Damping: sel.Rank.Damping,
			Bias:    string(sel.Bias),
			Weights: WeightsConfig{
				Unigram:  sel.Weights.Unigram,
				Bigram:   sel.Weights.Bigram,
				Trigram:  sel.Weights.Trigram,
				Headline: sel.Weights.Headline,
			},
			MinSentenceLength: sel.MinLength,
			PerArticle:        sel.PerArticle,
			GlobalCount:       sel.GlobalCount,
			MaxParaphrasePool: sel.MaxParaphrasePool,
		},
		Realization: RealizationConfig{
			WordQuota:           rz.WordQuota,
			MinRealizedLength:   rz.MinRealizedLength,
			RedundancyThreshold: rz.RedundancyThreshold,
			LexicalOverlap:      rz.LexicalOverlap,
			RedundancyMetric:    string(rz.RedundancyMetric),
			RemoveQuotes:        true,
			RemoveQuestions:     true,
			RemovePronounStarts: true,
			RemoveSubjectless:   true,
			RemoveFragments:     true,
			RemoveAttribution:   true,
			Trim:                true,
		},
		Ordering: OrderingConfig{
			Topical:       ord.Weights.Topical,
			Succession:    ord.Weights.Succession,
			Chronological: ord.Weights.Chronological,
			Start: StartWeightsConfig{
				Score:       ord.Start.Score,
				Position:    ord.Start.Position,
				DatePenalty: ord.Start.DatePenalty,
				Succession:  ord.Start.Succession,
			},
		},
		Lexicon: LexiconConfig{
			Corpus:   "default",
			Postgres: PostgresConfig{MaxConns: 4},
		},
		PairModel: PairModelConfig{
			Timeout:   20 * time.Second,
			CacheSize: 4096,
			Valkey:    ValkeyConfig{TTL: 24 * time.Hour},
		},
		Storage: StorageConfig{
			InputDir:  "data/groups",
			OutputDir: "data/summaries",
		},
		Summaries: SummariesConfig{
			Postgres: PostgresConfig{MaxConns: 4},
		},
		Workers: 4,
	}
}

// Validate ensures the configuration is safe to use. Enumerated names are resolved here so
// typos fail at startup.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return errors.New("http.maxBodyBytes must be positive")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	if _, err := selection.ParseMethod(c.Summary.Method); err != nil {
		return fmt.Errorf("summary.method: %w", err)
	}
	if _, err := similarity.ParseMetric(c.Summary.Metric); err != nil {
		return fmt.Errorf("summary.metric: %w", err)
	}
	if _, err := lexrank.ParseBias(c.Summary.Bias); err != nil {
		return fmt.Errorf("summary.bias: %w", err)
	}
	if c.Summary.Damping < 0 || c.Summary.Damping > 1 {
		return errors.New("summary.damping must be within [0, 1]")
	}
	if c.Summary.Threshold != nil && (*c.Summary.Threshold < 0 || *c.Summary.Threshold > 1) {
		return errors.New("summary.threshold must be within [0, 1]")
	}
	if c.Summary.MinSentenceLength < 0 {
		return errors.New("summary.minSentenceLength cannot be negative")
	}
	if c.Summary.PerArticle <= 0 || c.Summary.GlobalCount <= 0 {
		return errors.New("summary.perArticle and summary.globalCount must be positive")
	}
	if _, err := realization.ParseRedundancyMetric(c.Realization.RedundancyMetric); err != nil {
		return fmt.Errorf("realization.redundancyMetric: %w", err)
	}
	if c.Realization.WordQuota <= 0 {
		return errors.New("realization.wordQuota must be positive")
	}
	if c.NeedsPairModel() && strings.TrimSpace(c.PairModel.BaseURL) == "" {
		return errors.New("pairModel.baseUrl is required by the configured metrics")
	}
	if c.PairModel.Valkey.Enabled && strings.TrimSpace(c.PairModel.Valkey.Addr) == "" {
		return errors.New("pairModel.valkey.addr cannot be empty when the valkey cache is enabled")
	}
	if c.PairModel.CacheSize < 0 {
		return errors.New("pairModel.cacheSize cannot be negative")
	}
	if c.Lexicon.HashVectorDim < 0 {
		return errors.New("lexicon.hashVectorDim cannot be negative")
	}
	if c.Workers <= 0 {
		return errors.New("workers must be positive")
	}
	return nil
}

// NeedsPairModel reports whether any stage calls the sequence-pair service.
func (c *Config) NeedsPairModel() bool {
	return c.Summary.Metric == string(similarity.MetricParaphrase) ||
		c.Realization.RedundancyMetric == string(realization.RedundancyParaphrase) ||
		c.Ordering.SuccessionEnabled
}

// Pipeline converts the file-level sections into the summarizer's stage configuration.
func (c *Config) Pipeline() summarizer.Config {
	rank := lexrank.DefaultConfig()
	rank.Damping = c.Summary.Damping
	rank.Threshold = c.Summary.Threshold

	w := c.Summary.Weights
	return summarizer.Config{
		Selection: selection.Config{
			Method: selection.Method(c.Summary.Method),
			Weights: selection.Weights{
				Unigram:   w.Unigram,
				Bigram:    w.Bigram,
				Trigram:   w.Trigram,
				Headline:  w.Headline,
				Cartesian: w.Cartesian,
				Query:     w.Query,
				Bias:      w.Bias,
			},
			MinLength:         c.Summary.MinSentenceLength,
			PerArticle:        c.Summary.PerArticle,
			GlobalCount:       c.Summary.GlobalCount,
			ExcludePatterns:   c.Summary.ExcludePatterns,
			IncludeHeadlines:  c.Summary.IncludeHeadlines,
			Bias:              lexrank.BiasKind(c.Summary.Bias),
			Metric:            similarity.Metric(c.Summary.Metric),
			Rank:              rank,
			MaxParaphrasePool: c.Summary.MaxParaphrasePool,
		},
		Realization: realization.Config{
			WordQuota:           c.Realization.WordQuota,
			MinRealizedLength:   c.Realization.MinRealizedLength,
			RedundancyThreshold: c.Realization.RedundancyThreshold,
			LexicalOverlap:      c.Realization.LexicalOverlap,
			RedundancyMetric:    realization.RedundancyMetric(c.Realization.RedundancyMetric),
			RemoveQuotes:        c.Realization.RemoveQuotes,
			RemoveQuestions:     c.Realization.RemoveQuestions,
			RemovePronounStarts: c.Realization.RemovePronounStarts,
			RemoveSubjectless:   c.Realization.RemoveSubjectless,
			RemoveFragments:     c.Realization.RemoveFragments,
			RemoveAttribution:   c.Realization.RemoveAttribution,
			Trim:                c.Realization.Trim,
			ExcludePatterns:     c.Realization.ExcludePatterns,
			SubspanPatterns:     c.Realization.SubspanPatterns,
		},
		Ordering: ordering.Config{
			Weights: ordering.Weights{
				Topical:       c.Ordering.Topical,
				Succession:    c.Ordering.Succession,
				Chronological: c.Ordering.Chronological,
			},
			Start: ordering.StartWeights{
				Score:       c.Ordering.Start.Score,
				Position:    c.Ordering.Start.Position,
				DatePenalty: c.Ordering.Start.DatePenalty,
				Succession:  c.Ordering.Start.Succession,
			},
			SuccessionEnabled: c.Ordering.SuccessionEnabled,
		},
		Workers: c.Workers,
	}
}
