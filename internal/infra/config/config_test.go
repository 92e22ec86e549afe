package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/newsdigest/internal/domain/realization"
	"github.com/yanqian/newsdigest/internal/domain/selection"
	"github.com/yanqian/newsdigest/internal/domain/similarity"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.False(t, cfg.NeedsPairModel())

	pipeline := cfg.Pipeline()
	require.Equal(t, selection.MethodPerArticle, pipeline.Selection.Method)
	require.Equal(t, 100, pipeline.Realization.WordQuota)
	require.True(t, pipeline.Realization.Trim)
	require.Equal(t, 4, pipeline.Workers)
}

func TestLoadFileMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
summary:
  method: lexrank
  metric: vector
  threshold: 0.1
  bias: overlap
realization:
  wordQuota: 250
  removeQuotes: false
ordering:
  chronological: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("REALIZATION_WORD_QUOTA", "120")
	t.Setenv("WORKERS", "8")
	t.Setenv("HTTP_API_KEYS", "k1, ,k2")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	pipeline := cfg.Pipeline()
	require.Equal(t, selection.MethodGraphRank, pipeline.Selection.Method)
	require.Equal(t, similarity.MetricVector, pipeline.Selection.Metric)
	require.NotNil(t, pipeline.Selection.Rank.Threshold)
	require.InDelta(t, 0.1, *pipeline.Selection.Rank.Threshold, 1e-12)
	require.Equal(t, 120, pipeline.Realization.WordQuota)
	require.False(t, pipeline.Realization.RemoveQuotes)
	require.True(t, pipeline.Realization.RemoveQuestions)
	require.InDelta(t, 0.5, pipeline.Ordering.Weights.Chronological, 1e-12)
	require.Equal(t, 8, pipeline.Workers)
	require.Equal(t, []string{"k1", "k2"}, cfg.HTTP.APIKeys)
}

func TestThresholdEnvOverride(t *testing.T) {
	t.Setenv("SUMMARY_THRESHOLD", "continuous")
	cfg := Default()
	v := 0.2
	cfg.Summary.Threshold = &v
	require.NoError(t, applyEnvOverrides(cfg))
	require.Nil(t, cfg.Summary.Threshold)
}

func TestLoadFileRejectsMalformedEnv(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "misspelled threshold", key: "SUMMARY_THRESHOLD", value: "contnuous"},
		{name: "word quota", key: "REALIZATION_WORD_QUOTA", value: "lots"},
		{name: "workers", key: "WORKERS", value: "4.5"},
		{name: "rate limit rpm", key: "HTTP_RATE_LIMIT_RPM", value: "ten"},
		{name: "boolean", key: "ORDERING_SUCCESSION_ENABLED", value: "yes please"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadFile("")
			require.Error(t, err)
			require.ErrorContains(t, err, tt.key)
		})
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	threshold := 1.5
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "empty address", mutate: func(c *Config) { c.HTTP.Address = "" }},
		{name: "unknown method", mutate: func(c *Config) { c.Summary.Method = "lda" }},
		{name: "unknown metric", mutate: func(c *Config) { c.Summary.Metric = "jaccard" }},
		{name: "unknown bias", mutate: func(c *Config) { c.Summary.Bias = "query" }},
		{name: "unknown redundancy metric", mutate: func(c *Config) { c.Realization.RedundancyMetric = "rouge" }},
		{name: "threshold out of range", mutate: func(c *Config) { c.Summary.Threshold = &threshold }},
		{name: "zero quota", mutate: func(c *Config) { c.Realization.WordQuota = 0 }},
		{name: "paraphrase without model", mutate: func(c *Config) { c.Summary.Metric = string(similarity.MetricParaphrase) }},
		{name: "succession without model", mutate: func(c *Config) { c.Ordering.SuccessionEnabled = true }},
		{name: "valkey without addr", mutate: func(c *Config) { c.PairModel.Valkey.Enabled = true }},
		{name: "zero workers", mutate: func(c *Config) { c.Workers = 0 }},
		{name: "rate limit burst", mutate: func(c *Config) { c.HTTP.RateLimit.Burst = 0 }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestPairModelRequirement(t *testing.T) {
	cfg := Default()
	cfg.Realization.RedundancyMetric = string(realization.RedundancyParaphrase)
	require.True(t, cfg.NeedsPairModel())
	require.Error(t, cfg.Validate())

	cfg.PairModel.BaseURL = "http://localhost:9000"
	require.NoError(t, cfg.Validate())
}

func TestObjectStoreEnabled(t *testing.T) {
	require.False(t, ObjectStoreConfig{}.Enabled())
	require.False(t, ObjectStoreConfig{Endpoint: "minio:9000"}.Enabled())
	require.True(t, ObjectStoreConfig{Endpoint: "minio:9000", Bucket: "digests"}.Enabled())
}
