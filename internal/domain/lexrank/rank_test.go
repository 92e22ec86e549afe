package lexrank

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/yanqian/newsdigest/internal/domain/docgroup"
	"github.com/yanqian/newsdigest/internal/domain/docgroup/docgrouptest"
	"github.com/yanqian/newsdigest/internal/domain/features"
)

func TestRankSingleSentence(t *testing.T) {
	t.Parallel()

	got, err := Rank(mat.NewDense(1, 1, []float64{1}), DefaultConfig(), nil)
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{1.0}, got, 1e-12)
}

func TestRankUndampedContinuousPair(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Damping = 0
	got, err := Rank(mat.NewDense(2, 2, []float64{0.6, 0.6, 0.6, 0.6}), cfg, nil)
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{0.5, 0.5}, got, 1e-9)
}

func TestRankIsDistribution(t *testing.T) {
	t.Parallel()

	sim := mat.NewDense(4, 4, []float64{
		1, 0.8, 0.1, 0,
		0.8, 1, 0.3, 0.2,
		0.1, 0.3, 1, 0.05,
		0, 0.2, 0.05, 1,
	})
	threshold := 0.15
	tests := []struct {
		name string
		cfg  Config
		bias []float64
	}{
		{name: "continuous uniform", cfg: DefaultConfig()},
		{name: "discrete uniform", cfg: Config{Threshold: &threshold, Damping: 0.15, Tolerance: 1e-10, MaxIterations: 500}},
		{name: "continuous biased", cfg: DefaultConfig(), bias: []float64{0.7, 0.1, 0.1, 0.1}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Rank(sim, tt.cfg, tt.bias)
			require.NoError(t, err)
			require.Len(t, got, 4)
			var sum float64
			for _, p := range got {
				require.GreaterOrEqual(t, p, 0.0)
				sum += p
			}
			require.InDelta(t, 1.0, sum, 1e-6)
			require.Greater(t, got[1], got[3], "the best connected sentence outranks the periphery")
		})
	}
}

func TestTransitionRowsAreStochastic(t *testing.T) {
	t.Parallel()

	sim := mat.NewDense(3, 3, []float64{1, 0.5, 0, 0.5, 1, 0.2, 0, 0.2, 1})
	tr, err := Transition(sim, DefaultConfig(), nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.InDelta(t, 1.0, mat.Sum(tr.RowView(i)), 1e-12)
	}
	require.InDelta(t, 0.15/3, tr.At(0, 2), 1e-12)
}

func TestTransitionRejectsZeroRow(t *testing.T) {
	t.Parallel()

	sim := mat.NewDense(2, 2, []float64{1, 0, 0, 0})
	_, err := Transition(sim, DefaultConfig(), nil)
	require.ErrorIs(t, err, ErrZeroRow)

	threshold := 0.9
	cfg := DefaultConfig()
	cfg.Threshold = &threshold
	_, err = Transition(mat.NewDense(2, 2, []float64{0.5, 0.5, 0.5, 0.5}), cfg, nil)
	require.ErrorIs(t, err, ErrZeroRow)
}

func TestTransitionRejectsBiasLength(t *testing.T) {
	t.Parallel()

	_, err := Transition(mat.NewDense(2, 2, []float64{1, 1, 1, 1}), DefaultConfig(), []float64{1})
	require.ErrorIs(t, err, ErrBiasLength)
}

func TestStationaryReportsNonConvergence(t *testing.T) {
	t.Parallel()

	cfg := Config{Damping: 0, Tolerance: 1e-12, MaxIterations: 3}
	sim := mat.NewDense(2, 2, []float64{0, 1, 1, 0})
	tr, err := Transition(sim, cfg, nil)
	require.NoError(t, err)

	// A periodic chain started off its fixed point oscillates forever without damping.
	_, err = stationaryFrom(tr, cfg, []float64{1, 0})
	require.ErrorIs(t, err, ErrNotConverged)
}

func TestRankEmpty(t *testing.T) {
	t.Parallel()

	got, err := Rank(nil, DefaultConfig(), nil)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestParseBias(t *testing.T) {
	t.Parallel()

	kind, err := ParseBias("")
	require.NoError(t, err)
	require.Equal(t, BiasNone, kind)

	kind, err = ParseBias("overlap")
	require.NoError(t, err)
	require.Equal(t, BiasOverlap, kind)

	_, err = ParseBias("headline")
	require.ErrorIs(t, err, ErrUnknownBias)
}

func TestOverlapBiasFavorsQueryTerms(t *testing.T) {
	t.Parallel()

	query := []*docgroup.Sentence{docgrouptest.Sentence("Columbine massacre")}
	candidates := []*docgroup.Sentence{
		docgrouptest.Sentence("The Columbine massacre shocked Littleton."),
		docgrouptest.Sentence("Markets rallied."),
	}
	bias, err := Bias(BiasOverlap, query, candidates, features.UniformIDF{})
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{1, 0}, bias, 1e-12)

	none, err := Bias(BiasOverlap, query, []*docgroup.Sentence{docgrouptest.Sentence("Markets rallied.")}, nil)
	require.NoError(t, err)
	require.Equal(t, []float64{1}, none)
}

func TestVectorBiasIsNormalized(t *testing.T) {
	t.Parallel()

	query := []*docgroup.Sentence{docgrouptest.WithVectors(docgrouptest.Sentence("Hurricane Floyd"), 16)}
	candidates := []*docgroup.Sentence{
		docgrouptest.WithVectors(docgrouptest.Sentence("Hurricane Floyd strengthened."), 16),
		docgrouptest.WithVectors(docgrouptest.Sentence("Orange juice futures rose."), 16),
		docgrouptest.Sentence("No vectors at all."),
	}
	bias, err := Bias(BiasVector, query, candidates, nil)
	require.NoError(t, err)

	var sum float64
	for _, b := range bias {
		require.GreaterOrEqual(t, b, 0.0)
		sum += b
	}
	require.InDelta(t, 1.0, sum, 1e-12)
	require.Zero(t, bias[2])
}

func TestNormalizeUniformFallback(t *testing.T) {
	t.Parallel()

	require.Equal(t, []float64{0.25, 0.25, 0.25, 0.25}, Normalize([]float64{0, 0, 0, 0}))
	require.Equal(t, []float64{0.75, 0.25}, Normalize([]float64{3, 1}))
}
