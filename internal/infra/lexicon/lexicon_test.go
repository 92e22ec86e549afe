package lexicon

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/newsdigest/internal/domain/docgroup"
	"github.com/yanqian/newsdigest/internal/domain/docgroup/docgrouptest"
)

func TestComputeIDF(t *testing.T) {
	table, err := ComputeIDF(map[string]int{"floyd": 4, "bahamas": 1, "ghost": 0}, 4)
	require.NoError(t, err)

	tests := []struct {
		term string
		want float64
	}{
		{term: "floyd", want: 0},
		{term: "bahamas", want: math.Log(4)},
		{term: "ghost", want: math.Log(5)},
		{term: "unseen", want: math.Log(5)},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.term, func(t *testing.T) {
			t.Parallel()
			require.InDelta(t, tt.want, table.Weight(tt.term), 1e-12)
		})
	}

	_, ok := table.Lookup("ghost")
	require.False(t, ok)
	require.Equal(t, 2, table.Len())

	_, err = ComputeIDF(nil, 0)
	require.ErrorIs(t, err, ErrNoDocuments)
}

func TestDocumentFrequencies(t *testing.T) {
	group := &docgroup.Group{TopicID: "D1", Articles: []*docgroup.Article{
		docgrouptest.Article("A1", "1999-09-13",
			docgrouptest.Sentence("Floyd hit Florida."),
			docgrouptest.Sentence("Floyd weakened later."),
		),
		docgrouptest.Article("A2", "1999-09-14", docgrouptest.Sentence("Florida recovered slowly.")),
	}}

	df, documents := DocumentFrequencies(group, nil)
	require.Equal(t, 2, documents)
	require.Equal(t, 1, df["floyd"])
	require.Equal(t, 2, df["florida"])
	require.NotContains(t, df, ".")
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "idf.json")
	table := NewTable(map[string]float64{"storm": 1.5}, 10)
	require.NoError(t, WriteFile(path, "nyt", table))

	loaded, corpus, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "nyt", corpus)
	require.Equal(t, 10, loaded.Documents())
	require.InDelta(t, 1.5, loaded.Weight("storm"), 1e-12)
	require.InDelta(t, math.Log(11), loaded.Weight("calm"), 1e-12)

	_, _, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestHashVectorsAreStable(t *testing.T) {
	source := NewHashVectors(8)
	first, err := source.Vectors(context.Background(), []string{"storm", "rain"})
	require.NoError(t, err)
	second, err := source.Vectors(context.Background(), []string{"storm"})
	require.NoError(t, err)

	require.Len(t, first["storm"], 8)
	require.Equal(t, first["storm"], second["storm"])
	require.NotEqual(t, first["storm"], first["rain"])
}

func TestFillVectors(t *testing.T) {
	preset := docgrouptest.WithVectors(docgrouptest.Sentence("Levees held."), 4)
	presetVector := preset.Tokens[0].Vector
	group := &docgroup.Group{
		TopicID: "D1",
		Title:   docgrouptest.Sentence("Storm"),
		Articles: []*docgroup.Article{
			docgrouptest.Article("A1", "1999-09-13", docgrouptest.Sentence("Storm surge flooded streets."), preset),
		},
	}

	filled, err := FillVectors(context.Background(), NewHashVectors(4), group)
	require.NoError(t, err)
	require.Equal(t, 5, filled)
	require.Equal(t, presetVector, preset.Tokens[0].Vector)
	require.True(t, group.Title.Tokens[0].HasVector())
	for _, s := range group.Sentences() {
		require.NotNil(t, s.MeanVector())
		require.False(t, s.Tokens[len(s.Tokens)-1].HasVector())
	}

	_, err = FillVectors(context.Background(), failingSource{}, &docgroup.Group{Articles: []*docgroup.Article{
		docgrouptest.Article("A2", "1999-09-13", docgrouptest.Sentence("Calm seas.")),
	}})
	require.Error(t, err)
}

type failingSource struct{}

func (failingSource) Vectors(context.Context, []string) (map[string][]float32, error) {
	return nil, errors.New("database offline")
}

func TestReadTextVectors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string][]float32
		wantErr bool
	}{
		{
			name:  "glove layout",
			input: "Floyd 0.5 -1\nstorm 1 2\n",
			want:  map[string][]float32{"floyd": {0.5, -1}, "storm": {1, 2}},
		},
		{
			name:  "word2vec header",
			input: "2 3\nfloyd 1 2 3\n\nstorm 4 5 6\n",
			want:  map[string][]float32{"floyd": {1, 2, 3}, "storm": {4, 5, 6}},
		},
		{name: "ragged", input: "floyd 1 2\nstorm 1\n", wantErr: true},
		{name: "not a number", input: "floyd 1 x\n", wantErr: true},
		{name: "term only", input: "floyd\n", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ReadTextVectors(strings.NewReader(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
