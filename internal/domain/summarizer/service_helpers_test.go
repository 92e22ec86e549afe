package summarizer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/newsdigest/internal/domain/content"
	"github.com/yanqian/newsdigest/internal/domain/docgroup"
	"github.com/yanqian/newsdigest/internal/domain/lexrank"
	"github.com/yanqian/newsdigest/internal/domain/selection"
	apperrors "github.com/yanqian/newsdigest/pkg/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{name: "zero row", err: fmt.Errorf("rank: %w", lexrank.ErrZeroRow), code: apperrors.CodeRanking},
		{name: "not converged", err: lexrank.ErrNotConverged, code: apperrors.CodeRanking},
		{name: "pool too large", err: selection.ErrPoolTooLarge, code: apperrors.CodeInvalidInput},
		{name: "model failure", err: errors.New("connection refused"), code: apperrors.CodeModel},
		{name: "canceled", err: context.Canceled, code: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := classify("selection", tt.err)
			require.ErrorIs(t, err, tt.err)
			require.Equal(t, tt.code, apperrors.Code(err))
		})
	}
}

func TestCentroid(t *testing.T) {
	withVec := func(v ...float32) *content.Item {
		s := &docgroup.Sentence{Text: "x", Tokens: []docgroup.Token{{Text: "x", Vector: v}}}
		return content.New(s, nil, 1)
	}
	plain := content.New(&docgroup.Sentence{Text: "y", Tokens: []docgroup.Token{{Text: "y"}}}, nil, 1)

	require.Nil(t, centroid([]*content.Item{plain}))
	require.Equal(t, []float32{2, 1}, centroid([]*content.Item{withVec(1, 0), plain, withVec(3, 2)}))
}
