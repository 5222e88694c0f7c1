package semanticindex

import (
	"context"
	"testing"

	catalogue "github.com/quickdeals/price-intel/services/catalogue_service/src"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalFallbackEmbedderDeterministic(t *testing.T) {
	e := NewLocalFallbackEmbedder(32)
	v1, err := e.Embed(context.Background(), "current prices table")
	require.NoError(t, err)
	v2, err := e.Embed(context.Background(), "current prices table")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
}

func TestLocalFallbackEmbedderDistinguishesText(t *testing.T) {
	e := NewLocalFallbackEmbedder(32)
	v1, _ := e.Embed(context.Background(), "product catalog table")
	v2, _ := e.Embed(context.Background(), "price history journal")
	assert.NotEqual(t, v1, v2)
}

func TestCosineSimilarityIdentical(t *testing.T) {
	v := normalize([]float64{1, 2, 3})
	assert.InDelta(t, 1.0, cosineSimilarity(v, v), 1e-9)
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	a := normalize([]float64{1, 0})
	b := normalize([]float64{0, 1})
	assert.InDelta(t, 0.0, cosineSimilarity(a, b), 1e-9)
}

func TestBucketColumnsClassification(t *testing.T) {
	cols := []catalogue.Column{
		{Name: "id", DataType: "integer"},
		{Name: "price", DataType: "numeric"},
		{Name: "created_at", DataType: "timestamp"},
		{Name: "is_active", DataType: "boolean"},
		{Name: "name", DataType: "text"},
	}
	buckets := bucketColumns(cols)
	assert.Contains(t, buckets, "id (identifier)")
	assert.Contains(t, buckets, "price (monetary)")
	assert.Contains(t, buckets, "created_at (temporal)")
	assert.Contains(t, buckets, "is_active (boolean)")
	assert.Contains(t, buckets, "name (textual)")
}

func TestRelevantTablesRanksBySimilarity(t *testing.T) {
	idx := New(nil, NewLocalFallbackEmbedder(32), nil, zap.NewNop(), t.TempDir(), nil)
	idx.tables = map[string]TableEntry{
		"current_prices": {Description: "current prices", Vector: normalize([]float64{1, 0, 0})},
		"products":       {Description: "products", Vector: normalize([]float64{0, 1, 0})},
	}
	idx.embedder = fixedEmbedder{vec: []float64{1, 0, 0}}

	matches, err := idx.RelevantTables(context.Background(), "price lookup", 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "current_prices", matches[0].Name)
}

type fixedEmbedder struct{ vec []float64 }

func (f fixedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return f.vec, nil
}

func TestStaleBeforeBuild(t *testing.T) {
	idx := New(nil, NewLocalFallbackEmbedder(8), nil, zap.NewNop(), t.TempDir(), nil)
	assert.True(t, idx.Stale())
}
