package semanticindex

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// normalize scales v to unit L2 norm using gonum/floats, matching
// 's requirement that similarity search operate on normalized
// vectors.
func normalize(v []float64) []float64 {
	norm := floats.Norm(v, 2)
	if norm == 0 {
		return v
	}
	out := make([]float64, len(v))
	copy(out, v)
	floats.Scale(1/norm, out)
	return out
}

// cosineSimilarity assumes both vectors are already unit-normalized, so it
// reduces to a dot product.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	dot := floats.Dot(a, b)
	if math.IsNaN(dot) {
		return 0
	}
	return dot
}
