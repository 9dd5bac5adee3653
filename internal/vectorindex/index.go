package vectorindex

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrIndexEmpty is returned when a search is attempted against an index that
// holds no vectors.
var ErrIndexEmpty = errors.New("vector index is empty")

// Result is one search hit: the position of the vector at insertion time and
// its cosine similarity to the query.
type Result struct {
	Index int
	Score float32
}

// Index is an exact-search similarity index over a fixed set of vectors.
// Vectors are L2-normalized on insertion so cosine similarity reduces to an
// inner product. The mapping between a vector and its position is set at
// build time and never reordered, so position i always refers to the i-th
// vector passed to Build. An Index is read-only after construction and is
// meant to live for a single request.
type Index struct {
	dim     int
	vectors [][]float32
}

// Build constructs an index from the given vectors. All vectors must share
// the same non-zero dimension.
func Build(vectors [][]float32) (*Index, error) {
	idx := &Index{vectors: make([][]float32, 0, len(vectors))}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("vector %d is empty", i)
		}
		if i == 0 {
			idx.dim = len(v)
		} else if len(v) != idx.dim {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), idx.dim)
		}
		idx.vectors = append(idx.vectors, normalize(v))
	}
	return idx, nil
}

// Len returns the number of indexed vectors.
func (x *Index) Len() int { return len(x.vectors) }

// Dimension returns the dimensionality of the indexed vectors, or 0 for an
// empty index.
func (x *Index) Dimension() int { return x.dim }

// Search returns the k indexed vectors most similar to query, ordered by
// descending score. k is clamped to the number of indexed vectors. Ties keep
// insertion order, so results are stable for a fixed index and query.
func (x *Index) Search(query []float32, k int) ([]Result, error) {
	if x.Len() == 0 {
		return nil, ErrIndexEmpty
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("query has dimension %d, want %d", len(query), x.dim)
	}

	q := normalize(query)
	results := make([]Result, len(x.vectors))
	for i, v := range x.vectors {
		results[i] = Result{Index: i, Score: dot(v, q)}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k < 0 {
		k = 0
	}
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// normalize returns a unit-length copy of v. A zero vector is returned as an
// unchanged copy so it scores 0 against everything.
func normalize(v []float32) []float32 {
	var sum float32
	for _, f := range v {
		sum += f * f
	}
	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}
	norm := float32(math.Sqrt(float64(sum)))
	for i, f := range v {
		out[i] = f / norm
	}
	return out
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
