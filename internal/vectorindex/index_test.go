package vectorindex

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	t.Run("Valid vectors", func(t *testing.T) {
		idx, err := Build([][]float32{{1, 0}, {0, 1}, {1, 1}})

		require.NoError(t, err)
		assert.Equal(t, 3, idx.Len())
		assert.Equal(t, 2, idx.Dimension())
	})

	t.Run("No vectors", func(t *testing.T) {
		idx, err := Build(nil)

		require.NoError(t, err)
		assert.Equal(t, 0, idx.Len())
		assert.Equal(t, 0, idx.Dimension())
	})

	t.Run("Dimension mismatch", func(t *testing.T) {
		_, err := Build([][]float32{{1, 0}, {0, 1, 2}})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "dimension")
	})

	t.Run("Empty vector", func(t *testing.T) {
		_, err := Build([][]float32{{}})

		assert.Error(t, err)
	})
}

func TestSearch(t *testing.T) {
	t.Run("Orders by descending similarity", func(t *testing.T) {
		idx, err := Build([][]float32{
			{0, 1},   // orthogonal to query
			{1, 0},   // identical direction
			{1, 1},   // 45 degrees
			{-1, 0},  // opposite
		})
		require.NoError(t, err)

		results, err := idx.Search([]float32{2, 0}, 4)

		require.NoError(t, err)
		require.Len(t, results, 4)
		assert.Equal(t, 1, results[0].Index)
		assert.Equal(t, 2, results[1].Index)
		assert.Equal(t, 0, results[2].Index)
		assert.Equal(t, 3, results[3].Index)
		for i := 1; i < len(results); i++ {
			assert.LessOrEqual(t, results[i].Score, results[i-1].Score)
		}
	})

	t.Run("Identical vector scores one", func(t *testing.T) {
		idx, err := Build([][]float32{{3, 4, 0}})
		require.NoError(t, err)

		results, err := idx.Search([]float32{3, 4, 0}, 1)

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.InDelta(t, 1.0, float64(results[0].Score), 1e-6)
	})

	t.Run("K larger than vector count is clamped", func(t *testing.T) {
		idx, err := Build([][]float32{{1, 0}, {0, 1}})
		require.NoError(t, err)

		results, err := idx.Search([]float32{1, 0}, 10)

		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("K smaller than vector count", func(t *testing.T) {
		idx, err := Build([][]float32{{1, 0}, {0, 1}, {1, 1}})
		require.NoError(t, err)

		results, err := idx.Search([]float32{1, 0}, 2)

		require.NoError(t, err)
		assert.Len(t, results, 2)
		assert.Equal(t, 0, results[0].Index)
	})

	t.Run("Ties keep insertion order", func(t *testing.T) {
		idx, err := Build([][]float32{{0, 1}, {1, 0}, {2, 0}})
		require.NoError(t, err)

		// Vectors 1 and 2 normalize to the same unit vector.
		results, err := idx.Search([]float32{1, 0}, 3)

		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, 1, results[0].Index)
		assert.Equal(t, 2, results[1].Index)
		assert.Equal(t, 0, results[2].Index)
	})

	t.Run("Empty index", func(t *testing.T) {
		idx, err := Build(nil)
		require.NoError(t, err)

		_, err = idx.Search([]float32{1, 0}, 1)

		assert.ErrorIs(t, err, ErrIndexEmpty)
	})

	t.Run("Query dimension mismatch", func(t *testing.T) {
		idx, err := Build([][]float32{{1, 0}})
		require.NoError(t, err)

		_, err = idx.Search([]float32{1, 0, 0}, 1)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "dimension")
	})
}

func TestNormalize(t *testing.T) {
	t.Run("Produces unit length", func(t *testing.T) {
		v := normalize([]float32{3, 4})

		var sum float64
		for _, f := range v {
			sum += float64(f) * float64(f)
		}
		assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)
	})

	t.Run("Zero vector unchanged", func(t *testing.T) {
		v := normalize([]float32{0, 0, 0})

		assert.Equal(t, []float32{0, 0, 0}, v)
	})

	t.Run("Does not mutate input", func(t *testing.T) {
		in := []float32{3, 4}
		_ = normalize(in)

		assert.Equal(t, []float32{3, 4}, in)
	})
}
