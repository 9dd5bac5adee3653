package rag

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wordsText(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestChunk(t *testing.T) {
	t.Run("Text shorter than one chunk", func(t *testing.T) {
		chunks := Chunk(wordsText(100), 300, 50)

		require.Len(t, chunks, 1)
		assert.Len(t, strings.Fields(chunks[0]), 100)
	})

	t.Run("Sliding windows with overlap", func(t *testing.T) {
		chunks := Chunk(wordsText(620), 300, 50)

		require.Len(t, chunks, 3)
		first := strings.Fields(chunks[0])
		second := strings.Fields(chunks[1])
		third := strings.Fields(chunks[2])
		assert.Len(t, first, 300)
		assert.Equal(t, "w0", first[0])
		assert.Equal(t, "w299", first[299])
		assert.Len(t, second, 300)
		assert.Equal(t, "w250", second[0])
		assert.Equal(t, "w549", second[299])
		assert.Len(t, third, 120)
		assert.Equal(t, "w500", third[0])
		assert.Equal(t, "w619", third[119])
	})

	t.Run("Chunk count follows the window formula", func(t *testing.T) {
		cases := []struct {
			words, size, overlap, want int
		}{
			{1000, 100, 0, 10},
			{1001, 100, 0, 11},
			{500, 300, 50, 2},
			{300, 300, 50, 1},
			{301, 300, 50, 2},
			{620, 300, 50, 3},
		}
		for _, tc := range cases {
			chunks := Chunk(wordsText(tc.words), tc.size, tc.overlap)
			assert.Len(t, chunks, tc.want, "words=%d size=%d overlap=%d", tc.words, tc.size, tc.overlap)
		}
	})

	t.Run("Exact fit emits no trailing overlap chunk", func(t *testing.T) {
		chunks := Chunk(wordsText(300), 300, 50)

		require.Len(t, chunks, 1)
		assert.Equal(t, "w299", strings.Fields(chunks[0])[299])

		// 550 words: the second window lands exactly on the final word, so
		// nothing after it.
		chunks = Chunk(wordsText(550), 300, 50)

		require.Len(t, chunks, 2)
		last := strings.Fields(chunks[1])
		assert.Equal(t, "w250", last[0])
		assert.Equal(t, "w549", last[len(last)-1])
	})

	t.Run("Windows cover every word with no gaps", func(t *testing.T) {
		chunks := Chunk(wordsText(620), 300, 50)

		seen := map[string]bool{}
		for _, chunk := range chunks {
			for _, w := range strings.Fields(chunk) {
				seen[w] = true
			}
		}
		for i := 0; i < 620; i++ {
			assert.True(t, seen[fmt.Sprintf("w%d", i)], "word %d missing", i)
		}
	})

	t.Run("Empty input yields the original text as one chunk", func(t *testing.T) {
		chunks := Chunk("", 300, 50)

		require.Len(t, chunks, 1)
		assert.Equal(t, "", chunks[0])
	})

	t.Run("Zero overlap", func(t *testing.T) {
		chunks := Chunk(wordsText(200), 100, 0)

		require.Len(t, chunks, 2)
		assert.Equal(t, "w100", strings.Fields(chunks[1])[0])
	})
}

func TestValidateChunking(t *testing.T) {
	t.Run("Overlap equal to chunk size is rejected", func(t *testing.T) {
		err := validateChunking(100, 100)

		require.ErrorIs(t, err, ErrInvalidInput)
		assert.Contains(t, err.Error(), "to avoid infinite loops")
	})

	t.Run("Overlap greater than chunk size is rejected", func(t *testing.T) {
		err := validateChunking(60, 150)

		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("Chunk size out of bounds", func(t *testing.T) {
		assert.ErrorIs(t, validateChunking(10, 0), ErrInvalidInput)
		assert.ErrorIs(t, validateChunking(5000, 0), ErrInvalidInput)
	})

	t.Run("Overlap out of bounds", func(t *testing.T) {
		assert.ErrorIs(t, validateChunking(300, -1), ErrInvalidInput)
		assert.ErrorIs(t, validateChunking(500, 300), ErrInvalidInput)
	})

	t.Run("Valid parameters", func(t *testing.T) {
		assert.NoError(t, validateChunking(300, 50))
		assert.NoError(t, validateChunking(50, 0))
		assert.NoError(t, validateChunking(1000, 200))
	})
}
