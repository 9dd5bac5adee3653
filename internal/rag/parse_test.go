package rag

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuestions(t *testing.T) {
	t.Run("Strips numbering and bullets", func(t *testing.T) {
		output := "1. What is the system doing here?\n2) How does retrieval work exactly?\n- Why does chunk overlap matter at all?"

		questions, err := parseQuestions(output, 5)

		require.NoError(t, err)
		assert.Equal(t, []string{
			"What is the system doing here?",
			"How does retrieval work exactly?",
			"Why does chunk overlap matter at all?",
		}, questions)
	})

	t.Run("Drops lines without a question mark", func(t *testing.T) {
		output := "1. What is X?\n2. Not a question.\nWhy?\n"

		questions, err := parseQuestions(output, 5)

		require.NoError(t, err)
		// "Not a question." has no question mark and "Why?" falls under the
		// minimum length heuristic.
		assert.Equal(t, []string{"What is X?"}, questions)
	})

	t.Run("Truncates to the requested count", func(t *testing.T) {
		output := "What is alpha about?\nWhat is beta about?\nWhat is gamma about?"

		questions, err := parseQuestions(output, 2)

		require.NoError(t, err)
		assert.Len(t, questions, 2)
		assert.Equal(t, "What is alpha about?", questions[0])
	})

	t.Run("Blank lines ignored", func(t *testing.T) {
		output := "\n\nWhat happens after chunking?\n\n"

		questions, err := parseQuestions(output, 3)

		require.NoError(t, err)
		assert.Equal(t, []string{"What happens after chunking?"}, questions)
	})

	t.Run("Nothing survives filtering", func(t *testing.T) {
		output := "Here are some questions.\nI could not generate any."

		_, err := parseQuestions(output, 5)

		assert.ErrorIs(t, err, ErrGenerationEmpty)
	})

	t.Run("Empty output", func(t *testing.T) {
		_, err := parseQuestions("", 5)

		assert.ErrorIs(t, err, ErrGenerationEmpty)
	})
}

func TestParseAnswer(t *testing.T) {
	chunks := []string{"first chunk text", "second chunk text"}

	t.Run("Trims whitespace", func(t *testing.T) {
		answer, sources, err := parseAnswer("  The answer.  \n", chunks, false)

		require.NoError(t, err)
		assert.Equal(t, "The answer.", answer)
		assert.Nil(t, sources)
	})

	t.Run("Extracts literal citations", func(t *testing.T) {
		answer, sources, err := parseAnswer("According to Source 2, X happens.", chunks, true)

		require.NoError(t, err)
		assert.Equal(t, "According to Source 2, X happens.", answer)
		require.Len(t, sources, 1)
		assert.Equal(t, 2, sources[0].SourceID)
		assert.Equal(t, "second chunk text", sources[0].Text)
	})

	t.Run("No citations without literal matches", func(t *testing.T) {
		_, sources, err := parseAnswer("X happens because of Y.", chunks, true)

		require.NoError(t, err)
		assert.Empty(t, sources)
	})

	t.Run("Citations disabled", func(t *testing.T) {
		_, sources, err := parseAnswer("See Source 1 and Source 2.", chunks, false)

		require.NoError(t, err)
		assert.Nil(t, sources)
	})

	t.Run("Long chunk text is truncated", func(t *testing.T) {
		long := []string{strings.Repeat("a", 250)}

		_, sources, err := parseAnswer("Source 1 says so.", long, true)

		require.NoError(t, err)
		require.Len(t, sources, 1)
		assert.Len(t, sources[0].Text, 203)
		assert.True(t, strings.HasSuffix(sources[0].Text, "..."))
	})

	t.Run("Truncation keeps multibyte text valid", func(t *testing.T) {
		// 100 euro signs are 300 bytes; byte 200 lands mid-rune.
		long := []string{strings.Repeat("€", 100)}

		_, sources, err := parseAnswer("Source 1 says so.", long, true)

		require.NoError(t, err)
		require.Len(t, sources, 1)
		assert.True(t, utf8.ValidString(sources[0].Text))
		assert.True(t, strings.HasSuffix(sources[0].Text, "..."))
	})

	t.Run("Empty answer is a generation failure", func(t *testing.T) {
		_, _, err := parseAnswer("   \n  ", chunks, false)

		assert.ErrorIs(t, err, ErrGenerationEmpty)
	})
}

func TestParseNumberedAnswers(t *testing.T) {
	t.Run("Matches Qn lines in order", func(t *testing.T) {
		output := "Q1: The first answer.\nQ2: The second answer."

		answers, err := parseNumberedAnswers(output, 2)

		require.NoError(t, err)
		assert.Equal(t, []string{"The first answer.", "The second answer."}, answers)
	})

	t.Run("Ignores non-matching lines", func(t *testing.T) {
		output := "Here are the answers:\nQ1: Alpha.\nsome aside\nQ2: Beta."

		answers, err := parseNumberedAnswers(output, 2)

		require.NoError(t, err)
		assert.Equal(t, []string{"Alpha.", "Beta."}, answers)
	})

	t.Run("Truncates to the question count", func(t *testing.T) {
		output := "Q1: A.\nQ2: B.\nQ3: C."

		answers, err := parseNumberedAnswers(output, 2)

		require.NoError(t, err)
		assert.Equal(t, []string{"A.", "B."}, answers)
	})

	t.Run("Non-conforming output yields fewer answers", func(t *testing.T) {
		output := "Q1: Only this one matched.\nThe rest is prose."

		answers, err := parseNumberedAnswers(output, 3)

		require.NoError(t, err)
		assert.Len(t, answers, 1)
	})

	t.Run("Zero matches is a generation failure", func(t *testing.T) {
		_, err := parseNumberedAnswers("no structured lines here", 2)

		assert.ErrorIs(t, err, ErrGenerationEmpty)
	})
}

func TestBuildPrompts(t *testing.T) {
	t.Run("Question prompt labels chunks", func(t *testing.T) {
		prompt := buildQuestionPrompt([]string{"alpha", "beta"}, 3)

		assert.Contains(t, prompt, "Chunk 1: alpha")
		assert.Contains(t, prompt, "Chunk 2: beta")
		assert.Contains(t, prompt, "generate 3 diverse")
		assert.Contains(t, prompt, "without numbering or bullet points")
	})

	t.Run("Answer prompt labels sources", func(t *testing.T) {
		prompt := buildAnswerPrompt([]string{"alpha", "beta"}, "What is alpha?", true)

		assert.Contains(t, prompt, "[Source 1] alpha")
		assert.Contains(t, prompt, "[Source 2] beta")
		assert.Contains(t, prompt, "Question: What is alpha?")
		assert.Contains(t, prompt, "cite it by its label")
	})

	t.Run("Answer prompt without citations", func(t *testing.T) {
		prompt := buildAnswerPrompt([]string{"alpha"}, "What is alpha?", false)

		assert.NotContains(t, prompt, "cite it by its label")
	})

	t.Run("Multi answer prompt numbers questions", func(t *testing.T) {
		prompt := buildMultiAnswerPrompt([]string{"alpha"}, []string{"What is A?", "What is B?"})

		assert.Contains(t, prompt, "1. What is A?")
		assert.Contains(t, prompt, "2. What is B?")
		assert.Contains(t, prompt, `"Qn: answer"`)
	})
}
