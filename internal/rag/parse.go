package rag

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"research-rag/internal/models"
)

// minQuestionLength filters out fragments the model sometimes emits around
// the real questions.
const minQuestionLength = 10

// sourcePreviewLength caps the chunk text carried in a citation.
const sourcePreviewLength = 200

var answerLineRe = regexp.MustCompile(`^Q(\d+):\s*(.+)$`)

// parseQuestions extracts up to n questions from free-form model output.
// Lines are stripped of leading numbering and bullets; only lines containing
// a question mark and long enough to be a real question are kept. Zero
// surviving questions is a generation failure, not an empty success.
func parseQuestions(output string, n int) ([]string, error) {
	var questions []string
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, "?") {
			continue
		}
		line = strings.TrimSpace(strings.TrimLeft(line, "0123456789.-) "))
		if len(line) < minQuestionLength {
			continue
		}
		questions = append(questions, line)
		if len(questions) == n {
			break
		}
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions survived filtering", ErrGenerationEmpty)
	}
	return questions, nil
}

// parseAnswer trims the raw model output and, when requested, extracts
// citations. A citation is recorded for every source label that literally
// appears in the answer text; nothing is fabricated beyond those matches.
func parseAnswer(output string, chunks []string, includeSources bool) (string, []models.Source, error) {
	answer := strings.TrimSpace(output)
	if answer == "" {
		return "", nil, fmt.Errorf("%w: model returned an empty answer", ErrGenerationEmpty)
	}

	if !includeSources {
		return answer, nil, nil
	}

	var sources []models.Source
	for i, chunk := range chunks {
		label := fmt.Sprintf("Source %d", i+1)
		if !strings.Contains(answer, label) {
			continue
		}
		sources = append(sources, models.Source{
			SourceID: i + 1,
			Text:     truncate(chunk, sourcePreviewLength),
		})
	}
	return answer, sources, nil
}

// parseNumberedAnswers extracts answers from "Qn: answer" lines. Lines not
// matching the pattern are ignored, so a non-conforming model silently
// yields fewer answers than questions; the result is truncated to the number
// of input questions. Zero matching lines is a generation failure.
func parseNumberedAnswers(output string, numQuestions int) ([]string, error) {
	var answers []string
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		m := answerLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		answers = append(answers, strings.TrimSpace(m[2]))
		if len(answers) == numQuestions {
			break
		}
	}
	if len(answers) == 0 {
		return nil, fmt.Errorf("%w: no answers matched the expected Qn: format", ErrGenerationEmpty)
	}
	return answers, nil
}

// truncate cuts s to at most max bytes, backing up to a rune boundary so the
// result stays valid UTF-8.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
