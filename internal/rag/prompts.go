package rag

import (
	"fmt"
	"strings"

	"research-rag/internal/models"
)

// buildQuestionPrompt embeds the retrieved chunks labeled "Chunk i" into a
// single prompt asking for exactly n questions, one per line, unnumbered.
func buildQuestionPrompt(chunks []string, n int) string {
	var context strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			context.WriteString("\n\n")
		}
		fmt.Fprintf(&context, "Chunk %d: %s", i+1, chunk)
	}
	return fmt.Sprintf(models.QuestionPromptTemplate, n, context.String(), n)
}

// buildAnswerPrompt embeds the retrieved chunks labeled "[Source i]" and
// instructs the model to answer strictly from them. When citations are
// requested the prompt also asks for source labels.
func buildAnswerPrompt(chunks []string, question string, includeSources bool) string {
	instruction := ""
	if includeSources {
		instruction = models.CitationInstruction
	}
	return fmt.Sprintf(models.AnswerPromptTemplate, instruction, sourceContext(chunks), question)
}

// buildMultiAnswerPrompt lists all questions numbered and asks for one
// "Qn: answer" line per question.
func buildMultiAnswerPrompt(chunks []string, questions []string) string {
	var list strings.Builder
	for i, q := range questions {
		fmt.Fprintf(&list, "%d. %s\n", i+1, q)
	}
	return fmt.Sprintf(models.MultiAnswerPromptTemplate, sourceContext(chunks), strings.TrimRight(list.String(), "\n"))
}

func sourceContext(chunks []string) string {
	var context strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			context.WriteString("\n\n")
		}
		fmt.Fprintf(&context, "[Source %d] %s", i+1, chunk)
	}
	return context.String()
}
