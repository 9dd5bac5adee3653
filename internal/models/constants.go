package models

// Defaults applied when a request leaves a parameter unset.
const (
	DefaultChunkSize    = 300
	DefaultChunkOverlap = 50
	DefaultNumQuestions = 5
	DefaultTopK         = 3
)

// DefaultRetrievalQuery is the fixed query used to pick the chunks that seed
// question generation.
const DefaultRetrievalQuery = "What questions can be asked about this content?"

var (
	QuestionPromptTemplate = `Based on the following text content, generate %d diverse, specific, and insightful questions that someone might ask about this content.

The questions should:
- Be clear and directly answerable from the given context
- Cover different aspects or topics within the text
- Range from factual to analytical
- Be phrased naturally as if asked by a curious reader

Context:
%s

Generate exactly %d questions, one per line, without numbering or bullet points:`

	AnswerPromptTemplate = `Answer the question using only the numbered sources below. If the sources do not contain enough information, say that you cannot answer from the provided context.%s

%s

Question: %s

Answer:`

	CitationInstruction = ` When a statement comes from a specific source, cite it by its label, for example (Source 2).`

	MultiAnswerPromptTemplate = `Answer each of the numbered questions using only the sources below. If the sources do not contain enough information for a question, say so in its answer. Write exactly one line per question in the form "Qn: answer", where n is the question number.

%s

Questions:
%s

Answers:`
)
