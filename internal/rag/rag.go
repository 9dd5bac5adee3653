package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"research-rag/internal/embedding"
	"research-rag/internal/llm"
	"research-rag/internal/models"
	"research-rag/internal/vectorindex"
)

// Parameter bounds enforced before any pipeline stage runs.
const (
	minTextLength = 10
	minChunkSize  = 50
	maxChunkSize  = 1000
	maxOverlap    = 200
	maxQuestions  = 20
	maxTopK       = 10
)

// RAG runs the chunk-embed-index-retrieve pipeline against an injected
// embedder and language model. Every request builds its own chunk set and
// index from scratch, so a single instance is safe under concurrent
// requests as long as the backends are.
type RAG struct {
	embedder embedding.Embedder
	model    llm.Model
}

func NewRAG(embedder embedding.Embedder, model llm.Model) *RAG {
	return &RAG{embedder: embedder, model: model}
}

// ModelName reports the identifier of the selected language model, or empty
// when none is available.
func (r *RAG) ModelName() string {
	if r.model == nil {
		return ""
	}
	return r.model.Name()
}

// GenerateQuestions chunks the text, retrieves the chunks most relevant to a
// fixed probing query and asks the model for questions grounded in them.
func (r *RAG) GenerateQuestions(ctx context.Context, req models.GenerateQuestionsRequest) (*models.QuestionResponse, error) {
	applyQuestionDefaults(&req)
	if err := validateText(req.Text); err != nil {
		return nil, err
	}
	if err := validateChunking(req.ChunkSize, req.ChunkOverlap); err != nil {
		return nil, err
	}
	if req.NumQuestions < 1 || req.NumQuestions > maxQuestions {
		return nil, fmt.Errorf("%w: num_questions (%d) must be between 1 and %d", ErrInvalidInput, req.NumQuestions, maxQuestions)
	}
	if r.model == nil {
		return nil, llm.ErrUnavailable
	}

	chunks := Chunk(req.Text, req.ChunkSize, req.ChunkOverlap)
	index, err := r.buildIndex(ctx, chunks)
	if err != nil {
		return nil, err
	}

	topK := models.DefaultTopK
	if topK > len(chunks) {
		topK = len(chunks)
	}
	relevant, err := r.retrieve(ctx, models.DefaultRetrievalQuery, chunks, index, topK)
	if err != nil {
		return nil, err
	}

	output, err := r.model.Invoke(ctx, buildQuestionPrompt(relevant, req.NumQuestions))
	if err != nil {
		return nil, err
	}

	questions, err := parseQuestions(output, req.NumQuestions)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int("total_chunks", len(chunks)).
		Int("chunks_used", len(relevant)).
		Int("questions", len(questions)).
		Msg("Generated questions")

	return &models.QuestionResponse{
		Questions:  questions,
		ChunksUsed: len(relevant),
		Model:      r.model.Name(),
		Metadata: &models.Metadata{
			TotalChunks:        len(chunks),
			EmbeddingDimension: index.Dimension(),
		},
	}, nil
}

// AnswerQuestion retrieves the chunks most relevant to the question and asks
// the model to answer strictly from them.
func (r *RAG) AnswerQuestion(ctx context.Context, req models.AnswerQuestionRequest) (*models.AnswerResponse, error) {
	applyAnswerDefaults(&req.ChunkSize, &req.ChunkOverlap, &req.TopK)
	if err := validateText(req.Text); err != nil {
		return nil, err
	}
	if err := validateChunking(req.ChunkSize, req.ChunkOverlap); err != nil {
		return nil, err
	}
	if err := validateTopK(req.TopK); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Question) == "" {
		return nil, fmt.Errorf("%w: question must not be empty", ErrInvalidInput)
	}
	if r.model == nil {
		return nil, llm.ErrUnavailable
	}

	chunks := Chunk(req.Text, req.ChunkSize, req.ChunkOverlap)
	index, err := r.buildIndex(ctx, chunks)
	if err != nil {
		return nil, err
	}

	relevant, err := r.retrieve(ctx, req.Question, chunks, index, req.TopK)
	if err != nil {
		return nil, err
	}

	output, err := r.model.Invoke(ctx, buildAnswerPrompt(relevant, req.Question, req.IncludeSources))
	if err != nil {
		return nil, err
	}

	answer, sources, err := parseAnswer(output, relevant, req.IncludeSources)
	if err != nil {
		return nil, err
	}

	return &models.AnswerResponse{
		Answer:     answer,
		ChunksUsed: len(relevant),
		Model:      r.model.Name(),
		Sources:    sources,
		Metadata: &models.Metadata{
			TotalChunks:        len(chunks),
			EmbeddingDimension: index.Dimension(),
		},
	}, nil
}

// AnswerQuestions answers a batch of questions in a single model call. The
// retrieval query is the concatenation of all questions so the shared
// context covers each of them as well as possible.
func (r *RAG) AnswerQuestions(ctx context.Context, req models.AnswerQuestionsRequest) (*models.AnswersResponse, error) {
	applyAnswerDefaults(&req.ChunkSize, &req.ChunkOverlap, &req.TopK)
	if err := validateText(req.Text); err != nil {
		return nil, err
	}
	if err := validateChunking(req.ChunkSize, req.ChunkOverlap); err != nil {
		return nil, err
	}
	if err := validateTopK(req.TopK); err != nil {
		return nil, err
	}
	if len(req.Questions) == 0 {
		return nil, fmt.Errorf("%w: questions must not be empty", ErrInvalidInput)
	}
	if r.model == nil {
		return nil, llm.ErrUnavailable
	}

	chunks := Chunk(req.Text, req.ChunkSize, req.ChunkOverlap)
	index, err := r.buildIndex(ctx, chunks)
	if err != nil {
		return nil, err
	}

	relevant, err := r.retrieve(ctx, strings.Join(req.Questions, " "), chunks, index, req.TopK)
	if err != nil {
		return nil, err
	}

	output, err := r.model.Invoke(ctx, buildMultiAnswerPrompt(relevant, req.Questions))
	if err != nil {
		return nil, err
	}

	answers, err := parseNumberedAnswers(output, len(req.Questions))
	if err != nil {
		return nil, err
	}

	return &models.AnswersResponse{
		Answers:    answers,
		ChunksUsed: len(relevant),
		Model:      r.model.Name(),
		Metadata: &models.Metadata{
			TotalChunks:        len(chunks),
			EmbeddingDimension: index.Dimension(),
		},
	}, nil
}

// buildIndex embeds all chunks in one batch and builds the per-request
// index. The positional mapping between chunks and vectors is preserved.
func (r *RAG) buildIndex(ctx context.Context, chunks []string) (*vectorindex.Index, error) {
	vectors, err := r.embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", ErrEmbeddingUnavailable, len(vectors), len(chunks))
	}
	return vectorindex.Build(vectors)
}

// retrieve embeds the query, searches the index and maps result positions
// back to chunk texts. Out-of-range positions are dropped defensively.
func (r *RAG) retrieve(ctx context.Context, query string, chunks []string, index *vectorindex.Index, topK int) ([]string, error) {
	queryVector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}

	results, err := index.Search(queryVector, topK)
	if err != nil {
		return nil, err
	}

	relevant := make([]string, 0, len(results))
	for _, res := range results {
		if res.Index < 0 || res.Index >= len(chunks) {
			continue
		}
		relevant = append(relevant, chunks[res.Index])
	}
	return relevant, nil
}

func applyQuestionDefaults(req *models.GenerateQuestionsRequest) {
	if req.ChunkSize == 0 {
		req.ChunkSize = models.DefaultChunkSize
		if req.ChunkOverlap == 0 {
			req.ChunkOverlap = models.DefaultChunkOverlap
		}
	}
	if req.NumQuestions == 0 {
		req.NumQuestions = models.DefaultNumQuestions
	}
}

func applyAnswerDefaults(chunkSize, chunkOverlap, topK *int) {
	if *chunkSize == 0 {
		*chunkSize = models.DefaultChunkSize
		if *chunkOverlap == 0 {
			*chunkOverlap = models.DefaultChunkOverlap
		}
	}
	if *topK == 0 {
		*topK = models.DefaultTopK
	}
}

func validateText(text string) error {
	if len(strings.TrimSpace(text)) < minTextLength {
		return fmt.Errorf("%w: text must be at least %d characters", ErrInvalidInput, minTextLength)
	}
	return nil
}

func validateChunking(chunkSize, overlap int) error {
	if chunkSize < minChunkSize || chunkSize > maxChunkSize {
		return fmt.Errorf("%w: chunk_size (%d) must be between %d and %d", ErrInvalidInput, chunkSize, minChunkSize, maxChunkSize)
	}
	if overlap < 0 || overlap > maxOverlap {
		return fmt.Errorf("%w: chunk_overlap (%d) must be between 0 and %d", ErrInvalidInput, overlap, maxOverlap)
	}
	if overlap >= chunkSize {
		return fmt.Errorf("%w: chunk_overlap (%d) must be less than chunk_size (%d) to avoid infinite loops", ErrInvalidInput, overlap, chunkSize)
	}
	return nil
}

func validateTopK(topK int) error {
	if topK < 1 || topK > maxTopK {
		return fmt.Errorf("%w: top_k (%d) must be between 1 and %d", ErrInvalidInput, topK, maxTopK)
	}
	return nil
}
