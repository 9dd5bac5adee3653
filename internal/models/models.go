package models

import (
	"time"
)

// Metadata carries provenance information about one pipeline invocation.
type Metadata struct {
	TotalChunks        int `json:"total_chunks"`
	EmbeddingDimension int `json:"embedding_dimension"`
}

// GenerateQuestionsRequest is the input for the question generation pipeline.
type GenerateQuestionsRequest struct {
	Text         string `json:"text"`
	NumQuestions int    `json:"num_questions"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
}

// QuestionResponse is the result of the question generation pipeline.
type QuestionResponse struct {
	Questions  []string  `json:"questions"`
	ChunksUsed int       `json:"chunks_used"`
	Model      string    `json:"model"`
	Metadata   *Metadata `json:"metadata,omitempty"`
}

// AnswerQuestionRequest is the input for the question answering pipeline.
type AnswerQuestionRequest struct {
	Text           string `json:"text"`
	Question       string `json:"question"`
	ChunkSize      int    `json:"chunk_size"`
	ChunkOverlap   int    `json:"chunk_overlap"`
	TopK           int    `json:"top_k"`
	IncludeSources bool   `json:"include_sources"`
}

// Source is a citation back to one of the retrieved chunks.
type Source struct {
	SourceID int    `json:"source_id"`
	Text     string `json:"text"`
}

// AnswerResponse is the result of the question answering pipeline.
type AnswerResponse struct {
	Answer     string    `json:"answer"`
	ChunksUsed int       `json:"chunks_used"`
	Model      string    `json:"model"`
	Sources    []Source  `json:"sources,omitempty"`
	Metadata   *Metadata `json:"metadata,omitempty"`
}

// AnswerQuestionsRequest is the input for the batch answering pipeline.
type AnswerQuestionsRequest struct {
	Text         string   `json:"text"`
	Questions    []string `json:"questions"`
	ChunkSize    int      `json:"chunk_size"`
	ChunkOverlap int      `json:"chunk_overlap"`
	TopK         int      `json:"top_k"`
}

// AnswersResponse is the result of the batch answering pipeline.
type AnswersResponse struct {
	Answers    []string  `json:"answers"`
	ChunksUsed int       `json:"chunks_used"`
	Model      string    `json:"model"`
	Metadata   *Metadata `json:"metadata,omitempty"`
}

// URLImportRequest asks the service to extract an article from a URL.
type URLImportRequest struct {
	URL string `json:"url"`
}

// URLImportResponse reports the outcome of an article import.
type URLImportResponse struct {
	Success   bool   `json:"success"`
	ArticleID string `json:"article_id,omitempty"`
	Title     string `json:"title,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Message is a single turn in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationData is the cached state of one conversation.
type ConversationData struct {
	UserID              string    `json:"user_id"`
	ConversationID      string    `json:"conversation_id"`
	ConversationName    string    `json:"conversation_name"`
	RedisConversationID string    `json:"redis_conversation_id"`
	History             []Message `json:"conversation_history"`
	LastUpdated         time.Time `json:"last_updated"`
}
