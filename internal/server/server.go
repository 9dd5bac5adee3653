// Package server exposes the research pipelines over HTTP. Handlers decode
// JSON, delegate to the injected service and map error kinds to status codes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"research-rag/internal/auth"
	"research-rag/internal/cache"
	"research-rag/internal/db"
	"research-rag/internal/extractor"
	"research-rag/internal/helper"
	"research-rag/internal/llm"
	"research-rag/internal/models"
	"research-rag/internal/rag"
	"research-rag/internal/vectorindex"
)

const maxUploadBytes = 25 << 20

// Service is the pipeline surface the handlers depend on.
type Service interface {
	GenerateQuestions(ctx context.Context, req models.GenerateQuestionsRequest) (*models.QuestionResponse, error)
	AnswerQuestion(ctx context.Context, req models.AnswerQuestionRequest) (*models.AnswerResponse, error)
	AnswerQuestions(ctx context.Context, req models.AnswerQuestionsRequest) (*models.AnswersResponse, error)
}

// TokenVerifier checks a bearer token and resolves it to a user.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.User, error)
}

// Server wires the pipelines, the document stores and authentication into
// an http.Handler. Database and verifier are optional; routes that need a
// missing dependency report it instead of panicking.
type Server struct {
	svc        Service
	verifier   TokenVerifier
	database   *bun.DB
	store      *cache.Store
	modelName  string
	embedModel string
}

func New(svc Service, verifier TokenVerifier, database *bun.DB, store *cache.Store, modelName, embedModel string) *Server {
	return &Server{
		svc:        svc,
		verifier:   verifier,
		database:   database,
		store:      store,
		modelName:  modelName,
		embedModel: embedModel,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /research/generate-questions", s.handleGenerateQuestions)
	mux.HandleFunc("POST /research/answer-question", s.handleAnswerQuestion)
	mux.HandleFunc("POST /research/answer-questions", s.handleAnswerQuestions)
	mux.HandleFunc("POST /research/import-article", s.requireAuth(s.handleImportArticle))
	mux.HandleFunc("POST /research/upload-document", s.requireAuth(s.handleUploadDocument))
	mux.HandleFunc("GET /research/conversations", s.requireAuth(s.handleListConversations))
	mux.HandleFunc("POST /research/conversations", s.requireAuth(s.handleSaveConversation))
	mux.HandleFunc("GET /research/conversations/{id}", s.requireAuth(s.handleGetConversation))
	mux.HandleFunc("GET /research/articles/{id}", s.requireAuth(s.handleGetArticle))
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if s.modelName == "" {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          status,
		"llm_available":   s.modelName != "",
		"model":           s.modelName,
		"embedding_model": s.embedModel,
	})
}

func (s *Server) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateQuestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	resp, err := s.svc.GenerateQuestions(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnswerQuestion(w http.ResponseWriter, r *http.Request) {
	var req models.AnswerQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	resp, err := s.svc.AnswerQuestion(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnswerQuestions(w http.ResponseWriter, r *http.Request) {
	var req models.AnswerQuestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	resp, err := s.svc.AnswerQuestions(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleImportArticle(w http.ResponseWriter, r *http.Request, user *auth.User) {
	var req models.URLImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("url is required"))
		return
	}

	extraction, err := extractor.FromURL(r.Context(), req.URL)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := models.URLImportResponse{Success: true, Title: extraction.Title}
	if s.database != nil {
		article := &db.Article{
			Title:    extraction.Title,
			Content:  extraction.Text,
			AuthorID: user.ID,
			URL:      req.URL,
			Saved:    true,
		}
		if err := db.InsertArticle(r.Context(), s.database, article); err != nil {
			log.Error().Err(err).Str("url", req.URL).Msg("Failed to save imported article")
			writeJSON(w, http.StatusInternalServerError, errorBody("failed to save article"))
			return
		}
		resp.ArticleID = article.ID
	} else {
		resp.Message = "article store not configured, content extracted but not saved"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request, user *auth.User) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart body"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file field is required"))
		return
	}
	defer file.Close()

	path, err := saveTempFile(file, header.Filename)
	if err != nil {
		log.Error().Err(err).Msg("Failed to stage uploaded file")
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to stage uploaded file"))
		return
	}
	defer os.Remove(path)

	extraction, err := extractor.FromFile(path)
	if err != nil {
		writeError(w, err)
		return
	}

	title := extraction.Title
	if base := filepath.Base(header.Filename); base != "" && base != "." {
		title = base[:len(base)-len(filepath.Ext(base))]
	}

	resp := models.URLImportResponse{Success: true, Title: title}
	if s.database != nil {
		article := &db.Article{
			Title:    title,
			Content:  extraction.Text,
			AuthorID: user.ID,
			Saved:    true,
		}
		if err := db.InsertArticle(r.Context(), s.database, article); err != nil {
			log.Error().Err(err).Str("file", header.Filename).Msg("Failed to save uploaded document")
			writeJSON(w, http.StatusInternalServerError, errorBody("failed to save document"))
			return
		}
		resp.ArticleID = article.ID
	} else {
		resp.Message = "article store not configured, content extracted but not saved"
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleListConversations merges the user's active cached conversations with
// the rows the sync worker has already persisted. Cached entries win on
// conflict since they are fresher.
func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request, user *auth.User) {
	if s.database == nil && s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("conversation store not configured"))
		return
	}

	var convs []db.Conversation
	seen := map[string]bool{}

	if s.store != nil {
		cached, err := s.store.All(r.Context())
		if err != nil {
			log.Error().Err(err).Str("user", user.ID).Msg("Failed to read cached conversations")
			writeJSON(w, http.StatusInternalServerError, errorBody("failed to list conversations"))
			return
		}
		for _, c := range cached {
			if c.UserID != user.ID {
				continue
			}
			history, err := json.Marshal(c.History)
			if err != nil {
				continue
			}
			title := c.ConversationName
			if title == "" {
				title = cache.TitleFromHistory(c.History)
			}
			convs = append(convs, db.Conversation{
				RedisConversationID: c.RedisConversationID,
				UserID:              c.UserID,
				Title:               title,
				History:             history,
				LastUpdated:         c.LastUpdated,
			})
			seen[c.RedisConversationID] = true
		}
	}

	if s.database != nil {
		stored, err := db.ListConversations(r.Context(), s.database, user.ID)
		if err != nil {
			log.Error().Err(err).Str("user", user.ID).Msg("Failed to list conversations")
			writeJSON(w, http.StatusInternalServerError, errorBody("failed to list conversations"))
			return
		}
		for _, c := range stored {
			if seen[c.RedisConversationID] {
				continue
			}
			convs = append(convs, c)
		}
	}

	if convs == nil {
		convs = []db.Conversation{}
	}
	writeJSON(w, http.StatusOK, convs)
}

// handleSaveConversation writes a conversation to the cache; the sync worker
// persists it to the store on its next round.
func (s *Server) handleSaveConversation(w http.ResponseWriter, r *http.Request, user *auth.User) {
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("conversation cache not configured"))
		return
	}

	var data models.ConversationData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if data.ConversationID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("conversation_id is required"))
		return
	}

	data.UserID = user.ID
	if data.RedisConversationID == "" {
		id, err := helper.GenerateUUID()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorBody("failed to assign conversation id"))
			return
		}
		data.RedisConversationID = id
	}

	if err := s.store.SaveConversation(r.Context(), data); err != nil {
		log.Error().Err(err).Str("conversation", data.ConversationID).Msg("Failed to cache conversation")
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to save conversation"))
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request, user *auth.User) {
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("conversation cache not configured"))
		return
	}

	data, err := s.store.GetConversation(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		log.Error().Err(err).Str("conversation", r.PathValue("id")).Msg("Failed to read conversation")
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to read conversation"))
		return
	}
	if data == nil {
		writeJSON(w, http.StatusNotFound, errorBody("conversation not found"))
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request, _ *auth.User) {
	if s.database == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("article store not configured"))
		return
	}

	article, err := db.GetArticle(r.Context(), s.database, r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("article not found"))
		return
	}
	writeJSON(w, http.StatusOK, article)
}

type authedHandler func(w http.ResponseWriter, r *http.Request, user *auth.User)

func (s *Server) requireAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.verifier == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorBody("authentication not configured"))
			return
		}

		token := auth.TokenFromHeader(r.Header.Get("Authorization"))
		user, err := s.verifier.Verify(r.Context(), token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody("invalid or missing token"))
			return
		}
		next(w, r, user)
	}
}

// saveTempFile stages an upload on disk under a random name, keeping the
// original extension so format detection still works.
func saveTempFile(src io.Reader, filename string) (string, error) {
	id, err := helper.GenerateUUID()
	if err != nil {
		return "", err
	}

	path := filepath.Join(os.TempDir(), id+filepath.Ext(filename))
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// statusFor maps pipeline error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, rag.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, extractor.ErrNoContent):
		return http.StatusUnprocessableEntity
	case errors.Is(err, rag.ErrGenerationEmpty):
		return http.StatusUnprocessableEntity
	case errors.Is(err, vectorindex.ErrIndexEmpty):
		return http.StatusUnprocessableEntity
	case errors.Is(err, rag.ErrEmbeddingUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, llm.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, llm.ErrInvocation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("Request failed")
	}
	writeJSON(w, status, errorBody(err.Error()))
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
