package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/tansaku/internal/app"
	"github.com/hyperjump/tansaku/internal/content"
	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/search"
	"github.com/hyperjump/tansaku/internal/storage"
)

const apiName = "tansaku content search API"

func (s *Server) timestamp() string {
	return s.now().Format(time.RFC3339)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"message":   apiName,
		"status":    "healthy",
		"timestamp": s.timestamp(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Bool("expansion_disabled", query.DisableExpansion))
	response, err := s.app.Engine.Search(r.Context(), &query)
	switch {
	case errors.Is(err, models.ErrValidation):
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, search.ErrSearchTimeout):
		s.logger.Warn("search timed out", zap.String("query", query.Query))
		s.respondError(w, http.StatusGatewayTimeout, err.Error())
		return
	case err != nil:
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleAddContent(w http.ResponseWriter, r *http.Request) {
	var input models.ContentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("add content request", zap.String("title", input.Title))
	id, err := s.app.Repo.Add(r.Context(), &input)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("add content failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to add content: "+err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{
		"message":    "Content added successfully",
		"content_id": id,
		"timestamp":  s.timestamp(),
	})
}

func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	item, err := s.app.Repo.GetByID(r.Context(), id)
	if err != nil {
		s.respondContentError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, item)
}

type similarResponse struct {
	ContentID      string                 `json:"content_id"`
	SimilarContent []*models.SearchResult `json:"similar_content"`
	TotalResults   int                    `json:"total_results"`
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	maxResults := content.DefaultSimilarResults
	if v := r.URL.Query().Get("max_results"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "max_results must be a positive integer")
			return
		}
		maxResults = n
	}
	similar, err := s.app.Similar(r.Context(), id, maxResults)
	if err != nil {
		s.respondContentError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, similarResponse{
		ContentID:      id,
		SimilarContent: similar,
		TotalResults:   len(similar),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.app.Stats(r.Context()))
}

type suggestionsResponse struct {
	*models.Suggestions
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	query := chi.URLParam(r, "query")
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	out := s.app.Suggester.Suggest(r.Context(), query)
	s.respondJSON(w, http.StatusOK, suggestionsResponse{Suggestions: out, Timestamp: s.timestamp()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cfg := s.app.Config
	total, err := s.app.Repo.Count(r.Context())
	if err != nil {
		s.logger.Error("health: count content failed", zap.Error(err))
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "unhealthy",
			"timestamp": s.timestamp(),
			"error":     err.Error(),
		})
		return
	}
	database := map[string]any{
		"connected":     true,
		"total_content": total,
		"backend":       cfg.Store.Backend,
	}
	if diskBytes, ok, err := storage.StoreDiskUsage(&cfg.Store); ok {
		database["disk_usage_bytes"] = diskBytes
	} else if err != nil {
		s.logger.Debug("health: disk usage unavailable", zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": s.timestamp(),
		"database":  database,
		"api": map[string]string{
			"version": app.Version,
		},
		"provider": map[string]any{
			"embeddings_enabled": s.app.Embedder.Enabled(),
			"llm_enabled":        s.app.LLMEnabled(),
			"embedding_model":    cfg.Embedding.Model,
			"llm_model":          cfg.LLM.Model,
		},
	})
}

func (s *Server) respondContentError(w http.ResponseWriter, err error) {
	if errors.Is(err, content.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "content not found")
		return
	}
	s.logger.Error("content lookup failed", zap.Error(err))
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
