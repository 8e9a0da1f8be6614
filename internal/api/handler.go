// Package api exposes the tutor over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tutorgraph/tutorgraph/internal/agent"
	"github.com/tutorgraph/tutorgraph/internal/flow"
	"github.com/tutorgraph/tutorgraph/internal/guide"
)

// Handler holds the collaborators behind the HTTP surface.
type Handler struct {
	agent   *agent.Agent
	guides  *guide.Store
	scraper *guide.Scraper
	logger  *slog.Logger
}

// NewHandler builds the handler set.
func NewHandler(a *agent.Agent, guides *guide.Store, scraper *guide.Scraper, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{agent: a, guides: guides, scraper: scraper, logger: logger}
}

// Routes assembles the router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	r.Get("/", h.info)
	r.Post("/chat", h.chat)
	r.Post("/resume", h.resume)
	r.Post("/guides/scrape", h.scrapeGuide)
	r.Get("/guides/{subject}", h.getGuide)

	return r
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func (h *Handler) info(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{
		"name":    "tutorgraph",
		"status":  "ok",
		"message": "educational tutor backend",
	})
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Subject   string `json:"subject,omitempty"`
	Message   string `json:"message"`
}

func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" || strings.TrimSpace(req.Message) == "" {
		Error(w, http.StatusBadRequest, "session_id and message are required")
		return
	}

	result, err := h.agent.Advance(r.Context(), req.SessionID, req.Subject, req.Message)
	if err != nil {
		h.logger.Error("chat turn failed", "session", req.SessionID, "error", err)
		Error(w, http.StatusInternalServerError, "turn failed")
		return
	}
	JSON(w, http.StatusOK, result)
}

type resumeRequest struct {
	SessionID string `json:"session_id"`
	Value     string `json:"value"`
}

func (h *Handler) resume(w http.ResponseWriter, r *http.Request) {
	var req resumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		Error(w, http.StatusBadRequest, "session_id is required")
		return
	}

	result, err := h.agent.Resume(r.Context(), req.SessionID, req.Value)
	switch {
	case errors.Is(err, flow.ErrNotSuspended), errors.Is(err, flow.ErrNoCheckpoints):
		Error(w, http.StatusConflict, "session is not waiting for an answer")
		return
	case err != nil:
		h.logger.Error("resume failed", "session", req.SessionID, "error", err)
		Error(w, http.StatusInternalServerError, "resume failed")
		return
	}
	JSON(w, http.StatusOK, result)
}

type scrapeRequest struct {
	URL     string `json:"url"`
	Subject string `json:"subject"`
}

func (h *Handler) scrapeGuide(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" || req.Subject == "" {
		Error(w, http.StatusBadRequest, "url and subject are required")
		return
	}

	doc, err := h.scraper.ScrapeURL(r.Context(), req.URL)
	if err != nil {
		h.logger.Error("guide scrape failed", "url", req.URL, "error", err)
		Error(w, http.StatusBadGateway, "could not scrape guide page")
		return
	}
	if err := h.guides.Save(req.Subject, doc); err != nil {
		h.logger.Error("guide save failed", "subject", req.Subject, "error", err)
		Error(w, http.StatusInternalServerError, "could not store guide")
		return
	}
	JSON(w, http.StatusCreated, map[string]string{"subject": strings.ToLower(strings.TrimSpace(req.Subject))})
}

func (h *Handler) getGuide(w http.ResponseWriter, r *http.Request) {
	subject := chi.URLParam(r, "subject")

	doc, err := h.guides.Lookup(subject)
	if errors.Is(err, guide.ErrNotFound) {
		Error(w, http.StatusNotFound, "no guide for subject")
		return
	}
	if err != nil {
		h.logger.Error("guide lookup failed", "subject", subject, "error", err)
		Error(w, http.StatusInternalServerError, "could not load guide")
		return
	}
	JSON(w, http.StatusOK, doc)
}
