// Package server exposes the chat-turn entry points over HTTP. It is a
// thin adapter: auth, prompt assembly and history persistence belong to
// the surrounding application, so handlers take the system prompt and the
// message history in the request body.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/cipchat/orchestrator/pkg/chat"
	"github.com/cipchat/orchestrator/pkg/exchangelog"
	"github.com/cipchat/orchestrator/pkg/llms"
)

type Server struct {
	orchestrator       *chat.Orchestrator
	adminContextWindow int
}

func New(orchestrator *chat.Orchestrator, adminContextWindow int) *Server {
	return &Server{
		orchestrator:       orchestrator,
		adminContextWindow: adminContextWindow,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1/tenants/{tenantID}", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Post("/chat/stream", s.handleChatStream)
		r.Post("/admin-chat", s.handleAdminChat)
	})

	return r
}

type chatRequest struct {
	SystemPrompt string         `json:"system_prompt"`
	Messages     []llms.Message `json:"messages"`
	SessionID    string         `json:"session_id,omitempty"`
	Test         bool           `json:"test,omitempty"`
	FromTelegram bool           `json:"from_telegram,omitempty"`
	Admin        bool           `json:"admin,omitempty"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	s.runTurn(w, r, chat.TurnOptions{})
}

func (s *Server) handleAdminChat(w http.ResponseWriter, r *http.Request) {
	s.runTurn(w, r, chat.TurnOptions{
		Admin:           true,
		ChatType:        exchangelog.ChatTypeAdmin,
		ContextMessages: s.adminContextWindow,
	})
}

// handleChatStream serves a plain completion as server-sent events: one
// {"delta": ...} per chunk, then [DONE]. Tools are not offered on this
// path; clients that need tool calling use the non-streaming endpoint.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid tenant id"})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming not supported"})
		return
	}

	ch, err := s.orchestrator.StreamTurn(r.Context(), tenantID, req.SystemPrompt, req.Messages, chat.TurnOptions{
		FromTelegram: req.FromTelegram,
		SessionID:    req.SessionID,
	})
	if err != nil {
		slog.Error("Completion backend failed", "tenant", tenantID, "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "could not get a reply"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for chunk := range ch {
		if chunk.Err != nil {
			slog.Error("Stream failed", "tenant", tenantID, "error", chunk.Err)
			payload, _ := json.Marshal(errorResponse{Error: "stream interrupted"})
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			return
		}
		payload, _ := json.Marshal(map[string]string{"delta": chunk.Text})
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func (s *Server) runTurn(w http.ResponseWriter, r *http.Request, opts chat.TurnOptions) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid tenant id"})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	opts.FromTelegram = opts.FromTelegram || req.FromTelegram
	opts.Admin = opts.Admin || req.Admin
	opts.Test = req.Test
	opts.SessionID = req.SessionID

	reply, err := s.orchestrator.RunTurn(r.Context(), tenantID, req.SystemPrompt, req.Messages, opts)
	if err != nil {
		var backendErr *llms.BackendError
		if errors.As(err, &backendErr) {
			slog.Error("Completion backend failed", "tenant", tenantID, "error", err)
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: "could not get a reply"})
			return
		}
		slog.Error("Chat turn failed", "tenant", tenantID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}
