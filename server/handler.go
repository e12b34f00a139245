package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/foliolens/foliolens/analyze"
	"github.com/foliolens/foliolens/scrape"
)

// urlProcessor runs the full fetch/extract/analyze pipeline for one URL.
// The normalized URL comes back even on failure so the handler can echo it.
type urlProcessor interface {
	ProcessURL(ctx context.Context, rawURL string) (*analyze.Analysis, string, error)
}

// chatResponder answers grounded chat turns, with a streaming variant.
type chatResponder interface {
	Respond(ctx context.Context, turns []analyze.Turn, analysis *analyze.Analysis) (string, error)
	RespondStream(ctx context.Context, turns []analyze.Turn, analysis *analyze.Analysis) (<-chan analyze.Fragment, <-chan error)
}

// Handler serves the analysis and chat API.
type Handler struct {
	pipeline urlProcessor
	chat     chatResponder
	logger   *slog.Logger
}

// NewHandler creates an HTTP handler over the pipeline and chat responder.
func NewHandler(pipeline urlProcessor, chat chatResponder, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		pipeline: pipeline,
		chat:     chat,
		logger:   logger,
	}
}

// RegisterHTTPHandlers registers the API routes on mux. The prefix should
// not include a trailing slash (e.g., "/api").
func (h *Handler) RegisterHTTPHandlers(prefix string, mux *http.ServeMux) {
	mux.HandleFunc("POST "+prefix+"/process-url", h.handleProcessURL)
	mux.HandleFunc("POST "+prefix+"/chat", h.handleChat)
	mux.HandleFunc("POST "+prefix+"/chat/stream", h.handleChatStream)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// ProcessURLRequest is the JSON body for POST /api/process-url.
type ProcessURLRequest struct {
	URL string `json:"url"`
}

// ChatRequest is the JSON body for POST /api/chat and /api/chat/stream.
// URLData carries the payload a previous process-url call returned; when
// present it grounds the answer.
type ChatRequest struct {
	Messages []analyze.Turn    `json:"messages"`
	URLData  *analyze.Analysis `json:"url_data,omitempty"`
}

// ChatResponse is the JSON response for POST /api/chat.
type ChatResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the error payload for every endpoint. URL echoes the
// normalized form of the requested URL when one was in play.
type ErrorResponse struct {
	Error string `json:"error"`
	URL   string `json:"url,omitempty"`
}

// handleProcessURL handles POST /api/process-url.
func (h *Handler) handleProcessURL(w http.ResponseWriter, r *http.Request) {
	var req ProcessURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), "")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required", "")
		return
	}

	analysis, pageURL, err := h.pipeline.ProcessURL(r.Context(), req.URL)
	if err != nil {
		status := statusForError(err)
		h.logger.Error("process-url failed", "url", pageURL, "status", status, "error", err)
		recordRequestError("process-url", err)
		writeError(w, status, err.Error(), pageURL)
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

// handleChat handles POST /api/chat.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeChatRequest(w, r)
	if !ok {
		return
	}

	reply, err := h.chat.Respond(r.Context(), req.Messages, req.URLData)
	if err != nil {
		status := statusForError(err)
		h.logger.Error("chat failed", "status", status, "error", err)
		recordRequestError("chat", err)
		writeError(w, status, err.Error(), "")
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{Message: reply})
}

// handleChatStream handles POST /api/chat/stream. The response is a
// server-sent-event stream of fragment objects; the final event carries
// done:true and the full accumulated text.
func (h *Handler) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeChatRequest(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported", "")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	fragments, errc := h.chat.RespondStream(r.Context(), req.Messages, req.URLData)

	for {
		select {
		case <-r.Context().Done():
			return
		case fragment, open := <-fragments:
			if !open {
				// The producer closes the error channel before the
				// fragment channel, so any failure is visible here.
				select {
				case err := <-errc:
					if err != nil {
						h.logger.Error("chat stream failed", "error", err)
						recordRequestError("chat-stream", err)
						h.sendSSEData(w, flusher, analyze.Fragment{
							Role:    "model",
							Content: "Error: " + err.Error(),
							Done:    true,
						})
					}
				default:
				}
				return
			}
			if err := h.sendSSEData(w, flusher, fragment); err != nil {
				h.logger.Warn("SSE write failed, client likely disconnected", "error", err)
				return
			}
			if fragment.Done {
				return
			}
		}
	}
}

// handleHealth handles GET /healthz.
func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) decodeChatRequest(w http.ResponseWriter, r *http.Request) (ChatRequest, bool) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), "")
		return ChatRequest{}, false
	}
	return req, true
}

// sendSSEData writes one data-only SSE event.
func (h *Handler) sendSSEData(w http.ResponseWriter, flusher http.Flusher, data any) error {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		h.logger.Warn("Failed to marshal SSE data", "error", err)
		return nil // Don't return marshal errors as connection issues
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", dataBytes); err != nil {
		return fmt.Errorf("write event data: %w", err)
	}

	flusher.Flush()
	return nil
}

// statusForError maps the error taxonomy to HTTP statuses: validation
// failures are the caller's fault, fetch and generation failures are
// upstream failures.
func statusForError(err error) int {
	switch {
	case IsValidationError(err):
		return http.StatusBadRequest
	case scrape.IsFetchError(err):
		return http.StatusBadGateway
	case analyze.IsGenerationError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeError writes the standard error payload.
func writeError(w http.ResponseWriter, status int, message, url string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, URL: url})
}
