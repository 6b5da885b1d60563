package ai

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ashureev/folio/internal/api"
	"github.com/ashureev/folio/internal/chat"
	"github.com/ashureev/folio/internal/identity"
	"github.com/go-chi/chi/v5"
)

// defaultMaxRequestBodySize is the default maximum allowed request body size (1MB).
const defaultMaxRequestBodySize = 1 << 20

// maxPromptLength bounds image prompts.
const maxPromptLength = 1000

// ChatRequest is the body of POST /api/ai/chat.
type ChatRequest struct {
	Messages []chat.Message `json:"messages"`
}

// ChatResponse is returned by POST /api/ai/chat.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// ImageRequest is the body of POST /api/ai/image.
type ImageRequest struct {
	Prompt string `json:"prompt"`
}

// ImageResponse carries a generated image as a data URL.
type ImageResponse struct {
	MIMEType string `json:"mimeType"`
	DataURL  string `json:"dataUrl"`
}

// Handler serves the AI proxy routes.
type Handler struct {
	gen         Generator
	rateLimiter *RateLimiter
	maxBodySize int64
	logger      *slog.Logger
}

// NewHandler creates an AI handler. A nil gen disables the routes with 503.
func NewHandler(gen Generator, limiter *RateLimiter, maxBodySize int64, logger *slog.Logger) *Handler {
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxRequestBodySize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		gen:         gen,
		rateLimiter: limiter,
		maxBodySize: maxBodySize,
		logger:      logger,
	}
}

// Routes mounts the handler under /api/ai.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/chat", h.HandleChat)
	r.Post("/image", h.HandleImage)
}

// admit runs the checks shared by every AI route and decodes the body into v.
func (h *Handler) admit(w http.ResponseWriter, r *http.Request, v any) bool {
	if h.gen == nil {
		api.Error(w, http.StatusServiceUnavailable, ErrDisabled.Error())
		return false
	}

	visitorID := identity.VisitorIDFromContext(r.Context())
	if visitorID == "" {
		api.Error(w, http.StatusUnauthorized, "unknown visitor")
		return false
	}

	if h.rateLimiter != nil && !h.rateLimiter.Allow(visitorID) {
		h.logger.Warn("AI rate limit exceeded", "visitor_id", visitorID, "ip", identity.IPFromRequest(r))
		api.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// HandleChat handles POST /api/ai/chat.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !h.admit(w, r, &req) {
		return
	}

	hasUser := false
	for _, m := range req.Messages {
		if m.Role != chat.RoleUser && m.Role != chat.RoleAssistant {
			api.Error(w, http.StatusBadRequest, "invalid message role")
			return
		}
		if m.Role == chat.RoleUser && strings.TrimSpace(m.Content) != "" {
			hasUser = true
		}
	}
	if !hasUser {
		api.Error(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := h.gen.Chat(r.Context(), req.Messages)
	if err != nil {
		h.logger.Error("AI chat failed", "visitor_id", identity.VisitorIDFromContext(r.Context()), "error", err)
		api.Error(w, http.StatusBadGateway, "assistant unavailable")
		return
	}

	api.JSON(w, http.StatusOK, ChatResponse{Reply: reply})
}

// HandleImage handles POST /api/ai/image.
func (h *Handler) HandleImage(w http.ResponseWriter, r *http.Request) {
	var req ImageRequest
	if !h.admit(w, r, &req) {
		return
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		api.Error(w, http.StatusBadRequest, "prompt is required")
		return
	}
	if len([]rune(prompt)) > maxPromptLength {
		api.Error(w, http.StatusBadRequest, "prompt is too long")
		return
	}

	img, err := h.gen.GenerateImage(r.Context(), prompt)
	if err != nil {
		h.logger.Error("AI image generation failed", "visitor_id", identity.VisitorIDFromContext(r.Context()), "error", err)
		api.Error(w, http.StatusBadGateway, "image generation unavailable")
		return
	}

	api.JSON(w, http.StatusOK, ImageResponse{
		MIMEType: img.MIMEType,
		DataURL:  "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data),
	})
}
