// internal/handlers/assistantapi/assistantapi.go
package assistantapi

import (
	"encoding/json"
	"net/http"

	"studiodesk/internal/assistant"
	httpserver "studiodesk/internal/http"
)

type Handler struct {
	client *assistant.Client
}

func New(c *assistant.Client) *Handler {
	return &Handler{client: c}
}

// Chat proxies one assistant turn.
// POST /assistant/chat { "message": "...", "history": [{"role": "user", "content": "..."}] }
func (h *Handler) Chat(w http.ResponseWriter, req *http.Request) {
	type bodyT struct {
		Message string              `json:"message"`
		History []assistant.Message `json:"history"`
	}
	var b bodyT
	if err := json.NewDecoder(req.Body).Decode(&b); err != nil || b.Message == "" {
		httpserver.Error(w, http.StatusBadRequest, "message is required")
		return
	}
	text, model, err := h.client.Chat(req.Context(), b.Message, b.History)
	if err != nil {
		httpserver.Error(w, http.StatusBadGateway, "assistant unavailable")
		return
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{
		"text":  text,
		"model": model,
	})
}
