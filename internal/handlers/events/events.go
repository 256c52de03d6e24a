// internal/handlers/events/events.go
package events

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"

	httpserver "studiodesk/internal/http"
	"studiodesk/internal/realtime"
)

// resourcePattern limits subscriptions to known logical resources.
var resourcePattern = regexp.MustCompile(`^(project|user|conversation):[0-9a-f-]{36}$`)

type Handler struct {
	broker *realtime.Broker
}

func New(b *realtime.Broker) *Handler {
	return &Handler{broker: b}
}

// Stream serves the realtime change feed as server-sent events.
// GET /events?resource=project:<uuid>
func (h *Handler) Stream(w http.ResponseWriter, req *http.Request) {
	resource := req.URL.Query().Get("resource")
	if !resourcePattern.MatchString(resource) {
		httpserver.Error(w, http.StatusBadRequest, "invalid resource")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		httpserver.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := make(chan realtime.Event, 16)
	stop, err := h.broker.Subscribe(req.Context(), resource, func(ev realtime.Event) {
		select {
		case events <- ev:
		default: // drop if the client cannot keep up
		}
	})
	if err != nil {
		return
	}
	defer stop()

	for {
		select {
		case <-req.Context().Done():
			return
		case ev := <-events:
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "id: %s\ndata: %s\n\n", ev.ID, payload)
			flusher.Flush()
		}
	}
}
