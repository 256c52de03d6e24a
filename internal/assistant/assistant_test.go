package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// recordingServer serves canned responses per model and remembers the order
// models were tried in.
type recordingServer struct {
	mu        sync.Mutex
	responses map[string]func(w http.ResponseWriter)
	tried     []string
}

func (s *recordingServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.tried = append(s.tried, req.Model)
		respond := s.responses[req.Model]
		s.mu.Unlock()
		if respond == nil {
			http.Error(w, "unknown model", http.StatusNotFound)
			return
		}
		respond(w)
	}
}

func text(body string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		json.NewEncoder(w).Encode(generateResponse{Text: body})
	}
}

func status(code int, body string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		http.Error(w, body, code)
	}
}

func TestChatFallsThroughOnRateLimit(t *testing.T) {
	rec := &recordingServer{responses: map[string]func(w http.ResponseWriter){
		"primary":   status(http.StatusTooManyRequests, "slow down"),
		"secondary": text("hello from secondary"),
	}}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	c := New(Config{APIURL: srv.URL, Models: []string{"primary", "secondary"}})
	reply, model, err := c.Chat(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if reply != "hello from secondary" || model != "secondary" {
		t.Fatalf("expected secondary to serve, got %q from %q", reply, model)
	}
	if len(rec.tried) != 2 {
		t.Fatalf("expected both models tried, got %v", rec.tried)
	}
}

func TestChatFallsThroughOnQuotaBody(t *testing.T) {
	rec := &recordingServer{responses: map[string]func(w http.ResponseWriter){
		"primary":   status(http.StatusInternalServerError, "RESOURCE_EXHAUSTED: quota exceeded"),
		"secondary": text("ok"),
	}}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	c := New(Config{APIURL: srv.URL, Models: []string{"primary", "secondary"}})
	if _, model, err := c.Chat(context.Background(), "hi", nil); err != nil || model != "secondary" {
		t.Fatalf("expected quota failure to fall through, got model=%q err=%v", model, err)
	}
}

func TestChatStopsOnNonRetryableError(t *testing.T) {
	rec := &recordingServer{responses: map[string]func(w http.ResponseWriter){
		"primary":   status(http.StatusBadRequest, "malformed prompt"),
		"secondary": text("should never be reached"),
	}}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	c := New(Config{APIURL: srv.URL, Models: []string{"primary", "secondary"}})
	if _, _, err := c.Chat(context.Background(), "hi", nil); err == nil {
		t.Fatal("expected a hard failure")
	}
	if len(rec.tried) != 1 {
		t.Fatalf("a 400 must not fall through, tried %v", rec.tried)
	}
}

func TestChatReportsWhenAllModelsFail(t *testing.T) {
	rec := &recordingServer{responses: map[string]func(w http.ResponseWriter){
		"primary":   status(http.StatusTooManyRequests, "busy"),
		"secondary": status(http.StatusNotFound, "gone"),
	}}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	c := New(Config{APIURL: srv.URL, Models: []string{"primary", "secondary"}})
	_, _, err := c.Chat(context.Background(), "hi", nil)
	if err == nil || !strings.Contains(err.Error(), "all models failed") {
		t.Fatalf("expected all-models-failed error, got %v", err)
	}
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	c := New(Config{APIURL: "http://unused.invalid"})
	if _, _, err := c.Chat(context.Background(), "   ", nil); err == nil {
		t.Fatal("expected blank message to be rejected before any request")
	}
}
