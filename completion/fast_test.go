package completion_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clinicore/assistant/completion"
	"github.com/clinicore/assistant/core/protocol"
)

func sseServer(t *testing.T, frames []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Stream   bool               `json:"stream"`
			Messages []protocol.Message `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("server: decode request: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		if !req.Stream {
			fmt.Fprint(w, `{"choices":[{"message":{"content":"full reply"}}]}`)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for _, frame := range frames {
			fmt.Fprintf(w, "data: %s\n\n", frame)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func newFast(t *testing.T, baseURL string) *completion.FastProvider {
	t.Helper()
	p, err := completion.NewFastProvider(completion.FastConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Model:   "fast-model",
	})
	if err != nil {
		t.Fatalf("NewFastProvider() unexpected error: %v", err)
	}
	return p
}

func TestFastProviderComplete(t *testing.T) {
	srv := sseServer(t, nil)
	defer srv.Close()

	p := newFast(t, srv.URL)
	got, err := p.Complete(context.Background(), history(), "system")
	if err != nil {
		t.Fatalf("Complete() unexpected error: %v", err)
	}
	if got != "full reply" {
		t.Errorf("Complete() = %q, want %q", got, "full reply")
	}
}

func TestFastProviderCompleteStream(t *testing.T) {
	srv := sseServer(t, []string{
		`{"choices":[{"delta":{"content":"Hel"}}]}`,
		`{"choices":[{"delta":{"content":"lo"}}]}`,
		`this frame is not json and must be skipped`,
		`{"choices":[]}`,
		`{"choices":[{"delta":{"content":"!"}}]}`,
	})
	defer srv.Close()

	p := newFast(t, srv.URL)

	var lastAccumulated string
	got, err := p.CompleteStream(context.Background(), history(), "", func(delta, accumulated string) {
		lastAccumulated = accumulated
	})
	if err != nil {
		t.Fatalf("CompleteStream() unexpected error: %v", err)
	}

	if got != "Hello!" {
		t.Errorf("CompleteStream() = %q, want %q", got, "Hello!")
	}
	if lastAccumulated != "Hello!" {
		t.Errorf("final accumulated = %q, want %q", lastAccumulated, "Hello!")
	}
}

func TestFastProviderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := newFast(t, srv.URL)
	if _, err := p.Complete(context.Background(), history(), ""); err == nil {
		t.Error("Complete() expected error on HTTP 503")
	}
}

func TestFastProviderConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  completion.FastConfig
	}{
		{"missing base url", completion.FastConfig{Model: "m"}},
		{"missing model", completion.FastConfig{BaseURL: "http://localhost"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := completion.NewFastProvider(tt.cfg); err == nil {
				t.Error("NewFastProvider() expected error")
			}
		})
	}
}
