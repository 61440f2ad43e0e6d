package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/clinicore/assistant/observability"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level observability.Level
		want  string
	}{
		{observability.LevelVerbose, "DEBUG"},
		{observability.LevelInfo, "INFO"},
		{observability.LevelWarning, "WARN"},
		{observability.LevelError, "ERROR"},
		{observability.Level(2), "TRACE"},
		{observability.Level(22), "FATAL"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestLevelSlogLevel(t *testing.T) {
	tests := []struct {
		level observability.Level
		want  slog.Level
	}{
		{observability.LevelVerbose, slog.LevelDebug},
		{observability.LevelInfo, slog.LevelInfo},
		{observability.LevelWarning, slog.LevelWarn},
		{observability.LevelError, slog.LevelError},
	}

	for _, tt := range tests {
		if got := tt.level.SlogLevel(); got != tt.want {
			t.Errorf("Level(%d).SlogLevel() = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestSlogObserverEmitsAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	obs := observability.NewSlogObserver(logger)

	obs.OnEvent(context.Background(), observability.Event{
		Type:      "session.send.start",
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "session.SendMessage",
		Data:      map[string]any{"conversation_id": "c-1"},
	})

	out := buf.String()
	for _, want := range []string{"session.send.start", "source=session.SendMessage", "conversation_id=c-1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

type countingObserver struct {
	calls int
}

func (o *countingObserver) OnEvent(ctx context.Context, event observability.Event) {
	o.calls++
}

func TestMultiObserverFansOut(t *testing.T) {
	a := &countingObserver{}
	b := &countingObserver{}

	multi := observability.NewMultiObserver(a, nil, b)
	multi.OnEvent(context.Background(), observability.Event{Type: "test"})

	if a.calls != 1 || b.calls != 1 {
		t.Errorf("observer calls = (%d, %d), want (1, 1)", a.calls, b.calls)
	}
}

func TestObserverRegistry(t *testing.T) {
	if _, err := observability.GetObserver("noop"); err != nil {
		t.Errorf("GetObserver(noop) unexpected error: %v", err)
	}
	if _, err := observability.GetObserver("slog"); err != nil {
		t.Errorf("GetObserver(slog) unexpected error: %v", err)
	}
	if _, err := observability.GetObserver("does-not-exist"); err == nil {
		t.Error("GetObserver(unknown) expected error")
	}

	custom := &countingObserver{}
	observability.RegisterObserver("counting", custom)
	got, err := observability.GetObserver("counting")
	if err != nil {
		t.Fatalf("GetObserver(counting) unexpected error: %v", err)
	}
	if got != observability.Observer(custom) {
		t.Error("GetObserver(counting) returned a different observer")
	}
}
