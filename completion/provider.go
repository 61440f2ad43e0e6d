// Package completion unifies the two chat completion backends behind one
// interface. The fast backend is an OpenAI-compatible HTTP endpoint speaking
// line-delimited SSE; the deep backend is the Gemini SDK with its native
// streaming sequence. Client adds tier routing and the deep-to-fast fallback
// policy on top.
package completion

import (
	"context"
	"errors"

	"github.com/clinicore/assistant/core/protocol"
)

// ErrUnavailable reports that no backend could complete the turn. The session
// manager treats it as fatal to the cycle; the user must retry.
var ErrUnavailable = errors.New("completion unavailable")

// DeltaFunc receives streamed text. delta is the newly arrived fragment and
// accumulated is the concatenation of every delta seen so far for this call,
// in strict arrival order.
type DeltaFunc func(delta, accumulated string)

// Provider is one completion backend. Both backends are capability
// equivalent; they differ only in latency, quality, and wire protocol.
type Provider interface {
	// Name identifies the backend in events and errors.
	Name() string
	// Complete returns the full reply text for the given history.
	Complete(ctx context.Context, history []protocol.Message, systemPrompt string) (string, error)
	// CompleteStream streams the reply through onDelta and returns the
	// complete accumulated text. onDelta may be nil.
	CompleteStream(ctx context.Context, history []protocol.Message, systemPrompt string, onDelta DeltaFunc) (string, error)
}
