package completion

import (
	"context"
	"fmt"
	"time"

	"github.com/clinicore/assistant/classify"
	"github.com/clinicore/assistant/core/protocol"
	"github.com/clinicore/assistant/observability"
)

// EventFallback is emitted when the deep backend fails before producing
// content and the request is re-issued to the fast backend.
const EventFallback observability.EventType = "completion.fallback"

// Client routes a completion request to the backend picked by the classifier
// and applies the fallback policy: a deep backend that fails before producing
// any content is retried on the fast backend exactly once, and that first
// failure is never surfaced to the caller. When the fast backend fails, as
// primary or as fallback, the turn fails with ErrUnavailable.
//
// A deep stream that fails after its first delta is not retried: content has
// already reached the caller, and replaying from the fast backend would
// duplicate it.
type Client struct {
	fast     Provider
	deep     Provider
	observer observability.Observer
}

// NewClient creates a Client over the two backends.
func NewClient(fast, deep Provider, observer observability.Observer) *Client {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	return &Client{fast: fast, deep: deep, observer: observer}
}

// Complete returns the full reply text from the tier's backend, applying the
// fallback policy.
func (c *Client) Complete(ctx context.Context, tier classify.Tier, history []protocol.Message, systemPrompt string) (string, error) {
	if tier == classify.TierDeep {
		text, err := c.deep.Complete(ctx, history, systemPrompt)
		if err == nil {
			return text, nil
		}
		c.fallback(ctx, err)
	}

	text, err := c.fast.Complete(ctx, history, systemPrompt)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnavailable, c.fast.Name(), err)
	}
	return text, nil
}

// CompleteStream streams the reply through onDelta and returns the complete
// text. Deltas are forwarded in arrival order and accumulated is always the
// concatenation of all deltas seen so far, regardless of which backend
// produced them.
func (c *Client) CompleteStream(ctx context.Context, tier classify.Tier, history []protocol.Message, systemPrompt string, onDelta DeltaFunc) (string, error) {
	if tier == classify.TierDeep {
		started := false
		guarded := func(delta, accumulated string) {
			started = true
			if onDelta != nil {
				onDelta(delta, accumulated)
			}
		}

		text, err := c.deep.CompleteStream(ctx, history, systemPrompt, guarded)
		if err == nil {
			return text, nil
		}
		if started {
			// Content already surfaced; retrying would duplicate it.
			return text, fmt.Errorf("%w: %s: %v", ErrUnavailable, c.deep.Name(), err)
		}
		c.fallback(ctx, err)
	}

	text, err := c.fast.CompleteStream(ctx, history, systemPrompt, onDelta)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnavailable, c.fast.Name(), err)
	}
	return text, nil
}

func (c *Client) fallback(ctx context.Context, cause error) {
	c.observer.OnEvent(ctx, observability.Event{
		Type:      EventFallback,
		Level:     observability.LevelWarning,
		Timestamp: time.Now(),
		Source:    "completion.Client",
		Data: map[string]any{
			"from":  c.deep.Name(),
			"to":    c.fast.Name(),
			"error": cause.Error(),
		},
	})
}
