package session

import "github.com/clinicore/assistant/observability"

// Session event types emitted during a send cycle.
const (
	EventSendStart    observability.EventType = "session.send.start"
	EventPhase        observability.EventType = "session.send.phase"
	EventSendComplete observability.EventType = "session.send.complete"
	EventSendError    observability.EventType = "session.send.error"
)
