package session

// Phase is the send-cycle state for one conversation. A cycle moves
// Idle → AwaitingCompletion → ExecutingCommands → Persisting → Idle. Any
// phase transitions to PhaseError on an unrecoverable failure, after which
// the cycle returns to Idle so the user can retry manually. A single failed
// command never enters PhaseError; it is recorded in the ledger while the
// cycle proceeds to Persisting as usual.
type Phase string

const (
	PhaseIdle               Phase = "idle"
	PhaseAwaitingCompletion Phase = "awaiting_completion"
	PhaseExecutingCommands  Phase = "executing_commands"
	PhasePersisting         Phase = "persisting"
	PhaseError              Phase = "error"
)
