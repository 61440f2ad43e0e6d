// Package action turns raw completion text into typed commands and runs them
// against a handler registry with per-command failure isolation. The action
// set is closed: every name the model may emit has a registered handler, and
// anything else is the distinct unknown-action failure, never a default
// handler.
package action

import "encoding/json"

// Command is one instruction extracted from model text. Data is the raw JSON
// object of the block; each handler validates its own payload shape at the
// boundary. Commands are ephemeral per turn and never persisted.
type Command struct {
	Name string
	Data json.RawMessage
}

// Status classifies one command outcome.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Outcome is the recorded result of executing one command.
type Outcome struct {
	Command Command
	Status  Status
	// Payload is the handler's success payload; nil on error.
	Payload any
	// Message is the user-facing text: the handler's message on success,
	// the failure reason on error.
	Message string
}

// Ledger is the ordered list of outcomes for one turn, exactly one entry per
// input command. It is surfaced as notifications and then discarded, never
// stored with the assistant message.
type Ledger []Outcome

// Succeeded counts success entries.
func (l Ledger) Succeeded() int {
	n := 0
	for _, o := range l {
		if o.Status == StatusSuccess {
			n++
		}
	}
	return n
}

// Failed counts error entries.
func (l Ledger) Failed() int {
	return len(l) - l.Succeeded()
}
