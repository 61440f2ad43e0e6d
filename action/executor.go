package action

import (
	"context"
	"fmt"
	"time"

	"github.com/clinicore/assistant/cache"
	"github.com/clinicore/assistant/observability"
)

// Executor events.
const (
	EventExecute  observability.EventType = "action.execute"
	EventComplete observability.EventType = "action.complete"
)

// Notification is one user-visible message about a command outcome.
type Notification struct {
	Level   observability.Level
	Action  string
	Text    string
	Success bool
}

// Notifier surfaces per-command notifications to the user. Implementations
// must not block the send cycle.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Executor runs extracted commands against the registry. Commands execute
// sequentially, in input order, because later commands may depend on earlier
/// side effects. One failing command never stops its siblings: the ledger has
// exactly one entry per input command.
type Executor struct {
	registry *Registry
	router   *Router
	regions  *cache.Regions
	notifier Notifier
	observer observability.Observer
}

// NewExecutor creates an Executor. router, regions, notifier, and observer
// may be nil; nil collaborators are skipped.
func NewExecutor(registry *Registry, router *Router, regions *cache.Regions, notifier Notifier, observer observability.Observer) *Executor {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	return &Executor{
		registry: registry,
		router:   router,
		regions:  regions,
		notifier: notifier,
		observer: observer,
	}
}

// ExecuteAll runs commands sequentially and returns their ledger. It never
// returns an error: unknown actions and handler failures become error
// outcomes. Duplicate commands all execute. After each successful command the
// router's regions are marked stale, and one notification is emitted per
// outcome in ledger order.
func (e *Executor) ExecuteAll(ctx context.Context, commands []Command) Ledger {
	ledger := make(Ledger, 0, len(commands))

	for _, cmd := range commands {
		e.observer.OnEvent(ctx, observability.Event{
			Type:      EventExecute,
			Level:     observability.LevelVerbose,
			Timestamp: time.Now(),
			Source:    "action.ExecuteAll",
			Data:      map[string]any{"action": cmd.Name},
		})

		outcome := e.execute(ctx, cmd)
		ledger = append(ledger, outcome)

		if outcome.Status == StatusSuccess && e.router != nil && e.regions != nil {
			e.regions.MarkStale(e.router.Regions(cmd.Name)...)
		}

		e.observer.OnEvent(ctx, observability.Event{
			Type:      EventComplete,
			Level:     observability.LevelVerbose,
			Timestamp: time.Now(),
			Source:    "action.ExecuteAll",
			Data:      map[string]any{"action": cmd.Name, "status": string(outcome.Status)},
		})

		e.notify(ctx, outcome)
	}

	return ledger
}

func (e *Executor) execute(ctx context.Context, cmd Command) Outcome {
	handler, ok := e.registry.Get(cmd.Name)
	if !ok {
		return Outcome{Command: cmd, Status: StatusError, Message: "unknown_action"}
	}

	result, err := e.invoke(ctx, handler, cmd)
	if err != nil {
		return Outcome{Command: cmd, Status: StatusError, Message: err.Error()}
	}

	message := result.Message
	if message == "" {
		message = cmd.Name + " completed"
	}
	return Outcome{Command: cmd, Status: StatusSuccess, Payload: result.Payload, Message: message}
}

// invoke shields the cycle from a panicking handler; the panic becomes that
// command's error outcome.
func (e *Executor) invoke(ctx context.Context, handler Handler, cmd Command) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{}
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler(ctx, cmd.Data)
}

func (e *Executor) notify(ctx context.Context, outcome Outcome) {
	if e.notifier == nil {
		return
	}

	level := observability.LevelInfo
	if outcome.Status == StatusError {
		level = observability.LevelError
	}
	e.notifier.Notify(ctx, Notification{
		Level:   level,
		Action:  outcome.Command.Name,
		Text:    outcome.Message,
		Success: outcome.Status == StatusSuccess,
	})
}
