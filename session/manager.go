// Package session implements the conversation session manager that composes
// classifier, grounding assembler, completion client, parser, and executor
// into one send cycle: persist user message, classify and route, complete,
// parse, execute, persist assistant message, invalidate caches.
//
// The manager initializes from configuration via New, creating all subsystems
// internally. Functional options allow hosts and tests to override any
// subsystem.
//
//	m, err := session.New(ctx, &cfg)
//	conv, err := m.NewConversation(ctx, "Front desk")
//	reply, err := m.SendMessage(ctx, "غير لون النظام للأزرق")
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/assistant/action"
	"github.com/clinicore/assistant/cache"
	"github.com/clinicore/assistant/classify"
	"github.com/clinicore/assistant/completion"
	"github.com/clinicore/assistant/conversation"
	"github.com/clinicore/assistant/core/protocol"
	"github.com/clinicore/assistant/grounding"
	"github.com/clinicore/assistant/observability"
)

// Completer abstracts the dual-provider completion client for testability.
type Completer interface {
	Complete(ctx context.Context, tier classify.Tier, history []protocol.Message, systemPrompt string) (string, error)
	CompleteStream(ctx context.Context, tier classify.Tier, history []protocol.Message, systemPrompt string, onDelta completion.DeltaFunc) (string, error)
}

// Executor abstracts command execution. The default implementation is
// action.Executor.
type Executor interface {
	ExecuteAll(ctx context.Context, commands []action.Command) action.Ledger
}

// Assembler abstracts grounding assembly. The default implementation is
// grounding.Assembler.
type Assembler interface {
	Assemble(ctx context.Context) grounding.Bundle
}

// Reply is the outcome of one completed send cycle.
type Reply struct {
	UserMessage      conversation.Message
	AssistantMessage conversation.Message
	// DisplayText is the assistant reply with command syntax stripped; it
	// equals AssistantMessage.Content.
	DisplayText string
	// Ledger holds the per-command outcomes for this turn. It is not
	// persisted; surface it and let it go.
	Ledger action.Ledger
	// Tier records which backend tier served the turn.
	Tier classify.Tier
}

// SendOptions tunes one send cycle.
type SendOptions struct {
	// ForceDeep routes to the deep backend regardless of classification.
	ForceDeep bool
	// OnDelta, when set, streams the raw reply as it arrives. Streaming is
	// cosmetic: the cycle's semantics are identical either way.
	OnDelta completion.DeltaFunc
}

// Option configures a Manager after config-driven initialization.
type Option func(*Manager)

// WithStore overrides the config-created conversation store.
func WithStore(s conversation.Store) Option {
	return func(m *Manager) { m.store = s }
}

// WithCompleter overrides the config-created completion client.
func WithCompleter(c Completer) Option {
	return func(m *Manager) { m.completer = c }
}

// WithClassifier overrides the default pattern classifier.
func WithClassifier(c classify.Classifier) Option {
	return func(m *Manager) { m.classifier = c }
}

// WithAssembler overrides the default (empty) grounding assembler.
func WithAssembler(a Assembler) Option {
	return func(m *Manager) { m.assembler = a }
}

// WithExecutor overrides the default executor entirely.
func WithExecutor(e Executor) Option {
	return func(m *Manager) { m.executor = e }
}

// WithNotifier sets the notifier the default executor emits through.
func WithNotifier(n action.Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithObserver overrides the config-selected observer.
func WithObserver(o observability.Observer) Option {
	return func(m *Manager) { m.observer = o }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager owns the active conversation and runs send cycles against it.
// Multiple UI surfaces share one Manager instance explicitly; there is no
// ambient global session state. Same-conversation sends are serialized by
// rejection (ErrConversationBusy); sends for different conversations run
// concurrently.
type Manager struct {
	id         string
	scopeID    string
	store      conversation.Store
	completer  Completer
	classifier classify.Classifier
	assembler  Assembler
	executor   Executor
	registry   *action.Registry
	router     *action.Router
	notifier   action.Notifier
	messages   *cache.Messages
	regions    *cache.Regions
	observer   observability.Observer
	now        func() time.Time

	systemPrompt  string
	historyWindow int

	mu       sync.Mutex
	active   string
	inflight map[string]bool
	phases   map[string]Phase
}

// New creates a Manager from configuration. Subsystems are initialized from
// their config sections; functional options applied afterwards can override
// any of them. The context is only used to construct the deep backend client.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Manager, error) {
	observer := observability.Observer(observability.NoOpObserver{})
	if cfg.Observer != "" {
		named, err := observability.GetObserver(cfg.Observer)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve observer: %w", err)
		}
		observer = named
	}

	m := &Manager{
		id:            uuid.Must(uuid.NewV7()).String(),
		scopeID:       cfg.ScopeID,
		classifier:    classify.NewPatternClassifier(),
		registry:      action.NewRegistry(),
		router:        action.DefaultRouter(),
		messages:      cache.NewMessages(),
		regions:       cache.NewRegions(),
		observer:      observer,
		now:           time.Now,
		systemPrompt:  cfg.SystemPrompt,
		historyWindow: cfg.HistoryWindow,
		inflight:      make(map[string]bool),
		phases:        make(map[string]Phase),
	}
	if m.historyWindow <= 0 {
		m.historyWindow = defaultHistoryWindow
	}

	if cfg.Fast.BaseURL != "" {
		fast, err := completion.NewFastProvider(cfg.Fast)
		if err != nil {
			return nil, fmt.Errorf("failed to create fast provider: %w", err)
		}

		var deep completion.Provider = fast
		if cfg.Deep.Model != "" {
			deep, err = completion.NewDeepProvider(ctx, cfg.Deep)
			if err != nil {
				return nil, fmt.Errorf("failed to create deep provider: %w", err)
			}
		}
		m.completer = completion.NewClient(fast, deep, observer)
	}

	if cfg.StorePath != "" {
		store, err := conversation.OpenSQLStore(cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open conversation store: %w", err)
		}
		m.store = store
	} else {
		m.store = conversation.NewMemoryStore()
	}

	m.assembler = grounding.NewAssembler(nil, nil, observer)

	for _, opt := range opts {
		opt(m)
	}

	if m.completer == nil {
		return nil, ErrNoCompleter
	}
	if m.executor == nil {
		m.executor = action.NewExecutor(m.registry, m.router, m.regions, m.notifier, m.observer)
	}

	return m, nil
}

// Registry returns the action handler registry so hosts can register the
// closed action set.
func (m *Manager) Registry() *action.Registry { return m.registry }

// Regions returns the client cache region tracker.
func (m *Manager) Regions() *cache.Regions { return m.regions }

// Messages returns the local message cache for the given conversation.
func (m *Manager) Messages(conversationID string) []conversation.Message {
	return m.messages.Get(conversationID)
}

// ActiveConversation returns the currently selected conversation id, or "".
func (m *Manager) ActiveConversation() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// SelectConversation makes the given conversation the active one. In-flight
// cycles keep the conversation id they captured at send time.
func (m *Manager) SelectConversation(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = id
}

// Phase reports the send-cycle phase for a conversation. Conversations with
// no in-flight cycle are PhaseIdle.
func (m *Manager) Phase(conversationID string) Phase {
	m.mu.Lock()
	defer m.mu.Unlock()

	phase, ok := m.phases[conversationID]
	if !ok {
		return PhaseIdle
	}
	return phase
}

// NewConversation creates a conversation in the manager's scope, selects it,
// and dirties the conversation-list region.
func (m *Manager) NewConversation(ctx context.Context, title string) (conversation.Conversation, error) {
	conv, err := m.store.CreateConversation(ctx, m.scopeID, title)
	if err != nil {
		return conversation.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}

	m.messages.Replace(conv.ID, nil)
	m.SelectConversation(conv.ID)
	m.regions.MarkStale(cache.RegionConversations)
	return conv, nil
}

// ArchiveConversation archives a conversation and dirties the list region.
func (m *Manager) ArchiveConversation(ctx context.Context, id string) error {
	if err := m.store.ArchiveConversation(ctx, id); err != nil {
		return fmt.Errorf("archive conversation: %w", err)
	}
	m.regions.MarkStale(cache.RegionConversations)
	return nil
}

// DeleteConversation removes a conversation, drops its cached messages, and
// clears the selection when it was active.
func (m *Manager) DeleteConversation(ctx context.Context, id string) error {
	if err := m.store.DeleteConversation(ctx, id); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}

	m.messages.Drop(id)
	m.mu.Lock()
	if m.active == id {
		m.active = ""
	}
	m.mu.Unlock()

	m.regions.MarkStale(cache.RegionConversations)
	return nil
}

// RenameConversation updates a conversation title and dirties the list region.
func (m *Manager) RenameConversation(ctx context.Context, id, title string) error {
	if err := m.store.UpdateConversationTitle(ctx, id, title); err != nil {
		return fmt.Errorf("rename conversation: %w", err)
	}
	m.regions.MarkStale(cache.RegionConversations)
	return nil
}

// SendMessage runs one send cycle against the active conversation with
// default options.
func (m *Manager) SendMessage(ctx context.Context, content string) (*Reply, error) {
	return m.Send(ctx, content, SendOptions{})
}

// Send runs one send cycle. The conversation id is captured here and the
// whole cycle binds to it, regardless of later selection changes. Empty
// content or no active conversation is a pure no-op. A conversation with a
// cycle already in flight rejects the send with ErrConversationBusy.
func (m *Manager) Send(ctx context.Context, content string, opts SendOptions) (*Reply, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	m.mu.Lock()
	convID := m.active
	if convID == "" {
		m.mu.Unlock()
		return nil, ErrNoActiveConversation
	}
	if m.inflight[convID] {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrConversationBusy, convID)
	}
	m.inflight[convID] = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.inflight, convID)
		m.mu.Unlock()
	}()

	return m.run(ctx, convID, content, opts)
}

func (m *Manager) run(ctx context.Context, convID, content string, opts SendOptions) (*Reply, error) {
	m.observer.OnEvent(ctx, observability.Event{
		Type:      EventSendStart,
		Level:     observability.LevelInfo,
		Timestamp: m.now(),
		Source:    "session.Send",
		Data:      map[string]any{"conversation_id": convID, "content_length": len(content)},
	})

	// Hydrate the local cache before the optimistic append so a later
	// Replace cannot clobber it.
	if !m.messages.Has(convID) {
		stored, err := m.store.GetMessages(ctx, convID)
		if err != nil {
			return nil, m.fatal(ctx, convID, fmt.Errorf("load history: %w", err))
		}
		m.messages.Replace(convID, stored)
	}

	userMsg := conversation.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: convID,
		Role:           protocol.RoleUser,
		Content:        content,
		CreatedAt:      m.now(),
	}
	m.messages.Append(convID, userMsg)

	// Persist before any completion call: an unpersisted message never
	// reaches the model. The optimistic copy is not rolled back on failure.
	stored, err := m.store.SaveMessage(ctx, convID, protocol.RoleUser, content)
	if err != nil {
		return nil, m.fatal(ctx, convID, fmt.Errorf("persist user message: %w", err))
	}
	m.replaceLast(convID, stored)
	userMsg = stored

	m.setPhase(ctx, convID, PhaseAwaitingCompletion)

	tier := m.classifier.Classify(content, opts.ForceDeep)
	bundle := m.assembler.Assemble(ctx)
	systemPrompt := strings.TrimSpace(m.systemPrompt + "\n\n" + bundle.Render())
	history := m.history(convID)

	var raw string
	if opts.OnDelta != nil {
		raw, err = m.completer.CompleteStream(ctx, tier, history, systemPrompt, opts.OnDelta)
	} else {
		raw, err = m.completer.Complete(ctx, tier, history, systemPrompt)
	}
	if err != nil {
		return nil, m.fatal(ctx, convID, fmt.Errorf("completion: %w", err))
	}

	m.setPhase(ctx, convID, PhaseExecutingCommands)

	parsed := action.Parse(raw)
	ledger := m.executor.ExecuteAll(ctx, parsed.Commands)

	m.setPhase(ctx, convID, PhasePersisting)

	assistantMsg, err := m.store.SaveMessage(ctx, convID, protocol.RoleAssistant, parsed.DisplayText)
	if err != nil {
		return nil, m.fatal(ctx, convID, fmt.Errorf("persist assistant message: %w", err))
	}
	m.messages.Append(convID, assistantMsg)

	m.regions.MarkStale(cache.RegionConversations)

	m.setPhase(ctx, convID, PhaseIdle)
	m.observer.OnEvent(ctx, observability.Event{
		Type:      EventSendComplete,
		Level:     observability.LevelInfo,
		Timestamp: m.now(),
		Source:    "session.Send",
		Data: map[string]any{
			"conversation_id": convID,
			"tier":            string(tier),
			"commands":        len(parsed.Commands),
			"failed_commands": ledger.Failed(),
		},
	})

	return &Reply{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		DisplayText:      parsed.DisplayText,
		Ledger:           ledger,
		Tier:             tier,
	}, nil
}

// history converts the trailing window of cached messages to the chat wire
// format.
func (m *Manager) history(convID string) []protocol.Message {
	cached := m.messages.Get(convID)
	if len(cached) > m.historyWindow {
		cached = cached[len(cached)-m.historyWindow:]
	}

	history := make([]protocol.Message, 0, len(cached))
	for _, msg := range cached {
		history = append(history, protocol.NewMessage(msg.Role, msg.Content))
	}
	return history
}

func (m *Manager) replaceLast(convID string, msg conversation.Message) {
	cached := m.messages.Get(convID)
	if len(cached) == 0 {
		return
	}
	cached[len(cached)-1] = msg
	m.messages.Replace(convID, cached)
}

func (m *Manager) setPhase(ctx context.Context, convID string, phase Phase) {
	m.mu.Lock()
	if phase == PhaseIdle {
		delete(m.phases, convID)
	} else {
		m.phases[convID] = phase
	}
	m.mu.Unlock()

	m.observer.OnEvent(ctx, observability.Event{
		Type:      EventPhase,
		Level:     observability.LevelVerbose,
		Timestamp: m.now(),
		Source:    "session.Send",
		Data:      map[string]any{"conversation_id": convID, "phase": string(phase)},
	})
}

// fatal records an unrecoverable cycle failure: the phase passes through
// PhaseError and settles back on PhaseIdle so the user can retry.
func (m *Manager) fatal(ctx context.Context, convID string, err error) error {
	m.setPhase(ctx, convID, PhaseError)
	m.observer.OnEvent(ctx, observability.Event{
		Type:      EventSendError,
		Level:     observability.LevelError,
		Timestamp: m.now(),
		Source:    "session.Send",
		Data:      map[string]any{"conversation_id": convID, "error": err.Error()},
	})
	m.setPhase(ctx, convID, PhaseIdle)

	return fmt.Errorf("session: %w", err)
}
