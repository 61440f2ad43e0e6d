package session

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/clinicore/assistant/completion"
)

const (
	defaultHistoryWindow = 20
	defaultSystemPrompt  = "You are the clinic assistant. Answer in the user's language. " +
		"When the user asks you to change something, reply with normal prose and emit one " +
		"```json block per action, each carrying an \"action\" key."
)

// Config holds initialization parameters for the session manager and its
// subsystems.
type Config struct {
	// ScopeID is the clinic scope that owns conversations created by this
	// manager.
	ScopeID string `json:"scope_id"`
	// SystemPrompt is the base system prompt; the grounding bundle is
	// appended per turn.
	SystemPrompt string `json:"system_prompt,omitempty"`
	// HistoryWindow limits how many trailing messages are replayed to the
	// model. 0 means the default window.
	HistoryWindow int `json:"history_window,omitempty"`
	// Observer names a registered observer ("slog", "noop").
	Observer string `json:"observer,omitempty"`
	// StorePath, when set, backs conversations with SQLite at this path;
	// empty means in-memory.
	StorePath string `json:"store_path,omitempty"`

	Fast completion.FastConfig `json:"fast"`
	Deep completion.DeepConfig `json:"deep"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SystemPrompt:  defaultSystemPrompt,
		HistoryWindow: defaultHistoryWindow,
		Observer:      "slog",
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.ScopeID != "" {
		c.ScopeID = source.ScopeID
	}
	if source.SystemPrompt != "" {
		c.SystemPrompt = source.SystemPrompt
	}
	if source.HistoryWindow > 0 {
		c.HistoryWindow = source.HistoryWindow
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
	if source.StorePath != "" {
		c.StorePath = source.StorePath
	}
	if source.Fast.BaseURL != "" {
		c.Fast = source.Fast
	}
	if source.Deep.Model != "" {
		c.Deep = source.Deep
	}
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
