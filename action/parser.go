package action

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Parsed is the result of splitting a completion reply into display text and
// commands.
type Parsed struct {
	// DisplayText is the reply with every command block removed. This is
	// the only part of the reply that gets persisted or shown.
	DisplayText string
	// Commands holds the recognized commands in left-to-right order of
	// appearance. Duplicates are preserved.
	Commands []Command
}

const (
	openFence  = "```json"
	closeFence = "```"
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Parse extracts action commands from raw completion text. The model emits
// commands as fenced ```json blocks whose object carries an "action" key.
//
// Parse never fails, whatever the input: no blocks, interleaved blocks, or a
// truncated final block all produce a well-formed result. Malformed blocks
// (invalid JSON, missing "action", or an unterminated fence) are dropped from
// the command list AND stripped from DisplayText; the raw block syntax is
// model-facing noise that must never reach the user. Recognized block syntax
// never appears in DisplayText either.
func Parse(responseText string) Parsed {
	var display strings.Builder
	var commands []Command

	rest := responseText
	for {
		start := strings.Index(rest, openFence)
		if start < 0 {
			display.WriteString(rest)
			break
		}

		display.WriteString(rest[:start])
		after := rest[start+len(openFence):]

		end := strings.Index(after, closeFence)
		if end < 0 {
			// Truncated block: the fence never closes, so everything
			// after it is command syntax, not prose. Strip it.
			break
		}

		block := strings.TrimSpace(after[:end])
		rest = after[end+len(closeFence):]

		if cmd, ok := parseCommand(block); ok {
			commands = append(commands, cmd)
		}
	}

	text := strings.TrimSpace(display.String())
	text = blankRuns.ReplaceAllString(text, "\n\n")

	return Parsed{DisplayText: text, Commands: commands}
}

func parseCommand(block string) (Command, bool) {
	var probe struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal([]byte(block), &probe); err != nil {
		return Command{}, false
	}
	if probe.Action == "" {
		return Command{}, false
	}

	return Command{Name: probe.Action, Data: json.RawMessage(block)}, true
}
