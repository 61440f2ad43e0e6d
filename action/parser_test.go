package action_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/clinicore/assistant/action"
)

func TestParseEmpty(t *testing.T) {
	got := action.Parse("")
	if got.DisplayText != "" {
		t.Errorf("DisplayText = %q, want empty", got.DisplayText)
	}
	if len(got.Commands) != 0 {
		t.Errorf("Commands = %d entries, want 0", len(got.Commands))
	}
}

func TestParsePlainText(t *testing.T) {
	text := "Your clinic has 8 appointments today."
	got := action.Parse(text)
	if got.DisplayText != text {
		t.Errorf("DisplayText = %q, want input unchanged", got.DisplayText)
	}
	if len(got.Commands) != 0 {
		t.Errorf("Commands = %d entries, want 0", len(got.Commands))
	}
}

func TestParseSingleCommand(t *testing.T) {
	text := "Done, changing the color now.\n```json\n{\"action\":\"set_color_scheme\",\"color\":\"blue\"}\n```\nAnything else?"
	got := action.Parse(text)

	if len(got.Commands) != 1 {
		t.Fatalf("Commands = %d entries, want 1", len(got.Commands))
	}
	if got.Commands[0].Name != "set_color_scheme" {
		t.Errorf("command name = %q, want set_color_scheme", got.Commands[0].Name)
	}
	if strings.Contains(got.DisplayText, "```") || strings.Contains(got.DisplayText, "set_color_scheme") {
		t.Errorf("command syntax leaked into DisplayText: %q", got.DisplayText)
	}
	for _, want := range []string{"Done, changing the color now.", "Anything else?"} {
		if !strings.Contains(got.DisplayText, want) {
			t.Errorf("DisplayText missing %q: %q", want, got.DisplayText)
		}
	}
}

func TestParseMalformedBetweenWellFormed(t *testing.T) {
	text := "First:\n" +
		"```json\n{\"action\":\"create_patient\",\"name\":\"Sara\"}\n```\n" +
		"Broken:\n" +
		"```json\n{\"action\": \"oops, not closed\n```\n" +
		"Second:\n" +
		"```json\n{\"action\":\"create_appointment\",\"patient\":\"Sara\"}\n```\n"

	got := action.Parse(text)

	names := make([]string, len(got.Commands))
	for i, cmd := range got.Commands {
		names[i] = cmd.Name
	}
	if diff := cmp.Diff([]string{"create_patient", "create_appointment"}, names); diff != "" {
		t.Errorf("command order mismatch (-want +got):\n%s", diff)
	}

	// The malformed block is stripped from the display text too.
	if strings.Contains(got.DisplayText, "oops") {
		t.Errorf("malformed block leaked into DisplayText: %q", got.DisplayText)
	}
}

func TestParseDuplicatesPreserved(t *testing.T) {
	block := "```json\n{\"action\":\"toggle_online_booking\",\"enabled\":true}\n```"
	got := action.Parse(block + "\n" + block)

	if len(got.Commands) != 2 {
		t.Fatalf("Commands = %d entries, want 2 (duplicates preserved)", len(got.Commands))
	}
	if got.Commands[0].Name != got.Commands[1].Name {
		t.Error("duplicate commands should be identical")
	}
}

func TestParseTruncatedBlock(t *testing.T) {
	text := "Creating the record now.\n```json\n{\"action\":\"create_patient\""
	got := action.Parse(text)

	if len(got.Commands) != 0 {
		t.Errorf("Commands = %d entries, want 0 for truncated block", len(got.Commands))
	}
	if got.DisplayText != "Creating the record now." {
		t.Errorf("DisplayText = %q, want prose before the truncated fence", got.DisplayText)
	}
}

func TestParseBlockWithoutActionKey(t *testing.T) {
	text := "Here is data:\n```json\n{\"patients\": 12}\n```"
	got := action.Parse(text)

	if len(got.Commands) != 0 {
		t.Errorf("Commands = %d entries, want 0 for block without action key", len(got.Commands))
	}
	if strings.Contains(got.DisplayText, "patients") {
		t.Errorf("non-action block should be stripped, got %q", got.DisplayText)
	}
}

func TestParseNeverPanics(t *testing.T) {
	inputs := []string{
		"```json",
		"``````json```",
		"```json```",
		"```json\n\n```",
		"```json\nnull\n```",
		"```json\n[1,2,3]\n```",
		strings.Repeat("```json\n{\"action\":\"x\"}\n```", 50),
	}

	for _, input := range inputs {
		// Parse must return normally for every input.
		_ = action.Parse(input)
	}
}
