package action_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/clinicore/assistant/action"
)

func okHandler(_ context.Context, data json.RawMessage) (action.Result, error) {
	return action.Result{Payload: string(data)}, nil
}

func TestRegistryRegister(t *testing.T) {
	tests := []struct {
		name    string
		action  string
		wantErr error
	}{
		{"valid", "toggle_online_booking", nil},
		{"empty name", "", action.ErrEmptyName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := action.NewRegistry()
			err := r.Register(tt.action, okHandler)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Errorf("Register() unexpected error: %v", err)
			}
		})
	}
}

func TestRegistryDuplicateAndReplace(t *testing.T) {
	r := action.NewRegistry()

	if err := r.Register("set_color_scheme", okHandler); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	if err := r.Register("set_color_scheme", okHandler); !errors.Is(err, action.ErrAlreadyExists) {
		t.Errorf("duplicate Register() error = %v, want ErrAlreadyExists", err)
	}

	if err := r.Replace("set_color_scheme", okHandler); err != nil {
		t.Errorf("Replace() unexpected error: %v", err)
	}
	if err := r.Replace("never_registered", okHandler); !errors.Is(err, action.ErrNotFound) {
		t.Errorf("Replace(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestRegistryGetAndList(t *testing.T) {
	r := action.NewRegistry()
	for _, name := range []string{"b_action", "a_action", "c_action"} {
		if err := r.Register(name, okHandler); err != nil {
			t.Fatalf("Register(%q) unexpected error: %v", name, err)
		}
	}

	if _, ok := r.Get("a_action"); !ok {
		t.Error("Get(a_action) not found")
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) unexpectedly found")
	}

	if diff := cmp.Diff([]string{"a_action", "b_action", "c_action"}, r.List()); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}
