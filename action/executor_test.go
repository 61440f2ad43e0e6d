package action_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/clinicore/assistant/action"
	"github.com/clinicore/assistant/cache"
)

func command(name string) action.Command {
	return action.Command{Name: name, Data: json.RawMessage(`{"action":"` + name + `"}`)}
}

func TestExecuteAllIsolation(t *testing.T) {
	registry := action.NewRegistry()
	var order []string

	register := func(name string, fail bool) {
		if err := registry.Register(name, func(_ context.Context, _ json.RawMessage) (action.Result, error) {
			order = append(order, name)
			if fail {
				return action.Result{}, errors.New("handler blew up")
			}
			return action.Result{}, nil
		}); err != nil {
			t.Fatalf("Register(%q) unexpected error: %v", name, err)
		}
	}
	register("first", false)
	register("second", true)
	register("third", false)

	e := action.NewExecutor(registry, nil, nil, nil, nil)
	ledger := e.ExecuteAll(context.Background(), []action.Command{
		command("first"), command("second"), command("third"),
	})

	if len(ledger) != 3 {
		t.Fatalf("ledger has %d entries, want 3", len(ledger))
	}

	statuses := []action.Status{ledger[0].Status, ledger[1].Status, ledger[2].Status}
	want := []action.Status{action.StatusSuccess, action.StatusError, action.StatusSuccess}
	if diff := cmp.Diff(want, statuses); diff != "" {
		t.Errorf("statuses mismatch (-want +got):\n%s", diff)
	}

	// The failing second command must not prevent the third from running.
	if diff := cmp.Diff([]string{"first", "second", "third"}, order); diff != "" {
		t.Errorf("execution order mismatch (-want +got):\n%s", diff)
	}
}

func TestExecuteAllUnknownAction(t *testing.T) {
	e := action.NewExecutor(action.NewRegistry(), nil, nil, nil, nil)
	ledger := e.ExecuteAll(context.Background(), []action.Command{command("nonexistent")})

	if len(ledger) != 1 {
		t.Fatalf("ledger has %d entries, want 1", len(ledger))
	}
	if ledger[0].Status != action.StatusError {
		t.Errorf("status = %v, want error", ledger[0].Status)
	}
	if ledger[0].Message != "unknown_action" {
		t.Errorf("message = %q, want unknown_action", ledger[0].Message)
	}
}

func TestExecuteAllPanickingHandler(t *testing.T) {
	registry := action.NewRegistry()
	if err := registry.Register("explode", func(_ context.Context, _ json.RawMessage) (action.Result, error) {
		panic("boom")
	}); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	if err := registry.Register("survive", func(_ context.Context, _ json.RawMessage) (action.Result, error) {
		return action.Result{Message: "still here"}, nil
	}); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	e := action.NewExecutor(registry, nil, nil, nil, nil)
	ledger := e.ExecuteAll(context.Background(), []action.Command{command("explode"), command("survive")})

	if ledger[0].Status != action.StatusError {
		t.Errorf("panicking handler status = %v, want error", ledger[0].Status)
	}
	if ledger[1].Status != action.StatusSuccess {
		t.Errorf("following handler status = %v, want success", ledger[1].Status)
	}
}

func TestExecuteAllMarksRegionsOnSuccessOnly(t *testing.T) {
	registry := action.NewRegistry()
	if err := registry.Register("create_patient", func(_ context.Context, _ json.RawMessage) (action.Result, error) {
		return action.Result{}, nil
	}); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	if err := registry.Register("create_appointment", func(_ context.Context, _ json.RawMessage) (action.Result, error) {
		return action.Result{}, errors.New("double booking")
	}); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	regions := cache.NewRegions()
	e := action.NewExecutor(registry, action.DefaultRouter(), regions, nil, nil)
	e.ExecuteAll(context.Background(), []action.Command{
		command("create_patient"),
		command("create_appointment"),
	})

	if !regions.IsStale(cache.RegionPatients) || !regions.IsStale(cache.RegionDashboard) {
		t.Error("successful patient action should dirty patients and dashboard")
	}
	if regions.IsStale(cache.RegionAppointments) {
		t.Error("failed appointment action must not dirty regions")
	}
}

func TestExecuteAllNotifications(t *testing.T) {
	registry := action.NewRegistry()
	if err := registry.Register("ok_action", func(_ context.Context, _ json.RawMessage) (action.Result, error) {
		return action.Result{Message: "done"}, nil
	}); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	var notes []action.Notification
	notifier := action.NotifierFunc(func(_ context.Context, n action.Notification) {
		notes = append(notes, n)
	})

	e := action.NewExecutor(registry, nil, nil, notifier, nil)
	e.ExecuteAll(context.Background(), []action.Command{
		command("ok_action"),
		command("missing_action"),
	})

	if len(notes) != 2 {
		t.Fatalf("got %d notifications, want exactly one per ledger entry", len(notes))
	}
	if !notes[0].Success || notes[0].Text != "done" {
		t.Errorf("first notification = %+v, want success with handler message", notes[0])
	}
	if notes[1].Success || notes[1].Text != "unknown_action" {
		t.Errorf("second notification = %+v, want failure with unknown_action", notes[1])
	}
}

func TestRouterPrefixMatching(t *testing.T) {
	r := action.DefaultRouter()

	tests := []struct {
		action string
		want   []cache.Region
	}{
		{"create_patient", []cache.Region{cache.RegionPatients, cache.RegionDashboard}},
		{"create_appointment", []cache.Region{cache.RegionAppointments, cache.RegionDashboard}},
		{"toggle_online_booking", []cache.Region{cache.RegionSettings}},
		{"set_color_scheme", []cache.Region{cache.RegionSettings}},
		{"reset_settings", cache.AllRegions()},
		{"unrelated_action", nil},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, r.Regions(tt.action)); diff != "" {
				t.Errorf("Regions(%q) mismatch (-want +got):\n%s", tt.action, diff)
			}
		})
	}
}
