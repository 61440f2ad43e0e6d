package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/clinicore/assistant/action"
	"github.com/clinicore/assistant/session"
)

// clinicState is the CLI's stand-in for the clinic backend. A deployed host
// registers handlers that call its own services instead.
type clinicState struct {
	mu          sync.Mutex
	colorScheme string
	features    map[string]bool
	patients    []string
}

func registerClinicActions(manager *session.Manager) {
	state := &clinicState{
		colorScheme: "teal",
		features:    map[string]bool{"online_booking": false, "sms_reminders": true},
	}
	registry := manager.Registry()

	must(registry.Register("set_color_scheme", state.handleSetColorScheme))
	must(registry.Register("toggle_online_booking", state.handleToggleOnlineBooking))
	must(registry.Register("create_patient", state.handleCreatePatient))
	must(registry.Register("create_appointment", state.handleCreateAppointment))
	must(registry.Register("reset_settings", state.handleResetSettings))
}

func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("failed to register action: %v", err))
	}
}

func (s *clinicState) handleSetColorScheme(_ context.Context, raw json.RawMessage) (action.Result, error) {
	var args struct {
		Color string `json:"color"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return action.Result{}, fmt.Errorf("invalid arguments: %w", err)
	}
	if args.Color == "" {
		return action.Result{}, fmt.Errorf("color is required")
	}

	s.mu.Lock()
	s.colorScheme = args.Color
	s.mu.Unlock()
	return action.Result{Message: "color scheme set to " + args.Color}, nil
}

func (s *clinicState) handleToggleOnlineBooking(_ context.Context, raw json.RawMessage) (action.Result, error) {
	var args struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return action.Result{}, fmt.Errorf("invalid arguments: %w", err)
	}

	s.mu.Lock()
	if args.Enabled != nil {
		s.features["online_booking"] = *args.Enabled
	} else {
		s.features["online_booking"] = !s.features["online_booking"]
	}
	enabled := s.features["online_booking"]
	s.mu.Unlock()

	if enabled {
		return action.Result{Message: "online booking enabled"}, nil
	}
	return action.Result{Message: "online booking disabled"}, nil
}

func (s *clinicState) handleCreatePatient(_ context.Context, raw json.RawMessage) (action.Result, error) {
	var args struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return action.Result{}, fmt.Errorf("invalid arguments: %w", err)
	}
	if args.Name == "" {
		return action.Result{}, fmt.Errorf("name is required")
	}

	s.mu.Lock()
	s.patients = append(s.patients, args.Name)
	count := len(s.patients)
	s.mu.Unlock()

	return action.Result{
		Payload: map[string]any{"patient_count": count},
		Message: "patient " + args.Name + " registered",
	}, nil
}

func (s *clinicState) handleCreateAppointment(_ context.Context, raw json.RawMessage) (action.Result, error) {
	var args struct {
		Patient string `json:"patient"`
		Time    string `json:"time"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return action.Result{}, fmt.Errorf("invalid arguments: %w", err)
	}
	if args.Patient == "" {
		return action.Result{}, fmt.Errorf("patient is required")
	}

	when := args.Time
	if when == "" {
		when = time.Now().Format("2006-01-02 15:04")
	}
	return action.Result{Message: "appointment for " + args.Patient + " booked at " + when}, nil
}

func (s *clinicState) handleResetSettings(_ context.Context, _ json.RawMessage) (action.Result, error) {
	s.mu.Lock()
	s.colorScheme = "teal"
	s.features = map[string]bool{"online_booking": false, "sms_reminders": true}
	s.mu.Unlock()
	return action.Result{Message: "settings restored to defaults"}, nil
}
