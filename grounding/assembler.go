// Package grounding assembles the auxiliary clinic data handed to the model
// before it generates a reply. A bundle is built fresh for every turn and
// never cached across turns.
package grounding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clinicore/assistant/observability"
)

// Stats holds aggregate usage counts for the clinic scope.
type Stats struct {
	Patients          int `json:"patients"`
	AppointmentsToday int `json:"appointments_today"`
	PendingInvoices   int `json:"pending_invoices"`
}

// Snapshot is the broader domain state used to ground the system prompt.
type Snapshot struct {
	ClinicName    string   `json:"clinic_name"`
	OpenFeatures  []string `json:"open_features"`
	ColorScheme   string   `json:"color_scheme"`
	UpcomingNames []string `json:"upcoming_names"`
}

// Bundle is the assembled grounding data for one turn.
type Bundle struct {
	Stats    Stats
	Snapshot Snapshot
}

// StatsSource reads aggregate usage statistics.
type StatsSource interface {
	Stats(ctx context.Context) (Stats, error)
}

// SnapshotSource reads the domain snapshot.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// Assembler gathers grounding data from independent read-only sources
// concurrently. Each read failure is absorbed locally and replaced with the
// zero value, so Assemble always returns a complete, typed bundle. Degraded
// reads are reported through the observer, never as errors.
type Assembler struct {
	stats    StatsSource
	snapshot SnapshotSource
	observer observability.Observer
}

// EventFetchDegraded is emitted once per failed source read.
const EventFetchDegraded observability.EventType = "grounding.fetch.degraded"

// NewAssembler creates an Assembler over the given sources. Either source may
// be nil, in which case its section of the bundle stays at the zero value.
func NewAssembler(stats StatsSource, snapshot SnapshotSource, observer observability.Observer) *Assembler {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	return &Assembler{stats: stats, snapshot: snapshot, observer: observer}
}

// Assemble issues all source reads concurrently and returns the bundle.
// It never fails: a read that returns an error or panics contributes its
// zero value.
func (a *Assembler) Assemble(ctx context.Context) Bundle {
	var bundle Bundle

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if a.stats == nil {
			return nil
		}
		stats, err := a.guardStats(ctx)
		if err != nil {
			a.degraded(ctx, "stats", err)
			return nil
		}
		bundle.Stats = stats
		return nil
	})

	g.Go(func() error {
		if a.snapshot == nil {
			return nil
		}
		snap, err := a.guardSnapshot(ctx)
		if err != nil {
			a.degraded(ctx, "snapshot", err)
			return nil
		}
		bundle.Snapshot = snap
		return nil
	})

	// Goroutines always return nil; Wait only synchronizes.
	_ = g.Wait()
	return bundle
}

func (a *Assembler) guardStats(ctx context.Context) (stats Stats, err error) {
	defer func() {
		if r := recover(); r != nil {
			stats = Stats{}
			err = fmt.Errorf("stats source panicked: %v", r)
		}
	}()
	return a.stats.Stats(ctx)
}

func (a *Assembler) guardSnapshot(ctx context.Context) (snap Snapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			snap = Snapshot{}
			err = fmt.Errorf("snapshot source panicked: %v", r)
		}
	}()
	return a.snapshot.Snapshot(ctx)
}

func (a *Assembler) degraded(ctx context.Context, source string, err error) {
	a.observer.OnEvent(ctx, observability.Event{
		Type:      EventFetchDegraded,
		Level:     observability.LevelWarning,
		Timestamp: time.Now(),
		Source:    "grounding.Assemble",
		Data:      map[string]any{"source": source, "error": err.Error()},
	})
}

// Render formats the bundle as a system prompt fragment. Counts are labeled
// best-effort: a degraded read is indistinguishable from an empty clinic, and
// the model should not treat zeros as authoritative.
func (b Bundle) Render() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Clinic overview (best-effort counts):\n")
	fmt.Fprintf(&sb, "- patients: %d\n", b.Stats.Patients)
	fmt.Fprintf(&sb, "- appointments today: %d\n", b.Stats.AppointmentsToday)
	fmt.Fprintf(&sb, "- pending invoices: %d\n", b.Stats.PendingInvoices)

	if b.Snapshot.ClinicName != "" {
		fmt.Fprintf(&sb, "Clinic name: %s\n", b.Snapshot.ClinicName)
	}
	if b.Snapshot.ColorScheme != "" {
		fmt.Fprintf(&sb, "Current color scheme: %s\n", b.Snapshot.ColorScheme)
	}
	if len(b.Snapshot.OpenFeatures) > 0 {
		fmt.Fprintf(&sb, "Enabled features: %s\n", strings.Join(b.Snapshot.OpenFeatures, ", "))
	}
	if len(b.Snapshot.UpcomingNames) > 0 {
		fmt.Fprintf(&sb, "Upcoming appointments: %s\n", strings.Join(b.Snapshot.UpcomingNames, ", "))
	}

	return sb.String()
}
