// Package cache holds the client-visible caches the engine keeps consistent:
// named regions of domain data that go stale when commands mutate them, and
// the optimistic per-conversation message cache. Invalidation is eventually
// consistent: regions are marked dirty and refetched lazily on next read,
// never flushed transactionally.
package cache

import (
	"sync"
)

// Region names a client cache area that domain actions can dirty.
type Region string

const (
	RegionPatients      Region = "patients"
	RegionAppointments  Region = "appointments"
	RegionSettings      Region = "settings"
	RegionDashboard     Region = "dashboard"
	RegionConversations Region = "conversations"
)

// AllRegions lists every known region, for actions that reset broad state.
func AllRegions() []Region {
	return []Region{
		RegionPatients,
		RegionAppointments,
		RegionSettings,
		RegionDashboard,
		RegionConversations,
	}
}

// Regions tracks staleness per region. Readers check IsStale before trusting
// cached domain data and call Clear once they have refetched. Safe for
// concurrent use.
type Regions struct {
	mu    sync.RWMutex
	dirty map[Region]bool
}

// NewRegions creates a Regions tracker with every region clean.
func NewRegions() *Regions {
	return &Regions{dirty: make(map[Region]bool)}
}

// MarkStale flags the given regions dirty. Marking an already-dirty region is
// a no-op.
func (r *Regions) MarkStale(regions ...Region) {
	if len(regions) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, region := range regions {
		r.dirty[region] = true
	}
}

// IsStale reports whether a region has been invalidated since its last Clear.
func (r *Regions) IsStale(region Region) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dirty[region]
}

// Clear marks a region clean again, after the caller refetched it.
func (r *Regions) Clear(region Region) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.dirty, region)
}

// Stale returns the currently dirty regions in unspecified order.
func (r *Regions) Stale() []Region {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stale := make([]Region, 0, len(r.dirty))
	for region := range r.dirty {
		stale = append(stale, region)
	}
	return stale
}
