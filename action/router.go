package action

import (
	"strings"
	"sync"

	"github.com/clinicore/assistant/cache"
)

// Router maps a successfully executed action to the client cache regions it
// dirties. Lookup tries an exact name match first, then the longest matching
// name prefix. Unknown actions map to no regions.
type Router struct {
	mu       sync.RWMutex
	exact    map[string][]cache.Region
	prefixes map[string][]cache.Region
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{
		exact:    make(map[string][]cache.Region),
		prefixes: make(map[string][]cache.Region),
	}
}

// DefaultRouter returns a Router preloaded with the clinic action table.
func DefaultRouter() *Router {
	r := NewRouter()

	r.RoutePrefix("patient", cache.RegionPatients, cache.RegionDashboard)
	r.RoutePrefix("appointment", cache.RegionAppointments, cache.RegionDashboard)
	r.RoutePrefix("create_patient", cache.RegionPatients, cache.RegionDashboard)
	r.RoutePrefix("create_appointment", cache.RegionAppointments, cache.RegionDashboard)
	r.RoutePrefix("toggle", cache.RegionSettings)
	r.RoutePrefix("set_", cache.RegionSettings)
	r.Route("reset_settings", cache.AllRegions()...)

	return r
}

// Route maps an exact action name to regions.
func (r *Router) Route(name string, regions ...cache.Region) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exact[name] = regions
}

// RoutePrefix maps every action whose name starts with prefix to regions.
func (r *Router) RoutePrefix(prefix string, regions ...cache.Region) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefixes[prefix] = regions
}

// Regions returns the cache regions dirtied by the named action.
func (r *Router) Regions(name string) []cache.Region {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if regions, ok := r.exact[name]; ok {
		return regions
	}

	var best string
	var regions []cache.Region
	for prefix, mapped := range r.prefixes {
		if strings.HasPrefix(name, prefix) && len(prefix) > len(best) {
			best = prefix
			regions = mapped
		}
	}
	return regions
}
