package graph

import (
	"time"

	"github.com/dmarchand/quartermaster-go/internal/domain/catalog"
)

// RouteSettings restrict what an edge may carry. Empty sets restrict nothing.
type RouteSettings struct {
	RestrictedItems      map[string]bool
	RestrictedCategories map[catalog.Category]bool
}

// Edge is a directed supply route. Items flow source (provider) to target
// (consumer); demand propagates the other way.
type Edge struct {
	source            string
	target            string
	allowedItems      map[string]bool
	routeSettings     RouteSettings
	transportTime     *time.Duration
	productionProcess string
	userConfig        map[string]string
}

// NewEdge creates a route from provider to consumer. An empty allowedItems
// set allows everything.
func NewEdge(source, target string, allowedItems []string) *Edge {
	allowed := make(map[string]bool, len(allowedItems))
	for _, item := range allowedItems {
		allowed[item] = true
	}
	return &Edge{
		source:       source,
		target:       target,
		allowedItems: allowed,
		routeSettings: RouteSettings{
			RestrictedItems:      make(map[string]bool),
			RestrictedCategories: make(map[catalog.Category]bool),
		},
		userConfig: make(map[string]string),
	}
}

func (e *Edge) Source() string { return e.source }
func (e *Edge) Target() string { return e.target }

func (e *Edge) AllowedItems() []string {
	out := make([]string, 0, len(e.allowedItems))
	for item := range e.allowedItems {
		out = append(out, item)
	}
	return out
}

func (e *Edge) RouteSettings() RouteSettings  { return e.routeSettings }
func (e *Edge) TransportTime() *time.Duration { return e.transportTime }
func (e *Edge) ProductionProcess() string     { return e.productionProcess }
func (e *Edge) UserConfig() map[string]string {
	out := make(map[string]string, len(e.userConfig))
	for k, v := range e.userConfig {
		out[k] = v
	}
	return out
}

func (e *Edge) SetTransportTime(d time.Duration)    { e.transportTime = &d }
func (e *Edge) SetProductionProcess(process string) { e.productionProcess = process }
func (e *Edge) SetUserConfig(key, value string)     { e.userConfig[key] = value }

// RestrictItem blocks a single item on this route
func (e *Edge) RestrictItem(item string) {
	e.routeSettings.RestrictedItems[item] = true
}

// RestrictCategory blocks a whole item category on this route
func (e *Edge) RestrictCategory(c catalog.Category) {
	e.routeSettings.RestrictedCategories[c] = true
}

// CarriesItem reports whether the route may carry the item. The allow list
// is checked first, then route restrictions.
func (e *Edge) CarriesItem(item string) bool {
	if len(e.allowedItems) > 0 && !e.allowedItems[item] {
		return false
	}
	if e.routeSettings.RestrictedItems[item] {
		return false
	}
	if e.routeSettings.RestrictedCategories[catalog.CategoryOf(item)] {
		return false
	}
	return true
}
