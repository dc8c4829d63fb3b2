package demand

import (
	"sort"

	"github.com/dmarchand/quartermaster-go/internal/domain/graph"
)

// Allocation assigns part of a propagated quantity to one upstream provider
type Allocation struct {
	Provider graph.Provider
	Quantity int
}

// SplitPolicy decides how a propagated quantity divides across multiple
// eligible upstream providers. Policies must be deterministic: the same
// providers and quantity always yield the same allocations.
type SplitPolicy interface {
	Split(item string, quantity int, providers []graph.Provider) []Allocation
}

// LargestProviderPolicy sends the whole quantity to the single
// largest-capacity provider when one can cover it, and splits proportionally
// to capacity only when none can. Capacity is the provider's current stock of
// the item; ties break on node id so allocation is stable across runs.
type LargestProviderPolicy struct{}

// NewLargestProviderPolicy returns the default split policy
func NewLargestProviderPolicy() *LargestProviderPolicy {
	return &LargestProviderPolicy{}
}

func (p *LargestProviderPolicy) Split(item string, quantity int, providers []graph.Provider) []Allocation {
	if quantity <= 0 || len(providers) == 0 {
		return nil
	}

	sorted := make([]graph.Provider, len(providers))
	copy(sorted, providers)
	sort.Slice(sorted, func(i, j int) bool {
		ci, cj := sorted[i].Node.Inventory(item), sorted[j].Node.Inventory(item)
		if ci != cj {
			return ci > cj
		}
		return sorted[i].Node.ID() < sorted[j].Node.ID()
	})

	// Single provider, or the largest can cover alone
	if len(sorted) == 1 || sorted[0].Node.Inventory(item) >= quantity {
		return []Allocation{{Provider: sorted[0], Quantity: quantity}}
	}

	totalCapacity := 0
	for _, prov := range sorted {
		totalCapacity += prov.Node.Inventory(item)
	}

	// Nobody holds stock: the largest provider absorbs the whole order and
	// sources it further upstream.
	if totalCapacity == 0 {
		return []Allocation{{Provider: sorted[0], Quantity: quantity}}
	}

	// Proportional split by capacity; the first provider absorbs rounding
	// remainder so allocations always sum to the requested quantity.
	out := make([]Allocation, 0, len(sorted))
	assigned := 0
	for _, prov := range sorted {
		share := quantity * prov.Node.Inventory(item) / totalCapacity
		out = append(out, Allocation{Provider: prov, Quantity: share})
		assigned += share
	}
	out[0].Quantity += quantity - assigned
	return out
}
