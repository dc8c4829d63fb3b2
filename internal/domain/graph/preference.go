package graph

// Tier separates active shortages from low-priority reserve staging
type Tier string

const (
	// TierNormal covers the primary desired quantity
	TierNormal Tier = "NORMAL"

	// TierReserve is the low-priority floor layered above the desired
	// quantity. Reserve demand never competes with active shortages.
	TierReserve Tier = "RESERVE"
)

// InventoryPreference is the per-item stocking target for a node
type InventoryPreference struct {
	QuantityDesired int
	ReserveQuantity int
	HeldQuantity    int
}

// DemandTiers is the derived demand split. Recomputed on every propagation,
// never authoritative on its own.
type DemandTiers struct {
	Normal  int
	Reserve int
}

// Total returns combined demand across both tiers
func (d DemandTiers) Total() int {
	return d.Normal + d.Reserve
}

// DemandRecord is demand a downstream consumer has placed on a provider node
type DemandRecord struct {
	Item     string
	Tier     Tier
	Consumer string
	Quantity int
}

// ComputeDemand derives the tiered demand to source upstream given current
// inventory and the per-tier demand already recorded by downstream
// consumers. Held quantity is excluded from fulfillment; available stock
// offsets the reserve tier before the normal tier, so an active shortage is
// never softened by reserve staging. A surplus yields zero at both tiers,
// never a negative.
func (p *InventoryPreference) ComputeDemand(inventory, downstreamNormal, downstreamReserve int) DemandTiers {
	avail := inventory - p.HeldQuantity
	totalNeed := p.QuantityDesired + p.ReserveQuantity + downstreamNormal + downstreamReserve - avail
	if totalNeed < 0 {
		totalNeed = 0
	}

	normal := p.QuantityDesired + downstreamNormal
	if totalNeed < normal {
		normal = totalNeed
	}

	return DemandTiers{Normal: normal, Reserve: totalNeed - normal}
}
