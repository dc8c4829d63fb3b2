package graph

import (
	"time"
)

// NodeKind tags a node's role in the supply chain
type NodeKind string

const (
	KindResource              NodeKind = "RESOURCE"
	KindRefinery              NodeKind = "REFINERY"
	KindFactory               NodeKind = "FACTORY"
	KindMassProductionFactory NodeKind = "MASS_PRODUCTION_FACTORY"
	KindGarage                NodeKind = "GARAGE"
	KindConstructionYard      NodeKind = "CONSTRUCTION_YARD"
	KindShipyard              NodeKind = "SHIPYARD"
	KindLogisticsHub          NodeKind = "LOGISTICS_HUB"
	KindFacility              NodeKind = "FACILITY"
)

// NodeStatus reflects whether a node currently participates in propagation
type NodeStatus string

const (
	NodeStatusActive   NodeStatus = "ACTIVE"
	NodeStatusInactive NodeStatus = "INACTIVE"
)

// capabilities are derived from kind. Kinds are closed; a misconfigured kind
// gets no capabilities rather than a guess.
type capabilities struct {
	canProduce bool
	canStore   bool
	canRoute   bool
}

var kindCapabilities = map[NodeKind]capabilities{
	KindResource:              {canProduce: false, canStore: true, canRoute: false},
	KindRefinery:              {canProduce: true, canStore: true, canRoute: false},
	KindFactory:               {canProduce: true, canStore: true, canRoute: false},
	KindMassProductionFactory: {canProduce: true, canStore: true, canRoute: false},
	KindGarage:                {canProduce: true, canStore: true, canRoute: false},
	KindConstructionYard:      {canProduce: true, canStore: true, canRoute: false},
	KindShipyard:              {canProduce: true, canStore: true, canRoute: true},
	KindLogisticsHub:          {canProduce: false, canStore: true, canRoute: true},
	KindFacility:              {canProduce: true, canStore: true, canRoute: true},
}

// Node is one location in the supply-chain graph. Inventory and preference
// state is owned by the Graph; mutation goes through Graph methods so
// validation and staleness checks cannot be bypassed.
type Node struct {
	id             string
	kind           NodeKind
	locationName   string
	unitSize       string
	status         NodeStatus
	metadata       map[string]string
	productionType string

	inventory   map[string]int
	preferences map[string]*InventoryPreference
	lastUpdated time.Time

	// demand recorded against this node by downstream consumers,
	// keyed by (item, tier, consumer)
	downstreamDemand map[demandKey]*DemandRecord
}

type demandKey struct {
	item     string
	tier     Tier
	consumer string
}

// NewNode creates a node of the given kind. Unit size defaults to crates.
func NewNode(id string, kind NodeKind, locationName string) *Node {
	return &Node{
		id:               id,
		kind:             kind,
		locationName:     locationName,
		unitSize:         "crate",
		status:           NodeStatusActive,
		metadata:         make(map[string]string),
		inventory:        make(map[string]int),
		preferences:      make(map[string]*InventoryPreference),
		downstreamDemand: make(map[demandKey]*DemandRecord),
	}
}

// ReconstructNode rebuilds a node from persistence
func ReconstructNode(
	id string,
	kind NodeKind,
	locationName string,
	unitSize string,
	status NodeStatus,
	metadata map[string]string,
	productionType string,
	inventory map[string]int,
	lastUpdated time.Time,
) *Node {
	if metadata == nil {
		metadata = make(map[string]string)
	}
	if inventory == nil {
		inventory = make(map[string]int)
	}
	return &Node{
		id:               id,
		kind:             kind,
		locationName:     locationName,
		unitSize:         unitSize,
		status:           status,
		metadata:         metadata,
		productionType:   productionType,
		inventory:        inventory,
		lastUpdated:      lastUpdated,
		preferences:      make(map[string]*InventoryPreference),
		downstreamDemand: make(map[demandKey]*DemandRecord),
	}
}

// Getters

func (n *Node) ID() string             { return n.id }
func (n *Node) Kind() NodeKind         { return n.kind }
func (n *Node) LocationName() string   { return n.locationName }
func (n *Node) UnitSize() string       { return n.unitSize }
func (n *Node) Status() NodeStatus     { return n.status }
func (n *Node) ProductionType() string { return n.productionType }
func (n *Node) LastUpdated() time.Time { return n.lastUpdated }

func (n *Node) CanProduce() bool { return kindCapabilities[n.kind].canProduce }
func (n *Node) CanStore() bool   { return kindCapabilities[n.kind].canStore }
func (n *Node) CanRoute() bool   { return kindCapabilities[n.kind].canRoute }

// IsLogisticsHub is true for dedicated hub nodes only. Routing-capable
// production nodes are not hubs; hub-to-hub container rules never apply to
// them.
func (n *Node) IsLogisticsHub() bool {
	return n.kind == KindLogisticsHub
}

// IsResource returns true for terminal raw-resource nodes
func (n *Node) IsResource() bool { return n.kind == KindResource }

func (n *Node) Metadata() map[string]string {
	out := make(map[string]string, len(n.metadata))
	for k, v := range n.metadata {
		out[k] = v
	}
	return out
}

func (n *Node) SetMetadata(key, value string) { n.metadata[key] = value }
func (n *Node) SetUnitSize(unitSize string)   { n.unitSize = unitSize }
func (n *Node) SetProductionType(pt string)   { n.productionType = pt }
func (n *Node) SetStatus(status NodeStatus)   { n.status = status }

// Inventory returns the stocked quantity of an item, zero if untracked
func (n *Node) Inventory(item string) int {
	return n.inventory[item]
}

// InventorySnapshot returns a copy of the full inventory map
func (n *Node) InventorySnapshot() map[string]int {
	out := make(map[string]int, len(n.inventory))
	for item, qty := range n.inventory {
		out[item] = qty
	}
	return out
}

// Preference returns the preference for an item, nil if none is set
func (n *Node) Preference(item string) *InventoryPreference {
	return n.preferences[item]
}

// PreferenceItems returns every item with a preference on this node
func (n *Node) PreferenceItems() []string {
	items := make([]string, 0, len(n.preferences))
	for item := range n.preferences {
		items = append(items, item)
	}
	return items
}

// RecordDemand upserts the demand a downstream consumer places on this node.
// Quantity zero removes the record.
func (n *Node) RecordDemand(item string, tier Tier, consumer string, quantity int) {
	key := demandKey{item: item, tier: tier, consumer: consumer}
	if quantity <= 0 {
		delete(n.downstreamDemand, key)
		return
	}
	if rec, ok := n.downstreamDemand[key]; ok {
		rec.Quantity = quantity
		return
	}
	n.downstreamDemand[key] = &DemandRecord{
		Item:     item,
		Tier:     tier,
		Consumer: consumer,
		Quantity: quantity,
	}
}

// DownstreamDemand sums recorded demand for an item across all consumers
// and tiers.
func (n *Node) DownstreamDemand(item string) int {
	total := 0
	for key, rec := range n.downstreamDemand {
		if key.item == item {
			total += rec.Quantity
		}
	}
	return total
}

// DownstreamDemandTier sums recorded demand for an item at one tier
func (n *Node) DownstreamDemandTier(item string, tier Tier) int {
	total := 0
	for key, rec := range n.downstreamDemand {
		if key.item == item && key.tier == tier {
			total += rec.Quantity
		}
	}
	return total
}

// DemandRecords returns a copy of all demand recorded against this node
func (n *Node) DemandRecords() []DemandRecord {
	out := make([]DemandRecord, 0, len(n.downstreamDemand))
	for _, rec := range n.downstreamDemand {
		out = append(out, *rec)
	}
	return out
}
