package catalog

import "time"

// ProductionSite identifies where an item is manufactured or refined
type ProductionSite string

const (
	SiteFactory  ProductionSite = "FACTORY"
	SiteMPF      ProductionSite = "MPF"
	SiteFacility ProductionSite = "FACILITY"
	SiteRefinery ProductionSite = "REFINERY"
)

// Standard transport batch sizes, in crates
const (
	// FullTruckLoad is the smallest standard transport batch
	FullTruckLoad = 15

	// FullContainerLoad is the container/ship batch size
	FullContainerLoad = 60
)

// Production batching constraints
const (
	// FactoryMaxCratesPerTask caps a single factory queue slot. Larger
	// deficits split into multiple tasks.
	FactoryMaxCratesPerTask = 4

	// MPFBatchSize is the fixed mass-production increment. MPF quantities
	// always round up to a multiple of this, even when that overproduces.
	MPFBatchSize = 5

	// SmallDeficitThreshold is the crate count below which an unconstrained
	// item goes to a factory rather than waiting on an MPF queue.
	SmallDeficitThreshold = 5

	// MPFQueueExpiry is how long a queued MPF order stays collectible
	MPFQueueExpiry = 60 * time.Minute
)

// mpfCrateDiscounts is the cumulative cost discount per queued crate count
// (index 0 = 1 crate). The curve flattens at 9 crates.
var mpfCrateDiscounts = []float64{
	0.10, 0.15, 0.20, 0.25, 0.30, 0.333333, 0.357143, 0.375, 0.388889,
}

// MPFCrateDiscount returns the discount fraction for a queue of the given
// crate count. Out-of-range counts clamp to the nearest table entry.
func MPFCrateDiscount(numCrates int) float64 {
	idx := numCrates - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(mpfCrateDiscounts) {
		idx = len(mpfCrateDiscounts) - 1
	}
	return mpfCrateDiscounts[idx]
}

// MPFCrateCost returns the effective resource cost of queueing numCrates
// crates whose undiscounted cost is baseCost per crate.
func MPFCrateCost(numCrates int, baseCost float64) float64 {
	return float64(numCrates) * baseCost * (1 - MPFCrateDiscount(numCrates))
}

// factoryMandatory lists categories that only factories can produce
var factoryMandatory = map[Category]bool{
	CategoryEngineering: true,
	CategoryMedical:     true,
}

// mpfMandatory lists categories that only mass production factories accept
var mpfMandatory = map[Category]bool{
	CategoryVehicles:   true,
	CategoryStructures: true,
}

// FactoryMandatory returns true if the item's category restricts it to
// factory production.
func FactoryMandatory(item string) bool {
	return factoryMandatory[CategoryOf(item)]
}

// MPFMandatory returns true if the item's category restricts it to MPF
// production.
func MPFMandatory(item string) bool {
	return mpfMandatory[CategoryOf(item)]
}

// PreferredSite decides where a deficit of the given item should be produced.
// Category constraints win outright. For unconstrained categories a factory
// is preferred when the request is urgent or the deficit is too small to be
// worth an MPF queue; otherwise the MPF wins only when its discounted cost
// for the rounded-up batch beats producing exactly the deficit at a factory.
func PreferredSite(item string, deficitCrates int, urgent bool) ProductionSite {
	if IsRefinedMaterial(item) {
		return SiteRefinery
	}
	if FactoryMandatory(item) {
		return SiteFactory
	}
	if MPFMandatory(item) {
		return SiteMPF
	}
	if urgent || deficitCrates < SmallDeficitThreshold {
		return SiteFactory
	}
	// Per-crate cost cancels out of the comparison, so charge 1 per crate.
	batch := RoundUpToMPFBatch(deficitCrates)
	if MPFCrateCost(batch, 1) < float64(deficitCrates) {
		return SiteMPF
	}
	return SiteFactory
}

// RoundUpToLoad rounds a crate deficit up to the nearest whole load unit.
// A 16-crate deficit becomes 30 at truck loads.
func RoundUpToLoad(deficit, loadUnit int) int {
	if deficit <= 0 {
		return 0
	}
	loads := (deficit + loadUnit - 1) / loadUnit
	return loads * loadUnit
}

// RoundUpToMPFBatch rounds a crate count up to the MPF batch multiple
func RoundUpToMPFBatch(crates int) int {
	return RoundUpToLoad(crates, MPFBatchSize)
}
