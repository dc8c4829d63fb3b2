package catalog

// Category classifies an item for routing and production-eligibility decisions
type Category string

const (
	CategoryAmmunition  Category = "AMMUNITION"
	CategoryMedical     Category = "MEDICAL"
	CategorySupplies    Category = "SUPPLIES"
	CategoryWeapons     Category = "WEAPONS"
	CategoryVehicles    Category = "VEHICLES"
	CategoryStructures  Category = "STRUCTURES"
	CategoryResources   Category = "RESOURCES"
	CategoryTools       Category = "TOOLS"
	CategoryEngineering Category = "ENGINEERING"
	CategoryUnknown     Category = "UNKNOWN"
)

// Raw resources are terminal in the supply chain: they can only be gathered,
// never produced.
const (
	Salvage    = "Salvage"
	Components = "Components"
	Sulfur     = "Sulfur"
	Coal       = "Coal"
	Oil        = "Oil"
	Aluminum   = "Aluminum"
	Iron       = "Iron"
	Copper     = "Copper"
	Wreckage   = "Wreckage"
)

// Refined materials sit between raw resources and finished goods
const (
	BasicMaterials     = "Basic Materials"
	RefinedMaterials   = "Refined Materials"
	ExplosivePowder    = "Explosive Powder"
	HeavyExplosive     = "High Explosive Powder"
	ConstructionMats   = "Construction Materials"
	ProcessedConstruct = "Processed Construction Materials"
	AssemblyMaterials  = "Assembly Materials"
)

// categoryByItem maps every known item to its category. Items absent from
// this map classify as CategoryUnknown and are still routable; only
// production-eligibility decisions need a real category.
var categoryByItem = map[string]Category{
	// Raw resources
	Salvage:    CategoryResources,
	Components: CategoryResources,
	Sulfur:     CategoryResources,
	Coal:       CategoryResources,
	Oil:        CategoryResources,
	Aluminum:   CategoryResources,
	Iron:       CategoryResources,
	Copper:     CategoryResources,
	Wreckage:   CategoryResources,

	// Refined materials
	BasicMaterials:     CategoryResources,
	RefinedMaterials:   CategoryResources,
	ExplosivePowder:    CategoryResources,
	HeavyExplosive:     CategoryResources,
	ConstructionMats:   CategoryResources,
	ProcessedConstruct: CategoryResources,
	AssemblyMaterials:  CategoryResources,

	// Small arms and ammunition
	"7.62mm":            CategoryAmmunition,
	"7.92mm":            CategoryAmmunition,
	"9mm":               CategoryAmmunition,
	"12.7mm":            CategoryAmmunition,
	"120mm":             CategoryAmmunition,
	"150mm":             CategoryAmmunition,
	"Mortar Shell":      CategoryAmmunition,
	"RPG Shell":         CategoryAmmunition,
	"Rifle":             CategoryWeapons,
	"Assault Rifle":     CategoryWeapons,
	"Submachine Gun":    CategoryWeapons,
	"Machine Gun":       CategoryWeapons,
	"Pistol":            CategoryWeapons,
	"Grenade":           CategoryWeapons,
	"Mortar":            CategoryWeapons,

	// Medical
	"Bandages":           CategoryMedical,
	"First Aid Kit":      CategoryMedical,
	"Trauma Kit":         CategoryMedical,
	"Blood Plasma":       CategoryMedical,
	"Critically Wounded": CategoryMedical,

	// Supplies
	"Soldier Supplies": CategorySupplies,
	"Garrison Supplies": CategorySupplies,
	"Bunker Supplies":  CategorySupplies,

	// Engineering and tools
	"Shovel":        CategoryTools,
	"Wrench":        CategoryTools,
	"Hammer":        CategoryTools,
	"Sledge Hammer": CategoryTools,
	"Gas Mask":      CategoryEngineering,
	"Radio":         CategoryEngineering,
	"Binoculars":    CategoryEngineering,
	"Tripod":        CategoryEngineering,
	"Listening Kit": CategoryEngineering,

	// Vehicles
	"Truck":         CategoryVehicles,
	"Half-Track":    CategoryVehicles,
	"Armored Car":   CategoryVehicles,
	"Light Tank":    CategoryVehicles,
	"Field Gun":     CategoryVehicles,
	"Gunboat":       CategoryVehicles,
	"Barge":         CategoryVehicles,

	// Structures
	"Bunker Kit":         CategoryStructures,
	"Watchtower Kit":     CategoryStructures,
	"Foxhole Kit":        CategoryStructures,
	"Barbed Wire":        CategoryStructures,
	"Sandbags":           CategoryStructures,
	"Shipping Container": CategoryStructures,
}

// CategoryOf returns the category for an item, CategoryUnknown if unmapped
func CategoryOf(item string) Category {
	if c, ok := categoryByItem[item]; ok {
		return c
	}
	return CategoryUnknown
}

// KnownItem reports whether the item appears in the catalog
func KnownItem(item string) bool {
	_, ok := categoryByItem[item]
	return ok
}

// Items returns all catalogued item names
func Items() []string {
	out := make([]string, 0, len(categoryByItem))
	for item := range categoryByItem {
		out = append(out, item)
	}
	return out
}
