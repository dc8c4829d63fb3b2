package catalog

// refinedInputs maps each producible item to the refined materials a
// production site needs on hand before queueing it. Raw resources and refined
// materials themselves have no entry here; the refining step is covered by
// rawInputs below.
//
// Quantities are per produced crate.
var refinedInputs = map[string]map[string]int{
	// Ammunition
	"7.62mm":       {BasicMaterials: 1},
	"7.92mm":       {BasicMaterials: 1},
	"9mm":          {BasicMaterials: 1},
	"12.7mm":       {BasicMaterials: 2},
	"120mm":        {ExplosivePowder: 2},
	"150mm":        {HeavyExplosive: 2},
	"Mortar Shell": {ExplosivePowder: 1},
	"RPG Shell":    {ExplosivePowder: 2},

	// Small arms
	"Rifle":          {BasicMaterials: 2},
	"Assault Rifle":  {BasicMaterials: 2, RefinedMaterials: 1},
	"Submachine Gun": {BasicMaterials: 2},
	"Machine Gun":    {BasicMaterials: 2, RefinedMaterials: 2},
	"Pistol":         {BasicMaterials: 1},
	"Grenade":        {ExplosivePowder: 1},
	"Mortar":         {RefinedMaterials: 2},

	// Medical
	"Bandages":      {BasicMaterials: 1},
	"First Aid Kit": {BasicMaterials: 1},
	"Trauma Kit":    {BasicMaterials: 2},
	"Blood Plasma":  {BasicMaterials: 1},

	// Supplies
	"Soldier Supplies":  {BasicMaterials: 2},
	"Garrison Supplies": {BasicMaterials: 2},
	"Bunker Supplies":   {BasicMaterials: 2},

	// Engineering and tools
	"Shovel":        {BasicMaterials: 1},
	"Wrench":        {BasicMaterials: 1},
	"Hammer":        {BasicMaterials: 1},
	"Sledge Hammer": {BasicMaterials: 2},
	"Gas Mask":      {BasicMaterials: 2},
	"Radio":         {BasicMaterials: 2, RefinedMaterials: 1},
	"Binoculars":    {BasicMaterials: 2},
	"Tripod":        {BasicMaterials: 2},
	"Listening Kit": {RefinedMaterials: 2},

	// Vehicles
	"Truck":       {BasicMaterials: 10},
	"Half-Track":  {BasicMaterials: 15, RefinedMaterials: 5},
	"Armored Car": {BasicMaterials: 12, RefinedMaterials: 3},
	"Light Tank":  {RefinedMaterials: 20},
	"Field Gun":   {RefinedMaterials: 15},
	"Gunboat":     {RefinedMaterials: 25},
	"Barge":       {BasicMaterials: 30},

	// Structures
	"Bunker Kit":         {ConstructionMats: 5},
	"Watchtower Kit":     {ConstructionMats: 3},
	"Foxhole Kit":        {BasicMaterials: 5},
	"Barbed Wire":        {BasicMaterials: 1},
	"Sandbags":           {BasicMaterials: 1},
	"Shipping Container": {BasicMaterials: 6},
}

// rawInputs maps each refined material to the raw resources its refining
// process consumes, per produced unit.
var rawInputs = map[string]map[string]int{
	BasicMaterials:     {Salvage: 2},
	RefinedMaterials:   {Components: 2},
	ExplosivePowder:    {Sulfur: 2},
	HeavyExplosive:     {Sulfur: 3, Coal: 1},
	ConstructionMats:   {Salvage: 10},
	ProcessedConstruct: {Salvage: 10, Components: 5, Oil: 1},
	AssemblyMaterials:  {Coal: 5, Iron: 1},
}

// IsRawResource returns true if the item can only be gathered, never produced
func IsRawResource(item string) bool {
	_, refined := rawInputs[item]
	_, produced := refinedInputs[item]
	return !refined && !produced && CategoryOf(item) == CategoryResources
}

// IsRefinedMaterial returns true if the item is produced by a refinery
func IsRefinedMaterial(item string) bool {
	_, ok := rawInputs[item]
	return ok
}

// RefinedInputsFor returns the refined materials needed to produce one crate
// of the item. Returns nil for raw resources and refined materials.
func RefinedInputsFor(item string) map[string]int {
	return refinedInputs[item]
}

// RawInputsFor returns the raw resources needed to refine one unit of the
// material. Returns nil for anything that is not a refined material.
func RawInputsFor(material string) map[string]int {
	return rawInputs[material]
}

// Producible returns true if the item has a production recipe
func Producible(item string) bool {
	_, ok := refinedInputs[item]
	return ok
}
