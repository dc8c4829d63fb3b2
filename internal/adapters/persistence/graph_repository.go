package persistence

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dmarchand/quartermaster-go/internal/domain/catalog"
	"github.com/dmarchand/quartermaster-go/internal/domain/graph"
)

// preferenceRow is the JSON shape of one item's stocking target in the
// preferences column
type preferenceRow struct {
	Desired int `json:"desired"`
	Reserve int `json:"reserve"`
	Held    int `json:"held"`
}

// demandRow is the JSON shape of one recorded demand entry in the delta column
type demandRow struct {
	Item     string `json:"item"`
	Tier     string `json:"tier"`
	Consumer string `json:"consumer"`
	Quantity int    `json:"quantity"`
}

// GormGraphRepository persists the whole supply-chain graph through GORM
type GormGraphRepository struct {
	db *gorm.DB
}

// NewGormGraphRepository creates a new GORM-based graph repository
func NewGormGraphRepository(db *gorm.DB) *GormGraphRepository {
	return &GormGraphRepository{db: db}
}

// Save replaces the stored graph with the given one atomically
func (r *GormGraphRepository) Save(ctx context.Context, g *graph.Graph) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&EdgeModel{}).Error; err != nil {
			return err
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&NodeModel{}).Error; err != nil {
			return err
		}
		for _, node := range g.Nodes() {
			if err := tx.Create(r.nodeToModel(node)).Error; err != nil {
				return err
			}
		}
		for _, edge := range g.Edges() {
			if err := tx.Create(r.edgeToModel(edge)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Load rebuilds the graph from storage. An empty database yields an empty
// graph, not an error.
func (r *GormGraphRepository) Load(ctx context.Context) (*graph.Graph, error) {
	var nodeModels []NodeModel
	if err := r.db.WithContext(ctx).Find(&nodeModels).Error; err != nil {
		return nil, err
	}
	var edgeModels []EdgeModel
	if err := r.db.WithContext(ctx).Find(&edgeModels).Error; err != nil {
		return nil, err
	}

	g := graph.NewGraph()
	for i := range nodeModels {
		node, prefs, demand, err := r.modelToNode(&nodeModels[i])
		if err != nil {
			return nil, err
		}
		if err := g.AddNode(node); err != nil {
			return nil, err
		}
		for item, p := range prefs {
			if err := g.SetPreference(node.ID(), item, p.Desired, p.Reserve, p.Held); err != nil {
				return nil, err
			}
		}
		for _, d := range demand {
			node.RecordDemand(d.Item, graph.Tier(d.Tier), d.Consumer, d.Quantity)
		}
	}
	for i := range edgeModels {
		edge, err := r.modelToEdge(&edgeModels[i])
		if err != nil {
			return nil, err
		}
		if err := g.AddEdge(edge); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (r *GormGraphRepository) nodeToModel(node *graph.Node) *NodeModel {
	prefs := make(map[string]preferenceRow)
	for _, item := range node.PreferenceItems() {
		if p := node.Preference(item); p != nil {
			prefs[item] = preferenceRow{
				Desired: p.QuantityDesired,
				Reserve: p.ReserveQuantity,
				Held:    p.HeldQuantity,
			}
		}
	}
	demand := make([]demandRow, 0)
	for _, rec := range node.DemandRecords() {
		demand = append(demand, demandRow{
			Item:     rec.Item,
			Tier:     string(rec.Tier),
			Consumer: rec.Consumer,
			Quantity: rec.Quantity,
		})
	}
	return &NodeModel{
		ID:             node.ID(),
		LocationName:   node.LocationName(),
		UnitSize:       node.UnitSize(),
		BaseType:       string(node.Kind()),
		Metadata:       marshalJSON(node.Metadata()),
		Inventory:      marshalJSON(node.InventorySnapshot()),
		Preferences:    marshalJSON(prefs),
		Delta:          marshalJSON(demand),
		Status:         string(node.Status()),
		ProductionType: node.ProductionType(),
		LastUpdated:    node.LastUpdated(),
	}
}

func (r *GormGraphRepository) modelToNode(m *NodeModel) (*graph.Node, map[string]preferenceRow, []demandRow, error) {
	metadata := make(map[string]string)
	if err := unmarshalJSON(m.Metadata, &metadata); err != nil {
		return nil, nil, nil, err
	}
	inventory := make(map[string]int)
	if err := unmarshalJSON(m.Inventory, &inventory); err != nil {
		return nil, nil, nil, err
	}
	prefs := make(map[string]preferenceRow)
	if err := unmarshalJSON(m.Preferences, &prefs); err != nil {
		return nil, nil, nil, err
	}
	var demand []demandRow
	if err := unmarshalJSON(m.Delta, &demand); err != nil {
		return nil, nil, nil, err
	}
	node := graph.ReconstructNode(
		m.ID,
		graph.NodeKind(m.BaseType),
		m.LocationName,
		m.UnitSize,
		graph.NodeStatus(m.Status),
		metadata,
		m.ProductionType,
		inventory,
		m.LastUpdated,
	)
	return node, prefs, demand, nil
}

func (r *GormGraphRepository) edgeToModel(edge *graph.Edge) *EdgeModel {
	settings := edge.RouteSettings()
	restrictedItems := make([]string, 0, len(settings.RestrictedItems))
	for item := range settings.RestrictedItems {
		restrictedItems = append(restrictedItems, item)
	}
	restrictedCategories := make([]string, 0, len(settings.RestrictedCategories))
	for c := range settings.RestrictedCategories {
		restrictedCategories = append(restrictedCategories, string(c))
	}
	model := &EdgeModel{
		Source:               edge.Source(),
		Target:               edge.Target(),
		AllowedItems:         marshalJSON(edge.AllowedItems()),
		RestrictedItems:      marshalJSON(restrictedItems),
		RestrictedCategories: marshalJSON(restrictedCategories),
		ProductionProcess:    edge.ProductionProcess(),
		UserConfig:           marshalJSON(edge.UserConfig()),
	}
	if tt := edge.TransportTime(); tt != nil {
		secs := int64(tt.Seconds())
		model.TransportTimeSecs = &secs
	}
	return model
}

func (r *GormGraphRepository) modelToEdge(m *EdgeModel) (*graph.Edge, error) {
	var allowed []string
	if err := unmarshalJSON(m.AllowedItems, &allowed); err != nil {
		return nil, err
	}
	edge := graph.NewEdge(m.Source, m.Target, allowed)

	var restrictedItems []string
	if err := unmarshalJSON(m.RestrictedItems, &restrictedItems); err != nil {
		return nil, err
	}
	for _, item := range restrictedItems {
		edge.RestrictItem(item)
	}
	var restrictedCategories []string
	if err := unmarshalJSON(m.RestrictedCategories, &restrictedCategories); err != nil {
		return nil, err
	}
	for _, c := range restrictedCategories {
		edge.RestrictCategory(catalog.Category(c))
	}
	if m.TransportTimeSecs != nil {
		edge.SetTransportTime(time.Duration(*m.TransportTimeSecs) * time.Second)
	}
	edge.SetProductionProcess(m.ProductionProcess)

	userConfig := make(map[string]string)
	if err := unmarshalJSON(m.UserConfig, &userConfig); err != nil {
		return nil, err
	}
	for k, v := range userConfig {
		edge.SetUserConfig(k, v)
	}
	return edge, nil
}
