package topology

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmarchand/quartermaster-go/internal/domain/catalog"
	"github.com/dmarchand/quartermaster-go/internal/domain/graph"
)

// File is the YAML shape of a seed topology
type File struct {
	Nodes []NodeSpec `yaml:"nodes"`
	Edges []EdgeSpec `yaml:"edges"`
}

type NodeSpec struct {
	ID             string            `yaml:"id"`
	Kind           string            `yaml:"kind"`
	LocationName   string            `yaml:"location_name"`
	UnitSize       string            `yaml:"unit_size,omitempty"`
	ProductionType string            `yaml:"production_type,omitempty"`
	Inactive       bool              `yaml:"inactive,omitempty"`
	Metadata       map[string]string `yaml:"metadata,omitempty"`
	Inventory      map[string]int    `yaml:"inventory,omitempty"`
	Preferences    []PreferenceSpec  `yaml:"preferences,omitempty"`
}

type PreferenceSpec struct {
	Item    string `yaml:"item"`
	Desired int    `yaml:"desired"`
	Reserve int    `yaml:"reserve,omitempty"`
	Held    int    `yaml:"held,omitempty"`
}

type EdgeSpec struct {
	Source               string            `yaml:"source"`
	Target               string            `yaml:"target"`
	AllowedItems         []string          `yaml:"allowed_items,omitempty"`
	RestrictedItems      []string          `yaml:"restricted_items,omitempty"`
	RestrictedCategories []string          `yaml:"restricted_categories,omitempty"`
	TransportTime        string            `yaml:"transport_time,omitempty"`
	ProductionProcess    string            `yaml:"production_process,omitempty"`
	UserConfig           map[string]string `yaml:"user_config,omitempty"`
}

// Load reads a topology file and builds the graph it describes
func Load(path string) (*graph.Graph, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse builds a graph from topology YAML
func Parse(b []byte) (*graph.Graph, error) {
	var file File
	if err := yaml.Unmarshal(b, &file); err != nil {
		return nil, fmt.Errorf("topology: %w", err)
	}

	g := graph.NewGraph()
	now := time.Now().UTC()

	for _, spec := range file.Nodes {
		node := graph.NewNode(spec.ID, graph.NodeKind(spec.Kind), spec.LocationName)
		if spec.UnitSize != "" {
			node.SetUnitSize(spec.UnitSize)
		}
		if spec.ProductionType != "" {
			node.SetProductionType(spec.ProductionType)
		}
		if spec.Inactive {
			node.SetStatus(graph.NodeStatusInactive)
		}
		for k, v := range spec.Metadata {
			node.SetMetadata(k, v)
		}
		if err := g.AddNode(node); err != nil {
			return nil, fmt.Errorf("topology node %s: %w", spec.ID, err)
		}
		for item, qty := range spec.Inventory {
			if err := g.SetInventory(spec.ID, item, qty, now); err != nil {
				return nil, fmt.Errorf("topology node %s inventory: %w", spec.ID, err)
			}
		}
		for _, pref := range spec.Preferences {
			if err := g.SetPreference(spec.ID, pref.Item, pref.Desired, pref.Reserve, pref.Held); err != nil {
				return nil, fmt.Errorf("topology node %s preference: %w", spec.ID, err)
			}
		}
	}

	for _, spec := range file.Edges {
		edge := graph.NewEdge(spec.Source, spec.Target, spec.AllowedItems)
		for _, item := range spec.RestrictedItems {
			edge.RestrictItem(item)
		}
		for _, c := range spec.RestrictedCategories {
			edge.RestrictCategory(catalog.Category(c))
		}
		if spec.TransportTime != "" {
			d, err := time.ParseDuration(spec.TransportTime)
			if err != nil {
				return nil, fmt.Errorf("topology edge %s -> %s transport_time: %w", spec.Source, spec.Target, err)
			}
			edge.SetTransportTime(d)
		}
		if spec.ProductionProcess != "" {
			edge.SetProductionProcess(spec.ProductionProcess)
		}
		for k, v := range spec.UserConfig {
			edge.SetUserConfig(k, v)
		}
		if err := g.AddEdge(edge); err != nil {
			return nil, fmt.Errorf("topology edge %s -> %s: %w", spec.Source, spec.Target, err)
		}
	}

	return g, nil
}
