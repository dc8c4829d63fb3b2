package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/dmarchand/quartermaster-go/internal/domain/catalog"
	"github.com/dmarchand/quartermaster-go/internal/domain/graph"
)

// Header identifies a snapshot file. It is written as a JSON line before the
// compressed body so tools can inspect snapshots without decoding them fully.
type Header struct {
	Version   int       `json:"version"`
	TakenAt   time.Time `json:"taken_at"`
	NodeCount int       `json:"node_count"`
	EdgeCount int       `json:"edge_count"`
}

// SnapshotV1 is the on-disk graph image
type SnapshotV1 struct {
	Header Header `json:"header"`

	Nodes []NodeV1 `json:"nodes"`
	Edges []EdgeV1 `json:"edges"`
}

type NodeV1 struct {
	ID             string            `json:"id"`
	Kind           string            `json:"kind"`
	LocationName   string            `json:"location_name"`
	UnitSize       string            `json:"unit_size"`
	Status         string            `json:"status"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	ProductionType string            `json:"production_type,omitempty"`
	Inventory      map[string]int    `json:"inventory,omitempty"`
	Preferences    []PreferenceV1    `json:"preferences,omitempty"`
	Demand         []DemandV1        `json:"demand,omitempty"`
	LastUpdated    time.Time         `json:"last_updated"`
}

type PreferenceV1 struct {
	Item    string `json:"item"`
	Desired int    `json:"desired"`
	Reserve int    `json:"reserve"`
	Held    int    `json:"held"`
}

type DemandV1 struct {
	Item     string `json:"item"`
	Tier     string `json:"tier"`
	Consumer string `json:"consumer"`
	Quantity int    `json:"quantity"`
}

type EdgeV1 struct {
	Source               string            `json:"source"`
	Target               string            `json:"target"`
	AllowedItems         []string          `json:"allowed_items,omitempty"`
	RestrictedItems      []string          `json:"restricted_items,omitempty"`
	RestrictedCategories []string          `json:"restricted_categories,omitempty"`
	TransportTimeSecs    int64             `json:"transport_time_secs,omitempty"`
	ProductionProcess    string            `json:"production_process,omitempty"`
	UserConfig           map[string]string `json:"user_config,omitempty"`
}

// Capture builds a snapshot from the live graph
func Capture(g *graph.Graph, at time.Time) SnapshotV1 {
	snap := SnapshotV1{}
	for _, node := range g.Nodes() {
		nv := NodeV1{
			ID:             node.ID(),
			Kind:           string(node.Kind()),
			LocationName:   node.LocationName(),
			UnitSize:       node.UnitSize(),
			Status:         string(node.Status()),
			Metadata:       node.Metadata(),
			ProductionType: node.ProductionType(),
			Inventory:      node.InventorySnapshot(),
			LastUpdated:    node.LastUpdated(),
		}
		for _, item := range node.PreferenceItems() {
			if p := node.Preference(item); p != nil {
				nv.Preferences = append(nv.Preferences, PreferenceV1{
					Item:    item,
					Desired: p.QuantityDesired,
					Reserve: p.ReserveQuantity,
					Held:    p.HeldQuantity,
				})
			}
		}
		for _, rec := range node.DemandRecords() {
			nv.Demand = append(nv.Demand, DemandV1{
				Item:     rec.Item,
				Tier:     string(rec.Tier),
				Consumer: rec.Consumer,
				Quantity: rec.Quantity,
			})
		}
		snap.Nodes = append(snap.Nodes, nv)
	}
	for _, edge := range g.Edges() {
		ev := EdgeV1{
			Source:            edge.Source(),
			Target:            edge.Target(),
			AllowedItems:      edge.AllowedItems(),
			ProductionProcess: edge.ProductionProcess(),
			UserConfig:        edge.UserConfig(),
		}
		settings := edge.RouteSettings()
		for item := range settings.RestrictedItems {
			ev.RestrictedItems = append(ev.RestrictedItems, item)
		}
		for c := range settings.RestrictedCategories {
			ev.RestrictedCategories = append(ev.RestrictedCategories, string(c))
		}
		if tt := edge.TransportTime(); tt != nil {
			ev.TransportTimeSecs = int64(tt.Seconds())
		}
		snap.Edges = append(snap.Edges, ev)
	}
	snap.Header = Header{
		Version:   1,
		TakenAt:   at,
		NodeCount: len(snap.Nodes),
		EdgeCount: len(snap.Edges),
	}
	return snap
}

// Restore rebuilds a graph from a snapshot
func Restore(snap SnapshotV1) (*graph.Graph, error) {
	g := graph.NewGraph()
	for _, nv := range snap.Nodes {
		node := graph.ReconstructNode(
			nv.ID,
			graph.NodeKind(nv.Kind),
			nv.LocationName,
			nv.UnitSize,
			graph.NodeStatus(nv.Status),
			nv.Metadata,
			nv.ProductionType,
			nv.Inventory,
			nv.LastUpdated,
		)
		if err := g.AddNode(node); err != nil {
			return nil, err
		}
		for _, p := range nv.Preferences {
			if err := g.SetPreference(nv.ID, p.Item, p.Desired, p.Reserve, p.Held); err != nil {
				return nil, err
			}
		}
		for _, d := range nv.Demand {
			node.RecordDemand(d.Item, graph.Tier(d.Tier), d.Consumer, d.Quantity)
		}
	}
	for _, ev := range snap.Edges {
		edge := graph.NewEdge(ev.Source, ev.Target, ev.AllowedItems)
		for _, item := range ev.RestrictedItems {
			edge.RestrictItem(item)
		}
		for _, c := range ev.RestrictedCategories {
			edge.RestrictCategory(catalog.Category(c))
		}
		if ev.TransportTimeSecs > 0 {
			edge.SetTransportTime(time.Duration(ev.TransportTimeSecs) * time.Second)
		}
		edge.SetProductionProcess(ev.ProductionProcess)
		for k, v := range ev.UserConfig {
			edge.SetUserConfig(k, v)
		}
		if err := g.AddEdge(edge); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// WriteSnapshot writes a snapshot to disk, creating parent directories
func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

// ReadSnapshot reads a snapshot back from disk
func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Skip the header line, the gob body carries the header too
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}
