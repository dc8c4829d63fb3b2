package snapshot_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarchand/quartermaster-go/internal/adapters/snapshot"
	"github.com/dmarchand/quartermaster-go/internal/domain/catalog"
	"github.com/dmarchand/quartermaster-go/internal/domain/graph"
)

func TestSnapshotRoundTrip(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	g := graph.NewGraph()
	front := graph.NewNode("front-1", graph.KindFacility, "Callahans Passage")
	depot := graph.NewNode("depot-1", graph.KindLogisticsHub, "Deadlands Depot")
	require.NoError(t, g.AddNode(front))
	require.NoError(t, g.AddNode(depot))
	edge := graph.NewEdge("depot-1", "front-1", nil)
	edge.RestrictCategory(catalog.CategoryVehicles)
	edge.SetTransportTime(20 * time.Minute)
	require.NoError(t, g.AddEdge(edge))
	require.NoError(t, g.SetInventory("depot-1", "Bandages", 40, now))
	require.NoError(t, g.SetPreference("front-1", "Bandages", 45, 70, 0))
	depot.RecordDemand("Bandages", graph.TierNormal, "front-1", 30)

	path := filepath.Join(t.TempDir(), "graphs", "current.snap")
	snap := snapshot.Capture(g, now)
	require.NoError(t, snapshot.WriteSnapshot(path, snap))

	read, err := snapshot.ReadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, 1, read.Header.Version)
	assert.Equal(t, 2, read.Header.NodeCount)
	assert.Equal(t, 1, read.Header.EdgeCount)

	restored, err := snapshot.Restore(read)
	require.NoError(t, err)

	rd := restored.Node("depot-1")
	require.NotNil(t, rd)
	assert.Equal(t, 40, rd.Inventory("Bandages"))
	assert.Equal(t, 30, rd.DownstreamDemandTier("Bandages", graph.TierNormal))

	rf := restored.Node("front-1")
	require.NotNil(t, rf)
	pref := rf.Preference("Bandages")
	require.NotNil(t, pref)
	assert.Equal(t, 45, pref.QuantityDesired)
	assert.Equal(t, 70, pref.ReserveQuantity)

	require.Len(t, restored.Edges(), 1)
	re := restored.Edges()[0]
	assert.False(t, re.CarriesItem("Truck"))
	assert.True(t, re.CarriesItem("Bandages"))
	require.NotNil(t, re.TransportTime())
	assert.Equal(t, 20*time.Minute, *re.TransportTime())
}

func TestReadSnapshotMissingFile(t *testing.T) {
	_, err := snapshot.ReadSnapshot(filepath.Join(t.TempDir(), "absent.snap"))
	assert.Error(t, err)
}
