package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarchand/quartermaster-go/internal/adapters/persistence"
	"github.com/dmarchand/quartermaster-go/internal/domain/catalog"
	"github.com/dmarchand/quartermaster-go/internal/domain/graph"
	"github.com/dmarchand/quartermaster-go/internal/domain/order"
	"github.com/dmarchand/quartermaster-go/internal/domain/shared"
	"github.com/dmarchand/quartermaster-go/internal/domain/task"
	"github.com/dmarchand/quartermaster-go/test/helpers"
)

func TestGraphRepositoryRoundTrip(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormGraphRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	g := graph.NewGraph()
	front := graph.NewNode("front-1", graph.KindFacility, "Callahans Passage")
	front.SetMetadata("region", "north")
	depot := graph.NewNode("depot-1", graph.KindLogisticsHub, "Deadlands Depot")
	refinery := graph.NewNode("refinery-1", graph.KindRefinery, "Abandoned Ward")
	refinery.SetProductionType("refining")
	require.NoError(t, g.AddNode(front))
	require.NoError(t, g.AddNode(depot))
	require.NoError(t, g.AddNode(refinery))

	edge := graph.NewEdge("depot-1", "front-1", nil)
	edge.RestrictItem(catalog.BasicMaterials)
	edge.RestrictCategory(catalog.CategoryVehicles)
	edge.SetTransportTime(25 * time.Minute)
	edge.SetUserConfig("route", "coastal")
	require.NoError(t, g.AddEdge(edge))
	require.NoError(t, g.AddEdge(graph.NewEdge("refinery-1", "depot-1", []string{catalog.BasicMaterials})))

	require.NoError(t, g.SetInventory("depot-1", "Bandages", 40, now))
	require.NoError(t, g.SetPreference("front-1", "Bandages", 45, 70, 5))
	depot.RecordDemand("Bandages", graph.TierNormal, "front-1", 30)
	depot.RecordDemand("Bandages", graph.TierReserve, "front-1", 50)

	require.NoError(t, repo.Save(ctx, g))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Nodes(), 3)
	require.Len(t, loaded.Edges(), 2)

	lf := loaded.Node("front-1")
	require.NotNil(t, lf)
	assert.Equal(t, graph.KindFacility, lf.Kind())
	assert.Equal(t, "Callahans Passage", lf.LocationName())
	assert.Equal(t, map[string]string{"region": "north"}, lf.Metadata())
	pref := lf.Preference("Bandages")
	require.NotNil(t, pref)
	assert.Equal(t, 45, pref.QuantityDesired)
	assert.Equal(t, 70, pref.ReserveQuantity)
	assert.Equal(t, 5, pref.HeldQuantity)

	ld := loaded.Node("depot-1")
	require.NotNil(t, ld)
	assert.Equal(t, 40, ld.Inventory("Bandages"))
	assert.True(t, ld.LastUpdated().Equal(now))
	assert.Equal(t, 30, ld.DownstreamDemandTier("Bandages", graph.TierNormal))
	assert.Equal(t, 50, ld.DownstreamDemandTier("Bandages", graph.TierReserve))

	lr := loaded.Node("refinery-1")
	require.NotNil(t, lr)
	assert.Equal(t, "refining", lr.ProductionType())

	var restricted *graph.Edge
	for _, e := range loaded.Edges() {
		if e.Source() == "depot-1" {
			restricted = e
		}
	}
	require.NotNil(t, restricted)
	assert.False(t, restricted.CarriesItem(catalog.BasicMaterials))
	assert.True(t, restricted.CarriesItem("Bandages"))
	require.NotNil(t, restricted.TransportTime())
	assert.Equal(t, 25*time.Minute, *restricted.TransportTime())
	assert.Equal(t, map[string]string{"route": "coastal"}, restricted.UserConfig())
}

func TestGraphRepositorySaveReplacesPrevious(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormGraphRepository(db)
	ctx := context.Background()

	g1 := graph.NewGraph()
	require.NoError(t, g1.AddNode(graph.NewNode("old-1", graph.KindFactory, "Old")))
	require.NoError(t, repo.Save(ctx, g1))

	g2 := graph.NewGraph()
	require.NoError(t, g2.AddNode(graph.NewNode("new-1", graph.KindFactory, "New")))
	require.NoError(t, repo.Save(ctx, g2))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded.Node("old-1"))
	assert.NotNil(t, loaded.Node("new-1"))
}

func TestOrderRepositoryRoundTrip(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormOrderRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	o := order.NewOrder(order.TypeProduction, "Bandages", 30, "factory-1", "depot-1", graph.TierNormal, now)
	o.SetUrgency(2.0)
	require.NoError(t, repo.Save(ctx, o))

	found, err := repo.FindByID(ctx, o.ID())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, o.ID(), found.ID())
	assert.Equal(t, order.TypeProduction, found.Type())
	assert.Equal(t, 30, found.Quantity())
	assert.Equal(t, graph.TierNormal, found.Tier())
	assert.Equal(t, 2.0, found.Urgency())
	assert.True(t, found.CreatedAt().Equal(now))

	missing, err := repo.FindByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestOrderRepositoryFindOpenSkipsClosed(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormOrderRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	open := order.NewOrder(order.TypeSupply, "Rifles", 15, "depot-1", "front-1", graph.TierNormal, now)
	cancelled := order.NewOrder(order.TypeSupply, "Shirts", 15, "depot-1", "front-1", graph.TierNormal, now)
	require.NoError(t, cancelled.Cancel("demand cleared by restock", now.Add(time.Minute)))
	require.NoError(t, repo.SaveAll(ctx, []*order.Order{open, cancelled}))

	found, err := repo.FindOpen(ctx)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, open.ID(), found[0].ID())

	book := order.NewBook(shared.NewMockClock(now))
	require.NoError(t, repo.RestoreBook(ctx, book))
	assert.Len(t, book.OpenOrders(), 1)
}

func TestTaskRepositoryRoundTrip(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormTaskRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tk := task.NewTask(task.LevelQueueProduction, "Bandages", 4, "factory-1", "factory-1", now)
	tk.SetProductionSite(catalog.SiteFactory)
	tk.AssociateOrder("order-1")
	tk.AssociateOrder("order-2")
	tk.SetBubble(2.5)
	tk.SetEstimatedCompletion(now.Add(40 * time.Minute))
	require.NoError(t, repo.Save(ctx, tk, []string{"upstream-1"}))

	found, err := repo.FindByID(ctx, tk.ID())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, task.LevelQueueProduction, found.Level())
	assert.Equal(t, 4, found.Quantity())
	assert.Equal(t, task.StatusUnclaimed, found.Status())
	assert.Equal(t, catalog.SiteFactory, found.ProductionSite())
	assert.Equal(t, []string{"order-1", "order-2"}, found.AssociatedOrders())
	assert.Equal(t, 2.5, found.Bubble())
	assert.Equal(t, tk.BasePriority(), found.BasePriority())
	require.NotNil(t, found.EstimatedCompletion())
	assert.True(t, found.EstimatedCompletion().Equal(now.Add(40*time.Minute)))
}

func TestTaskRepositoryRestoreRegistry(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormTaskRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := shared.NewMockClock(now)

	reg := task.NewRegistry(clock)
	production := task.NewTask(task.LevelQueueProduction, "Bandages", 4, "factory-1", "factory-1", now)
	transport := task.NewTask(task.LevelTransportRefined, catalog.BasicMaterials, 15, "refinery-1", "factory-1", now)
	require.NoError(t, reg.Add(production))
	require.NoError(t, reg.Add(transport))
	require.NoError(t, reg.AddBlockingEdge(production.ID(), transport.ID()))
	require.NoError(t, repo.SaveRegistry(ctx, reg))

	restored := task.NewRegistry(clock)
	require.NoError(t, repo.RestoreRegistry(ctx, restored))
	require.Len(t, restored.All(), 2)

	rp := restored.Get(production.ID())
	require.NotNil(t, rp)
	assert.True(t, rp.IsBlocked())
	assert.Equal(t, []string{transport.ID()}, restored.BlockedBy(production.ID()))

	chain := restored.BlockedChain(production.ID())
	require.Len(t, chain, 1)
	assert.Equal(t, transport.ID(), chain[0].TaskID)
}

func TestTaskRepositoryFindOpenOrdersByPriority(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormTaskRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := shared.NewMockClock(now)

	reg := task.NewRegistry(clock)
	low := task.NewTask(task.LevelTransportLastMile, "Shirts", 15, "depot-1", "front-1", now)
	high := task.NewTask(task.LevelRawGather, catalog.Salvage, 100, "salvage-1", "salvage-1", now)
	done := task.NewTask(task.LevelTransport, "Rifles", 60, "depot-1", "hub-1", now)
	require.NoError(t, reg.Add(low))
	require.NoError(t, reg.Add(high))
	require.NoError(t, reg.Add(done))
	_, err := reg.Claim(done.ID(), "hauler-7", 30*time.Minute)
	require.NoError(t, err)
	_, err = reg.Complete(done.ID(), "hauler-7")
	require.NoError(t, err)

	calc := task.NewCalculator(task.DefaultPriorityConfig(), nil)
	calc.ScoreAll(reg)
	require.NoError(t, repo.SaveRegistry(ctx, reg))

	open, err := repo.FindOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, high.ID(), open[0].ID())
	assert.Equal(t, low.ID(), open[1].ID())
}

func TestAuditLogRepositoryDedup(t *testing.T) {
	db := helpers.NewTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := shared.NewMockClock(now)
	repo := persistence.NewGormAuditLogRepository(db, clock)

	require.NoError(t, repo.Log(ctx, "INFO", "sweep finished", map[string]interface{}{"tasks": 3}))
	require.NoError(t, repo.Log(ctx, "INFO", "sweep finished", nil))

	entries, err := repo.GetLogs(ctx, 10, nil, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "sweep finished", entries[0].Message)
	assert.EqualValues(t, 3, entries[0].Metadata["tasks"])

	// Outside the dedup window the same message is stored again
	clock.Advance(2 * time.Minute)
	require.NoError(t, repo.Log(ctx, "INFO", "sweep finished", nil))
	entries, err = repo.GetLogs(ctx, 10, nil, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
