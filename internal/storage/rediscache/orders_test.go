package rediscache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/novashop/order-service/internal/domain/order"
)

// --- Mock implementations ---

type countingRepo struct {
	byID      map[string]*order.Order
	findCalls int
}

func (m *countingRepo) Insert(_ context.Context, o *order.Order) (*order.Order, error) {
	stored := *o
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	m.byID[o.ID] = &stored
	return &stored, nil
}

func (m *countingRepo) FindByID(_ context.Context, id string) (*order.Order, error) {
	m.findCalls++
	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	out := *o
	return &out, nil
}

func (m *countingRepo) UpdateStatus(_ context.Context, id string, status order.Status) (*order.Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	out := *o
	return &out, nil
}

func (m *countingRepo) List(_ context.Context) ([]order.Order, error) {
	out := make([]order.Order, 0, len(m.byID))
	for _, o := range m.byID {
		out = append(out, *o)
	}
	return out, nil
}

// --- Helpers ---

func newCached(t *testing.T) (*CachedRepository, *countingRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &countingRepo{byID: make(map[string]*order.Order)}
	cached := New(repo, client, time.Minute, zap.NewNop())
	return cached, repo, mr
}

func testOrder(id string) *order.Order {
	return &order.Order{
		ID: id,
		Products: []order.LineItem{
			{ProductID: "P1", Quantity: 2, Price: decimal.RequireFromString("10.00")},
		},
		TotalAmount: decimal.RequireFromString("20.00"),
		Status:      order.StatusPending,
		Customer:    order.CustomerInfo{CustomerID: "C1", Email: "a@b.com"},
	}
}

// --- Tests ---

func TestFindByID_PopulatesAndServesFromCache(t *testing.T) {
	cached, repo, _ := newCached(t)
	ctx := context.Background()

	repo.byID["ORD-1"] = testOrder("ORD-1")

	first, err := cached.FindByID(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.findCalls)

	second, err := cached.FindByID(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.findCalls, "second lookup should hit the cache")

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.TotalAmount.Equal(second.TotalAmount))
	assert.Equal(t, first.Products, second.Products)
	assert.Equal(t, first.Customer, second.Customer)
}

func TestInsert_WritesThrough(t *testing.T) {
	cached, repo, _ := newCached(t)
	ctx := context.Background()

	stored, err := cached.Insert(ctx, testOrder("ORD-2"))
	require.NoError(t, err)

	got, err := cached.FindByID(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, repo.findCalls, "insert should have primed the cache")
	assert.Equal(t, stored.ID, got.ID)
}

func TestUpdateStatus_RefreshesCache(t *testing.T) {
	cached, repo, _ := newCached(t)
	ctx := context.Background()

	stored, err := cached.Insert(ctx, testOrder("ORD-3"))
	require.NoError(t, err)

	updated, err := cached.UpdateStatus(ctx, stored.ID, order.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, updated.Status)

	got, err := cached.FindByID(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, repo.findCalls, "updated record should be served from cache")
	assert.Equal(t, order.StatusShipped, got.Status)
}

func TestFindByID_NotFoundPassesThrough(t *testing.T) {
	cached, _, _ := newCached(t)

	_, err := cached.FindByID(context.Background(), "ORD-MISSING")
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestFindByID_RedisDownDegradesToRepository(t *testing.T) {
	cached, repo, mr := newCached(t)
	ctx := context.Background()

	repo.byID["ORD-4"] = testOrder("ORD-4")
	mr.Close()

	got, err := cached.FindByID(ctx, "ORD-4")
	require.NoError(t, err)
	assert.Equal(t, "ORD-4", got.ID)
	assert.Equal(t, 1, repo.findCalls)
}

func TestFindByID_CorruptEntryFallsBack(t *testing.T) {
	cached, repo, mr := newCached(t)
	ctx := context.Background()

	repo.byID["ORD-5"] = testOrder("ORD-5")
	require.NoError(t, mr.Set("order:ORD-5", "{not json"))

	got, err := cached.FindByID(ctx, "ORD-5")
	require.NoError(t, err)
	assert.Equal(t, "ORD-5", got.ID)
	assert.Equal(t, 1, repo.findCalls)
}
