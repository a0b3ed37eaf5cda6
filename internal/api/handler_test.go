package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/novashop/order-service/internal/domain/order"
)

// --- In-memory fakes ---

type memRepo struct {
	mu     sync.Mutex
	orders map[string]*order.Order
	seq    []string
}

func newMemRepo() *memRepo {
	return &memRepo{orders: make(map[string]*order.Order)}
}

func (m *memRepo) Insert(_ context.Context, o *order.Order) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.orders[o.ID]; exists {
		return nil, order.ErrDuplicateID
	}
	stored := *o
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	m.orders[o.ID] = &stored
	m.seq = append(m.seq, o.ID)
	out := stored
	return &out, nil
}

func (m *memRepo) FindByID(_ context.Context, id string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	out := *o
	return &out, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id string, status order.Status) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	out := *o
	return &out, nil
}

func (m *memRepo) List(_ context.Context) ([]order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]order.Order, 0, len(m.seq))
	for i := len(m.seq) - 1; i >= 0; i-- {
		out = append(out, *m.orders[m.seq[i]])
	}
	return out, nil
}

type capturePublisher struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (p *capturePublisher) PublishOrderCreated(_ context.Context, o *order.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, o.ID)
	return nil
}

// --- Helpers ---

func newTestServer(t *testing.T) (*httptest.Server, *memRepo, *capturePublisher) {
	t.Helper()
	repo := newMemRepo()
	pub := &capturePublisher{}
	h := NewHandler(order.NewService(repo, pub, zap.NewNop()))
	ts := httptest.NewServer(h.Routes())
	t.Cleanup(ts.Close)
	return ts, repo, pub
}

const validOrderBody = `{
	"products": [{"productId": "P1", "quantity": 2, "price": 10.00}],
	"totalAmount": 20.00,
	"customerInfo": {"customerId": "C1", "email": "a@b.com"}
}`

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	return resp
}

func patchJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPatch, url, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func createOrder(t *testing.T, ts *httptest.Server, body string) createOrderResponse {
	t.Helper()
	resp := postJSON(t, ts.URL+"/orders", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created createOrderResponse
	decodeBody(t, resp, &created)
	return created
}

// --- Tests ---

func TestHealth(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body healthResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "order-service", body.Service)
	assert.NotEmpty(t, body.Timestamp)
}

func TestCreateOrder(t *testing.T) {
	ts, _, pub := newTestServer(t)

	created := createOrder(t, ts, validOrderBody)

	assert.True(t, created.Success)
	assert.Regexp(t, `^ORD-`, created.OrderID)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, 20.00, created.TotalAmount)
	assert.False(t, created.CreatedAt.IsZero())

	require.Len(t, pub.published, 1)
	assert.Equal(t, created.OrderID, pub.published[0])
}

func TestCreateOrder_TotalMismatch(t *testing.T) {
	ts, repo, _ := newTestServer(t)

	body := `{
		"products": [{"productId": "P1", "quantity": 2, "price": 10.00}],
		"totalAmount": 25.00,
		"customerInfo": {"customerId": "C1", "email": "a@b.com"}
	}`
	resp := postJSON(t, ts.URL+"/orders", body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errBody errorResponse
	decodeBody(t, resp, &errBody)
	assert.False(t, errBody.Success)
	assert.Contains(t, errBody.Error, "Total amount does not match")
	assert.Empty(t, repo.orders)
}

func TestCreateOrder_EmptyProducts(t *testing.T) {
	ts, _, _ := newTestServer(t)

	body := `{
		"products": [],
		"totalAmount": 20.00,
		"customerInfo": {"customerId": "C1", "email": "a@b.com"}
	}`
	resp := postJSON(t, ts.URL+"/orders", body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errBody errorResponse
	decodeBody(t, resp, &errBody)
	assert.False(t, errBody.Success)
}

func TestCreateOrder_MalformedJSON(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/orders", `{"products": "nope"`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateOrder_PublishFailureStillSucceeds(t *testing.T) {
	ts, repo, pub := newTestServer(t)
	pub.err = fmt.Errorf("broker unreachable")

	created := createOrder(t, ts, validOrderBody)
	assert.True(t, created.Success)
	assert.Len(t, repo.orders, 1)
}

func TestGetOrder_RoundTrip(t *testing.T) {
	ts, _, _ := newTestServer(t)

	created := createOrder(t, ts, validOrderBody)

	resp, err := http.Get(ts.URL + "/orders/" + created.OrderID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body orderResponse
	decodeBody(t, resp, &body)
	assert.True(t, body.Success)
	assert.Equal(t, created.OrderID, body.Data.OrderID)
	assert.Equal(t, "pending", body.Data.Status)
	assert.Equal(t, 20.00, body.Data.TotalAmount)
	require.Len(t, body.Data.Products, 1)
	assert.Equal(t, "P1", body.Data.Products[0].ProductID)
	assert.Equal(t, 2, body.Data.Products[0].Quantity)
	assert.Equal(t, 10.00, body.Data.Products[0].Price)
	assert.Equal(t, "C1", body.Data.CustomerInfo.CustomerID)
	assert.Equal(t, "a@b.com", body.Data.CustomerInfo.Email)
}

func TestGetOrder_NotFound(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/orders/ORD-MISSING")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var errBody errorResponse
	decodeBody(t, resp, &errBody)
	assert.Equal(t, "Order not found", errBody.Error)
}

func TestListOrders_NewestFirst(t *testing.T) {
	ts, _, _ := newTestServer(t)

	first := createOrder(t, ts, validOrderBody)
	second := createOrder(t, ts, validOrderBody)

	resp, err := http.Get(ts.URL + "/orders")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body listOrdersResponse
	decodeBody(t, resp, &body)
	assert.True(t, body.Success)
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Data, 2)
	assert.Equal(t, second.OrderID, body.Data[0].OrderID)
	assert.Equal(t, first.OrderID, body.Data[1].OrderID)
}

func TestUpdateStatus(t *testing.T) {
	ts, _, _ := newTestServer(t)

	created := createOrder(t, ts, validOrderBody)
	time.Sleep(10 * time.Millisecond)

	resp := patchJSON(t, ts.URL+"/orders/"+created.OrderID+"/status", `{"status": "shipped"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body orderResponse
	decodeBody(t, resp, &body)
	assert.True(t, body.Success)
	assert.Equal(t, "shipped", body.Data.Status)
	assert.True(t, body.Data.UpdatedAt.After(body.Data.CreatedAt), "updatedAt should advance")
}

func TestUpdateStatus_Invalid(t *testing.T) {
	ts, _, _ := newTestServer(t)

	created := createOrder(t, ts, validOrderBody)

	resp := patchJSON(t, ts.URL+"/orders/"+created.OrderID+"/status", `{"status": "teleported"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errBody errorResponse
	decodeBody(t, resp, &errBody)
	assert.Contains(t, errBody.Error, "Invalid status")
	assert.Contains(t, errBody.Error, "pending, confirmed, shipped, delivered, cancelled")
}

func TestUpdateStatus_NotFound(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := patchJSON(t, ts.URL+"/orders/ORD-MISSING/status", `{"status": "shipped"}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateOrder_ConcurrentIdenticalPayloads(t *testing.T) {
	ts, _, _ := newTestServer(t)

	const n = 2
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Post(ts.URL+"/orders", "application/json", bytes.NewBufferString(validOrderBody))
			if err != nil {
				t.Error(err)
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusCreated {
				t.Errorf("unexpected status %d", resp.StatusCode)
				return
			}
			var created createOrderResponse
			if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
				t.Error(err)
				return
			}
			ids <- created.OrderID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]struct{})
	for id := range ids {
		_, dup := seen[id]
		assert.False(t, dup, "orders with identical payloads must get distinct ids")
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, n)
}

func TestUnknownEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var errBody errorResponse
	decodeBody(t, resp, &errBody)
	assert.Equal(t, "Endpoint not found", errBody.Error)
}
