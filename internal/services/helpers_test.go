package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"facturacion/internal/domain"
	"facturacion/internal/events"
	"facturacion/internal/repos"
)

func memstore(t *testing.T) *repos.Store {
	t.Helper()
	store, err := repos.Open(context.Background(), repos.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

type fixedClock struct {
	mu    sync.Mutex
	stamp string
	calls int
}

func (c *fixedClock) Now(context.Context) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.stamp
}

func (c *fixedClock) set(stamp string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stamp = stamp
}

type recorder struct {
	mu     sync.Mutex
	events []events.SaleEvent
}

func (r *recorder) Publish(_ context.Context, ev events.SaleEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func seedCustomer(t *testing.T, store *repos.Store, email string) domain.Customer {
	t.Helper()
	c := domain.Customer{FirstName: "Ana", LastName: "Pérez", Email: email}
	require.NoError(t, store.Repos().Customers.Create(context.Background(), &c))
	return c
}

func seedProduct(t *testing.T, store *repos.Store, name string, price int64, stock int) domain.Product {
	t.Helper()
	p := domain.Product{Name: name, Price: price, Stock: stock}
	require.NoError(t, store.Repos().Products.Create(context.Background(), &p))
	return p
}

func stockOf(t *testing.T, store *repos.Store, productID int64) int {
	t.Helper()
	n, err := store.Repos().Inventory.Stock(context.Background(), productID)
	require.NoError(t, err)
	return n
}

func countSales(t *testing.T, store *repos.Store) int {
	t.Helper()
	var n int
	require.NoError(t, store.DB().Get(&n, `SELECT COUNT(1) FROM sales`))
	return n
}

func countLines(t *testing.T, store *repos.Store) int {
	t.Helper()
	var n int
	require.NoError(t, store.DB().Get(&n, `SELECT COUNT(1) FROM sale_lines`))
	return n
}
