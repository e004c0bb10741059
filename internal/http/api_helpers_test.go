package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"

	"facturacion/internal/events"
	"facturacion/internal/http/handlers"
	applog "facturacion/internal/log"
	"facturacion/internal/metrics"
	"facturacion/internal/repos"
)

const stamp = "2024-03-01 10:00:00"

type stubClock struct{}

func (stubClock) Now(context.Context) string { return stamp }

type testAPI struct {
	app   *fiber.App
	store *repos.Store
	reg   *prometheus.Registry
}

// newAPI wires the JSON API the way main does, on an in-memory store.
func newAPI(t *testing.T) *testAPI {
	t.Helper()
	store, err := repos.Open(context.Background(), repos.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	deps := handlers.NewDeps(store, stubClock{}, events.Nop{}, m)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Use(requestid.New())
	app.Use(handlers.CountRequests(m))
	app.Use(applog.Middleware())
	deps.Routes(app.Group("/api"))
	app.Use(handlers.NotFound)
	return &testAPI{app: app, store: store, reg: reg}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := a.app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out
}

// mustDo fails the test unless the response status is want, then decodes into out.
func (a *testAPI) mustDo(t *testing.T, method, path string, body any, want int, out any) {
	t.Helper()
	status, raw := a.do(t, method, path, body)
	if status != want {
		t.Fatalf("%s %s: expected %d, got %d body=%s", method, path, want, status, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("decode %s %s: %v body=%s", method, path, err, raw)
		}
	}
}

type idOnly struct {
	ID int64 `json:"id"`
}

func (a *testAPI) createCustomer(t *testing.T, email string) int64 {
	t.Helper()
	var c idOnly
	a.mustDo(t, http.MethodPost, "/api/customers", map[string]any{
		"first_name": "Ana", "last_name": "Gomez", "email": email,
	}, fiber.StatusCreated, &c)
	return c.ID
}

func (a *testAPI) createProduct(t *testing.T, name string, price int64, stock int) int64 {
	t.Helper()
	var p idOnly
	a.mustDo(t, http.MethodPost, "/api/products", map[string]any{
		"name": name, "price": price, "stock": stock,
	}, fiber.StatusCreated, &p)
	return p.ID
}

func (a *testAPI) stock(t *testing.T, productID int64) int {
	t.Helper()
	var p struct {
		Stock int `json:"stock"`
	}
	a.mustDo(t, http.MethodGet, "/api/products/"+itoa(productID), nil, fiber.StatusOK, &p)
	return p.Stock
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
