package clock

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"facturacion/internal/metrics"
)

var fixedLocal = time.Date(2024, 12, 31, 23, 59, 58, 0, time.Local)

func newTestService(t *testing.T, url string) *Service {
	t.Helper()
	s := New(Config{URL: url, TimeZone: "America/Argentina/Buenos_Aires", Timeout: time.Second}, zaptest.NewLogger(t), nil)
	s.now = func() time.Time { return fixedLocal }
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func jsonServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "America/Argentina/Buenos_Aires", r.URL.Query().Get("timeZone"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNowUsesRemoteTime(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"dateTime", `{"dateTime":"2025-03-04T05:06:07.1234567","date":"03/04/2025","time":"05:06"}`, "2025-03-04 05:06:07"},
		{"date and time", `{"date":"03/04/2025","time":"05:06"}`, "2025-03-04 05:06:00"},
		{"iso date with seconds", `{"date":"2025-03-04","time":"05:06:09"}`, "2025-03-04 05:06:09"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv := jsonServer(t, http.StatusOK, c.body)
			assert.Equal(t, c.want, newTestService(t, srv.URL).Now(context.Background()))
		})
	}
}

func TestNowFallsBackToLocalClock(t *testing.T) {
	want := fixedLocal.Format(Layout)
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"missing fields", http.StatusOK, `{"timeZone":"America/Argentina/Buenos_Aires"}`},
		{"only date", http.StatusOK, `{"date":"03/04/2025"}`},
		{"garbage values", http.StatusOK, `{"date":"yesterday","time":"noon"}`},
		{"server error", http.StatusInternalServerError, `{"error":"down"}`},
		{"not json", http.StatusOK, `<html>`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv := jsonServer(t, c.status, c.body)
			assert.Equal(t, want, newTestService(t, srv.URL).Now(context.Background()))
		})
	}
}

func TestNowFallsBackWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	reg := prometheus.NewRegistry()
	s := New(Config{URL: url, Timeout: 200 * time.Millisecond}, zaptest.NewLogger(t), metrics.New(reg))
	s.now = func() time.Time { return fixedLocal }
	defer s.Close()

	assert.Equal(t, fixedLocal.Format(Layout), s.Now(context.Background()))

	expected := `
# HELP facturacion_clock_fallbacks_total Sale timestamps taken from the local clock after a remote lookup failed
# TYPE facturacion_clock_fallbacks_total counter
facturacion_clock_fallbacks_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "facturacion_clock_fallbacks_total"))
}

func TestNewAppliesDefaults(t *testing.T) {
	s := New(Config{}, nil, nil)
	defer s.Close()
	assert.Equal(t, DefaultURL, s.url)
	assert.Equal(t, DefaultTimeZone, s.zone)
}
