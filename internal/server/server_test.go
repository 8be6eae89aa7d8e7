package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hession/datamate/internal/agent"
	"github.com/hession/datamate/internal/metrics"
	"github.com/hession/datamate/internal/store"
	"github.com/hession/datamate/internal/store/storetest"
	"github.com/hession/datamate/internal/tools"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeAsker struct {
	queries []string
}

func (f *fakeAsker) Ask(_ context.Context, query string) *agent.Turn {
	f.queries = append(f.queries, query)
	return &agent.Turn{
		Query:   query,
		Reply:   "Average sale price: 42.50",
		Outcome: agent.OutcomeTool,
		Tool:    "get_average_price",
	}
}

func newTestServer(t *testing.T, gatherer prometheus.Gatherer) (*Server, *fakeAsker) {
	t.Helper()

	path := storetest.Create(t, storetest.DefaultSales)
	s, err := store.NewSQLiteStore(context.Background(), path, store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	reg, err := tools.NewDefaultRegistry()
	require.NoError(t, err)

	asker := &fakeAsker{}
	return New(asker, s, reg, Options{Log: zerolog.Nop(), Gatherer: gatherer}), asker
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestIDPropagated(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

func TestQuery(t *testing.T) {
	srv, asker := newTestServer(t, nil)

	body := bytes.NewBufferString(`{"query": "average price?"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/query", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp QueryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Average sale price: 42.50", resp.Reply)
	assert.Equal(t, "tool", resp.Outcome)
	assert.Equal(t, "get_average_price", resp.Tool)
	assert.Equal(t, []string{"average price?"}, asker.queries)
}

func TestQuery_BadRequest(t *testing.T) {
	srv, asker := newTestServer(t, nil)

	for _, body := range []string{`{}`, `not json`, `{"query": ""}`} {
		req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.Empty(t, asker.queries)
}

func TestSummary(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/summary", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var summary struct {
		Rows          int64    `json:"rows"`
		Columns       []string `json:"columns"`
		TotalSales    string   `json:"total_sales"`
		SalesByRegion []struct {
			Region string `json:"region"`
		} `json:"sales_by_region"`
		Sample [][]any `json:"sample"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, int64(6), summary.Rows)
	assert.Contains(t, summary.Columns, "Total")
	assert.Equal(t, "1710.5", summary.TotalSales)
	assert.Len(t, summary.SalesByRegion, 3)
	assert.Len(t, summary.Sample, 6)
}

func TestSummary_DataUnavailable(t *testing.T) {
	path := storetest.Create(t, storetest.DefaultSales)
	s, err := store.NewSQLiteStore(context.Background(), path, store.Options{})
	require.NoError(t, err)
	s.Close()

	reg, _ := tools.NewDefaultRegistry()
	srv := New(&fakeAsker{}, s, reg, Options{Log: zerolog.Nop()})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/summary", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTools(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/tools", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Tools []tools.Descriptor `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Tools, 5)
	assert.Equal(t, "get_customer_names", resp.Tools[0].Name)
	assert.Equal(t, "region", resp.Tools[2].Parameters[0].Name)
	assert.True(t, resp.Tools[2].Parameters[0].Required)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ObserveTurn("tool", time.Millisecond)

	srv, _ := newTestServer(t, reg)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `datamate_agent_turns_total{outcome="tool"} 1`)
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRun_Shutdown(t *testing.T) {
	path := storetest.Create(t, storetest.DefaultSales)
	s, err := store.NewSQLiteStore(context.Background(), path, store.Options{})
	require.NoError(t, err)
	defer s.Close()
	reg, _ := tools.NewDefaultRegistry()

	srv := New(&fakeAsker{}, s, reg, Options{Addr: "127.0.0.1:0", Log: zerolog.Nop()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
