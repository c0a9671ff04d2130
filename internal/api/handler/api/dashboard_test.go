// internal/api/handler/api/dashboard_test.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newthinker/chartdesk/internal/api/middleware"
	"github.com/newthinker/chartdesk/internal/api/response"
	"github.com/newthinker/chartdesk/internal/catalog"
	"github.com/newthinker/chartdesk/internal/chart"
	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/dashboard"
	"github.com/newthinker/chartdesk/internal/trend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCatalog struct{}

func (fixedCatalog) Load(ctx context.Context) catalog.Catalog {
	return catalog.Catalog{Symbols: catalog.FallbackSymbols(), Fallback: true}
}

type fixedTrends struct {
	table trend.Table
}

func (t fixedTrends) Load(ctx context.Context) trend.Table {
	return t.table
}

// gatedProber holds every probe until release is closed.
type gatedProber struct {
	release chan struct{}
}

func (p gatedProber) Probe(ctx context.Context, url string) error {
	if p.release != nil {
		<-p.release
	}
	return nil
}

func newSession(t *testing.T, v dashboard.Variant, table trend.Table, prober chart.Prober) *dashboard.Session {
	t.Helper()
	sess := dashboard.NewSession("sess-1", dashboard.Deps{
		Catalog: fixedCatalog{},
		Trends:  fixedTrends{table: table},
		NewResolver: func() *chart.Resolver {
			return chart.NewResolver(chart.ResolverConfig{Host: "https://server1501.cloud"}, prober, nil, nil)
		},
		Variant:       v,
		DefaultSymbol: "XAUUSD",
	})
	sess.Mount(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, sess.WaitLoaded(ctx))
	return sess
}

func rows() trend.Table {
	return trend.Table{
		Rows: []core.TrendRow{
			{ID: 1, Symbol: "XAUUSD", H1: 1, D1: 5, W1: -2},
			{ID: 2, Symbol: "EURUSD", H1: 3, D1: -1, W1: 0},
			{ID: 3, Symbol: "GBPUSD", H1: 3, D1: 2, W1: 1},
		},
		LatestUpdated: time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC),
	}
}

func call(h http.HandlerFunc, sess *dashboard.Session, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if sess != nil {
		req = req.WithContext(middleware.WithSession(req.Context(), sess))
	}
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Data
}

func TestDashboardHandler_State(t *testing.T) {
	h := NewDashboardHandler(nil, time.Second)
	sess := newSession(t, dashboard.Standard, rows(), gatedProber{})

	w := call(h.State, sess, http.MethodGet, "/api/v1/state")
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[StateResponse](t, w)
	assert.Equal(t, "sess-1", got.SessionID)
	assert.Equal(t, "standard", got.Variant.Name)
	assert.Equal(t, "XAUUSD", got.State.Selection.Symbol)
	assert.Equal(t, core.TimeframeH1, got.State.Selection.Timeframe)
	assert.Equal(t, core.SortBySymbol, got.State.Sort.Field)
}

func TestDashboardHandler_Symbols(t *testing.T) {
	h := NewDashboardHandler(nil, time.Second)
	sess := newSession(t, dashboard.Standard, rows(), gatedProber{})

	got := decode[SymbolsResponse](t, call(h.Symbols, sess, http.MethodGet, "/api/v1/symbols"))
	assert.False(t, got.Loading)
	assert.True(t, got.Fallback)
	assert.Len(t, got.Symbols, catalog.PlaceholderCount)
}

func TestDashboardHandler_Trends_SessionSort(t *testing.T) {
	h := NewDashboardHandler(nil, time.Second)
	sess := newSession(t, dashboard.Standard, rows(), gatedProber{})

	got := decode[TrendsResponse](t, call(h.Trends, sess, http.MethodGet, "/api/v1/trends"))
	require.Len(t, got.Rows, 3)
	assert.Equal(t, []string{"EURUSD", "GBPUSD", "XAUUSD"}, symbolsOf(got.Rows))
	assert.Equal(t, "Jan 2, 2024, 09:30:00 AM", got.LastUpdated)
	require.NotNil(t, got.LatestUpdated)
}

func TestDashboardHandler_Trends_QuerySort(t *testing.T) {
	h := NewDashboardHandler(nil, time.Second)
	sess := newSession(t, dashboard.Standard, rows(), gatedProber{})

	got := decode[TrendsResponse](t, call(h.Trends, sess, http.MethodGet, "/api/v1/trends?sort=H1&dir=desc"))
	// Equal H1 values keep stored order.
	assert.Equal(t, []string{"EURUSD", "GBPUSD", "XAUUSD"}, symbolsOf(got.Rows))
	assert.Equal(t, core.SortDesc, got.Sort.Direction)

	// The query never changes the session's ordering.
	assert.Equal(t, trend.DefaultSort(), sess.State().Sort)
}

func TestDashboardHandler_Trends_BadSort(t *testing.T) {
	h := NewDashboardHandler(nil, time.Second)
	sess := newSession(t, dashboard.Standard, rows(), gatedProber{})

	w := call(h.Trends, sess, http.MethodGet, "/api/v1/trends?sort=M5")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDashboardHandler_Trends_ErrorPath(t *testing.T) {
	h := NewDashboardHandler(nil, time.Second)
	failed := trend.Table{
		Rows:     trend.FallbackRows(),
		Fallback: true,
		Err:      core.WrapError(core.ErrTrendStatus, errors.New("API request failed with status 500")),
	}
	sess := newSession(t, dashboard.Standard, failed, gatedProber{})

	w := call(h.Trends, sess, http.MethodGet, "/api/v1/trends")
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "TREND_BAD_STATUS", resp.Error.Code)
	assert.NotContains(t, w.Body.String(), "rows")
}

func TestDashboardHandler_Chart_Wait(t *testing.T) {
	h := NewDashboardHandler(nil, 2*time.Second)
	release := make(chan struct{})
	sess := newSession(t, dashboard.Standard, rows(), gatedProber{release: release})

	got := decode[ChartResponse](t, call(h.Chart, sess, http.MethodGet, "/api/v1/chart"))
	assert.Equal(t, core.ChartLoading, got.Chart.Status)
	assert.Empty(t, got.Label)

	close(release)
	got = decode[ChartResponse](t, call(h.Chart, sess, http.MethodGet, "/api/v1/chart?wait=1"))
	assert.Equal(t, core.ChartReady, got.Chart.Status)
	assert.Equal(t, "XAUUSD • H1", got.Label)
	assert.Contains(t, got.Chart.URL, "/charts/XAUUSDH1.png?t=")
}

func TestDashboardHandler_Chart_WaitTimesOut(t *testing.T) {
	h := NewDashboardHandler(nil, 20*time.Millisecond)
	release := make(chan struct{})
	defer close(release)
	sess := newSession(t, dashboard.Standard, rows(), gatedProber{release: release})

	w := call(h.Chart, sess, http.MethodGet, "/api/v1/chart?wait=1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, core.ChartLoading, decode[ChartResponse](t, w).Chart.Status)
}

func TestDashboardHandler_ViewChart(t *testing.T) {
	h := NewDashboardHandler(nil, time.Second)
	sess := newSession(t, dashboard.Extended, rows(), gatedProber{})

	// H1 is not an extended tab but the table may still request it.
	w := call(h.ViewChart, sess, http.MethodPost, "/api/v1/view-chart?symbol=EURUSD&timeframe=H1")
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[ChartResponse](t, w)
	assert.Equal(t, "EURUSD", got.Selection.Symbol)
	assert.Equal(t, core.TimeframeH1, got.Selection.Timeframe)
	assert.Equal(t, "EURUSD", got.Chart.Symbol)
}

func TestDashboardHandler_ViewChart_Validation(t *testing.T) {
	h := NewDashboardHandler(nil, time.Second)
	sess := newSession(t, dashboard.Standard, rows(), gatedProber{})

	tests := []struct {
		name   string
		method string
		target string
		want   int
	}{
		{"wrong method", http.MethodGet, "/api/v1/view-chart?symbol=EURUSD&timeframe=H1", http.StatusMethodNotAllowed},
		{"missing symbol", http.MethodPost, "/api/v1/view-chart?timeframe=H1", http.StatusBadRequest},
		{"bad timeframe", http.MethodPost, "/api/v1/view-chart?symbol=EURUSD&timeframe=M1", http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := call(h.ViewChart, sess, tc.method, tc.target)
			assert.Equal(t, tc.want, w.Code)
		})
	}
	assert.Equal(t, "XAUUSD", sess.State().Selection.Symbol)
}

func TestDashboardHandler_NoSession(t *testing.T) {
	h := NewDashboardHandler(nil, time.Second)
	w := call(h.State, nil, http.MethodGet, "/api/v1/state")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func symbolsOf(rows []core.TrendRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Symbol)
	}
	return out
}

func TestDashboardHandler_ViewChart_EmptySymbol(t *testing.T) {
	h := NewDashboardHandler(nil, time.Second)
	sess := newSession(t, dashboard.Standard, rows(), gatedProber{})

	w := call(h.ViewChart, sess, http.MethodPost, "/api/v1/view-chart?symbol=&timeframe=H1")
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_SYMBOL", resp.Error.Code)
}
