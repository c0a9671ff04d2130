// internal/api/handler/api/dashboard.go
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/newthinker/chartdesk/internal/api/middleware"
	"github.com/newthinker/chartdesk/internal/api/response"
	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/dashboard"
	"github.com/newthinker/chartdesk/internal/trend"
)

// DashboardHandler exposes the caller's dashboard session as JSON.
type DashboardHandler struct {
	loc     *time.Location
	maxWait time.Duration
}

// NewDashboardHandler creates a new dashboard handler. maxWait caps how long
// GET /api/v1/chart?wait=1 blocks.
func NewDashboardHandler(loc *time.Location, maxWait time.Duration) *DashboardHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardHandler{loc: loc, maxWait: maxWait}
}

// StateResponse is the body of GET /api/v1/state.
type StateResponse struct {
	SessionID string            `json:"session_id"`
	Variant   dashboard.Variant `json:"variant"`
	State     dashboard.State   `json:"state"`
}

// SymbolsResponse is the body of GET /api/v1/symbols.
type SymbolsResponse struct {
	Loading  bool          `json:"loading"`
	Fallback bool          `json:"fallback"`
	Symbols  []core.Symbol `json:"symbols"`
}

// TrendsResponse is the body of GET /api/v1/trends.
type TrendsResponse struct {
	Loading       bool            `json:"loading"`
	Sort          trend.SortState `json:"sort"`
	Rows          []core.TrendRow `json:"rows"`
	LatestUpdated *time.Time      `json:"latest_updated,omitempty"`
	LastUpdated   string          `json:"last_updated,omitempty"`
}

// ChartResponse is the body of the chart routes.
type ChartResponse struct {
	Selection core.Selection       `json:"selection"`
	Chart     core.ChartResolution `json:"chart"`
	Label     string               `json:"label,omitempty"`
}

// State handles GET /api/v1/state
func (h *DashboardHandler) State(w http.ResponseWriter, r *http.Request) {
	sess, ok := session(w, r)
	if !ok {
		return
	}
	snap := sess.Snapshot()
	response.JSON(w, http.StatusOK, StateResponse{
		SessionID: snap.ID,
		Variant:   snap.Variant,
		State:     snap.State,
	})
}

// Symbols handles GET /api/v1/symbols
func (h *DashboardHandler) Symbols(w http.ResponseWriter, r *http.Request) {
	sess, ok := session(w, r)
	if !ok {
		return
	}
	view := sess.Snapshot().Catalog
	symbols := view.Catalog.Symbols
	if symbols == nil {
		symbols = []core.Symbol{}
	}
	response.JSON(w, http.StatusOK, SymbolsResponse{
		Loading:  view.Loading,
		Fallback: view.Catalog.Fallback,
		Symbols:  symbols,
	})
}

// Trends handles GET /api/v1/trends?sort=<field>&dir=<asc|desc>
// Without sort the session's current ordering is used.
func (h *DashboardHandler) Trends(w http.ResponseWriter, r *http.Request) {
	sess, ok := session(w, r)
	if !ok {
		return
	}
	snap := sess.Snapshot()

	state := snap.State.Sort
	if field := r.URL.Query().Get("sort"); field != "" {
		parsed, err := trend.ParseSort(field, r.URL.Query().Get("dir"))
		if err != nil {
			response.Fail(w, err)
			return
		}
		state = parsed
	}

	if snap.Trends.Loading {
		response.JSON(w, http.StatusOK, TrendsResponse{Loading: true, Sort: state, Rows: []core.TrendRow{}})
		return
	}

	table := snap.Trends.Table
	if table.Failed() {
		response.Fail(w, table.Err)
		return
	}

	latest := table.LatestUpdated
	response.JSON(w, http.StatusOK, TrendsResponse{
		Sort:          state,
		Rows:          trend.Sort(table.Rows, state),
		LatestUpdated: &latest,
		LastUpdated:   trend.FormatUpdated(latest, h.loc),
	})
}

// Chart handles GET /api/v1/chart. With wait=1 it blocks until the current
// probe settles, the request ends or maxWait passes.
func (h *DashboardHandler) Chart(w http.ResponseWriter, r *http.Request) {
	sess, ok := session(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("wait") == "1" {
		ctx := r.Context()
		if h.maxWait > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, h.maxWait)
			defer cancel()
		}
		// On timeout the still-loading resolution is returned.
		_, _ = sess.WaitChart(ctx)
	}

	h.writeChart(w, sess)
}

// ViewChart handles POST /api/v1/view-chart?symbol=<symbol>&timeframe=<tf>
func (h *DashboardHandler) ViewChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess, ok := session(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	tf, err := core.ParseTimeframe(q.Get("timeframe"))
	if err != nil {
		response.Fail(w, err)
		return
	}
	if err := sess.ViewChart(q.Get("symbol"), tf); err != nil {
		response.Fail(w, err)
		return
	}

	h.writeChart(w, sess)
}

func (h *DashboardHandler) writeChart(w http.ResponseWriter, sess *dashboard.Session) {
	snap := sess.Snapshot()
	resp := ChartResponse{Selection: snap.State.Selection, Chart: snap.Chart}
	if snap.Chart.Status == core.ChartReady {
		resp.Label = snap.Chart.Label()
	}
	response.JSON(w, http.StatusOK, resp)
}

func session(w http.ResponseWriter, r *http.Request) (*dashboard.Session, bool) {
	sess := middleware.SessionFrom(r.Context())
	if sess == nil {
		response.Fail(w, core.ErrSessionNotFound)
		return nil, false
	}
	return sess, true
}
