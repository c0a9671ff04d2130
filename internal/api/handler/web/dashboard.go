// internal/api/handler/web/dashboard.go
package web

import (
	"context"
	"net/http"

	"github.com/newthinker/chartdesk/internal/api/middleware"
	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/dashboard"
	"go.uber.org/zap"
)

// Dashboard renders the dashboard page. Query parameters are applied to the
// session and answered with a redirect, so reloading never repeats them.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	sess := middleware.SessionFrom(r.Context())
	if sess == nil {
		http.Error(w, "no session", http.StatusInternalServerError)
		return
	}

	if len(r.URL.Query()) > 0 {
		if err := applyQuery(sess, r); err != nil {
			h.logger.Debug("rejected dashboard action", zap.Error(err))
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if h.chartWait > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), h.chartWait)
		// A probe still running after chartWait is shown as the skeleton.
		_, _ = sess.WaitChart(ctx)
		cancel()
	}

	h.render(w, "dashboard.html", newDashboardData(sess.Snapshot(), h.loc, h.now()))
}

// Chart renders the chart panel.
func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	h.fragment(w, r, "chart")
}

// Symbols renders the symbol selector.
func (h *Handler) Symbols(w http.ResponseWriter, r *http.Request) {
	h.fragment(w, r, "symbols")
}

// Trends renders the trend table.
func (h *Handler) Trends(w http.ResponseWriter, r *http.Request) {
	h.fragment(w, r, "trends")
}

func (h *Handler) fragment(w http.ResponseWriter, r *http.Request, name string) {
	sess := middleware.SessionFrom(r.Context())
	if sess == nil {
		http.Error(w, "no session", http.StatusInternalServerError)
		return
	}
	h.renderFragment(w, name, newDashboardData(sess.Snapshot(), h.loc, h.now()))
}

func applyQuery(sess *dashboard.Session, r *http.Request) error {
	q := r.URL.Query()

	// The trend table's view-chart link bypasses the variant's tabs.
	if q.Get("view") == "1" {
		tf, err := core.ParseTimeframe(q.Get("timeframe"))
		if err != nil {
			return err
		}
		return sess.ViewChart(q.Get("symbol"), tf)
	}

	var tf core.Timeframe
	if v := q.Get("timeframe"); v != "" {
		parsed, err := core.ParseTimeframe(v)
		if err != nil {
			return err
		}
		tf = parsed
	}
	if err := sess.Select(q.Get("symbol"), tf); err != nil {
		return err
	}
	if q.Get("refresh") == "1" {
		sess.Refresh()
	}
	if q.Get("fullscreen") == "1" {
		sess.ToggleFullScreen()
	}
	if f := q.Get("sort"); f != "" {
		if err := sess.SortBy(core.SortField(f)); err != nil {
			return err
		}
	}
	return nil
}
