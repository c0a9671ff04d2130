// Package trend loads per-symbol trend signals and derives the sortable table view.
package trend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/httpclient"
	"github.com/newthinker/chartdesk/internal/logger"
	"github.com/newthinker/chartdesk/internal/metrics"
	"go.uber.org/zap"
)

// ErrorMessage is the single user-visible message for any trend fetch failure.
const ErrorMessage = "Failed to load trend analysis data. Please try again later."

const source = "trends"

// Table is the published result of one load.
type Table struct {
	Rows          []core.TrendRow
	LatestUpdated time.Time
	// Fallback marks Rows as the built-in dataset. Fallback rows are never rendered.
	Fallback bool
	Err      error
}

// Failed reports whether the load took the error path.
func (t Table) Failed() bool {
	return t.Err != nil
}

// Loader fetches the trend signal endpoint.
type Loader struct {
	client  httpclient.Getter
	url     string
	log     *zap.Logger
	metrics *metrics.Registry
	now     func() time.Time
}

// NewLoader creates a trend loader. log and reg may be nil.
func NewLoader(client httpclient.Getter, url string, log *zap.Logger, reg *metrics.Registry) *Loader {
	return &Loader{
		client:  client,
		url:     url,
		log:     logger.OrNop(log).Named("trend"),
		metrics: reg,
		now:     time.Now,
	}
}

// SetClock replaces the clock used for the "latest updated" fallback.
func (l *Loader) SetClock(now func() time.Time) {
	l.now = now
}

// Load issues one request. Rows are stored verbatim on success.
func (l *Loader) Load(ctx context.Context) Table {
	start := time.Now()
	rows, err := l.fetch(ctx)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, core.ErrTrendStatus) {
			outcome = metrics.OutcomeBadStatus
		}
		l.metrics.RecordFetch(source, outcome, elapsed)
		l.metrics.RecordFallback(source)
		l.log.Error("error fetching trend data",
			zap.String("url", l.url),
			zap.Error(err),
		)
		return Table{
			Rows:          FallbackRows(),
			LatestUpdated: l.now(),
			Fallback:      true,
			Err:           err,
		}
	}

	l.metrics.RecordFetch(source, metrics.OutcomeSuccess, elapsed)
	l.log.Debug("trend data loaded", zap.Int("rows", len(rows)))

	return Table{
		Rows:          rows,
		LatestUpdated: LatestUpdated(rows, l.now),
	}
}

func (l *Loader) fetch(ctx context.Context) ([]core.TrendRow, error) {
	resp, err := l.client.Get(ctx, l.url)
	if err != nil {
		return nil, core.WrapError(core.ErrTrendFetch, err)
	}
	if !resp.IsSuccess() {
		return nil, core.WrapError(core.ErrTrendStatus,
			fmt.Errorf("API request failed with status %d", resp.StatusCode))
	}

	var rows []core.TrendRow
	if err := resp.DecodeJSON(&rows); err != nil {
		return nil, core.WrapError(core.ErrTrendFetch, err)
	}
	if rows == nil {
		return nil, core.WrapError(core.ErrTrendFetch, errors.New("response is not a trend list"))
	}

	return rows, nil
}

// timestampLayouts are tried in order; zone-less values are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 style timestamp.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// LatestUpdated returns the chronologically latest parseable updated value.
// Rows without one are skipped; when none has one, now() is returned.
func LatestUpdated(rows []core.TrendRow, now func() time.Time) time.Time {
	var latest time.Time
	found := false

	for _, row := range rows {
		if row.Updated == "" {
			continue
		}
		t, ok := ParseTimestamp(row.Updated)
		if !ok {
			continue
		}
		if !found || t.After(latest) {
			latest = t
			found = true
		}
	}

	if !found {
		return now()
	}
	return latest
}

// FormatUpdated renders a timestamp like "Jan 2, 2024, 12:00:00 AM".
func FormatUpdated(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "N/A"
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("Jan 2, 2006, 03:04:05 PM")
}

// FallbackRows is the built-in dataset used when the endpoint fails.
func FallbackRows() []core.TrendRow {
	return []core.TrendRow{
		{ID: 1, Symbol: "EURUSD", Name: "Euro/US Dollar", H1: 1, D1: -1, W1: 1},
		{ID: 2, Symbol: "GBPUSD", Name: "British Pound/US Dollar", H1: -1, D1: -1, W1: -1},
		{ID: 3, Symbol: "USDJPY", Name: "US Dollar/Japanese Yen", H1: 1, D1: 1, W1: -1},
		{ID: 4, Symbol: "XAUUSD", Name: "Gold/US Dollar", H1: 1, D1: 1, W1: 1},
	}
}
