// Package catalog loads the list of tradable symbols shown in the selector.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/httpclient"
	"github.com/newthinker/chartdesk/internal/logger"
	"github.com/newthinker/chartdesk/internal/metrics"
	"go.uber.org/zap"
)

// PlaceholderCount is the number of disabled selector buttons shown while loading.
const PlaceholderCount = 9

const source = "catalog"

// Catalog is the published result of one load.
// Err is diagnostic only and never shown to the user.
type Catalog struct {
	Symbols  []core.Symbol `json:"symbols"`
	Fallback bool          `json:"fallback"`
	Err      error         `json:"-"`
}

// Loader fetches the symbol catalog endpoint.
type Loader struct {
	client  httpclient.Getter
	url     string
	log     *zap.Logger
	metrics *metrics.Registry
}

// NewLoader creates a catalog loader. log and reg may be nil.
func NewLoader(client httpclient.Getter, url string, log *zap.Logger, reg *metrics.Registry) *Loader {
	return &Loader{
		client:  client,
		url:     url,
		log:     logger.OrNop(log).Named("catalog"),
		metrics: reg,
	}
}

// Load issues one request and publishes the sorted catalog, or the fallback list on any failure.
func (l *Loader) Load(ctx context.Context) Catalog {
	start := time.Now()
	symbols, err := l.fetch(ctx)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		l.metrics.RecordFetch(source, metrics.OutcomeError, elapsed)
		l.metrics.RecordFallback(source)
		l.log.Warn("failed to fetch symbols, using fallback list",
			zap.String("url", l.url),
			zap.Error(err),
		)
		return Catalog{
			Symbols:  FallbackSymbols(),
			Fallback: true,
			Err:      err,
		}
	}

	l.metrics.RecordFetch(source, metrics.OutcomeSuccess, elapsed)
	l.log.Debug("symbols loaded", zap.Int("count", len(symbols)))

	return Catalog{Symbols: SortSymbols(symbols)}
}

func (l *Loader) fetch(ctx context.Context) ([]core.Symbol, error) {
	resp, err := l.client.Get(ctx, l.url)
	if err != nil {
		return nil, core.WrapError(core.ErrCatalogFetch, err)
	}
	if !resp.IsSuccess() {
		return nil, core.WrapError(core.ErrCatalogFetch,
			fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	var symbols []core.Symbol
	if err := resp.DecodeJSON(&symbols); err != nil {
		return nil, core.WrapError(core.ErrCatalogFetch, err)
	}
	if symbols == nil {
		return nil, core.WrapError(core.ErrCatalogFetch, errors.New("response is not a symbol list"))
	}

	return symbols, nil
}

// SortSymbols returns a copy ordered by symbol with locale-aware comparison.
// Records are neither dropped nor merged, and ties keep their input order.
func SortSymbols(symbols []core.Symbol) []core.Symbol {
	sorted := slices.Clone(symbols)
	cmp := core.SymbolComparer()
	slices.SortStableFunc(sorted, func(a, b core.Symbol) int {
		return cmp(a.Symbol, b.Symbol)
	})
	return sorted
}

// FallbackSymbols is published when the catalog endpoint cannot be used.
func FallbackSymbols() []core.Symbol {
	return []core.Symbol{
		{ID: 1, Symbol: "AUDUSD", Name: "Australian Dollar/US Dollar"},
		{ID: 2, Symbol: "BTCUSD", Name: "Bitcoin/US Dollar"},
		{ID: 3, Symbol: "ETHUSD", Name: "Ethereum/US Dollar"},
		{ID: 4, Symbol: "EURUSD", Name: "Euro/US Dollar"},
		{ID: 5, Symbol: "GBPUSD", Name: "British Pound/US Dollar"},
		{ID: 6, Symbol: "NZDUSD", Name: "New Zealand Dollar/US Dollar"},
		{ID: 7, Symbol: "USDCAD", Name: "US Dollar/Canadian Dollar"},
		{ID: 8, Symbol: "USDCHF", Name: "US Dollar/Swiss Franc"},
		{ID: 9, Symbol: "USDJPY", Name: "US Dollar/Japanese Yen"},
	}
}
