package dashboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/newthinker/chartdesk/internal/catalog"
	"github.com/newthinker/chartdesk/internal/chart"
	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/logger"
	"github.com/newthinker/chartdesk/internal/trend"
	"go.uber.org/zap"
)

// CatalogLoader loads the symbol catalog once.
type CatalogLoader interface {
	Load(ctx context.Context) catalog.Catalog
}

// TrendLoader loads the trend table once.
type TrendLoader interface {
	Load(ctx context.Context) trend.Table
}

// Deps are the collaborators a session is built from.
type Deps struct {
	Catalog       CatalogLoader
	Trends        TrendLoader
	NewResolver   func() *chart.Resolver
	Variant       Variant
	DefaultSymbol string
	// Log receives chart state transitions at debug level. Nil disables them.
	Log *zap.Logger
}

// Session is one viewer's dashboard. All state transitions happen under mu,
// which plays the role of the page's single execution context.
type Session struct {
	ID string

	variant  Variant
	deps     Deps
	resolver *chart.Resolver

	mu       sync.Mutex
	state    State
	catalog  CatalogView
	trends   TrendView
	resolved bool
	mounted  bool
	loaded   chan struct{}
}

// NewSession creates an unmounted session with default state.
func NewSession(id string, deps Deps) *Session {
	s := &Session{
		ID:       id,
		variant:  deps.Variant,
		deps:     deps,
		resolver: deps.NewResolver(),
		state:    Defaults(deps.Variant, deps.DefaultSymbol),
		catalog:  CatalogView{Loading: true},
		trends:   TrendView{Loading: true},
		loaded:   make(chan struct{}),
	}

	log := logger.OrNop(deps.Log)
	s.resolver.OnChange(func(res core.ChartResolution) {
		log.Debug("chart state changed",
			zap.String("session_id", id),
			zap.String("symbol", res.Symbol),
			zap.String("timeframe", string(res.Timeframe)),
			zap.String("status", string(res.Status)),
			zap.String("url", res.URL),
		)
	})
	return s
}

// Mount starts the catalog and trend loads and resolves the initial chart.
// Loads are issued once per session; later calls do nothing.
func (s *Session) Mount(ctx context.Context) {
	s.mu.Lock()
	if s.mounted {
		s.mu.Unlock()
		return
	}
	s.mounted = true
	s.resolveLocked()
	s.mu.Unlock()

	// Loads outlive the request that created the session.
	ctx = context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		cat := s.deps.Catalog.Load(ctx)
		s.mu.Lock()
		s.catalog = CatalogView{Catalog: cat}
		s.mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		table := s.deps.Trends.Load(ctx)
		s.mu.Lock()
		s.trends = TrendView{Table: table}
		s.mu.Unlock()
	}()
	go func() {
		wg.Wait()
		close(s.loaded)
	}()
}

// WaitLoaded blocks until both loads have committed or ctx ends.
func (s *Session) WaitLoaded(ctx context.Context) error {
	select {
	case <-s.loaded:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a copy of the session for rendering.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:      s.ID,
		Variant: s.variant,
		State:   s.state,
		Catalog: s.catalog,
		Trends:  s.trends,
		Chart:   s.resolver.State(),
	}
}

// State returns the current page state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Chart returns the current chart resolution.
func (s *Session) Chart() core.ChartResolution {
	return s.resolver.State()
}

// WaitChart blocks until the current chart resolution settles or ctx ends.
func (s *Session) WaitChart(ctx context.Context) (core.ChartResolution, error) {
	return s.resolver.Wait(ctx)
}

// SelectSymbol assigns the selected symbol. The catalog is not consulted.
func (s *Session) SelectSymbol(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.state.Selection
	sel.Symbol = symbol
	s.setSelectionLocked(sel)
}

// SelectTimeframe switches to one of the variant's timeframe tabs.
func (s *Session) SelectTimeframe(tf core.Timeframe) error {
	if !s.variant.Supports(tf) {
		return core.WrapError(core.ErrInvalidTimeframe,
			fmt.Errorf("%s is not offered by the %s dashboard", tf, s.variant.Name))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.state.Selection
	sel.Timeframe = tf
	s.setSelectionLocked(sel)
	return nil
}

// Select applies a symbol and a tab timeframe in one selection change, so only
// one chart probe starts. Empty values keep the current choice.
func (s *Session) Select(symbol string, tf core.Timeframe) error {
	if tf != "" && !s.variant.Supports(tf) {
		return core.WrapError(core.ErrInvalidTimeframe,
			fmt.Errorf("%s is not offered by the %s dashboard", tf, s.variant.Name))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.state.Selection
	if symbol != "" {
		sel.Symbol = symbol
	}
	if tf != "" {
		sel.Timeframe = tf
	}
	s.setSelectionLocked(sel)
	return nil
}

// ViewChart is the trend table's "view chart" action. Any trend column
// timeframe is accepted, even one the variant has no tab for.
func (s *Session) ViewChart(symbol string, tf core.Timeframe) error {
	if symbol == "" {
		return core.ErrInvalidSymbol
	}
	if !tf.Valid() {
		return core.WrapError(core.ErrInvalidTimeframe, fmt.Errorf("%q", tf))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.state.Selection
	sel.Symbol = symbol
	sel.Timeframe = tf
	s.setSelectionLocked(sel)
	return nil
}

// Refresh forces a new chart URL for the current symbol and timeframe.
func (s *Session) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.state.Selection
	sel.RefreshToken++
	s.setSelectionLocked(sel)
}

// ToggleFullScreen flips full-screen mode and reports the new value.
// Variants without full-screen support always report false.
func (s *Session) ToggleFullScreen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.variant.FullScreen {
		return false
	}
	s.state.FullScreen = !s.state.FullScreen
	return s.state.FullScreen
}

// SortBy applies a click on a trend table header.
func (s *Session) SortBy(field core.SortField) error {
	if !field.Valid() {
		return core.WrapError(core.ErrInvalidSortField, fmt.Errorf("%q", field))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Sort = s.state.Sort.Select(field)
	return nil
}

func (s *Session) setSelectionLocked(sel core.Selection) {
	if sel == s.state.Selection && s.resolved {
		return
	}
	s.state.Selection = sel
	s.resolveLocked()
}

func (s *Session) resolveLocked() {
	s.resolver.Resolve(s.state.Selection)
	s.resolved = true
}
