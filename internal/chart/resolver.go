package chart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/logger"
	"github.com/newthinker/chartdesk/internal/metrics"
	"go.uber.org/zap"
)

// Resolver turns a Selection into a probed chart resolution.
//
// Only one request is live at a time. A probe result is committed only while
// its URL is still the resolver's current URL, so a slow response for an older
// selection can never replace a newer one, whatever order they settle in.
type Resolver struct {
	host    string
	prober  Prober
	timeout time.Duration
	now     func() time.Time
	log     *zap.Logger
	metrics *metrics.Registry

	mu         sync.Mutex
	state      core.ChartResolution
	done       chan struct{}
	lastMillis int64
	onChange   func(core.ChartResolution)
}

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	Host string
	// ProbeTimeout bounds a single probe; zero means no timeout.
	ProbeTimeout time.Duration
}

// NewResolver creates a resolver. log and reg may be nil.
func NewResolver(cfg ResolverConfig, prober Prober, log *zap.Logger, reg *metrics.Registry) *Resolver {
	return &Resolver{
		host:    cfg.Host,
		prober:  prober,
		timeout: cfg.ProbeTimeout,
		now:     time.Now,
		log:     logger.OrNop(log).Named("chart"),
		metrics: reg,
	}
}

// SetClock replaces the clock used for the cache-busting parameter.
func (r *Resolver) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// OnChange registers a callback invoked after every committed transition.
func (r *Resolver) OnChange(fn func(core.ChartResolution)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// Resolve enters the loading state for sel and starts probing in the background.
// It returns the loading resolution immediately.
func (r *Resolver) Resolve(sel core.Selection) core.ChartResolution {
	r.mu.Lock()
	millis := r.now().UnixMilli()
	// Keep URLs unique even for two requests within the same millisecond.
	if millis <= r.lastMillis {
		millis = r.lastMillis + 1
	}
	r.lastMillis = millis

	url := buildURL(r.host, sel.Symbol, sel.Timeframe, millis)
	r.state = core.ChartResolution{
		URL:       url,
		Symbol:    sel.Symbol,
		Timeframe: sel.Timeframe,
		Status:    core.ChartLoading,
	}
	done := make(chan struct{})
	r.done = done
	state := r.state
	cb := r.onChange
	r.mu.Unlock()

	if cb != nil {
		cb(state)
	}

	go r.probe(url, done)

	return state
}

func (r *Resolver) probe(url string, done chan struct{}) {
	defer close(done)

	err := r.runProbe(url)
	r.commit(url, err)
}

func (r *Resolver) runProbe(url string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = core.WrapError(core.ErrChartImage, fmt.Errorf("probe panicked: %v", p))
		}
	}()

	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.prober.Probe(ctx, url)
}

func (r *Resolver) commit(url string, err error) {
	r.mu.Lock()
	if r.state.URL != url {
		current := r.state.URL
		r.mu.Unlock()
		r.metrics.RecordStaleProbe()
		r.log.Debug("discarding stale chart probe",
			zap.String("url", url),
			zap.String("current", current),
		)
		return
	}

	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
		r.state.Status = core.ChartError
	} else {
		r.state.Status = core.ChartReady
	}
	state := r.state
	cb := r.onChange
	r.mu.Unlock()

	r.metrics.RecordChartProbe(outcome)
	if err != nil {
		r.log.Warn("chart image unavailable",
			zap.String("symbol", state.Symbol),
			zap.String("timeframe", string(state.Timeframe)),
			zap.Error(err),
		)
	}
	if cb != nil {
		cb(state)
	}
}

// State returns the current resolution.
func (r *Resolver) State() core.ChartResolution {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Wait blocks until the current resolution is no longer loading or ctx ends.
// If a newer Resolve supersedes the one being waited on, Wait follows the newer one.
func (r *Resolver) Wait(ctx context.Context) (core.ChartResolution, error) {
	for {
		r.mu.Lock()
		state, done := r.state, r.done
		r.mu.Unlock()

		if !state.Loading() {
			return state, nil
		}

		select {
		case <-done:
		case <-ctx.Done():
			return state, ctx.Err()
		}
	}
}
