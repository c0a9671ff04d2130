package chart

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/httpclient"
	"github.com/newthinker/chartdesk/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gateProber blocks each probe until the test releases its URL.
type gateProber struct {
	mu      sync.Mutex
	gates   map[string]chan error
	started chan string
}

func newGateProber() *gateProber {
	return &gateProber{
		gates:   make(map[string]chan error),
		started: make(chan string, 16),
	}
}

func (p *gateProber) gate(url string) chan error {
	p.mu.Lock()
	defer p.mu.Unlock()
	g, ok := p.gates[url]
	if !ok {
		g = make(chan error, 1)
		p.gates[url] = g
	}
	return g
}

func (p *gateProber) Probe(ctx context.Context, url string) error {
	p.started <- url
	select {
	case err := <-p.gate(url):
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *gateProber) release(url string, err error) {
	p.gate(url) <- err
}

type panicProber struct{}

func (panicProber) Probe(ctx context.Context, url string) error {
	panic("decoder exploded")
}

// stepClock advances one millisecond per call.
func stepClock(start time.Time) func() time.Time {
	var n atomic.Int64
	return func() time.Time {
		return start.Add(time.Duration(n.Add(1)) * time.Millisecond)
	}
}

func newTestResolver(p Prober, reg *metrics.Registry) *Resolver {
	r := NewResolver(ResolverConfig{Host: "https://server1501.cloud", ProbeTimeout: 5 * time.Second}, p, nil, reg)
	r.SetClock(stepClock(time.UnixMilli(1700000000000)))
	return r
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestResolver_Resolve_EntersLoadingSynchronously(t *testing.T) {
	p := newGateProber()
	r := newTestResolver(p, nil)

	res := r.Resolve(core.Selection{Symbol: "XAUUSD", Timeframe: core.TimeframeH1})

	assert.True(t, res.Loading())
	assert.Equal(t, res, r.State())
	assert.Contains(t, res.URL, "/charts/XAUUSDH1.png?t=")

	p.release(res.URL, nil)
	final, err := r.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, core.ChartReady, final.Status)
	assert.Equal(t, "XAUUSD • H1", final.Label())
}

func TestResolver_Resolve_ErrorState(t *testing.T) {
	p := newGateProber()
	r := newTestResolver(p, nil)

	res := r.Resolve(core.Selection{Symbol: "NOPE", Timeframe: core.TimeframeD1})
	p.release(res.URL, core.WrapError(core.ErrChartImage, errors.New("404")))

	final, err := r.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.True(t, final.Failed())
	assert.Equal(t, "NOPE", final.Symbol)
}

func TestResolver_Resolve_UniqueURLs(t *testing.T) {
	p := newGateProber()
	r := NewResolver(ResolverConfig{Host: "https://server1501.cloud"}, p, nil, nil)
	frozen := time.UnixMilli(1700000000000)
	r.SetClock(func() time.Time { return frozen })

	sel := core.Selection{Symbol: "XAUUSD", Timeframe: core.TimeframeH1}
	a := r.Resolve(sel)
	b := r.Resolve(sel)

	assert.NotEqual(t, a.URL, b.URL, "refreshes within one millisecond still get distinct URLs")
	assert.True(t, strings.HasSuffix(a.URL, "?t=1700000000000"))
	assert.True(t, strings.HasSuffix(b.URL, "?t=1700000000001"))
}

func TestResolver_DiscardsStaleProbe(t *testing.T) {
	reg := metrics.NewRegistry()
	p := newGateProber()
	r := newTestResolver(p, reg)

	a := r.Resolve(core.Selection{Symbol: "AAAUSD", Timeframe: core.TimeframeH1})
	b := r.Resolve(core.Selection{Symbol: "BBBUSD", Timeframe: core.TimeframeD1})
	require.NotEqual(t, a.URL, b.URL)

	// The newer request settles first.
	p.release(b.URL, nil)
	res, err := r.Wait(waitCtx(t))
	require.NoError(t, err)
	require.Equal(t, core.ChartReady, res.Status)
	require.Equal(t, "BBBUSD", res.Symbol)

	// The stale one arrives afterwards, with a different outcome.
	p.release(a.URL, errors.New("slow failure"))
	require.Eventually(t, func() bool {
		return staleCount(reg) == 1
	}, 2*time.Second, 5*time.Millisecond)

	final := r.State()
	assert.Equal(t, "BBBUSD", final.Symbol)
	assert.Equal(t, core.TimeframeD1, final.Timeframe)
	assert.Equal(t, core.ChartReady, final.Status)
	assert.Equal(t, b.URL, final.URL)
}

func TestResolver_StaleSuccessDoesNotOverrideNewerError(t *testing.T) {
	reg := metrics.NewRegistry()
	p := newGateProber()
	r := newTestResolver(p, reg)

	a := r.Resolve(core.Selection{Symbol: "AAAUSD", Timeframe: core.TimeframeH1})
	b := r.Resolve(core.Selection{Symbol: "BBBUSD", Timeframe: core.TimeframeD1})

	p.release(b.URL, core.ErrChartImage)
	_, err := r.Wait(waitCtx(t))
	require.NoError(t, err)

	p.release(a.URL, nil)
	require.Eventually(t, func() bool { return staleCount(reg) == 1 }, 2*time.Second, 5*time.Millisecond)

	final := r.State()
	assert.True(t, final.Failed())
	assert.Equal(t, "BBBUSD", final.Symbol)
}

func TestResolver_WaitFollowsNewerRequest(t *testing.T) {
	p := newGateProber()
	r := newTestResolver(p, nil)

	a := r.Resolve(core.Selection{Symbol: "AAAUSD", Timeframe: core.TimeframeH1})

	result := make(chan core.ChartResolution, 1)
	go func() {
		res, _ := r.Wait(waitCtx(t))
		result <- res
	}()

	b := r.Resolve(core.Selection{Symbol: "BBBUSD", Timeframe: core.TimeframeW1})
	p.release(a.URL, nil)
	p.release(b.URL, nil)

	select {
	case res := <-result:
		assert.Equal(t, "BBBUSD", res.Symbol)
		assert.Equal(t, core.ChartReady, res.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return")
	}
}

func TestResolver_Wait_ContextDeadline(t *testing.T) {
	p := newGateProber()
	r := newTestResolver(p, nil)
	r.Resolve(core.Selection{Symbol: "XAUUSD", Timeframe: core.TimeframeH1})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res, err := r.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, res.Loading())
}

func TestResolver_Wait_NothingRequested(t *testing.T) {
	r := newTestResolver(newGateProber(), nil)
	res, err := r.Wait(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.URL)
}

func TestResolver_ProbePanicBecomesError(t *testing.T) {
	r := newTestResolver(panicProber{}, nil)
	r.Resolve(core.Selection{Symbol: "XAUUSD", Timeframe: core.TimeframeH1})

	res, err := r.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.True(t, res.Failed())
}

func TestResolver_OnChange(t *testing.T) {
	p := newGateProber()
	r := newTestResolver(p, nil)

	var mu sync.Mutex
	var seen []core.ChartStatus
	r.OnChange(func(res core.ChartResolution) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, res.Status)
	})

	res := r.Resolve(core.Selection{Symbol: "XAUUSD", Timeframe: core.TimeframeH1})
	p.release(res.URL, nil)
	_, err := r.Wait(waitCtx(t))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []core.ChartStatus{core.ChartLoading, core.ChartReady}, seen)
}

func TestResolver_EndToEndWithImageHost(t *testing.T) {
	srv := newImageHost(t)
	prober := NewHTTPProber(httpclient.New(httpclient.Config{Timeout: time.Second}))
	r := NewResolver(ResolverConfig{Host: srv.URL}, prober, nil, nil)

	r.Resolve(core.Selection{Symbol: "XAUUSD", Timeframe: core.TimeframeH1})
	res, err := r.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, core.ChartReady, res.Status)

	r.Resolve(core.Selection{Symbol: "MISSING", Timeframe: core.TimeframeH1})
	res, err = r.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, core.ChartError, res.Status)
}

func staleCount(reg *metrics.Registry) int {
	mfs, _ := reg.Gather()
	for _, mf := range mfs {
		if mf.GetName() == "chartdesk_chart_probes_stale_total" {
			return int(mf.GetMetric()[0].GetCounter().GetValue())
		}
	}
	return 0
}
