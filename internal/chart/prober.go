package chart

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/httpclient"
)

// Prober checks that a chart URL yields a decodable image.
type Prober interface {
	Probe(ctx context.Context, url string) error
}

// HTTPProber downloads the image out of band and decodes it fully.
type HTTPProber struct {
	client httpclient.Getter
}

// NewHTTPProber creates a prober using client.
func NewHTTPProber(client httpclient.Getter) *HTTPProber {
	return &HTTPProber{client: client}
}

// Probe returns core.ErrChartImage for network errors, non-2xx responses and corrupt images.
func (p *HTTPProber) Probe(ctx context.Context, url string) error {
	resp, err := p.client.Get(ctx, url)
	if err != nil {
		return core.WrapError(core.ErrChartImage, err)
	}
	if !resp.IsSuccess() {
		return core.WrapError(core.ErrChartImage, fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}
	if _, _, err := image.Decode(bytes.NewReader(resp.Body)); err != nil {
		return core.WrapError(core.ErrChartImage, fmt.Errorf("decoding image: %w", err))
	}
	return nil
}
