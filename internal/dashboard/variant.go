package dashboard

import (
	"fmt"
	"slices"

	"github.com/newthinker/chartdesk/internal/core"
)

// Variant is a page configuration: which timeframe tabs exist and whether
// the chart can go full screen.
type Variant struct {
	Name             string           `json:"name"`
	Timeframes       []core.Timeframe `json:"timeframes"`
	DefaultTimeframe core.Timeframe   `json:"default_timeframe"`
	FullScreen       bool             `json:"fullscreen"`
}

var (
	Standard = Variant{
		Name:             "standard",
		Timeframes:       []core.Timeframe{core.TimeframeH1, core.TimeframeD1, core.TimeframeW1},
		DefaultTimeframe: core.TimeframeH1,
	}
	Extended = Variant{
		Name:             "extended",
		Timeframes:       []core.Timeframe{core.TimeframeH4, core.TimeframeD1, core.TimeframeW1},
		DefaultTimeframe: core.TimeframeH4,
		FullScreen:       true,
	}
)

// VariantByName looks up a built-in variant.
func VariantByName(name string) (Variant, error) {
	switch name {
	case Standard.Name, "":
		return Standard, nil
	case Extended.Name:
		return Extended, nil
	}
	return Variant{}, fmt.Errorf("unknown dashboard variant %q", name)
}

// Supports reports whether tf is one of the variant's tabs.
func (v Variant) Supports(tf core.Timeframe) bool {
	return slices.Contains(v.Timeframes, tf)
}
