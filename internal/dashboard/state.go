package dashboard

import (
	"github.com/newthinker/chartdesk/internal/catalog"
	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/trend"
)

// State is everything the page needs to remember between requests.
// It is passed down to renderers; changes only happen through Session methods.
type State struct {
	Selection  core.Selection  `json:"selection"`
	FullScreen bool            `json:"fullscreen"`
	Sort       trend.SortState `json:"sort"`
}

// Defaults returns the initial state for a variant.
func Defaults(v Variant, symbol string) State {
	return State{
		Selection: core.Selection{
			Symbol:    symbol,
			Timeframe: v.DefaultTimeframe,
		},
		Sort: trend.DefaultSort(),
	}
}

// CatalogView is the selector's data. Loading means the fetch is outstanding.
type CatalogView struct {
	Loading bool
	Catalog catalog.Catalog
}

// TrendView is the table's data. Loading means the fetch is outstanding.
type TrendView struct {
	Loading bool
	Table   trend.Table
}

// Snapshot is a consistent copy of a session for rendering.
type Snapshot struct {
	ID      string
	Variant Variant
	State   State
	Catalog CatalogView
	Trends  TrendView
	Chart   core.ChartResolution
}

// SortedRows applies the snapshot's sort to the stored rows.
func (s Snapshot) SortedRows() []core.TrendRow {
	return trend.Sort(s.Trends.Table.Rows, s.State.Sort)
}
