package core

import "fmt"

// Timeframe is a chart/trend sampling interval.
type Timeframe string

const (
	TimeframeH1 Timeframe = "H1"
	TimeframeH4 Timeframe = "H4"
	TimeframeD1 Timeframe = "D1"
	TimeframeW1 Timeframe = "W1"
)

// Valid reports whether tf is a known timeframe.
func (tf Timeframe) Valid() bool {
	switch tf {
	case TimeframeH1, TimeframeH4, TimeframeD1, TimeframeW1:
		return true
	}
	return false
}

// ParseTimeframe converts a raw string into a Timeframe.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(s)
	if !tf.Valid() {
		return "", WrapError(ErrInvalidTimeframe, fmt.Errorf("unknown timeframe %q", s))
	}
	return tf, nil
}

// Symbol is a tradable instrument from the symbol catalog.
type Symbol struct {
	ID     int    `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// TrendRow holds the trend signals of one symbol.
// Positive values are bullish, negative bearish, zero neutral.
type TrendRow struct {
	ID      int    `json:"id"`
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
	H1      int    `json:"H1"`
	D1      int    `json:"D1"`
	W1      int    `json:"W1"`
	Updated string `json:"updated,omitempty"`
}

// Signal returns the trend value for a table timeframe (H1, D1 or W1).
// Any other timeframe yields zero.
func (r TrendRow) Signal(tf Timeframe) int {
	switch tf {
	case TimeframeH1:
		return r.H1
	case TimeframeD1:
		return r.D1
	case TimeframeW1:
		return r.W1
	}
	return 0
}

// TrendColumns are the timeframes carried by every TrendRow.
var TrendColumns = []Timeframe{TimeframeH1, TimeframeD1, TimeframeW1}

// Direction is the human label of a trend signal.
type Direction string

const (
	DirectionBullish Direction = "Bullish"
	DirectionBearish Direction = "Bearish"
	DirectionNeutral Direction = "Neutral"
)

// Trend maps a signed signal to its direction.
func Trend(value int) Direction {
	switch {
	case value > 0:
		return DirectionBullish
	case value < 0:
		return DirectionBearish
	default:
		return DirectionNeutral
	}
}

// Selection is the page-level choice of what chart to show.
// RefreshToken only exists to force a new chart URL for the same symbol and timeframe.
type Selection struct {
	Symbol       string    `json:"symbol"`
	Timeframe    Timeframe `json:"timeframe"`
	RefreshToken int       `json:"refresh_token"`
}

// ChartStatus is the lifecycle of a chart resolution.
type ChartStatus string

const (
	ChartLoading ChartStatus = "loading"
	ChartReady   ChartStatus = "ready"
	ChartError   ChartStatus = "error"
)

// ChartResolution is the derived state of the chart panel.
type ChartResolution struct {
	URL       string      `json:"url"`
	Symbol    string      `json:"symbol"`
	Timeframe Timeframe   `json:"timeframe"`
	Status    ChartStatus `json:"status"`
}

// Loading reports whether the probe for URL is still outstanding.
func (c ChartResolution) Loading() bool {
	return c.Status == ChartLoading
}

// Failed reports whether the image could not be loaded.
func (c ChartResolution) Failed() bool {
	return c.Status == ChartError
}

// Label is the overlay text shown on a ready chart.
func (c ChartResolution) Label() string {
	return fmt.Sprintf("%s • %s", c.Symbol, c.Timeframe)
}

// SortField names a sortable trend table column.
type SortField string

const (
	SortBySymbol SortField = "symbol"
	SortByH1     SortField = "H1"
	SortByD1     SortField = "D1"
	SortByW1     SortField = "W1"
)

// Valid reports whether f is a known sort field.
func (f SortField) Valid() bool {
	switch f {
	case SortBySymbol, SortByH1, SortByD1, SortByW1:
		return true
	}
	return false
}

// SortDirection is ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)
