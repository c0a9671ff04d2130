package trend

import "github.com/newthinker/chartdesk/internal/core"

// Cell is one rendered trend value with its "view chart" target.
type Cell struct {
	Symbol    string
	Timeframe core.Timeframe
	Value     int
	Direction core.Direction
}

// Cells returns the H1, D1 and W1 cells of row in column order.
func Cells(row core.TrendRow) []Cell {
	cells := make([]Cell, 0, len(core.TrendColumns))
	for _, tf := range core.TrendColumns {
		v := row.Signal(tf)
		cells = append(cells, Cell{
			Symbol:    row.Symbol,
			Timeframe: tf,
			Value:     v,
			Direction: core.Trend(v),
		})
	}
	return cells
}
