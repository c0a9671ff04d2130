package trend

import (
	"fmt"
	"slices"

	"github.com/newthinker/chartdesk/internal/core"
)

// SortState is the table's current ordering.
type SortState struct {
	Field     core.SortField     `json:"field"`
	Direction core.SortDirection `json:"direction"`
}

// DefaultSort orders by symbol ascending.
func DefaultSort() SortState {
	return SortState{Field: core.SortBySymbol, Direction: core.SortAsc}
}

// Select returns the state after the user picks field: the same field flips
// direction, a new field starts ascending.
func (s SortState) Select(field core.SortField) SortState {
	if s.Field == field {
		if s.Direction == core.SortAsc {
			s.Direction = core.SortDesc
		} else {
			s.Direction = core.SortAsc
		}
		return s
	}
	return SortState{Field: field, Direction: core.SortAsc}
}

// ParseSort builds a SortState from raw query values. An empty direction means ascending.
func ParseSort(field, direction string) (SortState, error) {
	f := core.SortField(field)
	if !f.Valid() {
		return SortState{}, core.WrapError(core.ErrInvalidSortField, fmt.Errorf("%q", field))
	}
	d := core.SortDirection(direction)
	switch d {
	case "":
		d = core.SortAsc
	case core.SortAsc, core.SortDesc:
	default:
		return SortState{}, core.WrapError(core.ErrInvalidSortField, fmt.Errorf("direction %q", direction))
	}
	return SortState{Field: f, Direction: d}, nil
}

// Sort returns a sorted copy of rows; rows itself is never modified.
// The sort is stable, so rows with equal keys keep their stored order in both directions.
func Sort(rows []core.TrendRow, state SortState) []core.TrendRow {
	sorted := slices.Clone(rows)

	var cmp func(a, b core.TrendRow) int
	if state.Field == core.SortBySymbol {
		collate := core.SymbolComparer()
		cmp = func(a, b core.TrendRow) int {
			return collate(a.Symbol, b.Symbol)
		}
	} else {
		tf := core.Timeframe(state.Field)
		cmp = func(a, b core.TrendRow) int {
			av, bv := a.Signal(tf), b.Signal(tf)
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	}

	if state.Direction == core.SortDesc {
		asc := cmp
		cmp = func(a, b core.TrendRow) int { return asc(b, a) }
	}

	slices.SortStableFunc(sorted, cmp)
	return sorted
}
