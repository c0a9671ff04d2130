package web

import (
	"time"

	"github.com/newthinker/chartdesk/internal/catalog"
	"github.com/newthinker/chartdesk/internal/chart"
	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/dashboard"
	"github.com/newthinker/chartdesk/internal/trend"
)

// SymbolButton is one entry of the symbol selector.
type SymbolButton struct {
	Symbol   string
	Name     string
	Selected bool
}

// SymbolsView holds data for the symbol selector.
type SymbolsView struct {
	Loading      bool
	Placeholders []int
	Buttons      []SymbolButton
}

// HeaderView is a sortable trend table column header.
type HeaderView struct {
	Field  core.SortField
	Label  string
	Active bool
	Icon   string
}

// TrendRowView is one rendered trend table row.
type TrendRowView struct {
	Symbol string
	Cells  []trend.Cell
}

// TrendsView holds data for the trend table.
type TrendsView struct {
	Loading     bool
	Error       string
	LastUpdated string
	Headers     []HeaderView
	Rows        []TrendRowView
}

// ChartView holds data for the chart panel.
type ChartView struct {
	Loading     bool
	Failed      bool
	URL         string
	Alt         string
	Label       string
	ErrorTitle  string
	ErrorDetail string
}

// TabView is a timeframe tab.
type TabView struct {
	Timeframe core.Timeframe
	Active    bool
}

// Link is an entry in the Resources card.
type Link struct {
	Title string
	URL   string
}

// DashboardData holds data for the dashboard template
type DashboardData struct {
	Title      string
	Symbol     string
	Timeframe  core.Timeframe
	Variant    string
	FullScreen bool
	CanExpand  bool
	Tabs       []TabView
	Symbols    SymbolsView
	Trends     TrendsView
	Chart      ChartView
	Resources  []Link
	Year       int
}

var resources = []Link{
	{Title: "Python Jobs in Worldwide", URL: "https://www.linkedin.com/jobs/python-jobs-worldwide"},
	{Title: "JavaScript Jobs in Worldwide", URL: "https://www.linkedin.com/jobs/javascript-jobs-worldwide"},
	{Title: "Most popular technologies", URL: "https://survey.stackoverflow.co/2024/technology"},
}

func newDashboardData(snap dashboard.Snapshot, loc *time.Location, now time.Time) DashboardData {
	sel := snap.State.Selection

	tabs := make([]TabView, 0, len(snap.Variant.Timeframes))
	for _, tf := range snap.Variant.Timeframes {
		tabs = append(tabs, TabView{Timeframe: tf, Active: tf == sel.Timeframe})
	}

	return DashboardData{
		Title:      "Trading1501",
		Symbol:     sel.Symbol,
		Timeframe:  sel.Timeframe,
		Variant:    snap.Variant.Name,
		FullScreen: snap.State.FullScreen,
		CanExpand:  snap.Variant.FullScreen,
		Tabs:       tabs,
		Symbols:    symbolsView(snap),
		Trends:     trendsView(snap, loc),
		Chart:      chartView(snap.Chart),
		Resources:  resources,
		Year:       now.In(loc).Year(),
	}
}

func symbolsView(snap dashboard.Snapshot) SymbolsView {
	if snap.Catalog.Loading {
		return SymbolsView{Loading: true, Placeholders: make([]int, catalog.PlaceholderCount)}
	}

	selected := snap.State.Selection.Symbol
	buttons := make([]SymbolButton, 0, len(snap.Catalog.Catalog.Symbols))
	for _, s := range snap.Catalog.Catalog.Symbols {
		buttons = append(buttons, SymbolButton{
			Symbol:   s.Symbol,
			Name:     s.Name,
			Selected: s.Symbol == selected,
		})
	}
	return SymbolsView{Buttons: buttons}
}

func trendsView(snap dashboard.Snapshot, loc *time.Location) TrendsView {
	if snap.Trends.Loading {
		return TrendsView{Loading: true}
	}
	if snap.Trends.Table.Failed() {
		return TrendsView{Error: trend.ErrorMessage}
	}

	sortState := snap.State.Sort
	fields := []core.SortField{core.SortBySymbol, core.SortByH1, core.SortByD1, core.SortByW1}
	headers := make([]HeaderView, 0, len(fields))
	for _, f := range fields {
		h := HeaderView{Field: f, Label: headerLabel(f)}
		if f == sortState.Field {
			h.Active = true
			h.Icon = "↑"
			if sortState.Direction == core.SortDesc {
				h.Icon = "↓"
			}
		}
		headers = append(headers, h)
	}

	sorted := snap.SortedRows()
	rows := make([]TrendRowView, 0, len(sorted))
	for _, r := range sorted {
		rows = append(rows, TrendRowView{Symbol: r.Symbol, Cells: trend.Cells(r)})
	}

	return TrendsView{
		LastUpdated: trend.FormatUpdated(snap.Trends.Table.LatestUpdated, loc),
		Headers:     headers,
		Rows:        rows,
	}
}

func headerLabel(f core.SortField) string {
	if f == core.SortBySymbol {
		return "Symbol"
	}
	return string(f)
}

func chartView(res core.ChartResolution) ChartView {
	switch {
	case res.Loading() || res.URL == "":
		return ChartView{Loading: true}
	case res.Failed():
		return ChartView{
			Failed:      true,
			ErrorTitle:  chart.ErrorTitle(res),
			ErrorDetail: chart.ErrorDetail,
		}
	}
	return ChartView{
		URL:   res.URL,
		Alt:   chart.AltText(res),
		Label: res.Label(),
	}
}
