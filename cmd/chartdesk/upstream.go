package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/newthinker/chartdesk/internal/chart"
	"github.com/newthinker/chartdesk/internal/config"
	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/logger"
	"github.com/newthinker/chartdesk/internal/trend"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "Fetch and print the symbol catalog",
	RunE:  runSymbols,
}

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Fetch and print the trend table",
	RunE:  runTrends,
}

var checkCmd = &cobra.Command{
	Use:   "check [symbol] [timeframe]",
	Short: "Probe the catalog, trend and chart endpoints concurrently",
	Args:  cobra.MaximumNArgs(2),
	RunE:  runCheck,
}

var (
	trendsSort string
	trendsDir  string
)

func init() {
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(trendsCmd)
	rootCmd.AddCommand(checkCmd)

	trendsCmd.Flags().StringVar(&trendsSort, "sort", "symbol", "Sort field (symbol, H1, D1, W1)")
	trendsCmd.Flags().StringVar(&trendsDir, "dir", "asc", "Sort direction (asc, desc)")
}

// withUpstream handles common setup for the diagnostic commands.
func withUpstream(fn func(ctx context.Context, cfg *config.Config, comps *components, log *zap.Logger) error) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Upstream.Timeout+5*time.Second)
	defer cancel()

	return fn(ctx, cfg, newComponents(cfg, log, nil), log)
}

func runSymbols(cmd *cobra.Command, args []string) error {
	return withUpstream(func(ctx context.Context, cfg *config.Config, comps *components, log *zap.Logger) error {
		cat := comps.catalog.Load(ctx)
		if cat.Fallback {
			fmt.Printf("Catalog unavailable (%v), showing fallback list\n\n", cat.Err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSYMBOL\tNAME")
		for _, s := range cat.Symbols {
			fmt.Fprintf(w, "%d\t%s\t%s\n", s.ID, s.Symbol, s.Name)
		}
		return w.Flush()
	})
}

func runTrends(cmd *cobra.Command, args []string) error {
	state, err := trend.ParseSort(trendsSort, trendsDir)
	if err != nil {
		return err
	}

	return withUpstream(func(ctx context.Context, cfg *config.Config, comps *components, log *zap.Logger) error {
		table := comps.trends.Load(ctx)
		if table.Failed() {
			return fmt.Errorf("%s: %w", trend.ErrorMessage, table.Err)
		}

		loc, err := cfg.Location()
		if err != nil {
			return err
		}
		fmt.Printf("Last Updated: %s\n\n", trend.FormatUpdated(table.LatestUpdated, loc))

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SYMBOL\tH1\tD1\tW1")
		for _, row := range trend.Sort(table.Rows, state) {
			fmt.Fprintf(w, "%s", row.Symbol)
			for _, c := range trend.Cells(row) {
				fmt.Fprintf(w, "\t%d (%s)", c.Value, c.Direction)
			}
			fmt.Fprintln(w)
		}
		return w.Flush()
	})
}

func runCheck(cmd *cobra.Command, args []string) error {
	return withUpstream(func(ctx context.Context, cfg *config.Config, comps *components, log *zap.Logger) error {
		symbol := cfg.Dashboard.DefaultSymbol
		if len(args) > 0 {
			symbol = args[0]
		}
		tf := core.TimeframeH1
		if len(args) > 1 {
			parsed, err := core.ParseTimeframe(args[1])
			if err != nil {
				return err
			}
			tf = parsed
		}

		var catalogErr, trendErr, chartErr error
		chartURL := chart.BuildURL(cfg.Upstream.ChartHost, symbol, tf, time.Now())

		// Each probe reports its own outcome; none cancels the others.
		var g errgroup.Group
		g.Go(func() error {
			catalogErr = comps.catalog.Load(ctx).Err
			return nil
		})
		g.Go(func() error {
			trendErr = comps.trends.Load(ctx).Err
			return nil
		})
		g.Go(func() error {
			chartErr = comps.prober.Probe(ctx, chartURL)
			return nil
		})
		_ = g.Wait()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SOURCE\tTARGET\tSTATUS")
		fmt.Fprintf(w, "catalog\t%s\t%s\n", cfg.Upstream.CatalogURL, status(catalogErr))
		fmt.Fprintf(w, "trends\t%s\t%s\n", cfg.Upstream.TrendURL, status(trendErr))
		fmt.Fprintf(w, "chart\t%s\t%s\n", chartURL, status(chartErr))
		if err := w.Flush(); err != nil {
			return err
		}

		if catalogErr != nil || trendErr != nil || chartErr != nil {
			return fmt.Errorf("one or more upstream checks failed")
		}
		return nil
	})
}

func status(err error) string {
	if err != nil {
		return "FAIL: " + err.Error()
	}
	return "OK"
}
