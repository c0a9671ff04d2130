package main

import (
	"fmt"
	"runtime"

	"github.com/newthinker/chartdesk/internal/config"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and built-in upstream defaults",
	Run: func(cmd *cobra.Command, args []string) {
		d := config.Defaults()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "chartdesk %s (%s, %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(out, "  Commit:        %s\n", GitCommit)
		fmt.Fprintf(out, "  Built:         %s\n", BuildTime)
		fmt.Fprintf(out, "  Chart host:    %s\n", d.Upstream.ChartHost)
		fmt.Fprintf(out, "  Catalog API:   %s\n", d.Upstream.CatalogURL)
		fmt.Fprintf(out, "  Trend API:     %s\n", d.Upstream.TrendURL)
		fmt.Fprintf(out, "  Page variant:  %s (default symbol %s)\n", d.Dashboard.Variant, d.Dashboard.DefaultSymbol)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
