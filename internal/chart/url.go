// Package chart derives cache-busted chart image URLs and probes them before display.
package chart

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/chartdesk/internal/core"
)

// ErrorDetail is the second line of the chart error placeholder.
const ErrorDetail = "The chart image could not be loaded from the server."

// BuildURL returns host/charts/{symbol}{timeframe}.png?t={epoch ms}.
// The t parameter only defeats caches; the image host ignores it.
func BuildURL(host, symbol string, tf core.Timeframe, now time.Time) string {
	return buildURL(host, symbol, tf, now.UnixMilli())
}

func buildURL(host, symbol string, tf core.Timeframe, millis int64) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(host, "/"))
	b.WriteString("/charts/")
	b.WriteString(url.PathEscape(symbol + string(tf) + ".png"))
	b.WriteString("?t=")
	b.WriteString(strconv.FormatInt(millis, 10))
	return b.String()
}

// ErrorTitle is the first line of the chart error placeholder.
func ErrorTitle(res core.ChartResolution) string {
	return fmt.Sprintf("Unable to load chart for %s (%s)", res.Symbol, res.Timeframe)
}

// AltText describes the chart image.
func AltText(res core.ChartResolution) string {
	return fmt.Sprintf("%s %s Chart", res.Symbol, res.Timeframe)
}
