package stats

import (
	"fmt"
	"math"
	"strings"
	"time"

	"flightlog/internal/domain/flight"
)

// ClassBar is a rendered row of the cabin-class distribution.
type ClassBar struct {
	Name       string
	Percent    string  // label, as sent
	Width      float64 // bar width in percent, clamped to [0, 100]
	ColorClass string
}

// ClassBars maps the breakdown to bars, keeping API order.
// POST: Width is monotonic in Percentage; unknown classes get the fallback color
func ClassBars(breakdown ClassBreakdown) []ClassBar {
	bars := make([]ClassBar, 0, len(breakdown))
	for _, share := range breakdown {
		bars = append(bars, ClassBar{
			Name:       share.Name,
			Percent:    FormatPercent(share.Percentage),
			Width:      ClampPercent(share.Percentage),
			ColorClass: flight.ParseCabinClass(share.Name).Attrs().BarClass,
		})
	}
	return bars
}

// ClampPercent limits p to [0, 100]. NaN becomes 0.
func ClampPercent(p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// rankPalette colors the rank badges of the first five destinations.
var rankPalette = []string{
	"bg-cornflower_blue-500",
	"bg-periwinkle-500",
	"bg-ut_orange-500",
	"bg-persian_indigo-300",
	"bg-anti_flash_white-400",
}

const rankFallback = "bg-gray-400"

// DestinationRow is a ranked destination ready for display.
type DestinationRow struct {
	Rank        int // 1-indexed
	BadgeClass  string
	City        string
	AirportCode string
	Visits      string // "1 visit", "3 visits"
	Percent     string
}

// DestinationRows ranks destinations in API order.
func DestinationRows(dests []Destination) []DestinationRow {
	rows := make([]DestinationRow, 0, len(dests))
	for i, d := range dests {
		badge := rankFallback
		if i < len(rankPalette) {
			badge = rankPalette[i]
		}
		rows = append(rows, DestinationRow{
			Rank:        i + 1,
			BadgeClass:  badge,
			City:        d.City,
			AirportCode: d.AirportCode,
			Visits:      VisitLabel(d.Count),
			Percent:     FormatPercent(d.Percentage),
		})
	}
	return rows
}

// VisitLabel returns "1 visit" for exactly one visit and "N visits" otherwise.
func VisitLabel(n int) string {
	if n == 1 {
		return "1 visit"
	}
	return fmt.Sprintf("%d visits", n)
}

// Monthly chart colors.
const (
	BarColor          = "bg-cornflower_blue-400"
	BarHighlightColor = "bg-ut_orange-500"
)

// ChartOptions sizes the monthly chart.
type ChartOptions struct {
	Months   int     // number of entries shown
	MaxBarPx float64 // height of the tallest bar
	MinBarPx float64 // floor so empty months stay visible
}

// DefaultChartOptions is the twelve-month chart.
var DefaultChartOptions = ChartOptions{Months: 12, MaxBarPx: 120, MinBarPx: 2}

// MonthBar is one column of the monthly chart.
type MonthBar struct {
	Label      string // three-letter month
	Flights    int
	HeightPx   float64
	ColorClass string
	Current    bool
}

// MonthlyBars scales the first opts.Months entries of activity against the
// busiest shown month.
// PRE: opts.Months > 0
// POST: every HeightPx is in [MinBarPx, MaxBarPx] (MinBarPx wins if larger);
// at most one bar is Current
func MonthlyBars(activity []MonthActivity, now time.Time, opts ChartOptions) []MonthBar {
	shown := activity
	if opts.Months > 0 && len(shown) > opts.Months {
		shown = shown[:opts.Months]
	}

	maxFlights := 1
	for _, m := range shown {
		if m.Flights > maxFlights {
			maxFlights = m.Flights
		}
	}

	currentIdx := currentMonthIndex(shown, now)
	bars := make([]MonthBar, 0, len(shown))
	for i, m := range shown {
		h := math.Max(float64(m.Flights)/float64(maxFlights)*opts.MaxBarPx, opts.MinBarPx)
		bar := MonthBar{
			Label:      monthLabel(m.Month, i),
			Flights:    m.Flights,
			HeightPx:   math.Round(h*100) / 100,
			ColorClass: BarColor,
		}
		if i == currentIdx {
			bar.Current = true
			bar.ColorClass = BarHighlightColor
		}
		bars = append(bars, bar)
	}
	return bars
}

// monthLabel returns the first three letters of name, or the month at
// position i when the API sent no name.
func monthLabel(name string, i int) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.Month(i%12 + 1).String()[:3]
	}
	r := []rune(name)
	if len(r) > 3 {
		r = r[:3]
	}
	return string(r)
}

// currentMonthIndex finds the entry for now's month: by name when any entry
// is named, otherwise by calendar position. Returns -1 when absent.
func currentMonthIndex(shown []MonthActivity, now time.Time) int {
	named := false
	for i, m := range shown {
		name := strings.TrimSpace(m.Month)
		if name == "" {
			continue
		}
		named = true
		if strings.EqualFold(name, now.Month().String()) || strings.EqualFold(name, now.Month().String()[:3]) {
			return i
		}
	}
	if named {
		return -1
	}
	if idx := int(now.Month()) - 1; idx < len(shown) {
		return idx
	}
	return -1
}
