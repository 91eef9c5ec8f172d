package dashboard

import (
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/qepting91/spacetraveling/internal/domain"
)

// Render writes the stats page for stats to w.
func Render(w io.Writer, siteTitle string, stats []domain.PostStat) error {
	page := components.NewPage()
	page.PageTitle = "Stats | " + siteTitle
	page.AddCharts(
		readingTimeChart(stats),
		authorChart(stats),
		monthlyChart(stats),
	)
	return page.Render(w)
}

// 1. Reading time per post
func readingTimeChart(stats []domain.PostStat) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Reading Time", Subtitle: "minutes per post"}),
		charts.WithThemeOpts(opts.Theme{Theme: types.ThemeWesteros}),
	)

	x := make([]string, 0, len(stats))
	y := make([]opts.BarData, 0, len(stats))
	for _, s := range stats {
		x = append(x, s.UID)
		y = append(y, opts.BarData{Name: s.Title, Value: s.ReadingMinutes})
	}
	bar.SetXAxis(x).AddSeries("Minutes", y)
	return bar
}

// 2. Author share
func authorChart(stats []domain.PostStat) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Posts per Author"}),
		charts.WithThemeOpts(opts.Theme{Theme: types.ThemeWesteros}),
	)

	counts := make(map[string]int)
	for _, s := range stats {
		counts[s.Author]++
	}
	authors := sortedKeys(counts)

	items := make([]opts.PieData, 0, len(authors))
	for _, a := range authors {
		items = append(items, opts.PieData{Name: a, Value: counts[a]})
	}
	pie.AddSeries("Posts", items)
	return pie
}

// 3. Publication cadence
func monthlyChart(stats []domain.PostStat) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Publications per Month"}),
		charts.WithThemeOpts(opts.Theme{Theme: types.ThemeWesteros}),
	)

	counts := make(map[string]int)
	for _, s := range stats {
		if s.Published == nil {
			continue
		}
		counts[s.Published.Format("2006-01")]++
	}
	months := sortedKeys(counts)

	y := make([]opts.BarData, 0, len(months))
	for _, m := range months {
		y = append(y, opts.BarData{Value: counts[m]})
	}
	bar.SetXAxis(months).AddSeries("Posts", y)
	return bar
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
