package export

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	echartstypes "github.com/go-echarts/go-echarts/v2/types"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

const (
	colorBull     = "#34d399"
	colorBear     = "#f87171"
	colorNetWorth = "#3b82f6"
	colorFlat     = "#9ca3af"

	chartWidthPx     = 1400
	priceHeightPx    = 560
	netWorthHeightPx = 300
)

var indicatorColors = []string{"#fbbf24", "#f472b6", "#22d3ee"}

// ChartData is everything needed to draw one backtest.
type ChartData struct {
	Title          string
	Series         types.PriceSeries
	Orders         []types.Order
	IndicatorNames []string
	Indicators     [][]float64
	NetWorth       []float64
}

func (c ChartData) validate() error {
	length := c.Series.Len()
	if length == 0 {
		return errors.New(errors.ErrCodeEmptySeries, "cannot chart an empty price series")
	}

	if len(c.Orders) != length || len(c.NetWorth) != length {
		return errors.Newf(errors.ErrCodeShapeMismatch,
			"chart data lengths (orders %d, net worth %d) do not match price series length %d",
			len(c.Orders), len(c.NetWorth), length)
	}

	for i, trace := range c.Indicators {
		if len(trace) != length {
			return errors.Newf(errors.ErrCodeShapeMismatch, "indicator %d has %d values for %d bars", i, len(trace), length)
		}
	}

	return nil
}

// WriteChart renders data as a standalone HTML page at path.
func WriteChart(path string, data ChartData) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to create chart folder for %s", path)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to create chart %s", path)
	}
	defer file.Close()

	return RenderChart(file, data)
}

// RenderChart writes data as an HTML page to w. The page holds a candlestick
// chart with indicator overlays and order markers, followed by the net worth.
func RenderChart(w io.Writer, data ChartData) error {
	if err := data.validate(); err != nil {
		return err
	}

	xAxis := make([]string, data.Series.Len())
	for i := range xAxis {
		xAxis[i] = data.Series.Time(i).Format("2006-01-02 15:04")
	}

	page := components.NewPage()
	page.PageTitle = data.Title
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(priceChart(data, xAxis), netWorthChart(data, xAxis))

	if err := page.Render(w); err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, "failed to render chart", err)
	}

	return nil
}

func initOpts(height int) opts.Initialization {
	return opts.Initialization{
		Theme:  echartstypes.ThemeWesteros,
		Width:  fmt.Sprintf("%dpx", chartWidthPx),
		Height: fmt.Sprintf("%dpx", height),
	}
}

func priceChart(data ChartData, xAxis []string) *charts.Kline {
	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts(priceHeightPx)),
		charts.WithTitleOpts(opts.Title{Title: data.Title, Subtitle: data.Series.Symbol()}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	kline.SetSeriesOptions(
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        colorBull,
			Color0:       colorBear,
			BorderColor:  colorBull,
			BorderColor0: colorBear,
		}),
	)

	candles := make([]opts.KlineData, data.Series.Len())
	for i := range candles {
		candles[i] = opts.KlineData{Value: [4]float64{data.Series.Open(i), data.Series.Close(i), data.Series.Low(i), data.Series.High(i)}}
	}

	kline.SetXAxis(xAxis)
	kline.AddSeries("Price", candles)

	if len(data.Indicators) > 0 {
		line := charts.NewLine()
		line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
		line.SetXAxis(xAxis)

		for i, trace := range data.Indicators {
			name := fmt.Sprintf("Indicator %d", i+1)
			if i < len(data.IndicatorNames) && data.IndicatorNames[i] != "" {
				name = data.IndicatorNames[i]
			}

			line.AddSeries(name, toLineData(trace),
				charts.WithLineStyleOpts(opts.LineStyle{Color: indicatorColors[i%len(indicatorColors)], Width: 2}))
		}

		kline.Overlap(line)
	}

	kline.Overlap(orderMarkers(data, xAxis))

	return kline
}

// orderMarkers places a marker at every bar where the order changes stance.
// The trade itself happens on the next open.
func orderMarkers(data ChartData, xAxis []string) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetXAxis(xAxis)

	markers := map[types.Order][]opts.ScatterData{}
	previous := types.OrderFlat

	for i, order := range data.Orders {
		point := opts.ScatterData{Value: nil}
		if order != previous {
			point = opts.ScatterData{Value: round(data.Series.Close(i)), SymbolSize: 12}
		}

		for _, o := range types.AllOrders {
			if o == order {
				markers[o] = append(markers[o], point)
			} else {
				markers[o] = append(markers[o], opts.ScatterData{Value: nil})
			}
		}

		previous = order
	}

	colors := map[types.Order]string{
		types.OrderBuy:   colorBull,
		types.OrderShort: colorBear,
		types.OrderFlat:  colorFlat,
	}

	for _, o := range types.AllOrders {
		scatter.AddSeries(o.String(), markers[o], charts.WithItemStyleOpts(opts.ItemStyle{Color: colors[o]}))
	}

	return scatter
}

func netWorthChart(data ChartData, xAxis []string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts(netWorthHeightPx)),
		charts.WithTitleOpts(opts.Title{Title: "Net worth"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	line.SetXAxis(xAxis)
	values := make([]opts.LineData, len(data.NetWorth))
	for i, v := range data.NetWorth {
		values[i] = opts.LineData{Value: round(v)}
	}

	line.AddSeries("Net worth", values,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorNetWorth, Width: 2}))

	return line
}

// toLineData drops warm-up and non-finite values so the line starts where the
// indicator does.
func toLineData(series []float64) []opts.LineData {
	line := make([]opts.LineData, len(series))
	for i, v := range series {
		if v == types.IndicatorWarmup || math.IsNaN(v) || math.IsInf(v, 0) {
			line[i] = opts.LineData{Value: nil}

			continue
		}

		line[i] = opts.LineData{Value: round(v)}
	}

	return line
}

func round(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
