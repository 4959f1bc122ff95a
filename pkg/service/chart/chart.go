package chart

import (
	"fmt"
	"html/template"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/worktime/pkg/domain/interfaces"
	"github.com/secmon-lab/worktime/pkg/domain/model"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Bar colors
const (
	FeatureColor = "#55dd55"
	BugColor     = "#dd5555"
)

const (
	seriesFeatureName = "feature"
	seriesBugName     = "bug"
	messageFontSize   = 14
)

// Renderer draws chart series as grouped bar charts: one green feature bar
// and one red bug bar per month
type Renderer struct{}

// NewRenderer creates a new Renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render draws series into w in the requested format
func (r *Renderer) Render(w io.Writer, series *model.ChartSeries, opts model.RenderOptions, format model.ChartFormat) error {
	if series == nil || series.Len() == 0 {
		return goerr.New("no months to render", goerr.T(model.ErrTagEmptyReport))
	}
	opts = opts.WithDefaults()

	switch format {
	case model.ChartFormatSVG:
		return renderImage(w, series, opts, gochart.SVG)
	case model.ChartFormatPNG:
		return renderImage(w, series, opts, gochart.PNG)
	case model.ChartFormatHTML:
		return renderHTML(w, series, opts)
	default:
		return goerr.New("unsupported chart format", goerr.V("format", format))
	}
}

// RenderMessage draws a text message in place of a chart
func (r *Renderer) RenderMessage(w io.Writer, message string, opts model.RenderOptions, format model.ChartFormat) error {
	opts = opts.WithDefaults()

	switch format {
	case model.ChartFormatSVG:
		return renderImageMessage(w, message, opts, gochart.SVG)
	case model.ChartFormatPNG:
		return renderImageMessage(w, message, opts, gochart.PNG)
	case model.ChartFormatHTML:
		if err := messageTemplate.Execute(w, map[string]any{
			"Message": message,
			"Width":   opts.Width,
			"Height":  opts.Height,
		}); err != nil {
			return goerr.Wrap(err, "failed to render message page")
		}
		return nil
	default:
		return goerr.New("unsupported chart format", goerr.V("format", format))
	}
}

func barStyle(hex string) gochart.Style {
	color := drawing.ColorFromHex(hex[1:])
	return gochart.Style{
		FillColor:   color,
		StrokeColor: color,
		StrokeWidth: 1,
	}
}

func renderImage(w io.Writer, series *model.ChartSeries, opts model.RenderOptions, provider gochart.RendererProvider) error {
	featureStyle := barStyle(FeatureColor)
	bugStyle := barStyle(BugColor)

	bars := make([]gochart.Value, 0, 2*series.Len())
	maxHours := 0.0
	for i, label := range series.Labels {
		feature := series.Series[model.SeriesFeature][i]
		bug := series.Series[model.SeriesBug][i]
		bars = append(bars,
			gochart.Value{Label: label, Value: feature, Style: featureStyle},
			gochart.Value{Value: bug, Style: bugStyle},
		)
		maxHours = math.Max(maxHours, math.Max(feature, bug))
	}
	// the y axis starts at zero; an all-zero chart still needs a span
	if maxHours == 0 {
		maxHours = 1
	}

	graph := gochart.BarChart{
		Width:  opts.Width,
		Height: opts.Height,
		Background: gochart.Style{
			Padding: gochart.Box{
				Top:    20,
				Left:   10,
				Right:  10,
				Bottom: 10,
				IsSet:  true,
			},
		},
		BarWidth:   24,
		BarSpacing: 4,
		XAxis: gochart.Style{
			FontSize: 8,
		},
		YAxis: gochart.YAxis{
			Style: gochart.Style{
				FontSize: 8,
			},
			Range: &gochart.ContinuousRange{Min: 0, Max: maxHours},
		},
		Bars: bars,
	}

	if err := graph.Render(provider, w); err != nil {
		return goerr.Wrap(err, "failed to render bar chart",
			goerr.V("months", series.Len()),
			goerr.V("width", opts.Width),
			goerr.V("height", opts.Height))
	}
	return nil
}

func renderImageMessage(w io.Writer, message string, opts model.RenderOptions, provider gochart.RendererProvider) error {
	r, err := provider(opts.Width, opts.Height)
	if err != nil {
		return goerr.Wrap(err, "failed to create renderer")
	}
	font, err := gochart.GetDefaultFont()
	if err != nil {
		return goerr.Wrap(err, "failed to load font")
	}

	r.SetFont(font)
	r.SetFontSize(messageFontSize)
	r.SetFontColor(drawing.ColorFromHex(BugColor[1:]))
	box := r.MeasureText(message)
	x := max(0, (opts.Width-box.Width())/2)
	y := opts.Height / 2
	r.Text(message, x, y)

	if err := r.Save(w); err != nil {
		return goerr.Wrap(err, "failed to write message image")
	}
	return nil
}

func renderHTML(w io.Writer, series *model.ChartSeries, ro model.RenderOptions) error {
	feature := make([]opts.BarData, 0, series.Len())
	bug := make([]opts.BarData, 0, series.Len())
	for i := range series.Labels {
		feature = append(feature, opts.BarData{Value: series.Series[model.SeriesFeature][i]})
		bug = append(bug, opts.BarData{Value: series.Series[model.SeriesBug][i]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "worktime",
			Width:     fmt.Sprintf("%dpx", ro.Width),
			Height:    fmt.Sprintf("%dpx", ro.Height),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "hours",
		}),
		charts.WithColorsOpts(opts.Colors{FeatureColor, BugColor}),
	)
	bar.SetXAxis(series.Labels).
		AddSeries(seriesFeatureName, feature).
		AddSeries(seriesBugName, bug)

	if err := bar.Render(w); err != nil {
		return goerr.Wrap(err, "failed to render chart page", goerr.V("months", series.Len()))
	}
	return nil
}

var messageTemplate = template.Must(template.New("message").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>worktime</title></head>
<body>
<div class="message" style="width:{{.Width}}px;height:{{.Height}}px;color:` + BugColor + `">{{.Message}}</div>
</body>
</html>
`))

var _ interfaces.ChartRenderer = (*Renderer)(nil)
