package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Chart sizes used when the caller does not ask for one
const (
	DefaultChartWidth  = 500
	DefaultChartHeight = 300
)

// RenderOptions are the chart options understood by every render sink
type RenderOptions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DefaultRenderOptions returns the standard chart size
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{Width: DefaultChartWidth, Height: DefaultChartHeight}
}

// WithDefaults fills unset dimensions
func (o RenderOptions) WithDefaults() RenderOptions {
	if o.Width <= 0 {
		o.Width = DefaultChartWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultChartHeight
	}
	return o
}

// ChartFormat is an output format of the renderer
type ChartFormat string

const (
	ChartFormatSVG  ChartFormat = "svg"
	ChartFormatPNG  ChartFormat = "png"
	ChartFormatHTML ChartFormat = "html"
)

// ParseChartFormat parses a format name or file extension
func ParseChartFormat(s string) (ChartFormat, error) {
	switch f := ChartFormat(strings.TrimPrefix(strings.ToLower(s), ".")); f {
	case ChartFormatSVG, ChartFormatPNG, ChartFormatHTML:
		return f, nil
	default:
		return "", goerr.New("unsupported chart format", goerr.V("format", s))
	}
}

// ContentType returns the HTTP content type of the format
func (f ChartFormat) ContentType() string {
	switch f {
	case ChartFormatSVG:
		return "image/svg+xml"
	case ChartFormatPNG:
		return "image/png"
	case ChartFormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
