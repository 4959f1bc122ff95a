package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/worktime/pkg/domain/model"
	"github.com/secmon-lab/worktime/pkg/domain/types"
)

func TestMonthlyRecord_AddTicketTime(t *testing.T) {
	var m model.MonthlyRecord
	m.AddTicketTime(types.TicketTypeFeature, 2*time.Hour)
	m.AddTicketTime(types.TicketTypeBug, 30*time.Minute)
	m.AddTicketTime(types.TicketTypeFeature, time.Hour)
	m.AddTicketTime(types.TicketTypeBAU, 5*time.Hour)
	m.AddTicketTime(types.TicketTypeAnon, 5*time.Hour)

	gt.Equal(t, m.FeatureSeconds, 3*3600.0)
	gt.Equal(t, m.BugSeconds, 1800.0)
}

func TestMonthlyReport_IsEmpty(t *testing.T) {
	var nilReport *model.MonthlyReport
	gt.True(t, nilReport.IsEmpty())
	gt.True(t, (&model.MonthlyReport{}).IsEmpty())
	gt.False(t, (&model.MonthlyReport{Months: []model.MonthlyRecord{{Month: "January"}}}).IsEmpty())
}

func TestParseChartFormat(t *testing.T) {
	f, err := model.ParseChartFormat(".SVG")
	gt.NoError(t, err)
	gt.Equal(t, f, model.ChartFormatSVG)
	gt.Equal(t, f.ContentType(), "image/svg+xml")

	f, err = model.ParseChartFormat("png")
	gt.NoError(t, err)
	gt.Equal(t, f, model.ChartFormatPNG)

	_, err = model.ParseChartFormat("gif")
	gt.Error(t, err)
}

func TestRenderOptions_WithDefaults(t *testing.T) {
	gt.Equal(t, model.RenderOptions{}.WithDefaults(), model.DefaultRenderOptions())
	gt.Equal(t, model.RenderOptions{Width: 800}.WithDefaults(), model.RenderOptions{Width: 800, Height: model.DefaultChartHeight})
}

func TestDaySystemID(t *testing.T) {
	start := time.Date(2017, time.February, 3, 1, 0, 0, 0, time.UTC)
	gt.Equal(t, model.DaySystemID(12, start), types.SystemID("12:2017-02-03"))

	// Same ticket on different days never shares a key, across years too
	a := model.DaySystemID(1, time.Date(2024, time.January, 2, 1, 0, 0, 0, time.UTC))
	b := model.DaySystemID(1, time.Date(2025, time.January, 1, 1, 0, 0, 0, time.UTC))
	gt.V(t, a).NotEqual(b)
}
