package usecase_test

import (
	"math"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/worktime/pkg/domain/model"
	"github.com/secmon-lab/worktime/pkg/usecase"
)

func TestReportTransformer_Transform(t *testing.T) {
	transformer := usecase.NewReportTransformer()
	report := &model.MonthlyReport{
		Months: []model.MonthlyRecord{
			{Month: "Jan", FeatureSeconds: 3600, BugSeconds: 1800},
		},
	}

	t.Run("annotated", func(t *testing.T) {
		series := transformer.Transform(report, true)
		gt.Equal(t, series.Labels, []string{"Jan (33%)"})
		gt.Equal(t, series.FeatureHours(), []float64{1.0})
		gt.Equal(t, series.BugHours(), []float64{0.5})
	})

	t.Run("plain labels", func(t *testing.T) {
		series := transformer.Transform(report, false)
		gt.Equal(t, series.Labels, []string{"Jan"})
		gt.Equal(t, series.FeatureHours(), []float64{1.0})
		gt.Equal(t, series.BugHours(), []float64{0.5})
	})
}

func TestReportTransformer_PreservesOrderAndLength(t *testing.T) {
	transformer := usecase.NewReportTransformer()
	report := &model.MonthlyReport{
		Months: []model.MonthlyRecord{
			{Year: 2017, Month: "November", FeatureSeconds: 7200, BugSeconds: 0},
			{Year: 2017, Month: "December", FeatureSeconds: 1234.5, BugSeconds: 99},
			{Year: 2018, Month: "January", FeatureSeconds: 0, BugSeconds: 36000},
			{Year: 2017, Month: "March", FeatureSeconds: 10, BugSeconds: 10},
		},
	}

	series := transformer.Transform(report, false)
	gt.Equal(t, series.Len(), len(report.Months))
	gt.Equal(t, len(series.FeatureHours()), len(report.Months))
	gt.Equal(t, len(series.BugHours()), len(report.Months))
	gt.Equal(t, series.Labels, []string{"November", "December", "January", "March"})

	for i, m := range report.Months {
		gt.True(t, math.Abs(series.FeatureHours()[i]-m.FeatureSeconds/3600) < 1e-12)
		gt.True(t, math.Abs(series.BugHours()[i]-m.BugSeconds/3600) < 1e-12)
	}
}

func TestReportTransformer_Idempotent(t *testing.T) {
	transformer := usecase.NewReportTransformer()
	report := &model.MonthlyReport{
		Months: []model.MonthlyRecord{
			{Month: "Jan", FeatureSeconds: 3600, BugSeconds: 1800},
			{Month: "Feb", FeatureSeconds: 100, BugSeconds: 300},
		},
	}

	first := transformer.Transform(report, true)
	second := transformer.Transform(report, true)
	gt.Equal(t, first, second)
}

func TestReportTransformer_Empty(t *testing.T) {
	transformer := usecase.NewReportTransformer()

	for _, report := range []*model.MonthlyReport{nil, {}, {Months: []model.MonthlyRecord{}}} {
		series := transformer.Transform(report, true)
		gt.Equal(t, series.Labels, []string{})
		gt.Equal(t, series.FeatureHours(), []float64{})
		gt.Equal(t, series.BugHours(), []float64{})
	}
}

func TestReportTransformer_ZeroDurationMonth(t *testing.T) {
	transformer := usecase.NewReportTransformer()
	report := &model.MonthlyReport{
		Months: []model.MonthlyRecord{{Month: "Jan"}},
	}

	series := transformer.Transform(report, true)
	gt.Equal(t, series.Labels, []string{"Jan (0%)"})
	gt.Equal(t, series.FeatureHours(), []float64{0})
	gt.Equal(t, series.BugHours(), []float64{0})
}

func TestBugPercent(t *testing.T) {
	tests := []struct {
		name     string
		feature  float64
		bug      float64
		expected int
	}{
		{"one third", 3600, 1800, 33},
		{"all bugs", 0, 10, 100},
		{"no bugs", 10, 0, 0},
		{"half rounds up", 1, 1, 50},
		{"rounds half away from zero", 199, 1, 1},
		{"nearest", 2, 1, 33},
		{"two thirds", 1, 2, 67},
		{"zero total", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Equal(t, usecase.BugPercent(tt.feature, tt.bug), tt.expected)
		})
	}
}
