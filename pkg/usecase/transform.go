package usecase

import (
	"fmt"
	"math"

	"github.com/secmon-lab/worktime/pkg/domain/model"
)

const secondsPerHour = 3600

// ReportTransformer reshapes monthly reports into bar chart series. It holds
// no state; the same input always yields the same output.
type ReportTransformer struct{}

// NewReportTransformer creates a new report transformer
func NewReportTransformer() *ReportTransformer {
	return &ReportTransformer{}
}

// Transform maps each month to a label and a feature/bug hours pair, keeping
// the input order. With annotateBugPercent the label gets a " (N%)" suffix
// giving the bug share of the month's time.
func (t *ReportTransformer) Transform(report *model.MonthlyReport, annotateBugPercent bool) *model.ChartSeries {
	var months []model.MonthlyRecord
	if report != nil {
		months = report.Months
	}

	series := &model.ChartSeries{
		Labels: make([]string, 0, len(months)),
		Series: [2][]float64{
			make([]float64, 0, len(months)),
			make([]float64, 0, len(months)),
		},
	}

	for _, m := range months {
		label := m.Month
		if annotateBugPercent {
			label = fmt.Sprintf("%s (%d%%)", m.Month, BugPercent(m.FeatureSeconds, m.BugSeconds))
		}
		series.Labels = append(series.Labels, label)
		series.Series[model.SeriesFeature] = append(series.Series[model.SeriesFeature], m.FeatureSeconds/secondsPerHour)
		series.Series[model.SeriesBug] = append(series.Series[model.SeriesBug], m.BugSeconds/secondsPerHour)
	}

	return series
}

// BugPercent returns the bug share of the total rounded to the nearest whole
// percent. A month with no time at all counts as 0%.
func BugPercent(featureSeconds, bugSeconds float64) int {
	total := featureSeconds + bugSeconds
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * bugSeconds / total))
}
