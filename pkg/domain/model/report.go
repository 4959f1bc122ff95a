package model

import (
	"time"

	"github.com/secmon-lab/worktime/pkg/domain/types"
)

// MonthlyRecord is the time booked against features and bugs in one calendar month
type MonthlyRecord struct {
	Year           int     `json:"Year,omitempty"`
	Month          string  `json:"Month"`
	FeatureSeconds float64 `json:"FeatureSeconds"`
	BugSeconds     float64 `json:"BugSeconds"`
}

// AddTicketTime adds d to the bucket matching ticketType. Types other than bug
// and feature are not charted and are ignored.
func (m *MonthlyRecord) AddTicketTime(ticketType types.TicketType, d time.Duration) {
	switch ticketType {
	case types.TicketTypeBug:
		m.BugSeconds += d.Seconds()
	case types.TicketTypeFeature:
		m.FeatureSeconds += d.Seconds()
	}
}

// MonthlyReport is the payload served by /user and /monthly. Months are in
// chronological order as produced by the server and must not be re-sorted.
type MonthlyReport struct {
	Months []MonthlyRecord `json:"Months"`
}

// IsEmpty reports whether the report has no months
func (r *MonthlyReport) IsEmpty() bool {
	return r == nil || len(r.Months) == 0
}

// Series indexes inside ChartSeries.Series
const (
	SeriesFeature = 0
	SeriesBug     = 1
)

// ChartSeries is the bar chart input: one label per bar group and two
// parallel value series (feature hours, bug hours) of the same length.
type ChartSeries struct {
	Labels []string     `json:"labels"`
	Series [2][]float64 `json:"series"`
}

// Len returns the number of bar groups
func (s *ChartSeries) Len() int {
	return len(s.Labels)
}

// FeatureHours returns the feature series
func (s *ChartSeries) FeatureHours() []float64 {
	return s.Series[SeriesFeature]
}

// BugHours returns the bug series
func (s *ChartSeries) BugHours() []float64 {
	return s.Series[SeriesBug]
}
