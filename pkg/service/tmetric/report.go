package tmetric

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/worktime/pkg/domain/model"
	"github.com/secmon-lab/worktime/pkg/domain/types"
)

// TaskStartHour is the hour of day every reported entry is placed at
const TaskStartHour = 1

// Header names located in the first row of the report
const (
	columnUser = "User"
	columnTask = "Time Entry"
	columnTime = "Time"
)

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// ParseReport reads a detailed CSV report of the day starting at day. Each
// row becomes one time record starting at TaskStartHour.
func ParseReport(raw []byte, day time.Time, emailSuffix string) ([]model.TimeRecord, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(raw, utf8BOM)))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read CSV header")
	}

	userPos, taskPos, timePos := -1, -1, -1
	for pos, field := range header {
		switch strings.TrimSpace(field) {
		case columnUser:
			userPos = pos
		case columnTask:
			taskPos = pos
		case columnTime:
			timePos = pos
		}
	}
	switch {
	case userPos == -1:
		return nil, goerr.New("unable to find User column", goerr.V("header", strings.Join(header, ",")))
	case taskPos == -1:
		return nil, goerr.New("unable to find Time Entry column", goerr.V("header", strings.Join(header, ",")))
	case timePos == -1:
		return nil, goerr.New("unable to find Time column", goerr.V("header", strings.Join(header, ",")))
	}
	minFields := max(userPos, taskPos, timePos) + 1

	start := time.Date(day.Year(), day.Month(), day.Day(), TaskStartHour, 0, 0, 0, day.Location())
	var records []model.TimeRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read CSV row", goerr.V("line", line))
		}
		if len(row) < minFields {
			return nil, goerr.New("CSV row has too few fields",
				goerr.V("line", line),
				goerr.V("fields", len(row)))
		}

		duration, err := ParseDuration(row[timePos])
		if err != nil {
			return nil, goerr.Wrap(err, "invalid time", goerr.V("line", line))
		}

		records = append(records, model.TimeRecord{
			System:    types.SystemTypeTMetric,
			Email:     row[userPos] + emailSuffix,
			TaskTitle: row[taskPos],
			Start:     start,
			End:       start.Add(duration),
		})
	}

	return records, nil
}

// ParseDuration parses an H:M:S duration such as "6:02:00"
func ParseDuration(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, goerr.New("duration must be H:M:S", goerr.V("value", s))
	}

	var units [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, goerr.New("duration field is not a non-negative number",
				goerr.V("value", s),
				goerr.V("field", part))
		}
		units[i] = n
	}

	return time.Duration(units[0])*time.Hour +
		time.Duration(units[1])*time.Minute +
		time.Duration(units[2])*time.Second, nil
}
