// Package when converts between the wire representation of timestamps and
// the int64 unix seconds used everywhere internally.
//
// The wire forms are ISO-8601 ("2006-01-02T15:04:05" or a bare date meaning
// midnight UTC) and raw signed integers (seconds since epoch). Two sentinel
// values mark the ends of time: TimeMin ("present since before recording
// began") and TimeMax ("still open").
package when

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

const (
	// TimeMin represents minus infinity: an interval start before recording began.
	TimeMin int64 = math.MinInt64
	// TimeMax represents plus infinity: an interval that has not been closed.
	TimeMax int64 = math.MaxInt64
)

const (
	dateTimeLayout = "2006-01-02T15:04:05"
	dateLayout     = "2006-01-02"
)

// Parse converts a timestamp token to unix seconds.
//
// Accepted forms, tried in order:
//   - full ISO-8601 date/time (UTC)
//   - ISO-8601 date only (midnight UTC)
//   - raw signed integer (seconds since epoch)
func Parse(s string) (int64, error) {
	if t, err := time.ParseInLocation(dateTimeLayout, s, time.UTC); err == nil {
		return t.Unix(), nil
	}
	if t, err := time.ParseInLocation(dateLayout, s, time.UTC); err == nil {
		return t.Unix(), nil
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ts, nil
	}
	return 0, fmt.Errorf("invalid date or timestamp %q", s)
}

// Format renders unix seconds back to the wire form. The sentinels render as
// "-inf" and "inf"; midnight timestamps render date-only, matching the most
// common input form.
func Format(ts int64) string {
	switch ts {
	case TimeMin:
		return "-inf"
	case TimeMax:
		return "inf"
	}
	t := time.Unix(ts, 0).UTC()
	if h, m, s := t.Clock(); h == 0 && m == 0 && s == 0 {
		return t.Format(dateLayout)
	}
	return t.Format(dateTimeLayout)
}
