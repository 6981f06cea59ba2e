package namespace

import (
	"math"
	"time"
)

// mjdUnixEpoch is the modified Julian date of 1970-01-01T00:00:00Z.
const mjdUnixEpoch = 40587.0

const nanosPerDay = 86400e9

// MJD converts t to a modified Julian date, the unit of TypeUTC values.
func MJD(t time.Time) float64 {
	return mjdUnixEpoch + float64(t.UnixNano())/nanosPerDay
}

// TimeOf converts a modified Julian date back to UTC time. The result is
// rounded to the microsecond.
func TimeOf(mjd float64) time.Time {
	ns := math.Round((mjd-mjdUnixEpoch)*nanosPerDay/1e3) * 1e3
	return time.Unix(0, int64(ns)).UTC()
}
