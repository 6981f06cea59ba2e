package namespace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMJD(t *testing.T) {
	assert.InDelta(t, 40587.0, MJD(time.Unix(0, 0)), 1e-12)
	assert.InDelta(t, 51544.5, MJD(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)), 1e-9)

	at := time.Date(2026, 3, 1, 6, 30, 15, 250000000, time.UTC)
	assert.WithinDuration(t, at, TimeOf(MJD(at)), 10*time.Microsecond)
}
