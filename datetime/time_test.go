package datetime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 15, 9, 30, 1, 123456789, time.UTC)

	tests := []struct {
		p    Precision
		want string
		back time.Time
	}{
		{Seconds, "20240315-09:30:01", ts.Truncate(time.Second)},
		{Millis, "20240315-09:30:01.123", ts.Truncate(time.Millisecond)},
		{Micros, "20240315-09:30:01.123456", ts.Truncate(time.Microsecond)},
		{Nanos, "20240315-09:30:01.123456789", ts},
	}
	for _, tt := range tests {
		got := FormatTimestamp(ts, tt.p)
		assert.Equal(t, tt.want, got)

		parsed, err := ParseTimestamp(got)
		require.NoError(t, err)
		assert.True(t, tt.back.Equal(parsed), "precision %d: %s", tt.p, parsed)
	}
}

func TestFormatTimestampConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	ts := time.Date(2024, 3, 15, 17, 0, 0, 0, loc)
	assert.Equal(t, "20240315-09:00:00", FormatTimestamp(ts, Seconds))
}

func TestDateAndTimeOnly(t *testing.T) {
	d, err := ParseDate("20240229")
	require.NoError(t, err)
	assert.Equal(t, "20240229", FormatDate(d))

	tm, err := ParseTimeOnly("23:59:58.250")
	require.NoError(t, err)
	assert.Equal(t, "23:59:58.250", FormatTimeOnly(tm, Millis))

	_, err = ParseDate("2024-02-29")
	assert.Error(t, err)
}

func TestParsePrecision(t *testing.T) {
	p, err := ParsePrecision("micros")
	require.NoError(t, err)
	assert.Equal(t, Micros, p)

	p, err = ParsePrecision("")
	require.NoError(t, err)
	assert.Equal(t, Millis, p)

	_, err = ParsePrecision("hours")
	assert.Error(t, err)
}
