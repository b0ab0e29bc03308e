package when

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"1970-01-01", 0},
		{"1970-01-01T00:00:01", 1},
		{"2023-01-01", 1672531200},
		{"2023-01-01T12:30:45", 1672576245},
		{"0", 0},
		{"1672531200", 1672531200},
		{"-100", -100},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		require.NoError(t, err, "Parse(%q)", tc.in)
		assert.Equal(t, tc.want, got, "Parse(%q)", tc.in)
	}
}

func TestParse_DateOnlyIsMidnightUTC(t *testing.T) {
	date, err := Parse("2023-06-15")
	require.NoError(t, err)
	datetime, err := Parse("2023-06-15T00:00:00")
	require.NoError(t, err)
	assert.Equal(t, datetime, date)
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", "now", "2023/01/01", "2023-01-01T12:30", "12.5"} {
		_, err := Parse(in)
		assert.Error(t, err, "Parse(%q)", in)
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{TimeMin, "-inf"},
		{TimeMax, "inf"},
		{0, "1970-01-01"},
		{1672531200, "2023-01-01"},
		{1672576245, "2023-01-01T12:30:45"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Format(tc.in), "Format(%d)", tc.in)
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, in := range []string{"2023-01-01", "2023-01-01T12:30:45", "1970-01-01"} {
		ts, err := Parse(in)
		require.NoError(t, err)
		assert.Equal(t, in, Format(ts))
	}
}
