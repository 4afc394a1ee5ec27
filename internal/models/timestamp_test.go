package models

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		input string
		want  time.Time
	}{
		{input: "2021-03-01T23:59:00Z", want: time.Date(2021, 3, 1, 23, 59, 0, 0, time.UTC)},
		{input: "2021-03-01T23:59:00.000000-08:00", want: time.Date(2021, 3, 2, 7, 59, 0, 0, time.UTC)},
		{input: "2021-03-01T23:59+01:00", want: time.Date(2021, 3, 1, 22, 59, 0, 0, time.UTC)},
		{input: "2021-03-01T23:59:00-0800", want: time.Date(2021, 3, 2, 7, 59, 0, 0, time.UTC)},
		{input: "2021-03-01", want: time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)},
		{input: "2021-03-01T10:00:00", want: time.Date(2021, 3, 1, 10, 0, 0, 0, time.Local)},
	}

	for _, tc := range cases {
		got, err := ParseTimestamp(tc.input)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", tc.input, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("ParseTimestamp(%q): got %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "   ", "tomorrow", "03/01/2021"} {
		if _, err := ParseTimestamp(input); !errors.Is(err, ErrInvalidTimestamp) {
			t.Fatalf("ParseTimestamp(%q): expected ErrInvalidTimestamp, got %v", input, err)
		}
	}
}
