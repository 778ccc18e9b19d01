package timeutil

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "", want: 0},
		{in: "0", want: 0},
		{in: "1h", want: time.Hour},
		{in: "30m", want: 30 * time.Minute},
		{in: "7d", want: 7 * 24 * time.Hour},
		{in: "1d12h", want: 24*time.Hour + 12*time.Hour},
		{in: "2d30m", want: 2*24*time.Hour + 30*time.Minute},
		{in: "d", wantErr: true},
		{in: "xd", wantErr: true},
		{in: "not-a-duration", wantErr: true},
	}

	for _, tc := range cases {
		got, err := ParseDuration(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseDuration(%q): expected error, got nil", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDuration(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseToMinutesRoundsUp(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{in: "1h", want: 60},
		{in: "90s", want: 2},
		{in: "61s", want: 2},
		{in: "60s", want: 1},
		{in: "0", want: 0},
	}

	for _, tc := range cases {
		got, err := ParseToMinutes(tc.in)
		if err != nil {
			t.Errorf("ParseToMinutes(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseToMinutes(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestHumanizeDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{in: 0, want: "0m"},
		{in: -time.Minute, want: "0m"},
		{in: 30 * time.Second, want: "0m"},
		{in: 90 * time.Second, want: "1m"},
		{in: time.Hour, want: "1h"},
		{in: time.Hour + 5*time.Minute, want: "1h 5m"},
		{in: 25 * time.Hour, want: "1d 1h"},
		{in: 24 * time.Hour, want: "1d"},
	}

	for _, tc := range cases {
		if got := HumanizeDuration(tc.in); got != tc.want {
			t.Errorf("HumanizeDuration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
