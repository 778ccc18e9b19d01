package config

import "testing"

func TestIsValidCountryCode(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"US", true},
		{"NL", true},
		{"us", false},
		{"USA", false},
		{"U", false},
		{"", false},
		{"1S", false},
	}

	for _, tc := range cases {
		if got := isValidCountryCode(tc.in); got != tc.want {
			t.Errorf("isValidCountryCode(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCleanUsername(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"alice", "alice"},
		{"  alice  ", "alice"},
		{"@alice", "alice"},
		{"  @alice  ", "alice"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := cleanUsername(tc.in); got != tc.want {
			t.Errorf("cleanUsername(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseCommaSeparatedList(t *testing.T) {
	got := parseCommaSeparatedList(" a, b ,,c")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("parseCommaSeparatedList = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("parseCommaSeparatedList[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseCountriesUppercases(t *testing.T) {
	got := parseCountries("us,nl")
	want := []string{"US", "NL"}
	if len(got) != len(want) {
		t.Fatalf("parseCountries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("parseCountries[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
