package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		in, region, want string
	}{
		{"(650) 253-0000", "US", "+16502530000"},
		{"+1 650-253-0000", "NL", "+16502530000"},
		{"06 12345678", "NL", "+31612345678"},
		{"  not a number ", "US", "not a number"},
		{"", "US", ""},
	}
	for _, tc := range cases {
		if got := NormalizeE164(tc.in, tc.region); got != tc.want {
			t.Errorf("NormalizeE164(%q, %q) = %q, want %q", tc.in, tc.region, got, tc.want)
		}
	}
}

func TestSearchKey(t *testing.T) {
	cases := []struct {
		in, region, want string
	}{
		{"06 12345678", "NL", "+31612345678"},
		{"06 1234", "NL", "61234"},
		{"+31 6 12", "NL", "31612"},
		{"(650) 253", "US", "650253"},
		{"dana", "US", "dana"},
	}
	for _, tc := range cases {
		if got := SearchKey(tc.in, tc.region); got != tc.want {
			t.Errorf("SearchKey(%q, %q) = %q, want %q", tc.in, tc.region, got, tc.want)
		}
	}
}
