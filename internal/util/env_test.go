package util

import "testing"

func TestParseBoolEnv(t *testing.T) {
	const key = "FEEDBACKBRIDGE_TEST_BOOL"

	cases := []struct {
		value string
		def   bool
		want  bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"false", true, false},
		{"0", true, false},
		{"", true, true},
		{"", false, false},
		{"  true  ", false, true},
		{"notabool", true, true},
		{"notabool", false, false},
	}
	for _, tc := range cases {
		t.Setenv(key, tc.value)
		if got := ParseBoolEnv(key, tc.def); got != tc.want {
			t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", tc.value, tc.def, got, tc.want)
		}
	}
}

func TestGetenvOr(t *testing.T) {
	const key = "FEEDBACKBRIDGE_TEST_STRING"

	t.Setenv(key, "value")
	if got := GetenvOr(key, "fallback"); got != "value" {
		t.Errorf("GetenvOr with set var = %q, want %q", got, "value")
	}

	t.Setenv(key, "")
	if got := GetenvOr(key, "fallback"); got != "fallback" {
		t.Errorf("GetenvOr with empty var = %q, want %q", got, "fallback")
	}

	t.Setenv(key, "   ")
	if got := GetenvOr(key, "fallback"); got != "fallback" {
		t.Errorf("GetenvOr with whitespace var = %q, want %q", got, "fallback")
	}
}
