package util

import "testing"

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		value        string
		defaultValue bool
		want         bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"YES", false, true},
		{"on", false, true},
		{"false", true, false},
		{"0", true, false},
		{"no", true, false},
		{"OFF", true, false},
		{"", true, true},
		{"", false, false},
		{"maybe", true, true},
		{"maybe", false, false},
	}
	for _, tt := range tests {
		t.Setenv("TEST_BOOL_ENV", tt.value)
		if got := ParseBoolEnv("TEST_BOOL_ENV", tt.defaultValue); got != tt.want {
			t.Errorf("ParseBoolEnv(%q, %t) = %t, want %t", tt.value, tt.defaultValue, got, tt.want)
		}
	}
}

func TestParseIntEnv(t *testing.T) {
	t.Setenv("TEST_INT_ENV", "42")
	if got := ParseIntEnv("TEST_INT_ENV", 7); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}

	t.Setenv("TEST_INT_ENV", "not a number")
	if got := ParseIntEnv("TEST_INT_ENV", 7); got != 7 {
		t.Errorf("expected default 7, got %d", got)
	}

	t.Setenv("TEST_INT_ENV", "")
	if got := ParseIntEnv("TEST_INT_ENV", 7); got != 7 {
		t.Errorf("expected default 7 for unset, got %d", got)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_STR_ENV", "value")
	if got := GetEnv("TEST_STR_ENV", "fallback"); got != "value" {
		t.Errorf("expected value, got %q", got)
	}

	t.Setenv("TEST_STR_ENV", "")
	if got := GetEnv("TEST_STR_ENV", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}
}
