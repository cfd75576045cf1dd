// SPDX-License-Identifier: GPL-3.0-only

package commons

import "testing"

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"User@Example.COM":    "user@example.com",
		"  user@example.com ": "user@example.com",
		"user@example.com":    "user@example.com",
	}
	for input, want := range cases {
		if got := NormalizeEmail(input); got != want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("DOCGATE_TEST_VAR", "set-value")

	if got := GetEnv("DOCGATE_TEST_VAR"); got != "set-value" {
		t.Errorf("Expected set-value, got %q", got)
	}
	if got := GetEnv("DOCGATE_TEST_VAR", "fallback"); got != "set-value" {
		t.Errorf("Set variables should win over fallbacks, got %q", got)
	}
	if got := GetEnv("DOCGATE_UNSET_VAR", "fallback"); got != "fallback" {
		t.Errorf("Expected fallback, got %q", got)
	}
	if got := GetEnv("DOCGATE_UNSET_VAR"); got != "" {
		t.Errorf("Expected empty string, got %q", got)
	}
}
