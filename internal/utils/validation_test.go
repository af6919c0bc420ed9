package utils

import (
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	got, err := ValidateName("  Morning Run  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Morning Run" {
		t.Errorf("expected trimmed name, got %q", got)
	}

	if _, err := ValidateName("   "); err == nil {
		t.Error("expected blank name rejected")
	}
	if _, err := ValidateName(strings.Repeat("x", MaxNameLength+1)); err == nil {
		t.Error("expected overlong name rejected")
	}
	if _, err := ValidateName(strings.Repeat("x", MaxNameLength)); err != nil {
		t.Errorf("expected max-length name accepted: %v", err)
	}
}

func TestValidateReminderTime(t *testing.T) {
	for _, ok := range []string{"00:00", "07:30", "23:59"} {
		if err := ValidateReminderTime(ok); err != nil {
			t.Errorf("expected %q accepted: %v", ok, err)
		}
	}
	for _, bad := range []string{"24:00", "7:65", "noon", "0730"} {
		if err := ValidateReminderTime(bad); err == nil {
			t.Errorf("expected %q rejected", bad)
		}
	}
}

func TestParseDateFlag(t *testing.T) {
	d, err := ParseDateFlag("2026-08-20")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d == nil || d.Year() != 2026 || int(d.Month()) != 8 || d.Day() != 20 {
		t.Errorf("unexpected date: %v", d)
	}

	d, err = ParseDateFlag("")
	if err != nil || d != nil {
		t.Errorf("expected empty string to parse to nil, got %v, %v", d, err)
	}

	if _, err := ParseDateFlag("20-08-2026"); err == nil {
		t.Error("expected wrong format rejected")
	}
	if _, err := ParseDateFlag("2026-02-30"); err == nil {
		t.Error("expected impossible date rejected")
	}
}
