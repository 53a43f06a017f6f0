package service

import (
	"regexp"
	"testing"
	"time"
)

func TestFormatBookingCode(t *testing.T) {
	at := time.Date(2026, time.September, 15, 10, 0, 0, 0, time.UTC)
	if got := FormatBookingCode(at, 42); got != "BK26090042" {
		t.Fatalf("expected BK26090042, got %q", got)
	}
	if got := FormatBookingCode(at, 9999); got != "BK26099999" {
		t.Fatalf("expected BK26099999, got %q", got)
	}
}

func TestRandomCodesShape(t *testing.T) {
	gen := NewCodeGenerator()
	at := time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^BK2601\d{4}$`)
	for i := 0; i < 50; i++ {
		code, err := gen.Next(at)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !pattern.MatchString(code) {
			t.Fatalf("code %q does not match expected shape", code)
		}
	}
}
