package utils

import (
	"testing"
	"time"
)

func TestRound2(t *testing.T) {
	cases := map[float64]float64{
		12.346:  12.35,
		12.344:  12.34,
		0:       0,
		-1.005:  -1,
		56.1999: 56.2,
	}
	for in, want := range cases {
		if got := Round2(in); got != want {
			t.Fatalf("Round2(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestFormatEuro(t *testing.T) {
	if got := FormatEuro(1234.5); got != "1 234,50 €" {
		t.Fatalf("unexpected format: %q", got)
	}
	if got := FormatEuro(-3); got != "-3,00 €" {
		t.Fatalf("unexpected negative format: %q", got)
	}
}

func TestParseAmount(t *testing.T) {
	for in, want := range map[string]float64{"12.50": 12.5, "12,50 €": 12.5, " 7 ": 7} {
		got, err := ParseAmount(in)
		if err != nil {
			t.Fatalf("ParseAmount(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseAmount(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseAmount(""); err == nil {
		t.Fatalf("expected error for empty amount")
	}
}

func TestTruncate(t *testing.T) {
	long := "Mercedes Classe E - Noire - AB-123-CD - climatisation - wifi"
	got := Truncate(long, 50)
	if len([]rune(got)) != 53 || got[len(got)-3:] != "..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if Truncate("short", 50) != "short" {
		t.Fatalf("short strings must be kept")
	}
}

func TestDayBounds(t *testing.T) {
	ref := time.Date(2026, 10, 19, 15, 4, 5, 0, time.UTC)
	if got := StartOfDay(ref); !got.Equal(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start of day: %v", got)
	}
	if got := EndOfDay(ref); !got.Equal(time.Date(2026, 10, 19, 23, 59, 59, 0, time.UTC)) {
		t.Fatalf("unexpected end of day: %v", got)
	}
}
