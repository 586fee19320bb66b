package timestamp

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"00:01:00", "00:01:00"},
		{"1:22:18", "01:22:18"},
		{"[01:22:18]", "01:22:18"},
		{"05:30", "00:05:30"},
		{"[2:05]", "00:02:05"},
		{"125", "00:02:05"},
		{"95", "00:01:35"},
		{"0", "00:00:00"},
		{"10.88", "00:10:53"},
		{"[10.88]", "00:10:53"},
		{"0.5", "00:00:30"},
		{"12.0", "00:12:00"},
		{"  00:01:00  ", "00:01:00"},
	}

	for _, tt := range tests {
		got, err := Normalize(tt.in)
		if err != nil {
			t.Errorf("Normalize(%q): %v", tt.in, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"1:22:18", "125", "10.88", "05:30", "[00:00:07]"}
	for _, in := range inputs {
		first, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", in, err)
		}
		second, err := Normalize(first.String())
		if err != nil {
			t.Fatalf("Normalize(Normalize(%q)): %v", in, err)
		}
		if second != first {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, first, second)
		}
	}
}

func TestStringRoundTripsLargeHours(t *testing.T) {
	tok := FromSeconds(360000) // 100 hours
	if got := tok.String(); got != "100:00:00" {
		t.Fatalf("String() = %q, want 100:00:00", got)
	}
	back, err := Normalize(tok.String())
	if err != nil {
		t.Fatalf("Normalize(%q): %v", tok, err)
	}
	if back != tok {
		t.Errorf("round trip changed token: %q then %q", tok, back)
	}
}

func TestNormalizeRejects(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"abc",
		"-5",
		"1:75:00",
		"00:10:99",
		"1:2:3:4",
		"12:",
		":30",
		"1.2.3",
		"10,88",
	}

	for _, in := range inputs {
		if _, err := Normalize(in); !errors.Is(err, ErrUnrecognized) {
			t.Errorf("Normalize(%q) error = %v, want ErrUnrecognized", in, err)
		}
	}
}

func TestFromSeconds(t *testing.T) {
	if got := FromSeconds(4938).String(); got != "01:22:18" {
		t.Errorf("FromSeconds(4938) = %q, want 01:22:18", got)
	}
	if got := FromSeconds(-10).Seconds(); got != 0 {
		t.Errorf("FromSeconds(-10).Seconds() = %d, want 0", got)
	}
	if got := FromSeconds(0).String(); got != "00:00:00" {
		t.Errorf("FromSeconds(0) = %q, want 00:00:00", got)
	}
}

func TestWithin(t *testing.T) {
	duration, err := Normalize("00:45:00")
	if err != nil {
		t.Fatalf("Normalize duration: %v", err)
	}

	over, _ := Normalize("01:00:00")
	if over.Within(duration) {
		t.Error("01:00:00 should not be within 00:45:00")
	}

	in, _ := Normalize("00:30:00")
	if !in.Within(duration) {
		t.Error("00:30:00 should be within 00:45:00")
	}

	edge, _ := Normalize("00:45:00")
	if !edge.Within(duration) {
		t.Error("exact duration should be within")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"PT1H22M18S", "01:22:18"},
		{"PT45M", "00:45:00"},
		{"PT30S", "00:00:30"},
		{"PT2H", "02:00:00"},
		{"PT10M5S", "00:10:05"},
		{"01:22:18", "01:22:18"},
		{"45:00", "00:45:00"},
	}

	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if err != nil {
			t.Errorf("ParseDuration(%q): %v", tt.in, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("ParseDuration(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseDurationRejects(t *testing.T) {
	for _, in := range []string{"PT", "P1D", "forever", ""} {
		if _, err := ParseDuration(in); err == nil {
			t.Errorf("ParseDuration(%q) expected error", in)
		}
	}
}
