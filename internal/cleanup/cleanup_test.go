package cleanup

import "testing"

func TestClean_BoldAndWrappedTimestamp(t *testing.T) {
	got := Clean("**Big Pot** [00:01:00]...[00:01:00] happened")
	want := "Big Pot ... happened"
	if got != want {
		t.Errorf("Clean = %q, want %q", got, want)
	}
}

func TestClean_ProseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"huge bluff at 00:14:05 on the river", "huge bluff on the river"},
		{"elimination timestamp 1:22:18 confirmed", "elimination confirmed"},
	}
	for _, tt := range tests {
		if got := Clean(tt.in); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClean_RenormalizesBracketedDecimals(t *testing.T) {
	got := Clean("hero call [10.88] seals the pot")
	want := "hero call [00:10:53] seals the pot"
	if got != want {
		t.Errorf("Clean = %q, want %q", got, want)
	}
}

func TestClean_DuplicateCategoryMarkers(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"[ALL-IN] [ALL-IN] shove on the turn", "[ALL-IN] shove on the turn"},
		{"[ALL-IN] [ALL-IN] [ALL-IN] triple up", "[ALL-IN] triple up"},
		{"[RAISE] [3-BET] escalating pot", "[RAISE] [3-BET] escalating pot"},
		{"[FOLD] [3-BET] [3-BET] pressure", "[FOLD] [3-BET] pressure"},
	}
	for _, tt := range tests {
		if got := Clean(tt.in); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClean_Boilerplate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Key Moments: flop action begins", "flop action begins"},
		{"Summary: final table recap", "final table recap"},
		{"1. open shove from the button", "open shove from the button"},
		{"- check-raise on the flop", "check-raise on the flop"},
	}
	for _, tt := range tests {
		if got := Clean(tt.in); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClean_WhitespaceAndTrim(t *testing.T) {
	got := Clean("  cooler   hand\t\truns  out  ")
	want := "cooler hand runs out"
	if got != want {
		t.Errorf("Clean = %q, want %q", got, want)
	}
}

func TestClean_TotalOnNoise(t *testing.T) {
	// Clean never fails; arbitrary input passes through normalized.
	if got := Clean(""); got != "" {
		t.Errorf("Clean(\"\") = %q, want empty", got)
	}
	if got := Clean("plain text line"); got != "plain text line" {
		t.Errorf("Clean passthrough = %q", got)
	}
}

func TestCollapseDuplicateMarkers_PairAfterDistinct(t *testing.T) {
	// A duplicate pair following a distinct marker must still collapse.
	got := collapseDuplicateMarkers("[A] [B] [B]")
	if got != "[A] [B]" {
		t.Errorf("collapseDuplicateMarkers = %q, want %q", got, "[A] [B]")
	}
}
