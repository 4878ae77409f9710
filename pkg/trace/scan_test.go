package trace

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Foo_Bar", "Foo\nBar"},
		{"Identify_steeringwheel", "Identify\nsteeringwheel"},
		{"Attend_visualresponse", "Attend\nvisual\nresponse"},
		{"visualresponse", "visual\nresponse"},
		{"a_b_c", "a\nb\nc"},
		{"plain", "plain"},
		{"Identify steeringwheel", "Identify steeringwheel"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := Normalize(tt.raw); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeDistinguishesSpaceFromUnderscore(t *testing.T) {
	if Normalize("Identify_steeringwheel") == Normalize("Identify steeringwheel") {
		t.Error("underscore and space variants should not collapse to one label")
	}
}

func TestScan(t *testing.T) {
	text := "header\n" +
		"*** Fire: Start_drive\n" +
		"noise *** Fire: not_anchored\n" +
		"\n" +
		"*** Fire: Attend_visualresponse\n"

	got := Scan(text)
	want := []Firing{
		{Line: 2, Rule: "Start_drive", Label: "Start\ndrive"},
		{Line: 5, Rule: "Attend_visualresponse", Label: "Attend\nvisual\nresponse"},
	}

	if len(got) != len(want) {
		t.Fatalf("Scan() returned %d firings, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Scan()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestScanNoMatches(t *testing.T) {
	for _, text := range []string{"", "\n\n", "*** Fire:A\n", "*** fire: A\n"} {
		if got := Scan(text); len(got) != 0 {
			t.Errorf("Scan(%q) = %+v, want none", text, got)
		}
	}
}

func TestScanPrefixSplitAcrossLines(t *testing.T) {
	if got := Scan("*** Fire:\n Rule\n"); len(got) != 0 {
		t.Errorf("Scan() matched a multi-line firing: %+v", got)
	}
}

func TestScanLastLineWithoutNewline(t *testing.T) {
	got := Scan("*** Fire: A\n*** Fire: B")
	if len(got) != 2 || got[1].Rule != "B" || got[1].Line != 2 {
		t.Errorf("Scan() = %+v, want A then B on line 2", got)
	}
}
