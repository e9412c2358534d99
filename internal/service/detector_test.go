package service

import (
	"testing"

	"alarmdesk"
)

func lineageWithCount(site string, count int) alarmdesk.Lineage {
	return alarmdesk.Lineage{
		Key:   alarmdesk.LineageKey{Source: "plant-a", Site: site, Point: "pump1"},
		Count: count,
	}
}

func TestDetectNewOccurrences(t *testing.T) {
	key := lineageWithCount("siteA", 0).Key.String()

	tests := []struct {
		name     string
		prev     int // 0 means absent last cycle
		current  int
		wantFlag bool
	}{
		{name: "first sighting is never flagged", prev: 0, current: 3, wantFlag: false},
		{name: "count grew", prev: 1, current: 2, wantFlag: true},
		{name: "count unchanged", prev: 2, current: 2, wantFlag: false},
		{name: "count shrank", prev: 5, current: 2, wantFlag: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			prev := map[string]int{}
			if tt.prev > 0 {
				prev[key] = tt.prev
			}
			flagged, next := detectNewOccurrences([]alarmdesk.Lineage{lineageWithCount("siteA", tt.current)}, prev)
			if flagged[key] != tt.wantFlag {
				t.Fatalf("flagged=%v, want %v", flagged[key], tt.wantFlag)
			}
			if next[key] != tt.current {
				t.Fatalf("next count=%d, want %d", next[key], tt.current)
			}
		})
	}
}

func TestDetectNewOccurrences_CountsReplacedWholesale(t *testing.T) {
	gone := lineageWithCount("siteGone", 2)
	prev := map[string]int{gone.Key.String(): 2}

	// The lineage vanished this cycle: its count must be forgotten...
	flagged, next := detectNewOccurrences(nil, prev)
	if len(flagged) != 0 {
		t.Fatalf("expected nothing flagged, got %v", flagged)
	}
	if _, ok := next[gone.Key.String()]; ok {
		t.Fatalf("expected vanished lineage to be dropped from counts")
	}

	// ...so a reappearance counts as a first sighting, not a new occurrence.
	flagged, _ = detectNewOccurrences([]alarmdesk.Lineage{lineageWithCount("siteGone", 1)}, next)
	if flagged[gone.Key.String()] {
		t.Fatalf("reappearance after absence must not be flagged")
	}
}
