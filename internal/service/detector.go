package service

import "alarmdesk"

// detectNewOccurrences compares this cycle's lineage counts against the
// previous cycle's. A lineage is flagged when its count grew AND it was
// already present last cycle; a first sighting is never flagged. The
// returned counts map replaces the previous one wholesale, so lineages
// absent from this cycle forget their count.
func detectNewOccurrences(lineages []alarmdesk.Lineage, prev map[string]int) (flagged map[string]bool, next map[string]int) {
	flagged = make(map[string]bool)
	next = make(map[string]int, len(lineages))
	for _, l := range lineages {
		ks := l.Key.String()
		next[ks] = l.Count
		if p := prev[ks]; l.Count > p && p > 0 {
			flagged[ks] = true
		}
	}
	return flagged, next
}
