package service

import (
	"sort"

	"alarmdesk"
)

// groupOccurrences folds a flat occurrence batch into lineages keyed by
// (source, site, point). The representative is the occurrence with the
// greatest adjusted timestamp; on equal timestamps the one seen later in
// the input wins. Lineage history is sorted newest-first. Output order is
// first-seen input order, so the same batch always yields the same slice.
func groupOccurrences(occs []alarmdesk.Occurrence) []alarmdesk.Lineage {
	byKey := make(map[string]*alarmdesk.Lineage, len(occs))
	order := make([]string, 0, len(occs))

	for _, o := range occs {
		key := o.Key()
		ks := key.String()
		l, ok := byKey[ks]
		if !ok {
			l = &alarmdesk.Lineage{Key: key}
			byKey[ks] = l
			order = append(order, ks)
		}
		l.History = append(l.History, o)
		l.Count++
		if l.Count == 1 || !o.AdjustedAt.Before(l.Representative.AdjustedAt) {
			l.Representative = o
		}
	}

	out := make([]alarmdesk.Lineage, 0, len(order))
	for _, ks := range order {
		l := byKey[ks]
		sort.SliceStable(l.History, func(i, j int) bool {
			return l.History[i].AdjustedAt.After(l.History[j].AdjustedAt)
		})
		out = append(out, *l)
	}
	return out
}
