package service

import (
	"fmt"
	"sort"
	"strings"

	"alarmdesk"
)

// mergeHistory folds both audit logs into one timeline, ascending by
// timestamp. Status changes are rendered as sentences so the merged view
// reads uniformly. Pure with respect to the two logs' contents.
func mergeHistory(comments []alarmdesk.CommentEntry, changes []alarmdesk.StatusChangeEntry) []alarmdesk.HistoryEntry {
	out := make([]alarmdesk.HistoryEntry, 0, len(comments)+len(changes))
	for _, c := range comments {
		out = append(out, alarmdesk.HistoryEntry{
			At:   c.CreatedAt,
			Kind: alarmdesk.HistoryKindComment,
			Text: c.Body,
		})
	}
	for _, ch := range changes {
		out = append(out, alarmdesk.HistoryEntry{
			At:   ch.CreatedAt,
			Kind: alarmdesk.HistoryKindStatus,
			Text: statusText(ch),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].At.Before(out[j].At)
	})
	return out
}

func statusText(e alarmdesk.StatusChangeEntry) string {
	if e.Reason == alarmdesk.ReasonAutoNewOccurrence {
		return fmt.Sprintf("Status automatically set to %q after a new occurrence", humanStatus(e.Status))
	}
	return fmt.Sprintf("Status set to %q", humanStatus(e.Status))
}

func humanStatus(s alarmdesk.Status) string {
	return strings.ReplaceAll(string(s), "_", " ")
}
