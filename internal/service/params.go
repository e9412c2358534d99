package service

import (
	"strings"

	"alarmdesk"
)

// LineageFilter narrows the lineage snapshot returned to clients. Zero
// values mean "no constraint".
type LineageFilter struct {
	Status string // exact triage status
	Source string // exact source label
	Site   string // exact site
	Query  string // case-insensitive substring over site, point and message
}

func (f LineageFilter) matches(l alarmdesk.Lineage) bool {
	if f.Status != "" && string(l.Status) != f.Status {
		return false
	}
	if f.Source != "" && l.Key.Source != f.Source {
		return false
	}
	if f.Site != "" && l.Key.Site != f.Site {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(l.Key.Site), q) &&
			!strings.Contains(strings.ToLower(l.Key.Point), q) &&
			!strings.Contains(strings.ToLower(l.Representative.Message), q) {
			return false
		}
	}
	return true
}
