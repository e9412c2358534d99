package alarmdesk

import (
	"fmt"
	"time"
)

// Status is the triage state of a lineage.
type Status string

const (
	StatusNotHandled  Status = "not_handled"
	StatusHandled     Status = "handled"
	StatusCompleted   Status = "completed"
	StatusOpportunity Status = "opportunity"
)

// ParseStatus validates a raw status string coming from the API or the store.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusNotHandled, StatusHandled, StatusCompleted, StatusOpportunity:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// ChangeReason tags a status-change entry with what caused it.
type ChangeReason string

const (
	ReasonUser              ChangeReason = "user"
	ReasonAutoNewOccurrence ChangeReason = "auto_new_occurrence"
)

// Occurrence is one raw alarm firing as reported by a source in a poll cycle.
// Occurrences are rebuilt from scratch every cycle; only their lineage
// persists across cycles.
type Occurrence struct {
	ID           string    `json:"id"` // "<sourceID>:<native id>"
	SourceID     string    `json:"source_id"`
	SourceLabel  string    `json:"source_label"`
	CreatedAt    time.Time `json:"created_at"`
	AdjustedAt   time.Time `json:"adjusted_at"` // CreatedAt shifted by the source's hour offset
	Site         string    `json:"site"`
	Point        string    `json:"point"`
	Value        string    `json:"value"`
	Priority     int       `json:"priority"`
	Acknowledged bool      `json:"acknowledged"`
	Discarded    bool      `json:"discarded"`
	Message      string    `json:"message,omitempty"`
}

// Key derives the lineage key this occurrence belongs to.
func (o Occurrence) Key() LineageKey {
	return LineageKey{Source: o.SourceLabel, Site: o.Site, Point: o.Point}
}

// LineageKey identifies the underlying alarm point across cycles. Two
// occurrences with the same key are the same alarm, no matter how many times
// it has fired. Comparison is exact and case-sensitive.
type LineageKey struct {
	Source string `json:"source"`
	Site   string `json:"site"`
	Point  string `json:"point"`
}

// String flattens the key for use as a store key and map key.
func (k LineageKey) String() string {
	return k.Source + "|" + k.Site + "|" + k.Point
}

// Lineage groups every occurrence of one alarm point within a cycle. It is
// recomputed from scratch each cycle; Status is filled in by the triage pass.
type Lineage struct {
	Key            LineageKey   `json:"key"`
	Representative Occurrence   `json:"representative"` // latest AdjustedAt in the group
	Count          int          `json:"count"`
	History        []Occurrence `json:"history"` // newest first
	Status         Status       `json:"status"`
}

// CommentEntry is one free-text annotation on a lineage. Comment logs are
// append-only.
type CommentEntry struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Body      string    `json:"body"`
}

// StatusChangeEntry records one status transition on a lineage. Status logs
// are append-only.
type StatusChangeEntry struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	Status    Status       `json:"status"`
	Reason    ChangeReason `json:"reason"`
}

// History entry kinds.
const (
	HistoryKindComment = "comment"
	HistoryKindStatus  = "status"
)

// HistoryEntry is one row of the merged comment/status view of a lineage.
type HistoryEntry struct {
	At   time.Time `json:"at"`
	Kind string    `json:"kind"` // comment | status
	Text string    `json:"text"`
}

// CycleResult summarizes one completed poll cycle.
type CycleResult struct {
	StartedAt      time.Time         `json:"started_at"`
	FinishedAt     time.Time         `json:"finished_at"`
	Occurrences    int               `json:"occurrences"`
	Lineages       int               `json:"lineages"`
	NewOccurrences []string          `json:"new_occurrences,omitempty"` // flattened lineage keys
	Failures       map[string]string `json:"failures,omitempty"`        // source id -> error
}
