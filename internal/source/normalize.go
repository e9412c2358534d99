package source

import (
	"time"

	"alarmdesk"
)

// displayByUnit maps the coded value enumerations sources report to
// operator-facing strings, keyed by the unit enumeration. Units or values
// not listed pass through verbatim: an unknown code must still be shown,
// never dropped.
var displayByUnit = map[string]map[string]string{
	"state": {
		"0": "Normal",
		"1": "Alarm",
	},
	"binary": {
		"0": "Off",
		"1": "On",
	},
	"presence": {
		"0": "Absent",
		"1": "Present",
	},
	"fault": {
		"0": "OK",
		"1": "Fault",
	},
}

// normalizeValue renders a raw value/unit pair for display. Mapped
// enumerations become their display string; everything else keeps the raw
// value, with the unit appended when one is present.
func normalizeValue(value, unit string) string {
	if m, ok := displayByUnit[unit]; ok {
		if display, ok := m[value]; ok {
			return display
		}
	}
	if unit == "" {
		return value
	}
	return value + " " + unit
}

// adjustTime applies a source's hour offset to a source-native timestamp.
func adjustTime(ts time.Time, hourOffset float64) time.Time {
	return ts.Add(time.Duration(hourOffset * float64(time.Hour)))
}

// mapOccurrence converts one raw alarm row into the canonical occurrence
// record. The synthetic ID stays globally unique across sources.
func mapOccurrence(src alarmdesk.Source, raw RawOccurrence) alarmdesk.Occurrence {
	return alarmdesk.Occurrence{
		ID:           src.ID + ":" + raw.ID,
		SourceID:     src.ID,
		SourceLabel:  src.Label,
		CreatedAt:    raw.CreatedAt,
		AdjustedAt:   adjustTime(raw.CreatedAt, src.HourOffset),
		Site:         raw.Site,
		Point:        raw.Point,
		Value:        normalizeValue(raw.Value, raw.Unit),
		Priority:     raw.Priority,
		Acknowledged: raw.Acknowledged,
		Discarded:    raw.Discarded,
		Message:      raw.Message,
	}
}
