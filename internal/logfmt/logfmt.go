// Package logfmt turns a job's raw log blob into classified, timestamped
// entries for display. Parsing is a pure function of the input text and
// is recomputed from scratch on every call.
package logfmt

import (
	"regexp"
	"strings"

	"github.com/jonathan/celia-console/internal/types"
)

// timestampPrefix matches a leading bracketed value, e.g. "[12:34:56] msg"
// or "[2025-06-01T12:34:56.123] msg".
var timestampPrefix = regexp.MustCompile(`^\[(.+?)\]\s*(.*)$`)

// datePrefix recognizes a stamp that starts with a calendar date, so a
// space separator is not confused with bracketed tags like "[STEP 1]".
var datePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]`)

// Parse converts raw newline-delimited log text into display entries.
// Blank lines are dropped; entry order matches line order.
func Parse(raw string) []types.LogEntry {
	if raw == "" {
		return nil
	}

	var entries []types.LogEntry
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var ts, msg string
		if m := timestampPrefix.FindStringSubmatch(line); m != nil {
			ts = timeOfDay(m[1])
			msg = m[2]
		} else {
			msg = line
		}

		entries = append(entries, types.LogEntry{
			Timestamp: ts,
			Message:   msg,
			Type:      Classify(msg),
		})
	}
	return entries
}

// timeOfDay reduces a full date-time stamp to its clock portion. Both
// the ISO "T" separator and a plain space are accepted; a value without
// a date-time separator is kept verbatim.
func timeOfDay(stamp string) string {
	if !datePrefix.MatchString(stamp) {
		return stamp
	}
	t := stamp[strings.IndexAny(stamp, "T ")+1:]
	// Strip sub-second precision.
	if dot := strings.IndexByte(t, '.'); dot >= 0 {
		t = t[:dot]
	}
	return t
}

// Classify tags a message by scanning for known markers. First match
// wins, so a line carrying both [ERROR] and [SUCCESS] reads as an error.
func Classify(message string) types.EntryType {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(message, "[ERROR]") || strings.Contains(lower, "failed"):
		return types.EntryError
	case strings.Contains(message, "[SUCCESS]") || strings.Contains(lower, "completed"):
		return types.EntrySuccess
	case strings.Contains(message, "[GIT]"):
		return types.EntryGit
	case strings.Contains(message, "[BRAIN]"):
		return types.EntryBrain
	case strings.Contains(message, "[PLAN]") || strings.Contains(message, "[STEP"):
		return types.EntryPlan
	case strings.Contains(message, "[SYSTEM]") || strings.Contains(message, "[CMD]"):
		return types.EntryProcess
	default:
		return types.EntryInfo
	}
}
