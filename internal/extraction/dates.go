package extraction

import (
	"math/rand/v2"
	"regexp"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// Textual formats tried when native ISO parsing fails, in order.
var rawDateLayouts = []string{
	"01/02/2006", // MM/DD/YYYY
	"01-02-2006", // MM-DD-YYYY
}

var (
	reFilenameISO = regexp.MustCompile(`(\d{4})[-_](\d{1,2})[-_](\d{1,2})`)
	reFilenameUS  = regexp.MustCompile(`(\d{1,2})[-_](\d{1,2})[-_](\d{4})`)
)

// ReconcileDate validates a candidate date against the plausibility window
// and repairs it when needed. The window is a trust boundary: a model
// echoing the wrong year must not silently enter financial records.
//
// Confidence is high only when rawDate itself parsed and fell inside the
// window; filename-derived dates are medium and randomized dates are low.
func ReconcileDate(rawDate, filename string, now time.Time) (string, Confidence) {
	if t, ok := parseRawDate(rawDate); ok && inPlausibilityWindow(t, now) {
		return t.Format(dateLayout), ConfidenceHigh
	}
	return EstimateDate(filename, now)
}

// EstimateDate produces a date with zero extraction signal: a filename
// pattern when one exists and is plausible, else a uniformly random day
// within the trailing 14 days.
func EstimateDate(filename string, now time.Time) (string, Confidence) {
	if t, ok := dateFromFilename(filename); ok && inPlausibilityWindow(t, now) {
		return t.Format(dateLayout), ConfidenceMedium
	}
	t := dateOnly(now).AddDate(0, 0, -rand.IntN(14))
	return t.Format(dateLayout), ConfidenceLow
}

// parseRawDate attempts native calendar parsing of the extractor's date
// text, then the explicit US textual patterns.
func parseRawDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, true
	}
	for _, layout := range rawDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dateFromFilename extracts an embedded YYYY[-_]MM[-_]DD or MM[-_]DD[-_]YYYY
// date from a filename, validated against a sane year/month/day range.
func dateFromFilename(filename string) (time.Time, bool) {
	if m := reFilenameISO.FindStringSubmatch(filename); m != nil {
		if t, ok := buildDate(atoi(m[1]), atoi(m[2]), atoi(m[3])); ok {
			return t, true
		}
	}
	if m := reFilenameUS.FindStringSubmatch(filename); m != nil {
		if t, ok := buildDate(atoi(m[3]), atoi(m[1]), atoi(m[2])); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func buildDate(year, month, day int) (time.Time, bool) {
	if year < 2000 || year > time.Now().Year()+1 {
		return time.Time{}, false
	}
	return calendarDate(year, month, day)
}

func calendarDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// Reject rollover (e.g. Feb 31 becoming Mar 3).
	if t.Day() != day || t.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return t, true
}

// inPlausibilityWindow reports whether t falls within [oneYearAgo, tomorrow]
// relative to now, at calendar-date granularity.
func inPlausibilityWindow(t, now time.Time) bool {
	day := dateOnly(t)
	oneYearAgo := dateOnly(now).AddDate(-1, 0, 0)
	tomorrow := dateOnly(now).AddDate(0, 0, 1)
	return !day.Before(oneYearAgo) && !day.After(tomorrow)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// atoi is safe here because the inputs are regexp digit captures.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
