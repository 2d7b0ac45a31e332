package ref

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	percentRe   = regexp.MustCompile(`(\d+(?:\.\d+)?|\.\d+)\s*%`)
	dateShapeRe = regexp.MustCompile(`(?i)\d{1,4}[-/]\d{1,2}|\d{1,2}\.\d{1,2}\.\d{2,4}|` +
		`\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2}|` +
		`\d{1,2}\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)`)
)

// WorkLogEntry is one parsed "worked-on" line.
type WorkLogEntry struct {
	Start           time.Time // zero when the line carries no date
	Minutes         int
	Completeness    float64
	HasCompleteness bool
	Completed       time.Time // set only when Completeness reaches 1
}

// ParseDate parses a calendar date or date-time in loc. Text that does not
// look like a date ("2hrs", "May", "12") is rejected before parsing.
func ParseDate(text string, loc *time.Location) (time.Time, error) {
	text = strings.TrimSpace(text)
	if !dateShapeRe.MatchString(text) {
		return time.Time{}, fmt.Errorf("no date in %q", text)
	}
	if loc == nil {
		loc = time.Local
	}
	return dateparse.ParseIn(text, loc)
}

// ParseWorkLogLine parses "2015-01-01: 2hrs 90%". The text before the first
// colon that parses as a date becomes the start time; a line without a date
// is read as duration and percentage only. A percentage-only line is legal;
// a line with neither a duration nor a percentage is an error.
// Reaching 100% stamps the completion time: the line's own date, else now.
func ParseWorkLogLine(text string, now time.Time, loc *time.Location) (WorkLogEntry, error) {
	var e WorkLogEntry
	rest := strings.TrimSpace(text)

	if start, remainder, ok := splitDatePrefix(rest, loc); ok {
		e.Start = start
		rest = remainder
	}

	if m := percentRe.FindStringSubmatchIndex(rest); m != nil {
		v, err := strconv.ParseFloat(rest[m[2]:m[3]], 64)
		if err != nil {
			return e, fmt.Errorf("work log %q: %w", text, err)
		}
		e.Completeness = v / 100
		e.HasCompleteness = true
		rest = rest[:m[0]] + rest[m[1]:]
	}

	minutes, err := ParseDuration(rest)
	switch {
	case err == nil:
		e.Minutes = minutes
	case e.HasCompleteness && errors.Is(err, ErrInvalidDuration):
		e.Minutes = 0
	default:
		return e, fmt.Errorf("work log %q: %w", text, err)
	}

	if e.HasCompleteness && e.Completeness >= 1 {
		e.Completed = now
		if !e.Start.IsZero() {
			e.Completed = e.Start
		}
	}
	return e, nil
}

// splitDatePrefix finds the leading date of a work-log line. A colon followed
// by a digit belongs to a clock time ("10:30") and never ends the prefix; a
// line with no colon date may still lead with a whitespace-separated date.
func splitDatePrefix(line string, loc *time.Location) (time.Time, string, bool) {
	for i := 0; i < len(line); i++ {
		if line[i] != ':' {
			continue
		}
		if i+1 < len(line) && line[i+1] >= '0' && line[i+1] <= '9' {
			continue
		}
		if t, err := ParseDate(line[:i], loc); err == nil {
			return t, line[i+1:], true
		}
	}
	if fields := strings.SplitN(line, " ", 2); len(fields) == 2 {
		if t, err := ParseDate(fields[0], loc); err == nil {
			return t, fields[1], true
		}
	}
	return time.Time{}, line, false
}
