package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/seonlab/studyplan-api/internal/models"
)

const minutesPerDay = 24 * 60

// span is a half-open minute interval [start, end) within one day.
type span struct {
	start int
	end   int
}

func (s span) length() int {
	return s.end - s.start
}

// ParseClock converts "HH:MM" into minutes since midnight. "24:00" is
// accepted as an end-of-day bound.
func ParseClock(value string) (int, error) {
	hh, mm, ok := strings.Cut(value, ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", value, err)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", value, err)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	if minutes > minutesPerDay {
		minutes = minutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// RangeMinutes returns the duration of a time range in minutes, 0 when the
// range is malformed.
func RangeMinutes(tr models.TimeRange) int {
	s, err := toSpan(tr)
	if err != nil || s.length() < 0 {
		return 0
	}
	return s.length()
}

func toSpan(tr models.TimeRange) (span, error) {
	start, err := ParseClock(tr.Start)
	if err != nil {
		return span{}, err
	}
	end, err := ParseClock(tr.End)
	if err != nil {
		return span{}, err
	}
	if start >= end {
		return span{}, fmt.Errorf("time range %s-%s: start must precede end", tr.Start, tr.End)
	}
	return span{start: start, end: end}, nil
}

func spanToRange(s span) models.TimeRange {
	return models.TimeRange{Start: FormatClock(s.start), End: FormatClock(s.end)}
}

// subtractSpan removes cut from base, yielding 0, 1 or 2 remaining pieces.
func subtractSpan(base, cut span) []span {
	if cut.end <= base.start || cut.start >= base.end {
		return []span{base}
	}
	var out []span
	if cut.start > base.start {
		out = append(out, span{start: base.start, end: cut.start})
	}
	if cut.end < base.end {
		out = append(out, span{start: cut.end, end: base.end})
	}
	return out
}

// subtractAll removes every cut from every base, returning the disjoint
// remainder sorted by start.
func subtractAll(bases, cuts []span) []span {
	remaining := bases
	for _, cut := range cuts {
		var next []span
		for _, base := range remaining {
			next = append(next, subtractSpan(base, cut)...)
		}
		remaining = next
	}
	sort.Slice(remaining, func(i, j int) bool { return remaining[i].start < remaining[j].start })
	return remaining
}

// mergeSpans coalesces spans whose gap is at most maxGap minutes. Input must
// be sorted by start.
func mergeSpans(spans []span, maxGap int) []span {
	if len(spans) == 0 {
		return nil
	}
	out := []span{spans[0]}
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if s.start-last.end <= maxGap {
			if s.end > last.end {
				last.end = s.end
			}
			continue
		}
		out = append(out, s)
	}
	return out
}
