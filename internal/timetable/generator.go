// Package timetable builds weekly day/period grids of subject-teacher pairs.
package timetable

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

var (
	ErrInvalidTimeRange = errors.New("timetable: invalid time range")
	ErrEmptySelection   = errors.New("timetable: no days or pairs selected")
	ErrInvalidInput     = errors.New("timetable: invalid input")
)

const clockLayout = "15:04"

// referenceDate anchors clock times so slot arithmetic never crosses a DST change.
var referenceDate = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Weekdays lists the valid day names in calendar order.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// TimeSlot is a half-open [Start, End) interval rendered as HH:MM.
type TimeSlot struct {
	Start string `json:"startTime"`
	End   string `json:"endTime"`
}

// Pair is a subject taught by a teacher.
type Pair struct {
	Subject string `json:"subject"`
	Teacher string `json:"teacher"`
}

// Schedule maps a day name to its periods.
type Schedule map[string][]Pair

// ParseClock reads an HH:MM value on the reference date.
func ParseClock(value string) (time.Time, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not HH:MM", ErrInvalidTimeRange, value)
	}
	return referenceDate.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute), nil
}

// ValidateRange checks that end is strictly after start.
func ValidateRange(start, end string) (time.Time, time.Time, error) {
	s, err := ParseClock(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !e.After(s) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end %s is not after start %s", ErrInvalidTimeRange, end, start)
	}
	return s, e, nil
}

// GenerateSlots divides [start, end) into periodCount equal periods.
// Boundaries are truncated to the minute when rendered.
func GenerateSlots(periodCount int, start, end string) ([]TimeSlot, error) {
	if periodCount <= 0 {
		return nil, fmt.Errorf("%w: period count must be positive", ErrInvalidTimeRange)
	}
	s, e, err := ValidateRange(start, end)
	if err != nil {
		return nil, err
	}
	span := e.Sub(s)
	if span/time.Duration(periodCount) < time.Minute {
		return nil, fmt.Errorf("%w: periods would be shorter than a minute", ErrInvalidTimeRange)
	}

	offset := func(i int) time.Duration {
		return time.Duration(int64(span) * int64(i) / int64(periodCount))
	}
	slots := make([]TimeSlot, periodCount)
	for i := range slots {
		slots[i] = TimeSlot{
			Start: s.Add(offset(i)).Format(clockLayout),
			End:   s.Add(offset(i + 1)).Format(clockLayout),
		}
	}
	return slots, nil
}

// BreakPeriods returns the indexes of slots starting when the break starts.
// Those periods are shown as BREAK; the schedule still holds a pair there.
func BreakPeriods(slots []TimeSlot, brk TimeSlot) []int {
	var out []int
	for i, slot := range slots {
		if slot.Start == brk.Start {
			out = append(out, i)
		}
	}
	return out
}

// Options tunes schedule generation.
type Options struct {
	Randomize bool
	// Rand drives randomized mode. A nil Rand falls back to a time-seeded source.
	Rand *rand.Rand
}

// GenerateSchedule fills periodCount periods for each day from pairs.
//
// Deterministic mode gives period i pairs[i mod len(pairs)] on every day.
// Randomized mode, per day, shuffles the pairs, fills round-robin from the
// shuffled list and shuffles the filled sequence again.
func GenerateSchedule(days []string, periodCount int, pairs []Pair, opts Options) (Schedule, error) {
	if len(days) == 0 || len(pairs) == 0 {
		return nil, ErrEmptySelection
	}
	if periodCount <= 0 {
		return nil, fmt.Errorf("%w: period count must be positive", ErrInvalidTimeRange)
	}
	days, err := NormalizeDays(days)
	if err != nil {
		return nil, err
	}
	for _, p := range pairs {
		if strings.TrimSpace(p.Subject) == "" || strings.TrimSpace(p.Teacher) == "" {
			return nil, fmt.Errorf("%w: pair requires subject and teacher", ErrInvalidInput)
		}
	}

	rng := opts.Rand
	if opts.Randomize && rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	out := make(Schedule, len(days))
	for _, day := range days {
		if opts.Randomize {
			out[day] = randomized(rng, pairs, periodCount)
			continue
		}
		out[day] = roundRobin(pairs, periodCount)
	}
	return out, nil
}

func roundRobin(pairs []Pair, periodCount int) []Pair {
	seq := make([]Pair, periodCount)
	for i := range seq {
		seq[i] = pairs[i%len(pairs)]
	}
	return seq
}

func randomized(rng *rand.Rand, pairs []Pair, periodCount int) []Pair {
	shuffled := make([]Pair, len(pairs))
	copy(shuffled, pairs)
	shuffle(rng, shuffled)
	seq := roundRobin(shuffled, periodCount)
	shuffle(rng, seq)
	return seq
}

// shuffle is Fisher-Yates from the tail.
func shuffle(rng *rand.Rand, s []Pair) {
	for i := len(s) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// NormalizeDays canonicalises day names, keeps first-seen order and drops duplicates.
func NormalizeDays(days []string) ([]string, error) {
	seen := make(map[string]struct{}, len(days))
	out := make([]string, 0, len(days))
	for _, raw := range days {
		day, ok := canonicalDay(raw)
		if !ok {
			return nil, fmt.Errorf("%w: unknown day %q", ErrInvalidInput, raw)
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		out = append(out, day)
	}
	if len(out) == 0 {
		return nil, ErrEmptySelection
	}
	return out, nil
}

func canonicalDay(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	for _, d := range Weekdays {
		if strings.EqualFold(d, v) || strings.EqualFold(d[:3], v) {
			return d, true
		}
	}
	return "", false
}
