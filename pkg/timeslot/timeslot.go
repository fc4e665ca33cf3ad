// Package timeslot implements wall-clock time-of-day arithmetic over "HH:MM" strings.
//
// All intervals are half-open: [start, end). An interval ending at 10:00 does not
// overlap one starting at 10:00.
package timeslot

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

// MinutesPerDay is the exclusive upper bound for a minute offset.
const MinutesPerDay = 24 * 60

// ErrInvalidFormat is returned for strings that are not a zero-padded 24-hour "HH:MM".
var ErrInvalidFormat = errors.New("invalid time format, use HH:MM")

// Slot is a candidate or booked interval on a single day.
type Slot struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Duration  int    `json:"duration"`
}

// TimeToMinutes converts "HH:MM" to minutes since midnight.
func TimeToMinutes(t string) (int, error) {
	if len(t) != 5 || t[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, t)
	}
	for _, i := range []int{0, 1, 3, 4} {
		if t[i] < '0' || t[i] > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, t)
		}
	}

	hours := int(t[0]-'0')*10 + int(t[1]-'0')
	minutes := int(t[3]-'0')*10 + int(t[4]-'0')
	if hours > 23 || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, t)
	}

	return hours*60 + minutes, nil
}

// MinutesToTime converts a minute offset in [0, MinutesPerDay) to "HH:MM".
func MinutesToTime(m int) (string, error) {
	if m < 0 || m >= MinutesPerDay {
		return "", fmt.Errorf("%w: minute offset %d out of range", ErrInvalidFormat, m)
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60), nil
}

// Valid reports whether t is a well-formed "HH:MM".
func Valid(t string) bool {
	_, err := TimeToMinutes(t)
	return err == nil
}

// Overlaps reports whether [startA, endA) and [startB, endB) intersect.
func Overlaps(startA, endA, startB, endB int) bool {
	return startA < endB && endA > startB
}

// IntervalsOverlap is Overlaps over "HH:MM" strings.
func IntervalsOverlap(startA, endA, startB, endB string) (bool, error) {
	mins, err := parseAll(startA, endA, startB, endB)
	if err != nil {
		return false, err
	}
	return Overlaps(mins[0], mins[1], mins[2], mins[3]), nil
}

// Within reports whether [start, end) lies entirely inside [open, close).
func Within(start, end, open, close int) bool {
	return start >= open && end <= close
}

// AddMinutes returns t shifted by delta minutes.
func AddMinutes(t string, delta int) (string, error) {
	m, err := TimeToMinutes(t)
	if err != nil {
		return "", err
	}
	return MinutesToTime(m + delta)
}

// Range lazily yields consecutive slots of slotDuration minutes starting at dayStart.
// It stops when the next slot would end after dayEnd or once maxSlots slots have been
// yielded; maxSlots <= 0 means no cap. The sequence is restartable.
//
// An end boundary of 24:00 cannot be expressed as "HH:MM", so a slot may end at most
// at 23:59.
func Range(dayStart, dayEnd string, slotDuration, maxSlots int) (iter.Seq[Slot], error) {
	if slotDuration <= 0 {
		return nil, fmt.Errorf("%w: slot duration must be positive, got %d", ErrInvalidFormat, slotDuration)
	}
	mins, err := parseAll(dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	start, end := mins[0], mins[1]

	return func(yield func(Slot) bool) {
		produced := 0
		for cur := start; cur+slotDuration <= end; cur += slotDuration {
			if maxSlots > 0 && produced >= maxSlots {
				return
			}
			slot := Slot{
				StartTime: format(cur),
				EndTime:   format(cur + slotDuration),
				Duration:  slotDuration,
			}
			if !yield(slot) {
				return
			}
			produced++
		}
	}, nil
}

// GenerateSlots collects Range into a slice.
func GenerateSlots(dayStart, dayEnd string, slotDuration, maxSlots int) ([]Slot, error) {
	seq, err := Range(dayStart, dayEnd, slotDuration, maxSlots)
	if err != nil {
		return nil, err
	}
	return slices.Collect(seq), nil
}

func parseAll(values ...string) ([]int, error) {
	out := make([]int, len(values))
	for i, v := range values {
		m, err := TimeToMinutes(v)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

// format assumes 0 <= m < MinutesPerDay, which Range guarantees.
func format(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
