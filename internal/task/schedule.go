package task

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Task categories.
const (
	CategoryFeeding    = "feeding"
	CategoryWalking    = "walking"
	CategoryMedication = "medication"
	CategoryGrooming   = "grooming"
	CategoryPlay       = "play"
	CategoryTraining   = "training"
	CategoryOther      = "other"
)

var validCategories = map[string]bool{
	CategoryFeeding:    true,
	CategoryWalking:    true,
	CategoryMedication: true,
	CategoryGrooming:   true,
	CategoryPlay:       true,
	CategoryTraining:   true,
	CategoryOther:      true,
}

var validPriorities = map[string]bool{
	"low":    true,
	"medium": true,
	"high":   true,
}

// timeOfDayRegexp matches zero-padded 24-hour "HH:MM". Zero padding matters:
// the for-date listing sorts templates lexicographically by this string.
var timeOfDayRegexp = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidCategory reports whether c is a known task category.
func ValidCategory(c string) bool {
	return validCategories[c]
}

// ValidPriority reports whether p is a known priority.
func ValidPriority(p string) bool {
	return validPriorities[p]
}

// ValidTimeOfDay reports whether s is a valid 24-hour "HH:MM" string.
func ValidTimeOfDay(s string) bool {
	return timeOfDayRegexp.MatchString(s)
}

// ValidateDays checks that days is non-empty and contains only 0–6
// (0=Sunday..6=Saturday).
func ValidateDays(days []int) error {
	if len(days) == 0 {
		return fmt.Errorf("days_of_week must not be empty")
	}
	for _, d := range days {
		if d < 0 || d > 6 {
			return fmt.Errorf("invalid weekday %d: must be 0-6", d)
		}
	}
	return nil
}

// FormatDays serializes a weekday set for storage: sorted, deduplicated,
// comma-separated (e.g. "1,3,5").
func FormatDays(days []int) string {
	seen := make(map[int]bool, len(days))
	var out []int
	for _, d := range days {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Ints(out)

	parts := make([]string, len(out))
	for i, d := range out {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

// ParseDays parses a stored weekday set back into a slice.
func ParseDays(s string) ([]int, error) {
	if s == "" {
		return nil, fmt.Errorf("empty weekday set")
	}
	var days []int
	for _, part := range strings.Split(s, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || d < 0 || d > 6 {
			return nil, fmt.Errorf("invalid weekday %q", part)
		}
		days = append(days, d)
	}
	return days, nil
}

// IsDueOn reports whether a template with the given weekday set recurs on
// the given date.
func IsDueOn(days []int, date time.Time) bool {
	wd := int(date.Weekday())
	for _, d := range days {
		if d == wd {
			return true
		}
	}
	return false
}

// DateKey truncates a time to its calendar day and formats it as the
// completion key ("YYYY-MM-DD"). Every date used to read or write a
// completion row goes through this, so "is this task done today" is stable
// regardless of the time of day the check runs.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseDateKey parses a "YYYY-MM-DD" date key in the local time zone.
func ParseDateKey(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}
