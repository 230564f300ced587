package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// DefaultTimeRange is used whenever an hours line cannot be parsed.
	DefaultTimeRange = "7:00-19:00"
	// fallbackTime replaces a single fragment that was found but could not be converted.
	fallbackTime = "07:00"

	enDash = "–"
)

// timeFragment matches "8 AM", "8:00 AM", "12:30PM". Providers separate the
// meridiem with a plain, no-break or narrow no-break space.
var timeFragment = regexp.MustCompile(`\b(\d{1,2})(?::(\d+))?[ \x{00a0}\x{202f}]?(AM|PM)\b`)

// ParseTimeRange turns a weekday line such as "Monday: 8:00 AM – 5:00 PM"
// into "8:00-17:00". Lines without an en-dash or without two AM/PM time
// fragments ("Closed", "Open 24 hours") yield DefaultTimeRange.
func ParseTimeRange(dayText string) string {
	if !strings.Contains(dayText, enDash) {
		return DefaultTimeRange
	}

	matches := timeFragment.FindAllStringSubmatch(dayText, 2)
	if len(matches) < 2 {
		return DefaultTimeRange
	}

	open := to24Hour(matches[0][1], matches[0][2], matches[0][3])
	closing := to24Hour(matches[1][1], matches[1][2], matches[1][3])
	return open + "-" + closing
}

// to24Hour converts one 12-hour fragment. 12 AM is midnight, 12 PM is noon.
func to24Hour(hourStr, minuteStr, meridiem string) string {
	hour, err := strconv.Atoi(hourStr)
	if err != nil || hour < 1 || hour > 12 {
		return fallbackTime
	}
	minute := 0
	if minuteStr != "" {
		minute, err = strconv.Atoi(minuteStr)
		if err != nil || minute > 59 {
			return fallbackTime
		}
	}

	switch {
	case meridiem == "PM" && hour != 12:
		hour += 12
	case meridiem == "AM" && hour == 12:
		hour = 0
	}
	return fmt.Sprintf("%d:%02d", hour, minute)
}
