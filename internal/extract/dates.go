package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	isoDatePattern     = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	numericDatePattern = regexp.MustCompile(`^(\d{1,2})[./-](\d{1,2})[./-](\d{2,4})$`)
	monthDayPattern    = regexp.MustCompile(`(?i)^([a-z]{3,9})\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})$`)
	dayMonthPattern    = regexp.MustCompile(`(?i)^(\d{1,2})(?:st|nd|rd|th)?\.?\s+([a-z]{3,9})\.?,?\s+(\d{4})$`)
	timePattern        = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})(?::\d{2})?\s*(a\.?m\.?|p\.?m\.?)?$`)
)

var monthsByPrefix = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// NormalizeDate converts a recognized date string to canonical MM/DD/YYYY.
// Numeric day/month order is disambiguated by range: a leading component
// over 12 must be the day. Dates that do not resolve to a real calendar
// day are rejected.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	if m := isoDatePattern.FindStringSubmatch(s); m != nil {
		return formatDate(atoi(m[2]), atoi(m[3]), atoi(m[1]))
	}

	if m := numericDatePattern.FindStringSubmatch(s); m != nil {
		a, b, year := atoi(m[1]), atoi(m[2]), atoi(m[3])
		if year < 100 {
			year += 2000
		}
		month, day := a, b
		if a > 12 && b <= 12 {
			month, day = b, a
		}
		return formatDate(month, day, year)
	}

	if m := monthDayPattern.FindStringSubmatch(s); m != nil {
		if month, ok := monthsByPrefix[monthKey(m[1])]; ok {
			return formatDate(month, atoi(m[2]), atoi(m[3]))
		}
		return "", false
	}

	if m := dayMonthPattern.FindStringSubmatch(s); m != nil {
		if month, ok := monthsByPrefix[monthKey(m[2])]; ok {
			return formatDate(month, atoi(m[1]), atoi(m[3]))
		}
		return "", false
	}

	return "", false
}

// NormalizeTime converts a recognized time string to canonical H:MM AM/PM.
// 24-hour inputs are converted; explicit AM/PM markers win.
func NormalizeTime(s string) (string, bool) {
	m := timePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", false
	}

	hour, minute := atoi(m[1]), atoi(m[2])
	if minute > 59 {
		return "", false
	}

	marker := strings.ToUpper(strings.ReplaceAll(m[3], ".", ""))
	switch marker {
	case "AM":
		if hour > 12 {
			return "", false
		}
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour > 12 {
			return "", false
		}
		if hour < 12 {
			hour += 12
		}
	}
	if hour > 23 {
		return "", false
	}

	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, minute, suffix), true
}

func formatDate(month, day, year int) (string, bool) {
	if year < 1900 || year > 2100 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", false
	}
	return fmt.Sprintf("%02d/%02d/%04d", month, day, year), true
}

func monthKey(name string) string {
	name = strings.ToLower(name)
	if len(name) > 3 {
		name = name[:3]
	}
	return name
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
