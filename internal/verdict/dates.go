package verdict

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	isoDatePattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)

	// "Nov 3 - Nov 10, 2026", "November 3 - 10, 2026", "Dec 28, 2026 to Jan 4, 2027"
	monthRangePattern = regexp.MustCompile(`(?i)^([a-z]+)\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s*(\d{4}))?\s*(?:-|–|—|to|until|through)\s*(?:([a-z]+)\.?\s+)?(\d{1,2})(?:st|nd|rd|th)?,?\s*(\d{4})$`)

	// "November 3, 2026"
	monthDayPattern = regexp.MustCompile(`(?i)^([a-z]+)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s*(\d{4})$`)

	// "November 2026, 7 days" (flexible dates: first of the month)
	flexiblePattern = regexp.MustCompile(`(?i)^([a-z]+)\.?\s+(\d{4})(?:\s*[,(]?\s*(\d+)\s*(?:days?|nights?)\)?)?$`)
)

var monthNames = func() map[string]time.Month {
	m := make(map[string]time.Month, 25)
	for mo := time.January; mo <= time.December; mo++ {
		name := strings.ToLower(mo.String())
		m[name] = mo
		m[name[:3]] = mo
	}
	m["sept"] = time.September
	return m
}()

// ParseStartDate extracts the first travel day from a free-form dates string.
// Returns false when no supported format matches.
func ParseStartDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if m := isoDatePattern.FindStringSubmatch(s); m != nil {
		return dateFromParts(atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3]))
	}

	if m := monthRangePattern.FindStringSubmatch(s); m != nil {
		startMonth, ok := monthNames[strings.ToLower(m[1])]
		if !ok {
			return time.Time{}, false
		}
		endMonth := startMonth
		if m[4] != "" {
			endMonth, ok = monthNames[strings.ToLower(m[4])]
			if !ok {
				return time.Time{}, false
			}
		}
		year := atoi(m[6])
		if m[3] != "" {
			year = atoi(m[3])
		} else if startMonth > endMonth {
			// "Dec 28 - Jan 4, 2027" starts in the previous year.
			year--
		}
		return dateFromParts(year, startMonth, atoi(m[2]))
	}

	if m := monthDayPattern.FindStringSubmatch(s); m != nil {
		month, ok := monthNames[strings.ToLower(m[1])]
		if !ok {
			return time.Time{}, false
		}
		return dateFromParts(atoi(m[3]), month, atoi(m[2]))
	}

	if m := flexiblePattern.FindStringSubmatch(s); m != nil {
		month, ok := monthNames[strings.ToLower(m[1])]
		if !ok {
			return time.Time{}, false
		}
		return dateFromParts(atoi(m[2]), month, 1)
	}

	return time.Time{}, false
}

// DaysUntil counts whole calendar days from now's date to start's date.
// Same-day travel is 0; past dates are negative.
func DaysUntil(start, now time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	n := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int((s.Unix() - n.Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

// dateFromParts rejects impossible dates instead of letting time.Date normalize them.
func dateFromParts(year int, month time.Month, day int) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 || year < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
