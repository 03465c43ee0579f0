package mutabaah

import (
	"fmt"
	"regexp"
	"time"
)

// Day keys must be exactly two digits ("01".."31"). Anything else in a month's
// day-map is foreign contamination leaked by earlier stages of the system and
// must be stripped before every persistence write.
var dayKeyRegex = regexp.MustCompile(`^\d{2}$`)

const monthKeyLayout = "2006-01"

type (
	// DayMap maps activity id -> credited. Absence means "not credited";
	// there is no explicit false, days are sparse.
	DayMap map[string]bool

	// MonthMap maps day key ("01".."31") -> DayMap.
	MonthMap map[string]DayMap

	// Fragment is a partial ledger slice produced by a source adapter,
	// grouped by month key.
	Fragment map[string]MonthMap
)

func ValidDayKey(k string) bool { return dayKeyRegex.MatchString(k) }

// MonthKeyOf formats t as "YYYY-MM".
func MonthKeyOf(t time.Time) string { return t.Format(monthKeyLayout) }

// DayKeyOf formats t's day of month as two digits.
func DayKeyOf(t time.Time) string { return fmt.Sprintf("%02d", t.Day()) }

// ParseMonthKey parses a "YYYY-MM" key into the first instant of that month (UTC).
func ParseMonthKey(monthKey string) (time.Time, error) {
	return time.ParseInLocation(monthKeyLayout, monthKey, time.UTC)
}

// SanitizeMonth returns m with all foreign (non-two-digit) day keys stripped.
// The input is not modified.
func SanitizeMonth(m MonthMap) MonthMap {
	clean := make(MonthMap, len(m))
	for day, acts := range m {
		if !ValidDayKey(day) {
			continue
		}
		clean[day] = acts.clone()
	}
	return clean
}

// MergeMonth unions src into dst at day granularity and returns dst. A day
// entry is never replaced wholesale; credits already recorded for that day by
// another source survive. Credits are set-union on booleans, so merging is
// idempotent and add-only.
func MergeMonth(dst, src MonthMap) MonthMap {
	if dst == nil {
		dst = make(MonthMap, len(src))
	}
	for day, acts := range src {
		if !ValidDayKey(day) {
			continue
		}
		entry := dst[day]
		if entry == nil {
			entry = make(DayMap, len(acts))
			dst[day] = entry
		}
		for id, credited := range acts {
			if credited {
				entry[id] = true
			}
		}
	}
	return dst
}

func (m DayMap) clone() DayMap {
	c := make(DayMap, len(m))
	for id, v := range m {
		c[id] = v
	}
	return c
}

// Clone deep-copies the month map.
func (m MonthMap) Clone() MonthMap {
	c := make(MonthMap, len(m))
	for day, acts := range m {
		c[day] = acts.clone()
	}
	return c
}

// Month extracts one month's slice of the fragment (empty map if absent).
func (f Fragment) Month(monthKey string) MonthMap {
	if m, ok := f[monthKey]; ok {
		return m
	}
	return MonthMap{}
}

func (f Fragment) add(date time.Time, activityID string) {
	monthKey := MonthKeyOf(date)
	m := f[monthKey]
	if m == nil {
		m = make(MonthMap)
		f[monthKey] = m
	}
	day := DayKeyOf(date)
	entry := m[day]
	if entry == nil {
		entry = make(DayMap)
		m[day] = entry
	}
	entry[activityID] = true
}
