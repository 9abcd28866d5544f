package schema

import (
	"sort"
	"strings"
	"time"
)

const monthLayout = "2006-01"

// TotalExperienceMonths sums the durations of the given work entries after
// merging overlapping month spans, so concurrent roles are not counted
// twice. Spans are half-open: [start, end), measured in whole months.
// Open-ended entries run until now.
func TotalExperienceMonths(entries []ExperienceEntry, now time.Time) int {
	type span struct{ start, end int }
	var spans []span

	nowIdx := monthIndex(now.Year(), int(now.Month()))

	for _, e := range entries {
		start, ok := parseMonth(e.StartDate)
		if !ok {
			continue
		}
		end := nowIdx
		if e.EndDate != "" && !isOngoing(e.EndDate) {
			if parsed, ok := parseMonth(e.EndDate); ok {
				end = parsed
			}
		}
		if end <= start {
			continue
		}
		spans = append(spans, span{start, end})
	}

	if len(spans) == 0 {
		return 0
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	total := 0
	cur := spans[0]
	for _, s := range spans[1:] {
		if s.start <= cur.end {
			if s.end > cur.end {
				cur.end = s.end
			}
			continue
		}
		total += cur.end - cur.start
		cur = s
	}
	total += cur.end - cur.start
	return total
}

func parseMonth(s string) (int, bool) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return 0, false
	}
	return monthIndex(t.Year(), int(t.Month())), true
}

func monthIndex(year, month int) int {
	return year*12 + (month - 1)
}

func validMonth(s string) bool {
	_, ok := parseMonth(s)
	return ok
}

func isOngoing(s string) bool {
	return strings.EqualFold(s, "present") || strings.EqualFold(s, "current")
}
