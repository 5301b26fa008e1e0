package billing

import "time"

// Business days are Monday through Friday. There is deliberately no holiday
// calendar; weekends are the only non-business days.

func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// AddBusinessDays walks day-by-day from d, counting only weekdays. n may be
// negative to walk backwards. The starting day itself is not counted.
func AddBusinessDays(d time.Time, n int) time.Time {
	if n == 0 {
		return d
	}
	step := 1
	if n < 0 {
		step = -1
		n = -n
	}
	cur := d
	for remaining := n; remaining > 0; {
		cur = cur.AddDate(0, 0, step)
		if IsBusinessDay(cur) {
			remaining--
		}
	}
	return cur
}

// BusinessDaysBetween returns the signed number of business days from one
// date to other, walking calendar days exclusive of the later endpoint and
// counting only weekdays. Same-day distance is 0; the sign is negative when
// other precedes from.
func BusinessDaysBetween(from, to time.Time) int {
	from = truncateToDay(from)
	to = truncateToDay(to)
	if from.Equal(to) {
		return 0
	}

	sign := 1
	earlier, later := from, to
	if to.Before(from) {
		sign = -1
		earlier, later = to, from
	}

	count := 0
	for cur := earlier; cur.Before(later); cur = cur.AddDate(0, 0, 1) {
		if IsBusinessDay(cur) {
			count++
		}
	}
	return sign * count
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
