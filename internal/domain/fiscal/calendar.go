// Package fiscal computes posting dates for clearing documents.
//
// The posting date of a monthly clearing run depends on where in the month
// the run happens relative to ultimo (the last business day of a month) and
// ultimo+1 (the first business day of the next). Runs on or before ultimo+1
// still post into the previous month.
package fiscal

import (
	"time"
)

// Calendar answers business-day questions against a set of recurring
// company holidays. Holidays recur yearly: only month and day are
// significant, the year of a configured holiday is ignored.
type Calendar struct {
	holidays map[[2]int]bool // keyed by (month, day)
}

// NewCalendar creates a calendar from recurring holiday dates.
func NewCalendar(holidays []time.Time) *Calendar {
	c := &Calendar{holidays: make(map[[2]int]bool, len(holidays))}
	for _, h := range holidays {
		c.holidays[[2]int{int(h.Month()), h.Day()}] = true
	}
	return c
}

// IsBusinessDay reports whether a day is a working day: Monday through
// Friday and not a company holiday.
func (c *Calendar) IsBusinessDay(day time.Time) bool {
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !c.holidays[[2]int{int(day.Month()), day.Day()}]
}

// Ultimo returns the last business day of the given day's month.
func (c *Calendar) Ultimo(day time.Time) time.Time {
	d := endOfMonth(day)
	for !c.IsBusinessDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// UltimoPlusOne returns the first business day of the given day's month.
func (c *Calendar) UltimoPlusOne(day time.Time) time.Time {
	d := startOfMonth(day)
	for !c.IsBusinessDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// prevUltimo returns the ultimo preceding a given ultimo+1 day, stepping
// back into the previous month.
func (c *Calendar) prevUltimo(ultimoPlusOne time.Time) time.Time {
	d := ultimoPlusOne.AddDate(0, 0, -1)
	for !c.IsBusinessDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// ClearingDate returns the posting date for a clearing run happening on the
// given day. Runs after this month's ultimo post on the ultimo; runs on or
// before ultimo+1 post on the previous month's ultimo; anything in between
// posts on the run day itself.
func (c *Calendar) ClearingDate(day time.Time) time.Time {
	day = truncateDay(day)
	ultimoPlusOne := c.UltimoPlusOne(day)
	ultimo := c.Ultimo(day)

	switch {
	case ultimo.Before(day):
		return ultimo
	case !day.After(ultimoPlusOne):
		return c.prevUltimo(ultimoPlusOne)
	default:
		return day
	}
}

// ClearingPeriod returns the posting period for a clearing date calculated
// from the given run day. A clearing date pushed into the previous month
// posts into the previous period.
func ClearingPeriod(day, clearingDate time.Time) int {
	if truncateDay(day).Equal(truncateDay(clearingDate)) {
		return int(day.Month())
	}
	if day.Month() == time.January {
		return 12
	}
	return int(day.Month()) - 1
}

func startOfMonth(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
}

func endOfMonth(day time.Time) time.Time {
	return startOfMonth(day).AddDate(0, 1, -1)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
