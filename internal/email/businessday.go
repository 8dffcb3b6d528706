package email

import "time"

// followUpHour is the fixed local hour for deferred sends.
const followUpHour = 10

// NextBusinessDay returns the next business day after t at the fixed
// send hour. Saturday and Sunday are skipped forward to Monday.
func NextBusinessDay(t time.Time) time.Time {
	next := t.AddDate(0, 0, 1)
	switch next.Weekday() {
	case time.Saturday:
		next = next.AddDate(0, 0, 2)
	case time.Sunday:
		next = next.AddDate(0, 0, 1)
	}
	return time.Date(next.Year(), next.Month(), next.Day(), followUpHour, 0, 0, 0, next.Location())
}
