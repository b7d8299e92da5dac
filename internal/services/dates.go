package services

import "time"

// today returns the current date with the time component stripped.
func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// monthStart returns the first day of the month containing d.
func monthStart(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
}

// shiftMonth returns the first day of the month offset whole months from
// reference.
func shiftMonth(reference time.Time, offset int) time.Time {
	return monthStart(reference).AddDate(0, offset, 0)
}

// addMonths advances a date by whole calendar months.
func addMonths(d time.Time, months int) time.Time {
	return d.AddDate(0, months, 0)
}
