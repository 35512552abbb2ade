// Package birthday holds the calendar arithmetic for birth dates. A birth
// date is a calendar date: only its year, month and day are used, never its
// clock time or location. "Today" is the calendar date of now in now's own
// location. People born on February 29 celebrate on February 28 in common
// years.
package birthday

import "time"

// Occurrence returns the birthday of birth in the given year as a UTC
// midnight date.
func Occurrence(birth time.Time, year int) time.Time {
	_, month, day := birth.Date()

	if month == time.February && day == 29 && !isLeap(year) {
		day = 28
	}

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Next returns the first birthday on or after today.
func Next(birth, now time.Time) time.Time {
	today := Today(now)

	next := Occurrence(birth, today.Year())
	if next.Before(today) {
		next = Occurrence(birth, today.Year()+1)
	}

	return next
}

// DaysUntil is the number of whole days from today to the next birthday;
// 0 means the birthday is today.
func DaysUntil(birth, now time.Time) int {
	return int(Next(birth, now).Sub(Today(now)).Hours() / 24)
}

// Age is the number of birthdays celebrated up to and including today.
func Age(birth, now time.Time) int {
	today := Today(now)

	age := today.Year() - birth.Year()
	if today.Before(Occurrence(birth, today.Year())) {
		age--
	}

	if age < 0 {
		return 0
	}

	return age
}

// Today truncates now to its calendar date, expressed as UTC midnight so
// day differences are not skewed by DST transitions.
func Today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
