package birthday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDaysUntil(t *testing.T) {
	tests := []struct {
		name  string
		birth time.Time
		now   time.Time
		want  int
	}{
		{"today", date(1990, time.March, 5), date(2025, time.March, 5), 0},
		{"tomorrow", date(1990, time.March, 6), date(2025, time.March, 5), 1},
		{"yesterday wraps to next year", date(1990, time.March, 4), date(2025, time.March, 5), 364},
		{"across new year", date(1990, time.January, 2), date(2025, time.December, 31), 2},
		{"wrap into leap year", date(1990, time.March, 4), date(2023, time.March, 5), 365},
		{"leapling in common year", date(2000, time.February, 29), date(2025, time.February, 27), 1},
		{"leapling on feb 28 of common year", date(2000, time.February, 29), date(2025, time.February, 28), 0},
		{"leapling in leap year", date(2000, time.February, 29), date(2028, time.February, 28), 1},
		{"late evening counts as that day", date(1990, time.March, 6), time.Date(2025, time.March, 5, 23, 59, 0, 0, time.UTC), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysUntil(tt.birth, tt.now))
		})
	}
}

func TestDaysUntil_UsesLocationOfNow(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	birth := date(1990, time.March, 6)

	// 2025-03-05 20:00 UTC is already 2025-03-06 in Tokyo.
	now := time.Date(2025, time.March, 5, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, DaysUntil(birth, now))
	assert.Equal(t, 0, DaysUntil(birth, now.In(tokyo)))
}

func TestDaysUntil_IgnoresDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}

	now := time.Date(2025, time.March, 8, 12, 0, 0, 0, ny)
	assert.Equal(t, 2, DaysUntil(date(1980, time.March, 10), now))
}

func TestAge(t *testing.T) {
	tests := []struct {
		name  string
		birth time.Time
		now   time.Time
		want  int
	}{
		{"day before birthday", date(1990, time.June, 15), date(2025, time.June, 14), 34},
		{"on birthday", date(1990, time.June, 15), date(2025, time.June, 15), 35},
		{"leapling on feb 28", date(2000, time.February, 29), date(2021, time.February, 28), 21},
		{"leapling on feb 27", date(2000, time.February, 29), date(2021, time.February, 27), 20},
		{"born in future", date(2030, time.January, 1), date(2025, time.January, 1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Age(tt.birth, tt.now))
		})
	}
}

func TestNext(t *testing.T) {
	assert.Equal(t, date(2026, time.January, 10), Next(date(1999, time.January, 10), date(2025, time.July, 1)))
	assert.Equal(t, date(2025, time.July, 1), Next(date(1999, time.July, 1), date(2025, time.July, 1)))
}
