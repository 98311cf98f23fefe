package format

import (
	"math"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestRatingDisplay(t *testing.T) {
	assert.Equal(t, "N/A", RatingDisplay(nil, 10))
	assert.Equal(t, "N/A", RatingDisplay(ptr(math.NaN()), 10))
	assert.Equal(t, "5.7/10", RatingDisplay(ptr(5.7), 10))
	assert.Equal(t, "78.0/100", RatingDisplay(ptr(78.0), 100))
}

func TestRatingNormalized(t *testing.T) {
	assert.Equal(t, 0.0, RatingNormalized(nil, 10))
	assert.Equal(t, 8.0, RatingNormalized(ptr(80.0), 100))
	assert.Equal(t, 5.7, RatingNormalized(ptr(5.7), 10))
}

func TestRuntimeDisplay(t *testing.T) {
	assert.Equal(t, "1h 31m", RuntimeDisplay(ptr(91)))
	assert.Equal(t, "45m", RuntimeDisplay(ptr(45)))
	assert.Equal(t, "2h 0m", RuntimeDisplay(ptr(120)))
	assert.Equal(t, "N/A", RuntimeDisplay(nil))
	assert.Equal(t, "N/A", RuntimeDisplay(ptr(0)))
}

func TestCurrencyDisplay(t *testing.T) {
	assert.Equal(t, "$1.4M", CurrencyDisplay(ptr(int64(1_400_000))))
	assert.Equal(t, "$50K", CurrencyDisplay(ptr(int64(50_000))))
	assert.Equal(t, "$500", CurrencyDisplay(ptr(int64(500))))
	assert.Equal(t, "N/A", CurrencyDisplay(ptr(int64(0))))
	assert.Equal(t, "N/A", CurrencyDisplay(nil))
}

func TestArrayDisplay(t *testing.T) {
	assert.Equal(t, "N/A", ArrayDisplay(nil, ""))
	assert.Equal(t, "N/A", ArrayDisplay([]string{}, ""))
	assert.Equal(t, "HBO, HBO Max", ArrayDisplay([]string{"HBO", "HBO Max"}, ""))
	assert.Equal(t, "PC / PS5", ArrayDisplay([]string{"PC", "", "PS5"}, " / "))
	assert.Equal(t, "Tom &amp; Jerry", ArrayDisplay([]string{"Tom & Jerry"}, ""))
}

func TestDateDisplay(t *testing.T) {
	assert.Equal(t, ComingSoon, DateDisplay(nil, DateShort))
	assert.Equal(t, ComingSoon, DateDisplay(ptr("not a date"), DateShort))

	d := ptr("2025-01-15T00:00:00.000Z")
	assert.Equal(t, "Jan 15, 2025", DateDisplay(d, DateShort))
	assert.Equal(t, "January 15, 2025", DateDisplay(d, DateLong))
	assert.Equal(t, "Wednesday, January 15, 2025", DateDisplay(d, DateFull))
	assert.Equal(t, "Jan 15, 2025", DateDisplay(ptr("2025-01-15"), "unknown"))
}

func TestCardDateStatus(t *testing.T) {
	now := time.Date(2025, 1, 15, 18, 30, 0, 0, time.UTC)

	none := CardDateStatus(nil, now)
	assert.Equal(t, ComingSoon, none.DisplayDate)
	assert.False(t, none.IsToday)
	assert.False(t, none.IsAlreadyOut)

	today := CardDateStatus(ptr("2025-01-15T00:00:00.000Z"), now)
	assert.True(t, today.IsToday)
	assert.False(t, today.IsAlreadyOut)
	assert.Equal(t, "Jan 15, 2025", today.DisplayDate)

	past := CardDateStatus(ptr("2025-01-10"), now)
	assert.False(t, past.IsToday)
	assert.True(t, past.IsAlreadyOut)

	future := CardDateStatus(ptr("2025-02-01"), now)
	assert.False(t, future.IsToday)
	assert.False(t, future.IsAlreadyOut)
}

func TestCardDateStatusWestOfUTC(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, ny)

	got := CardDateStatus(ptr("2025-01-15T00:00:00.000Z"), now)
	assert.Equal(t, DateStatus{DisplayDate: "Jan 15, 2025", IsToday: true}, got)
	assert.Equal(t, "Out Today!", ReleaseBadgeText("movie", got.IsToday))

	// Late evening in New York is already the next day in UTC.
	late := time.Date(2025, 1, 15, 23, 30, 0, 0, ny)
	assert.True(t, CardDateStatus(ptr("2025-01-15"), late).IsToday)
	assert.False(t, CardDateStatus(ptr("2025-01-16"), late).IsAlreadyOut)
}

func TestDaysUntil(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	release := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, DaysUntil(release, time.Date(2025, 3, 12, 0, 30, 0, 0, ny)))
	assert.Equal(t, 0, DaysUntil(release, time.Date(2025, 3, 12, 8, 0, 0, 0, tokyo)))
	// 2025-03-09 is a 23 hour day in New York.
	assert.Equal(t, 4, DaysUntil(release, time.Date(2025, 3, 8, 22, 0, 0, 0, ny)))
	assert.Equal(t, -1, DaysUntil(release, time.Date(2025, 3, 13, 1, 0, 0, 0, ny)))
}

func TestReleaseBadgeText(t *testing.T) {
	assert.Equal(t, "", ReleaseBadgeText("movie", false))
	assert.Equal(t, "Out Today!", ReleaseBadgeText("movie", true))
	assert.Equal(t, "New Episode Today!", ReleaseBadgeText("tv-show", true))
	assert.Equal(t, "", ReleaseBadgeText("game", true))
}

func TestParseDate(t *testing.T) {
	got, ok := ParseDate("2025-01-15")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), got)

	got, ok = ParseDate("2025-01-15T10:20:30+02:00")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2025, 1, 15, 8, 20, 30, 0, time.UTC), got.UTC())

	_, ok = ParseDate("")
	assert.False(t, ok)
	_, ok = ParseDate("tomorrow")
	assert.False(t, ok)
}
