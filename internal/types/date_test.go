package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddClampedDate(t *testing.T) {
	tests := []struct {
		name   string
		in     time.Time
		years  int
		months int
		want   time.Time
	}{
		{
			name:   "jan_31_plus_month_non_leap",
			in:     time.Date(2023, 1, 31, 8, 30, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2023, 2, 28, 8, 30, 0, 0, time.UTC),
		},
		{
			name:   "jan_31_plus_month_leap",
			in:     time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "december_rolls_year",
			in:     time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "leap_day_plus_year",
			in:    time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
			years: 1,
			want:  time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "negative_months",
			in:     time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
			months: -1,
			want:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddClampedDate(tt.in, tt.years, tt.months))
		})
	}
}

func TestDaysUntilAndSince(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 15, DaysUntil(now, now.AddDate(0, 0, 15)))
	assert.Equal(t, 15, DaysUntil(now, now.AddDate(0, 0, 14).Add(time.Minute)))
	assert.Equal(t, 0, DaysUntil(now, now.Add(-time.Hour)))

	assert.Equal(t, 10, DaysSince(now.AddDate(0, 0, -10), now))
	assert.Equal(t, 9, DaysSince(now.AddDate(0, 0, -10).Add(time.Hour), now))
	assert.Equal(t, 0, DaysSince(now.Add(time.Hour), now))
}

func TestBillingCycle_AdvancePeriod(t *testing.T) {
	start := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), BillingCycleMonthly.AdvancePeriod(start))
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), BillingCycleYearly.AdvancePeriod(start))
	assert.Equal(t, 30, BillingCycleMonthly.ProrationDays())
	assert.Equal(t, 365, BillingCycleYearly.ProrationDays())
}
