package proration

import (
	"context"
	"testing"
	"time"

	"github.com/flexisub/flexisub/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculator_Calculate(t *testing.T) {
	now := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		params        ProrationParams
		expected      *ProrationResult
		expectedError bool
	}{
		{
			name: "monthly_upgrade_half_period",
			params: ProrationParams{
				BillingCycle:      types.BillingCycleMonthly,
				CurrentFinalPrice: decimal.NewFromInt(30),
				NewPeriodPrice:    decimal.NewFromInt(60),
				ProrationDate:     now,
				CurrentPeriodEnd:  now.AddDate(0, 0, 15),
				Currency:          "USD",
			},
			expected: &ProrationResult{
				RemainingDays:   15,
				TotalDays:       30,
				ProratedCredit:  decimal.NewFromInt(15),
				ProratedNewCost: decimal.NewFromInt(30),
				AdditionalCost:  decimal.NewFromInt(15),
				Currency:        "USD",
				ProrationDate:   now,
			},
		},
		{
			name: "partial_day_counts_as_whole_day",
			params: ProrationParams{
				BillingCycle:      types.BillingCycleMonthly,
				CurrentFinalPrice: decimal.NewFromInt(30),
				NewPeriodPrice:    decimal.NewFromInt(60),
				ProrationDate:     now,
				CurrentPeriodEnd:  now.AddDate(0, 0, 14).Add(2 * time.Hour),
			},
			expected: &ProrationResult{
				RemainingDays:   15,
				TotalDays:       30,
				ProratedCredit:  decimal.NewFromInt(15),
				ProratedNewCost: decimal.NewFromInt(30),
				AdditionalCost:  decimal.NewFromInt(15),
				ProrationDate:   now,
			},
		},
		{
			name: "remaining_days_capped_at_period_length",
			params: ProrationParams{
				BillingCycle:      types.BillingCycleMonthly,
				CurrentFinalPrice: decimal.NewFromInt(30),
				NewPeriodPrice:    decimal.NewFromInt(45),
				ProrationDate:     now,
				CurrentPeriodEnd:  now.AddDate(0, 0, 31),
			},
			expected: &ProrationResult{
				RemainingDays:   30,
				TotalDays:       30,
				ProratedCredit:  decimal.NewFromInt(30),
				ProratedNewCost: decimal.NewFromInt(45),
				AdditionalCost:  decimal.NewFromInt(15),
				ProrationDate:   now,
			},
		},
		{
			name: "period_already_ended",
			params: ProrationParams{
				BillingCycle:      types.BillingCycleMonthly,
				CurrentFinalPrice: decimal.NewFromInt(30),
				NewPeriodPrice:    decimal.NewFromInt(60),
				ProrationDate:     now,
				CurrentPeriodEnd:  now.AddDate(0, 0, -2),
			},
			expected: &ProrationResult{
				RemainingDays:   0,
				TotalDays:       30,
				ProratedCredit:  decimal.Zero,
				ProratedNewCost: decimal.Zero,
				AdditionalCost:  decimal.Zero,
				ProrationDate:   now,
			},
		},
		{
			name: "yearly_uses_365_days",
			params: ProrationParams{
				BillingCycle:      types.BillingCycleYearly,
				CurrentFinalPrice: decimal.NewFromInt(365),
				NewPeriodPrice:    decimal.NewFromInt(730),
				ProrationDate:     now,
				CurrentPeriodEnd:  now.AddDate(0, 0, 100),
			},
			expected: &ProrationResult{
				RemainingDays:   100,
				TotalDays:       365,
				ProratedCredit:  decimal.NewFromInt(100),
				ProratedNewCost: decimal.NewFromInt(200),
				AdditionalCost:  decimal.NewFromInt(100),
				ProrationDate:   now,
			},
		},
		{
			name: "rounds_to_cents",
			params: ProrationParams{
				BillingCycle:      types.BillingCycleMonthly,
				CurrentFinalPrice: decimal.NewFromInt(10),
				NewPeriodPrice:    decimal.NewFromInt(20),
				ProrationDate:     now,
				CurrentPeriodEnd:  now.AddDate(0, 0, 7),
			},
			expected: &ProrationResult{
				RemainingDays:   7,
				TotalDays:       30,
				ProratedCredit:  decimal.RequireFromString("2.33"),
				ProratedNewCost: decimal.RequireFromString("4.67"),
				AdditionalCost:  decimal.RequireFromString("2.34"),
				ProrationDate:   now,
			},
		},
		{
			name: "invalid_billing_cycle",
			params: ProrationParams{
				BillingCycle:      types.BillingCycle("weekly"),
				CurrentFinalPrice: decimal.NewFromInt(10),
				NewPeriodPrice:    decimal.NewFromInt(20),
				ProrationDate:     now,
				CurrentPeriodEnd:  now.AddDate(0, 0, 7),
			},
			expectedError: true,
		},
		{
			name: "negative_price",
			params: ProrationParams{
				BillingCycle:      types.BillingCycleMonthly,
				CurrentFinalPrice: decimal.NewFromInt(-10),
				NewPeriodPrice:    decimal.NewFromInt(20),
				ProrationDate:     now,
				CurrentPeriodEnd:  now.AddDate(0, 0, 7),
			},
			expectedError: true,
		},
		{
			name: "missing_period_end",
			params: ProrationParams{
				BillingCycle:      types.BillingCycleMonthly,
				CurrentFinalPrice: decimal.NewFromInt(10),
				NewPeriodPrice:    decimal.NewFromInt(20),
				ProrationDate:     now,
			},
			expectedError: true,
		},
	}

	calculator := NewCalculator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := calculator.Calculate(context.Background(), tt.params)
			if tt.expectedError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, result)

			assert.Equal(t, tt.expected.RemainingDays, result.RemainingDays)
			assert.Equal(t, tt.expected.TotalDays, result.TotalDays)
			assert.True(t, tt.expected.ProratedCredit.Equal(result.ProratedCredit),
				"credit: expected %s, got %s", tt.expected.ProratedCredit, result.ProratedCredit)
			assert.True(t, tt.expected.ProratedNewCost.Equal(result.ProratedNewCost),
				"new cost: expected %s, got %s", tt.expected.ProratedNewCost, result.ProratedNewCost)
			assert.True(t, tt.expected.AdditionalCost.Equal(result.AdditionalCost),
				"additional cost: expected %s, got %s", tt.expected.AdditionalCost, result.AdditionalCost)
			assert.Equal(t, tt.expected.Currency, result.Currency)
			assert.Equal(t, tt.expected.ProrationDate, result.ProrationDate)
		})
	}
}
