package plan

import (
	"testing"

	ierr "github.com/flexisub/flexisub/internal/errors"
	"github.com/flexisub/flexisub/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan_NormalizeYearlyPrice(t *testing.T) {
	p := &Plan{Pricing: Pricing{Monthly: decimal.NewFromInt(50)}}
	p.NormalizeYearlyPrice()
	assert.True(t, decimal.NewFromInt(540).Equal(p.Pricing.Yearly), "got %s", p.Pricing.Yearly)

	explicit := &Plan{Pricing: Pricing{Monthly: decimal.NewFromInt(50), Yearly: decimal.NewFromInt(500)}}
	explicit.NormalizeYearlyPrice()
	assert.True(t, decimal.NewFromInt(500).Equal(explicit.Pricing.Yearly))
}

func TestPlan_PriceFor(t *testing.T) {
	p := &Plan{Pricing: Pricing{Monthly: decimal.NewFromInt(30), Yearly: decimal.NewFromInt(324)}}
	assert.True(t, decimal.NewFromInt(30).Equal(p.PriceFor(types.BillingCycleMonthly)))
	assert.True(t, decimal.NewFromInt(324).Equal(p.PriceFor(types.BillingCycleYearly)))
}

func TestPlan_UsagePercentage(t *testing.T) {
	capped := &Plan{Features: Features{DataLimit: 200}}
	assert.True(t, decimal.NewFromInt(5).Equal(capped.UsagePercentage(decimal.NewFromInt(10))))

	unlimited := &Plan{Features: Features{DataLimit: 200, Unlimited: true}}
	assert.True(t, unlimited.UsagePercentage(decimal.NewFromInt(1000)).IsZero())

	noLimit := &Plan{}
	assert.True(t, noLimit.UsagePercentage(decimal.NewFromInt(10)).IsZero())
}

func TestPlan_Validate(t *testing.T) {
	valid := func() *Plan {
		return &Plan{
			Name:     "Fiber 100",
			Category: types.PlanCategoryResidential,
			Status:   types.PlanStatusActive,
			Pricing:  Pricing{Monthly: decimal.NewFromInt(30), Currency: "USD"},
			Features: Features{DownloadSpeed: 100, UploadSpeed: 20, DataLimit: 500},
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(p *Plan)
	}{
		{"missing_name", func(p *Plan) { p.Name = " " }},
		{"bad_category", func(p *Plan) { p.Category = "industrial" }},
		{"bad_status", func(p *Plan) { p.Status = "retired" }},
		{"zero_monthly", func(p *Plan) { p.Pricing.Monthly = decimal.Zero }},
		{"negative_setup_fee", func(p *Plan) { p.Pricing.SetupFee = decimal.NewFromInt(-1) }},
		{"missing_currency", func(p *Plan) { p.Pricing.Currency = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(p)
			err := p.Validate()
			require.Error(t, err)
			assert.True(t, ierr.IsValidation(err))
		})
	}
}
