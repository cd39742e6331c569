package validator

import (
	"testing"

	ierr "github.com/flexisub/flexisub/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type priceRequest struct {
	Name     string          `validate:"required"`
	Amount   decimal.Decimal `validate:"amount"`
	Currency string          `validate:"required,currency"`
}

func TestValidateRequest(t *testing.T) {
	NewValidator()

	tests := []struct {
		name    string
		req     priceRequest
		wantErr bool
	}{
		{name: "valid", req: priceRequest{Name: "basic", Amount: decimal.NewFromInt(50), Currency: "USD"}},
		{name: "zero amount", req: priceRequest{Name: "basic", Amount: decimal.Zero, Currency: "EUR"}},
		{name: "negative amount", req: priceRequest{Name: "basic", Amount: decimal.NewFromInt(-1), Currency: "USD"}, wantErr: true},
		{name: "lower case currency", req: priceRequest{Name: "basic", Amount: decimal.NewFromInt(1), Currency: "usd"}, wantErr: true},
		{name: "long currency", req: priceRequest{Name: "basic", Amount: decimal.NewFromInt(1), Currency: "DOLLAR"}, wantErr: true},
		{name: "missing name", req: priceRequest{Amount: decimal.NewFromInt(1), Currency: "USD"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(&tt.req)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, ierr.IsValidation(err))
		})
	}
}
