package services

import (
	"testing"

	"kohisync_backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDiscount(t *testing.T) {
	explicit := dec("15.50")
	tooPrecise := dec("1.005")
	negative := dec("-1")

	tests := []struct {
		name    string
		reason  models.DiscountReason
		amount  *decimal.Decimal
		want    string
		wantErr error
	}{
		{name: "senior citizen 20%", reason: models.DiscountSeniorCitizen, want: "26"},
		{name: "pwd 20%", reason: models.DiscountPWD, want: "26"},
		{name: "student 10%", reason: models.DiscountStudent, want: "13"},
		{name: "explicit amount wins over table", reason: models.DiscountStudent, amount: &explicit, want: "15.50"},
		{name: "manual with amount", reason: models.DiscountManual, amount: &explicit, want: "15.50"},
		{name: "manual without amount", reason: models.DiscountManual, wantErr: ErrInvalidDiscountReason},
		{name: "unknown reason", reason: "loyalty", wantErr: ErrInvalidDiscountReason},
		{name: "negative amount", reason: models.DiscountManual, amount: &negative, wantErr: ErrValidation},
		{name: "three decimals", reason: models.DiscountManual, amount: &tooPrecise, wantErr: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeDiscount(dec("130"), tt.reason, tt.amount)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assertDec(t, tt.want, got)
		})
	}
}

func TestComputeDiscount_RoundsToCents(t *testing.T) {
	got, err := ComputeDiscount(dec("33.33"), models.DiscountStudent, nil)
	require.NoError(t, err)
	assertDec(t, "3.33", got)
}
