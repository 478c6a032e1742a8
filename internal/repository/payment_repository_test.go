package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrismart-ci/ledger-chain/internal/model"
)

func TestPaymentRepository_GetByTransactionID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&model.PaymentTransaction{
		TransactionID: "TXN-001",
		TotalAmount:   decimal.NewFromFloat(250.75),
		ProductName:   "Fresh Eggs",
		BuyerID:       "buyer-1",
		SellerID:      "seller-1",
		Status:        "paid",
		CreatedAt:     1700000000000,
	}).Error)

	got, err := repo.GetByTransactionID(ctx, "TXN-001")
	require.NoError(t, err)
	assert.Equal(t, "Fresh Eggs", got.ProductName)
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromFloat(250.75)))

	_, err = repo.GetByTransactionID(ctx, "TXN-404")
	assert.ErrorIs(t, err, ErrPaymentTransactionNotFound)
}
