package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransactionStatus_String(t *testing.T) {
	tests := []struct {
		status   TransactionStatus
		expected string
	}{
		{TransactionStatusPending, "PENDING"},
		{TransactionStatusMined, "MINED"},
		{TransactionStatusConfirmed, "CONFIRMED"},
		{TransactionStatus(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.String())
		})
	}
}

func TestTransactionRecord_TableName(t *testing.T) {
	record := TransactionRecord{}
	assert.Equal(t, "transaction_records", record.TableName())
}

func TestTransactionRecord_HashPayload(t *testing.T) {
	record := &TransactionRecord{
		TransactionID: "TXN-001",
		ProductID:     "PROD-1",
		BuyerID:       "buyer-1",
		SellerID:      "seller-1",
		Amount:        decimal.NewFromFloat(128.50),
		Quantity:      decimal.NewFromInt(3),
		ProductName:   "Organic Apples",
		CreatedAt:     1700000000000,
	}

	payload := record.HashPayload()
	assert.Equal(t, "TXN-001", payload["transaction_id"])
	assert.Equal(t, "128.5", payload["amount"])
	assert.Equal(t, "3", payload["quantity"])
	assert.Equal(t, int64(1700000000000), payload["created_at"])
}

// 状态与区块关联字段不参与哈希, 记录被打包后哈希仍然可复算
func TestTransactionRecord_HashPayload_ExcludesMutableFields(t *testing.T) {
	record := &TransactionRecord{
		TransactionID: "TXN-002",
		ProductID:     "PROD-2",
		BuyerID:       "buyer-2",
		SellerID:      "seller-2",
		Amount:        decimal.NewFromInt(10),
		Quantity:      decimal.NewFromInt(1),
		ProductName:   "Honey",
		CreatedAt:     1700000000000,
	}
	before := record.HashPayload()

	record.Status = TransactionStatusMined
	record.BlockID = "BLOCK-20231114221320-ABCDEF"
	record.BlockHash = "00abc"
	record.PreviousHash = "00def"
	record.BlockNumber = 7
	record.MinedAt = 1700000001000
	record.Confirmations = 1
	after := record.HashPayload()

	assert.Equal(t, before, after)
	assert.NotContains(t, after, "status")
	assert.NotContains(t, after, "block_id")
	assert.NotContains(t, after, "block_hash")
	assert.NotContains(t, after, "confirmations")
}
