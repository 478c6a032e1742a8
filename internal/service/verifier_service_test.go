package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrismart-ci/ledger-chain/internal/model"
	"github.com/agrismart-ci/ledger-chain/internal/repository"
)

func TestVerifierService_Verify_Pending(t *testing.T) {
	env := setupEnv(t, nil)
	ctx := context.Background()

	_, err := env.ledger.RecordTransaction(ctx, newTestInput("TXN-001"))
	require.NoError(t, err)

	report, err := env.verifier.Verify(ctx, "TXN-001")
	require.NoError(t, err)
	assert.True(t, report.Verified)
	assert.True(t, report.HashValid)
	assert.True(t, report.BlockValid)
	assert.Equal(t, "PENDING", report.BlockchainStatus)
	assert.Equal(t, 0, report.Confirmations)
	assert.Nil(t, report.BlockInfo)
}

func TestVerifierService_Verify_Mined(t *testing.T) {
	env := setupEnv(t, nil)
	ctx := context.Background()

	_, err := env.ledger.RecordTransaction(ctx, newTestInput("TXN-001"))
	require.NoError(t, err)

	block, err := env.miner.Mine(ctx)
	require.NoError(t, err)
	require.NotNil(t, block)

	report, err := env.verifier.Verify(ctx, "TXN-001")
	require.NoError(t, err)
	assert.True(t, report.Verified)
	assert.True(t, report.HashValid)
	assert.True(t, report.BlockValid)
	assert.Equal(t, "MINED", report.BlockchainStatus)
	assert.Equal(t, 1, report.Confirmations)
	require.NotNil(t, report.BlockInfo)
	assert.Equal(t, block.BlockNumber, report.BlockInfo.BlockNumber)
	assert.Equal(t, block.BlockHash, report.BlockInfo.BlockHash)
}

// 校验是幂等只读操作
func TestVerifierService_Verify_Idempotent(t *testing.T) {
	env := setupEnv(t, nil)
	ctx := context.Background()

	_, err := env.ledger.RecordTransaction(ctx, newTestInput("TXN-001"))
	require.NoError(t, err)

	first, err := env.verifier.Verify(ctx, "TXN-001")
	require.NoError(t, err)
	second, err := env.verifier.Verify(ctx, "TXN-001")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// 业务字段被篡改后哈希校验失败
func TestVerifierService_Verify_Tampered(t *testing.T) {
	env := setupEnv(t, nil)
	ctx := context.Background()

	_, err := env.ledger.RecordTransaction(ctx, newTestInput("TXN-001"))
	require.NoError(t, err)

	err = env.db.Model(&model.TransactionRecord{}).
		Where("transaction_id = ?", "TXN-001").
		Update("amount", decimal.NewFromInt(99999)).Error
	require.NoError(t, err)

	report, err := env.verifier.Verify(ctx, "TXN-001")
	require.NoError(t, err)
	assert.False(t, report.Verified)
	assert.False(t, report.HashValid)
	assert.True(t, report.BlockValid)
}

// 已打包记录指向的区块丢失时 block_valid 为 false
func TestVerifierService_Verify_MissingBlock(t *testing.T) {
	env := setupEnv(t, nil)
	ctx := context.Background()

	_, err := env.ledger.RecordTransaction(ctx, newTestInput("TXN-001"))
	require.NoError(t, err)
	_, err = env.miner.Mine(ctx)
	require.NoError(t, err)

	require.NoError(t, env.db.Where("1 = 1").Delete(&model.Block{}).Error)

	report, err := env.verifier.Verify(ctx, "TXN-001")
	require.NoError(t, err)
	assert.False(t, report.Verified)
	assert.True(t, report.HashValid)
	assert.False(t, report.BlockValid)
}

func TestVerifierService_Verify_NotFound(t *testing.T) {
	env := setupEnv(t, nil)

	_, err := env.verifier.Verify(context.Background(), "TXN-404")
	assert.ErrorIs(t, err, repository.ErrTransactionRecordNotFound)
}

func seedPayment(t *testing.T, env *testEnv, txnID string) {
	require.NoError(t, env.db.Create(&model.PaymentTransaction{
		TransactionID: txnID,
		TotalAmount:   decimal.NewFromFloat(150.75),
		ProductName:   "Organic Tomatoes",
		BuyerID:       "buyer-1",
		SellerID:      "seller-1",
		Status:        "paid",
		CreatedAt:     1700000000000,
	}).Error)
}

func TestVerifierService_Trace_NotOnLedger(t *testing.T) {
	env := setupEnv(t, nil)
	ctx := context.Background()

	seedPayment(t, env, "TXN-001")

	trace, err := env.verifier.Trace(ctx, "TXN-001")
	require.NoError(t, err)
	assert.Equal(t, "TXN-001", trace.TransactionID)
	assert.Equal(t, "Organic Tomatoes", trace.Product)
	assert.Equal(t, "paid", trace.Status)
	assert.Nil(t, trace.Blockchain)
}

func TestVerifierService_Trace_Mined(t *testing.T) {
	env := setupEnv(t, nil)
	ctx := context.Background()

	seedPayment(t, env, "TXN-001")
	_, err := env.ledger.RecordTransaction(ctx, newTestInput("TXN-001"))
	require.NoError(t, err)
	block, err := env.miner.Mine(ctx)
	require.NoError(t, err)
	require.NotNil(t, block)

	trace, err := env.verifier.Trace(ctx, "TXN-001")
	require.NoError(t, err)
	require.NotNil(t, trace.Blockchain)
	assert.Equal(t, "MINED", trace.Blockchain.Status)
	assert.Equal(t, 1, trace.Blockchain.Confirmations)
	assert.Equal(t, block.BlockHash, trace.Blockchain.BlockHash)
	require.NotNil(t, trace.Blockchain.BlockInfo)
	assert.Equal(t, block.BlockID, trace.Blockchain.BlockInfo.BlockID)
	assert.Equal(t, block.PreviousHash, trace.Blockchain.BlockInfo.PreviousHash)
}

func TestVerifierService_Trace_PaymentNotFound(t *testing.T) {
	env := setupEnv(t, nil)

	_, err := env.verifier.Trace(context.Background(), "TXN-404")
	assert.ErrorIs(t, err, repository.ErrPaymentTransactionNotFound)
}

func TestVerifierService_Stats_Empty(t *testing.T) {
	env := setupEnv(t, nil)

	stats, err := env.verifier.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalBlocks)
	assert.Equal(t, int64(0), stats.TotalTransactions)
	assert.Nil(t, stats.LastBlock)
}

func TestVerifierService_Stats(t *testing.T) {
	env := setupEnv(t, nil)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := env.ledger.RecordTransaction(ctx, newTestInput(fmt.Sprintf("TXN-%03d", i)))
		require.NoError(t, err)
	}

	// 第 5 条触发过一轮自动挖矿, 剩 2 条待打包
	stats, err := env.verifier.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalBlocks)
	assert.Equal(t, int64(7), stats.TotalTransactions)
	assert.Equal(t, int64(2), stats.PendingTransactions)
	assert.Equal(t, int64(5), stats.MinedTransactions)

	require.NotNil(t, stats.LastBlock)
	assert.Equal(t, int64(0), stats.LastBlock.BlockNumber)
	// 哈希截断展示
	assert.Len(t, stats.LastBlock.BlockHash, 19)
	assert.Contains(t, stats.LastBlock.BlockHash, "...")
}
