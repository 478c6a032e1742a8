package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrismart-ci/ledger-chain/internal/model"
)

func newTestBlock(number int64, prevHash, hash string) *model.Block {
	block := &model.Block{
		BlockID:      model.GenerateBlockID(time.Now()),
		BlockNumber:  number,
		Timestamp:    1700000000000 + number,
		PreviousHash: prevHash,
		Nonce:        number * 17,
		BlockHash:    hash,
		Miner:        "AgriSmart-Node-1",
	}
	_ = block.SetTransactionIDList([]string{"TXN-1"})
	return block
}

func TestBlockRepository_Append_Genesis(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBlockRepository(db)
	ctx := context.Background()

	err := repo.Append(ctx, newTestBlock(0, model.GenesisPreviousHash, "00aaa"))
	require.NoError(t, err)

	last, err := repo.Last(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), last.BlockNumber)
	assert.Equal(t, "00aaa", last.BlockHash)
}

// 首个区块不符合创世规则时拒绝
func TestBlockRepository_Append_GenesisViolation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBlockRepository(db)
	ctx := context.Background()

	err := repo.Append(ctx, newTestBlock(0, "00bogus", "00aaa"))
	assert.ErrorIs(t, err, ErrChainLinkageViolation)

	err = repo.Append(ctx, newTestBlock(1, model.GenesisPreviousHash, "00aaa"))
	assert.ErrorIs(t, err, ErrChainLinkageViolation)
}

func TestBlockRepository_Append_Linkage(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBlockRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, newTestBlock(0, model.GenesisPreviousHash, "00aaa")))
	require.NoError(t, repo.Append(ctx, newTestBlock(1, "00aaa", "00bbb")))

	last, err := repo.Last(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), last.BlockNumber)

	// previous_hash 不衔接
	err = repo.Append(ctx, newTestBlock(2, "00aaa", "00ccc"))
	assert.ErrorIs(t, err, ErrChainLinkageViolation)

	// 区块编号跳号
	err = repo.Append(ctx, newTestBlock(3, "00bbb", "00ccc"))
	assert.ErrorIs(t, err, ErrChainLinkageViolation)
}

func TestBlockRepository_Last_Empty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBlockRepository(db)

	_, err := repo.Last(context.Background())
	assert.ErrorIs(t, err, ErrBlockNotFound)
}

func TestBlockRepository_GetByBlockID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBlockRepository(db)
	ctx := context.Background()

	block := newTestBlock(0, model.GenesisPreviousHash, "00aaa")
	require.NoError(t, repo.Append(ctx, block))

	got, err := repo.GetByBlockID(ctx, block.BlockID)
	require.NoError(t, err)
	assert.Equal(t, block.BlockHash, got.BlockHash)

	_, err = repo.GetByBlockID(ctx, "BLOCK-404")
	assert.ErrorIs(t, err, ErrBlockNotFound)
}

func TestBlockRepository_Count(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBlockRepository(db)
	ctx := context.Background()

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, repo.Append(ctx, newTestBlock(0, model.GenesisPreviousHash, "00aaa")))

	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
