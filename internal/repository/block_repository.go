package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/agrismart-ci/ledger-chain/internal/model"
)

var (
	ErrBlockNotFound = errors.New("block not found")
	// ErrChainLinkageViolation 新区块的 previous_hash 或 block_number 与链尾不一致
	ErrChainLinkageViolation = errors.New("chain linkage violation")
)

// BlockRepository 区块仓储接口
type BlockRepository interface {
	// Append 追加新区块, 校验与链尾的哈希衔接和编号连续性。
	// 必须在事务内与 MarkMined 一起调用。
	Append(ctx context.Context, block *model.Block) error
	Last(ctx context.Context) (*model.Block, error)
	GetByBlockID(ctx context.Context, blockID string) (*model.Block, error)
	Count(ctx context.Context) (int64, error)
}

// blockRepository 区块仓储实现
type blockRepository struct {
	*Repository
}

// NewBlockRepository 创建区块仓储
func NewBlockRepository(db *gorm.DB) BlockRepository {
	return &blockRepository{
		Repository: NewRepository(db),
	}
}

func (r *blockRepository) Append(ctx context.Context, block *model.Block) error {
	last, err := r.Last(ctx)
	if err != nil && !errors.Is(err, ErrBlockNotFound) {
		return err
	}

	if last == nil {
		// 创世规则: 首个区块编号为 0, previous_hash 为 64 个 '0'
		if block.BlockNumber != 0 || block.PreviousHash != model.GenesisPreviousHash {
			return ErrChainLinkageViolation
		}
	} else {
		if block.BlockNumber != last.BlockNumber+1 || block.PreviousHash != last.BlockHash {
			return ErrChainLinkageViolation
		}
	}

	if block.CreatedAt == 0 {
		block.CreatedAt = time.Now().UnixMilli()
	}
	return r.DB(ctx).Create(block).Error
}

func (r *blockRepository) Last(ctx context.Context) (*model.Block, error) {
	var block model.Block
	err := r.DB(ctx).Order("block_number DESC").First(&block).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBlockNotFound
	}
	if err != nil {
		return nil, err
	}
	return &block, nil
}

func (r *blockRepository) GetByBlockID(ctx context.Context, blockID string) (*model.Block, error) {
	var block model.Block
	err := r.DB(ctx).Where("block_id = ?", blockID).First(&block).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBlockNotFound
	}
	if err != nil {
		return nil, err
	}
	return &block, nil
}

func (r *blockRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&model.Block{}).Count(&count).Error
	return count, err
}
