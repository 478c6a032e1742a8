package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/agrismart-ci/ledger-chain/internal/model"
)

var (
	ErrTransactionRecordNotFound = errors.New("transaction record not found")
	ErrDuplicateTransaction      = errors.New("duplicate transaction")
	// ErrInvalidTransition 非 PENDING 记录被尝试标记为 MINED
	ErrInvalidTransition = errors.New("invalid status transition")
)

// LedgerRepository 账本记录仓储接口
type LedgerRepository interface {
	Create(ctx context.Context, record *model.TransactionRecord) error
	GetByTransactionID(ctx context.Context, transactionID string) (*model.TransactionRecord, error)
	Exists(ctx context.Context, transactionID string) (bool, error)

	// 查询
	ListPending(ctx context.Context, limit int) ([]*model.TransactionRecord, error)
	CountPending(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status model.TransactionStatus) (int64, error)
	Count(ctx context.Context) (int64, error)

	// MarkMined 将一组 PENDING 记录标记为 MINED 并写入区块关联字段。
	// 任何一条记录不处于 PENDING 时返回 ErrInvalidTransition。
	MarkMined(ctx context.Context, transactionIDs []string, block *model.Block, minedAt int64) error
}

// ledgerRepository 账本记录仓储实现
type ledgerRepository struct {
	*Repository
}

// NewLedgerRepository 创建账本记录仓储
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{
		Repository: NewRepository(db),
	}
}

func (r *ledgerRepository) Create(ctx context.Context, record *model.TransactionRecord) error {
	now := time.Now().UnixMilli()
	if record.CreatedAt == 0 {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	err := r.DB(ctx).Create(record).Error
	if isUniqueViolation(err) {
		return ErrDuplicateTransaction
	}
	return err
}

func (r *ledgerRepository) GetByTransactionID(ctx context.Context, transactionID string) (*model.TransactionRecord, error) {
	var record model.TransactionRecord
	err := r.DB(ctx).Where("transaction_id = ?", transactionID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *ledgerRepository) Exists(ctx context.Context, transactionID string) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&model.TransactionRecord{}).
		Where("transaction_id = ?", transactionID).
		Count(&count).Error
	return count > 0, err
}

func (r *ledgerRepository) ListPending(ctx context.Context, limit int) ([]*model.TransactionRecord, error) {
	var records []*model.TransactionRecord
	err := r.DB(ctx).
		Where("status = ?", model.TransactionStatusPending).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

func (r *ledgerRepository) CountPending(ctx context.Context) (int64, error) {
	return r.CountByStatus(ctx, model.TransactionStatusPending)
}

func (r *ledgerRepository) CountByStatus(ctx context.Context, status model.TransactionStatus) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&model.TransactionRecord{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func (r *ledgerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&model.TransactionRecord{}).Count(&count).Error
	return count, err
}

func (r *ledgerRepository) MarkMined(ctx context.Context, transactionIDs []string, block *model.Block, minedAt int64) error {
	if len(transactionIDs) == 0 {
		return nil
	}
	result := r.DB(ctx).Model(&model.TransactionRecord{}).
		Where("transaction_id IN ?", transactionIDs).
		Where("status = ?", model.TransactionStatusPending).
		Updates(map[string]interface{}{
			"status":        model.TransactionStatusMined,
			"block_id":      block.BlockID,
			"block_hash":    block.BlockHash,
			"previous_hash": block.PreviousHash,
			"block_number":  block.BlockNumber,
			"mined_at":      minedAt,
			"confirmations": 1,
			"updated_at":    time.Now().UnixMilli(),
		})
	if result.Error != nil {
		return result.Error
	}
	// 行数不符说明存在非 PENDING 记录, 整个事务回滚
	if result.RowsAffected != int64(len(transactionIDs)) {
		return ErrInvalidTransition
	}
	return nil
}
