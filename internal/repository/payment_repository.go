package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/agrismart-ci/ledger-chain/internal/model"
)

var ErrPaymentTransactionNotFound = errors.New("payment transaction not found")

// PaymentRepository 支付交易仓储接口 (只读, 表由支付服务拥有)
type PaymentRepository interface {
	GetByTransactionID(ctx context.Context, transactionID string) (*model.PaymentTransaction, error)
}

type paymentRepository struct {
	*Repository
}

// NewPaymentRepository 创建支付交易仓储
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{
		Repository: NewRepository(db),
	}
}

func (r *paymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*model.PaymentTransaction, error) {
	var tx model.PaymentTransaction
	err := r.DB(ctx).Where("transaction_id = ?", transactionID).First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}
