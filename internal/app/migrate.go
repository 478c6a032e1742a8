package app

import (
	"gorm.io/gorm"

	"github.com/agrismart-ci/ledger-chain/internal/model"
)

// AutoMigrate 同步表结构
//
// transactions 表由支付服务拥有, 不在此迁移。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.TransactionRecord{},
		&model.Block{},
	)
}
