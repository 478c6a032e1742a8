package model

import (
	"github.com/shopspring/decimal"
)

// PaymentTransaction 支付流程的原始交易记录 (外部协作方)
//
// 表由支付服务拥有, 本服务只读, 用于 trace 时关联展示。
type PaymentTransaction struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionID string          `gorm:"column:transaction_id;type:varchar(64);uniqueIndex;not null" json:"transaction_id"`
	TotalAmount   decimal.Decimal `gorm:"column:total_amount;type:decimal(36,18);not null" json:"total_amount"`
	ProductName   string          `gorm:"column:product_name;type:varchar(255);not null" json:"product_name"`
	BuyerID       string          `gorm:"column:buyer_id;type:varchar(64);not null" json:"buyer_id"`
	SellerID      string          `gorm:"column:seller_id;type:varchar(64);not null" json:"seller_id"`
	Status        string          `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CreatedAt     int64           `gorm:"column:created_at;type:bigint;not null" json:"created_at"`
}

// TableName 返回表名
func (PaymentTransaction) TableName() string {
	return "transactions"
}
