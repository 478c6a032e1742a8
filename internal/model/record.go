package model

import (
	"github.com/shopspring/decimal"
)

// TransactionStatus 账本记录状态
type TransactionStatus int8

const (
	TransactionStatusPending TransactionStatus = 0 // 待打包
	TransactionStatusMined   TransactionStatus = 1 // 已打包进区块
	// TransactionStatusConfirmed 预留给确认深度策略;
	// 当前设计在挖矿时固定 confirmations=1, 不再增长, 没有任何路径迁移到此状态。
	TransactionStatusConfirmed TransactionStatus = 2
)

func (s TransactionStatus) String() string {
	switch s {
	case TransactionStatusPending:
		return "PENDING"
	case TransactionStatusMined:
		return "MINED"
	case TransactionStatusConfirmed:
		return "CONFIRMED"
	default:
		return "UNKNOWN"
	}
}

// TransactionRecord 账本记录, 每笔确认的交易一条
//
// 业务字段在创建后不可变; 只有矿工可以修改状态和区块关联字段。
// 记录永不删除 (审计要求)。
type TransactionRecord struct {
	ID            int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionID string            `gorm:"column:transaction_id;type:varchar(64);uniqueIndex;not null" json:"transaction_id"`
	ProductID     string            `gorm:"column:product_id;type:varchar(64);not null" json:"product_id"`
	BuyerID       string            `gorm:"column:buyer_id;type:varchar(64);not null" json:"buyer_id"`
	SellerID      string            `gorm:"column:seller_id;type:varchar(64);not null" json:"seller_id"`
	Amount        decimal.Decimal   `gorm:"column:amount;type:decimal(36,18);not null" json:"amount"`
	Quantity      decimal.Decimal   `gorm:"column:quantity;type:decimal(36,18);not null" json:"quantity"`
	ProductName   string            `gorm:"column:product_name;type:varchar(255);not null" json:"product_name"`
	Status        TransactionStatus `gorm:"column:status;type:smallint;index;not null;default:0" json:"status"`
	// TransactionHash 创建时由规范化哈希计算, 此后不可变
	TransactionHash string `gorm:"column:transaction_hash;type:varchar(64);not null" json:"transaction_hash"`
	// 以下区块关联字段仅在 Status=MINED 时有意义
	BlockID       string `gorm:"column:block_id;type:varchar(64)" json:"block_id"`
	BlockHash     string `gorm:"column:block_hash;type:varchar(64)" json:"block_hash"`
	PreviousHash  string `gorm:"column:previous_hash;type:varchar(64)" json:"previous_hash"`
	BlockNumber   int64  `gorm:"column:block_number;type:bigint" json:"block_number"`
	MinedAt       int64  `gorm:"column:mined_at;type:bigint" json:"mined_at"`
	Confirmations int    `gorm:"column:confirmations;type:int;not null;default:0" json:"confirmations"`
	CreatedAt     int64  `gorm:"column:created_at;type:bigint;not null" json:"created_at"`
	UpdatedAt     int64  `gorm:"column:updated_at;type:bigint;not null" json:"updated_at"`
}

// TableName 返回表名
func (TransactionRecord) TableName() string {
	return "transaction_records"
}

// HashPayload 返回参与 transaction_hash 计算的字段集
//
// 只含业务字段和创建时间; 状态和区块关联字段随挖矿变化, 不参与哈希,
// 否则记录被打包后哈希校验必然失效。
func (r *TransactionRecord) HashPayload() map[string]any {
	return map[string]any{
		"transaction_id": r.TransactionID,
		"product_id":     r.ProductID,
		"buyer_id":       r.BuyerID,
		"seller_id":      r.SellerID,
		"amount":         r.Amount.String(),
		"quantity":       r.Quantity.String(),
		"product_name":   r.ProductName,
		"created_at":     r.CreatedAt,
	}
}

// NewTransactionInput 记账输入, 由支付确认流程提供
type NewTransactionInput struct {
	TransactionID string          `json:"transaction_id" binding:"required"`
	ProductID     string          `json:"product_id" binding:"required"`
	BuyerID       string          `json:"buyer_id" binding:"required"`
	SellerID      string          `json:"seller_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	ProductName   string          `json:"product_name" binding:"required"`
}
