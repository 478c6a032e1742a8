package model

import (
	"github.com/shopspring/decimal"
)

// PaymentConfirmedEvent 支付确认事件 (从 Kafka 消费)
//
// 支付服务在支付网关确认后发送, 本服务据此记账。
type PaymentConfirmedEvent struct {
	TransactionID string          `json:"transaction_id"`
	ProductID     string          `json:"product_id"`
	BuyerID       string          `json:"buyer_id"`
	SellerID      string          `json:"seller_id"`
	Amount        decimal.Decimal `json:"amount"`
	Quantity      decimal.Decimal `json:"quantity"`
	ProductName   string          `json:"product_name"`
	ConfirmedAt   int64           `json:"confirmed_at"`
}

// Input 转换为记账输入
func (e *PaymentConfirmedEvent) Input() *NewTransactionInput {
	return &NewTransactionInput{
		TransactionID: e.TransactionID,
		ProductID:     e.ProductID,
		BuyerID:       e.BuyerID,
		SellerID:      e.SellerID,
		Amount:        e.Amount,
		Quantity:      e.Quantity,
		ProductName:   e.ProductName,
	}
}

// BlockMinedEvent 区块挖出事件 (发送到 Kafka)
type BlockMinedEvent struct {
	BlockID          string   `json:"block_id"`
	BlockNumber      int64    `json:"block_number"`
	BlockHash        string   `json:"block_hash"`
	PreviousHash     string   `json:"previous_hash"`
	TransactionIDs   []string `json:"transaction_ids"`
	TransactionCount int      `json:"transaction_count"`
	Nonce            int64    `json:"nonce"`
	MetDifficulty    bool     `json:"met_difficulty"`
	Miner            string   `json:"miner"`
	MinedAt          int64    `json:"mined_at"`
}
