package model

import (
	"github.com/shopspring/decimal"
)

// BlockInfo 校验报告中的区块摘要
type BlockInfo struct {
	BlockNumber int64  `json:"block_number"`
	BlockHash   string `json:"block_hash"`
	Timestamp   int64  `json:"timestamp"`
}

// VerificationReport 账本记录完整性校验结果
//
// hash_valid/block_valid 为 false 不是错误, 是用于发现篡改的正常结果。
type VerificationReport struct {
	TransactionID    string     `json:"transaction_id"`
	TransactionHash  string     `json:"transaction_hash"`
	Verified         bool       `json:"verified"`
	HashValid        bool       `json:"hash_valid"`
	BlockValid       bool       `json:"block_valid"`
	BlockchainStatus string     `json:"blockchain_status"`
	Confirmations    int        `json:"confirmations"`
	BlockInfo        *BlockInfo `json:"block_info,omitempty"`
	Timestamp        int64      `json:"timestamp"`
}

// TraceBlockInfo 追溯报告中的区块明细
type TraceBlockInfo struct {
	BlockID      string `json:"block_id"`
	Timestamp    int64  `json:"timestamp"`
	PreviousHash string `json:"previous_hash"`
	Nonce        int64  `json:"nonce"`
}

// BlockchainTrace 追溯报告中的账本视图
type BlockchainTrace struct {
	TransactionHash string          `json:"transaction_hash"`
	Status          string          `json:"status"`
	Confirmations   int             `json:"confirmations"`
	BlockNumber     int64           `json:"block_number"`
	BlockHash       string          `json:"block_hash"`
	MinedAt         int64           `json:"mined_at"`
	BlockInfo       *TraceBlockInfo `json:"block_info,omitempty"`
}

// TraceReport 交易的完整追溯视图: 支付记录 + 账本记录 + 区块
type TraceReport struct {
	TransactionID string           `json:"transaction_id"`
	Amount        decimal.Decimal  `json:"amount"`
	Product       string           `json:"product"`
	BuyerID       string           `json:"buyer_id"`
	SellerID      string           `json:"seller_id"`
	Status        string           `json:"status"`
	CreatedAt     int64            `json:"created_at"`
	Blockchain    *BlockchainTrace `json:"blockchain"`
}

// LastBlockSummary 最新区块摘要 (哈希截断展示)
type LastBlockSummary struct {
	BlockNumber int64  `json:"block_number"`
	BlockHash   string `json:"block_hash"`
	Timestamp   int64  `json:"timestamp"`
}

// ChainStats 账本与链的全局统计
type ChainStats struct {
	TotalBlocks         int64             `json:"total_blocks"`
	TotalTransactions   int64             `json:"total_transactions"`
	PendingTransactions int64             `json:"pending_transactions"`
	MinedTransactions   int64             `json:"mined_transactions"`
	LastBlock           *LastBlockSummary `json:"last_block"`
}

// RecordResult record_transaction 的返回值
type RecordResult struct {
	Status          string `json:"status"`
	TransactionHash string `json:"transaction_hash"`
	BlockchainID    int64  `json:"blockchain_id"`
}
