package model

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"time"
)

// GenesisPreviousHash 创世规则: 第 0 个区块的 previous_hash 为 64 个 '0'
//
// 不创建显式的创世区块对象, 规则是隐式的。
const GenesisPreviousHash = "0000000000000000000000000000000000000000000000000000000000000000"

// blockIDCharset 区块 ID 随机后缀字符集
const blockIDCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Block 区块, 每轮挖矿产出一个
//
// 持久化后不可变。
type Block struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	BlockID     string `gorm:"column:block_id;type:varchar(64);uniqueIndex;not null" json:"block_id"`
	BlockNumber int64  `gorm:"column:block_number;type:bigint;uniqueIndex;not null" json:"block_number"`
	Timestamp   int64  `gorm:"column:timestamp;type:bigint;not null" json:"timestamp"`
	// TransactionIDs 打包的交易 ID 列表 (JSON 数组, 顺序即选取顺序)
	TransactionIDs   string `gorm:"column:transaction_ids;type:text;not null" json:"transaction_ids"`
	TransactionCount int    `gorm:"column:transaction_count;type:int;not null" json:"transaction_count"`
	PreviousHash     string `gorm:"column:previous_hash;type:varchar(64);not null" json:"previous_hash"`
	Nonce            int64  `gorm:"column:nonce;type:bigint;not null" json:"nonce"`
	BlockHash        string `gorm:"column:block_hash;type:varchar(64);not null" json:"block_hash"`
	Miner            string `gorm:"column:miner;type:varchar(64);not null" json:"miner"`
	// MetDifficulty 工作量证明是否在尝试上限内达到难度目标;
	// false 表示区块以搜索到的最后一个 nonce 收尾 (响应性优先于严格证明)。
	MetDifficulty bool  `gorm:"column:met_difficulty;not null;default:false" json:"met_difficulty"`
	CreatedAt     int64 `gorm:"column:created_at;type:bigint;not null" json:"created_at"`
}

// TableName 返回表名
func (Block) TableName() string {
	return "blocks"
}

// GetTransactionIDList 解析 TransactionIDs 为字符串数组
func (b *Block) GetTransactionIDList() ([]string, error) {
	var ids []string
	if err := json.Unmarshal([]byte(b.TransactionIDs), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// SetTransactionIDList 设置 TransactionIDs
func (b *Block) SetTransactionIDList(ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	b.TransactionIDs = string(data)
	b.TransactionCount = len(ids)
	return nil
}

// HashPayload 返回参与 block_hash 计算的字段集
//
// 不含 block_hash 自身和 met_difficulty (后者在哈希确定之后才能判定)。
func (b *Block) HashPayload() (map[string]any, error) {
	ids, err := b.GetTransactionIDList()
	if err != nil {
		return nil, fmt.Errorf("parse transaction ids: %w", err)
	}
	return map[string]any{
		"block_id":          b.BlockID,
		"block_number":      b.BlockNumber,
		"timestamp":         b.Timestamp,
		"transactions":      ids,
		"transaction_count": b.TransactionCount,
		"previous_hash":     b.PreviousHash,
		"nonce":             b.Nonce,
		"miner":             b.Miner,
	}, nil
}

// GenerateBlockID 生成人类可读且唯一的区块 ID
//
// 格式: BLOCK-YYYYMMDDHHMMSS-XXXXXX (6 位大写字母/数字随机后缀)
func GenerateBlockID(now time.Time) string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand 失败极罕见, 退化为纳秒时间戳取模
		nano := now.UnixNano()
		for i := range buf {
			buf[i] = byte(nano >> (8 * i))
		}
	}
	suffix := make([]byte, 6)
	for i, c := range buf {
		suffix[i] = blockIDCharset[int(c)%len(blockIDCharset)]
	}
	return fmt.Sprintf("BLOCK-%s-%s", now.UTC().Format("20060102150405"), suffix)
}
