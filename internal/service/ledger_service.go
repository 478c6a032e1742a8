// Package service 提供 ledger-chain 的业务逻辑服务
//
// ========================================
// 账本与挖矿服务对接说明
// ========================================
//
// ## 功能概述
// LedgerService 负责将已确认的支付交易登记为不可变账本记录,
// MinerService 负责将待打包记录批量打包进哈希链接的区块。
//
// ## 消息来源 (Kafka Consumer)
// - Topic: payment-confirmed (来自支付服务)
// - 消息类型: model.PaymentConfirmedEvent
// - 处理流程:
//   1. RecordTransaction() 计算规范化哈希并落库
//   2. 待打包数量达到阈值时自动触发一轮挖矿
//
// ## 消息输出 (Kafka Producer)
// - Topic: block-mined
// - 消息类型: model.BlockMinedEvent
// - 触发条件: 新区块落库后
//
// ========================================
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/agrismart-ci/ledger-chain/internal/hash"
	"github.com/agrismart-ci/ledger-chain/internal/metrics"
	"github.com/agrismart-ci/ledger-chain/internal/model"
	"github.com/agrismart-ci/ledger-chain/internal/repository"
	"github.com/agrismart-ci/ledger-chain/pkg/logger"
)

// Miner 触发挖矿的最小接口
type Miner interface {
	Mine(ctx context.Context) (*model.Block, error)
}

// LedgerService 账本记录服务
type LedgerService struct {
	repo  repository.LedgerRepository
	miner Miner

	pendingThreshold int64
}

// LedgerServiceConfig 配置
type LedgerServiceConfig struct {
	PendingThreshold int
}

// NewLedgerService 创建账本记录服务
func NewLedgerService(repo repository.LedgerRepository, miner Miner, cfg *LedgerServiceConfig) *LedgerService {
	threshold := cfg.PendingThreshold
	if threshold == 0 {
		threshold = 5
	}

	return &LedgerService{
		repo:             repo,
		miner:            miner,
		pendingThreshold: int64(threshold),
	}
}

// RecordTransaction 将已确认的支付交易登记到账本
//
// 同一 transaction_id 只登记一次, 重复提交返回 ErrDuplicateTransaction。
// 登记成功后若待打包数量达到阈值, 同步触发一轮挖矿, 挖矿失败不影响登记结果。
func (s *LedgerService) RecordTransaction(ctx context.Context, input *model.NewTransactionInput) (*model.RecordResult, error) {
	record := &model.TransactionRecord{
		TransactionID: input.TransactionID,
		ProductID:     input.ProductID,
		BuyerID:       input.BuyerID,
		SellerID:      input.SellerID,
		Amount:        input.Amount,
		Quantity:      input.Quantity,
		ProductName:   input.ProductName,
		Status:        model.TransactionStatusPending,
		CreatedAt:     time.Now().UnixMilli(),
	}

	digest, err := hash.Digest(record.HashPayload())
	if err != nil {
		metrics.RecordTransaction("failed")
		return nil, err
	}
	record.TransactionHash = digest

	if err := s.repo.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicateTransaction) {
			metrics.RecordTransaction("duplicate")
			return nil, err
		}
		metrics.RecordTransaction("failed")
		return nil, err
	}
	metrics.RecordTransaction("recorded")

	logger.Info("transaction recorded",
		zap.String("transaction_id", record.TransactionID),
		zap.String("transaction_hash", record.TransactionHash[:16]))

	s.autoMine(ctx)

	return &model.RecordResult{
		Status:          "success",
		TransactionHash: record.TransactionHash,
		BlockchainID:    record.ID,
	}, nil
}

// autoMine 待打包数量达到阈值时触发挖矿
//
// 挖矿失败只记录日志, 不向调用方传播。
func (s *LedgerService) autoMine(ctx context.Context) {
	pending, err := s.repo.CountPending(ctx)
	if err != nil {
		logger.Error("failed to count pending transactions", zap.Error(err))
		return
	}
	metrics.UpdatePendingTransactions(pending)

	if pending < s.pendingThreshold {
		return
	}

	if _, err := s.miner.Mine(ctx); err != nil {
		if errors.Is(err, ErrMiningInProgress) {
			return
		}
		logger.Error("auto mining failed", zap.Error(err))
	}
}
