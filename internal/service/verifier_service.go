package service

import (
	"context"
	"errors"

	"github.com/agrismart-ci/ledger-chain/internal/hash"
	"github.com/agrismart-ci/ledger-chain/internal/metrics"
	"github.com/agrismart-ci/ledger-chain/internal/model"
	"github.com/agrismart-ci/ledger-chain/internal/repository"
)

// VerifierService 完整性校验与追溯服务
//
// 只读, 不修改任何记录。
type VerifierService struct {
	ledgerRepo  repository.LedgerRepository
	blockRepo   repository.BlockRepository
	paymentRepo repository.PaymentRepository
}

// NewVerifierService 创建校验服务
func NewVerifierService(
	ledgerRepo repository.LedgerRepository,
	blockRepo repository.BlockRepository,
	paymentRepo repository.PaymentRepository,
) *VerifierService {
	return &VerifierService{
		ledgerRepo:  ledgerRepo,
		blockRepo:   blockRepo,
		paymentRepo: paymentRepo,
	}
}

// Verify 校验账本记录的完整性
//
// 重新计算规范化哈希与存储值比对, 已打包记录再检查所属区块存在。
// 校验失败 (被篡改) 不是 error, 通过报告的 verified 字段表达。
func (s *VerifierService) Verify(ctx context.Context, transactionID string) (*model.VerificationReport, error) {
	record, err := s.ledgerRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionRecordNotFound) {
			metrics.RecordVerification("not_found")
		}
		return nil, err
	}

	digest, err := hash.Digest(record.HashPayload())
	if err != nil {
		return nil, err
	}
	hashValid := digest == record.TransactionHash

	blockValid := true
	var blockInfo *model.BlockInfo
	if record.Status == model.TransactionStatusMined && record.BlockID != "" {
		block, err := s.blockRepo.GetByBlockID(ctx, record.BlockID)
		if errors.Is(err, repository.ErrBlockNotFound) {
			blockValid = false
		} else if err != nil {
			return nil, err
		} else {
			blockInfo = &model.BlockInfo{
				BlockNumber: block.BlockNumber,
				BlockHash:   block.BlockHash,
				Timestamp:   block.Timestamp,
			}
		}
	}

	verified := hashValid && blockValid
	switch {
	case verified:
		metrics.RecordVerification("verified")
	case !hashValid:
		metrics.RecordVerification("hash_mismatch")
	default:
		metrics.RecordVerification("block_mismatch")
	}

	return &model.VerificationReport{
		TransactionID:    transactionID,
		TransactionHash:  record.TransactionHash,
		Verified:         verified,
		HashValid:        hashValid,
		BlockValid:       blockValid,
		BlockchainStatus: record.Status.String(),
		Confirmations:    record.Confirmations,
		BlockInfo:        blockInfo,
		Timestamp:        record.CreatedAt,
	}, nil
}

// Trace 组装交易的完整追溯视图
//
// 支付记录必须存在; 账本记录和区块缺失时对应字段为空。
func (s *VerifierService) Trace(ctx context.Context, transactionID string) (*model.TraceReport, error) {
	payment, err := s.paymentRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	trace := &model.TraceReport{
		TransactionID: transactionID,
		Amount:        payment.TotalAmount,
		Product:       payment.ProductName,
		BuyerID:       payment.BuyerID,
		SellerID:      payment.SellerID,
		Status:        payment.Status,
		CreatedAt:     payment.CreatedAt,
	}

	record, err := s.ledgerRepo.GetByTransactionID(ctx, transactionID)
	if errors.Is(err, repository.ErrTransactionRecordNotFound) {
		return trace, nil
	}
	if err != nil {
		return nil, err
	}

	trace.Blockchain = &model.BlockchainTrace{
		TransactionHash: record.TransactionHash,
		Status:          record.Status.String(),
		Confirmations:   record.Confirmations,
		BlockNumber:     record.BlockNumber,
		BlockHash:       record.BlockHash,
		MinedAt:         record.MinedAt,
	}

	if record.BlockID != "" {
		block, err := s.blockRepo.GetByBlockID(ctx, record.BlockID)
		if err != nil && !errors.Is(err, repository.ErrBlockNotFound) {
			return nil, err
		}
		if block != nil {
			trace.Blockchain.BlockInfo = &model.TraceBlockInfo{
				BlockID:      block.BlockID,
				Timestamp:    block.Timestamp,
				PreviousHash: block.PreviousHash,
				Nonce:        block.Nonce,
			}
		}
	}

	return trace, nil
}

// Stats 账本与链的全局统计
func (s *VerifierService) Stats(ctx context.Context) (*model.ChainStats, error) {
	totalBlocks, err := s.blockRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalTransactions, err := s.ledgerRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.ledgerRepo.CountByStatus(ctx, model.TransactionStatusPending)
	if err != nil {
		return nil, err
	}
	mined, err := s.ledgerRepo.CountByStatus(ctx, model.TransactionStatusMined)
	if err != nil {
		return nil, err
	}

	stats := &model.ChainStats{
		TotalBlocks:         totalBlocks,
		TotalTransactions:   totalTransactions,
		PendingTransactions: pending,
		MinedTransactions:   mined,
	}
	metrics.UpdatePendingTransactions(pending)
	metrics.UpdateChainHeight(totalBlocks)

	last, err := s.blockRepo.Last(ctx)
	if errors.Is(err, repository.ErrBlockNotFound) {
		return stats, nil
	}
	if err != nil {
		return nil, err
	}

	stats.LastBlock = &model.LastBlockSummary{
		BlockNumber: last.BlockNumber,
		BlockHash:   truncateHash(last.BlockHash),
		Timestamp:   last.Timestamp,
	}
	return stats, nil
}

// truncateHash 展示用途, 只保留前 16 个字符
func truncateHash(h string) string {
	if len(h) <= 16 {
		return h
	}
	return h[:16] + "..."
}
