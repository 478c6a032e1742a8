package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/agrismart-ci/ledger-chain/internal/hash"
	"github.com/agrismart-ci/ledger-chain/internal/metrics"
	"github.com/agrismart-ci/ledger-chain/internal/model"
	"github.com/agrismart-ci/ledger-chain/internal/repository"
	"github.com/agrismart-ci/ledger-chain/pkg/lock"
	"github.com/agrismart-ci/ledger-chain/pkg/logger"
)

// ErrMiningInProgress 已有一轮挖矿在进行中
var ErrMiningInProgress = errors.New("mining already in progress")

// MinerService 挖矿服务
//
// 任一时刻最多一轮挖矿: 进程内用互斥锁, 多实例部署时再叠加 Redis 租约。
type MinerService struct {
	ledgerRepo repository.LedgerRepository
	blockRepo  repository.BlockRepository
	txRepo     *repository.Repository
	leaser     *lock.Leaser

	batchSize   int
	difficulty  int
	maxAttempts int64
	minerID     string

	mu sync.Mutex

	// 事件回调
	onBlockMined func(ctx context.Context, event *model.BlockMinedEvent) error
}

// MinerServiceConfig 配置
type MinerServiceConfig struct {
	BatchSize   int
	Difficulty  int
	MaxAttempts int64
	MinerID     string
}

// NewMinerService 创建挖矿服务
//
// leaser 可以为 nil, 此时只有进程内互斥。
func NewMinerService(
	ledgerRepo repository.LedgerRepository,
	blockRepo repository.BlockRepository,
	txRepo *repository.Repository,
	leaser *lock.Leaser,
	cfg *MinerServiceConfig,
) *MinerService {
	batchSize := cfg.BatchSize
	if batchSize == 0 {
		batchSize = 10
	}

	difficulty := cfg.Difficulty
	if difficulty == 0 {
		difficulty = 2
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 10000
	}

	minerID := cfg.MinerID
	if minerID == "" {
		minerID = "AgriSmart-Node-1"
	}

	return &MinerService{
		ledgerRepo:  ledgerRepo,
		blockRepo:   blockRepo,
		txRepo:      txRepo,
		leaser:      leaser,
		batchSize:   batchSize,
		difficulty:  difficulty,
		maxAttempts: maxAttempts,
		minerID:     minerID,
	}
}

// SetOnBlockMined 设置区块挖出回调
func (s *MinerService) SetOnBlockMined(fn func(ctx context.Context, event *model.BlockMinedEvent) error) {
	s.onBlockMined = fn
}

// Mine 执行一轮挖矿
//
// 无待打包记录时返回 (nil, nil), 不产出空区块。
// 已有一轮进行中时返回 ErrMiningInProgress。
func (s *MinerService) Mine(ctx context.Context) (*model.Block, error) {
	if !s.mu.TryLock() {
		metrics.RecordMiningSkipped("in_progress")
		return nil, ErrMiningInProgress
	}
	defer s.mu.Unlock()

	if s.leaser == nil {
		return s.mineLocked(ctx)
	}

	var block *model.Block
	err := s.leaser.WithLease(ctx, "mining", func(leaseCtx context.Context) error {
		var err error
		block, err = s.mineLocked(leaseCtx)
		return err
	})
	if errors.Is(err, lock.ErrLeaseUnavailable) {
		metrics.RecordMiningSkipped("in_progress")
		return nil, ErrMiningInProgress
	}
	return block, err
}

func (s *MinerService) mineLocked(ctx context.Context) (*model.Block, error) {
	start := time.Now()

	records, err := s.ledgerRepo.ListPending(ctx, s.batchSize)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		metrics.RecordMiningSkipped("no_pending")
		return nil, nil
	}

	last, err := s.blockRepo.Last(ctx)
	if err != nil && !errors.Is(err, repository.ErrBlockNotFound) {
		return nil, err
	}

	blockNumber := int64(0)
	previousHash := model.GenesisPreviousHash
	if last != nil {
		blockNumber = last.BlockNumber + 1
		previousHash = last.BlockHash
	}

	transactionIDs := make([]string, len(records))
	for i, r := range records {
		transactionIDs[i] = r.TransactionID
	}

	now := time.Now()
	block := &model.Block{
		BlockID:      model.GenerateBlockID(now),
		BlockNumber:  blockNumber,
		Timestamp:    now.UnixMilli(),
		PreviousHash: previousHash,
		Miner:        s.minerID,
	}
	if err := block.SetTransactionIDList(transactionIDs); err != nil {
		return nil, err
	}

	attempts, err := s.proofOfWork(block)
	if err != nil {
		return nil, err
	}

	// 区块落库与记录状态迁移必须原子
	minedAt := time.Now().UnixMilli()
	err = s.txRepo.Transaction(ctx, func(txCtx context.Context) error {
		if err := s.blockRepo.Append(txCtx, block); err != nil {
			return err
		}
		return s.ledgerRepo.MarkMined(txCtx, transactionIDs, block, minedAt)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordMining(time.Since(start).Seconds(), attempts, len(transactionIDs), block.MetDifficulty)
	metrics.UpdateChainHeight(block.BlockNumber + 1)

	logger.Info("block mined",
		zap.String("block_id", block.BlockID),
		zap.Int64("block_number", block.BlockNumber),
		zap.Int("transaction_count", block.TransactionCount),
		zap.Int64("nonce", block.Nonce),
		zap.Bool("met_difficulty", block.MetDifficulty))

	s.notifyBlockMined(ctx, block, transactionIDs, minedAt)

	return block, nil
}

// proofOfWork 搜索满足难度目标的 nonce
//
// 尝试次数达到上限后以当前哈希收尾, MetDifficulty 置为 false。
func (s *MinerService) proofOfWork(block *model.Block) (int64, error) {
	var attempts int64
	for {
		payload, err := block.HashPayload()
		if err != nil {
			return attempts, err
		}
		digest, err := hash.Digest(payload)
		if err != nil {
			return attempts, err
		}
		attempts++

		if hash.MeetsDifficulty(digest, s.difficulty) {
			block.BlockHash = digest
			block.MetDifficulty = true
			return attempts, nil
		}
		if attempts >= s.maxAttempts {
			block.BlockHash = digest
			block.MetDifficulty = false
			return attempts, nil
		}
		block.Nonce++
	}
}

// notifyBlockMined 发送区块挖出事件, 失败只记录日志
func (s *MinerService) notifyBlockMined(ctx context.Context, block *model.Block, transactionIDs []string, minedAt int64) {
	if s.onBlockMined == nil {
		return
	}
	event := &model.BlockMinedEvent{
		BlockID:          block.BlockID,
		BlockNumber:      block.BlockNumber,
		BlockHash:        block.BlockHash,
		PreviousHash:     block.PreviousHash,
		TransactionIDs:   transactionIDs,
		TransactionCount: block.TransactionCount,
		Nonce:            block.Nonce,
		MetDifficulty:    block.MetDifficulty,
		Miner:            block.Miner,
		MinedAt:          minedAt,
	}
	if err := s.onBlockMined(ctx, event); err != nil {
		logger.Error("failed to publish block mined event",
			zap.String("block_id", block.BlockID),
			zap.Error(err))
	}
}

// RunSweeper 周期性检查待打包记录并触发挖矿
//
// 兜底流量低谷: 即使数量未达到自动挖矿阈值, 滞留的记录也会被定期打包。
func (s *MinerService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Mine(ctx); err != nil && !errors.Is(err, ErrMiningInProgress) {
				logger.Error("sweeper mining failed", zap.Error(err))
			}
		}
	}
}
