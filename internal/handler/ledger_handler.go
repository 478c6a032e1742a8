package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrismart-ci/ledger-chain/internal/model"
	"github.com/agrismart-ci/ledger-chain/internal/repository"
	"github.com/agrismart-ci/ledger-chain/internal/service"
	"github.com/agrismart-ci/ledger-chain/pkg/logger"
)

// LedgerHandler 账本 HTTP 处理器
type LedgerHandler struct {
	ledgerSvc   *service.LedgerService
	minerSvc    *service.MinerService
	verifierSvc *service.VerifierService
}

// NewLedgerHandler 创建处理器
func NewLedgerHandler(
	ledgerSvc *service.LedgerService,
	minerSvc *service.MinerService,
	verifierSvc *service.VerifierService,
) *LedgerHandler {
	return &LedgerHandler{
		ledgerSvc:   ledgerSvc,
		minerSvc:    minerSvc,
		verifierSvc: verifierSvc,
	}
}

// RecordTransaction 登记交易
// POST /api/blockchain/transactions
func (h *LedgerHandler) RecordTransaction(c *gin.Context) {
	var input model.NewTransactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, err.Error())
		return
	}

	result, err := h.ledgerSvc.RecordTransaction(c.Request.Context(), &input)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateTransaction) {
			Conflict(c, "transaction already recorded")
			return
		}
		logger.Error("failed to record transaction",
			zap.String("transaction_id", input.TransactionID),
			zap.Error(err))
		InternalError(c, "internal error")
		return
	}

	Success(c, result)
}

// VerifyTransaction 校验交易完整性
// GET /api/blockchain/verify/:transaction_id
func (h *LedgerHandler) VerifyTransaction(c *gin.Context) {
	transactionID := c.Param("transaction_id")

	report, err := h.verifierSvc.Verify(c.Request.Context(), transactionID)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionRecordNotFound) {
			NotFound(c, "transaction not found on ledger")
			return
		}
		logger.Error("failed to verify transaction",
			zap.String("transaction_id", transactionID),
			zap.Error(err))
		InternalError(c, "internal error")
		return
	}

	Success(c, report)
}

// TraceTransaction 追溯交易
// GET /api/blockchain/trace/:transaction_id
func (h *LedgerHandler) TraceTransaction(c *gin.Context) {
	transactionID := c.Param("transaction_id")

	trace, err := h.verifierSvc.Trace(c.Request.Context(), transactionID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentTransactionNotFound) {
			NotFound(c, "transaction not found")
			return
		}
		logger.Error("failed to trace transaction",
			zap.String("transaction_id", transactionID),
			zap.Error(err))
		InternalError(c, "internal error")
		return
	}

	Success(c, trace)
}

// GetStats 链统计
// GET /api/blockchain/stats
func (h *LedgerHandler) GetStats(c *gin.Context) {
	stats, err := h.verifierSvc.Stats(c.Request.Context())
	if err != nil {
		logger.Error("failed to get chain stats", zap.Error(err))
		InternalError(c, "internal error")
		return
	}

	Success(c, stats)
}

// MineBlockResponse 手动挖矿响应
type MineBlockResponse struct {
	Mined            bool   `json:"mined"`
	BlockID          string `json:"block_id,omitempty"`
	BlockNumber      int64  `json:"block_number"`
	BlockHash        string `json:"block_hash,omitempty"`
	TransactionCount int    `json:"transaction_count"`
	Nonce            int64  `json:"nonce"`
	MetDifficulty    bool   `json:"met_difficulty"`
}

// MineBlock 手动触发一轮挖矿
// POST /api/blockchain/mine-block
func (h *LedgerHandler) MineBlock(c *gin.Context) {
	block, err := h.minerSvc.Mine(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrMiningInProgress) {
			Conflict(c, "mining already in progress")
			return
		}
		logger.Error("manual mining failed", zap.Error(err))
		InternalError(c, "internal error")
		return
	}

	if block == nil {
		Success(c, &MineBlockResponse{Mined: false})
		return
	}

	Success(c, &MineBlockResponse{
		Mined:            true,
		BlockID:          block.BlockID,
		BlockNumber:      block.BlockNumber,
		BlockHash:        block.BlockHash,
		TransactionCount: block.TransactionCount,
		Nonce:            block.Nonce,
		MetDifficulty:    block.MetDifficulty,
	})
}
