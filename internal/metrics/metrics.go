// Package metrics 提供 ledger-chain 服务的 Prometheus 监控指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ledger_chain"

// 账本指标
var (
	// TransactionsRecordedTotal 记账总数
	TransactionsRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_recorded_total",
			Help:      "记账总数",
		},
		[]string{"result"}, // recorded, duplicate, failed
	)

	// PendingTransactionsGauge 待打包记录数量
	PendingTransactionsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_transactions_total",
			Help:      "当前待打包记录数量",
		},
	)

	// VerificationsTotal 完整性校验总数
	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "完整性校验总数",
		},
		[]string{"result"}, // verified, hash_mismatch, block_mismatch, not_found
	)
)

// 挖矿指标
var (
	// BlocksMinedTotal 挖出区块总数
	BlocksMinedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_mined_total",
			Help:      "挖出区块总数",
		},
	)

	// MiningDuration 单轮挖矿耗时
	MiningDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mining_duration_seconds",
			Help:      "单轮挖矿耗时(秒)",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
	)

	// MiningNonceAttempts 工作量证明尝试次数
	MiningNonceAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mining_nonce_attempts",
			Help:      "单轮工作量证明尝试的 nonce 数量",
			Buckets:   []float64{1, 10, 50, 100, 500, 1000, 5000, 10000},
		},
	)

	// BlockTransactionCount 区块打包交易数量
	BlockTransactionCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "block_transaction_count",
			Help:      "区块打包的交易数量",
			Buckets:   []float64{1, 2, 3, 5, 8, 10},
		},
	)

	// MiningSkippedTotal 跳过的挖矿请求总数
	MiningSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mining_skipped_total",
			Help:      "跳过的挖矿请求总数",
		},
		[]string{"reason"}, // no_pending, in_progress
	)

	// DifficultyMissedTotal 未达到难度目标的区块总数
	DifficultyMissedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "difficulty_missed_total",
			Help:      "尝试上限内未达到难度目标的区块总数",
		},
	)

	// ChainHeightGauge 链高度
	ChainHeightGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chain_height",
			Help:      "当前链高度 (区块总数)",
		},
	)
)

// Kafka 指标
var (
	// KafkaMessagesConsumed Kafka 消费消息数
	KafkaMessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_messages_consumed_total",
			Help:      "Kafka 消费消息总数",
		},
		[]string{"topic"},
	)

	// KafkaMessagesProduced Kafka 生产消息数
	KafkaMessagesProduced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_messages_produced_total",
			Help:      "Kafka 生产消息总数",
		},
		[]string{"topic"},
	)
)

// HTTP 指标
var (
	// HTTPRequestsTotal HTTP 请求总数
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP 请求总数",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration HTTP 请求耗时
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP 请求耗时(秒)",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "path"},
	)
)

// Helper functions

// RecordTransaction 记录记账结果
func RecordTransaction(result string) {
	TransactionsRecordedTotal.WithLabelValues(result).Inc()
}

// RecordMining 记录一轮挖矿
func RecordMining(durationSeconds float64, nonceAttempts int64, txCount int, metDifficulty bool) {
	BlocksMinedTotal.Inc()
	MiningDuration.Observe(durationSeconds)
	MiningNonceAttempts.Observe(float64(nonceAttempts))
	BlockTransactionCount.Observe(float64(txCount))
	if !metDifficulty {
		DifficultyMissedTotal.Inc()
	}
}

// RecordMiningSkipped 记录跳过的挖矿请求
func RecordMiningSkipped(reason string) {
	MiningSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordVerification 记录完整性校验结果
func RecordVerification(result string) {
	VerificationsTotal.WithLabelValues(result).Inc()
}

// RecordKafkaMessage 记录 Kafka 消息
func RecordKafkaMessage(topic string, produced bool) {
	if produced {
		KafkaMessagesProduced.WithLabelValues(topic).Inc()
	} else {
		KafkaMessagesConsumed.WithLabelValues(topic).Inc()
	}
}

// UpdatePendingTransactions 更新待打包数量
func UpdatePendingTransactions(count int64) {
	PendingTransactionsGauge.Set(float64(count))
}

// UpdateChainHeight 更新链高度
func UpdateChainHeight(height int64) {
	ChainHeightGauge.Set(float64(height))
}
