package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/agrismart-ci/ledger-chain/internal/metrics"
	"github.com/agrismart-ci/ledger-chain/internal/model"
	"github.com/agrismart-ci/ledger-chain/internal/repository"
	"github.com/agrismart-ci/ledger-chain/internal/service"
	"github.com/agrismart-ci/ledger-chain/pkg/logger"
)

// Kafka 消费者订阅的 Topic
const (
	// TopicPaymentConfirmed 支付确认 Topic
	// 生产者: 支付服务
	// 消费者: ledger-chain
	// Partition Key: transaction_id
	// 消息格式: model.PaymentConfirmedEvent
	TopicPaymentConfirmed = "payment-confirmed"
)

// Consumer Kafka 消费者
type Consumer struct {
	client    sarama.ConsumerGroup
	ledgerSvc *service.LedgerService
	topics    []string
	groupID   string

	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
}

// ConsumerConfig 消费者配置
type ConsumerConfig struct {
	Brokers       []string
	GroupID       string
	LedgerService *service.LedgerService
}

// NewConsumer 创建消费者
func NewConsumer(cfg *ConsumerConfig) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Offsets.AutoCommit.Enable = true
	config.Consumer.Offsets.AutoCommit.Interval = time.Second

	client, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, config)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		client:    client,
		ledgerSvc: cfg.LedgerService,
		topics:    []string{TopicPaymentConfirmed},
		groupID:   cfg.GroupID,
	}, nil
}

// Start 启动消费者
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("consumer already running")
	}
	c.running = true
	c.stopCh = make(chan struct{})
	c.mu.Unlock()

	handler := &consumerGroupHandler{
		ledgerSvc: c.ledgerSvc,
	}

	go func() {
		for {
			select {
			case <-c.stopCh:
				return
			case <-ctx.Done():
				return
			default:
			}

			if err := c.client.Consume(ctx, c.topics, handler); err != nil {
				logger.Error("kafka consume error", zap.Error(err))
				time.Sleep(time.Second)
			}
		}
	}()

	logger.Info("kafka consumer started",
		zap.Strings("topics", c.topics),
		zap.String("group_id", c.groupID))

	return nil
}

// Stop 停止消费者
func (c *Consumer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}

	close(c.stopCh)
	c.running = false

	return c.client.Close()
}

// consumerGroupHandler 消费组处理器
type consumerGroupHandler struct {
	ledgerSvc *service.LedgerService
}

func (h *consumerGroupHandler) Setup(_ sarama.ConsumerGroupSession) error   { return nil }
func (h *consumerGroupHandler) Cleanup(_ sarama.ConsumerGroupSession) error { return nil }

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		ctx := context.Background()

		switch msg.Topic {
		case TopicPaymentConfirmed:
			if err := h.handlePaymentConfirmed(ctx, msg.Value); err != nil {
				logger.Error("failed to handle payment confirmed message",
					zap.String("topic", msg.Topic),
					zap.Int64("offset", msg.Offset),
					zap.Error(err))
				continue // 继续处理下一条消息
			}
			metrics.RecordKafkaMessage(msg.Topic, false)

		default:
			logger.Warn("unknown topic", zap.String("topic", msg.Topic))
		}

		session.MarkMessage(msg, "")
	}
	return nil
}

// handlePaymentConfirmed 处理支付确认事件
//
// Kafka 至少一次投递, 重复消息靠账本的唯一约束去重, 不算失败。
func (h *consumerGroupHandler) handlePaymentConfirmed(ctx context.Context, data []byte) error {
	var event model.PaymentConfirmedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return err
	}

	logger.Debug("received payment confirmed event",
		zap.String("transaction_id", event.TransactionID))

	_, err := h.ledgerSvc.RecordTransaction(ctx, event.Input())
	if errors.Is(err, repository.ErrDuplicateTransaction) {
		logger.Info("duplicate payment confirmed event ignored",
			zap.String("transaction_id", event.TransactionID))
		return nil
	}
	return err
}
