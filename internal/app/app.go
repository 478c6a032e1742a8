// Package app 提供 ledger-chain 服务的应用生命周期管理
//
// ========================================
// ledger-chain 服务对接说明
// ========================================
//
// ## 服务职责
// ledger-chain 是交易账本服务, 负责:
// 1. 记账 (Ledger): 已确认的支付交易登记为不可变账本记录
// 2. 挖矿 (Miner): 待打包记录批量打包进哈希链接的区块
// 3. 校验/追溯 (Verifier): 完整性校验、全链路追溯、链统计
//
// ## Kafka 对接 (参见 internal/kafka/consumer.go 和 producer.go)
//
// ### 消费的 Topic (来自支付服务)
// - payment-confirmed: 支付确认事件, 触发记账
//
// ### 生产的 Topic
// - block-mined: 新区块摘要
//
// ## HTTP 对接
// - 端口: 8085
// - 路由: /api/blockchain/* (参见 internal/router/router.go)
//
// ## 数据库
// - 数据库名: ledger_chain
// - 表: transaction_records, blocks (transactions 表由支付服务拥有, 只读)
//
// ========================================
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/agrismart-ci/ledger-chain/internal/config"
	"github.com/agrismart-ci/ledger-chain/internal/handler"
	"github.com/agrismart-ci/ledger-chain/internal/kafka"
	"github.com/agrismart-ci/ledger-chain/internal/repository"
	"github.com/agrismart-ci/ledger-chain/internal/router"
	"github.com/agrismart-ci/ledger-chain/internal/service"
	"github.com/agrismart-ci/ledger-chain/pkg/lock"
	"github.com/agrismart-ci/ledger-chain/pkg/logger"
)

// App 应用
type App struct {
	cfg *config.Config

	// 基础设施
	db    *gorm.DB
	redis *redis.Client

	// 仓储
	ledgerRepo  repository.LedgerRepository
	blockRepo   repository.BlockRepository
	paymentRepo repository.PaymentRepository

	// 服务
	ledgerSvc   *service.LedgerService
	minerSvc    *service.MinerService
	verifierSvc *service.VerifierService

	// Kafka
	kafkaConsumer *kafka.Consumer
	kafkaProducer *kafka.Producer

	// HTTP
	httpServer *http.Server

	// 运行控制
	stopCh chan struct{}
}

// NewApp 创建应用
func NewApp(cfg *config.Config) (*App, error) {
	app := &App{
		cfg:    cfg,
		stopCh: make(chan struct{}),
	}

	if err := app.initInfrastructure(); err != nil {
		return nil, fmt.Errorf("failed to init infrastructure: %w", err)
	}

	app.initRepositories()
	app.initServices()

	if err := app.initKafka(); err != nil {
		return nil, fmt.Errorf("failed to init kafka: %w", err)
	}

	app.initHTTP()

	return app, nil
}

// initInfrastructure 初始化基础设施
func (a *App) initInfrastructure() error {
	// PostgreSQL
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		a.cfg.Postgres.Host,
		a.cfg.Postgres.Port,
		a.cfg.Postgres.User,
		a.cfg.Postgres.Password,
		a.cfg.Postgres.Database,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(a.cfg.Postgres.MaxConnections)
	sqlDB.SetMaxIdleConns(a.cfg.Postgres.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(a.cfg.Postgres.ConnMaxLifetime) * time.Second)

	a.db = db
	logger.Info("database connected", zap.String("host", a.cfg.Postgres.Host))

	// 自动迁移
	if err := AutoMigrate(a.db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logger.Info("database migrated")

	// Redis
	redisAddr := "localhost:6379"
	if len(a.cfg.Redis.Addresses) > 0 {
		redisAddr = a.cfg.Redis.Addresses[0]
	}

	a.redis = redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
		PoolSize: a.cfg.Redis.PoolSize,
	})

	if err := a.redis.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("failed to connect redis: %w", err)
	}

	logger.Info("redis connected", zap.String("addr", redisAddr))

	return nil
}

// initRepositories 初始化仓储
func (a *App) initRepositories() {
	a.ledgerRepo = repository.NewLedgerRepository(a.db)
	a.blockRepo = repository.NewBlockRepository(a.db)
	a.paymentRepo = repository.NewPaymentRepository(a.db)

	logger.Info("repositories initialized")
}

// initServices 初始化服务
func (a *App) initServices() {
	leaser := lock.NewLeaser(a.redis,
		fmt.Sprintf("%s:lease:", a.cfg.Service.Name),
		time.Duration(a.cfg.Ledger.LeaseTTL)*time.Second)

	a.minerSvc = service.NewMinerService(
		a.ledgerRepo,
		a.blockRepo,
		repository.NewRepository(a.db),
		leaser,
		&service.MinerServiceConfig{
			BatchSize:   a.cfg.Ledger.BatchSize,
			Difficulty:  a.cfg.Ledger.Difficulty,
			MaxAttempts: int64(a.cfg.Ledger.MaxAttempts),
			MinerID:     a.cfg.Ledger.MinerID,
		},
	)

	a.ledgerSvc = service.NewLedgerService(
		a.ledgerRepo,
		a.minerSvc,
		&service.LedgerServiceConfig{
			PendingThreshold: a.cfg.Ledger.PendingThreshold,
		},
	)

	a.verifierSvc = service.NewVerifierService(a.ledgerRepo, a.blockRepo, a.paymentRepo)

	logger.Info("services initialized")
}

// initKafka 初始化 Kafka
func (a *App) initKafka() error {
	// 生产者
	producer, err := kafka.NewProducer(&kafka.ProducerConfig{
		Brokers:  a.cfg.Kafka.Brokers,
		ClientID: a.cfg.Kafka.ClientID,
	})
	if err != nil {
		return fmt.Errorf("failed to create kafka producer: %w", err)
	}
	a.kafkaProducer = producer

	// 设置事件回调
	a.minerSvc.SetOnBlockMined(producer.SendBlockMined)

	// 消费者
	consumer, err := kafka.NewConsumer(&kafka.ConsumerConfig{
		Brokers:       a.cfg.Kafka.Brokers,
		GroupID:       a.cfg.Kafka.GroupID,
		LedgerService: a.ledgerSvc,
	})
	if err != nil {
		return fmt.Errorf("failed to create kafka consumer: %w", err)
	}
	a.kafkaConsumer = consumer

	logger.Info("kafka initialized", zap.Strings("brokers", a.cfg.Kafka.Brokers))
	return nil
}

// initHTTP 初始化 HTTP 服务
func (a *App) initHTTP() {
	if a.cfg.Service.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	h := handler.NewLedgerHandler(a.ledgerSvc, a.minerSvc, a.verifierSvc)
	router.SetupRouter(engine, h)

	a.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.Service.HTTPPort),
		Handler: engine,
	}

	logger.Info("http server initialized", zap.Int("port", a.cfg.Service.HTTPPort))
}

// Run 运行应用
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 启动 Kafka 消费者
	if err := a.kafkaConsumer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start kafka consumer: %w", err)
	}

	// 启动后台补偿挖矿
	go a.minerSvc.RunSweeper(ctx, time.Duration(a.cfg.Ledger.SweepInterval)*time.Second)

	// 启动 HTTP 服务器
	go func() {
		logger.Info("http server listening", zap.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", zap.Error(err))
		}
	}()

	// 等待退出信号
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("received shutdown signal")
	case <-a.stopCh:
		logger.Info("shutdown requested")
	}

	return a.shutdown()
}

// shutdown 关闭应用
func (a *App) shutdown() error {
	logger.Info("shutting down...")

	// 停止 Kafka 消费者
	if a.kafkaConsumer != nil {
		a.kafkaConsumer.Stop()
	}

	// 关闭 HTTP 服务器
	if a.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.httpServer.Shutdown(shutdownCtx)
	}

	// 关闭 Kafka 生产者
	if a.kafkaProducer != nil {
		a.kafkaProducer.Close()
	}

	// 关闭 Redis
	if a.redis != nil {
		a.redis.Close()
	}

	// 关闭数据库
	if a.db != nil {
		sqlDB, _ := a.db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	}

	logger.Info("shutdown complete")
	return nil
}

// Stop 停止应用
func (a *App) Stop() {
	close(a.stopCh)
}
