package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"trend-go/internal/api/handler"
	"trend-go/internal/api/middleware"
	"trend-go/internal/api/router"
	"trend-go/internal/config"
	"trend-go/internal/infra/database"
	infraES "trend-go/internal/infra/elasticsearch"
	infraKafka "trend-go/internal/infra/kafka"
	infraRedis "trend-go/internal/infra/redis"
	"trend-go/internal/model"
	"trend-go/internal/platform/youtube"
	"trend-go/internal/repository"
	"trend-go/internal/service"
	"trend-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 加载配置文件
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 初始化日志系统
	if err := logger.Init(
		cfg.Log.Level,
		cfg.Log.Format,
		cfg.Log.Output,
		cfg.Log.FilePath,
	); err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	// 初始化数据库
	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("Failed to init database", zap.Error(err))
	}
	defer database.Close()

	// 自动迁移数据库表
	if err := database.AutoMigrate(
		&model.VideoSnapshot{},
		&model.CategoryKeywordTrend{},
		&model.BatchRunLog{},
	); err != nil {
		logger.Fatal("Failed to auto migrate", zap.Error(err))
	}

	// 初始化Redis
	if err := infraRedis.Init(&cfg.Redis); err != nil {
		logger.Fatal("Failed to init redis", zap.Error(err))
	}
	defer infraRedis.Close()

	// 初始化Kafka生产者（手动触发批处理时也会发完成事件）
	if err := infraKafka.InitProducer(&cfg.Kafka); err != nil {
		logger.Fatal("Failed to init kafka producer", zap.Error(err))
	}
	defer infraKafka.CloseProducer()

	// 初始化 Elasticsearch（可选，失败则关键词检索降级到 DB）
	if err := infraES.Init(&cfg.Elasticsearch); err != nil {
		logger.Warn("Elasticsearch init failed, keyword search will fallback to DB", zap.Error(err))
	} else {
		defer infraES.Close()
		if err := infraES.InitIndexes(); err != nil {
			logger.Warn("Elasticsearch index init failed", zap.Error(err))
		}
	}

	// 设置Gin模式
	gin.SetMode(cfg.App.Mode)

	// 创建Gin路由器（不使用默认中间件）
	r := gin.New()

	// 使用自定义中间件
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())

	// 初始化依赖（Repository -> Service -> Handler）
	db := database.Get()
	snapshotRepo := repository.NewSnapshotRepository(db)
	keywordRepo := repository.NewKeywordRepository(db)
	batchRunRepo := repository.NewBatchRunRepository(db)

	rankingService := service.NewRankingService(snapshotRepo)
	keywordService := service.NewKeywordService(snapshotRepo, keywordRepo, &cfg.Batch)

	// 上游采集客户端（手动触发批处理时使用）
	feed, err := youtube.NewClient(context.Background(), &cfg.YouTube)
	if err != nil {
		logger.Fatal("Failed to init youtube client", zap.Error(err))
	}
	collectorService := service.NewCollectorService(feed, snapshotRepo, &cfg.Batch)
	batchService := service.NewBatchService(collectorService, keywordService, batchRunRepo, &cfg.Batch)

	if topic, ok := cfg.Kafka.Topics["batch_events"]; ok {
		batchService.Publish = func(ctx context.Context, event *infraKafka.BatchCompletedEvent) error {
			return infraKafka.SendBatchCompletedEvent(ctx, topic, event)
		}

		// 消费批处理完成事件，使排行/关键词读缓存失效（后台 goroutine）
		consumerCtx, consumerCancel := context.WithCancel(context.Background())
		defer consumerCancel()

		go infraKafka.StartBatchEventConsumer(
			consumerCtx,
			cfg.Kafka.Brokers,
			topic,
			"trend-go-cache-invalidator",
			func(event *infraKafka.BatchCompletedEvent) error {
				return service.InvalidateReadCaches(consumerCtx, event)
			},
		)
	}

	rankingHandler := handler.NewRankingHandler(rankingService)
	keywordHandler := handler.NewKeywordHandler(keywordService)
	batchHandler := handler.NewBatchHandler(batchService)

	adminMiddleware := middleware.AdminToken(cfg.Batch.AdminToken)

	// 注册基础路由
	r.GET("/healthz", healthCheckHandler)
	r.GET("/", rootHandler)

	// 注册业务路由
	router.Setup(r, rankingHandler, keywordHandler, batchHandler, adminMiddleware)

	// 启动服务器
	addr := fmt.Sprintf(":%d", cfg.App.Port)
	logger.Info("Starting application",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("mode", cfg.App.Mode),
		zap.String("addr", addr),
	)
	logger.Info("Configuration loaded",
		zap.String("database", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)),
		zap.String("redis", cfg.Redis.Addr()),
		zap.Strings("regions", cfg.Batch.Regions),
		zap.Int("categories", len(cfg.Batch.Categories)),
	)

	// 启动HTTP服务器
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

// healthCheckHandler 健康检查接口
func healthCheckHandler(c *gin.Context) {
	cfg := config.Get()

	logger.Debug("Health check requested", zap.String("ip", c.ClientIP()))

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "Service is healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   cfg.App.Name,
		"version":   cfg.App.Version,
		"mode":      cfg.App.Mode,
	})
}

// rootHandler 根路径处理器
func rootHandler(c *gin.Context) {
	cfg := config.Get()

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Welcome to %s API", cfg.App.Name),
		"project": cfg.App.Name,
		"version": cfg.App.Version,
		"mode":    cfg.App.Mode,
		"docs":    fmt.Sprintf("http://localhost:%d/healthz", cfg.App.Port),
	})
}
