package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

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

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	once := flag.String("once", "", "立即执行一次后退出: collect | analyze | all")
	date := flag.String("date", "", "覆盖批处理的快照日期 (YYYY-MM-DD)，默认按时区取当天/昨天")
	flag.Parse()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.FilePath); err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("Failed to init database", zap.Error(err))
	}
	defer database.Close()

	if err := database.AutoMigrate(
		&model.VideoSnapshot{},
		&model.CategoryKeywordTrend{},
		&model.BatchRunLog{},
	); err != nil {
		logger.Fatal("Failed to auto migrate", zap.Error(err))
	}

	if err := infraRedis.Init(&cfg.Redis); err != nil {
		logger.Fatal("Failed to init redis", zap.Error(err))
	}
	defer infraRedis.Close()

	if err := infraKafka.InitProducer(&cfg.Kafka); err != nil {
		logger.Fatal("Failed to init kafka producer", zap.Error(err))
	}
	defer infraKafka.CloseProducer()

	if err := infraES.Init(&cfg.Elasticsearch); err != nil {
		logger.Warn("Elasticsearch init failed, keyword sync disabled", zap.Error(err))
	} else {
		defer infraES.Close()
		if err := infraES.InitIndexes(); err != nil {
			logger.Warn("Elasticsearch index init failed", zap.Error(err))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听系统信号，优雅退出
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	db := database.Get()
	snapshotRepo := repository.NewSnapshotRepository(db)
	keywordRepo := repository.NewKeywordRepository(db)
	batchRunRepo := repository.NewBatchRunRepository(db)

	feed, err := youtube.NewClient(ctx, &cfg.YouTube)
	if err != nil {
		logger.Fatal("Failed to init youtube client", zap.Error(err))
	}

	collectorService := service.NewCollectorService(feed, snapshotRepo, &cfg.Batch)
	keywordService := service.NewKeywordService(snapshotRepo, keywordRepo, &cfg.Batch)
	batchService := service.NewBatchService(collectorService, keywordService, batchRunRepo, &cfg.Batch)

	if topic, ok := cfg.Kafka.Topics["batch_events"]; ok {
		batchService.Publish = func(ctx context.Context, event *infraKafka.BatchCompletedEvent) error {
			return infraKafka.SendBatchCompletedEvent(ctx, topic, event)
		}
	}

	runCollect := func() {
		if _, err := batchService.RunCollection(ctx, *date, nil); err != nil {
			logger.Error("Collection batch failed", zap.Error(err))
		}
	}
	runAnalyze := func() {
		if _, err := batchService.RunAnalysis(ctx, *date, nil); err != nil {
			logger.Error("Analysis batch failed", zap.Error(err))
		}
	}

	// -once 用于手工补数或验证，跑完即退出
	if *once != "" {
		switch *once {
		case "collect":
			runCollect()
		case "analyze":
			runAnalyze()
		case "all":
			runCollect()
			runAnalyze()
		default:
			logger.Fatal("Unknown -once mode", zap.String("mode", *once))
		}
		return
	}

	// 定时模式：上一轮还没跑完时跳过本轮，避免批处理重叠
	c := cron.New(
		cron.WithLocation(cfg.Batch.Location()),
		cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
			cron.Recover(cron.DefaultLogger),
		),
	)

	if spec := cfg.Batch.CollectionCron; spec != "" {
		if _, err := c.AddFunc(spec, runCollect); err != nil {
			logger.Fatal("Invalid collection cron spec", zap.String("spec", spec), zap.Error(err))
		}
	}
	if spec := cfg.Batch.AnalysisCron; spec != "" {
		if _, err := c.AddFunc(spec, runAnalyze); err != nil {
			logger.Fatal("Invalid analysis cron spec", zap.String("spec", spec), zap.Error(err))
		}
	}

	logger.Info("Batch scheduler started",
		zap.String("collection_cron", cfg.Batch.CollectionCron),
		zap.String("analysis_cron", cfg.Batch.AnalysisCron),
		zap.String("timezone", cfg.Batch.Timezone),
		zap.Strings("regions", cfg.Batch.Regions),
		zap.Int("categories", len(cfg.Batch.Categories)),
		zap.Bool("test_mode", cfg.Batch.TestMode),
	)

	c.Start()
	<-ctx.Done()

	// 等待正在执行的任务结束
	<-c.Stop().Done()
	logger.Info("Batch scheduler stopped")
}
