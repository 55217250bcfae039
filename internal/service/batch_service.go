package service

import (
	"context"
	"fmt"
	"time"

	"trend-go/internal/config"
	infraKafka "trend-go/internal/infra/kafka"
	infraRedis "trend-go/internal/infra/redis"
	"trend-go/internal/model"
	"trend-go/pkg/logger"

	"go.uber.org/zap"
)

// Collector 快照采集接口（编排器视角）
type Collector interface {
	Collect(ctx context.Context, categoryID, regionCode string) ([]model.VideoSnapshot, error)
	Persist(videos []model.VideoSnapshot, snapshotDate, categoryID, regionCode string) (int, error)
}

// Extractor 关键词抽取接口（编排器视角）
type Extractor interface {
	Extract(ctx context.Context, snapshotDate, categoryID, period, regionCode string) (int, error)
}

// RunLogStore 运行日志存取接口
type RunLogStore interface {
	Create(run *model.BatchRunLog) error
	Complete(id int64, status string, metadata model.RunMetadata) error
	List(batchType string, limit, offset int) ([]model.BatchRunLog, int64, error)
}

// EventPublisher 批处理完成事件发布函数，可为 nil（不发布）
type EventPublisher func(ctx context.Context, event *infraKafka.BatchCompletedEvent) error

// BatchService 批处理编排器：顺序迭代 分类×地区 / 分类×周期，
// 迭代之间插入固定停顿以遵守上游配额（单工作者串行模型）。
// 运行日志的生命周期只由本服务推进。
type BatchService struct {
	collector Collector
	extractor Extractor
	runs      RunLogStore

	categories []string
	regions    []string
	pace       time.Duration
	testMode   bool
	location   *time.Location

	// Publish 运行结束后发布完成事件；为 nil 时跳过
	Publish EventPublisher
}

func NewBatchService(collector Collector, extractor Extractor, runs RunLogStore, cfg *config.BatchConfig) *BatchService {
	return &BatchService{
		collector:  collector,
		extractor:  extractor,
		runs:       runs,
		categories: cfg.Categories,
		regions:    cfg.Regions,
		pace:       cfg.PaceDuration(),
		testMode:   cfg.TestMode,
		location:   cfg.Location(),
	}
}

// Today 返回管道时区下的今天
func (s *BatchService) Today() string {
	return time.Now().In(s.location).Format(DateLayout)
}

// Yesterday 返回管道时区下的昨天（关键词分析需要完整一天的数据）
func (s *BatchService) Yesterday() string {
	return time.Now().In(s.location).AddDate(0, 0, -1).Format(DateLayout)
}

// scopeCategories 返回本次运行处理的分类集合；
// test_mode 只取第一个分类，便于快速人工验证
func (s *BatchService) scopeCategories() []string {
	if s.testMode && len(s.categories) > 1 {
		return s.categories[:1]
	}
	return s.categories
}

// pause 迭代之间的固定停顿；ctx 取消时立即返回错误
func (s *BatchService) pause(ctx context.Context) error {
	if s.pace <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.pace):
		return nil
	}
}

// RunCollection 执行快照采集批处理：地区 × 分类，逐个顺序处理。
// 单个键失败只记入结果列表，不中断整轮。
// ctx 被取消时直接返回，运行日志停在 running，由监控侧按过期处理。
func (s *BatchService) RunCollection(ctx context.Context, snapshotDate string, regions []string) (*model.BatchRunLog, error) {
	if snapshotDate == "" {
		snapshotDate = s.Today()
	}
	if len(regions) == 0 {
		regions = s.regions
	}
	categories := s.scopeCategories()

	batchType := model.BatchTypeCollection
	if len(regions) > 1 {
		batchType = model.BatchTypeMultiRegionCollection
	}

	run := &model.BatchRunLog{
		BatchType:    batchType,
		SnapshotDate: snapshotDate,
		Status:       model.BatchStatusRunning,
		StartedAt:    time.Now(),
		Metadata: model.RunMetadata{
			Regions:    regions,
			Categories: categories,
			TestMode:   s.testMode,
		},
	}
	if err := s.runs.Create(run); err != nil {
		// 连运行日志都建不了，整轮按失败处理
		return nil, fmt.Errorf("create collection run log: %w", err)
	}

	logger.Info("Collection batch started",
		zap.Int64("run_id", run.ID),
		zap.String("snapshot_date", snapshotDate),
		zap.Strings("regions", regions),
		zap.Int("categories", len(categories)),
	)

	md := run.Metadata
	for _, region := range regions {
		for _, categoryID := range categories {
			result := s.collectOne(ctx, snapshotDate, categoryID, region)
			md.Results = append(md.Results, result)
			if result.Success {
				md.TotalVideos += result.Count
			} else {
				md.FailureCount++
			}

			if err := s.pause(ctx); err != nil {
				logger.Warn("Collection batch cancelled mid-run",
					zap.Int64("run_id", run.ID), zap.Error(err))
				return run, err
			}
		}
	}

	return s.finish(ctx, run, md)
}

// collectOne 处理单个 分类×地区 键；失败被捕获为结果而不是向上抛
func (s *BatchService) collectOne(ctx context.Context, snapshotDate, categoryID, region string) model.KeyResult {
	result := model.KeyResult{CategoryID: categoryID, RegionCode: region}

	videos, err := s.collector.Collect(ctx, categoryID, region)
	if err != nil {
		// 部分页成功时先把已取到的落库，再按键级失败记账
		if len(videos) > 0 {
			if count, perr := s.collector.Persist(videos, snapshotDate, categoryID, region); perr == nil {
				result.Count = count
			}
		}
		result.Error = err.Error()
		logger.Error("Collect category failed",
			zap.String("category_id", categoryID),
			zap.String("region", region),
			zap.Error(err),
		)
		return result
	}

	count, err := s.collector.Persist(videos, snapshotDate, categoryID, region)
	if err != nil {
		result.Error = err.Error()
		logger.Error("Persist category snapshots failed",
			zap.String("category_id", categoryID),
			zap.String("region", region),
			zap.Error(err),
		)
		return result
	}

	result.Success = true
	result.Count = count
	return result
}

// RunAnalysis 执行关键词分析批处理：地区 × 分类 × 周期。
// 默认针对昨天（完整一天的数据才能构成干净的日窗口）。
func (s *BatchService) RunAnalysis(ctx context.Context, snapshotDate string, regions []string) (*model.BatchRunLog, error) {
	if snapshotDate == "" {
		snapshotDate = s.Yesterday()
	}
	if len(regions) == 0 {
		regions = s.regions
	}
	categories := s.scopeCategories()

	run := &model.BatchRunLog{
		BatchType:    model.BatchTypeAnalysis,
		SnapshotDate: snapshotDate,
		Status:       model.BatchStatusRunning,
		StartedAt:    time.Now(),
		Metadata: model.RunMetadata{
			Regions:    regions,
			Categories: categories,
			Periods:    model.Periods,
			TestMode:   s.testMode,
		},
	}
	if err := s.runs.Create(run); err != nil {
		return nil, fmt.Errorf("create analysis run log: %w", err)
	}

	logger.Info("Analysis batch started",
		zap.Int64("run_id", run.ID),
		zap.String("snapshot_date", snapshotDate),
		zap.Strings("regions", regions),
		zap.Int("categories", len(categories)),
	)

	md := run.Metadata
	for _, region := range regions {
		for _, categoryID := range categories {
			for _, period := range model.Periods {
				result := model.KeyResult{CategoryID: categoryID, RegionCode: region, Period: period}

				count, err := s.extractor.Extract(ctx, snapshotDate, categoryID, period, region)
				if err != nil {
					result.Error = err.Error()
					md.FailureCount++
					logger.Error("Extract keywords failed",
						zap.String("category_id", categoryID),
						zap.String("region", region),
						zap.String("period", period),
						zap.Error(err),
					)
				} else {
					result.Success = true
					result.Count = count
					md.TotalKeywords += count
				}
				md.Results = append(md.Results, result)

				if err := s.pause(ctx); err != nil {
					logger.Warn("Analysis batch cancelled mid-run",
						zap.Int64("run_id", run.ID), zap.Error(err))
					return run, err
				}
			}
		}
	}

	return s.finish(ctx, run, md)
}

// finish 推进运行日志到终态，并发布完成事件（尽力而为）
func (s *BatchService) finish(ctx context.Context, run *model.BatchRunLog, md model.RunMetadata) (*model.BatchRunLog, error) {
	md.DurationMs = time.Since(run.StartedAt).Milliseconds()

	status := model.BatchStatusSuccess
	if md.FailureCount > 0 {
		status = model.BatchStatusPartialSuccess
	}

	if err := s.runs.Complete(run.ID, status, md); err != nil {
		// 记录运行状态本身失败时已无可保护，向上传播
		return run, fmt.Errorf("complete run log %d: %w", run.ID, err)
	}
	run.Status = status
	run.Metadata = md
	now := time.Now()
	run.CompletedAt = &now

	logger.Info("Batch finished",
		zap.Int64("run_id", run.ID),
		zap.String("batch_type", run.BatchType),
		zap.String("status", status),
		zap.Int("total_videos", md.TotalVideos),
		zap.Int("total_keywords", md.TotalKeywords),
		zap.Int("failures", md.FailureCount),
		zap.Int64("duration_ms", md.DurationMs),
	)

	if s.Publish != nil {
		event := &infraKafka.BatchCompletedEvent{
			RunID:         run.ID,
			BatchType:     run.BatchType,
			SnapshotDate:  run.SnapshotDate,
			Status:        status,
			TotalVideos:   md.TotalVideos,
			TotalKeywords: md.TotalKeywords,
			FailureCount:  md.FailureCount,
		}
		if err := s.Publish(ctx, event); err != nil {
			logger.Warn("Publish batch completed event failed",
				zap.Int64("run_id", run.ID), zap.Error(err))
		}
	}

	return run, nil
}

// ListRuns 按开始时间倒序列出运行日志（监控/控制台读路径）
func (s *BatchService) ListRuns(batchType string, limit, offset int) ([]model.BatchRunLog, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.runs.List(batchType, limit, offset)
}

// InvalidateReadCaches 批处理完成后使排行/关键词读缓存失效
// （API 进程消费 Kafka 事件时调用）
func InvalidateReadCaches(ctx context.Context, event *infraKafka.BatchCompletedEvent) error {
	prefixes := []string{"trend:rank:", "trend:kw:"}
	for _, prefix := range prefixes {
		deleted, err := infraRedis.DeleteByPrefix(ctx, prefix)
		if err != nil {
			return fmt.Errorf("invalidate cache prefix %s: %w", prefix, err)
		}
		if deleted > 0 {
			logger.Info("Read cache invalidated",
				zap.String("prefix", prefix),
				zap.Int("keys", deleted),
				zap.Int64("run_id", event.RunID),
			)
		}
	}
	return nil
}
