package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"trend-go/internal/config"
	infraKafka "trend-go/internal/infra/kafka"
	"trend-go/internal/model"
)

// fakeBatchCollector 指定分类失败，其余返回固定行数
type fakeBatchCollector struct {
	failCategory string
	processed    []string
}

func (f *fakeBatchCollector) Collect(_ context.Context, categoryID, regionCode string) ([]model.VideoSnapshot, error) {
	f.processed = append(f.processed, fmt.Sprintf("%s:%s", regionCode, categoryID))
	if categoryID == f.failCategory {
		return nil, errors.New("quota exceeded")
	}
	return []model.VideoSnapshot{
		{VideoID: "v1-" + categoryID}, {VideoID: "v2-" + categoryID},
	}, nil
}

func (f *fakeBatchCollector) Persist(videos []model.VideoSnapshot, _, _, _ string) (int, error) {
	return len(videos), nil
}

// fakeBatchExtractor 指定分类失败，其余返回固定关键词数
type fakeBatchExtractor struct {
	failCategory string
	calls        []string
}

func (f *fakeBatchExtractor) Extract(_ context.Context, _, categoryID, period, regionCode string) (int, error) {
	f.calls = append(f.calls, fmt.Sprintf("%s:%s:%s", regionCode, categoryID, period))
	if categoryID == f.failCategory {
		return 0, errors.New("pool load failed")
	}
	return 7, nil
}

// fakeRunLogStore 内存运行日志
type fakeRunLogStore struct {
	createErr error
	runs      []*model.BatchRunLog
	nextID    int64
}

func (f *fakeRunLogStore) Create(run *model.BatchRunLog) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	run.ID = f.nextID
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeRunLogStore) Complete(id int64, status string, metadata model.RunMetadata) error {
	for _, run := range f.runs {
		if run.ID == id && run.Status == model.BatchStatusRunning {
			run.Status = status
			run.Metadata = metadata
			return nil
		}
	}
	return errors.New("run not found or not running")
}

func (f *fakeRunLogStore) List(batchType string, limit, offset int) ([]model.BatchRunLog, int64, error) {
	var out []model.BatchRunLog
	for _, run := range f.runs {
		if batchType != "" && run.BatchType != batchType {
			continue
		}
		out = append(out, *run)
	}
	total := int64(len(out))
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func batchTestConfig(categories []string, testMode bool) *config.BatchConfig {
	return &config.BatchConfig{
		Categories:       categories,
		Regions:          []string{"KR"},
		ShortsMaxSec:     61,
		PaceMs:           1,
		MinPoolSize:      5,
		MinKeywordVideos: 2,
		TopKeywords:      50,
		TestMode:         testMode,
	}
}

func TestRunCollectionPartialSuccess(t *testing.T) {
	collector := &fakeBatchCollector{failCategory: "3"}
	runs := &fakeRunLogStore{}
	svc := NewBatchService(collector, &fakeBatchExtractor{}, runs,
		batchTestConfig([]string{"1", "2", "3", "4", "5"}, false))

	run, err := svc.RunCollection(context.Background(), "2025-12-02", nil)
	if err != nil {
		t.Fatalf("RunCollection() error = %v", err)
	}

	if run.Status != model.BatchStatusPartialSuccess {
		t.Errorf("status = %s, want %s", run.Status, model.BatchStatusPartialSuccess)
	}
	if run.Metadata.FailureCount != 1 {
		t.Errorf("failure_count = %d, want 1", run.Metadata.FailureCount)
	}
	// 一个键失败不得中断其余键
	if len(collector.processed) != 5 {
		t.Errorf("processed %d keys, want 5: %v", len(collector.processed), collector.processed)
	}
	// 4 个成功键 × 2 条视频
	if run.Metadata.TotalVideos != 8 {
		t.Errorf("total_videos = %d, want 8", run.Metadata.TotalVideos)
	}
	if len(run.Metadata.Results) != 5 {
		t.Fatalf("results = %d, want 5", len(run.Metadata.Results))
	}
	for _, r := range run.Metadata.Results {
		if r.CategoryID == "3" {
			if r.Success || r.Error == "" {
				t.Errorf("failed key result not recorded: %+v", r)
			}
		} else if !r.Success {
			t.Errorf("key %s/%s should succeed: %+v", r.RegionCode, r.CategoryID, r)
		}
	}
}

func TestRunCollectionAllSuccess(t *testing.T) {
	runs := &fakeRunLogStore{}
	svc := NewBatchService(&fakeBatchCollector{}, &fakeBatchExtractor{}, runs,
		batchTestConfig([]string{"1", "2"}, false))

	run, err := svc.RunCollection(context.Background(), "2025-12-02", nil)
	if err != nil {
		t.Fatalf("RunCollection() error = %v", err)
	}
	if run.Status != model.BatchStatusSuccess {
		t.Errorf("status = %s, want %s", run.Status, model.BatchStatusSuccess)
	}
	if run.BatchType != model.BatchTypeCollection {
		t.Errorf("batch_type = %s, want %s (single region)", run.BatchType, model.BatchTypeCollection)
	}
	if run.Metadata.TotalVideos != 4 {
		t.Errorf("total_videos = %d, want 4", run.Metadata.TotalVideos)
	}
}

func TestRunCollectionMultiRegion(t *testing.T) {
	collector := &fakeBatchCollector{}
	runs := &fakeRunLogStore{}
	svc := NewBatchService(collector, &fakeBatchExtractor{}, runs,
		batchTestConfig([]string{"1", "2"}, false))

	run, err := svc.RunCollection(context.Background(), "2025-12-02", []string{"KR", "US"})
	if err != nil {
		t.Fatalf("RunCollection() error = %v", err)
	}
	if run.BatchType != model.BatchTypeMultiRegionCollection {
		t.Errorf("batch_type = %s, want %s", run.BatchType, model.BatchTypeMultiRegionCollection)
	}
	if len(collector.processed) != 4 {
		t.Errorf("processed %d keys, want 4 (2 regions x 2 categories)", len(collector.processed))
	}
}

func TestRunCollectionTestMode(t *testing.T) {
	collector := &fakeBatchCollector{}
	svc := NewBatchService(collector, &fakeBatchExtractor{}, &fakeRunLogStore{},
		batchTestConfig([]string{"1", "2", "3"}, true))

	if _, err := svc.RunCollection(context.Background(), "2025-12-02", nil); err != nil {
		t.Fatalf("RunCollection() error = %v", err)
	}
	if len(collector.processed) != 1 || collector.processed[0] != "KR:1" {
		t.Errorf("test_mode should process only first category, got %v", collector.processed)
	}
}

func TestRunCollectionRunLogCreateFailure(t *testing.T) {
	collector := &fakeBatchCollector{}
	runs := &fakeRunLogStore{createErr: errors.New("db down")}
	svc := NewBatchService(collector, &fakeBatchExtractor{}, runs,
		batchTestConfig([]string{"1"}, false))

	if _, err := svc.RunCollection(context.Background(), "2025-12-02", nil); err == nil {
		t.Fatal("RunCollection() should fail when run log cannot be created")
	}
	if len(collector.processed) != 0 {
		t.Error("collection must not start without a run log")
	}
}

func TestRunAnalysisCoversAllPeriods(t *testing.T) {
	extractor := &fakeBatchExtractor{}
	runs := &fakeRunLogStore{}
	svc := NewBatchService(&fakeBatchCollector{}, extractor, runs,
		batchTestConfig([]string{"15", "24"}, false))

	run, err := svc.RunAnalysis(context.Background(), "2025-12-02", nil)
	if err != nil {
		t.Fatalf("RunAnalysis() error = %v", err)
	}
	if run.Status != model.BatchStatusSuccess {
		t.Errorf("status = %s, want %s", run.Status, model.BatchStatusSuccess)
	}
	// 2 分类 × 3 周期
	if len(extractor.calls) != 6 {
		t.Errorf("extract calls = %d, want 6: %v", len(extractor.calls), extractor.calls)
	}
	if run.Metadata.TotalKeywords != 42 {
		t.Errorf("total_keywords = %d, want 42", run.Metadata.TotalKeywords)
	}
}

func TestRunAnalysisPartialSuccess(t *testing.T) {
	extractor := &fakeBatchExtractor{failCategory: "24"}
	runs := &fakeRunLogStore{}
	svc := NewBatchService(&fakeBatchCollector{}, extractor, runs,
		batchTestConfig([]string{"15", "24"}, false))

	run, err := svc.RunAnalysis(context.Background(), "2025-12-02", nil)
	if err != nil {
		t.Fatalf("RunAnalysis() error = %v", err)
	}
	if run.Status != model.BatchStatusPartialSuccess {
		t.Errorf("status = %s, want %s", run.Status, model.BatchStatusPartialSuccess)
	}
	// 失败分类的 3 个周期各记一次
	if run.Metadata.FailureCount != 3 {
		t.Errorf("failure_count = %d, want 3", run.Metadata.FailureCount)
	}
	if len(extractor.calls) != 6 {
		t.Errorf("extract calls = %d, want 6 (failures must not abort)", len(extractor.calls))
	}
}

func TestFinishPublishesEvent(t *testing.T) {
	runs := &fakeRunLogStore{}
	svc := NewBatchService(&fakeBatchCollector{}, &fakeBatchExtractor{}, runs,
		batchTestConfig([]string{"1"}, false))

	var published *infraKafka.BatchCompletedEvent
	svc.Publish = func(_ context.Context, event *infraKafka.BatchCompletedEvent) error {
		published = event
		return nil
	}

	run, err := svc.RunCollection(context.Background(), "2025-12-02", nil)
	if err != nil {
		t.Fatalf("RunCollection() error = %v", err)
	}
	if published == nil {
		t.Fatal("completed event not published")
	}
	if published.RunID != run.ID || published.Status != model.BatchStatusSuccess {
		t.Errorf("unexpected event: %+v", published)
	}
	if published.TotalVideos != 2 {
		t.Errorf("event total_videos = %d, want 2", published.TotalVideos)
	}
}

func TestFinishPublishFailureIsNonFatal(t *testing.T) {
	svc := NewBatchService(&fakeBatchCollector{}, &fakeBatchExtractor{}, &fakeRunLogStore{},
		batchTestConfig([]string{"1"}, false))
	svc.Publish = func(_ context.Context, _ *infraKafka.BatchCompletedEvent) error {
		return errors.New("broker unreachable")
	}

	run, err := svc.RunCollection(context.Background(), "2025-12-02", nil)
	if err != nil {
		t.Fatalf("publish failure must not fail the run, got %v", err)
	}
	if run.Status != model.BatchStatusSuccess {
		t.Errorf("status = %s, want %s", run.Status, model.BatchStatusSuccess)
	}
}

func TestRunCollectionCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runs := &fakeRunLogStore{}
	cfg := batchTestConfig([]string{"1", "2"}, false)
	cfg.PaceMs = 10
	svc := NewBatchService(&fakeBatchCollector{}, &fakeBatchExtractor{}, runs, cfg)

	run, err := svc.RunCollection(ctx, "2025-12-02", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	// 被取消的运行停在 running，由监控侧按过期处理
	if run.Status != model.BatchStatusRunning {
		t.Errorf("status = %s, want %s", run.Status, model.BatchStatusRunning)
	}
}

func TestListRunsClampsPaging(t *testing.T) {
	runs := &fakeRunLogStore{}
	for i := 0; i < 3; i++ {
		_ = runs.Create(&model.BatchRunLog{BatchType: model.BatchTypeCollection, Status: model.BatchStatusSuccess})
	}
	svc := NewBatchService(&fakeBatchCollector{}, &fakeBatchExtractor{}, runs,
		batchTestConfig([]string{"1"}, false))

	list, total, err := svc.ListRuns("", -5, -1)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if total != 3 || len(list) != 3 {
		t.Errorf("ListRuns() = %d/%d, want 3/3", len(list), total)
	}
}
