package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"trend-go/internal/config"
	"trend-go/internal/model"
	"trend-go/internal/platform/youtube"
)

// fakeFeed 可编程的上游数据源
type fakeFeed struct {
	videos []youtube.Video
	err    error
}

func (f *fakeFeed) FetchPopular(_ context.Context, _, _ string) ([]youtube.Video, error) {
	return f.videos, f.err
}

// fakeSnapshotStore 以键覆盖写模拟 upsert
type fakeSnapshotStore struct {
	rows       map[string]model.VideoSnapshot
	upsertErr  error
	upsertCall int
}

func newFakeSnapshotStore() *fakeSnapshotStore {
	return &fakeSnapshotStore{rows: make(map[string]model.VideoSnapshot)}
}

func (f *fakeSnapshotStore) Upsert(snapshots []model.VideoSnapshot) error {
	f.upsertCall++
	if f.upsertErr != nil {
		return f.upsertErr
	}
	for _, s := range snapshots {
		key := fmt.Sprintf("%s|%s|%s|%s", s.VideoID, s.SnapshotDate, s.CategoryID, s.RegionCode)
		f.rows[key] = s
	}
	return nil
}

func testBatchConfig() *config.BatchConfig {
	return &config.BatchConfig{
		ShortsMaxSec:     61,
		MinPoolSize:      5,
		MinKeywordVideos: 2,
		TopKeywords:      50,
	}
}

func TestIsShortFormBoundary(t *testing.T) {
	svc := NewCollectorService(&fakeFeed{}, newFakeSnapshotStore(), testBatchConfig())

	tests := []struct {
		durationSec int
		want        bool
	}{
		{0, true},
		{30, true},
		{60, true},
		{61, true}, // 阈值本身算短视频
		{62, false},
		{120, false},
		{3600, false},
	}

	for _, tt := range tests {
		if got := svc.IsShortForm(tt.durationSec); got != tt.want {
			t.Errorf("IsShortForm(%d) = %v, want %v", tt.durationSec, got, tt.want)
		}
	}
}

func TestCollectNormalizes(t *testing.T) {
	published := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)
	feed := &fakeFeed{videos: []youtube.Video{
		{
			ID: "vid-1", Title: "강아지 산책", ChannelID: "ch-1", ChannelTitle: "멍멍채널",
			ViewCount: 50000, LikeCount: 1200, CommentCount: 300,
			DurationSec: 45, PublishedAt: published, ThumbnailURL: "https://img/1.jpg",
		},
		{
			ID: "vid-2", Title: "다큐멘터리", DurationSec: 1800,
		},
	}}
	svc := NewCollectorService(feed, newFakeSnapshotStore(), testBatchConfig())

	got, err := svc.Collect(context.Background(), "15", "KR")
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Collect() returned %d rows, want 2", len(got))
	}

	first := got[0]
	if first.VideoID != "vid-1" || first.CategoryID != "15" || first.RegionCode != "KR" {
		t.Errorf("unexpected identity fields: %+v", first)
	}
	if !first.IsShorts {
		t.Error("45s video should be classified as shorts")
	}
	if first.ViewCount != 50000 || first.LikeCount != 1200 || first.CommentCount != 300 {
		t.Errorf("counts not normalized: %+v", first)
	}
	if !first.PublishedAt.Equal(published) {
		t.Errorf("PublishedAt = %v, want %v", first.PublishedAt, published)
	}

	// 长视频保留，靠 is_shorts 区分
	if got[1].IsShorts {
		t.Error("1800s video should not be classified as shorts")
	}
}

func TestCollectPartialResult(t *testing.T) {
	upstreamErr := errors.New("quota exceeded")
	feed := &fakeFeed{
		videos: []youtube.Video{{ID: "vid-1", Title: "첫 페이지", DurationSec: 30}},
		err:    upstreamErr,
	}
	svc := NewCollectorService(feed, newFakeSnapshotStore(), testBatchConfig())

	got, err := svc.Collect(context.Background(), "15", "KR")
	if !errors.Is(err, upstreamErr) {
		t.Fatalf("Collect() error = %v, want wrapped %v", err, upstreamErr)
	}
	if len(got) != 1 {
		t.Fatalf("partial result lost: got %d rows, want 1", len(got))
	}
}

func TestPersistIdempotent(t *testing.T) {
	store := newFakeSnapshotStore()
	svc := NewCollectorService(&fakeFeed{}, store, testBatchConfig())

	videos := []model.VideoSnapshot{
		{VideoID: "vid-1", Title: "강아지", ViewCount: 100, IsShorts: true},
		{VideoID: "vid-2", Title: "고양이", ViewCount: 200, IsShorts: true},
	}

	count1, err := svc.Persist(videos, "2025-12-02", "15", "KR")
	if err != nil {
		t.Fatalf("first Persist() error = %v", err)
	}
	firstRows := make(map[string]model.VideoSnapshot, len(store.rows))
	for k, v := range store.rows {
		firstRows[k] = v
	}

	count2, err := svc.Persist(videos, "2025-12-02", "15", "KR")
	if err != nil {
		t.Fatalf("second Persist() error = %v", err)
	}

	if count1 != 2 || count2 != 2 {
		t.Errorf("counts = %d, %d, want 2, 2", count1, count2)
	}
	if len(store.rows) != 2 {
		t.Errorf("re-run created %d rows, want 2 (no duplicates)", len(store.rows))
	}
	if !reflect.DeepEqual(firstRows, store.rows) {
		t.Error("re-run produced different rows, want bit-identical result")
	}
}

func TestPersistStampsKey(t *testing.T) {
	store := newFakeSnapshotStore()
	svc := NewCollectorService(&fakeFeed{}, store, testBatchConfig())

	if _, err := svc.Persist([]model.VideoSnapshot{{VideoID: "vid-1"}}, "2025-12-02", "15", "KR"); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	row, ok := store.rows["vid-1|2025-12-02|15|KR"]
	if !ok {
		t.Fatalf("row not stored under composite key, got keys %v", store.rows)
	}
	if row.SnapshotDate != "2025-12-02" || row.CategoryID != "15" || row.RegionCode != "KR" {
		t.Errorf("key fields not stamped: %+v", row)
	}
}

func TestPersistEmpty(t *testing.T) {
	store := newFakeSnapshotStore()
	svc := NewCollectorService(&fakeFeed{}, store, testBatchConfig())

	count, err := svc.Persist(nil, "2025-12-02", "15", "KR")
	if err != nil || count != 0 {
		t.Errorf("Persist(nil) = (%d, %v), want (0, nil)", count, err)
	}
	if store.upsertCall != 0 {
		t.Error("empty persist should not touch the store")
	}
}
