package service

import (
	"context"
	"testing"

	"trend-go/internal/api/dto"
	"trend-go/internal/model"
)

// fakeRankingReader 按日期/类型过滤的内存快照源
type fakeRankingReader struct {
	rows []model.VideoSnapshot
}

func (f *fakeRankingReader) ListForRanking(snapshotDate, categoryID, regionCode string, shortsFilter *bool) ([]model.VideoSnapshot, error) {
	var out []model.VideoSnapshot
	for _, row := range f.rows {
		if row.SnapshotDate != snapshotDate || row.CategoryID != categoryID || row.RegionCode != regionCode {
			continue
		}
		if shortsFilter != nil && row.IsShorts != *shortsFilter {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeRankingReader) LatestDate(categoryID, regionCode string, shortsFilter *bool) (string, error) {
	latest := ""
	for _, row := range f.rows {
		if row.CategoryID != categoryID || row.RegionCode != regionCode {
			continue
		}
		if shortsFilter != nil && row.IsShorts != *shortsFilter {
			continue
		}
		if row.SnapshotDate > latest {
			latest = row.SnapshotDate
		}
	}
	return latest, nil
}

func rankingRow(videoID, date string, views, likes int64, shorts bool) model.VideoSnapshot {
	return model.VideoSnapshot{
		VideoID:      videoID,
		SnapshotDate: date,
		CategoryID:   "15",
		RegionCode:   "KR",
		Title:        videoID,
		ViewCount:    views,
		LikeCount:    likes,
		IsShorts:     shorts,
	}
}

func TestGetRankingOrderAndRanks(t *testing.T) {
	reader := &fakeRankingReader{rows: []model.VideoSnapshot{
		rankingRow("v-low", "2025-12-02", 100, 5, true),
		rankingRow("v-high", "2025-12-02", 90000, 10, true),
		rankingRow("v-mid", "2025-12-02", 5000, 500, true),
		// 并列观看数，视频ID 决定次序
		rankingRow("v-tie-b", "2025-12-02", 5000, 1, true),
	}}
	svc := NewRankingService(reader)

	data, err := svc.GetRanking(context.Background(), &dto.RankingRequest{
		CategoryID: "15", RegionCode: "KR", SnapshotDate: "2025-12-02",
	})
	if err != nil {
		t.Fatalf("GetRanking() error = %v", err)
	}

	wantOrder := []string{"v-high", "v-mid", "v-tie-b", "v-low"}
	if len(data.Entries) != len(wantOrder) {
		t.Fatalf("entries = %d, want %d", len(data.Entries), len(wantOrder))
	}
	for i, want := range wantOrder {
		e := data.Entries[i]
		if e.VideoID != want {
			t.Errorf("entry[%d] = %s, want %s", i, e.VideoID, want)
		}
		if e.Rank != i+1 {
			t.Errorf("entry[%d].Rank = %d, want %d (positional, no shared ranks)", i, e.Rank, i+1)
		}
	}
	if data.Metric != MetricView || data.Type != TypeShorts {
		t.Errorf("defaults not applied: metric=%s type=%s", data.Metric, data.Type)
	}
}

func TestGetRankingMetricAndTypeFilter(t *testing.T) {
	reader := &fakeRankingReader{rows: []model.VideoSnapshot{
		rankingRow("short-1", "2025-12-02", 100, 900, true),
		rankingRow("short-2", "2025-12-02", 200, 100, true),
		rankingRow("long-1", "2025-12-02", 99999, 99999, false),
	}}
	svc := NewRankingService(reader)

	data, err := svc.GetRanking(context.Background(), &dto.RankingRequest{
		CategoryID: "15", RegionCode: "KR", SnapshotDate: "2025-12-02",
		Metric: MetricLike, Type: TypeShorts,
	})
	if err != nil {
		t.Fatalf("GetRanking() error = %v", err)
	}

	if len(data.Entries) != 2 {
		t.Fatalf("shorts filter leaked long-form: %d entries", len(data.Entries))
	}
	if data.Entries[0].VideoID != "short-1" {
		t.Errorf("like metric top = %s, want short-1", data.Entries[0].VideoID)
	}
	if data.Entries[0].MetricValue != 900 {
		t.Errorf("metric_value = %d, want 900", data.Entries[0].MetricValue)
	}
}

func TestGetRankingLatestDateResolution(t *testing.T) {
	reader := &fakeRankingReader{rows: []model.VideoSnapshot{
		rankingRow("v-old", "2025-12-01", 100, 0, true),
		rankingRow("v-new", "2025-12-02", 200, 0, true),
	}}
	svc := NewRankingService(reader)

	data, err := svc.GetRanking(context.Background(), &dto.RankingRequest{
		CategoryID: "15", RegionCode: "KR",
	})
	if err != nil {
		t.Fatalf("GetRanking() error = %v", err)
	}
	if data.SnapshotDate != "2025-12-02" {
		t.Errorf("resolved date = %s, want latest 2025-12-02", data.SnapshotDate)
	}
	if len(data.Entries) != 1 || data.Entries[0].VideoID != "v-new" {
		t.Errorf("unexpected entries: %+v", data.Entries)
	}
}

func TestGetRankingInvalidInputs(t *testing.T) {
	svc := NewRankingService(&fakeRankingReader{})

	if _, err := svc.GetRanking(context.Background(), &dto.RankingRequest{
		CategoryID: "15", RegionCode: "KR", Metric: "share",
	}); err == nil {
		t.Error("invalid metric should fail")
	}
	if _, err := svc.GetRanking(context.Background(), &dto.RankingRequest{
		CategoryID: "15", RegionCode: "KR", Type: "live",
	}); err == nil {
		t.Error("invalid type should fail")
	}
	if _, err := svc.GetRanking(context.Background(), &dto.RankingRequest{
		CategoryID: "15", RegionCode: "KR",
	}); err != ErrNoSnapshotData {
		t.Errorf("empty store error = %v, want ErrNoSnapshotData", err)
	}
}

func TestGetDeltaRankingOmitsMissingPriorDay(t *testing.T) {
	reader := &fakeRankingReader{rows: []model.VideoSnapshot{
		// 两天都在：增量可计算
		rankingRow("v-both", "2025-12-01", 1000, 0, true),
		rankingRow("v-both", "2025-12-02", 4000, 0, true),
		rankingRow("v-small", "2025-12-01", 500, 0, true),
		rankingRow("v-small", "2025-12-02", 600, 0, true),
		// 只有当天：前日无快照，增量未定义，剔除
		rankingRow("v-new", "2025-12-02", 999999, 0, true),
	}}
	svc := NewRankingService(reader)

	data, err := svc.GetDeltaRanking(context.Background(), &dto.RankingRequest{
		CategoryID: "15", RegionCode: "KR", SnapshotDate: "2025-12-02",
	})
	if err != nil {
		t.Fatalf("GetDeltaRanking() error = %v", err)
	}

	if data.PreviousDate != "2025-12-01" {
		t.Errorf("previous_date = %s, want 2025-12-01", data.PreviousDate)
	}
	if len(data.Entries) != 2 {
		t.Fatalf("entries = %d, want 2 (v-new omitted, not zeroed)", len(data.Entries))
	}
	top := data.Entries[0]
	if top.VideoID != "v-both" || top.Delta != 3000 || top.PreviousValue != 1000 || top.CurrentValue != 4000 {
		t.Errorf("unexpected top delta entry: %+v", top)
	}
	if data.Entries[1].VideoID != "v-small" || data.Entries[1].Delta != 100 {
		t.Errorf("unexpected second entry: %+v", data.Entries[1])
	}
}

func TestGetDeltaRankingNoData(t *testing.T) {
	svc := NewRankingService(&fakeRankingReader{})
	if _, err := svc.GetDeltaRanking(context.Background(), &dto.RankingRequest{
		CategoryID: "15", RegionCode: "KR", SnapshotDate: "2025-12-02",
	}); err != ErrNoSnapshotData {
		t.Errorf("error = %v, want ErrNoSnapshotData", err)
	}
}
