package service

import (
	"context"
	"fmt"

	"trend-go/internal/config"
	"trend-go/internal/model"
	"trend-go/internal/platform/youtube"
	"trend-go/pkg/logger"

	"go.uber.org/zap"
)

// PopularFeed 上游人气视频查询接口
type PopularFeed interface {
	FetchPopular(ctx context.Context, categoryID, regionCode string) ([]youtube.Video, error)
}

// SnapshotWriter 快照写入接口
type SnapshotWriter interface {
	Upsert(snapshots []model.VideoSnapshot) error
}

// CollectorService 快照采集服务：拉取分类人气视频并按日幂等落库。
// 快照表的写入只由本服务负责。
type CollectorService struct {
	feed         PopularFeed
	store        SnapshotWriter
	shortsMaxSec int
}

func NewCollectorService(feed PopularFeed, store SnapshotWriter, cfg *config.BatchConfig) *CollectorService {
	return &CollectorService{
		feed:         feed,
		store:        store,
		shortsMaxSec: cfg.ShortsMaxSec,
	}
}

// IsShortForm 时长分类：小于等于阈值算短视频（边界取 true）
func (s *CollectorService) IsShortForm(durationSec int) bool {
	return durationSec <= s.shortsMaxSec
}

// Collect 拉取某分类/地区的人气视频并归一化为快照行（快照日期由 Persist 填写）。
// 长视频不过滤，靠 is_shorts 区分。某一页失败时返回已取到的部分结果和错误，
// 由调用方决定是否按分类级失败处理。
func (s *CollectorService) Collect(ctx context.Context, categoryID, regionCode string) ([]model.VideoSnapshot, error) {
	videos, fetchErr := s.feed.FetchPopular(ctx, categoryID, regionCode)

	snapshots := make([]model.VideoSnapshot, 0, len(videos))
	for _, v := range videos {
		snapshots = append(snapshots, model.VideoSnapshot{
			VideoID:      v.ID,
			CategoryID:   categoryID,
			RegionCode:   regionCode,
			Title:        v.Title,
			ChannelID:    v.ChannelID,
			ChannelTitle: v.ChannelTitle,
			ViewCount:    v.ViewCount,
			LikeCount:    v.LikeCount,
			CommentCount: v.CommentCount,
			DurationSec:  v.DurationSec,
			IsShorts:     s.IsShortForm(v.DurationSec),
			PublishedAt:  v.PublishedAt,
			ThumbnailURL: v.ThumbnailURL,
		})
	}

	if fetchErr != nil {
		logger.Warn("Collect returned partial result",
			zap.String("category_id", categoryID),
			zap.String("region", regionCode),
			zap.Int("collected", len(snapshots)),
			zap.Error(fetchErr),
		)
		return snapshots, fetchErr
	}

	return snapshots, nil
}

// Persist 将采集结果落库：按 (video_id, snapshotDate, categoryID, regionCode)
// 幂等 upsert，后写覆盖先写，同一输入重复调用结果一致
func (s *CollectorService) Persist(videos []model.VideoSnapshot, snapshotDate, categoryID, regionCode string) (int, error) {
	if len(videos) == 0 {
		return 0, nil
	}

	rows := make([]model.VideoSnapshot, 0, len(videos))
	for _, v := range videos {
		v.ID = 0
		v.SnapshotDate = snapshotDate
		v.CategoryID = categoryID
		v.RegionCode = regionCode
		rows = append(rows, v)
	}

	if err := s.store.Upsert(rows); err != nil {
		return 0, fmt.Errorf("persist snapshots for %s/%s@%s: %w",
			categoryID, regionCode, snapshotDate, err)
	}

	logger.Info("Snapshots persisted",
		zap.String("snapshot_date", snapshotDate),
		zap.String("category_id", categoryID),
		zap.String("region", regionCode),
		zap.Int("count", len(rows)),
	)

	return len(rows), nil
}
