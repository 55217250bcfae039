package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"trend-go/internal/api/dto"
	"trend-go/internal/config"
	infraRedis "trend-go/internal/infra/redis"
	"trend-go/internal/model"
	"trend-go/pkg/logger"

	"go.uber.org/zap"
)

var (
	ErrInvalidMetric  = errors.New("无效的排序指标")
	ErrInvalidType    = errors.New("无效的视频类型筛选")
	ErrNoSnapshotData = errors.New("该键没有快照数据")
)

// 排行指标
const (
	MetricView    = "view"
	MetricLike    = "like"
	MetricComment = "comment"
)

// 视频类型筛选
const (
	TypeShorts = "shorts"
	TypeLong   = "long"
	TypeAll    = "all"
)

// RankingReader 排行读路径的快照查询接口
type RankingReader interface {
	ListForRanking(snapshotDate, categoryID, regionCode string, shortsFilter *bool) ([]model.VideoSnapshot, error)
	LatestDate(categoryID, regionCode string, shortsFilter *bool) (string, error)
}

// RankingService 排行读取服务：对快照表做纯查询侧的累计/日增排序，
// 从不改动快照数据。
type RankingService struct {
	snapshots RankingReader
}

func NewRankingService(snapshots RankingReader) *RankingService {
	return &RankingService{snapshots: snapshots}
}

// normalizeRankingRequest 填充默认值并校验
func normalizeRankingRequest(req *dto.RankingRequest) (*bool, error) {
	if req.Metric == "" {
		req.Metric = MetricView
	}
	if req.Type == "" {
		req.Type = TypeShorts
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 50
	}

	switch req.Metric {
	case MetricView, MetricLike, MetricComment:
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidMetric, req.Metric)
	}

	switch req.Type {
	case TypeShorts:
		v := true
		return &v, nil
	case TypeLong:
		v := false
		return &v, nil
	case TypeAll:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidType, req.Type)
	}
}

// metricValue 取选定指标的累计值
func metricValue(v *model.VideoSnapshot, metric string) int64 {
	switch metric {
	case MetricLike:
		return v.LikeCount
	case MetricComment:
		return v.CommentCount
	default:
		return v.ViewCount
	}
}

// resolveDate 未显式给日期时取该键最近的快照日期
func (s *RankingService) resolveDate(req *dto.RankingRequest, shortsFilter *bool) (string, error) {
	if req.SnapshotDate != "" {
		return req.SnapshotDate, nil
	}
	latest, err := s.snapshots.LatestDate(req.CategoryID, req.RegionCode, shortsFilter)
	if err != nil {
		return "", err
	}
	if latest == "" {
		return "", ErrNoSnapshotData
	}
	return latest, nil
}

// GetRanking 按累计指标排行：稳定降序排序，名次按位置从 1 递增，并列不共享名次
func (s *RankingService) GetRanking(ctx context.Context, req *dto.RankingRequest) (*dto.RankingData, error) {
	shortsFilter, err := normalizeRankingRequest(req)
	if err != nil {
		return nil, err
	}

	snapshotDate, err := s.resolveDate(req, shortsFilter)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("trend:rank:%s:%s:%s:%s:%s:%d",
		req.CategoryID, req.RegionCode, snapshotDate, req.Metric, req.Type, req.Limit)
	var cached dto.RankingData
	if hit, err := infraRedis.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	rows, err := s.snapshots.ListForRanking(snapshotDate, req.CategoryID, req.RegionCode, shortsFilter)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoSnapshotData
	}

	sortSnapshots(rows, req.Metric)
	if len(rows) > req.Limit {
		rows = rows[:req.Limit]
	}

	entries := make([]dto.RankingEntry, 0, len(rows))
	for i := range rows {
		v := &rows[i]
		entries = append(entries, dto.RankingEntry{
			Rank:         i + 1,
			VideoID:      v.VideoID,
			Title:        v.Title,
			ChannelTitle: v.ChannelTitle,
			ViewCount:    v.ViewCount,
			LikeCount:    v.LikeCount,
			CommentCount: v.CommentCount,
			MetricValue:  metricValue(v, req.Metric),
			DurationSec:  v.DurationSec,
			IsShorts:     v.IsShorts,
			PublishedAt:  v.PublishedAt,
			ThumbnailURL: v.ThumbnailURL,
		})
	}

	data := &dto.RankingData{
		SnapshotDate: snapshotDate,
		CategoryID:   req.CategoryID,
		RegionCode:   req.RegionCode,
		Metric:       req.Metric,
		Type:         req.Type,
		Entries:      entries,
	}

	if infraRedis.Get() != nil {
		if err := infraRedis.SetJSON(ctx, cacheKey, data, config.GetRedis().CacheTTLDuration()); err != nil {
			logger.Warn("Cache ranking failed", zap.Error(err))
		}
	}

	return data, nil
}

// GetDeltaRanking 按日增指标排行：当天快照与前一天同键快照相减。
// 前一天没有对应行的视频增量未定义，直接剔除而不是按 0 处理。
func (s *RankingService) GetDeltaRanking(ctx context.Context, req *dto.RankingRequest) (*dto.DeltaRankingData, error) {
	shortsFilter, err := normalizeRankingRequest(req)
	if err != nil {
		return nil, err
	}

	snapshotDate, err := s.resolveDate(req, shortsFilter)
	if err != nil {
		return nil, err
	}

	day, err := time.Parse(DateLayout, snapshotDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDate, snapshotDate)
	}
	previousDate := day.AddDate(0, 0, -1).Format(DateLayout)

	current, err := s.snapshots.ListForRanking(snapshotDate, req.CategoryID, req.RegionCode, shortsFilter)
	if err != nil {
		return nil, err
	}
	if len(current) == 0 {
		return nil, ErrNoSnapshotData
	}

	previous, err := s.snapshots.ListForRanking(previousDate, req.CategoryID, req.RegionCode, shortsFilter)
	if err != nil {
		return nil, err
	}

	prevByVideo := make(map[string]*model.VideoSnapshot, len(previous))
	for i := range previous {
		prevByVideo[previous[i].VideoID] = &previous[i]
	}

	type deltaRow struct {
		cur   *model.VideoSnapshot
		prev  int64
		delta int64
	}
	rows := make([]deltaRow, 0, len(current))
	for i := range current {
		v := &current[i]
		p, ok := prevByVideo[v.VideoID]
		if !ok {
			continue
		}
		curVal := metricValue(v, req.Metric)
		prevVal := metricValue(p, req.Metric)
		rows = append(rows, deltaRow{cur: v, prev: prevVal, delta: curVal - prevVal})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].delta != rows[j].delta {
			return rows[i].delta > rows[j].delta
		}
		return rows[i].cur.VideoID < rows[j].cur.VideoID
	})
	if len(rows) > req.Limit {
		rows = rows[:req.Limit]
	}

	entries := make([]dto.DeltaRankingEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, dto.DeltaRankingEntry{
			Rank:          i + 1,
			VideoID:       row.cur.VideoID,
			Title:         row.cur.Title,
			ChannelTitle:  row.cur.ChannelTitle,
			CurrentValue:  metricValue(row.cur, req.Metric),
			PreviousValue: row.prev,
			Delta:         row.delta,
			IsShorts:      row.cur.IsShorts,
			ThumbnailURL:  row.cur.ThumbnailURL,
		})
	}

	return &dto.DeltaRankingData{
		SnapshotDate: snapshotDate,
		PreviousDate: previousDate,
		CategoryID:   req.CategoryID,
		RegionCode:   req.RegionCode,
		Metric:       req.Metric,
		Type:         req.Type,
		Entries:      entries,
	}, nil
}

// sortSnapshots 按指标稳定降序，视频ID 作并列时的次序键保证可复现
func sortSnapshots(rows []model.VideoSnapshot, metric string) {
	sort.SliceStable(rows, func(i, j int) bool {
		vi := metricValue(&rows[i], metric)
		vj := metricValue(&rows[j], metric)
		if vi != vj {
			return vi > vj
		}
		return rows[i].VideoID < rows[j].VideoID
	})
}
