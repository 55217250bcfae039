package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"trend-go/internal/config"
	infraES "trend-go/internal/infra/elasticsearch"
	infraRedis "trend-go/internal/infra/redis"
	"trend-go/internal/model"
	"trend-go/pkg/logger"
	"trend-go/pkg/tokenizer"

	"go.uber.org/zap"
)

var (
	ErrInvalidPeriod   = errors.New("无效的统计周期")
	ErrInvalidDate     = errors.New("无效的快照日期")
	ErrNoKeywordData   = errors.New("该键没有关键词数据")
	ErrEmptySearchTerm = errors.New("搜索词不能为空")
)

const (
	// DateLayout 快照日期格式
	DateLayout = "2006-01-02"

	// sampleSize 每个关键词保留的示例视频数
	sampleSize = 3

	// baselineWindows 趋势基线取最近几个历史窗口
	baselineWindows = 4

	// trendScoreCap 趋势比值上限，防止极小基线放大成天文数字
	trendScoreCap = 10.0

	// newKeywordTrendScore 没有历史基线的新词的趋势分（“新近蹿升”）
	newKeywordTrendScore = 2.0
)

// SnapshotReader 关键词引擎的快照读取接口
type SnapshotReader interface {
	ListBetween(startDate, endDate, categoryID, regionCode string) ([]model.VideoSnapshot, error)
}

// KeywordStore 关键词趋势存取接口
type KeywordStore interface {
	ReplaceForKey(snapshotDate, categoryID, period, regionCode string, trends []model.CategoryKeywordTrend) error
	ListHistory(categoryID, period, regionCode, beforeDate, sinceDate string, keywords []string) ([]model.CategoryKeywordTrend, error)
	ListByKey(snapshotDate, categoryID, period, regionCode, sortBy string, limit int) ([]model.CategoryKeywordTrend, error)
	LatestDate(categoryID, period, regionCode string) (string, error)
	SearchKeywords(q string, limit int) ([]model.CategoryKeywordTrend, error)
}

// TrendScorer 趋势分计算函数：当前窗口强度 × 历史基线（最近在前）→ 比值。
// 可替换，便于调整基线口径。
type TrendScorer func(current float64, history []float64) float64

// DefaultTrendScorer 默认趋势分：最近 baselineWindows 个历史窗口
// raw_score 的均值作基线，取比值并封顶；无基线的新词给固定高分
func DefaultTrendScorer(current float64, history []float64) float64 {
	if len(history) > baselineWindows {
		history = history[:baselineWindows]
	}
	if len(history) == 0 {
		return newKeywordTrendScore
	}

	var sum float64
	for _, h := range history {
		sum += h
	}
	baseline := sum / float64(len(history))
	if baseline <= 0 {
		return newKeywordTrendScore
	}

	ratio := current / baseline
	if ratio > trendScoreCap {
		return trendScoreCap
	}
	return ratio
}

// KeywordService 关键词抽取与打分引擎。
// 关键词趋势表的写入只由本服务负责。
type KeywordService struct {
	snapshots SnapshotReader
	store     KeywordStore

	minPoolSize      int
	minKeywordVideos int
	topKeywords      int

	// TrendScore 趋势分口径，可替换
	TrendScore TrendScorer
}

func NewKeywordService(snapshots SnapshotReader, store KeywordStore, cfg *config.BatchConfig) *KeywordService {
	return &KeywordService{
		snapshots:        snapshots,
		store:            store,
		minPoolSize:      cfg.MinPoolSize,
		minKeywordVideos: cfg.MinKeywordVideos,
		topKeywords:      cfg.TopKeywords,
		TrendScore:       DefaultTrendScorer,
	}
}

// engagementWeight 单个视频的互动加权贡献。
// 对数衰减保证分数随各项计数单调上升，同时压制极端爆款的支配作用。
func engagementWeight(v *model.VideoSnapshot) float64 {
	return math.Log10(1+float64(v.ViewCount)) +
		2*math.Log10(1+float64(v.LikeCount)) +
		3*math.Log10(1+float64(v.CommentCount))
}

// keywordAgg 窗口内单个关键词的聚合状态
type keywordAgg struct {
	keyword  string
	rawScore float64
	videos   []contribVideo
}

type contribVideo struct {
	videoID string
	title   string
	weight  float64
}

// Extract 对 (快照日, 分类, 周期, 地区) 执行关键词抽取与打分，
// 返回落库的关键词条数。
// 样本不足时跳过（质量闸门，返回 0 且不报错）；
// 落库为对该键的整体替换。
func (s *KeywordService) Extract(ctx context.Context, snapshotDate, categoryID, period, regionCode string) (int, error) {
	windowDays, err := resolveWindow(period)
	if err != nil {
		return 0, err
	}

	end, err := time.Parse(DateLayout, snapshotDate)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidDate, snapshotDate)
	}
	startDate := end.AddDate(0, 0, -(windowDays - 1)).Format(DateLayout)

	rows, err := s.snapshots.ListBetween(startDate, snapshotDate, categoryID, regionCode)
	if err != nil {
		return 0, fmt.Errorf("load keyword pool for %s/%s/%s@%s: %w",
			categoryID, regionCode, period, snapshotDate, err)
	}

	// 同一视频在窗口内出现多天时只取最近一天的累计计数
	pool := dedupeLatest(rows)

	if len(pool) < s.minPoolSize {
		logger.Info("Keyword extraction skipped: pool too small",
			zap.String("snapshot_date", snapshotDate),
			zap.String("category_id", categoryID),
			zap.String("period", period),
			zap.String("region", regionCode),
			zap.Int("pool_size", len(pool)),
			zap.Int("min_pool_size", s.minPoolSize),
		)
		return 0, nil
	}

	aggs := s.aggregate(pool)
	trends := s.buildTrends(snapshotDate, categoryID, period, regionCode, windowDays, aggs)

	if err := s.store.ReplaceForKey(snapshotDate, categoryID, period, regionCode, trends); err != nil {
		return 0, fmt.Errorf("replace keywords for %s/%s/%s@%s: %w",
			categoryID, regionCode, period, snapshotDate, err)
	}

	logger.Info("Keywords extracted",
		zap.String("snapshot_date", snapshotDate),
		zap.String("category_id", categoryID),
		zap.String("period", period),
		zap.String("region", regionCode),
		zap.Int("pool_size", len(pool)),
		zap.Int("keywords", len(trends)),
	)

	// ES 同步尽力而为，失败不影响抽取结果
	if err := s.syncTrendsToES(ctx, trends); err != nil {
		logger.Warn("Sync keyword trends to ES failed", zap.Error(err))
	}

	return len(trends), nil
}

// resolveWindow 校验周期并返回滚动窗口天数
func resolveWindow(period string) (int, error) {
	switch period {
	case model.PeriodDaily, model.PeriodWeekly, model.PeriodMonthly:
		return model.PeriodWindowDays(period), nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrInvalidPeriod, period)
	}
}

// dedupeLatest 按 video_id 去重，保留快照日期最新的一行
func dedupeLatest(rows []model.VideoSnapshot) []model.VideoSnapshot {
	latest := make(map[string]model.VideoSnapshot, len(rows))
	for _, row := range rows {
		if prev, ok := latest[row.VideoID]; !ok || row.SnapshotDate > prev.SnapshotDate {
			latest[row.VideoID] = row
		}
	}

	pool := make([]model.VideoSnapshot, 0, len(latest))
	for _, row := range latest {
		pool = append(pool, row)
	}
	// map 遍历无序，排序保证结果可复现
	sort.Slice(pool, func(i, j int) bool { return pool[i].VideoID < pool[j].VideoID })
	return pool
}

// aggregate 对候选池逐标题分词并累计每个关键词的出现视频与加权强度
func (s *KeywordService) aggregate(pool []model.VideoSnapshot) map[string]*keywordAgg {
	aggs := make(map[string]*keywordAgg)

	for i := range pool {
		v := &pool[i]
		weight := engagementWeight(v)

		// 同一标题里的重复词只算一次视频贡献
		seen := make(map[string]bool)
		for _, token := range tokenizer.Tokenize(v.Title) {
			if seen[token] {
				continue
			}
			seen[token] = true

			agg, ok := aggs[token]
			if !ok {
				agg = &keywordAgg{keyword: token}
				aggs[token] = agg
			}
			agg.rawScore += weight
			agg.videos = append(agg.videos, contribVideo{
				videoID: v.VideoID,
				title:   v.Title,
				weight:  weight,
			})
		}
	}

	return aggs
}

// buildTrends 过滤单视频偶然词、计算趋势分并组装落库行
func (s *KeywordService) buildTrends(snapshotDate, categoryID, period, regionCode string, windowDays int, aggs map[string]*keywordAgg) []model.CategoryKeywordTrend {
	candidates := make([]*keywordAgg, 0, len(aggs))
	for _, agg := range aggs {
		if len(agg.videos) < s.minKeywordVideos {
			continue
		}
		candidates = append(candidates, agg)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].rawScore != candidates[j].rawScore {
			return candidates[i].rawScore > candidates[j].rawScore
		}
		return candidates[i].keyword < candidates[j].keyword
	})
	if len(candidates) > s.topKeywords {
		candidates = candidates[:s.topKeywords]
	}

	history := s.loadHistory(snapshotDate, categoryID, period, regionCode, windowDays, candidates)

	trends := make([]model.CategoryKeywordTrend, 0, len(candidates))
	for _, agg := range candidates {
		// 示例取窗口内表现最好的几条视频
		sort.SliceStable(agg.videos, func(i, j int) bool {
			return agg.videos[i].weight > agg.videos[j].weight
		})
		n := len(agg.videos)
		if n > sampleSize {
			n = sampleSize
		}
		titles := make([]string, 0, n)
		videoIDs := make([]string, 0, n)
		for _, cv := range agg.videos[:n] {
			titles = append(titles, cv.title)
			videoIDs = append(videoIDs, cv.videoID)
		}

		trends = append(trends, model.CategoryKeywordTrend{
			SnapshotDate:   snapshotDate,
			CategoryID:     categoryID,
			Period:         period,
			RegionCode:     regionCode,
			Keyword:        agg.keyword,
			RawScore:       agg.rawScore,
			TrendScore:     s.TrendScore(agg.rawScore, history[agg.keyword]),
			VideoCount:     len(agg.videos),
			SampleTitles:   titles,
			SampleVideoIDs: videoIDs,
		})
	}

	return trends
}

// loadHistory 加载候选词的历史 raw_score（按关键词分组，最近在前）
func (s *KeywordService) loadHistory(snapshotDate, categoryID, period, regionCode string, windowDays int, candidates []*keywordAgg) map[string][]float64 {
	history := make(map[string][]float64, len(candidates))
	if len(candidates) == 0 {
		return history
	}

	keywords := make([]string, 0, len(candidates))
	for _, agg := range candidates {
		keywords = append(keywords, agg.keyword)
	}

	end, _ := time.Parse(DateLayout, snapshotDate)
	sinceDate := end.AddDate(0, 0, -windowDays*baselineWindows).Format(DateLayout)

	rows, err := s.store.ListHistory(categoryID, period, regionCode, snapshotDate, sinceDate, keywords)
	if err != nil {
		// 基线缺失时按新词处理，不阻断抽取
		logger.Warn("Load keyword history failed, treating keywords as new",
			zap.String("category_id", categoryID),
			zap.String("period", period),
			zap.Error(err),
		)
		return history
	}

	for _, row := range rows {
		if len(history[row.Keyword]) >= baselineWindows {
			continue
		}
		history[row.Keyword] = append(history[row.Keyword], row.RawScore)
	}
	return history
}

// GetTopKeywords 查询某键的 top 关键词（读路径，带 Redis 缓存）。
// 未指定日期时取该键最近一次抽取的日期；没有数据返回 ErrNoKeywordData。
func (s *KeywordService) GetTopKeywords(ctx context.Context, snapshotDate, categoryID, period, regionCode, sortBy string, limit int) ([]model.CategoryKeywordTrend, string, error) {
	if _, err := resolveWindow(period); err != nil {
		return nil, "", err
	}
	if sortBy != "trend_score" {
		sortBy = "raw_score"
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	if snapshotDate == "" {
		latest, err := s.store.LatestDate(categoryID, period, regionCode)
		if err != nil {
			return nil, "", err
		}
		if latest == "" {
			return nil, "", ErrNoKeywordData
		}
		snapshotDate = latest
	}

	cacheKey := fmt.Sprintf("trend:kw:%s:%s:%s:%s:%s:%d",
		categoryID, regionCode, period, snapshotDate, sortBy, limit)
	var cached []model.CategoryKeywordTrend
	if hit, err := infraRedis.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
		return cached, snapshotDate, nil
	}

	trends, err := s.store.ListByKey(snapshotDate, categoryID, period, regionCode, sortBy, limit)
	if err != nil {
		return nil, "", err
	}
	if len(trends) == 0 {
		return nil, "", ErrNoKeywordData
	}

	if infraRedis.Get() != nil {
		if err := infraRedis.SetJSON(ctx, cacheKey, trends, config.GetRedis().CacheTTLDuration()); err != nil {
			logger.Warn("Cache keyword trends failed", zap.Error(err))
		}
	}

	return trends, snapshotDate, nil
}

// SearchKeywords 跨分类关键词检索：ES 优先，失败降级到 DB
func (s *KeywordService) SearchKeywords(ctx context.Context, q string, limit int) ([]model.CategoryKeywordTrend, error) {
	if q == "" {
		return nil, ErrEmptySearchTerm
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	if infraES.Enabled() {
		trends, err := s.searchFromES(ctx, q, limit)
		if err == nil {
			return trends, nil
		}
		logger.Warn("ES keyword search failed, fallback to DB", zap.Error(err))
	}

	return s.store.SearchKeywords(q, limit)
}

// esTrendDoc keyword_trends 索引文档
type esTrendDoc struct {
	Keyword      string   `json:"keyword"`
	SnapshotDate string   `json:"snapshot_date"`
	CategoryID   string   `json:"category_id"`
	RegionCode   string   `json:"region_code"`
	Period       string   `json:"period"`
	RawScore     float64  `json:"raw_score"`
	TrendScore   float64  `json:"trend_score"`
	VideoCount   int      `json:"video_count"`
	SampleTitles []string `json:"sample_titles,omitempty"`
}

func (s *KeywordService) searchFromES(ctx context.Context, q string, limit int) ([]model.CategoryKeywordTrend, error) {
	query := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"match": map[string]interface{}{
				"keyword": q,
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"snapshot_date": map[string]interface{}{"order": "desc"}},
			map[string]interface{}{"raw_score": map[string]interface{}{"order": "desc"}},
		},
	}
	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	resp, err := infraES.Search(ctx, infraES.KeywordTrendsIndexName(), bytes.NewReader(queryJSON))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, fmt.Errorf("ES search error: %s", resp.String())
	}

	var esResp struct {
		Hits struct {
			Hits []struct {
				Source esTrendDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&esResp); err != nil {
		return nil, err
	}

	trends := make([]model.CategoryKeywordTrend, 0, len(esResp.Hits.Hits))
	for _, hit := range esResp.Hits.Hits {
		doc := hit.Source
		trends = append(trends, model.CategoryKeywordTrend{
			Keyword:      doc.Keyword,
			SnapshotDate: doc.SnapshotDate,
			CategoryID:   doc.CategoryID,
			RegionCode:   doc.RegionCode,
			Period:       doc.Period,
			RawScore:     doc.RawScore,
			TrendScore:   doc.TrendScore,
			VideoCount:   doc.VideoCount,
			SampleTitles: doc.SampleTitles,
		})
	}
	return trends, nil
}

// syncTrendsToES 将新一批关键词趋势批量写入 ES（ES 未启用时跳过）
func (s *KeywordService) syncTrendsToES(ctx context.Context, trends []model.CategoryKeywordTrend) error {
	if !infraES.Enabled() || len(trends) == 0 {
		return nil
	}

	indexName := infraES.KeywordTrendsIndexName()
	var buf bytes.Buffer

	for _, t := range trends {
		docID := fmt.Sprintf("%s:%s:%s:%s:%s",
			t.SnapshotDate, t.CategoryID, t.Period, t.RegionCode, t.Keyword)
		action := map[string]interface{}{
			"index": map[string]interface{}{"_index": indexName, "_id": docID},
		}
		actionJSON, err := json.Marshal(action)
		if err != nil {
			return err
		}
		docJSON, err := json.Marshal(esTrendDoc{
			Keyword:      t.Keyword,
			SnapshotDate: t.SnapshotDate,
			CategoryID:   t.CategoryID,
			RegionCode:   t.RegionCode,
			Period:       t.Period,
			RawScore:     t.RawScore,
			TrendScore:   t.TrendScore,
			VideoCount:   t.VideoCount,
			SampleTitles: t.SampleTitles,
		})
		if err != nil {
			return err
		}
		buf.Write(actionJSON)
		buf.WriteByte('\n')
		buf.Write(docJSON)
		buf.WriteByte('\n')
	}

	resp, err := infraES.Bulk(ctx, &buf)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return fmt.Errorf("ES bulk error: %s", resp.String())
	}
	return nil
}
