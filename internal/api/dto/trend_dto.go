package dto

import "time"

// RankingRequest 排行查询请求
type RankingRequest struct {
	CategoryID   string `form:"category_id" binding:"required"`
	RegionCode   string `form:"region" binding:"required"`
	SnapshotDate string `form:"date" binding:"omitempty,len=10"`
	Metric       string `form:"metric" binding:"omitempty,oneof=view like comment"`
	Type         string `form:"type" binding:"omitempty,oneof=shorts long all"`
	Limit        int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// RankingEntry 排行条目，名次为排序结果中的位置（从 1 开始）
type RankingEntry struct {
	Rank         int       `json:"rank"`
	VideoID      string    `json:"video_id"`
	Title        string    `json:"title"`
	ChannelTitle string    `json:"channel_title"`
	ViewCount    int64     `json:"view_count"`
	LikeCount    int64     `json:"like_count"`
	CommentCount int64     `json:"comment_count"`
	MetricValue  int64     `json:"metric_value"`
	DurationSec  int       `json:"duration_sec"`
	IsShorts     bool      `json:"is_shorts"`
	PublishedAt  time.Time `json:"published_at"`
	ThumbnailURL string    `json:"thumbnail_url"`
}

// RankingData 排行响应数据
type RankingData struct {
	SnapshotDate string         `json:"snapshot_date"`
	CategoryID   string         `json:"category_id"`
	RegionCode   string         `json:"region_code"`
	Metric       string         `json:"metric"`
	Type         string         `json:"type"`
	Entries      []RankingEntry `json:"entries"`
}

// DeltaRankingEntry 日增排行条目。前一天没有同键快照的视频不参与
// （增量未定义，不按 0 处理）
type DeltaRankingEntry struct {
	Rank          int    `json:"rank"`
	VideoID       string `json:"video_id"`
	Title         string `json:"title"`
	ChannelTitle  string `json:"channel_title"`
	CurrentValue  int64  `json:"current_value"`
	PreviousValue int64  `json:"previous_value"`
	Delta         int64  `json:"delta"`
	IsShorts      bool   `json:"is_shorts"`
	ThumbnailURL  string `json:"thumbnail_url"`
}

// DeltaRankingData 日增排行响应数据
type DeltaRankingData struct {
	SnapshotDate string              `json:"snapshot_date"`
	PreviousDate string              `json:"previous_date"`
	CategoryID   string              `json:"category_id"`
	RegionCode   string              `json:"region_code"`
	Metric       string              `json:"metric"`
	Type         string              `json:"type"`
	Entries      []DeltaRankingEntry `json:"entries"`
}

// KeywordRequest 关键词查询请求
type KeywordRequest struct {
	CategoryID   string `form:"category_id" binding:"required"`
	RegionCode   string `form:"region" binding:"required"`
	Period       string `form:"period" binding:"omitempty,oneof=daily weekly monthly"`
	SnapshotDate string `form:"date" binding:"omitempty,len=10"`
	SortBy       string `form:"sort" binding:"omitempty,oneof=raw_score trend_score"`
	Limit        int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// KeywordInfo 关键词趋势条目
type KeywordInfo struct {
	Keyword        string   `json:"keyword"`
	RawScore       float64  `json:"raw_score"`
	TrendScore     float64  `json:"trend_score"`
	VideoCount     int      `json:"video_count"`
	SampleTitles   []string `json:"sample_titles"`
	SampleVideoIDs []string `json:"sample_video_ids"`
}

// KeywordData 关键词趋势响应数据
type KeywordData struct {
	SnapshotDate string        `json:"snapshot_date"`
	CategoryID   string        `json:"category_id"`
	RegionCode   string        `json:"region_code"`
	Period       string        `json:"period"`
	SortBy       string        `json:"sort_by"`
	Keywords     []KeywordInfo `json:"keywords"`
}

// KeywordSearchItem 跨分类关键词检索条目
type KeywordSearchItem struct {
	Keyword      string  `json:"keyword"`
	SnapshotDate string  `json:"snapshot_date"`
	CategoryID   string  `json:"category_id"`
	RegionCode   string  `json:"region_code"`
	Period       string  `json:"period"`
	RawScore     float64 `json:"raw_score"`
	TrendScore   float64 `json:"trend_score"`
	VideoCount   int     `json:"video_count"`
}

// BatchTriggerRequest 手动触发批处理请求
type BatchTriggerRequest struct {
	SnapshotDate string   `json:"snapshot_date" binding:"omitempty,len=10"`
	Regions      []string `json:"regions" binding:"omitempty"`
}

// BatchRunInfo 运行日志条目
type BatchRunInfo struct {
	ID            int64      `json:"id"`
	BatchType     string     `json:"batch_type"`
	SnapshotDate  string     `json:"snapshot_date"`
	Status        string     `json:"status"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at"`
	TotalVideos   int        `json:"total_videos"`
	TotalKeywords int        `json:"total_keywords"`
	FailureCount  int        `json:"failure_count"`
	DurationMs    int64      `json:"duration_ms"`
}

// BatchRunListData 运行日志列表响应数据
type BatchRunListData struct {
	Runs  []BatchRunInfo `json:"runs"`
	Total int64          `json:"total"`
}
