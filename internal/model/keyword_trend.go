package model

import "time"

// 关键词统计周期
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// Periods 全部周期，按窗口从小到大排列
var Periods = []string{PeriodDaily, PeriodWeekly, PeriodMonthly}

// PeriodWindowDays 周期对应的滚动窗口天数（含快照日当天）
func PeriodWindowDays(period string) int {
	switch period {
	case PeriodWeekly:
		return 7
	case PeriodMonthly:
		return 30
	default:
		return 1
	}
}

// CategoryKeywordTrend 分类关键词趋势，每个
// (快照日, 分类, 周期, 地区, 关键词) 一行。
// 引擎每次运行对同一键组合整体替换（先删后插），不做增量修补。
type CategoryKeywordTrend struct {
	ID             int64     `gorm:"primaryKey;autoIncrement;comment:趋势标识" json:"id"`
	SnapshotDate   string    `gorm:"size:10;not null;uniqueIndex:uniq_keyword_key,priority:1;comment:快照日期(YYYY-MM-DD)" json:"snapshot_date"`
	CategoryID     string    `gorm:"size:16;not null;uniqueIndex:uniq_keyword_key,priority:2;index:idx_keyword_scope;comment:分类ID" json:"category_id"`
	Period         string    `gorm:"size:10;not null;uniqueIndex:uniq_keyword_key,priority:3;comment:统计周期(daily/weekly/monthly)" json:"period"`
	RegionCode     string    `gorm:"size:8;not null;uniqueIndex:uniq_keyword_key,priority:4;index:idx_keyword_scope;comment:地区代码" json:"region_code"`
	Keyword        string    `gorm:"size:100;not null;uniqueIndex:uniq_keyword_key,priority:5;index:idx_keyword_word;comment:关键词" json:"keyword"`
	RawScore       float64   `gorm:"not null;default:0;comment:窗口内互动加权强度" json:"raw_score"`
	TrendScore     float64   `gorm:"not null;default:1;comment:相对历史基线的趋势比值" json:"trend_score"`
	VideoCount     int       `gorm:"not null;default:0;comment:包含该词的视频数" json:"video_count"`
	SampleTitles   []string  `gorm:"serializer:json;comment:示例标题" json:"sample_titles"`
	SampleVideoIDs []string  `gorm:"serializer:json;comment:示例视频ID" json:"sample_video_ids"`
	CreatedAt      time.Time `gorm:"autoCreateTime;comment:创建时间" json:"created_at"`
}

func (CategoryKeywordTrend) TableName() string {
	return "category_keyword_trends"
}
