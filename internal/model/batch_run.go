package model

import "time"

// 批处理类型
const (
	BatchTypeCollection            = "collection"
	BatchTypeMultiRegionCollection = "multi_region_collection"
	BatchTypeAnalysis              = "analysis"
)

// 批处理状态，running 只能单向迁移到一个终态
const (
	BatchStatusRunning        = "running"
	BatchStatusSuccess        = "success"
	BatchStatusPartialSuccess = "partial_success"
	BatchStatusFailed         = "failed"
)

// KeyResult 单个 分类×地区 / 分类×周期 组合的处理结果
type KeyResult struct {
	CategoryID string `json:"category_id"`
	RegionCode string `json:"region_code,omitempty"`
	Period     string `json:"period,omitempty"`
	Success    bool   `json:"success"`
	Count      int    `json:"count"`
	Error      string `json:"error,omitempty"`
}

// RunMetadata 运行元数据，显式字段而非开放 map，保证契约可校验
type RunMetadata struct {
	Regions       []string    `json:"regions,omitempty"`
	Categories    []string    `json:"categories,omitempty"`
	Periods       []string    `json:"periods,omitempty"`
	TestMode      bool        `json:"test_mode,omitempty"`
	TotalVideos   int         `json:"total_videos"`
	TotalKeywords int         `json:"total_keywords"`
	FailureCount  int         `json:"failure_count"`
	DurationMs    int64       `json:"duration_ms"`
	Results       []KeyResult `json:"results,omitempty"`
}

// BatchRunLog 批处理运行日志，每次管道调用一行。
// 状态只由编排器推进；完成时间只写一次，完成后不再复开。
type BatchRunLog struct {
	ID           int64       `gorm:"primaryKey;autoIncrement;comment:运行标识" json:"id"`
	BatchType    string      `gorm:"size:32;not null;index:idx_batch_type;comment:批处理类型" json:"batch_type"`
	SnapshotDate string      `gorm:"size:10;not null;index:idx_batch_date;comment:目标快照日期" json:"snapshot_date"`
	Status       string      `gorm:"size:20;not null;default:'running';comment:运行状态" json:"status"`
	StartedAt    time.Time   `gorm:"not null;comment:开始时间" json:"started_at"`
	CompletedAt  *time.Time  `gorm:"comment:完成时间" json:"completed_at"`
	Metadata     RunMetadata `gorm:"serializer:json;comment:运行元数据" json:"metadata"`
}

func (BatchRunLog) TableName() string {
	return "batch_run_logs"
}
