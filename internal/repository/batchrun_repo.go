package repository

import (
	"time"

	"trend-go/internal/model"

	"gorm.io/gorm"
)

type BatchRunRepository struct {
	db *gorm.DB
}

func NewBatchRunRepository(db *gorm.DB) *BatchRunRepository {
	return &BatchRunRepository{db: db}
}

// Create 创建运行日志（状态 running）
func (r *BatchRunRepository) Create(run *model.BatchRunLog) error {
	return r.db.Create(run).Error
}

// Complete 将运行日志推进到终态并写入元数据。
// 条件限定 status = running，完成后的行不会被再次改写（状态单向迁移）。
func (r *BatchRunRepository) Complete(id int64, status string, metadata model.RunMetadata) error {
	now := time.Now()
	result := r.db.Model(&model.BatchRunLog{}).
		Where("id = ? AND status = ?", id, model.BatchStatusRunning).
		Updates(map[string]interface{}{
			"status":       status,
			"completed_at": &now,
			"metadata":     metadata,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetByID 查询单条运行日志
func (r *BatchRunRepository) GetByID(id int64) (*model.BatchRunLog, error) {
	var run model.BatchRunLog
	if err := r.db.First(&run, id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// List 按开始时间倒序列出运行日志，batchType 为空表示不过滤
func (r *BatchRunRepository) List(batchType string, limit, offset int) ([]model.BatchRunLog, int64, error) {
	query := r.db.Model(&model.BatchRunLog{})
	if batchType != "" {
		query = query.Where("batch_type = ?", batchType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var runs []model.BatchRunLog
	err := query.Order("started_at DESC").Offset(offset).Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}
