package repository

import (
	"trend-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SnapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// snapshotUpdateColumns 冲突时覆盖的列。键列之外全部以最新写入为准，
// 保证同键重跑幂等且不产生重复行。
var snapshotUpdateColumns = []string{
	"title", "channel_id", "channel_title",
	"view_count", "like_count", "comment_count",
	"duration_sec", "is_shorts", "published_at", "thumbnail_url",
	"updated_at",
}

// Upsert 按 (video_id, snapshot_date, category_id, region_code) 幂等写入快照
func (r *SnapshotRepository) Upsert(snapshots []model.VideoSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "video_id"},
			{Name: "snapshot_date"},
			{Name: "category_id"},
			{Name: "region_code"},
		},
		DoUpdates: clause.AssignmentColumns(snapshotUpdateColumns),
	}).CreateInBatches(snapshots, 100).Error
}

// ListByDate 查询某天某分类/地区的全部快照
func (r *SnapshotRepository) ListByDate(snapshotDate, categoryID, regionCode string) ([]model.VideoSnapshot, error) {
	var snapshots []model.VideoSnapshot
	err := r.db.
		Where("snapshot_date = ? AND category_id = ? AND region_code = ?",
			snapshotDate, categoryID, regionCode).
		Find(&snapshots).Error
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

// ListBetween 查询 [startDate, endDate] 窗口内某分类/地区的全部快照
func (r *SnapshotRepository) ListBetween(startDate, endDate, categoryID, regionCode string) ([]model.VideoSnapshot, error) {
	var snapshots []model.VideoSnapshot
	err := r.db.
		Where("snapshot_date >= ? AND snapshot_date <= ? AND category_id = ? AND region_code = ?",
			startDate, endDate, categoryID, regionCode).
		Order("snapshot_date ASC").
		Find(&snapshots).Error
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

// ListForRanking 查询排行读路径的快照，shortsFilter 为 nil 表示不过滤
func (r *SnapshotRepository) ListForRanking(snapshotDate, categoryID, regionCode string, shortsFilter *bool) ([]model.VideoSnapshot, error) {
	query := r.db.
		Where("snapshot_date = ? AND category_id = ? AND region_code = ?",
			snapshotDate, categoryID, regionCode)
	if shortsFilter != nil {
		query = query.Where("is_shorts = ?", *shortsFilter)
	}

	var snapshots []model.VideoSnapshot
	if err := query.Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}

// LatestDate 解析某分类/地区（可选短视频过滤）最近的快照日期；
// 没有任何快照时返回空字符串
func (r *SnapshotRepository) LatestDate(categoryID, regionCode string, shortsFilter *bool) (string, error) {
	query := r.db.Model(&model.VideoSnapshot{}).
		Where("category_id = ? AND region_code = ?", categoryID, regionCode)
	if shortsFilter != nil {
		query = query.Where("is_shorts = ?", *shortsFilter)
	}

	var latest *string
	if err := query.Select("MAX(snapshot_date)").Scan(&latest).Error; err != nil {
		return "", err
	}
	if latest == nil {
		return "", nil
	}
	return *latest, nil
}

// CountByDate 统计某键当天的快照行数（批处理记账用）
func (r *SnapshotRepository) CountByDate(snapshotDate, categoryID, regionCode string) (int64, error) {
	var count int64
	err := r.db.Model(&model.VideoSnapshot{}).
		Where("snapshot_date = ? AND category_id = ? AND region_code = ?",
			snapshotDate, categoryID, regionCode).
		Count(&count).Error
	return count, err
}
