package repository

import (
	"trend-go/internal/model"

	"gorm.io/gorm"
)

type KeywordRepository struct {
	db *gorm.DB
}

func NewKeywordRepository(db *gorm.DB) *KeywordRepository {
	return &KeywordRepository{db: db}
}

// ReplaceForKey 对同一 (快照日, 分类, 周期, 地区) 键整体替换关键词集合：
// 事务内先删后插，不留上一次运行的残留行
func (r *KeywordRepository) ReplaceForKey(snapshotDate, categoryID, period, regionCode string, trends []model.CategoryKeywordTrend) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("snapshot_date = ? AND category_id = ? AND period = ? AND region_code = ?",
				snapshotDate, categoryID, period, regionCode).
			Delete(&model.CategoryKeywordTrend{}).Error; err != nil {
			return err
		}
		if len(trends) == 0 {
			return nil
		}
		return tx.CreateInBatches(trends, 100).Error
	})
}

// ListByKey 查询某键的关键词，sortBy 取 raw_score 或 trend_score
func (r *KeywordRepository) ListByKey(snapshotDate, categoryID, period, regionCode, sortBy string, limit int) ([]model.CategoryKeywordTrend, error) {
	order := "raw_score DESC"
	if sortBy == "trend_score" {
		order = "trend_score DESC"
	}

	var trends []model.CategoryKeywordTrend
	err := r.db.
		Where("snapshot_date = ? AND category_id = ? AND period = ? AND region_code = ?",
			snapshotDate, categoryID, period, regionCode).
		Order(order).
		Limit(limit).
		Find(&trends).Error
	if err != nil {
		return nil, err
	}
	return trends, nil
}

// LatestDate 解析某分类/周期/地区最近的关键词快照日期；无数据返回空字符串
func (r *KeywordRepository) LatestDate(categoryID, period, regionCode string) (string, error) {
	var latest *string
	err := r.db.Model(&model.CategoryKeywordTrend{}).
		Where("category_id = ? AND period = ? AND region_code = ?", categoryID, period, regionCode).
		Select("MAX(snapshot_date)").
		Scan(&latest).Error
	if err != nil {
		return "", err
	}
	if latest == nil {
		return "", nil
	}
	return *latest, nil
}

// ListHistory 查询历史基线用的旧行：同分类/周期/地区、快照日早于 beforeDate
// 且不早于 sinceDate、关键词在给定集合内，按日期倒序
func (r *KeywordRepository) ListHistory(categoryID, period, regionCode, beforeDate, sinceDate string, keywords []string) ([]model.CategoryKeywordTrend, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	var trends []model.CategoryKeywordTrend
	err := r.db.
		Where("category_id = ? AND period = ? AND region_code = ?", categoryID, period, regionCode).
		Where("snapshot_date < ? AND snapshot_date >= ?", beforeDate, sinceDate).
		Where("keyword IN ?", keywords).
		Order("snapshot_date DESC").
		Find(&trends).Error
	if err != nil {
		return nil, err
	}
	return trends, nil
}

// SearchKeywords 关键词模糊检索（ES 不可用时的 DB 降级路径）
func (r *KeywordRepository) SearchKeywords(q string, limit int) ([]model.CategoryKeywordTrend, error) {
	var trends []model.CategoryKeywordTrend
	err := r.db.
		Where("keyword ILIKE ?", "%"+q+"%").
		Order("snapshot_date DESC, raw_score DESC").
		Limit(limit).
		Find(&trends).Error
	if err != nil {
		return nil, err
	}
	return trends, nil
}
