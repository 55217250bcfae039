package model

import "time"

// VideoSnapshot 人气视频快照，每个 (视频, 快照日, 分类, 地区) 一行。
// 采集器按日覆盖写入（幂等 upsert），管道内不删除。
type VideoSnapshot struct {
	ID           int64     `gorm:"primaryKey;autoIncrement;comment:快照标识" json:"id"`
	VideoID      string    `gorm:"size:64;not null;uniqueIndex:uniq_snapshot_key,priority:1;comment:上游视频ID" json:"video_id"`
	SnapshotDate string    `gorm:"size:10;not null;uniqueIndex:uniq_snapshot_key,priority:2;index:idx_snapshot_date;comment:快照日期(YYYY-MM-DD)" json:"snapshot_date"`
	CategoryID   string    `gorm:"size:16;not null;uniqueIndex:uniq_snapshot_key,priority:3;index:idx_snapshot_scope;comment:分类ID" json:"category_id"`
	RegionCode   string    `gorm:"size:8;not null;uniqueIndex:uniq_snapshot_key,priority:4;index:idx_snapshot_scope;comment:地区代码" json:"region_code"`
	Title        string    `gorm:"size:500;not null;comment:视频标题" json:"title"`
	ChannelID    string    `gorm:"size:64;comment:频道ID" json:"channel_id"`
	ChannelTitle string    `gorm:"size:200;comment:频道名称" json:"channel_title"`
	ViewCount    int64     `gorm:"default:0;comment:累计播放量" json:"view_count"`
	LikeCount    int64     `gorm:"default:0;comment:累计点赞数" json:"like_count"`
	CommentCount int64     `gorm:"default:0;comment:累计评论数" json:"comment_count"`
	DurationSec  int       `gorm:"default:0;comment:视频时长（秒）" json:"duration_sec"`
	IsShorts     bool      `gorm:"index:idx_snapshot_shorts;comment:是否短视频" json:"is_shorts"`
	PublishedAt  time.Time `gorm:"comment:发布时间" json:"published_at"`
	ThumbnailURL string    `gorm:"size:500;comment:封面地址" json:"thumbnail_url"`
	CreatedAt    time.Time `gorm:"autoCreateTime;comment:创建时间" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime;comment:更新时间" json:"updated_at"`
}

func (VideoSnapshot) TableName() string {
	return "video_snapshots"
}
