package model

import (
	"time"
)

// VideoSnapshot 每小时一次的统计快照，delta_* 为相对上一次快照的增量
type VideoSnapshot struct {
	ID                 string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	VideoID            string    `gorm:"type:varchar(64);not null;index:idx_video_created,priority:1" json:"video_id"`
	ViewsCount         int64     `gorm:"not null;default:0" json:"views_count"`
	LikesCount         int64     `gorm:"not null;default:0" json:"likes_count"`
	CommentsCount      int64     `gorm:"not null;default:0" json:"comments_count"`
	ReportsCount       int64     `gorm:"not null;default:0" json:"reports_count"`
	DeltaViewsCount    int64     `gorm:"not null;default:0" json:"delta_views_count"`
	DeltaLikesCount    int64     `gorm:"not null;default:0" json:"delta_likes_count"`
	DeltaCommentsCount int64     `gorm:"not null;default:0" json:"delta_comments_count"`
	DeltaReportsCount  int64     `gorm:"not null;default:0" json:"delta_reports_count"`
	CreatedAt          time.Time `gorm:"type:datetime(6);index:idx_video_created,priority:2;index:idx_snapshot_created_at" json:"created_at"`
	UpdatedAt          time.Time `gorm:"type:datetime(6)" json:"updated_at"`
}

func (VideoSnapshot) TableName() string {
	return "video_snapshots"
}
