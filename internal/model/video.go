package model

import (
	"time"
)

// Video 视频的最终统计
type Video struct {
	ID             string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	CreatorID      string    `gorm:"type:varchar(64);not null;index:idx_creator_id" json:"creator_id"`
	VideoCreatedAt time.Time `gorm:"type:datetime(6);not null;index:idx_video_created_at" json:"video_created_at"`
	ViewsCount     int64     `gorm:"not null;default:0" json:"views_count"`
	LikesCount     int64     `gorm:"not null;default:0" json:"likes_count"`
	CommentsCount  int64     `gorm:"not null;default:0" json:"comments_count"`
	ReportsCount   int64     `gorm:"not null;default:0" json:"reports_count"`
	CreatedAt      time.Time `gorm:"type:datetime(6)" json:"created_at"`
	UpdatedAt      time.Time `gorm:"type:datetime(6)" json:"updated_at"`

	// 关联关系
	Snapshots []VideoSnapshot `gorm:"foreignKey:VideoID;references:ID;constraint:OnDelete:CASCADE" json:"snapshots,omitempty"`
}

func (Video) TableName() string {
	return "videos"
}
