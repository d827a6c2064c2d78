package po

import "time"

// VideoAsset 视频记录持久化对象
type VideoAsset struct {
	VideoID          string    `gorm:"column:video_id;type:varchar(64);primaryKey" json:"video_id"`
	Title            string    `gorm:"column:title;type:varchar(255)" json:"title"`
	Description      string    `gorm:"column:description;type:text" json:"description"`
	OriginalFilename string    `gorm:"column:original_filename;type:varchar(255)" json:"original_filename"`
	StoragePath      string    `gorm:"column:storage_path;type:varchar(1024)" json:"storage_path"`
	ContentType      string    `gorm:"column:content_type;type:varchar(128)" json:"content_type"`
	Size             int64     `gorm:"column:size;type:bigint;default:0" json:"size"`
	State            string    `gorm:"column:state;type:varchar(20);index" json:"state"`
	LastError        *string   `gorm:"column:last_error;type:varchar(500)" json:"last_error,omitempty"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (VideoAsset) TableName() string {
	return "video_assets"
}
