package model

import "time"

// 试卷批改状态
const (
	PaperStatusPending = "pending"
	PaperStatusGraded  = "graded"
	PaperStatusFailed  = "failed"
)

// Paper 记录一次试卷上传以及异步批改的状态。
type Paper struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"paperId"`
	UserID     string    `gorm:"type:varchar(64);not null;index" json:"userId"`
	Grade      int       `gorm:"not null" json:"grade"`
	Subject    string    `gorm:"type:varchar(32);not null" json:"subject"`
	Publisher  string    `gorm:"type:varchar(64)" json:"publisher"`
	ObjectName string    `gorm:"type:varchar(255)" json:"-"`
	FileID     string    `gorm:"type:varchar(128)" json:"fileId"`
	Status     string    `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	Error      string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"-"`
}

func (Paper) TableName() string {
	return "papers"
}

// PaperDetail 是试卷及其解析出的题目。
type PaperDetail struct {
	Paper
	Questions []Question `json:"questions"`
}
