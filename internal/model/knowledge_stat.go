// Package model 定义了与数据库表对应的数据结构。
package model

import "time"

// KnowledgeStat 记录某用户在某年级、某学科下单个知识点的累计作答统计。
// (UserID, Grade, Subject, KnowledgePoint) 唯一确定一条记录。
type KnowledgeStat struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	UserID         string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_knowledge_stat_key,priority:1" json:"userId"`
	Grade          int       `gorm:"not null;uniqueIndex:idx_knowledge_stat_key,priority:2" json:"grade"`
	Subject        string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_knowledge_stat_key,priority:3" json:"subject"`
	KnowledgePoint string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_knowledge_stat_key,priority:4" json:"knowledgePoint"`
	Total          int       `gorm:"not null;default:0" json:"total"`
	Correct        int       `gorm:"not null;default:0" json:"correct"`
	Accuracy       float64   `gorm:"not null;default:0;index" json:"accuracy"`
	MasteryLevel   string    `gorm:"type:varchar(16);not null" json:"masteryLevel"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}

func (KnowledgeStat) TableName() string {
	return "knowledge_stats"
}

// KnowledgeReportItem 是知识点掌握报告中的一行。
type KnowledgeReportItem struct {
	KnowledgePoint string  `json:"knowledgePoint"`
	Accuracy       float64 `json:"accuracy"`
	MasteryLevel   string  `json:"masteryLevel"`
	Correct        int     `json:"correct"`
	Total          int     `json:"total"`
}
