package model

import "time"

// AdviceHistory 是学习建议缓存表的一条记录。
// 同一查找键允许存在多条记录，查找时取最新一条。
type AdviceHistory struct {
	ID              uint      `gorm:"primaryKey"`
	UserID          string    `gorm:"type:varchar(64);not null;index:idx_advice_lookup,priority:1"`
	Grade           string    `gorm:"type:varchar(16);not null;index:idx_advice_lookup,priority:2"`
	Subject         string    `gorm:"type:varchar(32);not null;index:idx_advice_lookup,priority:3"`
	Textbook        string    `gorm:"type:varchar(64);not null;index:idx_advice_lookup,priority:4"`
	RequestHash     string    `gorm:"type:varchar(64);not null;index:idx_advice_lookup,priority:5"`
	ResponseContent string    `gorm:"type:longtext;not null"`
	CreateTime      time.Time `gorm:"not null"`
}

func (AdviceHistory) TableName() string {
	return "advice_histories"
}

// AdviceStat 是发送给学习建议工作流的单个知识点摘要。
// 字段顺序参与请求指纹计算，不可调整。
type AdviceStat struct {
	KnowledgePoint string   `json:"knowledgePoint"`
	Accuracy       float64  `json:"accuracy"`
	Proficiency    string   `json:"proficiency"`
	ErrorAnalyses  []string `json:"errorAnalyses"`
}

// AdviceInput 是学习建议工作流的输入，也是请求指纹的计算对象。
// 字段顺序参与请求指纹计算，不可调整。
type AdviceInput struct {
	UserID         string       `json:"userId"`
	Grade          string       `json:"grade"`
	Subject        string       `json:"subject"`
	Textbook       string       `json:"textbook"`
	KnowledgeStats []AdviceStat `json:"knowledgeStats"`
}

// AdviceResult 是返回给调用方的学习建议。
type AdviceResult struct {
	Summary     string   `json:"summary"`
	Tone        string   `json:"tone"`
	Suggestions []string `json:"suggestions"`
	DebugInput  string   `json:"debugInput,omitempty"`
}
