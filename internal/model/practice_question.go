package model

import "time"

// PracticeQuestion 是 AI 工作流为一次练习生成的题目。
// 工作流给出的题号只在单次练习内有意义，保存在 SourceID，主键另行生成。
type PracticeQuestion struct {
	ID             string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	SourceID       string    `gorm:"type:varchar(64)" json:"sourceId"`
	PaperID        string    `gorm:"type:varchar(64);not null;index" json:"paperId"`
	UserID         string    `gorm:"type:varchar(64);not null;index" json:"userId"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	CorrectAnswer  string    `gorm:"type:text" json:"correctAnswer"`
	UserAnswer     string    `gorm:"type:text" json:"userAnswer"`
	IsCorrect      *bool     `json:"isCorrect"`
	KnowledgePoint string    `gorm:"type:varchar(128)" json:"knowledgePoint"`
	QuestionType   string    `gorm:"type:varchar(32)" json:"questionType"`
	Options        string    `gorm:"type:text" json:"options"`
	Subject        string    `gorm:"type:varchar(32)" json:"subject"`
	Grade          int       `json:"grade"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (PracticeQuestion) TableName() string {
	return "practice_questions"
}

// PracticeHistoryItem 汇总一次练习（同一 PaperID）的题目数量与最近生成时间。
type PracticeHistoryItem struct {
	PaperID       string    `json:"paperId"`
	Subject       string    `json:"subject"`
	Grade         int       `json:"grade"`
	QuestionCount int       `json:"questionCount"`
	CreateTime    LocalTime `json:"createTime"`
}
