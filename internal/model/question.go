package model

import "time"

// Question 是从试卷中解析出的一道题目，或一次练习提交的作答记录。
type Question struct {
	ID             string    `gorm:"primaryKey;type:varchar(64)" json:"questionId"`
	UserID         string    `gorm:"type:varchar(64);not null;index:idx_question_owner,priority:1" json:"userId"`
	PaperID        string    `gorm:"type:varchar(64);not null;index" json:"paperId"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	UserAnswer     string    `gorm:"type:text" json:"userAnswer"`
	IsCorrect      *bool     `json:"isCorrect"`
	CorrectAnswer  string    `gorm:"type:text" json:"correctAnswer"`
	KnowledgePoint string    `gorm:"type:varchar(128);index:idx_question_owner,priority:4" json:"knowledgePoint"`
	Subject        string    `gorm:"type:varchar(32);not null;index:idx_question_owner,priority:3" json:"subject"`
	Grade          int       `gorm:"not null;index:idx_question_owner,priority:2" json:"grade"`
	QuestionType   string    `gorm:"type:varchar(32)" json:"questionType"`
	ErrorAnalysis  string    `gorm:"type:text" json:"errorAnalysis"`
	CreatedAt      time.Time `gorm:"index" json:"createdAt"`
}

func (Question) TableName() string {
	return "questions"
}

// QuestionDocument 是写入 Elasticsearch 错题本索引的文档结构。
type QuestionDocument struct {
	QuestionID     string `json:"question_id"`
	UserID         string `json:"user_id"`
	PaperID        string `json:"paper_id"`
	Grade          int    `json:"grade"`
	Subject        string `json:"subject"`
	KnowledgePoint string `json:"knowledge_point"`
	QuestionType   string `json:"question_type"`
	Content        string `json:"content"`
	ErrorAnalysis  string `json:"error_analysis"`
	IsCorrect      *bool  `json:"is_correct"`
}

// QuestionSearchResult 是错题本搜索接口返回的单条结果。
type QuestionSearchResult struct {
	QuestionDocument
	Score float64 `json:"score"`
}
