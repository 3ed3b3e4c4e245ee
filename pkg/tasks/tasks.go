// Package tasks 定义了通过 Kafka 传递的异步任务结构。
package tasks

// PaperGradingTask 是一次试卷批改任务。消费者依据 PaperID 读取试卷记录并完成解析、入库与统计。
type PaperGradingTask struct {
	PaperID    string `json:"paper_id"`
	UserID     string `json:"user_id"`
	Grade      int    `json:"grade"`
	Subject    string `json:"subject"`
	Publisher  string `json:"publisher"`
	ObjectName string `json:"object_name"`
}
