// Package stats 实现知识点作答统计的聚合与掌握程度分级。
//
// 统计是终生累计的：同一批次重复折叠会重复计数，调用方需保证每个批次只提交一次
// （例如与题目入库放在同一事务中）。
package stats

import (
	"math"
	"strings"

	"shitu-go/internal/model"
)

// MasteryLevel 是由正确率推导出的四档掌握程度。
type MasteryLevel string

const (
	MasteryExpert     MasteryLevel = "熟练掌握"
	MasteryProficient MasteryLevel = "掌握"
	MasteryFamiliar   MasteryLevel = "了解"
	MasteryUnfamiliar MasteryLevel = "不明白"
)

// GradedResult 是一道已批改题目的聚合输入。IsCorrect 为 nil 表示未知，按未答对计。
type GradedResult struct {
	KnowledgePoint string `json:"knowledgePoint"`
	IsCorrect      *bool  `json:"isCorrect"`
}

// Delta 是单个知识点在一个批次中的增量。
type Delta struct {
	KnowledgePoint string
	Total          int
	Correct        int
}

// Classify 按严格大于的阈值返回掌握程度，边界值落入较低一档。
func Classify(accuracy float64) MasteryLevel {
	switch {
	case accuracy > 0.9:
		return MasteryExpert
	case accuracy > 0.75:
		return MasteryProficient
	case accuracy > 0.6:
		return MasteryFamiliar
	default:
		return MasteryUnfamiliar
	}
}

// Accuracy 计算 correct/max(total,1) 并保留 4 位小数。
func Accuracy(correct, total int) float64 {
	if total < 1 {
		total = 1
	}
	return Round4(float64(correct) / float64(total))
}

// Round4 四舍五入到 4 位小数。
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Group 按知识点对批次分组。空白知识点被丢弃，结果保持知识点首次出现的顺序。
func Group(batch []GradedResult) []Delta {
	index := make(map[string]int)
	var deltas []Delta
	for _, r := range batch {
		kp := strings.TrimSpace(r.KnowledgePoint)
		if kp == "" {
			continue
		}
		i, ok := index[kp]
		if !ok {
			i = len(deltas)
			index[kp] = i
			deltas = append(deltas, Delta{KnowledgePoint: kp})
		}
		deltas[i].Total++
		if r.IsCorrect != nil && *r.IsCorrect {
			deltas[i].Correct++
		}
	}
	return deltas
}

// Derive 根据计数重新计算正确率与掌握程度。
func Derive(stat *model.KnowledgeStat) {
	stat.Accuracy = Accuracy(stat.Correct, stat.Total)
	stat.MasteryLevel = string(Classify(stat.Accuracy))
}

// Fold 将一个知识点的增量折叠进已有统计。existing 为 nil 时创建新统计，
// 否则返回累加后的副本，existing 本身不被修改。
func Fold(existing *model.KnowledgeStat, userID string, grade int, subject string, d Delta) model.KnowledgeStat {
	var stat model.KnowledgeStat
	if existing != nil {
		stat = *existing
	} else {
		stat = model.KnowledgeStat{
			UserID:         userID,
			Grade:          grade,
			Subject:        subject,
			KnowledgePoint: d.KnowledgePoint,
		}
	}
	stat.Total += d.Total
	stat.Correct += d.Correct
	Derive(&stat)
	return stat
}

// FromQuestions 将题目记录转换为聚合输入。
func FromQuestions(questions []model.Question) []GradedResult {
	results := make([]GradedResult, 0, len(questions))
	for _, q := range questions {
		results = append(results, GradedResult{KnowledgePoint: q.KnowledgePoint, IsCorrect: q.IsCorrect})
	}
	return results
}
