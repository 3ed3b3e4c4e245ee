// Package advice 提供学习建议请求的指纹计算和建议文本的清理。
package advice

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"shitu-go/internal/model"
)

// GradeLabel 将数字年级渲染为工作流使用的展示文本，例如 3 -> "3年级"。
func GradeLabel(grade int) string {
	return strconv.Itoa(grade) + "年级"
}

// Normalize 返回可稳定序列化的输入副本：所有切片非 nil，列表顺序保持不变。
func Normalize(in model.AdviceInput) model.AdviceInput {
	out := in
	out.KnowledgeStats = make([]model.AdviceStat, 0, len(in.KnowledgeStats))
	for _, s := range in.KnowledgeStats {
		analyses := make([]string, 0, len(s.ErrorAnalyses))
		analyses = append(analyses, s.ErrorAnalyses...)
		s.ErrorAnalyses = analyses
		out.KnowledgeStats = append(out.KnowledgeStats, s)
	}
	return out
}

// Canonical 返回用于计算指纹的规范字节序列。
func Canonical(in model.AdviceInput) ([]byte, error) {
	b, err := json.Marshal(Normalize(in))
	if err != nil {
		return nil, fmt.Errorf("序列化建议请求失败: %w", err)
	}
	return b, nil
}

// Fingerprint 计算规范序列的 SHA-256 摘要并以标准 base64 编码返回。
// 相同内容（含列表顺序）总是得到相同的指纹。
func Fingerprint(in model.AdviceInput) (string, error) {
	b, err := Canonical(in)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

// DebugInput 返回缩进格式的请求 JSON，随建议结果一起返回便于排查。
func DebugInput(in model.AdviceInput) string {
	b, err := json.MarshalIndent(Normalize(in), "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}
