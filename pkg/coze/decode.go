package coze

import (
	"encoding/json"
	"errors"

	"shitu-go/internal/model"
)

// QuestionItem 是试卷解析与练习生成工作流返回的单道题目。
type QuestionItem struct {
	QuestionID     string   `json:"questionId"`
	Content        string   `json:"content"`
	UserAnswer     string   `json:"userAnswer"`
	IsCorrect      *bool    `json:"isCorrect"`
	CorrectAnswer  string   `json:"correctAnswer"`
	KnowledgePoint string   `json:"knowledgePoint"`
	Subject        string   `json:"subject"`
	QuestionType   string   `json:"questionType"`
	Options        []string `json:"options"`
	ErrorAnalysis  string   `json:"errorAnalysis"`
}

type questionEnvelope struct {
	Questions []QuestionItem `json:"questions"`
}

// DecodeQuestions 按结果形态解析题目列表。
func DecodeQuestions(p Payload) ([]QuestionItem, error) {
	switch p.Shape {
	case ShapeBareArray, ShapeOutputArray:
		return unmarshalQuestionArray(p.Body)
	case ShapeOutputEncoded:
		if p.IsArray() {
			return unmarshalQuestionArray(p.Body)
		}
		return unmarshalQuestionEnvelope(p.Body)
	case ShapeObject, ShapeOutputObject:
		return unmarshalQuestionEnvelope(p.Body)
	case ShapeOutputText:
		return nil, &DecodeError{Raw: p.Text, Err: errors.New("题目结果为纯文本")}
	default:
		return nil, &DecodeError{Raw: string(p.Body), Err: errors.New("未知的结果形态 " + p.Shape.String())}
	}
}

func unmarshalQuestionArray(body json.RawMessage) ([]QuestionItem, error) {
	var items []QuestionItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, &DecodeError{Raw: string(body), Err: err}
	}
	return items, nil
}

func unmarshalQuestionEnvelope(body json.RawMessage) ([]QuestionItem, error) {
	var env questionEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &DecodeError{Raw: string(body), Err: err}
	}
	return env.Questions, nil
}

// DecodeAdvice 按结果形态解析学习建议。
// output 为纯文本时整段作为 summary；output 为编码后的 JSON 但不是对象或字段类型不符时同样退化为 summary。
func DecodeAdvice(p Payload) (*model.AdviceResult, error) {
	var result model.AdviceResult
	switch p.Shape {
	case ShapeOutputText:
		result.Summary = p.Text
	case ShapeOutputEncoded:
		if p.IsArray() {
			result.Summary = p.Text
			break
		}
		if err := json.Unmarshal(p.Body, &result); err != nil {
			result = model.AdviceResult{Summary: p.Text}
		}
	case ShapeObject, ShapeOutputObject:
		if err := json.Unmarshal(p.Body, &result); err != nil {
			return nil, &DecodeError{Raw: string(p.Body), Err: err}
		}
	case ShapeBareArray, ShapeOutputArray:
		return nil, &DecodeError{Raw: string(p.Body), Err: errors.New("建议结果不是 JSON 对象")}
	default:
		return nil, &DecodeError{Raw: string(p.Body), Err: errors.New("未知的结果形态 " + p.Shape.String())}
	}
	if result.Suggestions == nil {
		result.Suggestions = []string{}
	}
	return &result, nil
}
