package coze

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Shape 标识工作流结果数据的外层形态。
type Shape int

const (
	// ShapeBareArray: [...]
	ShapeBareArray Shape = iota
	// ShapeObject: {...}，不含 output 字段
	ShapeObject
	// ShapeOutputArray: {"output": [...]}
	ShapeOutputArray
	// ShapeOutputObject: {"output": {...}}
	ShapeOutputObject
	// ShapeOutputEncoded: {"output": "<JSON 字符串>"}，Body 为解码一层后的 JSON
	ShapeOutputEncoded
	// ShapeOutputText: {"output": "纯文本"}
	ShapeOutputText
)

func (s Shape) String() string {
	switch s {
	case ShapeBareArray:
		return "bare_array"
	case ShapeObject:
		return "object"
	case ShapeOutputArray:
		return "output_array"
	case ShapeOutputObject:
		return "output_object"
	case ShapeOutputEncoded:
		return "output_encoded"
	case ShapeOutputText:
		return "output_text"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// Payload 是解码后的工作流结果。Body 为 JSON 数组或对象；ShapeOutputText 时只有 Text。
type Payload struct {
	Shape Shape
	Body  json.RawMessage
	Text  string
}

// IsArray 报告 Body 是否为 JSON 数组。
func (p Payload) IsArray() bool {
	return firstByte(p.Body) == '['
}

// DecodePayload 识别结果数据的形态。整个数据本身是 JSON 字符串时先解开一层。
func DecodePayload(raw string) (Payload, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Payload{}, ErrEmptyPayload
	}
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal([]byte(trimmed), &inner); err != nil {
			return Payload{}, &DecodeError{Raw: raw, Err: err}
		}
		trimmed = strings.TrimSpace(inner)
		if trimmed == "" {
			return Payload{}, ErrEmptyPayload
		}
	}

	switch trimmed[0] {
	case '[':
		if !json.Valid([]byte(trimmed)) {
			return Payload{}, &DecodeError{Raw: raw, Err: errors.New("结果数据不是合法的 JSON 数组")}
		}
		return Payload{Shape: ShapeBareArray, Body: json.RawMessage(trimmed)}, nil
	case '{':
		return decodeObject(raw, trimmed)
	default:
		return Payload{}, &DecodeError{Raw: raw, Err: errors.New("结果数据既不是 JSON 对象也不是数组")}
	}
}

func decodeObject(raw, trimmed string) (Payload, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return Payload{}, &DecodeError{Raw: raw, Err: err}
	}
	output, ok := fields["output"]
	if !ok || string(bytes.TrimSpace(output)) == "null" {
		return Payload{Shape: ShapeObject, Body: json.RawMessage(trimmed)}, nil
	}

	switch firstByte(output) {
	case '[':
		return Payload{Shape: ShapeOutputArray, Body: output}, nil
	case '{':
		return Payload{Shape: ShapeOutputObject, Body: output}, nil
	case '"':
		var text string
		if err := json.Unmarshal(output, &text); err != nil {
			return Payload{}, &DecodeError{Raw: raw, Err: err}
		}
		inner := strings.TrimSpace(text)
		if inner != "" && (inner[0] == '{' || inner[0] == '[') && json.Valid([]byte(inner)) {
			return Payload{Shape: ShapeOutputEncoded, Body: json.RawMessage(inner), Text: text}, nil
		}
		return Payload{Shape: ShapeOutputText, Text: text}, nil
	default:
		return Payload{}, &DecodeError{Raw: raw, Err: fmt.Errorf("output 字段类型不受支持: %s", string(output))}
	}
}

func firstByte(b []byte) byte {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return 0
	}
	return b[0]
}
