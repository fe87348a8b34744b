// Package numeric centralises the coercion of loosely typed payload numbers.
//
// Every numeric field that crosses the engine boundary goes through
// ToSafeNumber (directly or via Value), so NaN never reaches a chart.
package numeric

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ToSafeNumber 将任意 JSON 风格的值转换为有限的 float64，无法解析时返回 def。
// 支持数字、数字字符串（含 "0,6" 这类逗号小数）、json.Number 以及 {"value": x} 对象。
func ToSafeNumber(v any, def float64) float64 {
	if f, ok := Optional(v); ok {
		return f
	}
	return def
}

// ToSafeInt 与 ToSafeNumber 相同，但结果向零截断。
func ToSafeInt(v any, def int) int {
	if f, ok := Optional(v); ok {
		return int(f)
	}
	return def
}

// Optional reports the numeric value of v and whether it was usable.
func Optional(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, ok := parseString(n)
		if !ok {
			return 0, false
		}
		f = parsed
	case Value:
		return n.Get()
	case map[string]any:
		// API 常见格式 { value, unit }
		return Optional(n["value"])
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0, false
	}
	if !strings.Contains(s, ".") && strings.Count(s, ",") == 1 {
		s = strings.Replace(s, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Value is a leniently decoded numeric payload field. Malformed input decodes
// to an invalid Value instead of failing the whole document.
type Value struct {
	n     float64
	ok    bool
	unit  string
	raw   string
	isSet bool
}

// Of returns a valid Value.
func Of(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{isSet: true}
	}
	return Value{n: f, ok: true, isSet: true}
}

// Get returns the number and whether it is usable.
func (v Value) Get() (float64, bool) { return v.n, v.ok }

// Or returns the number, or def when the value is missing or malformed.
func (v Value) Or(def float64) float64 {
	if v.ok {
		return v.n
	}
	return def
}

// Valid reports whether the field held a finite number.
func (v Value) Valid() bool { return v.ok }

// Present reports whether the field appeared in the payload at all (even as garbage).
func (v Value) Present() bool { return v.isSet }

// Malformed reports a field that was present, not null, and not a number.
func (v Value) Malformed() bool { return v.isSet && !v.ok && v.raw != "" }

// Unit returns the unit carried by a {value, unit} object, if any.
func (v Value) Unit() string { return v.unit }

// String 按原始写法输出，便于在表格中展示（例如 "0.60" 不会变成 "0.6"）。
func (v Value) String() string {
	if v.raw != "" && v.ok {
		return v.raw
	}
	if v.ok {
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	}
	return ""
}

// UnmarshalJSON never returns an error for malformed numbers.
func (v *Value) UnmarshalJSON(data []byte) error {
	*v = Value{isSet: true}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil
	}
	if obj, ok := raw.(map[string]any); ok {
		if u, ok := obj["unit"].(string); ok {
			v.unit = u
		}
		raw = obj["value"]
	}
	switch r := raw.(type) {
	case json.Number:
		v.raw = r.String()
	case string:
		if s := strings.TrimSpace(r); s != "-" {
			v.raw = s
		}
	case nil:
	default:
		v.raw = "?"
	}
	v.n, v.ok = Optional(raw)
	return nil
}

// MarshalJSON writes null for unusable values.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(v.n, 'f', -1, 64)), nil
}
