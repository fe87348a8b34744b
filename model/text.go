package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Text is a string field that also accepts numbers and booleans, so a
// reference typed as 1234 in the payload does not fail decoding.
type Text string

// UnmarshalJSON never fails on scalar input; objects and arrays decode to "".
func (t *Text) UnmarshalJSON(data []byte) error {
	*t = ""
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
	switch v := raw.(type) {
	case string:
		*t = Text(strings.TrimSpace(v))
	case json.Number:
		*t = Text(v.String())
	case bool:
		if v {
			*t = "true"
		} else {
			*t = "false"
		}
	}
	return nil
}

// String implements fmt.Stringer.
func (t Text) String() string { return string(t) }

// Empty reports a blank value.
func (t Text) Empty() bool { return strings.TrimSpace(string(t)) == "" }

// Filled 与 JS 的真值判断一致："" 与 "0" 视为未填写。
func (t Text) Filled() bool {
	s := strings.TrimSpace(string(t))
	return s != "" && s != "0" && s != "-"
}

// Or returns t, or def when t is blank.
func (t Text) Or(def string) string {
	if t.Empty() {
		return def
	}
	return string(t)
}

// first returns the first non-blank value.
func first(values ...Text) Text {
	for _, v := range values {
		if !v.Empty() {
			return v
		}
	}
	return ""
}
