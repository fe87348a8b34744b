// Package model is the input contract of the report engine: the trial
// payload as produced by the API, decoded leniently, with photos
// normalised and classified once.
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/ByLCY/trialreport/numeric"
)

// ErrEmptyPayload is returned by Decode for an empty or null document.
var ErrEmptyPayload = errors.New("报告数据为空")

// NotSpecified is the placeholder shown for missing identification fields.
const NotSpecified = "Not specified"

// Input is one decoded report payload.
type Input struct {
	Trial   Trial        `json:"trial"`
	Part    Part         `json:"part"`
	Client  Client       `json:"client"`
	Recipe  *RecipeData  `json:"recipeData"`
	Quench  *QuenchData  `json:"quenchData"`
	Results *ResultsData `json:"resultsData"`
	Photos  PhotoSet     `json:"-"`
	// Raw keeps the untyped document for ${path} bindings.
	Raw map[string]any `json:"-"`
}

// Trial 试验基本信息。
type Trial struct {
	Code          Text      `json:"trial_code"`
	Date          Text      `json:"trial_date"`
	Status        Text      `json:"status"`
	Location      Text      `json:"location"`
	Description   Text      `json:"description"`
	Observations  Text      `json:"observations"`
	Observation   Text      `json:"observation"`
	Conclusion    Text      `json:"conclusion"`
	PostTreatment Text      `json:"post_treatment"`
	Load          *LoadData `json:"load_data"`
}

// ObservationText returns the observations, accepting both field spellings.
func (t Trial) ObservationText() string {
	return first(t.Observations, t.Observation).String()
}

// LoadData describes how the parts were loaded in the furnace.
type LoadData struct {
	PartCount     numeric.Value `json:"part_count"`
	Weight        numeric.Value `json:"weight"`
	WeightUnit    Text          `json:"weight_unit"`
	Floors        numeric.Value `json:"floors"`
	PartsPerFloor numeric.Value `json:"parts_per_floor"`
	Arrangement   Text          `json:"arrangement"`
	Comments      Text          `json:"comments"`
}

// Field is a label/value pair shown in a field list.
type Field struct {
	Label string
	Value string
}

// Fields returns the filled load fields in display order.
func (l *LoadData) Fields() []Field {
	if l == nil {
		return nil
	}
	var out []Field
	add := func(label string, v numeric.Value, unit string) {
		if s := v.String(); s != "" {
			if unit != "" {
				s += " " + unit
			}
			out = append(out, Field{label, s})
		}
	}
	add("Part Count", l.PartCount, "")
	add("Total Weight", l.Weight, l.WeightUnit.Or(firstNonEmpty(l.Weight.Unit(), "kg")))
	add("Floors", l.Floors, "")
	add("Parts per Floor", l.PartsPerFloor, "")
	if !l.Arrangement.Empty() {
		out = append(out, Field{"Arrangement", l.Arrangement.String()})
	}
	if !l.Comments.Empty() {
		out = append(out, Field{"Comments", l.Comments.String()})
	}
	return out
}

// Client 客户信息。
type Client struct {
	Name    Text `json:"name"`
	Country Text `json:"country"`
	City    Text `json:"city"`
}

// Location 返回 "城市, 国家"。
func (c Client) Location() string {
	var parts []string
	for _, v := range []Text{c.City, c.Country} {
		if !v.Empty() {
			parts = append(parts, v.String())
		}
	}
	return strings.Join(parts, ", ")
}

// Steel accepts either {"grade": "..."} or a plain string.
type Steel struct {
	Grade Text `json:"grade"`
	Plain Text `json:"-"`
}

// UnmarshalJSON 兼容字符串与对象两种写法。
func (s *Steel) UnmarshalJSON(data []byte) error {
	*s = Steel{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var obj struct {
			Grade Text `json:"grade"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil
		}
		s.Grade = obj.Grade
		return nil
	}
	return s.Plain.UnmarshalJSON(trimmed)
}

// Part is the treated part with its dimensions and specifications.
type Part struct {
	Designation       Text           `json:"designation"`
	ClientDesignation Text           `json:"client_designation"`
	Reference         Text           `json:"reference"`
	Quantity          Text           `json:"quantity"`
	Steel             Steel          `json:"steel"`
	SteelGradeCamel   Text           `json:"steelGrade"`
	SteelGradeSnake   Text           `json:"steel_grade"`
	RectLength        Text           `json:"dim_rect_length"`
	RectWidth         Text           `json:"dim_rect_width"`
	RectHeight        Text           `json:"dim_rect_height"`
	RectUnit          Text           `json:"dim_rect_unit"`
	DiameterOut       Text           `json:"dim_circ_diameterOut"`
	DiameterIn        Text           `json:"dim_circ_diameterIn"`
	CircUnit          Text           `json:"dim_circ_unit"`
	WeightValue       Text           `json:"dim_weight_value"`
	WeightUnit        Text           `json:"dim_weight_unit"`
	HardnessSpecs     []HardnessSpec `json:"hardnessSpecs"`
	ECDSpecs          []ECDSpec      `json:"ecdSpecs"`
	Specifications    *PartSpecs     `json:"specifications"`
}

// PartSpecs is the nested specifications object some payloads carry.
type PartSpecs struct {
	HardnessSpecs []HardnessSpec `json:"hardnessSpecs"`
	ECDSpecs      []ECDSpec      `json:"ecdSpecs"`
}

// SteelGrade resolves the grade through every known spelling.
func (p Part) SteelGrade() string {
	return first(p.Steel.Grade, p.SteelGradeCamel, p.SteelGradeSnake, p.Steel.Plain).Or(NotSpecified)
}

// Dimensions formats rectangular, circular and weight dimensions as one line.
func (p Part) Dimensions() string {
	var dims []string
	var rect []string
	for _, d := range []Text{p.RectLength, p.RectWidth, p.RectHeight} {
		if d.Filled() {
			rect = append(rect, d.String())
		}
	}
	if len(rect) > 0 {
		dims = append(dims, strings.Join(rect, " × ")+" "+p.RectUnit.Or("mm"))
	}
	var circ []string
	if p.DiameterOut.Filled() {
		circ = append(circ, "⌀ ext: "+p.DiameterOut.String())
	}
	if p.DiameterIn.Filled() {
		circ = append(circ, "⌀ int: "+p.DiameterIn.String())
	}
	if len(circ) > 0 {
		dims = append(dims, strings.Join(circ, ", ")+" "+p.CircUnit.Or("mm"))
	}
	if p.WeightValue.Filled() {
		dims = append(dims, p.WeightValue.String()+" "+p.WeightUnit.Or("kg"))
	}
	if len(dims) == 0 {
		return NotSpecified
	}
	return strings.Join(dims, " | ")
}

// Hardness returns the hardness specifications, preferring the nested
// specifications object.
func (p Part) Hardness() []HardnessSpec {
	if p.Specifications != nil && len(p.Specifications.HardnessSpecs) > 0 {
		return p.Specifications.HardnessSpecs
	}
	return p.HardnessSpecs
}

// ECD returns the ECD specifications, preferring the nested object.
func (p Part) ECD() []ECDSpec {
	if p.Specifications != nil && len(p.Specifications.ECDSpecs) > 0 {
		return p.Specifications.ECDSpecs
	}
	return p.ECDSpecs
}

// HardnessSpec is a min/max hardness requirement.
type HardnessSpec struct {
	Name Text          `json:"name"`
	Min  numeric.Value `json:"min"`
	Max  numeric.Value `json:"max"`
	Unit Text          `json:"unit"`
}

// Label returns the name, or "Spec N" for the 0-based index i.
func (s HardnessSpec) Label(i int) string {
	return s.Name.Or(fmt.Sprintf("Spec %d", i+1))
}

// Describe 例如 "550 - 650 HV"。
func (s HardnessSpec) Describe() string {
	return describeRange("", s.Min, s.Max, s.Unit.String())
}

// ECDSpec is an effective case depth requirement: a depth range reached
// at a reference hardness.
type ECDSpec struct {
	Name         Text          `json:"name"`
	DepthMin     numeric.Value `json:"depthMin"`
	DepthMax     numeric.Value `json:"depthMax"`
	Range        Text          `json:"range"`
	DepthUnit    Text          `json:"depthUnit"`
	Hardness     numeric.Value `json:"hardness"`
	YValue       numeric.Value `json:"yValue"`
	HardnessUnit Text          `json:"hardnessUnit"`
}

// Label returns the name, or "ECD N".
func (s ECDSpec) Label(i int) string {
	return s.Name.Or(fmt.Sprintf("ECD %d", i+1))
}

// Describe 例如 "Depth: 0.6 - 0.9 mm | Hardness: 550 HV"。
func (s ECDSpec) Describe() string {
	text := describeRange("Depth: ", s.DepthMin, s.DepthMax, s.DepthUnit.Or("mm"))
	if h, ok := s.HardnessValue(); ok {
		text += " | Hardness: " + strconv.FormatFloat(h, 'f', -1, 64)
		if u := s.HardnessUnit.String(); u != "" {
			text += " " + u
		}
	}
	return text
}

// HardnessValue returns the reference hardness (hardness, then yValue).
func (s ECDSpec) HardnessValue() (float64, bool) {
	if v, ok := s.Hardness.Get(); ok {
		return v, true
	}
	return s.YValue.Get()
}

var depthRange = regexp.MustCompile(`(\d+\.?\d*)-(\d+\.?\d*)`)

// Depth returns the depth interval from depthMin/depthMax, or parsed from
// range ("0.6-0.9"). ok is false when neither bound pair is usable.
func (s ECDSpec) Depth() (from, to float64, ok bool) {
	lo, okLo := s.DepthMin.Get()
	hi, okHi := s.DepthMax.Get()
	if okLo && okHi {
		return lo, hi, true
	}
	m := depthRange.FindStringSubmatch(strings.ReplaceAll(s.Range.String(), " ", ""))
	if m == nil {
		return 0, 0, false
	}
	lo, errLo := strconv.ParseFloat(m[1], 64)
	hi, errHi := strconv.ParseFloat(m[2], 64)
	if errLo != nil || errHi != nil {
		return 0, 0, false
	}
	return lo, hi, true
}

func describeRange(prefix string, min, max numeric.Value, unit string) string {
	suffix := ""
	if unit != "" {
		suffix = " " + unit
	}
	lo, hi := min.String(), max.String()
	switch {
	case lo != "" && hi != "":
		return prefix + lo + " - " + hi + suffix
	case lo != "":
		return prefix + "Min: " + lo + suffix
	case hi != "":
		return prefix + "Max: " + hi + suffix
	}
	return prefix + NotSpecified
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Decode reads one JSON payload. Numeric and text fields are decoded
// leniently; only syntax errors and an empty document fail.
func Decode(r io.Reader, opts ...PhotoOption) (*Input, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("读取报告数据失败: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyPayload
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("解析报告 JSON 失败: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrEmptyPayload
	}
	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("报告数据结构无效: %w", err)
	}
	var envelope struct {
		Photos json.RawMessage `json:"photos"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("报告数据结构无效: %w", err)
	}
	photos, err := NormalizePhotos(envelope.Photos, opts...)
	if err != nil {
		return nil, err
	}
	in.Photos = photos
	in.Raw = raw
	return &in, nil
}
