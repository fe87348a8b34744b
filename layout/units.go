package layout

import (
	"strconv"
	"strings"
)

// Unit is the unit a style length was declared with.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers like factors
	UnitMM               // millimeters
	UnitCM               // centimeters
	UnitIN               // inches
	UnitPT               // points
)

// Conversion constants between pt and mm. Charts and photo slots are sized
// in pt, pages in mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	switch u {
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPT:
		return "pt"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// To converts this length to target unit. Supported targets: UnitMM, UnitPT.
// Unit-less values are returned as-is.
func (l Length) To(target Unit) float64 {
	var mm float64
	switch l.Unit {
	case UnitMM:
		mm = l.Value
	case UnitCM:
		mm = l.Value * 10
	case UnitIN:
		mm = l.Value * 25.4
	case UnitPT:
		if target == UnitPT {
			return l.Value
		}
		mm = l.Value * PtToMm
	default:
		return l.Value
	}
	if target == UnitPT {
		return mm * MmToPt
	}
	return mm
}

func (l Length) ToMM() float64 { return l.To(UnitMM) }
func (l Length) ToPT() float64 { return l.To(UnitPT) }

// ParseRawLengthStr parses "9pt", "3mm", "1cm" or "0.5in" preserving the
// unit. Bare or invalid numbers give UnitNone.
func ParseRawLengthStr(value string) Length {
	lower := strings.ToLower(strings.TrimSpace(value))
	if lower == "" {
		return Length{Value: 0, Unit: UnitNone}
	}
	unit := UnitNone
	num := lower
	for _, suf := range []struct {
		s string
		u Unit
	}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}} {
		if strings.HasSuffix(lower, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(lower, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{Value: 0, Unit: UnitNone}
	}
	return Length{Value: f, Unit: unit}
}

// LineHeightKind distinguishes factor-based vs absolute line-height specification.
type LineHeightKind int

const (
	LineHeightFactor LineHeightKind = iota
	LineHeightAbsolute
)

// defaultLineHeight 未声明行高时使用 1.4 倍字号。
const defaultLineHeight = 1.4

// LineHeightSpec is either a factor of the font size (1.2x) or an absolute
// length (18pt).
type LineHeightSpec struct {
	Kind   LineHeightKind `json:"kind"`
	Factor float64        `json:"factor,omitempty"`
	Len    Length         `json:"len,omitempty"`
}

// ParseLineHeight accepts "1.2x" or an absolute length. Anything else falls
// back to the default factor.
func ParseLineHeight(value string) LineHeightSpec {
	v := strings.TrimSpace(value)
	if strings.HasSuffix(v, "x") {
		if f, err := strconv.ParseFloat(strings.TrimSuffix(v, "x"), 64); err == nil && f > 0 {
			return LineHeightSpec{Kind: LineHeightFactor, Factor: f}
		}
	} else if l := ParseRawLengthStr(v); l.Unit != UnitNone && l.Value > 0 {
		return LineHeightSpec{Kind: LineHeightAbsolute, Len: l}
	}
	return LineHeightSpec{Kind: LineHeightFactor, Factor: defaultLineHeight}
}

// Resolve computes the absolute line height in target unit using the given fontSize (which carries its unit).
func (s LineHeightSpec) Resolve(fontSize Length, target Unit) float64 {
	switch s.Kind {
	case LineHeightFactor:
		return fontSize.To(target) * s.Factor
	case LineHeightAbsolute:
		return s.Len.To(target)
	default:
		return fontSize.To(target) * defaultLineHeight
	}
}

// JSON returns the debug representation.
func (s LineHeightSpec) JSON() RawLineHeightJSON {
	if s.Kind == LineHeightAbsolute {
		return RawLineHeightJSON{Kind: "absolute", Value: s.Len.Value, Unit: UnitToString(s.Len.Unit)}
	}
	return RawLineHeightJSON{Kind: "factor", Factor: s.Factor}
}
