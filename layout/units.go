package layout

import (
	"strconv"
	"strings"
)

// 排版内部统一以 pt 为长度单位；样式表中的长度在编译时换算为 pt，
// 渲染到 canvas（mm）时再在边界换算。

// Unit represents the original unit of a length value as written in a sheet.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers, taken as pt for absolute lengths
	UnitPT
	UnitPX
	UnitMM
	UnitCM
	UnitIN
	UnitPercent
	UnitFactor // "1.2x"
)

// Conversion constants.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
	PxToPt = 0.75
)

func (u Unit) String() string {
	switch u {
	case UnitPT:
		return "pt"
	case UnitPX:
		return "px"
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPercent:
		return "%"
	case UnitFactor:
		return "x"
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

// IsRelative reports whether the length needs a reference value to resolve.
func (l Length) IsRelative() bool { return l.Unit == UnitPercent || l.Unit == UnitFactor }

// Pt converts an absolute length to pt. Relative lengths resolve against ref:
// "50%" is half of ref, "1.5x" is one and a half times ref.
func (l Length) Pt(ref float64) float64 {
	switch l.Unit {
	case UnitPT, UnitNone:
		return l.Value
	case UnitPX:
		return l.Value * PxToPt
	case UnitMM:
		return l.Value * MmToPt
	case UnitCM:
		return l.Value * 10 * MmToPt
	case UnitIN:
		return l.Value * 72
	case UnitPercent:
		return ref * l.Value / 100
	case UnitFactor:
		return ref * l.Value
	default:
		return l.Value
	}
}

// ToMM converts an absolute length to millimeters.
func (l Length) ToMM() float64 { return l.Pt(0) * PtToMm }

var unitSuffixes = []struct {
	s string
	u Unit
}{{"pt", UnitPT}, {"px", UnitPX}, {"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"%", UnitPercent}, {"x", UnitFactor}}

// ParseLength parses a sheet length string preserving its unit.
// Unparsable input yields a zero length and ok=false.
func ParseLength(value string) (Length, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, false
	}
	unit := UnitNone
	num := v
	for _, suf := range unitSuffixes {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, false
	}
	return Length{Value: f, Unit: unit}, true
}

// LineHeightKind distinguishes factor-based vs absolute line-height specification.
type LineHeightKind int

const (
	LineHeightFactor LineHeightKind = iota
	LineHeightAbsolute
)

// LineHeightSpec preserves author intent: either a factor of the font size
// ("1.2x" or a bare "1.2") or an absolute length ("18pt").
type LineHeightSpec struct {
	Kind   LineHeightKind `json:"kind"`
	Factor float64        `json:"factor,omitempty"`
	Len    Length         `json:"len,omitempty"`
}

// ParseLineHeight interprets a sheet line-height value.
func ParseLineHeight(value string) (LineHeightSpec, bool) {
	l, ok := ParseLength(value)
	if !ok {
		return LineHeightSpec{}, false
	}
	switch l.Unit {
	case UnitNone, UnitFactor:
		return LineHeightSpec{Kind: LineHeightFactor, Factor: l.Value}, true
	case UnitPercent:
		return LineHeightSpec{Kind: LineHeightFactor, Factor: l.Value / 100}, true
	default:
		return LineHeightSpec{Kind: LineHeightAbsolute, Len: l}, true
	}
}

// Resolve computes the absolute line height in pt for the given font size (pt).
func (s LineHeightSpec) Resolve(fontSize float64) float64 {
	switch s.Kind {
	case LineHeightFactor:
		return fontSize * s.Factor
	case LineHeightAbsolute:
		return s.Len.Pt(fontSize)
	default:
		return fontSize * 1.4
	}
}
