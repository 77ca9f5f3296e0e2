package layout

// Align 表示整行的水平对齐方式。
type Align string

const (
	AlignLeft   Align = "left"
	AlignRight  Align = "right"
	AlignCenter Align = "center"
)

// 常用字重。
const (
	WeightNormal = 400
	WeightBold   = 700
)

// 内置字体族名称，与 fonts 包的内置字体保持一致。
const (
	FamilySans = "sans"
	FamilyMono = "mono"
)

// Style 是不可变的样式值：派生新样式时总是返回副本，不在原值上修改。
// 长度单位统一为 pt。
type Style struct {
	Family          string  `json:"family"`
	Weight          int     `json:"weight"`
	Italic          bool    `json:"italic,omitempty"`
	Size            float64 `json:"size"`
	LetterSpacing   float64 `json:"letterSpacing,omitempty"`
	LineHeight      float64 `json:"lineHeight,omitempty"` // 显式行高，<=0 表示按字体度量计算
	StrokeThickness float64 `json:"strokeThickness,omitempty"`
	WrapWidth       float64 `json:"wrapWidth"`
	Align           Align   `json:"align,omitempty"`
	Leading         float64 `json:"leading,omitempty"`
	Color           Color   `json:"color"`
}

// DefaultStyle 返回根样式的默认值。
func DefaultStyle() Style {
	return Style{
		Family:    FamilySans,
		Weight:    WeightNormal,
		Size:      16,
		WrapWidth: 500,
		Align:     AlignLeft,
		Color:     Color{R: 30, G: 30, B: 30},
	}
}

func (s Style) WithFamily(family string) Style {
	s.Family = family
	return s
}

func (s Style) WithWeight(weight int) Style {
	s.Weight = weight
	return s
}

func (s Style) WithItalic(italic bool) Style {
	s.Italic = italic
	return s
}

func (s Style) WithSize(size float64) Style {
	s.Size = size
	return s
}

func (s Style) WithWrapWidth(width float64) Style {
	s.WrapWidth = width
	return s
}

func (s Style) WithAlign(align Align) Style {
	s.Align = align
	return s
}

func (s Style) WithLineHeight(lh float64) Style {
	s.LineHeight = lh
	return s
}

func (s Style) WithLetterSpacing(ls float64) Style {
	s.LetterSpacing = ls
	return s
}

func (s Style) WithLeading(leading float64) Style {
	s.Leading = leading
	return s
}

func (s Style) WithColor(c Color) Style {
	s.Color = c
	return s
}

// Bold 判断字重是否应选用粗体字形。
func (s Style) Bold() bool { return s.Weight >= 600 }

// ResolvedLineHeight 返回显式行高；未设置时为字号度量加描边宽度。
func (s Style) ResolvedLineHeight(m FontMetrics) float64 {
	if s.LineHeight > 0 {
		return s.LineHeight
	}
	return m.FontSize + s.StrokeThickness
}

// alignment 归一化对齐方式，未知值按 left 处理。
func (s Style) alignment() Align {
	switch s.Align {
	case AlignRight, AlignCenter:
		return s.Align
	default:
		return AlignLeft
	}
}
