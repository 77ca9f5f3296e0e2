package layout

// 该文件定义排版过程中的共享数据：字体度量、run、行与版面（forme），
// 供折行、排版、压印（press）与调试 JSON 共用。

// FontMetrics 描述某个样式下字体的纵向度量。FontSize 约定为 Ascent+Descent。
// Leading 为可选的额外行距，缺省为 0。
type FontMetrics struct {
	Ascent   float64 `json:"ascent"`
	Descent  float64 `json:"descent"`
	FontSize float64 `json:"fontSize"`
	Leading  float64 `json:"leading,omitempty"`
}

// RunKind 区分 run 的种类。
type RunKind int

const (
	RunText RunKind = iota
	RunImage
	RunSpacer
)

func (k RunKind) String() string {
	switch k {
	case RunText:
		return "text"
	case RunImage:
		return "image"
	case RunSpacer:
		return "spacer"
	default:
		return "unknown"
	}
}

// MarshalText 让调试 JSON 中输出可读的种类名。
func (k RunKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Run 是行内的一个可放置单元：文本片段、内联图片或竖直间隔。
// X 为相对行首的水平偏移（未对齐前），Width 为测量宽度。
type Run struct {
	Kind    RunKind     `json:"kind"`
	Text    string      `json:"text,omitempty"`
	Image   *ImageEntry `json:"image,omitempty"`
	X       float64     `json:"x"`
	Width   float64     `json:"width"`
	Style   Style       `json:"style"`
	Metrics FontMetrics `json:"metrics"`
}

// Line 是按插入顺序排列的 run，构建后不再排序。
type Line []Run

// IsSpacer 判断该行是否只包含间隔 run。
func (l Line) IsSpacer() bool {
	if len(l) == 0 {
		return false
	}
	for _, r := range l {
		if r.Kind != RunSpacer {
			return false
		}
	}
	return true
}

// Width 返回行内所有 run 的宽度之和。
func (l Line) Width() float64 {
	total := 0.0
	for _, r := range l {
		total += r.Width
	}
	return total
}

// Text 拼接行内文本 run 的内容，便于测试与调试。
func (l Line) Text() string {
	out := ""
	for _, r := range l {
		if r.Kind == RunText {
			out += r.Text
		}
	}
	return out
}

// Forme 是一个文档完整的行序列（未绘制的版面）。
// 返回给调用方之后视为只读；最后一行永远不是纯间隔行。
type Forme []Line

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// DocumentMeta 保存导出文件的元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}
