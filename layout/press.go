package layout

import "math"

// PlacedRun 是压印后的 run，坐标为画布绝对坐标（pt，左上角为原点）。
// Ascent 为 Y 到基线的距离。
type PlacedRun struct {
	Kind   RunKind     `json:"kind"`
	Text   string      `json:"text,omitempty"`
	Image  *ImageEntry `json:"image,omitempty"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Ascent float64     `json:"ascent"`
	Style  Style       `json:"style"`
}

// Pressed 是压印结果：按顺序排列的 run 与画布尺寸。
type Pressed struct {
	Runs   []PlacedRun `json:"runs"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
}

// Empty 表示文档没有任何可绘制的高度，调用方无需分配画布。
func (p *Pressed) Empty() bool { return p == nil || p.Height == 0 }

// Press 计算每行的行高、共享基线与每个 run 的水平位置。
// 间隔 run 参与行高计算但不会输出。Press 不修改 forme，重复调用结果一致。
func Press(forme Forme) *Pressed {
	out := &Pressed{}
	top := 0.0
	for _, line := range forme {
		lineHeight, baseline, leading := 0.0, 0.0, 0.0
		lineWidth := line.Width()
		for _, run := range line {
			lineHeight = math.Max(lineHeight, run.Metrics.Ascent+run.Metrics.Descent)
			baseline = math.Max(baseline, run.Metrics.Ascent)
			leading = math.Max(leading, math.Max(run.Style.Leading, run.Metrics.Leading))
			out.Width = math.Max(out.Width, run.Style.WrapWidth)
		}

		for _, run := range line {
			if run.Kind == RunSpacer {
				continue
			}
			out.Runs = append(out.Runs, PlacedRun{
				Kind:   run.Kind,
				Text:   run.Text,
				Image:  run.Image,
				X:      math.Round(alignedX(run, lineWidth)),
				Y:      math.Round(top + (baseline - run.Metrics.Ascent)),
				Width:  run.Width,
				Height: run.Metrics.Ascent + run.Metrics.Descent,
				Ascent: run.Metrics.Ascent,
				Style:  run.Style,
			})
		}
		top += lineHeight + leading
	}
	out.Height = top
	return out
}

// alignedX 按 run 自身样式的对齐方式计算水平位置。
func alignedX(run Run, lineWidth float64) float64 {
	switch run.Style.alignment() {
	case AlignRight:
		return (run.Style.WrapWidth - lineWidth) + run.X
	case AlignCenter:
		return (run.Style.WrapWidth-lineWidth)/2 + run.X
	default:
		return run.X
	}
}
