package layout

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// WrappedLine 是 Wrapper.Next 的一次输出。
// Text 为空且 Finished 为 false 表示首词放不下、调用方需换行后重试（不消耗文本）。
type WrappedLine struct {
	Text       string
	Width      float64
	SpaceLeft  float64
	LineHeight float64
	Metrics    FontMetrics
	Finished   bool
}

// Wrapper 是贪心折行器：持有尚未消耗的文本，每次 Next 只处理第一个物理行
// （到第一个换行符为止），尽可能多地放入单词。
type Wrapper struct {
	remaining  string
	style      Style
	provider   FontMetricsProvider
	metrics    FontMetrics
	lineHeight float64
	spaceWidth float64
}

// NewWrapper 为给定文本与样式创建折行器，并预先查询字体度量与空格宽度。
func NewWrapper(text string, style Style, provider FontMetricsProvider) (*Wrapper, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: 缺少字体度量提供方", ErrMetrics)
	}
	metrics, err := provider.FontMetrics(style)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetrics, err)
	}
	space, err := provider.MeasureText(style, " ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetrics, err)
	}
	return &Wrapper{
		remaining:  text,
		style:      style,
		provider:   provider,
		metrics:    metrics,
		lineHeight: style.ResolvedLineHeight(metrics),
		spaceWidth: space + style.LetterSpacing,
	}, nil
}

// Remaining 返回尚未消耗的文本。
func (w *Wrapper) Remaining() string { return w.remaining }

// Next 产出下一行。indent 为该行已占用的水平偏移，有效宽度为
// max(0, WrapWidth-indent)。allowLonger 为 true 时首词即使超宽也会放入，
// 保证每次调用至少消耗一个单词。
func (w *Wrapper) Next(indent float64, allowLonger bool) (WrappedLine, error) {
	wrapWidth := math.Max(0, w.style.WrapWidth-indent)
	spaceLeft := wrapWidth

	physical, _, _ := strings.Cut(w.remaining, "\n")
	words := strings.Split(physical, " ")

	consumed := 0 // 已放入本行的字节数
	for j, word := range words {
		wordWidth, err := w.measure(word)
		if err != nil {
			return WrappedLine{}, err
		}
		withSpace := wordWidth + w.spaceWidth

		if j == 0 {
			if withSpace > spaceLeft && !allowLonger {
				// 不允许首词溢出：交还调用方换行，状态不变。
				return WrappedLine{
					SpaceLeft:  spaceLeft,
					LineHeight: w.lineHeight,
					Metrics:    w.metrics,
				}, nil
			}
			consumed = len(word)
			spaceLeft = wrapWidth - wordWidth
			continue
		}
		if withSpace > spaceLeft {
			break
		}
		spaceLeft -= withSpace
		consumed += 1 + len(word)
	}

	line := physical[:consumed]
	if consumed+1 >= len(w.remaining) {
		w.remaining = ""
	} else {
		w.remaining = w.remaining[consumed+1:]
	}

	width, err := w.measure(line)
	if err != nil {
		return WrappedLine{}, err
	}
	return WrappedLine{
		Text:       line,
		Width:      width,
		SpaceLeft:  spaceLeft,
		LineHeight: w.lineHeight,
		Metrics:    w.metrics,
		Finished:   w.remaining == "",
	}, nil
}

// measure 返回文本宽度，含字间距：(字符数-1)*LetterSpacing。
func (w *Wrapper) measure(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	width, err := w.provider.MeasureText(w.style, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMetrics, err)
	}
	return width + float64(utf8.RuneCountInString(s)-1)*w.style.LetterSpacing, nil
}
