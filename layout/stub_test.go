package layout

import (
	"errors"
	"unicode/utf8"
)

// stubMetrics 是测试用的确定性度量：每个字符宽 advance，升部/降部按字号 8:2 分配。
// 真实字体实现位于 fontmetrics 包，这里不引用以避免循环依赖。
type stubMetrics struct {
	advance float64
	err     error
}

func newStub() *stubMetrics { return &stubMetrics{advance: 10} }

func (s *stubMetrics) MeasureText(_ Style, text string) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return float64(utf8.RuneCountInString(text)) * s.advance, nil
}

func (s *stubMetrics) FontMetrics(style Style) (FontMetrics, error) {
	if s.err != nil {
		return FontMetrics{}, s.err
	}
	return FontMetrics{
		Ascent:   style.Size * 0.8,
		Descent:  style.Size * 0.2,
		FontSize: style.Size,
	}, nil
}

var errStubFont = errors.New("stub: font missing")

func testStyle(width float64) Style {
	return DefaultStyle().WithSize(10).WithWrapWidth(width)
}
