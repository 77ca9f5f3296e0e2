package layout

import (
	"math"
	"testing"
)

// TestPtMmRoundTrip 验证 pt↔mm 换算的往返精度（允许极小的浮点误差）。
func TestPtMmRoundTrip(t *testing.T) {
	samples := []float64{0, 0.001, 1, 12, 14.4, 72, 96, 144, 1000}
	for _, pt := range samples {
		mm := pt * PtToMm
		back := mm * MmToPt
		if diff := math.Abs(back - pt); diff > 1e-9 {
			t.Fatalf("pt→mm→pt 往返误差过大: in=%gpt mm=%g back=%g diff=%g", pt, mm, back, diff)
		}
	}
}

// TestLengthPt 覆盖各单位换算到 pt 的结果，以及相对单位基于参考值的解析。
func TestLengthPt(t *testing.T) {
	cases := []struct {
		in   string
		ref  float64
		want float64
	}{
		{"12", 0, 12},
		{"12pt", 0, 12},
		{"16px", 0, 12},
		{"1in", 0, 72},
		{"25.4mm", 0, 72},
		{"2.54cm", 0, 72},
		{"50%", 300, 150},
		{"1.5x", 10, 15},
		{"-0.5pt", 0, -0.5},
	}
	for _, c := range cases {
		l, ok := ParseLength(c.in)
		if !ok {
			t.Fatalf("%s 解析失败", c.in)
		}
		if got := l.Pt(c.ref); math.Abs(got-c.want) > 1e-4 {
			t.Fatalf("%s 换算错误: got=%g want=%g", c.in, got, c.want)
		}
	}
	if _, ok := ParseLength("abc"); ok {
		t.Fatalf("非法长度不应解析成功")
	}
	if _, ok := ParseLength(""); ok {
		t.Fatalf("空字符串不应解析成功")
	}
}

// TestLineHeightResolve 验证行高解析：倍数与绝对值两种语义。
func TestLineHeightResolve(t *testing.T) {
	spec, ok := ParseLineHeight("1.2x")
	if !ok || spec.Kind != LineHeightFactor {
		t.Fatalf("1.2x 应解析为倍数行高: %+v", spec)
	}
	if got := spec.Resolve(10); math.Abs(got-12) > 1e-9 {
		t.Fatalf("1.2x 行高错误: got=%g", got)
	}

	spec, ok = ParseLineHeight("1.5")
	if !ok || spec.Kind != LineHeightFactor {
		t.Fatalf("无单位数值应视为倍数: %+v", spec)
	}

	spec, ok = ParseLineHeight("18pt")
	if !ok || spec.Kind != LineHeightAbsolute {
		t.Fatalf("18pt 应解析为绝对行高: %+v", spec)
	}
	if got := spec.Resolve(10); math.Abs(got-18) > 1e-9 {
		t.Fatalf("18pt 行高错误: got=%g", got)
	}
}
