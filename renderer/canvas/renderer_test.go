package canvasrenderer

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"math"
	"testing"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/forme/layout"
	"github.com/ByLCY/forme/markup"
	"github.com/ByLCY/forme/renderer"
)

func bodyStyle() layout.Style {
	return layout.DefaultStyle().WithSize(12).WithWrapWidth(200)
}

func TestMeasureTextScalesWithLength(t *testing.T) {
	r := NewRenderer()

	short, err := r.MeasureText(bodyStyle(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	long, err := r.MeasureText(bodyStyle(), "hellohello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if short <= 0 {
		t.Fatalf("expected positive width, got %g", short)
	}
	if diff := math.Abs(long - 2*short); diff > 0.5 {
		t.Fatalf("width should double: short=%g long=%g", short, long)
	}

	empty, err := r.MeasureText(bodyStyle(), "")
	if err != nil || empty != 0 {
		t.Fatalf("empty string must measure 0, got %g (%v)", empty, err)
	}
}

// TestBoldIsWider 粗体字形应比常规字形更宽。
func TestBoldIsWider(t *testing.T) {
	r := NewRenderer()
	regular, err := r.MeasureText(bodyStyle(), "typesetting")
	if err != nil {
		t.Fatalf("measure error: %v", err)
	}
	bold, err := r.MeasureText(bodyStyle().WithWeight(layout.WeightBold), "typesetting")
	if err != nil {
		t.Fatalf("measure error: %v", err)
	}
	if bold <= regular {
		t.Fatalf("expected bold wider than regular: bold=%g regular=%g", bold, regular)
	}
}

// TestMonoEqualWidth 等宽字体中不同字符宽度一致。
func TestMonoEqualWidth(t *testing.T) {
	r := NewRenderer()
	style := bodyStyle().WithFamily(layout.FamilyMono)
	narrow, err := r.MeasureText(style, "iiii")
	if err != nil {
		t.Fatalf("measure error: %v", err)
	}
	wide, err := r.MeasureText(style, "WWWW")
	if err != nil {
		t.Fatalf("measure error: %v", err)
	}
	if math.Abs(narrow-wide) > 1e-6 {
		t.Fatalf("mono widths differ: %g vs %g", narrow, wide)
	}
}

func TestFontMetrics(t *testing.T) {
	r := NewRenderer()
	m, err := r.FontMetrics(bodyStyle())
	if err != nil {
		t.Fatalf("metrics error: %v", err)
	}
	if m.Ascent <= m.Descent || m.Descent <= 0 {
		t.Fatalf("unexpected metrics %+v", m)
	}
	if math.Abs(m.FontSize-(m.Ascent+m.Descent)) > 1e-9 {
		t.Fatalf("FontSize must equal ascent+descent: %+v", m)
	}

	if _, err := r.FontMetrics(bodyStyle().WithFamily("missing")); err == nil {
		t.Fatalf("expected error for unknown family")
	}
}

func pressDocument(t *testing.T, r *Renderer) *layout.Pressed {
	t.Helper()
	doc := markup.NewElement(markup.TagDocument, nil,
		markup.NewElement(markup.TagHeader, markup.Props{"level": 1}, "Title"),
		markup.NewElement(markup.TagParagraph, nil, "hello ", markup.NewElement(markup.TagEmphasis, nil, "world"), " again and again"),
	)
	forme, err := layout.Typeset(doc, bodyStyle(), layout.Options{Metrics: r})
	if err != nil {
		t.Fatalf("typeset error: %v", err)
	}
	return layout.Press(forme)
}

func TestRenderPDF(t *testing.T) {
	r := NewRendererWithOptions(Options{Meta: layout.DocumentMeta{Title: "T", Creator: "forme"}})
	data, err := r.Render(pressDocument(t, r))
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("expected PDF header, got %q", data[:min(8, len(data))])
	}
}

func TestRenderPNG(t *testing.T) {
	r := NewRendererWithOptions(Options{Format: FormatPNG, DPI: 72, Margin: 10})
	pressed := pressDocument(t, r)

	spacing := bodyStyle().WithLetterSpacing(1)
	pressed.Runs = append(pressed.Runs, layout.PlacedRun{
		Kind: layout.RunText, Text: "spaced", X: 0, Y: 0, Width: 60, Height: 12, Ascent: 10, Style: spacing,
	})
	logo := image.NewRGBA(image.Rect(0, 0, 8, 4))
	pressed.Runs = append(pressed.Runs, layout.PlacedRun{
		Kind: layout.RunImage, Image: &layout.ImageEntry{Name: "logo", Image: logo}, X: 100, Y: 0, Width: 16, Height: 8, Ascent: 8,
	})

	data, err := r.Render(pressed)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	wantW := pressed.Width + 20
	if got := float64(img.Bounds().Dx()); math.Abs(got-wantW) > 2 {
		t.Fatalf("png width = %g, want about %g", got, wantW)
	}
}

func TestRenderEmpty(t *testing.T) {
	r := NewRenderer()
	if _, err := r.Render(layout.Press(nil)); !errors.Is(err, renderer.ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestRenderMissingImage(t *testing.T) {
	r := NewRenderer()
	pressed := &layout.Pressed{
		Width:  100,
		Height: 20,
		Runs:   []layout.PlacedRun{{Kind: layout.RunImage, Image: &layout.ImageEntry{Name: "x"}, Width: 10, Height: 10}},
	}
	if _, err := r.Render(pressed); err == nil {
		t.Fatalf("expected error for unloaded image")
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"pdf": FormatPDF, ".PNG": FormatPNG} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("svg"); err == nil {
		t.Fatalf("expected error for svg")
	}
}

func TestParseFontStyle(t *testing.T) {
	s := parseFontStyle(bodyStyle().WithWeight(layout.WeightBold).WithItalic(true))
	if s&canvas.FontItalic == 0 {
		t.Fatalf("italic flag missing: %v", s)
	}
}

func TestRenderSkipsBlankRuns(t *testing.T) {
	r := NewRenderer()
	doc := markup.NewElement(markup.TagCodeBlock, nil, "x\n\ny")
	forme, err := layout.Typeset(doc, bodyStyle(), layout.Options{Metrics: r})
	if err != nil {
		t.Fatalf("typeset error: %v", err)
	}
	pressed := layout.Press(forme)
	if len(pressed.Runs) != 3 || pressed.Runs[1].Text != "" {
		t.Fatalf("expected a blank run between x and y, got %+v", pressed.Runs)
	}

	// 空文本 run 不查询字体，未知字族也不会出错。
	pressed.Runs[1].Style = pressed.Runs[1].Style.WithFamily("missing")
	if _, err := r.Render(pressed); err != nil {
		t.Fatalf("render error: %v", err)
	}
}
