package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textRun(text string, x, width, size float64, style Style) Run {
	return Run{
		Kind:    RunText,
		Text:    text,
		X:       x,
		Width:   width,
		Style:   style.WithSize(size),
		Metrics: FontMetrics{Ascent: size * 0.8, Descent: size * 0.2, FontSize: size},
	}
}

func TestPressSharedBaseline(t *testing.T) {
	style := testStyle(200)
	forme := Forme{
		{textRun("small", 0, 50, 10, style), textRun("big", 50, 30, 20, style)},
		{textRun("next", 0, 40, 10, style)},
	}
	p := Press(forme)
	require.Len(t, p.Runs, 3)

	assert.Equal(t, 8.0, p.Runs[0].Y, "小字号 run 下移至共享基线")
	assert.Equal(t, 0.0, p.Runs[1].Y)
	assert.Equal(t, 8.0+p.Runs[0].Ascent, p.Runs[1].Y+p.Runs[1].Ascent)
	assert.Equal(t, 20.0, p.Runs[2].Y)
	assert.Equal(t, 30.0, p.Height)
	assert.Equal(t, 200.0, p.Width)
}

func TestPressLeading(t *testing.T) {
	style := testStyle(200).WithLeading(4)
	forme := Forme{
		{textRun("a", 0, 10, 10, style)},
		{textRun("b", 0, 10, 10, style)},
	}
	p := Press(forme)
	require.Len(t, p.Runs, 2)
	assert.Equal(t, 14.0, p.Runs[1].Y)
	assert.Equal(t, 28.0, p.Height)

	forme[1][0].Metrics.Leading = 6
	forme[0][0].Metrics.Leading = 6
	assert.Equal(t, 16.0, Press(forme).Runs[1].Y, "取样式与度量 leading 的较大值")
}

func TestPressAlignment(t *testing.T) {
	cases := []struct {
		align Align
		want  float64
	}{
		{AlignLeft, 0},
		{AlignRight, 150},
		{AlignCenter, 75},
		{Align("justify"), 0},
	}
	for _, tc := range cases {
		style := testStyle(200).WithAlign(tc.align)
		p := Press(Forme{{textRun("x", 0, 50, 10, style)}})
		require.Len(t, p.Runs, 1)
		assert.Equal(t, tc.want, p.Runs[0].X, string(tc.align))
	}
}

func TestPressAlignmentKeepsRunOffsets(t *testing.T) {
	style := testStyle(200).WithAlign(AlignRight)
	p := Press(Forme{{textRun("a", 0, 40, 10, style), textRun("b", 40, 60, 10, style)}})
	require.Len(t, p.Runs, 2)
	assert.Equal(t, 100.0, p.Runs[0].X)
	assert.Equal(t, 140.0, p.Runs[1].X)
}

func TestPressRoundsCoordinates(t *testing.T) {
	style := testStyle(201).WithAlign(AlignCenter)
	p := Press(Forme{{textRun("x", 0, 50, 10, style)}})
	assert.Equal(t, 76.0, p.Runs[0].X)
}

func TestPressSpacerContributesHeightOnly(t *testing.T) {
	style := testStyle(200)
	forme := Forme{
		{textRun("a", 0, 10, 10, style)},
		{{Kind: RunSpacer, Style: style, Metrics: spacerMetrics}},
		{textRun("b", 0, 10, 10, style)},
	}
	p := Press(forme)
	require.Len(t, p.Runs, 2)
	for _, r := range p.Runs {
		assert.NotEqual(t, RunSpacer, r.Kind)
	}
	assert.Equal(t, 17.0, p.Runs[1].Y)
	assert.Equal(t, 27.0, p.Height)
}

func TestPressIdempotent(t *testing.T) {
	forme, err := Typeset(el("markdown", el("para", "this is some plaintext"), el("para", "again")), testStyle(200), Options{Metrics: newStub()})
	require.NoError(t, err)

	before := append(Forme(nil), forme...)
	first := Press(forme)
	second := Press(forme)
	assert.Equal(t, first, second)
	assert.Equal(t, before, forme)
}

func TestPressEmpty(t *testing.T) {
	p := Press(nil)
	assert.True(t, p.Empty())
	assert.Zero(t, p.Width)
	assert.Empty(t, p.Runs)

	var nilPressed *Pressed
	assert.True(t, nilPressed.Empty())
}
