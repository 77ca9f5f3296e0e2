package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/forme/markup"
	"github.com/ByLCY/forme/transform"
)

func el(tag markup.Tag, children ...any) *markup.Element {
	return markup.NewElement(tag, nil, children...)
}

func typeset(t *testing.T, doc markup.Node, width float64, opts Options) Forme {
	t.Helper()
	if opts.Metrics == nil {
		opts.Metrics = newStub()
	}
	forme, err := Typeset(doc, testStyle(width), opts)
	require.NoError(t, err)
	return forme
}

// lineTexts 返回每行的文本，间隔行记为 "<spacer>"。
func lineTexts(forme Forme) []string {
	out := make([]string, len(forme))
	for i, line := range forme {
		if line.IsSpacer() {
			out[i] = "<spacer>"
			continue
		}
		out[i] = line.Text()
	}
	return out
}

func TestTypesetPlainTextSingleLine(t *testing.T) {
	forme := typeset(t, markup.Text("this is some plaintext"), 500, Options{})
	require.Len(t, forme, 1)
	require.Len(t, forme[0], 1)
	assert.Equal(t, RunText, forme[0][0].Kind)
	assert.Equal(t, "this is some plaintext", forme[0][0].Text)
}

func TestTypesetPlainTextWraps(t *testing.T) {
	forme := typeset(t, markup.Text("this is some plaintext"), 200, Options{})
	assert.Equal(t, []string{"this is some", "plaintext"}, lineTexts(forme))
}

func TestTypesetParagraphSpacing(t *testing.T) {
	doc := el(markup.TagDocument, el(markup.TagParagraph, "one"), el(markup.TagParagraph, "two"))
	forme := typeset(t, doc, 500, Options{})
	assert.Equal(t, []string{"one", "<spacer>", "two"}, lineTexts(forme))

	sp := forme[1][0]
	assert.Equal(t, spacerMetrics, sp.Metrics)
	assert.Zero(t, sp.Width)
}

func TestTypesetNestedBlocksShareOneSpacer(t *testing.T) {
	doc := el(markup.TagDocument,
		el(markup.TagBlockquote, el(markup.TagParagraph, "a")),
		el(markup.TagParagraph, "b"),
	)
	forme := typeset(t, doc, 500, Options{})
	assert.Equal(t, []string{"a", "<spacer>", "b"}, lineTexts(forme))
}

func TestTypesetBlockquoteIndent(t *testing.T) {
	doc := el(markup.TagDocument,
		el(markup.TagBlockquote,
			el(markup.TagParagraph, "first"),
			el(markup.TagParagraph, "second"),
		),
		el(markup.TagParagraph, "after"),
	)
	forme := typeset(t, doc, 500, Options{})
	require.Equal(t, []string{"first", "<spacer>", "second", "<spacer>", "after"}, lineTexts(forme))
	assert.Equal(t, 20.0, forme[0][0].X)
	assert.Equal(t, 20.0, forme[2][0].X)
	assert.Equal(t, 0.0, forme[4][0].X)
}

func TestTypesetListItemWrapsAtLeft(t *testing.T) {
	doc := el(markup.TagBulletList, el(markup.TagListItem, "this is some plaintext"))
	forme := typeset(t, doc, 200, Options{})
	require.Len(t, forme, 2)
	assert.Equal(t, 20.0, forme[0][0].X)
	assert.Equal(t, 20.0, forme[1][0].X, "续行从 Left 开始")
}

func TestTypesetMissingImageIsSkipped(t *testing.T) {
	doc := el(markup.TagParagraph,
		"x",
		markup.NewElement(markup.TagImageRef, markup.Props{"ref": "nope"}),
		"y",
	)
	forme := typeset(t, doc, 500, Options{})
	require.Len(t, forme, 1)
	require.Len(t, forme[0], 2)
	assert.Equal(t, 0.0, forme[0][0].X)
	assert.Equal(t, 10.0, forme[0][1].X, "缺失图片不改变 indent")
}

func TestTypesetInlineImage(t *testing.T) {
	half := 0.5
	images := ImageTable{"logo": {Name: "logo", Width: 30, Height: 20, Alignment: &half}}
	doc := el(markup.TagParagraph,
		"x",
		markup.NewElement(markup.TagImageRef, markup.Props{"ref": "logo"}),
		"y",
	)
	forme := typeset(t, doc, 500, Options{Images: images})
	require.Len(t, forme, 1)
	require.Len(t, forme[0], 3)

	img := forme[0][1]
	assert.Equal(t, RunImage, img.Kind)
	assert.Equal(t, 10.0, img.X)
	assert.Equal(t, 30.0, img.Width)
	assert.Equal(t, 10.0, img.Metrics.Ascent)
	assert.Equal(t, 10.0, img.Metrics.Descent)
	assert.Equal(t, 40.0, forme[0][2].X)
}

func TestTypesetInlineStylesShareLine(t *testing.T) {
	doc := el(markup.TagParagraph, "hello ", el(markup.TagStrong, "world"))
	forme := typeset(t, doc, 500, Options{})
	require.Len(t, forme, 1)
	require.Len(t, forme[0], 2)
	assert.Equal(t, 60.0, forme[0][1].X)
	assert.Equal(t, WeightBold, forme[0][1].Style.Weight)
	assert.Equal(t, WeightNormal, forme[0][0].Style.Weight)
}

func TestTypesetInlineOverflowStartsNewLine(t *testing.T) {
	doc := el(markup.TagParagraph, "aaaaaaaaaa", el(markup.TagEmphasis, "bbbbbbbbbb"))
	forme := typeset(t, doc, 150, Options{})
	require.Equal(t, []string{"aaaaaaaaaa", "bbbbbbbbbb"}, lineTexts(forme))
	assert.Equal(t, 0.0, forme[1][0].X)
	assert.True(t, forme[1][0].Style.Italic)
}

func TestTypesetCodeBlockVerbatim(t *testing.T) {
	doc := el(markup.TagDocument,
		el(markup.TagParagraph, "a  b"),
		el(markup.TagCodeBlock, "a  b\nc"),
	)
	forme := typeset(t, doc, 500, Options{Text: transform.Options{CollapseWhitespace: true}})
	require.Equal(t, []string{"a b", "<spacer>", "a  b", "c"}, lineTexts(forme))
	assert.Equal(t, 10.0, forme[2][0].X)
	assert.Equal(t, 10.0, forme[3][0].X)
	assert.Equal(t, FamilyMono, forme[2][0].Style.Family)
}

func TestTypesetLineBreak(t *testing.T) {
	doc := el(markup.TagParagraph, "a", el(markup.TagLineBreak), "b")
	forme := typeset(t, doc, 500, Options{})
	require.Equal(t, []string{"a", "b"}, lineTexts(forme))
	assert.Equal(t, 0.0, forme[1][0].X)
}

func TestTypesetHeaderStyle(t *testing.T) {
	doc := markup.NewElement(markup.TagHeader, markup.Props{"level": 2.0}, "Title")
	forme := typeset(t, doc, 500, Options{})
	require.Len(t, forme, 1)
	assert.Equal(t, 24.0, forme[0][0].Style.Size)
	assert.True(t, forme[0][0].Style.Bold())
}

func TestTypesetTextTransforms(t *testing.T) {
	doc := el(markup.TagParagraph, "Hi ${name} &amp; you")
	opts := Options{Text: transform.Options{DecodeEntities: true, Data: map[string]any{"name": "Ada"}}}
	forme := typeset(t, doc, 500, opts)
	assert.Equal(t, []string{"Hi Ada & you"}, lineTexts(forme))
}

func TestTypesetResolverOverride(t *testing.T) {
	red := Color{R: 255}
	resolver := ChainResolvers(DefaultResolver, func(s Style, tag markup.Tag, _ markup.Props) Style {
		if tag == markup.TagParagraph {
			return s.WithColor(red)
		}
		return s
	})
	forme := typeset(t, el(markup.TagParagraph, "x"), 500, Options{Resolver: resolver})
	assert.Equal(t, red, forme[0][0].Style.Color)
}

func TestTypesetNoTrailingSpacer(t *testing.T) {
	doc := el(markup.TagDocument, el(markup.TagParagraph, "a"), el(markup.TagHorizontal))
	forme := typeset(t, doc, 500, Options{})
	require.NotEmpty(t, forme)
	last := forme[len(forme)-1]
	assert.False(t, last.IsSpacer())
	assert.NotEmpty(t, last)
}

func TestTypesetEmptyDocument(t *testing.T) {
	forme := typeset(t, el(markup.TagDocument), 500, Options{})
	assert.Empty(t, forme)
}

func TestTypesetMalformed(t *testing.T) {
	_, err := Typeset(nil, testStyle(500), Options{Metrics: newStub()})
	assert.ErrorIs(t, err, ErrMalformedDocument)

	doc := el(markup.TagDocument, &markup.Element{})
	_, err = Typeset(doc, testStyle(500), Options{Metrics: newStub()})
	assert.ErrorIs(t, err, ErrMalformedDocument)
}

func TestTypesetIterationLimit(t *testing.T) {
	_, err := Typeset(markup.Text("this is some plaintext"), testStyle(200), Options{Metrics: newStub(), MaxIterations: 1})
	assert.ErrorIs(t, err, ErrInfiniteLoop)
}

func TestTypesetMetricsError(t *testing.T) {
	_, err := Typeset(el(markup.TagParagraph, "x"), testStyle(500), Options{Metrics: &stubMetrics{err: errStubFont}})
	assert.ErrorIs(t, err, ErrMetrics)
}

// nest 由外到内嵌套块级元素，最内层直接包含文本 "inner"。
func nest(tags ...markup.Tag) *markup.Element {
	inner := el(tags[len(tags)-1], "inner")
	for i := len(tags) - 2; i >= 0; i-- {
		inner = el(tags[i], inner)
	}
	return inner
}

func TestTypesetBlockRestoresCursor(t *testing.T) {
	cases := []struct {
		name string
		tags []markup.Tag
		x    float64
	}{
		{"blockquote", []markup.Tag{markup.TagBlockquote}, 20},
		{"code_block", []markup.Tag{markup.TagCodeBlock}, 10},
		{"listitem", []markup.Tag{markup.TagListItem}, 20},
		{"blockquote/listitem", []markup.Tag{markup.TagBlockquote, markup.TagListItem}, 40},
		{"listitem/code_block", []markup.Tag{markup.TagListItem, markup.TagCodeBlock}, 30},
		{"blockquote/blockquote", []markup.Tag{markup.TagBlockquote, markup.TagBlockquote}, 40},
		{"blockquote/listitem/code_block", []markup.Tag{markup.TagBlockquote, markup.TagListItem, markup.TagCodeBlock}, 50},
		{"listitem/listitem/listitem", []markup.Tag{markup.TagListItem, markup.TagListItem, markup.TagListItem}, 60},
		{"code_block in para in blockquote", []markup.Tag{markup.TagBlockquote, markup.TagParagraph, markup.TagCodeBlock}, 30},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := el(markup.TagDocument, nest(tc.tags...), el(markup.TagParagraph, "after"))
			forme := typeset(t, doc, 500, Options{})
			require.Equal(t, []string{"inner", "<spacer>", "after"}, lineTexts(forme))
			assert.Equal(t, tc.x, forme[0][0].X)
			assert.Equal(t, 0.0, forme[2][0].X, "后续段落回到左边界")

			for _, entry := range []Cursor{{}, {Left: 15, Indent: 15}, {Left: 15, Indent: 55}} {
				ts := &typesetter{opts: Options{Metrics: newStub()}.withDefaults()}
				got, err := ts.typesetNode(nest(tc.tags...), testStyle(500), entry)
				require.NoError(t, err)
				assert.Equal(t, Cursor{Left: entry.Left, Indent: entry.Left}, got, "entry %+v", entry)
				require.NotEmpty(t, ts.forme)
				assert.Equal(t, entry.Left+tc.x, ts.forme[0][0].X, "entry %+v", entry)
			}
		})
	}
}

func TestTypesetSpacerShape(t *testing.T) {
	fragments := map[string]func() markup.Node{
		"para":  func() markup.Node { return el(markup.TagParagraph, "p") },
		"quote": func() markup.Node { return el(markup.TagBlockquote, el(markup.TagParagraph, "q"), el(markup.TagParagraph, "r")) },
		"code":  func() markup.Node { return el(markup.TagCodeBlock, "c\n\nd") },
		"list": func() markup.Node {
			return el(markup.TagBulletList,
				el(markup.TagListItem, el(markup.TagParagraph, "l")),
				el(markup.TagListItem, el(markup.TagBlockquote, el(markup.TagCodeBlock, "k"))),
			)
		},
		"hr":     func() markup.Node { return el(markup.TagHorizontal) },
		"header": func() markup.Node { return markup.NewElement(markup.TagHeader, markup.Props{"level": 1}, "h") },
		"breaks": func() markup.Node {
			return el(markup.TagParagraph, "a", el(markup.TagLineBreak), el(markup.TagLineBreak), "b")
		},
	}
	names := make([]string, 0, len(fragments))
	for name := range fragments {
		names = append(names, name)
	}

	for _, a := range names {
		for _, b := range names {
			for _, c := range names {
				doc := el(markup.TagDocument, fragments[a](), fragments[b](), fragments[c]())
				forme := typeset(t, doc, 500, Options{})
				label := a + "," + b + "," + c
				for i, line := range forme {
					require.NotEmpty(t, line, "%s: 第 %d 行为空", label, i)
					if i > 0 {
						require.False(t, line.IsSpacer() && forme[i-1].IsSpacer(), "%s: 第 %d 行连续间隔", label, i)
					}
				}
				if len(forme) > 0 {
					require.False(t, forme[len(forme)-1].IsSpacer(), "%s: 末尾为间隔行", label)
				}
			}
		}
	}
}

func TestTypesetConsecutiveLineBreaks(t *testing.T) {
	doc := el(markup.TagParagraph, "b", el(markup.TagLineBreak), el(markup.TagLineBreak), "c")
	forme := typeset(t, doc, 500, Options{})
	require.Equal(t, []string{"b", "", "c"}, lineTexts(forme))
	require.Len(t, forme[1], 1)
	assert.Equal(t, RunText, forme[1][0].Kind)
	assert.Zero(t, forme[1][0].Width)
	assert.Equal(t, 10.0, forme[1][0].Metrics.FontSize)

	pressed := Press(forme)
	assert.Equal(t, 30.0, pressed.Height, "空行保留一行的高度")
	last := pressed.Runs[len(pressed.Runs)-1]
	assert.Equal(t, "c", last.Text)
	assert.Equal(t, 20.0, last.Y)
}

func TestTypesetLineBreakMetricsError(t *testing.T) {
	doc := el(markup.TagParagraph, el(markup.TagLineBreak))
	_, err := Typeset(doc, testStyle(500), Options{Metrics: &stubMetrics{err: errStubFont}})
	assert.ErrorIs(t, err, ErrMetrics)
}

func TestTypesetCodeBlockKeepsBlankLines(t *testing.T) {
	doc := el(markup.TagDocument, el(markup.TagCodeBlock, "x\n\n  y"), el(markup.TagParagraph, "z"))
	forme := typeset(t, doc, 500, Options{})
	require.Equal(t, []string{"x", "", "  y", "<spacer>", "z"}, lineTexts(forme))
	assert.Equal(t, 10.0, forme[1][0].X)
	assert.NotZero(t, forme[1][0].Metrics.Ascent+forme[1][0].Metrics.Descent)

	pressed := Press(forme)
	var y float64
	for _, run := range pressed.Runs {
		if run.Text == "  y" {
			y = run.Y
		}
	}
	assert.Equal(t, 20.0, y)
}

func TestTypesetLeadingBlankLineInCode(t *testing.T) {
	forme := typeset(t, el(markup.TagCodeBlock, "\nx"), 500, Options{})
	require.Equal(t, []string{"", "x"}, lineTexts(forme))
}

func TestTypesetDeferredNewlineAddsNoBlankLine(t *testing.T) {
	for _, width := range []float64{95, 100, 500} {
		doc := el(markup.TagParagraph, "aaaaaaaaa", el(markup.TagEmphasis, "\nbbb"))
		forme := typeset(t, doc, width, Options{})
		assert.Equal(t, []string{"aaaaaaaaa", "bbb"}, lineTexts(forme), "width %v", width)
	}
}
