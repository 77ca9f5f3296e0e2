package layout

import (
	"fmt"
	"math"
	"strings"

	"github.com/ByLCY/forme/markup"
	"github.com/ByLCY/forme/transform"
)

// 各类块级元素的缩进量（pt）。
const (
	blockquoteIndent = 20
	codeBlockIndent  = 10
	listItemIndent   = 20
)

// spacerMetrics 是块级元素之间竖直间隔的固定度量。
var spacerMetrics = FontMetrics{Ascent: 7, Descent: 0, FontSize: 7}

// Cursor 是在递归中传递的水平位置：Left 为折行后续行的起点，
// Indent 为当前行内序列首行的起点。
type Cursor struct {
	Left   float64
	Indent float64
}

// typesetter 独占一次排版的版面累加器；递归过程中只通过返回值传递 Cursor。
type typesetter struct {
	opts  Options
	forme Forme
	path  []string
}

// Typeset 将文档树排版为 forme。返回前会去掉末尾的纯间隔行。
func Typeset(doc markup.Node, base Style, opts Options) (Forme, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: 文档为空", ErrMalformedDocument)
	}
	ts := &typesetter{opts: opts.withDefaults()}
	if _, err := ts.typesetNode(doc, base, Cursor{}); err != nil {
		return nil, err
	}
	ts.trimTrailing()
	ts.opts.Logger.Debug("typeset finished", "lines", len(ts.forme))
	return ts.forme, nil
}

func (ts *typesetter) typesetNode(n markup.Node, ambient Style, cur Cursor) (Cursor, error) {
	switch node := n.(type) {
	case markup.Text:
		return ts.typesetText(string(node), ambient, cur)
	case *markup.Element:
		return ts.typesetElement(node, ambient, cur)
	default:
		return cur, fmt.Errorf("%w: 未知节点 %T（位置 %s）", ErrMalformedDocument, n, ts.where())
	}
}

func (ts *typesetter) typesetElement(el *markup.Element, ambient Style, cur Cursor) (Cursor, error) {
	if el == nil || el.Tag == "" {
		return cur, fmt.Errorf("%w: 节点缺少标签（位置 %s）", ErrMalformedDocument, ts.where())
	}
	if len(ts.path) >= maxNestingDepth {
		return cur, fmt.Errorf("%w: 节点嵌套超过 %d 层（位置 %s）", ErrInfiniteLoop, maxNestingDepth, ts.where())
	}
	ts.path = append(ts.path, string(el.Tag))
	defer func() { ts.path = ts.path[:len(ts.path)-1] }()

	style := ts.opts.Resolver(ambient, el.Tag, el.Props)
	entry := cur
	block := el.Tag.IsBlock()

	if block {
		// 块级元素总是从新行开始，首行起点回到 Left。
		ts.openLine()
		cur.Indent = cur.Left
	}

	switch el.Tag {
	case markup.TagBlockquote:
		cur.Left += blockquoteIndent
		cur.Indent += blockquoteIndent
	case markup.TagCodeBlock:
		cur.Left += codeBlockIndent
		cur.Indent += codeBlockIndent
	case markup.TagListItem:
		cur.Left += listItemIndent
		cur.Indent += listItemIndent
	case markup.TagImageRef:
		cur = ts.placeImage(el, style, cur)
	case markup.TagLineBreak:
		if line, ok := ts.last(); !ok || len(line) == 0 {
			// 连续硬换行留下的空行需要行高，否则压印时高度为零。
			if err := ts.blankLine(style, cur.Left); err != nil {
				return cur, err
			}
		}
		ts.newLine()
		cur.Indent = cur.Left
	}

	for _, child := range el.Children {
		var err error
		if text, ok := child.(markup.Text); ok && el.Tag.IsPreformatted() {
			cur, err = ts.typesetTextPlain(string(text), style, cur)
		} else {
			cur, err = ts.typesetNode(child, style, cur)
		}
		if err != nil {
			return cur, err
		}
	}

	if block {
		cur = Cursor{Left: entry.Left, Indent: entry.Left}
		ts.closeBlock(style)
	}
	return cur, nil
}

// typesetText 先对非代码文本应用排版变换，再交给 typesetTextPlain。
func (ts *typesetter) typesetText(text string, style Style, cur Cursor) (Cursor, error) {
	return ts.typesetTextPlain(transform.Apply(text, ts.opts.Text), style, cur)
}

// typesetTextPlain 驱动折行器：首行从 Indent 开始并接在当前行之后，
// 之后每一行从 Left 开始另起一行。返回的 Indent 为最后一个片段的右端。
func (ts *typesetter) typesetTextPlain(text string, style Style, cur Cursor) (Cursor, error) {
	w, err := NewWrapper(text, style, ts.opts.Metrics)
	if err != nil {
		return cur, fmt.Errorf("排版文本失败（位置 %s）: %w", ts.where(), err)
	}
	deferred := false // 首行因放不下而推迟，空物理行属于已有的当前行
	for lineNum := 0; lineNum < ts.opts.MaxIterations; lineNum++ {
		x := cur.Left
		allowLonger := true
		if lineNum == 0 {
			x = cur.Indent
			allowLonger = cur.Indent == cur.Left
		}

		before := w.Remaining()
		wl, err := w.Next(x, allowLonger)
		if err != nil {
			return cur, fmt.Errorf("排版文本失败（位置 %s）: %w", ts.where(), err)
		}

		if lineNum == 0 && w.Remaining() == before && before != "" {
			deferred = true
		}
		// 允许溢出时仍为空，说明这是一个空的物理行：保留为零宽 run。
		blank := wl.Text == "" && allowLonger && (lineNum > 0 || !wl.Finished) &&
			!(lineNum == 1 && deferred)
		if wl.Text != "" || blank {
			run := Run{
				Kind:    RunText,
				Text:    wl.Text,
				X:       x,
				Width:   wl.Width,
				Style:   style,
				Metrics: wl.Metrics,
			}
			if lineNum == 0 {
				ts.appendToCurrent(run)
			} else {
				ts.appendToNew(run)
			}
		}

		if wl.Finished {
			return Cursor{Left: cur.Left, Indent: x + math.Round(wl.Width)}, nil
		}
	}
	return cur, fmt.Errorf("%w: 文本折行超过 %d 行（位置 %s）", ErrInfiniteLoop, ts.opts.MaxIterations, ts.where())
}

// placeImage 在 Indent 处放置内联图片；引用不存在时静默跳过。
func (ts *typesetter) placeImage(el *markup.Element, style Style, cur Cursor) Cursor {
	ref, _ := el.Props.String("ref")
	entry, ok := ts.opts.Images[ref]
	if !ok || entry == nil {
		ts.opts.Logger.Debug("skipping missing image reference", "ref", ref, "at", ts.where())
		return cur
	}
	width, height := entry.Size()
	align := entry.VerticalAlignment()
	ts.appendToCurrent(Run{
		Kind:  RunImage,
		Image: entry,
		X:     cur.Indent,
		Width: width,
		Style: style,
		Metrics: FontMetrics{
			Ascent:   height * align,
			Descent:  height * (1 - align),
			FontSize: height,
		},
	})
	cur.Indent += width
	return cur
}

// blankLine 在当前行放入一个零宽空文本 run，使该行具有样式的行高。
func (ts *typesetter) blankLine(style Style, x float64) error {
	if ts.opts.Metrics == nil {
		return fmt.Errorf("%w: 缺少字体度量提供方", ErrMetrics)
	}
	m, err := ts.opts.Metrics.FontMetrics(style)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMetrics, err)
	}
	ts.appendToCurrent(Run{Kind: RunText, X: x, Style: style, Metrics: m})
	return nil
}

func (ts *typesetter) last() (Line, bool) {
	if len(ts.forme) == 0 {
		return nil, false
	}
	return ts.forme[len(ts.forme)-1], true
}

// openLine 为块级元素开启新行；若最后一行仍为空则复用。
func (ts *typesetter) openLine() {
	if line, ok := ts.last(); ok && len(line) == 0 {
		return
	}
	ts.newLine()
}

func (ts *typesetter) newLine() {
	ts.forme = append(ts.forme, Line{})
}

// appendToCurrent 将 run 接在当前行之后；没有可用行或当前行是间隔行时另起一行。
func (ts *typesetter) appendToCurrent(run Run) {
	if line, ok := ts.last(); !ok || line.IsSpacer() {
		ts.newLine()
	}
	i := len(ts.forme) - 1
	ts.forme[i] = append(ts.forme[i], run)
}

func (ts *typesetter) appendToNew(run Run) {
	ts.forme = append(ts.forme, Line{run})
}

// closeBlock 去掉块内未使用的空行，并在最后一行不是间隔行时追加段落间隔。
func (ts *typesetter) closeBlock(style Style) {
	if line, ok := ts.last(); ok && len(line) == 0 {
		ts.forme = ts.forme[:len(ts.forme)-1]
	}
	line, ok := ts.last()
	if !ok || line.IsSpacer() {
		return
	}
	ts.forme = append(ts.forme, Line{{
		Kind:    RunSpacer,
		Style:   style,
		Metrics: spacerMetrics,
	}})
}

// trimTrailing 去掉末尾的空行与间隔行：文档不以竖直空白结尾。
func (ts *typesetter) trimTrailing() {
	for len(ts.forme) > 0 {
		line := ts.forme[len(ts.forme)-1]
		if len(line) != 0 && !line.IsSpacer() {
			return
		}
		ts.forme = ts.forme[:len(ts.forme)-1]
	}
}

func (ts *typesetter) where() string {
	if len(ts.path) == 0 {
		return "/"
	}
	return "/" + strings.Join(ts.path, "/")
}
