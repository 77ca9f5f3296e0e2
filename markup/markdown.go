package markup

import (
	"bytes"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
)

// TagSpan is used for markdown constructs without a dedicated tag; its
// children are laid out inline.
const TagSpan Tag = "span"

// ParseMarkdown parses CommonMark-style source with gomarkdown and converts
// the resulting AST into a markup tree rooted at a TagDocument element.
// Math is disabled so that ${path} placeholders survive as text.
func ParseMarkdown(src []byte) *Element {
	p := parser.NewWithExtensions(parser.CommonExtensions &^ (parser.Tables | parser.MathJax))
	doc := markdown.Parse(normalizeNewlines(src), p)
	root := &Element{Tag: TagDocument, Props: Props{}}
	root.Children = convertChildren(doc, false)
	return root
}

func normalizeNewlines(src []byte) []byte {
	return bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))
}

// convertChildren converts the children of n, merging adjacent text leaves
// that the parser split at punctuation.
func convertChildren(n ast.Node, tight bool) []Node {
	var out []Node
	for _, child := range n.GetChildren() {
		for _, c := range convert(child, tight) {
			if text, ok := c.(Text); ok && len(out) > 0 {
				if prev, ok := out[len(out)-1].(Text); ok {
					out[len(out)-1] = prev + text
					continue
				}
			}
			out = append(out, c)
		}
	}
	return out
}

// convert maps one gomarkdown node to zero or more markup nodes. Paragraphs
// inside tight list items are unwrapped so the item text sits directly in the
// list item.
func convert(n ast.Node, tight bool) []Node {
	switch node := n.(type) {
	case *ast.Text:
		if len(node.Literal) == 0 {
			return nil
		}
		return []Node{Text(node.Literal)}
	case *ast.Softbreak:
		return []Node{Text("\n")}
	case *ast.Hardbreak:
		return []Node{&Element{Tag: TagLineBreak, Props: Props{}}}
	case *ast.HTMLSpan:
		return []Node{Text(node.Literal)}
	case *ast.HTMLBlock:
		return []Node{&Element{Tag: TagParagraph, Props: Props{}, Children: []Node{Text(strings.TrimRight(string(node.Literal), "\n"))}}}
	case *ast.Code:
		return []Node{&Element{Tag: TagInlineCode, Props: Props{}, Children: []Node{Text(node.Literal)}}}
	case *ast.CodeBlock:
		literal := strings.TrimSuffix(string(node.Literal), "\n")
		props := Props{}
		if len(node.Info) > 0 {
			props["lang"] = string(node.Info)
		}
		return []Node{&Element{Tag: TagCodeBlock, Props: props, Children: []Node{Text(literal)}}}
	case *ast.HorizontalRule:
		return []Node{&Element{Tag: TagHorizontal, Props: Props{}}}
	case *ast.Paragraph:
		if tight {
			return convertChildren(node, false)
		}
		return []Node{element(TagParagraph, Props{}, node, false)}
	case *ast.Heading:
		return []Node{element(TagHeader, Props{"level": node.Level}, node, false)}
	case *ast.BlockQuote:
		return []Node{element(TagBlockquote, Props{}, node, false)}
	case *ast.List:
		tag := TagBulletList
		if node.ListFlags&ast.ListTypeOrdered != 0 {
			tag = TagNumberList
		}
		return []Node{element(tag, Props{}, node, node.Tight)}
	case *ast.ListItem:
		return []Node{element(TagListItem, Props{}, node, tight)}
	case *ast.Emph:
		return []Node{element(TagEmphasis, Props{}, node, false)}
	case *ast.Strong:
		return []Node{element(TagStrong, Props{}, node, false)}
	case *ast.Del:
		return []Node{element(TagStrikethrough, Props{}, node, false)}
	case *ast.Link:
		return []Node{element(TagLink, Props{"href": string(node.Destination)}, node, false)}
	case *ast.Image:
		props := Props{"ref": string(node.Destination)}
		if alt := plainText(node); alt != "" {
			props["alt"] = alt
		}
		return []Node{&Element{Tag: TagImageRef, Props: props}}
	default:
		if leaf := n.AsLeaf(); leaf != nil {
			if len(leaf.Literal) == 0 {
				return nil
			}
			return []Node{Text(leaf.Literal)}
		}
		return []Node{element(TagSpan, Props{}, n, false)}
	}
}

func element(tag Tag, props Props, n ast.Node, tight bool) *Element {
	return &Element{Tag: tag, Props: props, Children: convertChildren(n, tight)}
}

func plainText(n ast.Node) string {
	var b strings.Builder
	ast.WalkFunc(n, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		if leaf := node.AsLeaf(); leaf != nil {
			b.Write(leaf.Literal)
		}
		return ast.GoToNext
	})
	return b.String()
}
