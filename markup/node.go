// Package markup defines the document tree consumed by the typesetter and
// adapters that build it from JSONML or Markdown sources.
package markup

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrMalformedDocument reports a tree that does not have the expected shape,
// such as an element without a tag.
var ErrMalformedDocument = errors.New("malformed document")

// Tag names an element kind. The values follow the JSONML dialect produced by
// common markdown parsers.
type Tag string

const (
	TagDocument      Tag = "markdown"
	TagParagraph     Tag = "para"
	TagHeader        Tag = "header"
	TagHorizontal    Tag = "hr"
	TagBlockquote    Tag = "blockquote"
	TagCodeBlock     Tag = "code_block"
	TagListItem      Tag = "listitem"
	TagBulletList    Tag = "bulletlist"
	TagNumberList    Tag = "numberlist"
	TagEmphasis      Tag = "em"
	TagStrong        Tag = "strong"
	TagInlineCode    Tag = "inlinecode"
	TagImageRef      Tag = "img_ref"
	TagLink          Tag = "link"
	TagLineBreak     Tag = "linebreak"
	TagStrikethrough Tag = "del"
)

// IsBlock reports whether elements with this tag start on a fresh line and
// are followed by paragraph spacing.
func (t Tag) IsBlock() bool {
	switch t {
	case TagParagraph, TagHeader, TagHorizontal, TagBlockquote, TagCodeBlock, TagListItem:
		return true
	default:
		return false
	}
}

// IsPreformatted reports whether text children are laid out verbatim.
func (t Tag) IsPreformatted() bool {
	return t == TagCodeBlock || t == TagInlineCode
}

// Node is either an *Element or a Text leaf.
type Node interface {
	isNode()
}

// Text is a raw text leaf.
type Text string

func (Text) isNode() {}

// Props holds element properties such as a header level or an image ref.
type Props map[string]any

// String returns the property as a string. Numbers are formatted.
func (p Props) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case fmt.Stringer:
		return val.String(), true
	case int:
		return strconv.Itoa(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return fmt.Sprint(val), true
	}
}

// Int returns the property as an integer. Strings holding integers and
// integral floats (as decoded from JSON) are accepted.
func (p Props) Int(key string) (int, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		if val != float64(int(val)) {
			return 0, false
		}
		return int(val), true
	case string:
		n, err := strconv.Atoi(val)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Element is a tagged node with optional properties and ordered children.
type Element struct {
	Tag      Tag
	Props    Props
	Children []Node
}

func (*Element) isNode() {}

// NewElement builds an element. Children may be Node values or plain strings,
// which become Text leaves.
func NewElement(tag Tag, props Props, children ...any) *Element {
	el := &Element{Tag: tag, Props: props}
	for _, child := range children {
		switch c := child.(type) {
		case Node:
			el.Children = append(el.Children, c)
		case string:
			el.Children = append(el.Children, Text(c))
		default:
			panic(fmt.Sprintf("markup: unsupported child %T", child))
		}
	}
	return el
}

// Validate walks the tree and reports the first element without a tag.
func Validate(n Node) error {
	return validate(n, "")
}

func validate(n Node, path string) error {
	switch node := n.(type) {
	case Text:
		return nil
	case *Element:
		if node == nil || node.Tag == "" {
			return fmt.Errorf("%w: element without tag at %q", ErrMalformedDocument, pathOrRoot(path))
		}
		here := path + "/" + string(node.Tag)
		for _, child := range node.Children {
			if err := validate(child, here); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unexpected node %T at %q", ErrMalformedDocument, n, pathOrRoot(path))
	}
}

func pathOrRoot(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
