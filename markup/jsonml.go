package markup

import (
	"encoding/json"
	"fmt"
	"io"
)

// ParseJSONML decodes a JSONML document of the form
// ["markdown", {props}?, child, ...] from r.
func ParseJSONML(r io.Reader) (Node, error) {
	var raw any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return FromJSONML(raw)
}

// FromJSONML converts an already decoded JSONML value. Arrays become elements
// whose first item is the tag; a plain object in second position is taken as
// properties; strings become text leaves.
func FromJSONML(v any) (Node, error) {
	return fromJSONML(v, "")
}

func fromJSONML(v any, path string) (Node, error) {
	switch val := v.(type) {
	case string:
		return Text(val), nil
	case []any:
		if len(val) == 0 {
			return nil, fmt.Errorf("%w: empty element at %q", ErrMalformedDocument, pathOrRoot(path))
		}
		tag, ok := val[0].(string)
		if !ok || tag == "" {
			return nil, fmt.Errorf("%w: element without tag at %q", ErrMalformedDocument, pathOrRoot(path))
		}
		el := &Element{Tag: Tag(tag), Props: Props{}}
		rest := val[1:]
		if len(rest) > 0 {
			if props, ok := rest[0].(map[string]any); ok {
				for k, pv := range props {
					el.Props[k] = pv
				}
				rest = rest[1:]
			}
		}
		here := path + "/" + tag
		for _, child := range rest {
			node, err := fromJSONML(child, here)
			if err != nil {
				return nil, err
			}
			el.Children = append(el.Children, node)
		}
		return el, nil
	default:
		return nil, fmt.Errorf("%w: unexpected %T at %q", ErrMalformedDocument, v, pathOrRoot(path))
	}
}

// ToJSONML converts a tree back into its JSONML value.
func ToJSONML(n Node) any {
	switch node := n.(type) {
	case Text:
		return string(node)
	case *Element:
		out := []any{string(node.Tag)}
		if len(node.Props) > 0 {
			props := make(map[string]any, len(node.Props))
			for k, v := range node.Props {
				props[k] = v
			}
			out = append(out, props)
		}
		for _, child := range node.Children {
			out = append(out, ToJSONML(child))
		}
		return out
	default:
		return nil
	}
}
