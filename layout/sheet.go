package layout

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ByLCY/forme/dsl"
	"github.com/ByLCY/forme/markup"
)

// FontDecl 是样式表 resources 中声明的一个字体变体。
type FontDecl struct {
	Family string `json:"family"`
	Bold   bool   `json:"bold,omitempty"`
	Italic bool   `json:"italic,omitempty"`
	Src    string `json:"src"`
}

// Sheet 是编译后的样式表：根样式、资源与按标签索引的样式规则。
type Sheet struct {
	Name   string
	Meta   DocumentMeta
	Base   Style
	Fonts  []FontDecl
	Images ImageTable
	Colors map[string]Color

	rules map[string]map[string]string
}

// rule 是解析阶段的样式规则，Extends 指向另一条规则的名称。
type rule struct {
	Name    string
	Extends string
	Props   map[string]string
}

// CompileSheet 将样式表 AST 编译为 Sheet。baseDir 用于解析图片的相对路径。
func CompileSheet(doc *dsl.Sheet, baseDir string) (*Sheet, error) {
	if doc == nil {
		return nil, fmt.Errorf("样式表为空")
	}
	sheet := &Sheet{
		Name:   doc.Name,
		Meta:   collectMeta(doc),
		Images: ImageTable{},
		Colors: map[string]Color{},
	}

	if err := sheet.collectResources(doc, baseDir); err != nil {
		return nil, err
	}

	rawRules := map[string]rule{}
	baseProps := map[string]string{}
	for _, section := range doc.Sections {
		switch {
		case section.Base != nil:
			for k, v := range blockProps(section.Base.Block) {
				baseProps[k] = v
			}
		case section.Rule != nil:
			r, err := parseRule(section.Rule)
			if err != nil {
				return nil, err
			}
			if _, dup := rawRules[r.Name]; dup {
				return nil, fmt.Errorf("style %s 重复定义", r.Name)
			}
			rawRules[r.Name] = r
		}
	}

	base, err := applyProps(DefaultStyle(), baseProps, sheet.Colors)
	if err != nil {
		return nil, fmt.Errorf("base: %w", err)
	}
	sheet.Base = base

	rules, err := resolveRules(rawRules)
	if err != nil {
		return nil, err
	}
	// 编译期校验每条规则的属性，运行时不再报错。
	for name, props := range rules {
		if _, err := applyProps(base, props, sheet.Colors); err != nil {
			return nil, fmt.Errorf("style %s: %w", name, err)
		}
	}
	sheet.rules = rules
	return sheet, nil
}

// Resolver 返回叠加样式表规则的 Resolver：先应用 next（通常为 DefaultResolver），
// 再依次应用标签规则与带级别的标签规则。
func (s *Sheet) Resolver(next Resolver) Resolver {
	return ChainResolvers(next, s.resolve)
}

func (s *Sheet) resolve(ambient Style, tag markup.Tag, props markup.Props) Style {
	style := ambient
	if p, ok := s.rules[string(tag)]; ok {
		style, _ = applyProps(style, p, s.Colors)
	}
	if level, ok := props.Int("level"); ok {
		if p, ok := s.rules[ruleName(string(tag), level)]; ok {
			style, _ = applyProps(style, p, s.Colors)
		}
	}
	return style
}

// RuleNames 返回已定义的规则名（排序后），便于调试输出。
func (s *Sheet) RuleNames() []string {
	names := make([]string, 0, len(s.rules))
	for name := range s.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ruleName(tag string, level int) string {
	if level <= 0 {
		return tag
	}
	return tag + "#" + strconv.Itoa(level)
}

func (s *Sheet) collectResources(doc *dsl.Sheet, baseDir string) error {
	var images []*dsl.Command
	for _, section := range doc.Sections {
		if section.Resources == nil || section.Resources.Block == nil {
			continue
		}
		for _, stmt := range section.Resources.Block.Statements {
			if stmt.Command == nil {
				continue
			}
			switch stmt.Command.Name {
			case "font":
				font, err := parseFontDecl(stmt.Command)
				if err != nil {
					return err
				}
				s.Fonts = append(s.Fonts, font)
			case "color":
				name, value := parseColorResource(stmt.Command)
				if name == "" || value == "" {
					return fmt.Errorf("color 声明缺少名称或取值")
				}
				c, err := parseColor(value)
				if err != nil {
					return err
				}
				s.Colors[name] = c
			case "image":
				images = append(images, stmt.Command)
			default:
				return fmt.Errorf("未知的资源类型 %s（%s）", stmt.Command.Name, stmt.Command.Pos)
			}
		}
	}
	for _, cmd := range images {
		entry, err := parseImageResource(cmd, baseDir)
		if err != nil {
			return err
		}
		s.Images[entry.Name] = entry
	}
	return nil
}

func collectMeta(doc *dsl.Sheet) DocumentMeta {
	meta := DocumentMeta{
		Creator: "forme",
	}
	for _, section := range doc.Sections {
		if section.Meta == nil || section.Meta.Block == nil {
			continue
		}
		for _, stmt := range section.Meta.Block.Statements {
			if stmt.Assignment == nil {
				continue
			}
			val := stmt.Assignment.Value
			switch strings.ToLower(stmt.Assignment.Key) {
			case "title":
				meta.Title = val.Text()
			case "author":
				meta.Author = val.Text()
			case "subject":
				meta.Subject = val.Text()
			case "creator":
				meta.Creator = val.Text()
			case "keywords":
				meta.Keywords = val.Strings()
			}
		}
	}
	return meta
}

// parseFontDecl 解析 `font <family> [bold] [italic] { src: "..." }`。
func parseFontDecl(cmd *dsl.Command) (FontDecl, error) {
	if len(cmd.Args) == 0 {
		return FontDecl{}, fmt.Errorf("font 声明缺少字体族名称（%s）", cmd.Pos)
	}
	font := FontDecl{Family: cmd.Args[0].Value}
	for _, arg := range cmd.Args[1:] {
		switch strings.ToLower(arg.Value) {
		case "bold":
			font.Bold = true
		case "italic":
			font.Italic = true
		case "regular", "normal":
		default:
			return FontDecl{}, fmt.Errorf("font %s: 未知的变体 %s", font.Family, arg.Value)
		}
	}
	font.Src = blockProps(cmd.Block)["src"]
	if font.Src == "" {
		return FontDecl{}, fmt.Errorf("font %s 缺少 src", font.Family)
	}
	return font, nil
}

// parseImageResource 解析 `image <name> { src width height align }` 并解码图片。
func parseImageResource(cmd *dsl.Command, baseDir string) (*ImageEntry, error) {
	if len(cmd.Args) == 0 {
		return nil, fmt.Errorf("image 声明缺少名称（%s）", cmd.Pos)
	}
	name := cmd.Args[0].Value
	props := blockProps(cmd.Block)
	entry, err := LoadImage(name, props["src"], baseDir)
	if err != nil {
		return nil, err
	}
	if v, ok := props["width"]; ok {
		l, ok := ParseLength(v)
		if !ok || l.IsRelative() {
			return nil, fmt.Errorf("image %s: width %q 无法解析", name, v)
		}
		entry.Width = l.Pt(0)
	}
	if v, ok := props["height"]; ok {
		l, ok := ParseLength(v)
		if !ok || l.IsRelative() {
			return nil, fmt.Errorf("image %s: height %q 无法解析", name, v)
		}
		entry.Height = l.Pt(0)
	}
	if v, ok := props["align"]; ok {
		a, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("image %s: align %q 无法解析", name, v)
		}
		entry.Alignment = &a
	}
	return entry, nil
}

// parseRule 解析 `style <tag> [level N] [extends <name>]`。
func parseRule(sec *dsl.RuleSection) (rule, error) {
	r := rule{Name: sec.Tag, Props: blockProps(sec.Block)}
	level := 0
	params := sec.Params
	for i := 0; i < len(params); i++ {
		key := strings.ToLower(params[i].Value)
		if i+1 >= len(params) {
			return rule{}, fmt.Errorf("style %s: 参数 %s 缺少取值（%s）", sec.Tag, key, sec.Pos)
		}
		val := params[i+1].Value
		i++
		switch key {
		case "level":
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				return rule{}, fmt.Errorf("style %s: level %q 无效", sec.Tag, val)
			}
			level = n
		case "extends":
			r.Extends = val
		default:
			return rule{}, fmt.Errorf("style %s: 未知参数 %s", sec.Tag, key)
		}
	}
	r.Name = ruleName(sec.Tag, level)
	return r, nil
}

// resolveRules 展开 extends 继承链并检测循环。
func resolveRules(rules map[string]rule) (map[string]map[string]string, error) {
	resolved := map[string]map[string]string{}
	visiting := map[string]bool{}

	var dfs func(name string) (map[string]string, error)
	dfs = func(name string) (map[string]string, error) {
		if props, ok := resolved[name]; ok {
			return props, nil
		}
		r, ok := rules[name]
		if !ok {
			return nil, fmt.Errorf("style %s 未定义", name)
		}
		if visiting[name] {
			return nil, fmt.Errorf("style 继承存在循环：%s", name)
		}
		visiting[name] = true

		props := map[string]string{}
		if r.Extends != "" {
			parent, err := dfs(r.Extends)
			if err != nil {
				return nil, err
			}
			for k, v := range parent {
				props[k] = v
			}
		}
		for k, v := range r.Props {
			props[k] = v
		}
		resolved[name] = props
		delete(visiting, name)
		return props, nil
	}

	for name := range rules {
		if _, err := dfs(name); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

// applyProps 在 s 的副本上应用样式属性。相对长度以父级的对应值为参照。
func applyProps(s Style, props map[string]string, colors map[string]Color) (Style, error) {
	// size 需先于 line-height 应用，后者可能以字号为参照。
	if v, ok := props["size"]; ok {
		l, ok := ParseLength(v)
		if !ok {
			return s, fmt.Errorf("size %q 无法解析", v)
		}
		s = s.WithSize(l.Pt(s.Size))
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		v := props[key]
		switch key {
		case "size":
		case "family", "font":
			s = s.WithFamily(v)
		case "weight":
			w, err := parseWeight(v)
			if err != nil {
				return s, err
			}
			s = s.WithWeight(w)
		case "italic":
			s = s.WithItalic(v == "true" || v == "yes")
		case "font-style":
			s = s.WithItalic(strings.EqualFold(v, "italic"))
		case "letter-spacing":
			l, ok := ParseLength(v)
			if !ok {
				return s, fmt.Errorf("letter-spacing %q 无法解析", v)
			}
			s = s.WithLetterSpacing(l.Pt(s.Size))
		case "line-height":
			spec, ok := ParseLineHeight(v)
			if !ok {
				return s, fmt.Errorf("line-height %q 无法解析", v)
			}
			s = s.WithLineHeight(spec.Resolve(s.Size))
		case "stroke":
			l, ok := ParseLength(v)
			if !ok {
				return s, fmt.Errorf("stroke %q 无法解析", v)
			}
			s.StrokeThickness = l.Pt(s.Size)
		case "wrap-width", "width":
			l, ok := ParseLength(v)
			if !ok {
				return s, fmt.Errorf("%s %q 无法解析", key, v)
			}
			s = s.WithWrapWidth(l.Pt(s.WrapWidth))
		case "align":
			switch a := Align(strings.ToLower(v)); a {
			case AlignLeft, AlignRight, AlignCenter:
				s = s.WithAlign(a)
			default:
				return s, fmt.Errorf("align %q 无效", v)
			}
		case "leading":
			l, ok := ParseLength(v)
			if !ok {
				return s, fmt.Errorf("leading %q 无法解析", v)
			}
			s = s.WithLeading(l.Pt(s.Size))
		case "color":
			c, err := resolveColor(v, colors)
			if err != nil {
				return s, err
			}
			s = s.WithColor(c)
		default:
			return s, fmt.Errorf("未知的样式属性 %s", key)
		}
	}
	return s, nil
}

func parseWeight(v string) (int, error) {
	switch strings.ToLower(v) {
	case "bold":
		return WeightBold, nil
	case "normal", "regular":
		return WeightNormal, nil
	}
	w, err := strconv.Atoi(v)
	if err != nil || w <= 0 {
		return 0, fmt.Errorf("weight %q 无效", v)
	}
	return w, nil
}

// blockProps 收集块内的赋值语句；重复的键以后者为准。
func blockProps(block *dsl.Block) map[string]string {
	props := map[string]string{}
	if block == nil {
		return props
	}
	for _, stmt := range block.Statements {
		if stmt.Assignment == nil {
			continue
		}
		val := stmt.Assignment.Value
		if val.Array != nil {
			props[stmt.Assignment.Key] = strings.Join(val.Strings(), ",")
			continue
		}
		props[stmt.Assignment.Key] = val.Text()
	}
	return props
}

func parseColorResource(cmd *dsl.Command) (string, string) {
	if len(cmd.Args) == 0 {
		return "", ""
	}
	name := cmd.Args[0].Value
	value := ""
	if len(cmd.Args) > 1 {
		value = cmd.Args[len(cmd.Args)-1].Value
	}
	return name, value
}

func resolveColor(value string, colors map[string]Color) (Color, error) {
	if c, ok := colors[value]; ok {
		return c, nil
	}
	if strings.HasPrefix(value, "#") {
		return parseColor(value)
	}
	return Color{}, fmt.Errorf("颜色 %s 未定义", value)
}

func parseColor(value string) (Color, error) {
	hex := strings.TrimPrefix(value, "#")
	for _, ch := range hex {
		if !strings.ContainsRune("0123456789abcdefABCDEF", ch) {
			return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
		}
	}
	switch len(hex) {
	case 3:
		return Color{
			R: mustHex(strings.Repeat(hex[0:1], 2)),
			G: mustHex(strings.Repeat(hex[1:2], 2)),
			B: mustHex(strings.Repeat(hex[2:3], 2)),
		}, nil
	case 6, 8:
		return Color{
			R: mustHex(hex[0:2]),
			G: mustHex(hex[2:4]),
			B: mustHex(hex[4:6]),
		}, nil
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
}

func mustHex(s string) int {
	v, _ := strconv.ParseInt(s, 16, 64)
	return int(v)
}
