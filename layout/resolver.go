package layout

import "github.com/ByLCY/forme/markup"

// Resolver 根据父级样式、节点标签与属性计算该子树的有效样式。
// 实现必须是纯函数：不得修改 ambient，也不得依赖调用顺序。
type Resolver func(ambient Style, tag markup.Tag, props markup.Props) Style

// headerSizes 为各级标题的字号（pt）。
var headerSizes = map[int]float64{
	1: 32,
	2: 24,
	3: 18.72,
	4: 16,
	5: 13.28,
	6: 10,
}

// IdentityResolver 原样返回父级样式。
func IdentityResolver(ambient Style, _ markup.Tag, _ markup.Props) Style { return ambient }

// DefaultResolver 处理常见标签：em 斜体、strong 粗体、header 粗体并按级别设字号、
// code_block/inlinecode 切换为等宽字体。其余标签继承父级样式。
func DefaultResolver(ambient Style, tag markup.Tag, props markup.Props) Style {
	switch tag {
	case markup.TagEmphasis:
		return ambient.WithItalic(true)
	case markup.TagStrong:
		return ambient.WithWeight(WeightBold)
	case markup.TagHeader:
		s := ambient.WithWeight(WeightBold)
		if level, ok := props.Int("level"); ok {
			if size, ok := headerSizes[level]; ok {
				s = s.WithSize(size)
			}
		}
		return s
	case markup.TagCodeBlock, markup.TagInlineCode:
		return ambient.WithFamily(FamilyMono)
	default:
		return ambient
	}
}

// ChainResolvers 依次应用多个 Resolver，后者以前者的结果作为输入。
func ChainResolvers(resolvers ...Resolver) Resolver {
	return func(ambient Style, tag markup.Tag, props markup.Props) Style {
		s := ambient
		for _, r := range resolvers {
			if r == nil {
				continue
			}
			s = r(s, tag, props)
		}
		return s
	}
}
