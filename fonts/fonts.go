// Package fonts 管理字体族与字形变体（粗体/斜体）到字体文件数据的映射。
// 内置字体来自 Go 字体族（golang.org/x/image/font/gofont），无需外部文件。
package fonts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// ErrUnknownFamily 表示字体族没有任何已注册的变体。
var ErrUnknownFamily = errors.New("unknown font family")

const builtinPrefix = "builtin:"

var builtins = map[string][]byte{
	"goregular":        goregular.TTF,
	"gobold":           gobold.TTF,
	"goitalic":         goitalic.TTF,
	"gobolditalic":     gobolditalic.TTF,
	"gomono":           gomono.TTF,
	"gomonobold":       gomonobold.TTF,
	"gomonoitalic":     gomonoitalic.TTF,
	"gomonobolditalic": gomonobolditalic.TTF,
}

// Variant 是字体族内的一个字形变体。
type Variant struct {
	Bold   bool
	Italic bool
}

var (
	Regular    = Variant{}
	Bold       = Variant{Bold: true}
	Italic     = Variant{Italic: true}
	BoldItalic = Variant{Bold: true, Italic: true}
)

func (v Variant) String() string {
	switch v {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case BoldItalic:
		return "bold-italic"
	default:
		return "regular"
	}
}

// fallbacks 返回查找顺序：先精确匹配，再依次放弃斜体、粗体。
func (v Variant) fallbacks() []Variant {
	out := []Variant{v}
	if v.Italic {
		out = append(out, Variant{Bold: v.Bold})
	}
	if v.Bold {
		out = append(out, Variant{Italic: v.Italic})
	}
	if v != Regular {
		out = append(out, Regular)
	}
	return out
}

// Registry 是并发安全的字体注册表。
type Registry struct {
	mu       sync.RWMutex
	families map[string]map[Variant][]byte
}

// NewRegistry 创建注册表并预置内置字体族：sans（serif 为其别名）与 mono。
func NewRegistry() *Registry {
	r := &Registry{families: map[string]map[Variant][]byte{}}
	for _, family := range []string{"sans", "serif"} {
		r.Register(family, Regular, goregular.TTF)
		r.Register(family, Bold, gobold.TTF)
		r.Register(family, Italic, goitalic.TTF)
		r.Register(family, BoldItalic, gobolditalic.TTF)
	}
	r.Register("mono", Regular, gomono.TTF)
	r.Register("mono", Bold, gomonobold.TTF)
	r.Register("mono", Italic, gomonoitalic.TTF)
	r.Register("mono", BoldItalic, gomonobolditalic.TTF)
	return r
}

// Register 注册（或覆盖）某个字体族的变体。
func (r *Registry) Register(family string, v Variant, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(family)
	if r.families[key] == nil {
		r.families[key] = map[Variant][]byte{}
	}
	r.families[key][v] = data
}

// Lookup 返回最接近所需变体的字体数据及实际使用的变体。
func (r *Registry) Lookup(family string, v Variant) ([]byte, Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	variants, ok := r.families[strings.ToLower(family)]
	if !ok || len(variants) == 0 {
		return nil, Variant{}, fmt.Errorf("%w: %s", ErrUnknownFamily, family)
	}
	for _, candidate := range v.fallbacks() {
		if data, ok := variants[candidate]; ok {
			return data, candidate, nil
		}
	}
	// 只注册了粗斜体等非常规变体时，任取一个确定的结果。
	for _, candidate := range []Variant{Bold, Italic, BoldItalic} {
		if data, ok := variants[candidate]; ok {
			return data, candidate, nil
		}
	}
	return nil, Variant{}, fmt.Errorf("%w: %s", ErrUnknownFamily, family)
}

// Families 返回已注册的字体族名称（排序后）。
func (r *Registry) Families() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.families))
	for name := range r.families {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Load 读取字体数据。src 可写为 "builtin:gobold" 引用内置字体，
// 或写文件路径；相对路径基于 baseDir 解析。
func Load(src, baseDir string) ([]byte, error) {
	if name, ok := strings.CutPrefix(src, builtinPrefix); ok {
		data, ok := builtins[name]
		if !ok {
			return nil, fmt.Errorf("内置字体 %s 不存在", name)
		}
		return data, nil
	}
	if src == "" {
		return nil, fmt.Errorf("字体路径为空")
	}
	path := src
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", src, err)
	}
	return data, nil
}
