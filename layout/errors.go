package layout

import (
	"errors"

	"github.com/ByLCY/forme/markup"
)

var (
	// ErrMalformedDocument 与 markup 包共用，表示树结构不合法（如缺少标签）。
	ErrMalformedDocument = markup.ErrMalformedDocument
	// ErrInfiniteLoop 表示折行或遍历超过了迭代上限，属于程序逻辑错误。
	ErrInfiniteLoop = errors.New("possible infinite loop")
	// ErrMetrics 表示字体度量提供方无法完成查询（例如字体文件无法加载）。
	ErrMetrics = errors.New("font metrics unavailable")
)
