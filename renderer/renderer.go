package renderer

import (
	"errors"

	"github.com/ByLCY/forme/layout"
)

// ErrEmptyDocument 表示压印结果没有可绘制的高度，不分配画布。
var ErrEmptyDocument = errors.New("empty document")

// Renderer 将压印结果输出为最终文件，例如 PDF 或图像。
// Render 返回生成的二进制数据（例如 PDF 字节切片）以及可能的错误。
type Renderer interface {
	Render(pressed *layout.Pressed) ([]byte, error)
}
