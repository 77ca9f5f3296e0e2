package layout

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ImageEntry 是图片引用表中的一项。Width/Height 为排版尺寸（pt），
// 为 0 时按图片像素尺寸推算（1px 记为 1pt，并保持宽高比）。
// Alignment 为基线以上部分所占比例（0~1），nil 表示 1：图片完全位于基线之上。
type ImageEntry struct {
	Name      string      `json:"name"`
	Src       string      `json:"src,omitempty"`
	Image     image.Image `json:"-"`
	Width     float64     `json:"width"`
	Height    float64     `json:"height"`
	Alignment *float64    `json:"alignment,omitempty"`
}

// ImageTable 以引用名索引图片。
type ImageTable map[string]*ImageEntry

// Size 返回图片的排版尺寸。
func (e *ImageEntry) Size() (float64, float64) {
	w, h := e.Width, e.Height
	var pw, ph float64
	if e.Image != nil {
		b := e.Image.Bounds()
		pw, ph = float64(b.Dx()), float64(b.Dy())
	}
	switch {
	case w > 0 && h > 0:
	case w > 0 && pw > 0:
		h = w * ph / pw
	case h > 0 && ph > 0:
		w = h * pw / ph
	case w <= 0 && h <= 0:
		w, h = pw, ph
	}
	return w, h
}

// VerticalAlignment 返回截断到 [0,1] 的对齐比例，默认 1。
func (e *ImageEntry) VerticalAlignment() float64 {
	if e.Alignment == nil {
		return 1
	}
	a := *e.Alignment
	if a < 0 {
		return 0
	}
	if a > 1 {
		return 1
	}
	return a
}

// LoadImage 解码图片文件。相对路径基于 baseDir 解析；支持 png/jpeg/gif/bmp/webp。
func LoadImage(name, src, baseDir string) (*ImageEntry, error) {
	if src == "" {
		return nil, fmt.Errorf("图片 %s 缺少 src", name)
	}
	path := src
	if !filepath.IsAbs(path) {
		if baseDir == "" {
			return nil, fmt.Errorf("未指定资源目录时不允许使用相对路径：%s", src)
		}
		path = filepath.Join(baseDir, path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("读取图片 %s 失败: %w", src, err)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("解码图片 %s 失败: %w", src, err)
	}
	return &ImageEntry{Name: name, Src: src, Image: img}, nil
}
