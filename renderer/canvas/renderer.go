package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/ByLCY/forme/fonts"
	"github.com/ByLCY/forme/layout"
	"github.com/ByLCY/forme/renderer"
)

// Format selects the output encoding.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatPNG Format = "png"
)

const defaultDPI = 144.0

// Renderer paints pressed layouts via github.com/tdewolff/canvas. It also
// measures text with the same faces, so layout and output agree.
type Renderer struct {
	registry *fonts.Registry
	format   Format
	dpi      float64
	margin   float64
	meta     layout.DocumentMeta

	fontMu       sync.Mutex
	fontFamilies map[string]*fontFamilyEntry
	faces        map[faceKey]*canvas.FontFace
}

var (
	_ renderer.Renderer          = (*Renderer)(nil)
	_ layout.FontMetricsProvider = (*Renderer)(nil)
)

// fontFamilyEntry tracks which styles have been loaded into a canvas family.
type fontFamilyEntry struct {
	family *canvas.FontFamily
	loaded map[canvas.FontStyle]bool
}

type faceKey struct {
	family string
	style  canvas.FontStyle
	size   float64
}

// Options configures the canvas renderer.
type Options struct {
	Registry *fonts.Registry // nil uses the built-in families
	Format   Format          // defaults to PDF
	DPI      float64         // PNG resolution, defaults to 144
	Margin   float64         // pt around the pressed area
	Meta     layout.DocumentMeta
}

// NewRenderer creates a PDF renderer over the built-in fonts.
func NewRenderer() *Renderer { return NewRendererWithOptions(Options{}) }

// NewRendererWithOptions creates a renderer with the given font registry and output settings.
func NewRendererWithOptions(opts Options) *Renderer {
	if opts.Registry == nil {
		opts.Registry = fonts.NewRegistry()
	}
	if opts.Format == "" {
		opts.Format = FormatPDF
	}
	if opts.DPI <= 0 {
		opts.DPI = defaultDPI
	}
	return &Renderer{
		registry:     opts.Registry,
		format:       opts.Format,
		dpi:          opts.DPI,
		margin:       opts.Margin,
		meta:         opts.Meta,
		fontFamilies: map[string]*fontFamilyEntry{},
		faces:        map[faceKey]*canvas.FontFace{},
	}
}

// ParseFormat maps a file extension or format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "pdf":
		return FormatPDF, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unsupported output format %q", s)
	}
}

// MeasureText implements layout.FontMetricsProvider. Widths are in pt.
func (r *Renderer) MeasureText(style layout.Style, text string) (float64, error) {
	if text == "" {
		return 0, nil
	}
	face, err := r.metricsFace(style)
	if err != nil {
		return 0, err
	}
	return toPt(face.TextWidth(text)), nil
}

// FontMetrics implements layout.FontMetricsProvider.
func (r *Renderer) FontMetrics(style layout.Style) (layout.FontMetrics, error) {
	face, err := r.metricsFace(style)
	if err != nil {
		return layout.FontMetrics{}, err
	}
	m := face.Metrics()
	ascent, descent := toPt(m.Ascent), toPt(m.Descent)
	return layout.FontMetrics{
		Ascent:   ascent,
		Descent:  descent,
		FontSize: ascent + descent,
	}, nil
}

// Render paints the pressed runs and encodes them in the configured format.
func (r *Renderer) Render(pressed *layout.Pressed) ([]byte, error) {
	if pressed.Empty() {
		return nil, renderer.ErrEmptyDocument
	}

	// 画布以 mm 为单位；压印结果为 pt，在此边界换算。
	width := toMm(pressed.Width + 2*r.margin)
	height := toMm(pressed.Height + 2*r.margin)
	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

	if r.format == FormatPNG {
		ctx.SetFillColor(canvas.White)
		ctx.DrawPath(0, 0, canvas.Rectangle(width, height))
	}
	for _, run := range pressed.Runs {
		var err error
		switch run.Kind {
		case layout.RunText:
			err = r.drawText(ctx, run)
		case layout.RunImage:
			err = r.drawImage(ctx, run)
		}
		if err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	switch r.format {
	case FormatPNG:
		img := rasterizer.Draw(c, canvas.DPI(r.dpi), canvas.DefaultColorSpace)
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("写入 PNG 失败: %w", err)
		}
	default:
		writer := pdf.New(&buf, width, height, nil)
		r.applyMeta(writer, r.meta)
		c.RenderTo(writer)
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("写入 PDF 失败: %w", err)
		}
	}
	return buf.Bytes(), nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

func (r *Renderer) drawText(ctx *canvas.Context, run layout.PlacedRun) error {
	if run.Text == "" {
		return nil
	}
	face, err := r.fontFace(run.Style, run.Style.Color)
	if err != nil {
		return err
	}
	x := toMm(run.X + r.margin)
	baseline := toMm(run.Y + run.Ascent + r.margin)

	if run.Style.LetterSpacing == 0 {
		ctx.DrawText(x, baseline, canvas.NewTextLine(face, run.Text, canvas.Left))
		return nil
	}
	// 字间距逐字绘制：每个字符后追加 LetterSpacing（pt）。
	spacing := toMm(run.Style.LetterSpacing)
	for len(run.Text) > 0 {
		ch, size := utf8.DecodeRuneInString(run.Text)
		s := run.Text[:size]
		run.Text = run.Text[size:]
		if ch == ' ' {
			x += face.TextWidth(s) + spacing
			continue
		}
		ctx.DrawText(x, baseline, canvas.NewTextLine(face, s, canvas.Left))
		x += face.TextWidth(s) + spacing
	}
	return nil
}

func (r *Renderer) drawImage(ctx *canvas.Context, run layout.PlacedRun) error {
	if run.Image == nil || run.Image.Image == nil {
		return fmt.Errorf("图片 %s 未加载", imageName(run.Image))
	}
	img := run.Image.Image
	widthMM := toMm(run.Width)
	if widthMM <= 0 || img.Bounds().Dx() == 0 {
		return nil
	}
	dpmm := float64(img.Bounds().Dx()) / widthMM
	ctx.DrawImage(toMm(run.X+r.margin), toMm(run.Y+r.margin), img, canvas.DPMM(dpmm))
	return nil
}

func imageName(e *layout.ImageEntry) string {
	if e == nil {
		return "<nil>"
	}
	return e.Name
}

// metricsFace returns a cached face used only for measuring.
func (r *Renderer) metricsFace(style layout.Style) (*canvas.FontFace, error) {
	key := faceKey{family: strings.ToLower(style.Family), style: parseFontStyle(style), size: style.Size}
	r.fontMu.Lock()
	if face, ok := r.faces[key]; ok {
		r.fontMu.Unlock()
		return face, nil
	}
	r.fontMu.Unlock()

	face, err := r.fontFace(style, layout.Color{})
	if err != nil {
		return nil, err
	}
	r.fontMu.Lock()
	r.faces[key] = face
	r.fontMu.Unlock()
	return face, nil
}

func (r *Renderer) fontFace(style layout.Style, col layout.Color) (*canvas.FontFace, error) {
	if style.Size <= 0 {
		return nil, fmt.Errorf("字号无效: %v", style.Size)
	}
	fontStyle := parseFontStyle(style)
	family, err := r.ensureFontFamily(style, fontStyle)
	if err != nil {
		return nil, err
	}
	return family.Face(style.Size, colorFromLayout(col), fontStyle, canvas.FontNormal), nil
}

// ensureFontFamily 返回字体族，并确保所需样式已载入；
// 注册表中缺少的变体以最接近的变体数据代替。
func (r *Renderer) ensureFontFamily(style layout.Style, fontStyle canvas.FontStyle) (*canvas.FontFamily, error) {
	key := strings.ToLower(style.Family)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	entry, ok := r.fontFamilies[key]
	if !ok {
		entry = &fontFamilyEntry{
			family: canvas.NewFontFamily(key),
			loaded: map[canvas.FontStyle]bool{},
		}
		r.fontFamilies[key] = entry
	}
	if entry.loaded[fontStyle] {
		return entry.family, nil
	}

	data, _, err := r.registry.Lookup(style.Family, fonts.Variant{Bold: style.Bold(), Italic: style.Italic})
	if err != nil {
		return nil, err
	}
	if err := entry.family.LoadFont(data, 0, fontStyle); err != nil {
		return nil, fmt.Errorf("载入字体 %s 失败: %w", style.Family, err)
	}
	entry.loaded[fontStyle] = true
	return entry.family, nil
}

// parseFontStyle 将字重与斜体映射为 canvas 的字体样式。
func parseFontStyle(style layout.Style) canvas.FontStyle {
	var result canvas.FontStyle
	switch w := style.Weight; {
	case w >= 900:
		result = canvas.FontBlack
	case w >= 800:
		result = canvas.FontExtraBold
	case w >= 700:
		result = canvas.FontBold
	case w >= 600:
		result = canvas.FontSemiBold
	case w >= 500:
		result = canvas.FontMedium
	case w > 0 && w <= 300:
		result = canvas.FontLight
	default:
		result = canvas.FontRegular
	}
	if style.Italic {
		result |= canvas.FontItalic
	}
	return result
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }

// toMm 将点(pt)转换为毫米(mm)。
func toMm(pt float64) float64 { return pt * layout.PtToMm }
