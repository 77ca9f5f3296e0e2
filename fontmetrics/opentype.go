// Package fontmetrics provides layout.FontMetricsProvider implementations
// that do not need a paint backend: one backed by OpenType faces and a
// fixed-advance one for deterministic output.
package fontmetrics

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/forme/fonts"
	"github.com/ByLCY/forme/layout"
)

// dpi is chosen so that one pixel equals one point.
const dpi = 72

type fontKey struct {
	family  string
	variant fonts.Variant
}

type faceKey struct {
	fontKey
	size float64
}

// OpenType measures text with faces parsed from a font registry. Faces are
// cached per family, variant and size. It is safe for concurrent use.
type OpenType struct {
	registry *fonts.Registry

	mu    sync.Mutex
	fonts map[fontKey]*opentype.Font
	faces map[faceKey]font.Face
}

// NewOpenType returns a provider reading fonts from registry. A nil registry
// uses the built-in families.
func NewOpenType(registry *fonts.Registry) *OpenType {
	if registry == nil {
		registry = fonts.NewRegistry()
	}
	return &OpenType{
		registry: registry,
		fonts:    map[fontKey]*opentype.Font{},
		faces:    map[faceKey]font.Face{},
	}
}

// MeasureText returns the advance width of text in points.
func (p *OpenType) MeasureText(style layout.Style, text string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	face, err := p.face(style)
	if err != nil {
		return 0, err
	}
	return fromFixed(font.MeasureString(face, text)), nil
}

// FontMetrics returns ascent and descent in points. FontSize is their sum.
func (p *OpenType) FontMetrics(style layout.Style) (layout.FontMetrics, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	face, err := p.face(style)
	if err != nil {
		return layout.FontMetrics{}, err
	}
	m := face.Metrics()
	ascent, descent := fromFixed(m.Ascent), fromFixed(m.Descent)
	return layout.FontMetrics{
		Ascent:   ascent,
		Descent:  descent,
		FontSize: ascent + descent,
	}, nil
}

// Close releases cached faces.
func (p *OpenType) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for k, face := range p.faces {
		if err := face.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.faces, k)
	}
	return firstErr
}

func (p *OpenType) face(style layout.Style) (font.Face, error) {
	if style.Size <= 0 {
		return nil, fmt.Errorf("invalid font size %v", style.Size)
	}
	fk := fontKey{family: style.Family, variant: fonts.Variant{Bold: style.Bold(), Italic: style.Italic}}
	key := faceKey{fontKey: fk, size: style.Size}
	if face, ok := p.faces[key]; ok {
		return face, nil
	}

	f, ok := p.fonts[fk]
	if !ok {
		data, _, err := p.registry.Lookup(fk.family, fk.variant)
		if err != nil {
			return nil, err
		}
		f, err = opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse font %s/%s: %w", fk.family, fk.variant, err)
		}
		p.fonts[fk] = f
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    style.Size,
		DPI:     dpi,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("create face %s/%s@%v: %w", fk.family, fk.variant, style.Size, err)
	}
	p.faces[key] = face
	return face, nil
}

func fromFixed(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
