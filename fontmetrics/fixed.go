package fontmetrics

import (
	"unicode/utf8"

	"github.com/ByLCY/forme/layout"
)

// Fixed gives every rune the same advance, expressed as a fraction of the
// font size. Ascent and Descent are fractions of the size as well.
type Fixed struct {
	Advance float64
	Ascent  float64
	Descent float64
}

// NewFixed returns a monospace-like provider (0.6em advance, 0.8/0.2 split).
func NewFixed() Fixed {
	return Fixed{Advance: 0.6, Ascent: 0.8, Descent: 0.2}
}

func (f Fixed) MeasureText(style layout.Style, text string) (float64, error) {
	return float64(utf8.RuneCountInString(text)) * f.Advance * style.Size, nil
}

func (f Fixed) FontMetrics(style layout.Style) (layout.FontMetrics, error) {
	ascent, descent := f.Ascent*style.Size, f.Descent*style.Size
	return layout.FontMetrics{
		Ascent:   ascent,
		Descent:  descent,
		FontSize: ascent + descent,
	}, nil
}
