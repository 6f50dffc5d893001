package metrics

import (
	"fmt"

	"github.com/mattn/go-runewidth"

	"github.com/ByLCY/termsheet/style"
)

// FixedProvider measures text with a fixed advance table: every terminal cell
// is Advance × size wide, and East Asian wide runes take two cells. It needs
// no font data at all, which makes it the cheapest fully pinned provider.
type FixedProvider struct {
	// Advance is the cell width as a fraction of the font size (0.6 when zero).
	Advance float64
	// Leading is the line height as a fraction of the font size (1.25 when zero).
	Leading float64
	// Ascent is the ascent as a fraction of the font size (0.8 when zero).
	Ascent float64
}

var _ Provider = (*FixedProvider)(nil)

// cells pins the East Asian width rules instead of reading them from the locale.
var cells = &runewidth.Condition{EastAsianWidth: false, StrictEmojiNeutral: true}

// NewFixed returns a FixedProvider with the default table.
func NewFixed() *FixedProvider { return &FixedProvider{} }

func (p *FixedProvider) advance() float64 {
	if p.Advance > 0 {
		return p.Advance
	}
	return 0.6
}

func (p *FixedProvider) leading() float64 {
	if p.Leading > 0 {
		return p.Leading
	}
	return 1.25
}

func (p *FixedProvider) ascent() float64 {
	if p.Ascent > 0 {
		return p.Ascent
	}
	return 0.8
}

// Metrics implements Provider.
func (p *FixedProvider) Metrics(font style.FontProfile) (FontMetrics, error) {
	size := float64(font.Size)
	if size <= 0 {
		return FontMetrics{}, fmt.Errorf("metrics: 字号必须大于 0 (%s)", font.Family)
	}
	lh := size * p.leading()
	asc := size * p.ascent()
	return FontMetrics{LineHeight: lh, Ascent: asc, Descent: lh - asc}, nil
}

// Measure implements Provider.
func (p *FixedProvider) Measure(text string, font style.FontProfile) (Size, error) {
	m, err := p.Metrics(font)
	if err != nil {
		return Size{}, err
	}
	return measureLines(text, m.LineHeight, p.widthFunc(font))
}

// Wrap implements Provider.
func (p *FixedProvider) Wrap(text string, font style.FontProfile, maxWidth float64) ([]string, error) {
	if _, err := p.Metrics(font); err != nil {
		return nil, err
	}
	return greedyWrap(text, maxWidth, p.widthFunc(font))
}

func (p *FixedProvider) widthFunc(font style.FontProfile) widthFunc {
	cell := float64(font.Size) * p.advance()
	return func(line string) (float64, error) {
		return float64(cells.StringWidth(line)) * cell, nil
	}
}
