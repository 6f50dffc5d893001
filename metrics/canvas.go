package metrics

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/termsheet/fonts"
	"github.com/ByLCY/termsheet/style"
)

// CanvasProvider measures text with real glyph advances via
// github.com/tdewolff/canvas. Fonts come from the embedded Go font family
// (or an explicit Src), so results do not depend on the host.
//
// 约定：FontProfile.Size 为文档单位（px）。字体面以同一数值作为 pt 创建，
// canvas 返回的 mm 再乘以 MmToPt 即回到文档单位。
type CanvasProvider struct {
	mu       sync.Mutex
	families map[string]*fontFamilyEntry
	faces    map[string]*canvas.FontFace
}

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

var _ Provider = (*CanvasProvider)(nil)

// NewCanvas creates a provider with empty font caches.
func NewCanvas() *CanvasProvider {
	return &CanvasProvider{
		families: map[string]*fontFamilyEntry{},
		faces:    map[string]*canvas.FontFace{},
	}
}

// Metrics implements Provider.
func (p *CanvasProvider) Metrics(font style.FontProfile) (FontMetrics, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	face, err := p.faceLocked(font)
	if err != nil {
		return FontMetrics{}, err
	}
	return faceMetrics(face), nil
}

// Measure implements Provider.
func (p *CanvasProvider) Measure(text string, font style.FontProfile) (Size, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	face, err := p.faceLocked(font)
	if err != nil {
		return Size{}, err
	}
	return measureLines(text, faceMetrics(face).LineHeight, textWidth(face))
}

// Wrap implements Provider.
func (p *CanvasProvider) Wrap(text string, font style.FontProfile, maxWidth float64) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	face, err := p.faceLocked(font)
	if err != nil {
		return nil, err
	}
	return greedyWrap(text, maxWidth, textWidth(face))
}

// Family returns the loaded font family and style for a profile. Renderers
// use it to create faces at their own scale and colour.
func (p *CanvasProvider) Family(font style.FontProfile) (*canvas.FontFamily, canvas.FontStyle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.familyLocked(font)
}

// FontData returns the raw font bytes used for a profile.
func FontData(font style.FontProfile) ([]byte, error) {
	if font.Src != "" {
		return fonts.Load(font.Src)
	}
	return fonts.Resolve(font.Family, font.Weight)
}

func (p *CanvasProvider) faceLocked(font style.FontProfile) (*canvas.FontFace, error) {
	if font.Size <= 0 {
		return nil, fmt.Errorf("metrics: 字号必须大于 0 (%s)", font.Family)
	}
	key := font.Key()
	if face, ok := p.faces[key]; ok {
		return face, nil
	}
	family, fontStyle, err := p.familyLocked(font)
	if err != nil {
		return nil, err
	}
	face := family.Face(float64(font.Size), color.Black, fontStyle, canvas.FontNormal)
	p.faces[key] = face
	return face, nil
}

func (p *CanvasProvider) familyLocked(font style.FontProfile) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fmt.Sprintf("%s|%s|%t", font.Family, font.Src, font.IsBold())
	if entry, ok := p.families[key]; ok {
		return entry.family, entry.style, nil
	}
	fontStyle := canvas.FontRegular
	if font.IsBold() {
		fontStyle = canvas.FontBold
	}
	data, err := FontData(font)
	if err != nil {
		return nil, canvas.FontRegular, fmt.Errorf("metrics: %w", err)
	}
	name := font.Family
	if name == "" {
		name = "termsheet"
	}
	family := canvas.NewFontFamily(name)
	if err := family.LoadFont(data, 0, fontStyle); err != nil {
		return nil, canvas.FontRegular, fmt.Errorf("metrics: 加载字体 %s 失败: %w", name, err)
	}
	p.families[key] = &fontFamilyEntry{family: family, style: fontStyle}
	return family, fontStyle, nil
}

func faceMetrics(face *canvas.FontFace) FontMetrics {
	m := face.Metrics()
	lh := toDoc(m.LineHeight)
	asc := toDoc(m.Ascent)
	return FontMetrics{LineHeight: lh, Ascent: asc, Descent: lh - asc}
}

func textWidth(face *canvas.FontFace) widthFunc {
	return func(line string) (float64, error) {
		return toDoc(face.TextWidth(line)), nil
	}
}

// toDoc converts canvas millimetres back to document units.
func toDoc(mm float64) float64 { return mm * style.MmToPt }
