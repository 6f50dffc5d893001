// Package metrics measures and wraps text for a font profile. Every provider
// is deterministic: metrics come from pinned font data or a fixed table,
// never from fonts installed on the host.
package metrics

import (
	"strings"

	"github.com/ByLCY/termsheet/style"
)

// Size is a measured extent in document units.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FontMetrics are the vertical metrics of one font profile.
type FontMetrics struct {
	LineHeight float64 `json:"lineHeight"`
	Ascent     float64 `json:"ascent"`
	Descent    float64 `json:"descent"`
}

// Provider 负责文本度量与折行。
type Provider interface {
	Metrics(font style.FontProfile) (FontMetrics, error)
	Measure(text string, font style.FontProfile) (Size, error)
	Wrap(text string, font style.FontProfile, maxWidth float64) ([]string, error)
}

// widthFunc measures a single line of text.
type widthFunc func(line string) (float64, error)

// measureLines implements Measure on top of a single-line width function.
func measureLines(text string, lineHeight float64, width widthFunc) (Size, error) {
	lines := splitLines(text)
	size := Size{Height: lineHeight * float64(len(lines))}
	for _, l := range lines {
		w, err := width(l)
		if err != nil {
			return Size{}, err
		}
		if w > size.Width {
			size.Width = w
		}
	}
	return size, nil
}

// greedyWrap 贪心折行：显式换行总是断行；段内按空白分词累积，
// 候选行宽度超过 maxWidth 时另起一行；单个超宽单词独占一行且不截断。
func greedyWrap(text string, maxWidth float64, width widthFunc) ([]string, error) {
	var out []string
	for _, para := range splitLines(text) {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		if maxWidth <= 0 {
			out = append(out, strings.Join(words, " "))
			continue
		}
		current := words[0]
		for _, word := range words[1:] {
			candidate := current + " " + word
			w, err := width(candidate)
			if err != nil {
				return nil, err
			}
			if w <= maxWidth {
				current = candidate
				continue
			}
			out = append(out, current)
			current = word
		}
		out = append(out, current)
	}
	return out, nil
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}
