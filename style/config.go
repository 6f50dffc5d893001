package style

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Environment variables that override the style file.
const (
	EnvTheme       = "TERMSHEET_THEME"
	EnvCanvasWidth = "TERMSHEET_CANVAS_WIDTH"
	EnvPageHeight  = "TERMSHEET_PAGE_HEIGHT"
)

// Load reads a YAML style file on top of Default. An empty path yields the
// defaults (plus environment overrides).
func Load(path string) (*Profile, error) {
	p := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取样式文件 %s 失败: %w", path, err)
		}
		if err := Decode(p, data); err != nil {
			return nil, fmt.Errorf("解析样式文件 %s 失败: %w", path, err)
		}
		p.resolveFontPaths(filepath.Dir(path))
	}
	if err := p.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Decode merges YAML data into p. The theme is read first so that palette
// entries in the same file override the theme's palette, not the other way round.
func Decode(p *Profile, data []byte) error {
	var probe struct {
		Theme string `yaml:"theme"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Theme != "" {
		pal, err := PaletteFor(probe.Theme)
		if err != nil {
			return err
		}
		p.Theme = probe.Theme
		p.Palette = pal
	}
	return yaml.Unmarshal(data, p)
}

// resolveFontPaths makes relative font files relative to the style file.
func (p *Profile) resolveFontPaths(baseDir string) {
	for _, f := range []*FontProfile{&p.Fonts.Code, &p.Fonts.Prose, &p.Fonts.Heading} {
		if f.Src == "" || filepath.IsAbs(f.Src) || len(f.Src) > 6 && f.Src[:6] == "embed:" {
			continue
		}
		f.Src = filepath.Join(baseDir, f.Src)
	}
}

func (p *Profile) applyEnvOverrides() error {
	if theme := os.Getenv(EnvTheme); theme != "" {
		pal, err := PaletteFor(theme)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTheme, err)
		}
		p.Theme = theme
		p.Palette = pal
	}
	if v := os.Getenv(EnvCanvasWidth); v != "" {
		w, err := parseEnvLength(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCanvasWidth, err)
		}
		p.Canvas.Width = w
	}
	if v := os.Getenv(EnvPageHeight); v != "" {
		h, err := parseEnvLength(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPageHeight, err)
		}
		p.Canvas.PageHeight = h
	}
	return nil
}

func parseEnvLength(v string) (Px, error) {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return Px(f), nil
	}
	l, err := ParseLength(v)
	if err != nil {
		return 0, err
	}
	return Px(l.Px()), nil
}
