// Package style holds the explicit style configuration shared by layout and
// the emitters: font profiles, theme palette, canvas geometry and spacing.
package style

import (
	"fmt"
	"strings"

	"github.com/ByLCY/termsheet/binding"
)

// FontProfile 描述一种字体角色（命令、说明、标题）。Size 为文档单位（px）。
type FontProfile struct {
	Family string `yaml:"family" json:"family"`
	Size   Px     `yaml:"size" json:"size"`
	Weight string `yaml:"weight" json:"weight"`
	// Src 可选：字体文件路径或 embed:<name>；为空时按 Family/Weight 选择内置字体。
	Src string `yaml:"src,omitempty" json:"src,omitempty"`
}

// IsBold reports whether the profile asks for a bold face.
func (f FontProfile) IsBold() bool {
	return strings.EqualFold(strings.TrimSpace(f.Weight), "bold")
}

// CSSWeight returns the numeric CSS font-weight.
func (f FontProfile) CSSWeight() int {
	if f.IsBold() {
		return 700
	}
	return 400
}

// Key identifies the face for caching.
func (f FontProfile) Key() string {
	return fmt.Sprintf("%s|%g|%s|%s", f.Family, float64(f.Size), strings.ToLower(f.Weight), f.Src)
}

// Fonts groups the font roles.
type Fonts struct {
	Code    FontProfile `yaml:"code"`
	Prose   FontProfile `yaml:"prose"`
	Heading FontProfile `yaml:"heading"`
}

// Palette 使用 #rrggbb 颜色。
type Palette struct {
	Background  string `yaml:"background"`
	TitleBar    string `yaml:"title_bar"`
	Title       string `yaml:"title"`
	Header      string `yaml:"header"`
	ColumnHead  string `yaml:"column_head"`
	Command     string `yaml:"command"`
	Description string `yaml:"description"`
	Rule        string `yaml:"rule"`
	Close       string `yaml:"close"`
	Minimize    string `yaml:"minimize"`
	Maximize    string `yaml:"maximize"`
}

// Canvas is the target geometry of one page.
type Canvas struct {
	Width      Px `yaml:"width"`
	PageHeight Px `yaml:"page_height"`
}

// Spacing collects the fixed paddings and gaps used by layout.
type Spacing struct {
	Margin         Px `yaml:"margin"`
	TitleBarHeight Px `yaml:"title_bar_height"`
	CellPadding    Px `yaml:"cell_padding"`
	RowPadding     Px `yaml:"row_padding"`
	RowGap         Px `yaml:"row_gap"`
	ColumnGap      Px `yaml:"column_gap"`
	HeaderPadding  Px `yaml:"header_padding"`
	SectionGap     Px `yaml:"section_gap"`
	CornerRadius   Px `yaml:"corner_radius"`
}

// Profile 是生成引擎的完整样式输入，显式传递，不依赖全局状态。
type Profile struct {
	Theme   string  `yaml:"theme"`
	Fonts   Fonts   `yaml:"fonts"`
	Palette Palette `yaml:"palette"`
	Canvas  Canvas  `yaml:"canvas"`
	Spacing Spacing `yaml:"spacing"`

	// MaxCommandFraction caps the auto command column at this share of the content width.
	MaxCommandFraction float64 `yaml:"max_command_fraction"`
	// CommandColumn fixes the command column width when > 0.
	CommandColumn Px `yaml:"command_column"`

	// ColumnHeaders 在每个分节（及其续页）的第一行前加上列标题行。
	ColumnHeaders      bool   `yaml:"column_headers"`
	CommandHeading     string `yaml:"command_heading"`
	DescriptionHeading string `yaml:"description_heading"`

	ContinuationSuffix string `yaml:"continuation_suffix"`
	TitleTemplate      string `yaml:"title_template"`
	PageLabel          string `yaml:"page_label"`
	// EmbedFonts 将度量所用的字体以 base64 写入 SVG，查看器不必安装 Go 字体。
	// 关闭后每页约小 500KB，但宿主机替换字体时折行可能溢出列宽。
	EmbedFonts bool `yaml:"embed_fonts"`
}

// Themes known by name.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// DarkPalette mirrors a classic terminal look.
func DarkPalette() Palette {
	return Palette{
		Background:  "#1e1f22",
		TitleBar:    "#2b2d30",
		Title:       "#c5c8c6",
		Header:      "#56b6c2",
		ColumnHead:  "#56b6c2",
		Command:     "#98c379",
		Description: "#e5c07b",
		Rule:        "#c5c8c6",
		Close:       "#ff5f57",
		Minimize:    "#febc2e",
		Maximize:    "#28c840",
	}
}

// LightPalette is the light counterpart of DarkPalette.
func LightPalette() Palette {
	return Palette{
		Background:  "#fafafa",
		TitleBar:    "#e6e6e6",
		Title:       "#383a42",
		Header:      "#0184bc",
		ColumnHead:  "#0184bc",
		Command:     "#50a14f",
		Description: "#986801",
		Rule:        "#a0a1a7",
		Close:       "#ff5f57",
		Minimize:    "#febc2e",
		Maximize:    "#28c840",
	}
}

// PaletteFor returns the palette of a named theme.
func PaletteFor(theme string) (Palette, error) {
	switch strings.ToLower(strings.TrimSpace(theme)) {
	case "", ThemeDark:
		return DarkPalette(), nil
	case ThemeLight:
		return LightPalette(), nil
	default:
		return Palette{}, fmt.Errorf("未知主题 %q", theme)
	}
}

// Default returns the built-in profile.
func Default() *Profile {
	return &Profile{
		Theme: ThemeDark,
		Fonts: Fonts{
			Code:    FontProfile{Family: "Go Mono", Size: 14, Weight: "regular"},
			Prose:   FontProfile{Family: "Go", Size: 14, Weight: "regular"},
			Heading: FontProfile{Family: "Go Mono", Size: 16, Weight: "bold"},
		},
		Palette: DarkPalette(),
		Canvas:  Canvas{Width: 1000, PageHeight: 1400},
		Spacing: Spacing{
			Margin:         24,
			TitleBarHeight: 36,
			CellPadding:    8,
			RowPadding:     3,
			RowGap:         2,
			ColumnGap:      16,
			HeaderPadding:  6,
			SectionGap:     18,
			CornerRadius:   8,
		},
		MaxCommandFraction: 0.5,
		ColumnHeaders:      true,
		CommandHeading:     "Command",
		DescriptionHeading: "Description",
		ContinuationSuffix: " (continued)",
		TitleTemplate:      "${title}",
		PageLabel:          "${page}/${pages}",
		EmbedFonts:         true,
	}
}

// ContentWidth is the usable width between the left and right margins.
func (p *Profile) ContentWidth() float64 {
	return float64(p.Canvas.Width) - 2*float64(p.Spacing.Margin)
}

// Validate checks the profile for values layout cannot work with.
func (p *Profile) Validate() error {
	if p == nil {
		return fmt.Errorf("style: profile 为空")
	}
	for name, f := range map[string]FontProfile{"code": p.Fonts.Code, "prose": p.Fonts.Prose, "heading": p.Fonts.Heading} {
		if f.Size <= 0 {
			return fmt.Errorf("style: fonts.%s.size 必须大于 0", name)
		}
		if strings.TrimSpace(f.Family) == "" && f.Src == "" {
			return fmt.Errorf("style: fonts.%s 缺少 family 或 src", name)
		}
	}
	if p.Canvas.Width <= 0 || p.Canvas.PageHeight <= 0 {
		return fmt.Errorf("style: canvas 宽高必须大于 0")
	}
	if p.ContentWidth() <= 0 {
		return fmt.Errorf("style: margin 过大，内容宽度为 %g", p.ContentWidth())
	}
	if p.MaxCommandFraction <= 0 || p.MaxCommandFraction > 1 {
		return fmt.Errorf("style: max_command_fraction 必须位于 (0, 1]")
	}
	if float64(p.CommandColumn) >= p.ContentWidth() {
		return fmt.Errorf("style: command_column 不能超过内容宽度")
	}
	if float64(p.Spacing.TitleBarHeight)+2*float64(p.Spacing.Margin) >= float64(p.Canvas.PageHeight) {
		return fmt.Errorf("style: page_height 不足以容纳标题栏与边距")
	}
	for _, c := range []string{p.Palette.Background, p.Palette.TitleBar, p.Palette.Title, p.Palette.Header, p.Palette.ColumnHead, p.Palette.Command, p.Palette.Description, p.Palette.Rule} {
		if !isHexColor(c) {
			return fmt.Errorf("style: 颜色 %q 不是 #rrggbb 格式", c)
		}
	}
	for name, tmpl := range map[string]string{"title_template": p.TitleTemplate, "page_label": p.PageLabel} {
		for _, v := range binding.Names(tmpl) {
			if !binding.Known(v) {
				return fmt.Errorf("style: %s 引用了未知变量 ${%s}", name, v)
			}
		}
	}
	return nil
}

func isHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
