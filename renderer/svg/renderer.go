// Package svgrenderer writes a layout plan as one standalone SVG document per page.
//
// 输出只依赖 Plan 与 Profile，数值统一保留两位小数，相同输入得到逐字节相同的结果。
package svgrenderer

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ByLCY/termsheet/binding"
	"github.com/ByLCY/termsheet/layout"
	"github.com/ByLCY/termsheet/metrics"
	"github.com/ByLCY/termsheet/renderer"
	"github.com/ByLCY/termsheet/style"
)

// SheetAttr 是根元素上记录所属 filename 的属性，用于判断输出文件归属。
const SheetAttr = "data-sheet"

const (
	controlRadius  = 6.0
	controlSpacing = 20.0
	ruleWidth      = 1.0
)

// Renderer emits SVG pages.
type Renderer struct {
	st *style.Profile
}

var _ renderer.Renderer = (*Renderer)(nil)

// New creates an SVG renderer. A nil profile uses style.Default().
func New(st *style.Profile) *Renderer {
	if st == nil {
		st = style.Default()
	}
	return &Renderer{st: st}
}

// Render 为每一页生成一个 SVG 文档。
func (r *Renderer) Render(plan *layout.Plan) ([][]byte, error) {
	if plan == nil {
		return nil, fmt.Errorf("svg: 布局结果为空")
	}
	if len(plan.Pages) == 0 {
		return nil, fmt.Errorf("svg: 缺少可渲染的页面")
	}
	css, err := r.stylesheet()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, len(plan.Pages))
	for i := range plan.Pages {
		out = append(out, r.page(plan, i, css))
	}
	return out, nil
}

func (r *Renderer) page(plan *layout.Plan, idx int, css string) []byte {
	st := r.st
	pg := plan.Pages[idx]
	w := &writer{}

	w.printf(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	w.printf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s" %s="%s">`+"\n",
		num(pg.Width), num(pg.Height), num(pg.Width), num(pg.Height), SheetAttr, attr(plan.Filename))
	w.printf("<style>")
	w.escape(css)
	w.printf("</style>\n")

	r.window(w, pg)

	vars := binding.PageVars(plan.Title, plan.Filename, pg.Number, plan.PageCount())
	barMid := float64(st.Spacing.TitleBarHeight) / 2
	if title := binding.Interpolate(st.TitleTemplate, vars); title != "" {
		w.printf(`<text class="title" x="%s" y="%s" text-anchor="middle" dominant-baseline="central" xml:space="preserve">`,
			num(pg.Width/2), num(barMid))
		w.escape(title)
		w.printf("</text>\n")
	}
	if plan.PageCount() > 1 && st.PageLabel != "" {
		w.printf(`<text class="page-label" x="%s" y="%s" text-anchor="end" dominant-baseline="central">`,
			num(pg.Width-float64(st.Spacing.Margin)), num(barMid))
		w.escape(binding.Interpolate(st.PageLabel, vars))
		w.printf("</text>\n")
	}

	for _, box := range pg.Boxes {
		r.box(w, box)
	}
	w.printf("</svg>\n")
	return w.buf.Bytes()
}

// window 绘制圆角背景、标题栏与三个窗口按钮。
func (r *Renderer) window(w *writer, pg layout.Page) {
	st := r.st
	radius := float64(st.Spacing.CornerRadius)
	bar := float64(st.Spacing.TitleBarHeight)

	w.printf(`<rect class="window" x="0" y="0" width="%s" height="%s" rx="%s" ry="%s"/>`+"\n",
		num(pg.Width), num(pg.Height), num(radius), num(radius))
	if bar <= 0 {
		return
	}
	w.printf(`<rect class="title-bar" x="0" y="0" width="%s" height="%s" rx="%s" ry="%s"/>`+"\n",
		num(pg.Width), num(bar), num(radius), num(radius))
	// 标题栏下沿为直角
	if lower := math.Min(radius, bar/2); lower > 0 {
		w.printf(`<rect class="title-bar" x="0" y="%s" width="%s" height="%s"/>`+"\n",
			num(bar-lower), num(pg.Width), num(lower))
	}
	fills := []string{st.Palette.Close, st.Palette.Minimize, st.Palette.Maximize}
	x := float64(st.Spacing.Margin) + controlRadius
	for _, fill := range fills {
		w.printf(`<circle cx="%s" cy="%s" r="%s" fill="%s"/>`+"\n", num(x), num(bar/2), num(controlRadius), attr(fill))
		x += controlSpacing
	}
}

func (r *Renderer) box(w *writer, box layout.GlyphBox) {
	class := string(box.Kind)
	x := box.X
	anchor := ""
	if box.Align == "center" {
		x = box.X + box.Width/2
		anchor = ` text-anchor="middle"`
	}
	w.printf(`<text class="%s" x="%s" y="%s"%s xml:space="preserve">`, class, num(x), num(box.Y+box.Ascent), anchor)
	for i, line := range box.Lines {
		baseline := box.Y + float64(i)*box.LineHeight + box.Ascent
		w.printf(`<tspan x="%s" y="%s">`, num(x), num(baseline))
		w.escape(line)
		w.printf("</tspan>")
	}
	w.printf("</text>\n")

	if box.Kind == layout.KindSectionHeader {
		y := box.Bottom() + float64(r.st.Spacing.HeaderPadding)/2
		w.printf(`<line class="rule" x1="%s" y1="%s" x2="%s" y2="%s"/>`+"\n",
			num(box.X), num(y), num(box.X+box.Width), num(y))
	}
}

// stylesheet 生成内嵌 CSS；EmbedFonts 时附带 base64 @font-face。
func (r *Renderer) stylesheet() (string, error) {
	st := r.st
	p := st.Palette
	var sb strings.Builder

	if st.EmbedFonts {
		seen := map[string]bool{}
		used := []style.FontProfile{st.Fonts.Code, st.Fonts.Prose, st.Fonts.Heading}
		if st.ColumnHeaders {
			used = append(used, layout.ColumnHeadFont(st))
		}
		for _, f := range used {
			key := fmt.Sprintf("%s|%d", f.Family, f.CSSWeight())
			if seen[key] {
				continue
			}
			seen[key] = true
			data, err := metrics.FontData(f)
			if err != nil {
				return "", fmt.Errorf("svg: 嵌入字体失败: %w", err)
			}
			fmt.Fprintf(&sb, "@font-face{font-family:%s;font-weight:%d;src:url(data:font/ttf;base64,%s) format('truetype');}",
				cssString(f.Family), f.CSSWeight(), base64.StdEncoding.EncodeToString(data))
		}
	}

	fmt.Fprintf(&sb, ".window{fill:%s;}", p.Background)
	fmt.Fprintf(&sb, ".title-bar{fill:%s;}", p.TitleBar)
	fmt.Fprintf(&sb, ".title,.page-label{%sfill:%s;}", fontCSS(st.Fonts.Prose, false), p.Title)
	fmt.Fprintf(&sb, ".%s{%sfill:%s;}", layout.KindSectionHeader, fontCSS(st.Fonts.Heading, true), p.Header)
	fmt.Fprintf(&sb, ".%s{%sfill:%s;}", layout.KindColumnHeader, fontCSS(layout.ColumnHeadFont(st), false), p.ColumnHead)
	fmt.Fprintf(&sb, ".%s{%sfill:%s;}", layout.KindCommand, fontCSS(st.Fonts.Code, true), p.Command)
	fmt.Fprintf(&sb, ".%s{%sfill:%s;}", layout.KindDescription, fontCSS(st.Fonts.Prose, false), p.Description)
	fmt.Fprintf(&sb, ".rule{stroke:%s;stroke-width:%s;}", p.Rule, num(ruleWidth))
	return sb.String(), nil
}

func fontCSS(f style.FontProfile, mono bool) string {
	generic := "sans-serif"
	if mono || strings.Contains(strings.ToLower(f.Family), "mono") {
		generic = "monospace"
	}
	return fmt.Sprintf("font-family:%s,%s;font-size:%spx;font-weight:%d;",
		cssString(f.Family), generic, num(float64(f.Size)), f.CSSWeight())
}

func cssString(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
	return "'" + s + "'"
}

// Owner 读取由 Render 生成的 SVG 根元素上记录的 filename。
// 不是本工具生成的文件返回 false。
func Owner(r io.Reader) (string, bool) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", false
		}
		el, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if el.Name.Local != "svg" {
			return "", false
		}
		for _, a := range el.Attr {
			if a.Name.Local == SheetAttr {
				return a.Value, true
			}
		}
		return "", false
	}
}

// attr 转义属性值。
func attr(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// num 固定保留两位小数并去掉多余的 0。
func num(v float64) string {
	v = math.Round(v*100) / 100
	if v == 0 {
		v = 0 // -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type writer struct {
	buf bytes.Buffer
}

func (w *writer) printf(format string, args ...any) {
	fmt.Fprintf(&w.buf, format, args...)
}

// escape 写入转义后的文本；非法 XML 字符会被替换为 U+FFFD。
func (w *writer) escape(s string) {
	_ = xml.EscapeText(&w.buf, []byte(s))
}
