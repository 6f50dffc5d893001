package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/termsheet/binding"
	"github.com/ByLCY/termsheet/layout"
	"github.com/ByLCY/termsheet/metrics"
	"github.com/ByLCY/termsheet/renderer"
	"github.com/ByLCY/termsheet/style"
)

const (
	ruleWidth      = 1.0 // px
	controlRadius  = 6.0
	controlSpacing = 20.0
)

// Renderer draws layout plans into a single multi-page PDF via github.com/tdewolff/canvas.
//
// 约定：Plan 中的坐标为 px；绘制前统一乘以 PxToMm 转为 canvas 使用的毫米，
// 字号则由 px 换算为 pt 创建字体面。
type Renderer struct {
	fonts *metrics.CanvasProvider
	st    *style.Profile
}

var _ renderer.Renderer = (*Renderer)(nil)

// New creates a PDF renderer. Fonts are shared with the metrics provider so the
// PDF uses exactly the faces layout measured with.
func New(provider *metrics.CanvasProvider, st *style.Profile) *Renderer {
	if provider == nil {
		provider = metrics.NewCanvas()
	}
	if st == nil {
		st = style.Default()
	}
	return &Renderer{fonts: provider, st: st}
}

// Render renders every page of the plan into one PDF document.
func (r *Renderer) Render(plan *layout.Plan) ([][]byte, error) {
	if plan == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(plan.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	var buf bytes.Buffer
	first := plan.Pages[0]
	writer := pdf.New(&buf, mm(first.Width), mm(first.Height), nil)
	writer.SetInfo(plan.Title, plan.Filename, "cheatsheet", "", "termsheet")
	for i, page := range plan.Pages {
		if i > 0 {
			writer.NewPage(mm(page.Width), mm(page.Height))
		}
		c := canvas.New(mm(page.Width), mm(page.Height))
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

		if err := r.drawPage(ctx, plan, page); err != nil {
			return nil, err
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return [][]byte{buf.Bytes()}, nil
}

func (r *Renderer) drawPage(ctx *canvas.Context, plan *layout.Plan, page layout.Page) error {
	st := r.st
	pal := st.Palette
	bar := float64(st.Spacing.TitleBarHeight)

	// 先绘制窗口背景与标题栏，再绘制文本
	r.drawRect(ctx, 0, 0, page.Width, page.Height, float64(st.Spacing.CornerRadius), pal.Background)
	if bar > 0 {
		r.drawRect(ctx, 0, 0, page.Width, bar, float64(st.Spacing.CornerRadius), pal.TitleBar)
		if lower := math.Min(float64(st.Spacing.CornerRadius), bar/2); lower > 0 {
			r.drawRect(ctx, 0, bar-lower, page.Width, lower, 0, pal.TitleBar)
		}
		x := float64(st.Spacing.Margin) + controlRadius
		for _, fill := range []string{pal.Close, pal.Minimize, pal.Maximize} {
			ctx.SetFillColor(canvas.Hex(fill))
			ctx.SetStrokeColor(color.RGBA{})
			ctx.DrawPath(mm(x), mm(bar/2), canvas.Circle(mm(controlRadius)))
			x += controlSpacing
		}
	}

	vars := binding.PageVars(plan.Title, plan.Filename, page.Number, plan.PageCount())
	if title := binding.Interpolate(st.TitleTemplate, vars); title != "" {
		if err := r.drawLabel(ctx, title, page.Width/2, bar/2, canvas.Center); err != nil {
			return err
		}
	}
	if plan.PageCount() > 1 && st.PageLabel != "" {
		label := binding.Interpolate(st.PageLabel, vars)
		if err := r.drawLabel(ctx, label, page.Width-float64(st.Spacing.Margin), bar/2, canvas.Right); err != nil {
			return err
		}
	}

	for _, box := range page.Boxes {
		if err := r.drawTextBox(ctx, box); err != nil {
			return err
		}
		if box.Kind == layout.KindSectionHeader {
			y := box.Bottom() + float64(st.Spacing.HeaderPadding)/2
			r.drawRule(ctx, box.X, y, box.X+box.Width, pal.Rule)
		}
	}
	return nil
}

func (r *Renderer) drawTextBox(ctx *canvas.Context, box layout.GlyphBox) error {
	font, fill := r.role(box.Kind)
	face, err := r.face(font, fill)
	if err != nil {
		return err
	}

	// 处理水平对齐：left（默认）/center/right。
	var textAlign canvas.TextAlign
	var anchorX float64
	switch strings.ToLower(box.Align) {
	case "center":
		textAlign = canvas.Center
		anchorX = box.X + box.Width/2
	case "right", "end":
		textAlign = canvas.Right
		anchorX = box.X + box.Width
	default:
		textAlign = canvas.Left
		anchorX = box.X
	}

	for i, line := range box.Lines {
		if line == "" {
			continue
		}
		// 基线位置与 SVG 一致：行顶部加上字体上升部
		baseline := box.Y + float64(i)*box.LineHeight + box.Ascent
		ctx.DrawText(mm(anchorX), mm(baseline), canvas.NewTextLine(face, line, textAlign))
	}
	return nil
}

// drawLabel 在标题栏内垂直居中绘制单行文本。
func (r *Renderer) drawLabel(ctx *canvas.Context, text string, x, midY float64, align canvas.TextAlign) error {
	face, err := r.face(r.st.Fonts.Prose, r.st.Palette.Title)
	if err != nil {
		return err
	}
	m := face.Metrics()
	baseline := mm(midY) + (m.Ascent-m.Descent)/2
	ctx.DrawText(mm(x), baseline, canvas.NewTextLine(face, text, align))
	return nil
}

func (r *Renderer) drawRect(ctx *canvas.Context, x, y, w, h, radius float64, fill string) {
	ctx.SetFillColor(canvas.Hex(fill))
	ctx.SetStrokeColor(color.RGBA{})
	path := canvas.Rectangle(mm(w), mm(h))
	if radius > 0 {
		path = canvas.RoundedRectangle(mm(w), mm(h), mm(radius))
	}
	ctx.DrawPath(mm(x), mm(y), path)
}

// drawRule 绘制分节标题下方的横线
func (r *Renderer) drawRule(ctx *canvas.Context, x1, y, x2 float64, stroke string) {
	ctx.SetFillColor(color.RGBA{})
	ctx.SetStrokeColor(canvas.Hex(stroke))
	ctx.SetStrokeWidth(mm(ruleWidth))
	p := &canvas.Path{}
	p.MoveTo(0, 0)
	p.LineTo(mm(x2-x1), 0)
	ctx.DrawPath(mm(x1), mm(y), p)
}

func (r *Renderer) role(kind layout.BoxKind) (style.FontProfile, string) {
	switch kind {
	case layout.KindSectionHeader:
		return r.st.Fonts.Heading, r.st.Palette.Header
	case layout.KindColumnHeader:
		return layout.ColumnHeadFont(r.st), r.st.Palette.ColumnHead
	case layout.KindCommand:
		return r.st.Fonts.Code, r.st.Palette.Command
	default:
		return r.st.Fonts.Prose, r.st.Palette.Description
	}
}

func (r *Renderer) face(font style.FontProfile, fill string) (*canvas.FontFace, error) {
	family, fontStyle, err := r.fonts.Family(font)
	if err != nil {
		return nil, err
	}
	return family.Face(toPt(float64(font.Size)), canvas.Hex(fill), fontStyle, canvas.FontNormal), nil
}

// mm 将文档单位(px)转换为毫米(mm)。
func mm(px float64) float64 { return px * style.PxToMm }

// toPt 将文档单位(px)转换为点(pt)。
func toPt(px float64) float64 { return px * style.PxToPt }
