package layout

import (
	"fmt"
	"math"
	"strings"

	"github.com/ByLCY/termsheet/metrics"
	"github.com/ByLCY/termsheet/sheet"
	"github.com/ByLCY/termsheet/style"
)

// Build 根据文档与样式计算分页布局。
//
// 列宽在全文档范围内只计算一次，所有页面共用；每条命令在结果中恰好出现一次且保持输入顺序。
func Build(doc *sheet.Document, st *style.Profile, opts BuildOptions) (*Plan, error) {
	if doc == nil {
		return nil, fmt.Errorf("layout: 文档为空")
	}
	if opts.Metrics == nil {
		return nil, fmt.Errorf("layout: 缺少度量后端 Metrics")
	}
	if st == nil {
		st = style.Default()
	}

	b := &builder{st: st, m: opts.Metrics}
	if err := b.resolveFonts(); err != nil {
		return nil, err
	}
	cols, err := b.columns(doc)
	if err != nil {
		return nil, err
	}
	b.cols = cols

	collector := newPageCollector(st)
	flow := &flowContext{collector: collector, cursorY: collector.contentTop()}

	entry := 0
	for si, sec := range doc.Sections {
		header, err := b.header(sec.Title, si, false)
		if err != nil {
			return nil, err
		}
		rows := make([]row, 0, len(sec.Commands))
		for _, cmd := range sec.Commands {
			r, err := b.row(cmd, si, entry)
			if err != nil {
				return nil, err
			}
			rows = append(rows, r)
			entry++
		}
		// 空分节只有标题，不放列标题行
		var colHead *row
		if st.ColumnHeaders && len(rows) > 0 {
			ch, err := b.columnHead(si)
			if err != nil {
				return nil, err
			}
			colHead = &ch
		}

		// 分节标题（与列标题）只放在能同时容纳第一行的位置，避免标题孤零零地留在页尾。
		need := header.block
		if colHead != nil {
			need += colHead.height + float64(st.Spacing.RowGap)
		}
		if len(rows) > 0 {
			need += rows[0].height
		}
		flow.startSection(need, float64(st.Spacing.SectionGap))
		flow.placeHeader(header)
		if colHead != nil {
			flow.placeRow(*colHead, float64(st.Spacing.RowPadding), float64(st.Spacing.RowGap))
		}

		for i, r := range rows {
			if i > 0 && !flow.fits(r.height) {
				flow.pageBreak()
				cont, err := b.header(sec.Title, si, true)
				if err != nil {
					return nil, err
				}
				flow.placeHeader(cont)
				if colHead != nil {
					flow.placeRow(*colHead, float64(st.Spacing.RowPadding), float64(st.Spacing.RowGap))
				}
			}
			flow.placeRow(r, float64(st.Spacing.RowPadding), float64(st.Spacing.RowGap))
		}
	}

	return &Plan{
		Filename: doc.Filename,
		Title:    doc.Title,
		Width:    float64(st.Canvas.Width),
		Columns:  cols,
		Pages:    collector.pages(),
	}, nil
}

type builder struct {
	st   *style.Profile
	m    metrics.Provider
	cols Columns

	code, prose, heading, colHead metrics.FontMetrics
}

// headerBlock 是一个已排好内容、尚未定位的分节标题。
type headerBlock struct {
	box   GlyphBox
	block float64 // 含上下 padding 的占用高度
}

// row 是一条命令的两个单元格，Y 为相对行顶部的偏移（定位时再加上 cursorY）。
type row struct {
	cmd, desc GlyphBox
	height    float64
}

func (b *builder) resolveFonts() error {
	var err error
	if b.code, err = b.m.Metrics(b.st.Fonts.Code); err != nil {
		return &Error{Op: "code font metrics", Err: err}
	}
	if b.prose, err = b.m.Metrics(b.st.Fonts.Prose); err != nil {
		return &Error{Op: "prose font metrics", Err: err}
	}
	if b.heading, err = b.m.Metrics(b.st.Fonts.Heading); err != nil {
		return &Error{Op: "heading font metrics", Err: err}
	}
	if b.st.ColumnHeaders {
		if b.colHead, err = b.m.Metrics(ColumnHeadFont(b.st)); err != nil {
			return &Error{Op: "column header font metrics", Err: err}
		}
	}
	return nil
}

// ColumnHeadFont 是列标题行使用的字体：说明字体的粗体。
func ColumnHeadFont(st *style.Profile) style.FontProfile {
	f := st.Fonts.Prose
	f.Weight = "bold"
	return f
}

// columns 计算命令列宽：固定值，或取全文档命令的最大宽度并按比例封顶。
func (b *builder) columns(doc *sheet.Document) (Columns, error) {
	st := b.st
	pad := float64(st.Spacing.CellPadding)
	content := st.ContentWidth()
	left := float64(st.Spacing.Margin)

	colW := float64(st.CommandColumn)
	if colW <= 0 {
		widest := 0.0
		for _, sec := range doc.Sections {
			for _, cmd := range sec.Commands {
				size, err := b.m.Measure(cmd.Command, st.Fonts.Code)
				if err != nil {
					return Columns{}, &Error{Op: "measure command", Err: err}
				}
				widest = math.Max(widest, size.Width)
			}
		}
		colW = math.Min(widest+2*pad, st.MaxCommandFraction*content)
	}
	colW = math.Max(colW, 2*pad+1)

	descX := left + colW + float64(st.Spacing.ColumnGap)
	return Columns{
		CommandX:         left + pad,
		CommandWidth:     colW - 2*pad,
		DescriptionX:     descX,
		DescriptionWidth: math.Max(left+content-descX, 0),
	}, nil
}

func (b *builder) header(title string, section int, continued bool) (headerBlock, error) {
	text := title
	if continued {
		text += b.st.ContinuationSuffix
	}
	width := b.st.ContentWidth()
	lines, err := b.m.Wrap(text, b.st.Fonts.Heading, width)
	if err != nil {
		return headerBlock{}, &Error{Op: "wrap section header", Err: err}
	}
	height := float64(len(lines)) * b.heading.LineHeight
	return headerBlock{
		box: GlyphBox{
			Kind:       KindSectionHeader,
			X:          float64(b.st.Spacing.Margin),
			Width:      width,
			Height:     height,
			Text:       text,
			Lines:      lines,
			LineHeight: b.heading.LineHeight,
			Ascent:     b.heading.Ascent,
			Align:      "center",
			Section:    section,
			Entry:      -1,
			Continued:  continued,
		},
		block: height + 2*float64(b.st.Spacing.HeaderPadding),
	}, nil
}

func (b *builder) row(cmd sheet.Command, section, entry int) (row, error) {
	cmdLines, err := b.commandLines(cmd.Command)
	if err != nil {
		return row{}, err
	}
	descLines, err := b.m.Wrap(cmd.Description, b.st.Fonts.Prose, b.cols.DescriptionWidth)
	if err != nil {
		return row{}, &Error{Op: "wrap description", Err: err}
	}

	cmdBox := GlyphBox{
		Kind:       KindCommand,
		X:          b.cols.CommandX,
		Width:      b.cols.CommandWidth,
		Height:     float64(len(cmdLines)) * b.code.LineHeight,
		Text:       cmd.Command,
		Lines:      cmdLines,
		LineHeight: b.code.LineHeight,
		Ascent:     b.code.Ascent,
		Section:    section,
		Entry:      entry,
	}
	descBox := GlyphBox{
		Kind:       KindDescription,
		X:          b.cols.DescriptionX,
		Width:      b.cols.DescriptionWidth,
		Height:     float64(len(descLines)) * b.prose.LineHeight,
		Text:       cmd.Description,
		Lines:      descLines,
		LineHeight: b.prose.LineHeight,
		Ascent:     b.prose.Ascent,
		Section:    section,
		Entry:      entry,
	}
	height := math.Max(cmdBox.Height, descBox.Height) + 2*float64(b.st.Spacing.RowPadding)
	return row{cmd: cmdBox, desc: descBox, height: height}, nil
}

// columnHead 排好 "Command / Description" 列标题行，两个单元格各自在列宽内折行。
func (b *builder) columnHead(section int) (row, error) {
	font := ColumnHeadFont(b.st)
	cell := func(text string, x, width float64) (GlyphBox, error) {
		lines, err := b.m.Wrap(text, font, width)
		if err != nil {
			return GlyphBox{}, &Error{Op: "wrap column header", Err: err}
		}
		return GlyphBox{
			Kind:       KindColumnHeader,
			X:          x,
			Width:      width,
			Height:     float64(len(lines)) * b.colHead.LineHeight,
			Text:       text,
			Lines:      lines,
			LineHeight: b.colHead.LineHeight,
			Ascent:     b.colHead.Ascent,
			Section:    section,
			Entry:      -1,
		}, nil
	}
	cmd, err := cell(b.st.CommandHeading, b.cols.CommandX, b.cols.CommandWidth)
	if err != nil {
		return row{}, err
	}
	desc, err := cell(b.st.DescriptionHeading, b.cols.DescriptionX, b.cols.DescriptionWidth)
	if err != nil {
		return row{}, err
	}
	height := math.Max(cmd.Height, desc.Height) + 2*float64(b.st.Spacing.RowPadding)
	return row{cmd: cmd, desc: desc, height: height}, nil
}

// commandLines 保留能放下的命令原文（包括连续空格），放不下时按词折行。
func (b *builder) commandLines(command string) ([]string, error) {
	if !strings.ContainsAny(command, "\r\n") {
		size, err := b.m.Measure(command, b.st.Fonts.Code)
		if err != nil {
			return nil, &Error{Op: "measure command", Err: err}
		}
		if size.Width <= b.cols.CommandWidth {
			return []string{command}, nil
		}
	}
	lines, err := b.m.Wrap(command, b.st.Fonts.Code, b.cols.CommandWidth)
	if err != nil {
		return nil, &Error{Op: "wrap command", Err: err}
	}
	return lines, nil
}

type pageAccumulator struct {
	boxes  []GlyphBox
	bottom float64
}

func (p *pageAccumulator) append(box GlyphBox, bottom float64) {
	p.boxes = append(p.boxes, box)
	if bottom > p.bottom {
		p.bottom = bottom
	}
}

type pageCollector struct {
	st   *style.Profile
	accs []*pageAccumulator
}

func newPageCollector(st *style.Profile) *pageCollector {
	pc := &pageCollector{st: st}
	pc.newPage()
	return pc
}

func (pc *pageCollector) newPage() *pageAccumulator {
	acc := &pageAccumulator{}
	pc.accs = append(pc.accs, acc)
	return acc
}

func (pc *pageCollector) curr() *pageAccumulator {
	if len(pc.accs) == 0 {
		return pc.newPage()
	}
	return pc.accs[len(pc.accs)-1]
}

// contentTop 内容区域顶部 = 标题栏高度 + 边距
func (pc *pageCollector) contentTop() float64 {
	return float64(pc.st.Spacing.TitleBarHeight) + float64(pc.st.Spacing.Margin)
}

// contentBottom 内容区域底部 = 页面高度 - 边距
func (pc *pageCollector) contentBottom() float64 {
	return float64(pc.st.Canvas.PageHeight) - float64(pc.st.Spacing.Margin)
}

// pages 将每页裁到实际使用的高度。正常内容不会超过 contentBottom，因此页高不超过
// PageHeight；只有放不进任何一页的超高行会把该页撑高，内容不会被裁掉。
func (pc *pageCollector) pages() []Page {
	out := make([]Page, len(pc.accs))
	margin := float64(pc.st.Spacing.Margin)
	for i, acc := range pc.accs {
		bottom := math.Max(acc.bottom, pc.contentTop())
		out[i] = Page{
			Number: i + 1,
			Width:  float64(pc.st.Canvas.Width),
			Height: bottom + margin,
			Boxes:  acc.boxes,
		}
	}
	return out
}

type flowContext struct {
	collector *pageCollector
	cursorY   float64
}

func (ctx *flowContext) acc() *pageAccumulator { return ctx.collector.curr() }

func (ctx *flowContext) empty() bool { return len(ctx.acc().boxes) == 0 }

func (ctx *flowContext) fits(height float64) bool {
	return ctx.cursorY+height <= ctx.collector.contentBottom()
}

// startSection 在非空页面上先留出分节间距；放不下 need 时换页。
// 空页面上即使放不下也直接放置，超高内容不会被丢弃。
func (ctx *flowContext) startSection(need, gap float64) {
	if ctx.empty() {
		return
	}
	if ctx.fits(gap + need) {
		ctx.cursorY += gap
		return
	}
	ctx.pageBreak()
}

func (ctx *flowContext) pageBreak() {
	ctx.collector.newPage()
	ctx.cursorY = ctx.collector.contentTop()
}

func (ctx *flowContext) placeHeader(h headerBlock) {
	pad := (h.block - h.box.Height) / 2
	box := h.box
	box.Y = ctx.cursorY + pad
	ctx.acc().append(box, ctx.cursorY+h.block)
	ctx.cursorY += h.block
}

func (ctx *flowContext) placeRow(r row, padding, gap float64) {
	top := ctx.cursorY
	cmd, desc := r.cmd, r.desc
	cmd.Y = top + padding
	desc.Y = top + padding
	ctx.acc().append(cmd, top+r.height)
	ctx.acc().append(desc, top+r.height)
	ctx.cursorY += r.height + gap
}
