package layout

// 该文件定义布局结果，供渲染器与调试 JSON 共用。所有坐标为文档单位（px），原点在左上角。

// BoxKind 标识 GlyphBox 的种类。
type BoxKind string

const (
	KindSectionHeader BoxKind = "section-header"
	KindColumnHeader  BoxKind = "column-header"
	KindCommand       BoxKind = "command"
	KindDescription   BoxKind = "description"
)

// Plan 是一个文档的完整布局结果。
type Plan struct {
	Filename string  `json:"filename"`
	Title    string  `json:"title"`
	Width    float64 `json:"width"`
	Columns  Columns `json:"columns"`
	Pages    []Page  `json:"pages"`
}

// Columns 记录全局一致的两列几何（所有页面共用）。
type Columns struct {
	CommandX         float64 `json:"commandX"`
	CommandWidth     float64 `json:"commandWidth"`
	DescriptionX     float64 `json:"descriptionX"`
	DescriptionWidth float64 `json:"descriptionWidth"`
}

// Page 是一页可直接渲染的元素集合。
type Page struct {
	Number int        `json:"number"` // 从 1 开始
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Boxes  []GlyphBox `json:"boxes"`
}

// GlyphBox 是已经定位的文本单元。Lines 为折行结果，
// 第 i 行基线位于 Y + i*LineHeight + Ascent。
type GlyphBox struct {
	Kind       BoxKind  `json:"kind"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Width      float64  `json:"width"`
	Height     float64  `json:"height"`
	Text       string   `json:"text"`
	Lines      []string `json:"lines"`
	LineHeight float64  `json:"lineHeight"`
	Ascent     float64  `json:"ascent"`
	Align      string   `json:"align,omitempty"` // left（默认）/center
	Section    int      `json:"section"`
	Entry      int      `json:"entry"`               // 文档内命令序号；标题与列标题为 -1
	Continued  bool     `json:"continued,omitempty"` // 跨页重复的分节标题
}

// Bottom returns the y coordinate below the box.
func (b GlyphBox) Bottom() float64 { return b.Y + b.Height }

// PageCount returns the number of pages in the plan.
func (p *Plan) PageCount() int { return len(p.Pages) }

// Boxes returns every box of the given kind across all pages, in page order.
func (p *Plan) Boxes(kind BoxKind) []GlyphBox {
	var out []GlyphBox
	for _, pg := range p.Pages {
		for _, b := range pg.Boxes {
			if b.Kind == kind {
				out = append(out, b)
			}
		}
	}
	return out
}
