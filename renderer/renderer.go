package renderer

import "github.com/ByLCY/termsheet/layout"

// Renderer 将布局结果输出为最终文件。
// Render 返回每个产物的字节数据：SVG 每页一个，PDF 整个文档一个。
type Renderer interface {
	Render(plan *layout.Plan) ([][]byte, error)
}
