package layout

import (
	"fmt"

	"github.com/ByLCY/termsheet/metrics"
)

// BuildOptions 配置布局阶段所需的依赖，例如度量后端。
type BuildOptions struct {
	Metrics metrics.Provider
}

// Error 表示度量子系统故障导致的布局失败。内容过长从不报错，由分页处理。
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("layout: %s: %v", e.Op, e.Err) }

func (e *Error) Unwrap() error { return e.Err }
