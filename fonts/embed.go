package fonts

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
)

// 内置字体来自 Go 字体家族，编译进二进制，保证度量与宿主机字体无关。
var builtin = map[string][]byte{
	"go-regular":   goregular.TTF,
	"go-bold":      gobold.TTF,
	"gomono":       gomono.TTF,
	"gomono-bold":  gomonobold.TTF,
	"go-mono":      gomono.TTF,
	"go-mono-bold": gomonobold.TTF,
}

// Names 返回可通过 "embed:<name>" 引用的内置字体名（已排序）。
func Names() []string {
	out := make([]string, 0, len(builtin))
	for name := range builtin {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Load 返回字体的字节数据。src 可写为 "embed:gomono" 形式的内置字体，或文件路径。
func Load(src string) ([]byte, error) {
	if strings.HasPrefix(src, "embed:") {
		name := strings.ToLower(strings.TrimPrefix(src, "embed:"))
		data, ok := builtin[name]
		if !ok {
			return nil, fmt.Errorf("内置字体 %s 不存在，可用: %s", name, strings.Join(Names(), ", "))
		}
		return data, nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("读取字体文件 %s 失败: %w", src, err)
	}
	return data, nil
}

// Resolve 根据字体族名与字重选择内置字体。
// 族名包含 "mono" 时使用等宽字体，其它一律使用 Go 比例字体。
func Resolve(family, weight string) ([]byte, error) {
	key := "go"
	if strings.Contains(strings.ToLower(family), "mono") {
		key = "gomono"
	}
	bold := strings.EqualFold(strings.TrimSpace(weight), "bold")
	switch {
	case key == "gomono" && bold:
		return builtin["gomono-bold"], nil
	case key == "gomono":
		return builtin["gomono"], nil
	case bold:
		return builtin["go-bold"], nil
	default:
		return builtin["go-regular"], nil
	}
}
