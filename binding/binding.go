// Package binding 负责标题栏与页码标签中的 ${name} 占位符替换。
package binding

import (
	"regexp"
	"strconv"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]*)\}`)

// Vars 是可供模板引用的变量集合。
type Vars map[string]string

// PageVars 构造单页渲染时可用的变量：title、filename、page、pages。
func PageVars(title, filename string, page, pages int) Vars {
	return Vars{
		"title":    title,
		"filename": filename,
		"page":     strconv.Itoa(page),
		"pages":    strconv.Itoa(pages),
	}
}

// Known reports whether name is one of the variables PageVars provides.
func Known(name string) bool {
	switch name {
	case "title", "filename", "page", "pages":
		return true
	}
	return false
}

// Interpolate 将文本中的 ${name} 替换为 vars 中的值。
// 支持 ${name|fallback}：变量缺失或为空时使用 fallback。
// 未知变量且没有 fallback 时保留原占位符。
func Interpolate(text string, vars Vars) string {
	if !strings.Contains(text, "${") {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		name, fallback, hasFallback := strings.Cut(groups[1], "|")
		name = strings.TrimSpace(name)
		if val, ok := vars[name]; ok && (val != "" || !hasFallback) {
			return val
		}
		if hasFallback {
			return fallback
		}
		return match
	})
}

// Names 返回模板中引用的变量名（按出现顺序，去重）。
func Names(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, groups := range exprPattern.FindAllStringSubmatch(text, -1) {
		name, _, _ := strings.Cut(groups[1], "|")
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
