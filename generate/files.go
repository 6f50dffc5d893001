package generate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	svgrenderer "github.com/ByLCY/termsheet/renderer/svg"
)

// inputExts 列出可识别的定义文件后缀。
var inputExts = map[string]bool{".yaml": true, ".yml": true, ".sheet": true}

// listInputs 返回目录下（非递归）按名称排序的定义文件。
func listInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("读取输入目录 %s 失败: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if inputExts[strings.ToLower(filepath.Ext(name))] {
			out = append(out, filepath.Join(dir, name))
		}
	}
	sort.Strings(out)
	return out, nil
}

// IsDefinition reports whether path looks like a definition file by extension.
func IsDefinition(path string) bool {
	base := filepath.Base(path)
	return !strings.HasPrefix(base, ".") && inputExts[strings.ToLower(filepath.Ext(base))]
}

// pageNames 返回 n 页的 SVG 文件名：单页为 <filename>.svg，多页为 <filename>_p<N>.svg。
func pageNames(filename string, n int) []string {
	if n == 1 {
		return []string{filename + ".svg"}
	}
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s_p%d.svg", filename, i+1)
	}
	return out
}

// primaryArtifacts 是判断“已生成”时检查的文件。
func primaryArtifacts(dir, filename string) []string {
	return []string{
		filepath.Join(dir, filename+".svg"),
		filepath.Join(dir, filename+"_p1.svg"),
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// removeStale 删除同一 filename 旧的页面文件。只删除根元素记录的归属正是 filename 的文件，
// 其它文档或外来的 SVG 保持不动。
func removeStale(dir, filename string, keep []string) error {
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(filename) + `(_p[0-9]+)?\.svg$`)
	kept := map[string]bool{}
	for _, k := range keep {
		kept[k] = true
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return &WriteError{Path: dir, Err: err}
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || kept[name] || !pattern.MatchString(name) {
			continue
		}
		path := filepath.Join(dir, name)
		if owner, ok := artifactOwner(path); !ok || owner != filename {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return &WriteError{Path: path, Err: err}
		}
	}
	return nil
}

// artifactOwner 返回已有 SVG 记录的所属 filename。
func artifactOwner(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()
	return svgrenderer.Owner(io.LimitReader(f, ownerPeekBytes))
}

// ownerPeekBytes 足以覆盖 XML 声明与根元素。
const ownerPeekBytes = 4096

// writeAtomic 先写临时文件再 rename，失败时清理临时文件。
func writeAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	tmp := f.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmp)
		}
	}()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return &WriteError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	committed = true
	return nil
}

// probeDir 确认目录存在且可写。
func probeDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建输出目录 %s 失败: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, ".termsheet-probe-*")
	if err != nil {
		return fmt.Errorf("输出目录 %s 不可写: %w", dir, err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
