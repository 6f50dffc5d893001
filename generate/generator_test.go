package generate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ByLCY/termsheet/layout"
	"github.com/ByLCY/termsheet/metrics"
	"github.com/ByLCY/termsheet/sheet"
	"github.com/ByLCY/termsheet/style"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const gitYAML = `filename: git
terminal_title: Git
sections:
  - title: Basics
    commands:
      - command: git init
        description: Create an empty repository
      - command: git status
        description: Show the working tree status
`

const dockerYAML = `filename: docker
terminal_title: "Docker <&>"
sections:
  - title: Containers
    commands:
      - command: docker ps -a
        description: List all containers
`

const brokenYAML = `terminal_title: No filename
sections: []
`

func newGenerator(opts Options) *Generator {
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewFixed()
	}
	if opts.Workers == 0 {
		opts.Workers = 2
	}
	return New(opts)
}

func writeInputs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func byFile(results []Result) map[string]Result {
	out := map[string]Result{}
	for _, r := range results {
		out[filepath.Base(r.Source)] = r
	}
	return out
}

func TestPartialFailureIsIsolated(t *testing.T) {
	in := writeInputs(t, map[string]string{"a.yaml": gitYAML, "b.yml": dockerYAML, "c.yaml": brokenYAML})
	out := t.TempDir()

	results, err := newGenerator(Options{}).GenerateAll(context.Background(), in, out)
	require.NoError(t, err)
	require.Len(t, results, 3)

	got := byFile(results)
	assert.Equal(t, StatusSucceeded, got["a.yaml"].Status)
	assert.Equal(t, StatusSucceeded, got["b.yml"].Status)
	assert.Equal(t, StatusFailed, got["c.yaml"].Status)
	assert.Equal(t, KindSchema, Kind(got["c.yaml"].Err))

	assert.ElementsMatch(t, []string{"docker.svg", "git.svg"}, listDir(t, out))
	assert.Equal(t, Summary{Processed: 2, Failed: 1, Total: 3}, Summarize(results))
}

func TestResultsFollowSortedInputOrder(t *testing.T) {
	in := writeInputs(t, map[string]string{"b.yaml": dockerYAML, "a.yaml": gitYAML, "notes.txt": "ignored", ".hidden.yaml": gitYAML})
	results, err := newGenerator(Options{}).GenerateAll(context.Background(), in, t.TempDir())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a.yaml", filepath.Base(results[0].Source))
	assert.Equal(t, "b.yaml", filepath.Base(results[1].Source))
}

func TestParseErrorKind(t *testing.T) {
	in := writeInputs(t, map[string]string{"bad.yaml": "filename: [unclosed\n"})
	results, err := newGenerator(Options{}).GenerateAll(context.Background(), in, t.TempDir())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.Equal(t, KindParse, Kind(results[0].Err))
}

func TestDuplicateFilenameFailsLaterFile(t *testing.T) {
	in := writeInputs(t, map[string]string{"a.yaml": gitYAML, "b.yaml": gitYAML})
	results, err := newGenerator(Options{}).GenerateAll(context.Background(), in, t.TempDir())
	require.NoError(t, err)

	got := byFile(results)
	assert.Equal(t, StatusSucceeded, got["a.yaml"].Status)
	assert.Equal(t, StatusFailed, got["b.yaml"].Status)
	var se *sheet.SchemaError
	require.True(t, errors.As(got["b.yaml"].Err, &se))
	assert.Equal(t, "filename", se.Field)
}

func TestOutputIsByteIdenticalAcrossRuns(t *testing.T) {
	in := writeInputs(t, map[string]string{"a.yaml": gitYAML, "b.yaml": dockerYAML})
	outA, outB := t.TempDir(), t.TempDir()
	_, err := newGenerator(Options{}).GenerateAll(context.Background(), in, outA)
	require.NoError(t, err)
	_, err = newGenerator(Options{Workers: 1}).GenerateAll(context.Background(), in, outB)
	require.NoError(t, err)

	for _, name := range []string{"git.svg", "docker.svg"} {
		a, err := os.ReadFile(filepath.Join(outA, name))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(outB, name))
		require.NoError(t, err)
		assert.Equal(t, a, b, name)
	}
}

func longYAML(rows int) string {
	return sheetYAML("long", rows)
}

func sheetYAML(filename string, rows int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "filename: %s\nsections:\n  - title: Many\n    commands:\n", filename)
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&sb, "      - command: cmd-%d\n        description: entry %d\n", i, i)
	}
	return sb.String()
}

func TestPaginatedOutputAndStaleCleanup(t *testing.T) {
	st := style.Default()
	st.Canvas.PageHeight = 300
	in := writeInputs(t, map[string]string{"long.yaml": longYAML(30)})
	out := t.TempDir()
	// 其它文档的文件名恰好形如分页文件，不能被清理
	require.NoError(t, os.WriteFile(filepath.Join(in, "other.yaml"), []byte("filename: long_p99\nsections: []\n"), 0o644))

	g := newGenerator(Options{Style: st})
	results, err := g.GenerateAll(context.Background(), in, out)
	require.NoError(t, err)
	long := byFile(results)["long.yaml"]
	require.Equal(t, StatusSucceeded, long.Status)
	require.Greater(t, long.Pages, 1)
	for i := 1; i <= long.Pages; i++ {
		assert.FileExists(t, filepath.Join(out, fmt.Sprintf("long_p%d.svg", i)))
	}
	assert.NoFileExists(t, filepath.Join(out, "long.svg"))

	require.NoError(t, os.WriteFile(filepath.Join(in, "long.yaml"), []byte(longYAML(1)), 0o644))
	results, err = g.GenerateAll(context.Background(), in, out)
	require.NoError(t, err)
	require.Equal(t, 1, byFile(results)["long.yaml"].Pages)
	assert.ElementsMatch(t, []string{"long.svg", "long_p99.svg"}, listDir(t, out))
}

func shortPages() *style.Profile {
	st := style.Default()
	st.Canvas.PageHeight = 300
	return st
}

func TestPageFileCollisionFailsLaterFile(t *testing.T) {
	// git 分页后会写 git_p2.svg，与另一个 filename 为 git_p2 的文档冲突
	in := writeInputs(t, map[string]string{"a.yaml": sheetYAML("git", 30), "b.yaml": sheetYAML("git_p2", 1)})
	out := t.TempDir()

	results, err := newGenerator(Options{Style: shortPages()}).GenerateAll(context.Background(), in, out)
	require.NoError(t, err)
	got := byFile(results)
	require.Equal(t, StatusSucceeded, got["a.yaml"].Status, "%v", got["a.yaml"].Err)
	require.Greater(t, got["a.yaml"].Pages, 1)
	assert.Equal(t, StatusFailed, got["b.yaml"].Status)
	var se *sheet.SchemaError
	require.ErrorAs(t, got["b.yaml"].Err, &se)
	assert.Equal(t, "filename", se.Field)
	assert.Contains(t, se.Reason, "git_p2.svg")

	owner, ok := artifactOwner(filepath.Join(out, "git_p2.svg"))
	require.True(t, ok)
	assert.Equal(t, "git", owner)
	assert.NotContains(t, listDir(t, out), "git.svg")
}

func TestGenerateFileLeavesOtherSheetsPages(t *testing.T) {
	in := writeInputs(t, map[string]string{"a.yaml": gitYAML, "b.yaml": sheetYAML("git_p2", 1)})
	out := t.TempDir()
	g := newGenerator(Options{Style: shortPages()})

	results, err := g.GenerateAll(context.Background(), in, out)
	require.NoError(t, err)
	for _, r := range results {
		require.Equal(t, StatusSucceeded, r.Status, "%v", r.Err)
	}
	before, err := os.ReadFile(filepath.Join(out, "git_p2.svg"))
	require.NoError(t, err)

	// 单独重新生成 git 时，清理旧分页不能删掉 git_p2 自己的输出
	res := g.GenerateFile(context.Background(), filepath.Join(in, "a.yaml"), out)
	require.Equal(t, StatusSucceeded, res.Status, "%v", res.Err)
	assert.ElementsMatch(t, []string{"git.svg", "git_p2.svg"}, listDir(t, out))

	// git 变长后要写 git_p2.svg，该文件属于另一个文档，必须失败而不是覆盖
	require.NoError(t, os.WriteFile(filepath.Join(in, "a.yaml"), []byte(sheetYAML("git", 30)), 0o644))
	res = g.GenerateFile(context.Background(), filepath.Join(in, "a.yaml"), out)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, KindSchema, Kind(res.Err))
	after, err := os.ReadFile(filepath.Join(out, "git_p2.svg"))
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.ElementsMatch(t, []string{"git.svg", "git_p2.svg"}, listDir(t, out))
}

func TestStaleCleanupSkipsFilesWithoutOwner(t *testing.T) {
	in := writeInputs(t, map[string]string{"a.yaml": gitYAML})
	out := t.TempDir()
	foreign := filepath.Join(out, "git_p3.svg")
	require.NoError(t, os.WriteFile(foreign, []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`), 0o644))

	results, err := newGenerator(Options{}).GenerateAll(context.Background(), in, out)
	require.NoError(t, err)
	require.Equal(t, StatusSucceeded, results[0].Status)
	assert.FileExists(t, foreign)
}

func TestPDFWithFixedMetricsWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	newGenerator(Options{PDF: true, Logger: zap.New(core)})
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "metrics")

	core, logs = observer.New(zap.WarnLevel)
	newGenerator(Options{PDF: true, Metrics: metrics.NewCanvas(), Logger: zap.New(core)})
	assert.Zero(t, logs.Len())
}

func TestSkipExisting(t *testing.T) {
	in := writeInputs(t, map[string]string{"a.yaml": gitYAML})
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "git.svg"), []byte("old"), 0o644))

	results, err := newGenerator(Options{SkipExisting: true}).GenerateAll(context.Background(), in, out)
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, results[0].Status)
	data, err := os.ReadFile(filepath.Join(out, "git.svg"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
	assert.Equal(t, Summary{Skipped: 1, Total: 1}, Summarize(results))
}

func TestPDFAndDebugArtifacts(t *testing.T) {
	in := writeInputs(t, map[string]string{"a.yaml": gitYAML})
	out, debug := t.TempDir(), filepath.Join(t.TempDir(), "debug")

	results, err := newGenerator(Options{Metrics: metrics.NewCanvas(), PDF: true, DebugDir: debug}).
		GenerateAll(context.Background(), in, out)
	require.NoError(t, err)
	require.Equal(t, StatusSucceeded, results[0].Status, "%v", results[0].Err)
	assert.FileExists(t, filepath.Join(out, "git.pdf"))
	assert.FileExists(t, filepath.Join(debug, "git.layout.json"))
	assert.Len(t, results[0].Artifacts, 3)
}

func TestSheetDSLInput(t *testing.T) {
	in := writeInputs(t, map[string]string{"tmux.sheet": `sheet tmux "Tmux" { section "Panes" { "C-b %" : "split vertically" } }`})
	out := t.TempDir()
	results, err := newGenerator(Options{}).GenerateAll(context.Background(), in, out)
	require.NoError(t, err)
	require.Equal(t, StatusSucceeded, results[0].Status, "%v", results[0].Err)
	assert.FileExists(t, filepath.Join(out, "tmux.svg"))
}

func TestFatalSetupErrors(t *testing.T) {
	g := newGenerator(Options{})
	_, err := g.GenerateAll(context.Background(), filepath.Join(t.TempDir(), "missing"), t.TempDir())
	require.Error(t, err)

	in := writeInputs(t, map[string]string{"a.yaml": gitYAML})
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	results, err := g.GenerateAll(context.Background(), in, filepath.Join(blocker, "out"))
	require.Error(t, err)
	assert.Nil(t, results)
}

func TestCancelledContextSchedulesNothing(t *testing.T) {
	in := writeInputs(t, map[string]string{"a.yaml": gitYAML, "b.yaml": dockerYAML})
	out := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := newGenerator(Options{}).GenerateAll(ctx, in, out)
	require.ErrorIs(t, err, context.Canceled)
	for _, r := range results {
		assert.Equal(t, StatusFailed, r.Status)
	}
	assert.Empty(t, listDir(t, out))
}

func TestGenerateFile(t *testing.T) {
	in := writeInputs(t, map[string]string{"a.yaml": gitYAML})
	out := t.TempDir()
	res := newGenerator(Options{}).GenerateFile(context.Background(), filepath.Join(in, "a.yaml"), out)
	require.Equal(t, StatusSucceeded, res.Status)
	assert.Equal(t, "git", res.Filename)
	assert.Equal(t, []string{filepath.Join(out, "git.svg")}, res.Artifacts)
}

func TestKind(t *testing.T) {
	cases := map[string]error{
		KindParse:   &sheet.ParseError{Msg: "x"},
		KindSchema:  fmt.Errorf("wrapped: %w", &sheet.SchemaError{Reason: "x"}),
		KindLayout:  &layout.Error{Op: "measure", Err: errors.New("x")},
		KindWrite:   &WriteError{Path: "p", Err: errors.New("x")},
		KindOther:   errors.New("x"),
		KindNoError: nil,
	}
	for want, err := range cases {
		assert.Equal(t, want, Kind(err))
	}
}

func TestWriteAtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.svg")
	require.NoError(t, writeAtomic(path, []byte("one")))
	require.NoError(t, writeAtomic(path, []byte("two")))
	assert.Equal(t, []string{"x.svg"}, listDir(t, dir))

	err := writeAtomic(filepath.Join(dir, "missing", "y.svg"), []byte("x"))
	var we *WriteError
	require.ErrorAs(t, err, &we)
}
