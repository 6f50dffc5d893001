// Package generate drives the batch pipeline: load every definition in a
// directory, lay it out, emit SVG pages (and optionally PDF / debug JSON) and
// report one Result per input file.
package generate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ByLCY/termsheet/dsl"
	"github.com/ByLCY/termsheet/layout"
	"github.com/ByLCY/termsheet/metrics"
	canvasrenderer "github.com/ByLCY/termsheet/renderer/canvas"
	svgrenderer "github.com/ByLCY/termsheet/renderer/svg"
	"github.com/ByLCY/termsheet/sheet"
	"github.com/ByLCY/termsheet/style"
)

// Status of one processed definition.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Result describes what happened to one input file.
type Result struct {
	Source    string
	Filename  string
	Status    Status
	Err       error
	Pages     int
	Artifacts []string
	Duration  time.Duration
}

// Options configures a Generator.
type Options struct {
	Style        *style.Profile
	Metrics      metrics.Provider
	Workers      int
	SkipExisting bool
	PDF          bool
	DebugDir     string
	Logger       *zap.Logger
}

// Generator runs the pipeline. It is safe for concurrent use.
type Generator struct {
	st      *style.Profile
	metrics metrics.Provider
	svg     *svgrenderer.Renderer
	pdf     *canvasrenderer.Renderer
	workers int
	opts    Options
	log     *zap.Logger
}

// New creates a Generator, filling defaults for unset options.
func New(opts Options) *Generator {
	st := opts.Style
	if st == nil {
		st = style.Default()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.NewCanvas()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	g := &Generator{
		st:      st,
		metrics: m,
		svg:     svgrenderer.New(st),
		workers: workers,
		opts:    opts,
		log:     log,
	}
	if opts.PDF {
		provider, ok := m.(*metrics.CanvasProvider)
		if !ok {
			log.Warn("pdf glyphs come from the embedded fonts but layout uses a different metrics backend; text may not fit its columns",
				zap.String("metrics", fmt.Sprintf("%T", m)))
		}
		g.pdf = canvasrenderer.New(provider, st)
	}
	return g
}

// prepared 是已加载并排版的定义（或其失败原因）。
type prepared struct {
	path string
	doc  *sheet.Document
	plan *layout.Plan
	err  error
}

// GenerateAll processes every definition in inputDir. The returned error is
// non-nil only for problems that affect the whole run (unreadable input
// directory, unwritable output directory, cancellation); per-file problems are
// reported in the results.
func (g *Generator) GenerateAll(ctx context.Context, inputDir, outputDir string) ([]Result, error) {
	paths, err := listInputs(inputDir)
	if err != nil {
		return nil, err
	}
	if err := g.preflight(outputDir); err != nil {
		return nil, err
	}
	g.log.Debug("found definitions", zap.String("dir", inputDir), zap.Int("count", len(paths)))

	// 第一阶段：并发加载并排版全部定义，排版后才知道每个文档要写哪些页面文件
	items := make([]prepared, len(paths))
	lg, lctx := errgroup.WithContext(ctx)
	lg.SetLimit(g.workers)
	for i, p := range paths {
		if err := lctx.Err(); err != nil {
			items[i] = prepared{path: p, err: err}
			continue
		}
		lg.Go(func() error {
			items[i] = g.prepare(p)
			return nil
		})
	}
	_ = lg.Wait()

	// 第二阶段：filename 或输出文件名冲突时，排序靠后的文件失败
	owners := map[string]string{}    // filename -> source
	artifacts := map[string]string{} // page file -> filename
	for i := range items {
		it := &items[i]
		if it.err != nil {
			continue
		}
		if first, ok := owners[it.doc.Filename]; ok {
			it.err = &sheet.SchemaError{
				Field:  "filename",
				Reason: fmt.Sprintf("%q 已由 %s 使用", it.doc.Filename, filepath.Base(first)),
			}
			continue
		}
		names := pageNames(it.doc.Filename, it.plan.PageCount())
		if name, other, clash := claimed(names, artifacts, it.doc.Filename); clash {
			it.err = &sheet.SchemaError{
				Field:  "filename",
				Reason: fmt.Sprintf("输出文件 %s 已属于 %q", name, other),
			}
			continue
		}
		owners[it.doc.Filename] = it.path
		for _, name := range names {
			artifacts[name] = it.doc.Filename
		}
	}

	// 第三阶段：并发渲染与写出
	results := make([]Result, len(paths))
	wg, wctx := errgroup.WithContext(ctx)
	wg.SetLimit(g.workers)
	for i := range items {
		it := items[i]
		if wctx.Err() != nil {
			results[i] = Result{Source: it.path, Status: StatusFailed, Err: wctx.Err()}
			continue
		}
		wg.Go(func() error {
			results[i] = g.finish(it, outputDir)
			return nil
		})
	}
	_ = wg.Wait()
	return results, ctx.Err()
}

// GenerateFile processes a single definition, as used by watch mode. Page
// files already on disk that belong to another sheet are never overwritten
// or removed.
func (g *Generator) GenerateFile(ctx context.Context, path, outputDir string) Result {
	if err := ctx.Err(); err != nil {
		return Result{Source: path, Status: StatusFailed, Err: err}
	}
	if err := g.preflight(outputDir); err != nil {
		return Result{Source: path, Status: StatusFailed, Err: &WriteError{Path: outputDir, Err: err}}
	}
	it := g.prepare(path)
	if it.err == nil {
		for _, name := range pageNames(it.doc.Filename, it.plan.PageCount()) {
			if owner, ok := artifactOwner(filepath.Join(outputDir, name)); ok && owner != it.doc.Filename {
				it.err = &sheet.SchemaError{
					Field:  "filename",
					Reason: fmt.Sprintf("输出文件 %s 已属于 %q", name, owner),
				}
				break
			}
		}
	}
	return g.finish(it, outputDir)
}

// claimed 检查 names 中是否有文件已被其它 filename 占用。
func claimed(names []string, artifacts map[string]string, filename string) (string, string, bool) {
	for _, name := range names {
		if other, ok := artifacts[name]; ok && other != filename {
			return name, other, true
		}
	}
	return "", "", false
}

func (g *Generator) preflight(outputDir string) error {
	if err := probeDir(outputDir); err != nil {
		return err
	}
	if g.opts.DebugDir != "" {
		if err := probeDir(g.opts.DebugDir); err != nil {
			return err
		}
	}
	return nil
}

// prepare 加载并排版一个定义；排版是纯计算，可以与其它文件并行。
func (g *Generator) prepare(path string) prepared {
	it := prepared{path: path}
	if it.doc, it.err = loadFile(path); it.err != nil {
		return it
	}
	it.plan, it.err = layout.Build(it.doc, g.st, layout.BuildOptions{Metrics: g.metrics})
	return it
}

func (g *Generator) finish(it prepared, outputDir string) Result {
	start := time.Now()
	res := Result{Source: it.path}
	if it.doc != nil {
		res.Filename = it.doc.Filename
	}
	log := g.log.With(zap.String("file", it.path), zap.String("filename", res.Filename))

	switch {
	case it.err != nil:
		res.Status, res.Err = StatusFailed, it.err
	case g.opts.SkipExisting && g.alreadyGenerated(outputDir, it.doc.Filename):
		res.Status = StatusSkipped
	default:
		res.Pages = it.plan.PageCount()
		res.Artifacts, res.Err = g.emit(it.doc, it.plan, outputDir)
		res.Status = StatusSucceeded
		if res.Err != nil {
			res.Status = StatusFailed
		}
	}
	res.Duration = time.Since(start)

	switch res.Status {
	case StatusFailed:
		log.Warn("generation failed", zap.String("kind", Kind(res.Err)), zap.Error(res.Err))
	case StatusSkipped:
		log.Info("skipped existing", zap.String("status", string(res.Status)))
	default:
		log.Info("generated",
			zap.Int("entries", it.doc.EntryCount()),
			zap.Int("pages", res.Pages),
			zap.Duration("took", res.Duration))
	}
	return res
}

func (g *Generator) alreadyGenerated(outputDir, filename string) bool {
	for _, p := range primaryArtifacts(outputDir, filename) {
		if exists(p) {
			return true
		}
	}
	return false
}

// emit 渲染并写出一个文档的全部产物。
func (g *Generator) emit(doc *sheet.Document, plan *layout.Plan, outputDir string) ([]string, error) {
	pages, err := g.svg.Render(plan)
	if err != nil {
		return nil, &layout.Error{Op: "render svg", Err: err}
	}

	names := pageNames(doc.Filename, len(pages))
	var artifacts []string
	for i, data := range pages {
		path := filepath.Join(outputDir, names[i])
		if err := writeAtomic(path, data); err != nil {
			return artifacts, err
		}
		artifacts = append(artifacts, path)
	}
	if err := removeStale(outputDir, doc.Filename, names); err != nil {
		return artifacts, err
	}

	if g.pdf != nil {
		out, err := g.pdf.Render(plan)
		if err != nil {
			return artifacts, &layout.Error{Op: "render pdf", Err: err}
		}
		path := filepath.Join(outputDir, doc.Filename+".pdf")
		if err := writeAtomic(path, out[0]); err != nil {
			return artifacts, err
		}
		artifacts = append(artifacts, path)
	}

	if g.opts.DebugDir != "" {
		data, err := layout.MarshalDebugJSON(plan)
		if err != nil {
			return artifacts, &layout.Error{Op: "debug json", Err: err}
		}
		path := filepath.Join(g.opts.DebugDir, doc.Filename+".layout.json")
		if err := writeAtomic(path, data); err != nil {
			return artifacts, err
		}
		artifacts = append(artifacts, path)
	}
	return artifacts, nil
}

// loadFile 根据后缀选择 YAML 或 .sheet DSL 解析。
func loadFile(path string) (*sheet.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &sheet.ParseError{Msg: "无法读取文件", Err: err}
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".sheet") {
		return dsl.Parse(f)
	}
	return sheet.LoadReader(f)
}

// Summary counts results by status.
type Summary struct {
	Processed int
	Skipped   int
	Failed    int
	Total     int
}

// Summarize counts results by status.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusSucceeded:
			s.Processed++
		case StatusSkipped:
			s.Skipped++
		default:
			s.Failed++
		}
	}
	return s
}
