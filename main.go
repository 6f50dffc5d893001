package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ByLCY/termsheet/generate"
	"github.com/ByLCY/termsheet/metrics"
	"github.com/ByLCY/termsheet/style"
	"github.com/ByLCY/termsheet/watch"
)

var (
	inputDir     string
	outputDir    string
	stylePath    string
	workers      int
	skipExisting bool
	emitPDF      bool
	debugDir     string
	metricsName  string
	verbose      bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "termsheet",
	Short: "Generate terminal-style SVG cheatsheets from YAML definitions",
	Long: `termsheet reads every *.yaml, *.yml and *.sheet definition in the input
directory and writes one SVG per page into the output directory:
<filename>.svg, or <filename>_p<N>.svg when the sheet needs several pages.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("初始化日志失败: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runGenerate,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate definitions whenever they change",
	RunE:  runWatch,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&inputDir, "in", "src/doc", "definition directory")
	flags.StringVar(&outputDir, "out", "src/svg", "output directory")
	flags.StringVar(&stylePath, "style", "", "style YAML file")
	flags.IntVar(&workers, "workers", 0, "parallel workers (default: number of CPUs)")
	flags.BoolVar(&skipExisting, "skip-existing", false, "skip definitions whose SVG already exists")
	flags.BoolVar(&emitPDF, "pdf", false, "also write <filename>.pdf")
	flags.StringVar(&debugDir, "debug-dir", "", "write <filename>.layout.json into this directory")
	flags.StringVar(&metricsName, "metrics", "canvas", "text metrics backend: canvas|fixed")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newGenerator 根据命令行参数构造生成器。
func newGenerator() (*generate.Generator, error) {
	// 未指定 --style 时 Load 使用默认配置，环境变量覆盖同样生效
	st, err := style.Load(stylePath)
	if err != nil {
		return nil, err
	}
	var provider metrics.Provider
	switch metricsName {
	case "canvas", "":
		provider = metrics.NewCanvas()
	case "fixed":
		provider = metrics.NewFixed()
	default:
		return nil, fmt.Errorf("未知度量后端 %q（可选 canvas|fixed）", metricsName)
	}
	if emitPDF && metricsName == "fixed" {
		// PDF 按内置字体绘制字形，fixed 度量排出的折行与之不一致
		return nil, fmt.Errorf("--pdf 需要 canvas 度量，不能与 --metrics fixed 同时使用")
	}
	return generate.New(generate.Options{
		Style:        st,
		Metrics:      provider,
		Workers:      workers,
		SkipExisting: skipExisting,
		PDF:          emitPDF,
		DebugDir:     debugDir,
		Logger:       logger,
	}), nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	gen, err := newGenerator()
	if err != nil {
		return err
	}
	return run(ctx, cmd, gen)
}

// run 串联加载、排版与渲染，并打印汇总。
func run(ctx context.Context, cmd *cobra.Command, gen *generate.Generator) error {
	results, err := gen.GenerateAll(ctx, inputDir, outputDir)
	if err != nil && results == nil {
		return fmt.Errorf("生成失败: %w", err)
	}
	out := cmd.OutOrStdout()
	for _, r := range results {
		fmt.Fprintln(out, formatResult(r))
	}
	summary := generate.Summarize(results)
	fmt.Fprintln(out, formatSummary(summary))
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d 个文件生成失败", summary.Failed)
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen, err := newGenerator()
	if err != nil {
		return err
	}
	// 先完整生成一次，再进入监听
	if err := run(ctx, cmd, gen); err != nil {
		logger.Warn("initial generation incomplete", zap.Error(err))
	}
	out := cmd.OutOrStdout()
	stats, err := watch.Run(ctx, inputDir, watch.Options{Filter: generate.IsDefinition, Logger: logger},
		func(ctx context.Context, path string) {
			fmt.Fprintln(out, formatResult(gen.GenerateFile(ctx, path, outputDir)))
		})
	logger.Info("watch stopped", zap.Int("events", stats.Events), zap.Int("runs", stats.Runs), zap.Int("errors", stats.Errors))
	return err
}
