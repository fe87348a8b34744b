package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/ByLCY/trialreport/layout"
	"github.com/ByLCY/trialreport/logger"
	"github.com/ByLCY/trialreport/model"
	"github.com/ByLCY/trialreport/renderer"
	canvasrenderer "github.com/ByLCY/trialreport/renderer/canvas"
	"github.com/ByLCY/trialreport/report"
	"github.com/ByLCY/trialreport/theme"
)

// 环境变量覆盖配置文件中的同名设置。
const (
	envLogLevel  = "TRIALREPORT_LOG_LEVEL"
	envAssetsDir = "TRIALREPORT_ASSETS_DIR"
	envFetch     = "TRIALREPORT_FETCH_REMOTE"
)

type options struct {
	input      string
	output     string
	configPath string
	themePath  string
	debugPath  string
	rawUnits   bool
	assetsDir  string
	fetch      bool
}

func main() {
	input := flag.String("in", "examples/trial.json", "试验数据 JSON 路径")
	output := flag.String("out", "output/report.pdf", "PDF 输出路径")
	configPath := flag.String("config", "", "报告配置 YAML（为空时使用默认配置）")
	themePath := flag.String("theme", "", "主题 YAML（为空时使用默认主题）")
	debug := flag.String("debug", "", "布局调试 JSON 输出路径")
	debugRawUnits := flag.Bool("debug-raw-units", false, "在调试 JSON 中输出 debug.rawUnits 影子字段")
	envFile := flag.String("env", "", "可选的 .env 文件")
	verbose := flag.Bool("v", false, "输出详细日志")
	flag.Parse()

	l := logger.Default()
	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			l.Error("加载 %s 失败: %v", *envFile, err)
			os.Exit(1)
		}
	} else {
		// 当前目录下的 .env 可选
		_ = godotenv.Load()
	}
	if lv := os.Getenv(envLogLevel); lv != "" {
		level, err := logger.ParseLevel(lv)
		if err != nil {
			l.Warn("%s: %v", envLogLevel, err)
		}
		l.SetLevel(level)
	}
	if *verbose {
		l.SetLevel(logger.LevelVerbose)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := options{
		input:      *input,
		output:     *output,
		configPath: *configPath,
		themePath:  *themePath,
		debugPath:  *debug,
		rawUnits:   *debugRawUnits,
		assetsDir:  os.Getenv(envAssetsDir),
		fetch:      os.Getenv(envFetch) == "1" || os.Getenv(envFetch) == "true",
	}
	if err := run(ctx, opts, l); err != nil {
		l.Error("生成 PDF 失败: %v", err)
		os.Exit(1)
	}
	fmt.Printf("已生成 PDF：%s\n", opts.output)
}

// run 串联解析、组装、布局与渲染。
func run(ctx context.Context, opts options, l *logger.Logger) error {
	cfg := report.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = report.LoadConfig(opts.configPath); err != nil {
			return err
		}
	}
	if opts.assetsDir != "" {
		cfg.Assets.BaseDir = opts.assetsDir
	}
	if cfg.Assets.BaseDir == "" {
		cfg.Assets.BaseDir = filepath.Dir(opts.input)
	}

	th := theme.Default()
	if opts.themePath != "" {
		var err error
		if th, err = theme.Load(opts.themePath); err != nil {
			return err
		}
	}

	file, err := os.Open(opts.input)
	if err != nil {
		return fmt.Errorf("无法打开数据文件 %s: %w", opts.input, err)
	}
	defer file.Close()

	in, err := model.Decode(file,
		model.WithIDPattern(cfg.Assets.IDPattern),
		model.WithResolver(ctx, model.DirResolver{BaseDir: cfg.Assets.BaseDir}),
	)
	if err != nil {
		return fmt.Errorf("解析试验数据失败: %w", err)
	}

	out := report.Assemble(ctx, in, cfg, th, report.WithLogger(l))
	for _, is := range out.Issues {
		l.Debug("[%s] %s: %s", is.Kind, is.Section, is.Detail)
	}
	if n := len(out.Issues); n > 0 {
		l.Info("报告包含 %d 条数据问题（-v 查看明细）", n)
	}

	ropts := canvasrenderer.Options{BaseDir: cfg.Assets.BaseDir}
	if opts.fetch {
		ropts.HTTPClient = &http.Client{Timeout: 20 * time.Second}
	}
	cr := canvasrenderer.NewRendererWithOptions(ropts)

	result, err := layout.Build(out, cfg, th, layout.BuildOptions{
		Typesetter: cr,
		Debug:      layout.DebugOptions{RawUnits: opts.rawUnits},
	})
	if err != nil {
		return fmt.Errorf("布局计算失败: %w", err)
	}
	l.Debug("%d 个逻辑页排版为 %d 个物理页", len(out.Pages), len(result.Pages))

	if opts.debugPath != "" {
		if err := writeDebug(result, opts.debugPath); err != nil {
			return err
		}
	}

	if err := render(cr, result, opts.output); err != nil {
		return err
	}
	for _, m := range cr.MissingImages() {
		l.Warn("图片以占位框代替: %s", m)
	}
	return nil
}

func render(r renderer.Renderer, result *layout.Result, outputPath string) error {
	if r == nil {
		return fmt.Errorf("renderer 不能为空")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	pdfBytes, err := r.Render(result)
	if err != nil {
		return fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	if err := os.WriteFile(outputPath, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	return nil
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
