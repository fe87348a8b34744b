package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ByLCY/trialreport/layout"
	"github.com/ByLCY/trialreport/logger"
)

func TestRunExamplePayload(t *testing.T) {
	dir := t.TempDir()
	opts := options{
		input:      filepath.Join("examples", "trial.json"),
		output:     filepath.Join(dir, "out", "report.pdf"),
		configPath: filepath.Join("examples", "report.yaml"),
		debugPath:  filepath.Join(dir, "debug", "layout.json"),
	}
	if err := run(context.Background(), opts, logger.New(logger.LevelOff, io.Discard)); err != nil {
		t.Fatalf("run error: %v", err)
	}

	pdf, err := os.ReadFile(opts.output)
	if err != nil {
		t.Fatalf("读取 PDF 失败: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("输出不是 PDF")
	}

	raw, err := os.ReadFile(opts.debugPath)
	if err != nil {
		t.Fatalf("读取调试 JSON 失败: %v", err)
	}
	var res layout.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		t.Fatalf("调试 JSON 无法解析: %v", err)
	}
	// curves 章节无照片时不输出，其余六个章节各至少一页
	if len(res.Pages) < 6 {
		t.Fatalf("expected at least 6 pages, got %d", len(res.Pages))
	}
	if res.Meta.Title != "Trial Report HT-0042 - ACME Gears" {
		t.Fatalf("标题插值错误: %q", res.Meta.Title)
	}
}

func TestRunMissingInput(t *testing.T) {
	opts := options{input: filepath.Join(t.TempDir(), "nope.json"), output: filepath.Join(t.TempDir(), "x.pdf")}
	if err := run(context.Background(), opts, logger.New(logger.LevelOff, io.Discard)); err == nil {
		t.Fatalf("输入文件不存在时应返回错误")
	}
}

func TestRunBadConfig(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(cfg, []byte("page:\n  size: B5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	opts := options{input: filepath.Join("examples", "trial.json"), output: filepath.Join(t.TempDir(), "x.pdf"), configPath: cfg}
	if err := run(context.Background(), opts, logger.New(logger.LevelOff, io.Discard)); err == nil {
		t.Fatalf("不支持的纸张尺寸应返回错误")
	}
}
