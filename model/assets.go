package model

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirResolver resolves local photo sources against BaseDir and vetoes the
// ones that do not exist on disk. Remote and data URLs pass through.
type DirResolver struct {
	BaseDir string
}

// Resolve implements AssetResolver.
func (r DirResolver) Resolve(ctx context.Context, p Photo) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src := p.Source
	if IsRemote(src) {
		return src, nil
	}
	if r.BaseDir != "" && !fileExists(src) {
		src = filepath.Join(r.BaseDir, filepath.FromSlash(strings.TrimPrefix(src, "/")))
	}
	if !fileExists(src) {
		return "", fmt.Errorf("图片文件不存在: %s", src)
	}
	return src, nil
}

// IsRemote reports an http(s) or data URL.
func IsRemote(src string) bool {
	lower := strings.ToLower(src)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "data:")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
