package canvasrenderer

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/canvas"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ByLCY/trialreport/layout"
)

// maxRemoteImage 限制远程图片大小（字节）。
const maxRemoteImage = 32 << 20

var errRemoteDisabled = errors.New("未配置 HTTP 客户端，跳过远程图片")

// drawImages 绘制图片；无法读取或解码的图片以占位框代替并记录在 MissingImages 中。
func (r *Renderer) drawImages(ctx *canvas.Context, images []layout.ImageBox) {
	for _, box := range images {
		if box.Path == "" || box.Width <= 0 || box.Height <= 0 {
			continue
		}
		img, err := r.loadImage(box.Path)
		if err != nil {
			r.noteMissing(box.Path, err)
			drawPlaceholder(ctx, box)
			continue
		}
		x, y, w := fitImage(box, img.Bounds().Dx(), img.Bounds().Dy())
		dpmm := float64(img.Bounds().Dx()) / w
		if dpmm <= 0 {
			dpmm = 1
		}
		ctx.DrawImage(x, y, img, canvas.DPMM(dpmm))
	}
}

// fitImage 计算绘制位置与宽度。contain 保持宽高比并在框内居中；其余按框宽拉伸。
func fitImage(box layout.ImageBox, px, py int) (x, y, w float64) {
	if px <= 0 || py <= 0 || box.Fit != "contain" {
		return box.X, box.Y, box.Width
	}
	scale := min(box.Width/float64(px), box.Height/float64(py))
	w = float64(px) * scale
	h := float64(py) * scale
	return box.X + (box.Width-w)/2, box.Y + (box.Height-h)/2, w
}

func (r *Renderer) loadImage(src string) (image.Image, error) {
	data, err := r.imageBytes(src)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("解码图片失败: %w", err)
	}
	return img, nil
}

func (r *Renderer) imageBytes(src string) ([]byte, error) {
	switch {
	case strings.HasPrefix(src, "built-in:"), strings.HasPrefix(src, "builtin:"):
		name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		if blob, ok := r.imageBlobs[name]; ok {
			return blob, nil
		}
		return nil, fmt.Errorf("找不到内置图片资源 built-in:%s", name)
	case strings.HasPrefix(src, "data:"):
		return decodeDataURL(src)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return r.fetch(src)
	}
	path := src
	if !filepath.IsAbs(path) {
		if r.baseDir == "" {
			return nil, fmt.Errorf("未指定资源目录时不允许直接使用路径：%s", src)
		}
		path = filepath.Join(r.baseDir, path)
	}
	return os.ReadFile(path)
}

func (r *Renderer) fetch(src string) ([]byte, error) {
	if r.client == nil {
		return nil, errRemoteDisabled
	}
	resp, err := r.client.Get(src)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("远程图片返回状态 %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxRemoteImage))
}

// decodeDataURL 解析 data:[<mediatype>][;base64],<data>。
func decodeDataURL(src string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok {
		return nil, errors.New("data URL 缺少逗号分隔")
	}
	if strings.HasSuffix(strings.ToLower(header), ";base64") {
		payload = strings.Map(func(r rune) rune {
			if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
				return -1
			}
			return r
		}, payload)
		if data, err := base64.StdEncoding.DecodeString(payload); err == nil {
			return data, nil
		}
		data, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, fmt.Errorf("data URL base64 解码失败: %w", err)
		}
		return data, nil
	}
	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("data URL 解码失败: %w", err)
	}
	return []byte(data), nil
}

// drawPlaceholder 绘制浅灰色边框与对角线，标示缺失的图片。
func drawPlaceholder(ctx *canvas.Context, box layout.ImageBox) {
	grey := layout.Color{R: 200, G: 200, B: 200}
	fill := layout.Color{R: 245, G: 245, B: 245}
	drawRects(ctx, []layout.Rect{{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height, StrokeColor: &grey, StrokeWidth: 0.2, FillColor: &fill}})
	drawLines(ctx, []layout.Line{
		{X1: box.X, Y1: box.Y, X2: box.X + box.Width, Y2: box.Y + box.Height, Color: grey, Width: 0.2},
		{X1: box.X + box.Width, Y1: box.Y, X2: box.X, Y2: box.Y + box.Height, Color: grey, Width: 0.2},
	})
}
