package theme

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ParseColor accepts "#rgb", "#rrggbb" and "rgb(r, g, b)".
func ParseColor(s string) (colorful.Color, error) {
	v := strings.TrimSpace(s)
	if strings.HasPrefix(v, "rgb(") && strings.HasSuffix(v, ")") {
		var r, g, b uint8
		inner := strings.ReplaceAll(v[4:len(v)-1], " ", "")
		if _, err := fmt.Sscanf(inner, "%d,%d,%d", &r, &g, &b); err != nil {
			return colorful.Color{}, fmt.Errorf("颜色 %q 解析失败: %w", s, err)
		}
		return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}, nil
	}
	c, err := colorful.Hex(v)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("颜色 %q 解析失败: %w", s, err)
	}
	return c, nil
}

// Normalize returns s as lower-case "#rrggbb", or s unchanged when it does
// not parse.
func Normalize(s string) string {
	c, err := ParseColor(s)
	if err != nil {
		return s
	}
	return c.Hex()
}

// RGB255 returns the 0-255 components of s; unparsable colours are black.
func RGB255(s string) (r, g, b uint8) {
	c, err := ParseColor(s)
	if err != nil {
		return 0, 0, 0
	}
	return c.Clamped().RGB255()
}

// Tint mixes s towards white in Lab space. amount 0 keeps the colour,
// 1 gives white.
func Tint(s string, amount float64) string {
	c, err := ParseColor(s)
	if err != nil {
		return s
	}
	white := colorful.Color{R: 1, G: 1, B: 1}
	return c.BlendLab(white, amount).Clamped().Hex()
}

// Shade mixes s towards black in Lab space.
func Shade(s string, amount float64) string {
	c, err := ParseColor(s)
	if err != nil {
		return s
	}
	return c.BlendLab(colorful.Color{}, amount).Clamped().Hex()
}
