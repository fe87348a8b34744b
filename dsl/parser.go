// Package dsl parses the photo tags carried by photo sub-categories, e.g.
// "result-1-sample-2-x50" or "result-2-other".
package dsl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	tagLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Zoom", Pattern: `x\d+`},
		{Name: "Number", Pattern: `\d+`},
		{Name: "Word", Pattern: `\p{L}+`},
		{Name: "Sep", Pattern: `[^\p{L}\d]+`},
	})

	tagParser = participle.MustBuild[Tag](
		participle.Lexer(tagLexer),
		participle.Elide("Sep"),
	)
)

// Tag is a parsed photo tag: result-N [sample-M] [xZ|other].
type Tag struct {
	Pos    lexer.Position `parser:"" json:"-"`
	Result int            `parser:"( 'result' | 'resultat' | 'résultat' ) @Number" json:"result"`
	Sample *int           `parser:"( ( 'sample' | 'echantillon' | 'échantillon' ) @Number )?" json:"sample,omitempty"`
	Zoom   *string        `parser:"( @Zoom | @( 'other' | 'autre' ) )?" json:"zoom,omitempty"`
}

// SampleIndex returns the 1-based sample number, 0 when absent.
func (t *Tag) SampleIndex() int {
	if t == nil || t.Sample == nil {
		return 0
	}
	return *t.Sample
}

// ZoomLabel returns "x50", "other" or "".
func (t *Tag) ZoomLabel() string {
	if t == nil || t.Zoom == nil {
		return ""
	}
	return normalizeZoom(*t.Zoom)
}

// String 重新生成规范形式的标签。
func (t *Tag) String() string {
	if t == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "result-%d", t.Result)
	if t.Sample != nil {
		fmt.Fprintf(&b, "-sample-%d", *t.Sample)
	}
	if z := t.ZoomLabel(); z != "" {
		b.WriteString("-" + z)
	}
	return b.String()
}

// ParseTag parses a sub-category tag. Matching is case-insensitive and any
// run of non-alphanumeric characters separates tokens.
func ParseTag(input string) (*Tag, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return nil, fmt.Errorf("空标签")
	}
	tag, err := tagParser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("标签 %q 解析失败: %w", input, err)
	}
	return tag, nil
}

var (
	nameResult = regexp.MustCompile(`(?i)(?:result|r[ée]sultat)[\s_-]*(\d+)`)
	nameSample = regexp.MustCompile(`(?i)(?:sample|[ée]chantillon)[\s_-]*(\d+)`)
	nameZoom   = regexp.MustCompile(`(?i)(?:^|[^a-z])(x\s?\d+|\d+\s?x)(?:[^a-z0-9]|$)`)
)

// ScanName looks for result/sample/zoom markers anywhere in a file name.
// Missing markers are returned as zero values.
func ScanName(name string) (result, sample int, zoom string) {
	if m := nameResult.FindStringSubmatch(name); m != nil {
		result, _ = strconv.Atoi(m[1])
	}
	if m := nameSample.FindStringSubmatch(name); m != nil {
		sample, _ = strconv.Atoi(m[1])
	}
	if m := nameZoom.FindStringSubmatch(name); m != nil {
		zoom = normalizeZoom(m[1])
	}
	return result, sample, zoom
}

// ZoomLevel returns the magnification of a zoom label, e.g. 50 for "x50".
// "other" and unknown labels report false.
func ZoomLevel(zoom string) (int, bool) {
	z := normalizeZoom(zoom)
	if !strings.HasPrefix(z, "x") {
		return 0, false
	}
	n, err := strconv.Atoi(z[1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

func normalizeZoom(z string) string {
	z = strings.ToLower(strings.ReplaceAll(z, " ", ""))
	switch {
	case z == "other" || z == "autre":
		return "other"
	case strings.HasSuffix(z, "x") && len(z) > 1:
		return "x" + strings.TrimSuffix(z, "x")
	}
	return z
}
