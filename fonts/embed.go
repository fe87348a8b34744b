package fonts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-fonts/latin-modern/lmmono10regular"
	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmroman10regular"
	"github.com/go-fonts/latin-modern/lmsans10bold"
	"github.com/go-fonts/latin-modern/lmsans10oblique"
	"github.com/go-fonts/latin-modern/lmsans10regular"
)

// 内置字体名，布局阶段以 "embed:<name>" 引用。
const (
	SansRegular  = "lmsans10-regular"
	SansBold     = "lmsans10-bold"
	SansOblique  = "lmsans10-oblique"
	SerifRegular = "lmroman10-regular"
	SerifBold    = "lmroman10-bold"
	MonoRegular  = "lmmono10-regular"
)

var builtin = map[string][]byte{
	SansRegular:  lmsans10regular.TTF,
	SansBold:     lmsans10bold.TTF,
	SansOblique:  lmsans10oblique.TTF,
	SerifRegular: lmroman10regular.TTF,
	SerifBold:    lmroman10bold.TTF,
	MonoRegular:  lmmono10regular.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "embed:lmsans10-regular" 或直接 "lmsans10-regular"。
// 名称不区分大小写，可带 .ttf 后缀。
func Load(name string) ([]byte, error) {
	key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "embed:")))
	key = strings.TrimSuffix(key, ".ttf")
	data, ok := builtin[key]
	if !ok || len(data) == 0 {
		return nil, fmt.Errorf("未知的内置字体 %q（可用: %s）", name, strings.Join(Names(), ", "))
	}
	return data, nil
}

// Names 列出全部内置字体名。
func Names() []string {
	out := make([]string, 0, len(builtin))
	for k := range builtin {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
