package theme

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("默认主题应当合法: %v", err)
	}
}

func TestParseColor(t *testing.T) {
	cases := map[string]string{
		"#DC3545":          "#dc3545",
		"#fff":             "#ffffff",
		"rgb(0, 100, 255)": "#0064ff",
		" rgb(20,150,20) ": "#149614",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q want %q", in, got, want)
		}
	}
	if _, err := ParseColor("blue-ish"); err == nil {
		t.Fatalf("invalid colour must fail")
	}
	if r, g, b := RGB255("rgb(153, 0, 255)"); r != 153 || g != 0 || b != 255 {
		t.Fatalf("RGB255 = %d,%d,%d", r, g, b)
	}
}

func TestTint(t *testing.T) {
	if got := Tint("#3498db", 0); got != "#3498db" {
		t.Fatalf("tint 0 must keep the colour, got %s", got)
	}
	if got := Tint("#3498db", 1); got != "#ffffff" {
		t.Fatalf("tint 1 must give white, got %s", got)
	}
}

func TestSectionFallbacks(t *testing.T) {
	th := Default()
	sc, err := th.Section("load")
	if err != nil || sc.Accent != "#16a085" {
		t.Fatalf("load colours: %+v %v", sc, err)
	}
	sc, err = th.Section("observations")
	if !errors.Is(err, ErrUnknownSection) {
		t.Fatalf("expected ErrUnknownSection, got %v", err)
	}
	if sc.Accent != th.Brand.Primary {
		t.Fatalf("unknown sections use the brand colour, got %s", sc.Accent)
	}

	th.Sections["custom"] = SectionColors{Accent: "#000000"}
	sc, err = th.Section("custom")
	if err != nil || sc.Background == "" || sc.Text == "" {
		t.Fatalf("missing colours must be derived: %+v %v", sc, err)
	}
}

func TestGasColor(t *testing.T) {
	th := Default()
	if got := th.GasColor("N2"); got != "#0064ff" {
		t.Fatalf("N2 colour = %s", got)
	}
	if got := th.GasColor("Ar"); got != "#ff6400" {
		t.Fatalf("unknown gas colour = %s", got)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "theme.yaml")
	content := `
brand:
  primary: "#112233"
palette: ["#000000", "#ffffff"]
sections:
  load:
    accent: "#445566"
photos:
  strategies:
    curves:
      default: grid2
      maxPhotosFirstPage: 4
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入主题失败: %v", err)
	}
	th, err := Load(path)
	if err != nil {
		t.Fatalf("加载主题失败: %v", err)
	}
	if th.Brand.Primary != "#112233" || th.Brand.Secondary != "#2c3e50" {
		t.Fatalf("brand overlay wrong: %+v", th.Brand)
	}
	if len(th.Palette) != 2 {
		t.Fatalf("palette must be replaced: %v", th.Palette)
	}
	if th.Accent("load") != "#445566" || th.Accent("control") != "#27ae60" {
		t.Fatalf("section overlay wrong")
	}
	if pages := th.Photos.Arrange(4, "curves"); len(pages) != 1 || pages[0].Layout != "grid2" {
		t.Fatalf("strategy overlay not applied: %+v", pages)
	}
	if th.Charts.Recipe.Width != 500 {
		t.Fatalf("untouched values must keep defaults")
	}
}

func TestLoadRejectsBadColour(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("temperature: nope\n"), 0o644); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("invalid colour must be rejected")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("missing file must fail")
	}
}
