package dsl_test

import (
	"testing"

	"github.com/ByLCY/trialreport/dsl"
)

func TestParseTag(t *testing.T) {
	cases := []struct {
		in     string
		result int
		sample int
		zoom   string
		canon  string
	}{
		{"result-1-sample-2-x50", 1, 2, "x50", "result-1-sample-2-x50"},
		{"result-3", 3, 0, "", "result-3"},
		{"Result_2_Sample_1", 2, 1, "", "result-2-sample-1"},
		{"result-2-other", 2, 0, "other", "result-2-other"},
		{"result-1-sample-1-X1000", 1, 1, "x1000", "result-1-sample-1-x1000"},
		{"résultat 4 échantillon 2 autre", 4, 2, "other", "result-4-sample-2-other"},
		{"result1sample2x100", 1, 2, "x100", "result-1-sample-2-x100"},
	}
	for _, c := range cases {
		tag, err := dsl.ParseTag(c.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", c.in, err)
		}
		if tag.Result != c.result || tag.SampleIndex() != c.sample || tag.ZoomLabel() != c.zoom {
			t.Fatalf("%q: got result=%d sample=%d zoom=%q", c.in, tag.Result, tag.SampleIndex(), tag.ZoomLabel())
		}
		if got := tag.String(); got != c.canon {
			t.Fatalf("%q: canonical form %q want %q", c.in, got, c.canon)
		}
	}
}

func TestParseTagRejects(t *testing.T) {
	for _, in := range []string{"", "heating", "sample-1", "result", "result-1-extra"} {
		if _, err := dsl.ParseTag(in); err == nil {
			t.Fatalf("expected %q to be rejected", in)
		}
	}
}

func TestScanName(t *testing.T) {
	cases := []struct {
		name   string
		result int
		sample int
		zoom   string
	}{
		{"IMG_result_1_sample-2_x100.jpg", 1, 2, "x100"},
		{"micro échantillon-3 500x.png", 0, 3, "x500"},
		{"overview.jpg", 0, 0, ""},
		{"Resultat2-vue.png", 2, 0, ""},
	}
	for _, c := range cases {
		r, s, z := dsl.ScanName(c.name)
		if r != c.result || s != c.sample || z != c.zoom {
			t.Fatalf("ScanName(%q) = %d,%d,%q", c.name, r, s, z)
		}
	}
}

func TestZoomLevel(t *testing.T) {
	if n, ok := dsl.ZoomLevel("x50"); !ok || n != 50 {
		t.Fatalf("x50 → %d %v", n, ok)
	}
	if _, ok := dsl.ZoomLevel("other"); ok {
		t.Fatalf("other has no magnification")
	}
}
