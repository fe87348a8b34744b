package model

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ByLCY/trialreport/curves"
	"github.com/ByLCY/trialreport/numeric"
)

func TestDecodeEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "null", "{}"} {
		if _, err := Decode(strings.NewReader(in)); !errors.Is(err, ErrEmptyPayload) {
			t.Fatalf("%q: expected ErrEmptyPayload, got %v", in, err)
		}
	}
	if _, err := Decode(strings.NewReader("{broken")); err == nil {
		t.Fatalf("语法错误必须返回错误")
	}
}

func TestDecodeLenient(t *testing.T) {
	payload := `{
		"trial": {"trial_code": 1024, "observation": "Uniform case", "load_data": {"part_count": "12", "weight": {"value": 40, "unit": "kg"}}},
		"part": {"reference": "R-1", "quantity": 3, "steel": {"grade": "16MnCr5"}},
		"client": {"name": "Acme", "city": "Lyon", "country": "France"},
		"photos": {"load": []}
	}`
	in, err := Decode(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if in.Trial.Code != "1024" || in.Trial.ObservationText() != "Uniform case" {
		t.Fatalf("trial fields wrong: %+v", in.Trial)
	}
	if in.Part.Quantity != "3" || in.Part.SteelGrade() != "16MnCr5" {
		t.Fatalf("part fields wrong: %+v", in.Part)
	}
	if in.Client.Location() != "Lyon, France" {
		t.Fatalf("client location = %q", in.Client.Location())
	}
	fields := in.Trial.Load.Fields()
	want := []Field{{"Part Count", "12"}, {"Total Weight", "40 kg"}}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Fatalf("load fields mismatch (-want +got):\n%s", diff)
	}
	if !in.Photos.Present("load") || len(in.Photos.Section("load")) != 0 {
		t.Fatalf("empty load bucket must be present and empty")
	}
	if in.Raw["trial"] == nil {
		t.Fatalf("raw document must be kept for bindings")
	}
}

func TestSteelGradeChain(t *testing.T) {
	cases := map[string]string{
		`{"steel": {"grade": "16MnCr5"}, "steelGrade": "X"}`: "16MnCr5",
		`{"steelGrade": "42CrMo4", "steel_grade": "Y"}`:      "42CrMo4",
		`{"steel_grade": "20NiCrMo2"}`:                       "20NiCrMo2",
		`{"steel": "C45"}`:                                   "C45",
		`{}`:                                                 NotSpecified,
	}
	for in, want := range cases {
		var p Part
		if err := json.Unmarshal([]byte(in), &p); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if got := p.SteelGrade(); got != want {
			t.Fatalf("%s: steel grade %q want %q", in, got, want)
		}
	}
}

func TestDimensions(t *testing.T) {
	var p Part
	in := `{"dim_rect_length": 100, "dim_rect_width": "50", "dim_rect_height": 0,
		"dim_circ_diameterOut": 30, "dim_weight_value": 2.5}`
	if err := json.Unmarshal([]byte(in), &p); err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if got := p.Dimensions(); got != "100 × 50 mm | ⌀ ext: 30 mm | 2.5 kg" {
		t.Fatalf("dimensions = %q", got)
	}
	if got := (Part{}).Dimensions(); got != NotSpecified {
		t.Fatalf("empty dimensions = %q", got)
	}
}

func TestSpecifications(t *testing.T) {
	var p Part
	in := `{
		"hardnessSpecs": [{"name": "ignored"}],
		"specifications": {
			"hardnessSpecs": [{"min": 600, "unit": "HV"}, {}],
			"ecdSpecs": [{"depthMin": 0.6, "depthMax": 0.9, "hardness": 550, "hardnessUnit": "HV"}, {"name": "Core", "range": "0.3 - 0.5", "yValue": "513"}]
		}
	}`
	if err := json.Unmarshal([]byte(in), &p); err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	hs := p.Hardness()
	if len(hs) != 2 || hs[0].Describe() != "Min: 600 HV" || hs[1].Describe() != NotSpecified || hs[1].Label(1) != "Spec 2" {
		t.Fatalf("hardness specs wrong: %+v", hs)
	}
	ecd := p.ECD()
	if got := ecd[0].Describe(); got != "Depth: 0.6 - 0.9 mm | Hardness: 550 HV" {
		t.Fatalf("ecd describe = %q", got)
	}
	if ecd[0].Label(0) != "ECD 1" || ecd[1].Label(1) != "Core" {
		t.Fatalf("ecd labels wrong")
	}
	from, to, ok := ecd[1].Depth()
	if !ok || from != 0.3 || to != 0.5 {
		t.Fatalf("range parse = %v %v %v", from, to, ok)
	}
	if h, ok := ecd[1].HardnessValue(); !ok || h != 513 {
		t.Fatalf("yValue fallback = %v %v", h, ok)
	}
	if _, _, ok := (ECDSpec{}).Depth(); ok {
		t.Fatalf("spec without range must report no depth")
	}
}

func TestRecipeConversion(t *testing.T) {
	var r RecipeData
	in := `{
		"number": "R-12",
		"cell_temp": {"value": 0},
		"wait_time": {"value": 10, "unit": "min"}, "wait_gas": "N2", "wait_flow": 500,
		"selected_gas1": "N2", "selected_gas3": "C2H2",
		"thermal_cycle": [
			{"step": 1, "ramp": "up", "setpoint": "850", "duration": 30},
			{"ramp": "continue", "setpoint": 860, "duration": "abc"}
		],
		"chemical_cycle": [
			{"step": 1, "time": 600, "turbine": "yes", "gases": [{"gas": "N2", "debit": "1000"}, {"gas": "", "debit": 5}]}
		]
	}`
	if err := json.Unmarshal([]byte(in), &r); err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if got := r.CellTemperature(); got != 850 {
		t.Fatalf("zero cell_temp must fall back to the first setpoint, got %v", got)
	}
	want := []curves.ThermalStep{
		{Step: 1, Ramp: curves.RampUp, Setpoint: 850, Duration: 30},
		{Step: 2, Ramp: curves.RampContinue, Setpoint: 860, Duration: 0},
	}
	if diff := cmp.Diff(want, r.Thermal()); diff != "" {
		t.Fatalf("thermal mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"N2", "C2H2"}, r.SelectedGases()); diff != "" {
		t.Fatalf("selected gases mismatch:\n%s", diff)
	}
	chem := r.Chemical()
	if len(chem) != 1 || !chem[0].Turbine || len(chem[0].Gases) != 1 || chem[0].Flow("N2") != 1000 {
		t.Fatalf("chemical conversion wrong: %+v", chem)
	}
	if w := r.Wait(); w.Gas != "N2" || w.Time != 10 || w.Flow != 500 {
		t.Fatalf("wait conversion wrong: %+v", w)
	}
	if diff := cmp.Diff([]string{"thermal_cycle.duration"}, r.MalformedFields()); diff != "" {
		t.Fatalf("malformed fields mismatch:\n%s", diff)
	}
	var empty *RecipeData
	if empty.CellTemperature() != 20 || !empty.Empty() {
		t.Fatalf("nil recipe must be empty with 20 °C")
	}
}

func TestQuenchHasData(t *testing.T) {
	var q QuenchData
	if err := json.Unmarshal([]byte(`{"gas_quench": {"inerting_delay": {"value": 0}}, "oil_quench": {}}`), &q); err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if q.HasData() {
		t.Fatalf("zero values must not count as quench data")
	}
	q.Oil.DrippingTime = mustValue(t, "12")
	if !q.HasData() || !q.Oil.HasData() || q.Gas.HasData() {
		t.Fatalf("oil dripping time must count")
	}
}

func TestRampParsing(t *testing.T) {
	if ParseRamp("Up") != curves.RampUp || ParseRamp("descente") != curves.RampDown || ParseRamp("") != curves.RampContinue {
		t.Fatalf("ramp parsing wrong")
	}
	if RampLabel(curves.RampContinue) != "Hold" {
		t.Fatalf("continue steps are labelled Hold")
	}
}

func TestSampleBothSpellings(t *testing.T) {
	var res ResultsData
	in := `{"results": [{"step": 2, "description": "Surface", "samples": [
		{"description": "Core", "hardness_points": [{"position": "P1", "value": "650", "unit": "HV1"}],
		 "ecd": {"hardness_value": 550, "hardness_unit": "HV", "ecd_positions": [{"location": "A", "distance": 0.7}]}},
		{"hardnessPoints": [{"location": "L1", "value": "-"}]},
		{"curveData": {"distances": [0.1, null, 0.3, 0.4], "series": [{"name": "P1", "values": [600, 550, "abc", 0]}, {"values": [500]}]}}
	]}, {}]}`
	if err := json.Unmarshal([]byte(in), &res); err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	r := res.Results[0]
	if r.Title(0) != "Result 2 - Surface" || res.Results[1].Title(1) != "Result 2" {
		t.Fatalf("result titles wrong: %q %q", r.Title(0), res.Results[1].Title(1))
	}
	if r.HardnessUnit() != "HV1" {
		t.Fatalf("unit = %q", r.HardnessUnit())
	}
	s0 := r.Samples[0]
	if s0.Title(0) != "Sample 1 - Core" || s0.HardnessPoints[0].Where() != "P1" || !s0.HasECD() {
		t.Fatalf("snake_case sample wrong: %+v", s0)
	}
	if v, ok := s0.ECD.HardnessValue.Get(); !ok || v != 550 {
		t.Fatalf("ecd hardness = %v", v)
	}
	if !r.Samples[1].Empty() {
		t.Fatalf("a sample with only '-' readings must be skipped")
	}
	series := r.Samples[2].Series()
	if len(series) != 2 || series[0].Name != "P1" || series[1].Name != "Series 2" {
		t.Fatalf("series names wrong: %+v", series)
	}
	if series[0].ValidCount() != 1 || series[1].ValidCount() != 1 {
		t.Fatalf("only strictly positive readings with a distance are valid: %+v", series)
	}
	if len(series[0].Samples) != 4 {
		t.Fatalf("every distance keeps its slot")
	}
}

const listPhotos = `[
	{"id": 1, "url": "a.jpg", "category": "identification", "subcategory": "front"},
	{"id": 2, "file_path": "b.jpg", "category": "micrographs", "subcategory": "result-1-sample-2-x50"},
	{"id": 3, "category": "load"},
	{"id": 4, "view_path": "/v/4", "category": "furnace_report", "subcategory": "refroidissement"}
]`

const mapPhotos = `{
	"identification": {"front": [{"id": 1, "url": "a.jpg"}]},
	"micrographs": {"result-1-sample-2-x50": [{"id": 2, "file_path": "b.jpg"}]},
	"load": [{"id": 3}],
	"furnace_report": {"refroidissement": [{"id": 4, "view_path": "/v/4"}]},
	"datapaq": []
}`

func TestNormalizePhotosForms(t *testing.T) {
	list, err := NormalizePhotos(json.RawMessage(listPhotos))
	if err != nil {
		t.Fatalf("list form: %v", err)
	}
	buckets, err := NormalizePhotos(json.RawMessage(mapPhotos))
	if err != nil {
		t.Fatalf("map form: %v", err)
	}
	if list.Count() != 3 || buckets.Count() != 3 {
		t.Fatalf("invalid photos must not be counted: %d %d", list.Count(), buckets.Count())
	}
	for _, section := range []string{SectionIdentification, SectionMicrography, SectionLoad, SectionCurves} {
		if diff := cmp.Diff(list.Section(section), buckets.Section(section)); diff != "" {
			t.Fatalf("%s differs between forms (-list +map):\n%s", section, diff)
		}
	}
	if len(list.Dropped()) != 1 || len(buckets.Dropped()) != 1 {
		t.Fatalf("the photo without a source must be dropped once")
	}
	if !buckets.Present("datapaq") || list.Present("datapaq") {
		t.Fatalf("presence must follow the payload structure")
	}
	micro := buckets.Section("micrography")[0]
	if micro.Tag.ResultIndex != 1 || micro.Tag.SampleIndex != 2 || micro.Tag.Zoom != "x50" {
		t.Fatalf("micrography tag wrong: %+v", micro.Tag)
	}
	curve := buckets.Section("curves")[0]
	if curve.Tag.Curve != CurveCooling || curve.Source != "/v/4" {
		t.Fatalf("curve photo wrong: %+v", curve)
	}
}

func TestPhotoSources(t *testing.T) {
	set, err := NormalizePhotos(json.RawMessage(`[{"id": 7, "category": "load"}]`), WithIDPattern("/api/files/{id}/view"))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if ps := set.Section("load"); len(ps) != 1 || ps[0].Source != "/api/files/7/view" {
		t.Fatalf("id pattern not applied: %+v", ps)
	}
	p := Photo{URL: "u", ViewPath: "v", FilePath: "f"}
	if p.source("") != "u" {
		t.Fatalf("url has priority")
	}
	if (Photo{Name: "n", OriginalName: "o"}).Caption() != "o" {
		t.Fatalf("caption prefers original_name over name")
	}
}

type vetoResolver struct{}

func (vetoResolver) Resolve(_ context.Context, p Photo) (string, error) {
	if strings.Contains(p.Source, "bad") {
		return "", errors.New("rejected")
	}
	return "assets/" + p.Source, nil
}

func TestResolverVeto(t *testing.T) {
	raw := json.RawMessage(`{"load": [{"url": "good.jpg"}, {"url": "bad.jpg"}]}`)
	set, err := NormalizePhotos(raw, WithResolver(context.Background(), vetoResolver{}))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	ps := set.Section("load")
	if len(ps) != 1 || ps[0].Source != "assets/good.jpg" {
		t.Fatalf("resolver result wrong: %+v", ps)
	}
	if d := set.Dropped(); len(d) != 1 || d[0].Reason != "rejected" {
		t.Fatalf("vetoed photo must be recorded: %+v", d)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	set, _ = NormalizePhotos(raw, WithResolver(ctx, vetoResolver{}))
	if set.Count() != 0 || len(set.Dropped()) != 2 {
		t.Fatalf("a cancelled context vetoes every photo")
	}
}

func TestClassifyFallbacks(t *testing.T) {
	cases := []struct {
		photo Photo
		want  Tag
	}{
		{Photo{Subcategory: "x100"}, Tag{Zoom: "x100", Curve: CurveOther}},
		{Photo{Subcategory: "other"}, Tag{Zoom: "other", Curve: CurveOther}},
		{Photo{Subcategory: "chauffage"}, Tag{Curve: CurveHeating}},
		{Photo{OriginalName: "essai_result_2_échantillon-1_500x.png"}, Tag{ResultIndex: 2, SampleIndex: 1, Zoom: "x500", Curve: CurveOther}},
		{Photo{Name: "courbe-revenu.pdf"}, Tag{Curve: CurveTempering}},
		{Photo{Name: "ALARMES.jpg"}, Tag{Curve: CurveAlarms}},
	}
	for _, c := range cases {
		if got := Classify(c.photo); got != c.want {
			t.Fatalf("Classify(%+v) = %+v want %+v", c.photo, got, c.want)
		}
	}
}

func TestCanonicalSection(t *testing.T) {
	cases := map[string]string{
		"post_treatment": SectionPostTreatment,
		"post-treatment": SectionPostTreatment,
		"postTreatment":  SectionPostTreatment,
		"loadDesign":     SectionLoad,
		"micrographs":    SectionMicrography,
		"Furnace_Report": SectionCurves,
		"custom":         "custom",
	}
	for in, want := range cases {
		if got := CanonicalSection(in); got != want {
			t.Fatalf("CanonicalSection(%q) = %q want %q", in, got, want)
		}
	}
}

func TestTextLenient(t *testing.T) {
	var v struct {
		A Text `json:"a"`
		B Text `json:"b"`
		C Text `json:"c"`
		D Text `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"a": 12.50, "b": true, "c": {"x": 1}, "d": " hi "}`), &v); err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if v.A != "12.50" || v.B != "true" || v.C != "" || v.D != "hi" {
		t.Fatalf("text decoding wrong: %+v", v)
	}
	if Text("0").Filled() || !Text("3").Filled() {
		t.Fatalf("Filled must treat 0 as empty")
	}
}

func mustValue(t *testing.T, raw string) (v numeric.Value) {
	t.Helper()
	if err := v.UnmarshalJSON([]byte(raw)); err != nil {
		t.Fatalf("value %s: %v", raw, err)
	}
	return v
}
