package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ByLCY/trialreport/dsl"
	"github.com/ByLCY/trialreport/model"
	"github.com/ByLCY/trialreport/photolayout"
)

// Empty-state messages.
const (
	msgNoIdentificationPhotos = "No identification photos available for this part."
	msgNoLoadPhotos           = "No load configuration photos available for this trial."
	msgNoRecipe               = "No recipe data available"
	msgNoRecipeCurve          = "No thermal or chemical cycle data"
	msgNoCurves               = "No furnace curves or reports available for this test."
	msgNoDatapaq              = "No Datapaq reports or graphs available for this trial."
	msgNoMicrographs          = "No micrographs available for this trial."
	msgNoControl              = "No control data available."
	msgNoHardness             = "No valid hardness readings for this sample."
	msgNoSection              = "No section selected."
)

// 识别页照片分组：视图标题高度与按张数估算的网格高度（pt）。
const (
	viewHeaderHeight = 80.0
	maxViewsPerPage  = 3
	maxViewPhotos    = 6
)

func viewGridHeight(n int) float64 {
	switch {
	case n <= 1:
		return 220
	case n == 2:
		return 200
	case n <= 4:
		return 360
	default:
		return 540
	}
}

var composers = map[SectionType]composer{
	SectionIdentification: composeIdentification,
	SectionLoad:           composeLoad,
	SectionRecipe:         composeRecipe,
	SectionCurves:         composeCurves,
	SectionDatapaq:        composeDatapaq,
	SectionMicrography:    composeMicrography,
	SectionControl:        composeControl,
	SectionPostTreatment:  composePostTreatment,
	SectionObservations:   composeObservations,
}

func composeIdentification(c *sectionContext) ([]Page, error) {
	in := c.in
	b := c.pages()
	client := in.Client.Name.Or(model.NotSpecified)
	if loc := in.Client.Location(); loc != "" {
		client += " (" + loc + ")"
	}
	b.add(fields([]model.Field{
		{Label: "Client", Value: client},
		{Label: "Designation", Value: in.Part.Designation.Or(model.NotSpecified)},
		{Label: "Client Designation", Value: in.Part.ClientDesignation.Or(model.NotSpecified)},
		{Label: "Reference", Value: in.Part.Reference.Or(model.NotSpecified)},
		{Label: "Quantity", Value: in.Part.Quantity.Or(model.NotSpecified)},
		{Label: "Steel Grade", Value: in.Part.SteelGrade()},
		{Label: "Dimensions", Value: in.Part.Dimensions()},
	}, 2)...)

	if specs := in.Part.Hardness(); len(specs) > 0 {
		rows := make([][]string, 0, len(specs))
		for i, s := range specs {
			rows = append(rows, []string{s.Label(i), orNotSpecified(s.Describe())})
		}
		b.add(table("Hardness Specifications", []string{"Name", "Requirement"}, rows, 0.5))
	}
	if specs := in.Part.ECD(); len(specs) > 0 {
		rows := make([][]string, 0, len(specs))
		for i, s := range specs {
			rows = append(rows, []string{s.Label(i), orNotSpecified(s.Describe())})
		}
		b.add(table("ECD Specifications", []string{"Name", "Requirement"}, rows, 0.5))
	}

	photos := c.photos()
	if len(photos) == 0 {
		if c.photosPresent() {
			b.add(notice(msgNoIdentificationPhotos))
		}
		return b.done(), nil
	}

	type view struct {
		title  string
		photos []model.Photo
	}
	var views []view
	for _, g := range groupBy(photos, func(p model.Photo) string { return p.Subcategory.String() }) {
		title := g.key
		if strings.TrimSpace(title) == "" {
			title = "General"
		}
		for i, chunk := range photolayout.Paginate(g.photos, maxViewPhotos) {
			t := title
			if i > 0 {
				t += " (cont.)"
			}
			views = append(views, view{title: t, photos: chunk})
		}
	}
	heights := make([]float64, len(views))
	for i, v := range views {
		heights[i] = viewHeaderHeight + viewGridHeight(len(v.photos))
	}
	for _, idx := range photolayout.PackGroups(heights, photoPageHeight, maxViewsPerPage) {
		b.page()
		for _, i := range idx {
			v := views[i]
			for _, pl := range c.theme.Photos.Arrange(len(v.photos), string(c.section)) {
				b.add(photoGroup(v.title, v.photos, pl))
			}
		}
	}
	return b.done(), nil
}

func composeLoad(c *sectionContext) ([]Page, error) {
	load := c.in.Trial.Load
	list := load.Fields()
	photos := c.photos()
	if load == nil && len(photos) == 0 && !c.photosPresent() {
		return nil, nil
	}
	b := c.pages()
	b.add(fields(list, 2)...)
	if len(photos) == 0 {
		b.add(notice(msgNoLoadPhotos))
		return b.done(), nil
	}
	c.arrangedPhotos(b, "", photos, true)
	return b.done(), nil
}

func composeRecipe(c *sectionContext) ([]Page, error) {
	r := c.in.Recipe
	photos := c.photos()
	if r == nil && len(photos) == 0 && !c.photosPresent() {
		return nil, nil
	}
	b := c.pages()
	if r.Empty() {
		b.add(notice(msgNoRecipe))
		if len(photos) > 0 {
			c.arrangedPhotos(b, "Recipe Photos", photos, false)
		}
		return b.done(), nil
	}
	for _, name := range r.MalformedFields() {
		c.issue(IssueMalformedNumeric, "%s 不是有效数字", name)
	}

	b.add(field("Recipe Number", r.Number.Or(model.NotSpecified), 0))
	rc := newRecipeCurves(r)
	if c.cfg.RecipeCurve() {
		ch, ok, degenerate := recipeChart(rc, c.theme, c.theme.Charts.RecipeCompact)
		switch {
		case !ok:
			c.issue(IssueMissingData, "配方没有可绘制的曲线点")
			b.add(notice(msgNoRecipeCurve))
		default:
			if degenerate {
				c.issue(IssueDegenerateDomain, "配方时间轴长度为 0")
			}
			b.add(
				chartBlock("Recipe Curve", ch, 0.66),
				table("Summary", []string{"Metric", "Value"}, recipeStats(rc), 0.33),
			)
		}
	}

	gases := r.SelectedGases()
	b.add(fields([]model.Field{
		{Label: "Cell Temperature", Value: plain(r.CellTemperature()) + " °C"},
		{Label: "Wait Time", Value: withUnit(r.WaitTime, "min")},
		{Label: "Wait Gas", Value: r.WaitGas.Or("-")},
		{Label: "Wait Flow", Value: withUnit(r.WaitFlow, "Nl/h")},
		{Label: "Wait Pressure", Value: withUnit(r.WaitPressure, "mb")},
		{Label: "Selected gases", Value: orDash(strings.Join(gases, ", "))},
	}, 3)...)

	if c.cfg.RecipeDetails() {
		if !r.Preox.Empty() {
			b.add(subheading("Preoxidation"))
			b.add(fields([]model.Field{
				{Label: "Temperature", Value: withUnit(r.Preox.Temperature, "°C")},
				{Label: "Duration", Value: withUnit(r.Preox.Duration, "min")},
				{Label: "Media", Value: r.Preox.Media.Or("-")},
			}, 3)...)
		}
		if len(r.ThermalCycle) > 0 {
			b.add(thermalTable(r))
		}
		if len(r.ChemicalCycle) > 0 {
			b.add(chemicalTable(r, rc))
		}
		b.add(quenchBlocks(c.in.Quench)...)
	}

	if len(photos) > 0 {
		c.arrangedPhotos(b, "Recipe Photos", photos, false)
	}
	return b.done(), nil
}

func thermalTable(r *model.RecipeData) Block {
	steps := r.Thermal()
	rows := make([][]string, 0, len(steps))
	for i, s := range steps {
		raw := r.ThermalCycle[i]
		rows = append(rows, []string{fmt.Sprint(s.Step), model.RampLabel(s.Ramp), num(raw.Setpoint), num(raw.Duration)})
	}
	return table("Thermal Cycle", []string{"Step", "Ramp", "Setpoint (°C)", "Duration (min)"}, rows, 0)
}

func chemicalTable(r *model.RecipeData, rc recipeCurves) Block {
	gases := r.SelectedGases()
	if len(gases) == 0 {
		seen := map[string]bool{}
		for _, st := range rc.chemical {
			for _, g := range st.Gases {
				if !seen[g.Gas] {
					seen[g.Gas] = true
					gases = append(gases, g.Gas)
				}
			}
		}
	}
	header := []string{"Step", "Time (s)"}
	for _, g := range gases {
		header = append(header, g+" (Nl/h)")
	}
	header = append(header, "Pressure (mb)", "Turbine")

	rows := make([][]string, 0, len(rc.chemical))
	for i, st := range rc.chemical {
		raw := r.ChemicalCycle[i]
		row := []string{fmt.Sprint(st.Step), num(raw.Time)}
		for _, g := range gases {
			if f := st.Flow(g); f != 0 {
				row = append(row, plain(f))
			} else {
				row = append(row, "-")
			}
		}
		turbine := "No"
		if st.Turbine {
			turbine = "Yes"
		}
		rows = append(rows, append(row, num(raw.Pressure), turbine))
	}
	return table("Chemical Cycle", header, rows, 0)
}

func quenchBlocks(q *model.QuenchData) []Block {
	if !q.HasData() {
		return nil
	}
	var out []Block
	if g := q.Gas; g.HasData() {
		out = append(out, subheading("Gas Quench"))
		out = append(out, fields([]model.Field{
			{Label: "Inerting Delay", Value: withUnit(g.InertingDelay, "s")},
			{Label: "Inerting Pressure", Value: withUnit(g.InertingPressure, "mb")},
		}, 2)...)
		if len(g.SpeedParameters) > 0 {
			out = append(out, speedTable(g.SpeedParameters))
		}
		if len(g.PressureParameters) > 0 {
			rows := make([][]string, 0, len(g.PressureParameters))
			for i, p := range g.PressureParameters {
				rows = append(rows, []string{stepLabel(p, i), num(p.Duration), num(p.Pressure)})
			}
			out = append(out, table("Pressure Parameters", []string{"Step", "Duration (s)", "Pressure (mb)"}, rows, 0))
		}
	}
	if o := q.Oil; o.HasData() {
		out = append(out, subheading("Oil Quench"))
		out = append(out, fields([]model.Field{
			{Label: "Oil Temperature", Value: withUnit(o.Temperature, "°C")},
			{Label: "Inerting Delay", Value: withUnit(o.InertingDelay, "s")},
			{Label: "Dripping Time", Value: withUnit(o.DrippingTime, "s")},
			{Label: "Pressure", Value: withUnit(o.Pressure, "mb")},
		}, 2)...)
		if len(o.SpeedParameters) > 0 {
			out = append(out, speedTable(o.SpeedParameters))
		}
	}
	return out
}

func speedTable(params []model.QuenchParameter) Block {
	rows := make([][]string, 0, len(params))
	for i, p := range params {
		rows = append(rows, []string{stepLabel(p, i), num(p.Duration), num(p.Speed)})
	}
	return table("Speed Parameters", []string{"Step", "Duration (s)", "Speed (rpm)"}, rows, 0)
}

func stepLabel(p model.QuenchParameter, i int) string {
	if s := p.Step.String(); s != "" {
		return s
	}
	return fmt.Sprint(i + 1)
}

func composeCurves(c *sectionContext) ([]Page, error) {
	photos := c.photos()
	if len(photos) == 0 {
		if !c.photosPresent() {
			return nil, nil
		}
		b := c.pages()
		b.add(notice(msgNoCurves))
		return b.done(), nil
	}
	buckets := map[model.CurveKind][]model.Photo{}
	for _, p := range photos {
		buckets[p.Tag.Curve] = append(buckets[p.Tag.Curve], p)
	}
	b := c.pages()
	for _, kind := range model.CurveKinds {
		list := buckets[kind]
		if len(list) == 0 {
			continue
		}
		for i, pl := range c.theme.Photos.Arrange(len(list), string(c.section)) {
			title := kind.Title()
			if i > 0 {
				title += " (cont.)"
			}
			b.pageWith(photoGroup(title, list, pl))
		}
	}
	return b.done(), nil
}

func composeDatapaq(c *sectionContext) ([]Page, error) {
	photos := c.photos()
	if len(photos) == 0 {
		if !c.photosPresent() {
			return nil, nil
		}
		b := c.pages()
		b.add(notice(msgNoDatapaq))
		return b.done(), nil
	}
	b := c.pages()
	c.arrangedPhotos(b, "", photos, false)
	return b.done(), nil
}

// zoomGroup is the photos of one magnification of one sample.
type zoomGroup struct {
	label  string
	photos []model.Photo
}

func composeMicrography(c *sectionContext) ([]Page, error) {
	photos := c.photos()
	if len(photos) == 0 {
		if !c.photosPresent() {
			return nil, nil
		}
		b := c.pages()
		b.add(notice(msgNoMicrographs))
		return b.done(), nil
	}

	type sampleKey struct{ result, sample int }
	var order []sampleKey
	bySample := map[sampleKey][]model.Photo{}
	for _, p := range photos {
		k := sampleKey{p.Tag.ResultIndex, p.Tag.SampleIndex}
		if _, ok := bySample[k]; !ok {
			order = append(order, k)
		}
		bySample[k] = append(bySample[k], p)
	}
	// 未知的结果/样品排在最后
	rank := func(n int) int {
		if n == 0 {
			return math.MaxInt
		}
		return n
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if rank(a.result) != rank(b.result) {
			return rank(a.result) < rank(b.result)
		}
		return rank(a.sample) < rank(b.sample)
	})

	b := c.pages()
	for _, k := range order {
		groups := zoomGroups(bySample[k])
		heights := make([]float64, len(groups))
		for i, g := range groups {
			plan := photolayout.PlanFor(len(g.photos), string(c.section))
			rows := (len(g.photos) + plan.Columns - 1) / max(plan.Columns, 1)
			heights[i] = 30 + float64(rows)*(plan.ItemHeight+20)
		}
		title := c.sampleTitle(k.result, k.sample)
		for _, idx := range photolayout.PackGroups(heights, photoPageHeight, 3) {
			b.pageWith(subheading(title))
			for _, i := range idx {
				g := groups[i]
				plan := photolayout.PlanFor(len(g.photos), string(c.section))
				pl := photolayout.PageLayout{Layout: "zoom", Start: 0, End: len(g.photos), Columns: plan.Columns}
				for range g.photos {
					pl.Slots = append(pl.Slots, photolayout.Size{Width: plan.ItemWidth, Height: plan.ItemHeight})
				}
				b.add(photoGroup(g.label, g.photos, pl))
			}
		}
	}
	return b.done(), nil
}

// zoomGroups splits photos by magnification, ascending, then "other", then
// unspecified.
func zoomGroups(photos []model.Photo) []zoomGroup {
	var groups []zoomGroup
	for _, g := range groupBy(photos, func(p model.Photo) string { return p.Tag.Zoom }) {
		groups = append(groups, zoomGroup{label: g.key, photos: g.photos})
	}
	weight := func(z string) int {
		if n, ok := dsl.ZoomLevel(z); ok {
			return n
		}
		if z == "other" {
			return math.MaxInt - 1
		}
		return math.MaxInt
	}
	sort.SliceStable(groups, func(i, j int) bool { return weight(groups[i].label) < weight(groups[j].label) })
	for i := range groups {
		groups[i].label = zoomLabel(groups[i].label)
	}
	return groups
}

func zoomLabel(z string) string {
	switch {
	case z == "other":
		return "Other magnification"
	case z == "":
		return "Unspecified magnification"
	}
	return "Magnification " + strings.ToUpper(z[:1]) + z[1:]
}

// sampleTitle 例如 "Result 1 - Surface / Sample 2 - Core"。
func (c *sectionContext) sampleTitle(result, sample int) string {
	if result == 0 {
		return "Unassigned micrographs"
	}
	rt := fmt.Sprintf("Result %d", result)
	var res *model.Result
	if c.in.Results != nil && result <= len(c.in.Results.Results) {
		res = &c.in.Results.Results[result-1]
		rt = res.Title(result - 1)
	}
	if sample == 0 {
		return rt
	}
	st := fmt.Sprintf("Sample %d", sample)
	if res != nil && sample <= len(res.Samples) {
		st = res.Samples[sample-1].Title(sample - 1)
	}
	return rt + " / " + st
}

func composeControl(c *sectionContext) ([]Page, error) {
	rd := c.in.Results
	if rd == nil {
		return nil, nil
	}
	b := c.pages()
	if len(rd.Results) == 0 {
		b.add(notice(msgNoControl))
		return b.done(), nil
	}
	specs := c.in.Part.ECD()
	photos := c.photos()
	for i, res := range rd.Results {
		b.page()
		b.add(heading(res.Title(i)))
		unit := res.HardnessUnit()
		shown := 0
		for j, s := range res.Samples {
			if s.Empty() {
				continue
			}
			shown++
			b.add(subheading(s.Title(j)))
			b.add(c.sampleBlocks(s, s.Title(j), unit, specs, locationPhoto(photos, i+1, j+1))...)
		}
		if shown == 0 {
			c.issue(IssueMissingData, "%s 没有可显示的样品", res.Title(i))
			b.add(notice(msgNoControl))
		}
	}
	return b.done(), nil
}

func (c *sectionContext) sampleBlocks(s model.Sample, title, unit string, specs []model.ECDSpec, loc *model.Photo) []Block {
	var out []Block
	if len(s.HardnessPoints) > 0 {
		rows := make([][]string, 0, len(s.HardnessPoints))
		for _, p := range s.HardnessPoints {
			rows = append(rows, []string{p.Where(), num(p.Value)})
		}
		out = append(out, table("Hardness ("+unit+")", []string{"Position", "Value"}, rows, 0.5))
	}
	if s.HasECD() {
		rows := make([][]string, 0, len(s.ECD.Positions))
		for _, p := range s.ECD.Positions {
			rows = append(rows, []string{p.Location.Or("-"), num(p.Distance)})
		}
		out = append(out, table("ECD (mm)", []string{"Position", "Dist."}, rows, 0.5))
	}
	if v := s.ECD.HardnessValue.String(); v != "" {
		out = append(out, field("Ref. Hardness", v+" "+s.ECD.HardnessUnit.Or(unit), 0))
	}
	if loc != nil {
		size := c.theme.Photos.Size("thumbnail")
		out = append(out, Block{Kind: BlockPhotos, Photos: &PhotoGroup{
			Title:   "Location",
			Layout:  "thumbnail",
			Columns: 1,
			Items:   []PhotoItem{{Source: loc.Source, Caption: loc.Caption(), Width: size.Width, Height: size.Height}},
		}})
	}
	if line := hardnessStats(s.HardnessValues(), unit); line != "" {
		out = append(out, textBlock(StyleCaption, line))
	}
	if s.HasCurve() {
		ch, ok := hardnessChart(s.Series(), unit, specs, c.theme)
		if ok {
			out = append(out, chartBlock("Full Hardness Curves", ch, 0))
		} else {
			c.issue(IssueMissingData, "%s 没有有效的硬度读数", title)
			out = append(out, notice(msgNoHardness))
		}
	}
	return out
}

// locationPhoto returns the first control photo tagged for the sample.
func locationPhoto(photos []model.Photo, result, sample int) *model.Photo {
	for i := range photos {
		if photos[i].Tag.Matches(result, sample) {
			return &photos[i]
		}
	}
	return nil
}

func composePostTreatment(c *sectionContext) ([]Page, error) {
	text := c.in.Trial.PostTreatment
	photos := c.photos()
	if text.Empty() && len(photos) == 0 {
		return nil, nil
	}
	b := c.pages()
	if !text.Empty() {
		b.add(paragraph(text.String()))
	}
	c.arrangedPhotos(b, "", photos, true)
	return b.done(), nil
}

func composeObservations(c *sectionContext) ([]Page, error) {
	obs := c.in.Trial.ObservationText()
	conclusion := c.in.Trial.Conclusion
	photos := c.photos()
	if obs == "" && conclusion.Empty() && len(photos) == 0 {
		return nil, nil
	}
	b := c.pages()
	if obs != "" {
		b.add(subheading("Observations"), paragraph(obs))
	}
	if !conclusion.Empty() {
		b.add(subheading("Conclusion"), paragraph(conclusion.String()))
	}
	c.arrangedPhotos(b, "", photos, true)
	return b.done(), nil
}

// photoBucket keeps photos sharing a key in first-seen order.
type photoBucket struct {
	key    string
	photos []model.Photo
}

func groupBy(photos []model.Photo, key func(model.Photo) string) []photoBucket {
	var out []photoBucket
	index := map[string]int{}
	for _, p := range photos {
		k := key(p)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, photoBucket{key: k})
		}
		out[i].photos = append(out[i].photos, p)
	}
	return out
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
