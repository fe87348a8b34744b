package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/ByLCY/trialreport/dsl"
)

// Photo is one uploaded image as listed in the payload.
type Photo struct {
	ID            Text `json:"id"`
	NodeID        Text `json:"node_id"`
	URL           Text `json:"url"`
	ViewPath      Text `json:"viewPath"`
	ViewPathSnake Text `json:"view_path"`
	FilePath      Text `json:"file_path"`
	Description   Text `json:"description"`
	OriginalName  Text `json:"original_name"`
	Name          Text `json:"name"`
	Category      Text `json:"category"`
	Subcategory   Text `json:"subcategory"`

	// Source 是最终用于渲染的地址，归一化时填入。
	Source string `json:"-"`
	Tag    Tag    `json:"-"`
}

// Caption returns description, original name or name.
func (p Photo) Caption() string {
	return first(p.Description, p.OriginalName, p.Name).String()
}

// source resolves url → viewPath → file_path → idPattern.
func (p Photo) source(idPattern string) string {
	if s := first(p.URL, p.ViewPath, p.ViewPathSnake, p.FilePath); !s.Empty() {
		return s.String()
	}
	if idPattern == "" || (p.ID.Empty() && p.NodeID.Empty()) {
		return ""
	}
	r := strings.NewReplacer("{id}", p.ID.String(), "{node_id}", first(p.NodeID, p.ID).String())
	return r.Replace(idPattern)
}

// CurveKind is the furnace-curve category of a photo.
type CurveKind string

const (
	CurveHeating   CurveKind = "heating"
	CurveCooling   CurveKind = "cooling"
	CurveTempering CurveKind = "tempering"
	CurveAlarms    CurveKind = "alarms"
	CurveDatapaq   CurveKind = "datapaq"
	CurveOther     CurveKind = "other"
)

// CurveKinds is the fixed display order of the curve categories.
var CurveKinds = []CurveKind{CurveHeating, CurveCooling, CurveTempering, CurveAlarms, CurveDatapaq, CurveOther}

// Title 例如 "Heating"。
func (k CurveKind) Title() string {
	switch k {
	case CurveHeating:
		return "Heating"
	case CurveCooling:
		return "Cooling"
	case CurveTempering:
		return "Tempering"
	case CurveAlarms:
		return "Alarms"
	case CurveDatapaq:
		return "Datapaq"
	}
	return "Other"
}

var curveAliases = map[string]CurveKind{
	"heating": CurveHeating, "heat": CurveHeating, "chauffage": CurveHeating,
	"cooling": CurveCooling, "cool": CurveCooling, "refroidissement": CurveCooling,
	"tempering": CurveTempering, "temper": CurveTempering, "revenu": CurveTempering,
	"alarms": CurveAlarms, "alarm": CurveAlarms, "alarmes": CurveAlarms, "alarme": CurveAlarms,
	"datapaq": CurveDatapaq,
}

// curveKeywords 按优先级排列，用于文件名回退匹配。
var curveKeywords = []string{"chauffage", "heating", "refroidissement", "cooling", "revenu", "tempering", "alarm", "datapaq"}

// ParseCurveKind classifies a subcategory, then falls back to keywords in
// the given names.
func ParseCurveKind(subcategory string, names ...string) CurveKind {
	if k, ok := curveAliases[strings.ToLower(strings.TrimSpace(subcategory))]; ok {
		return k
	}
	for _, name := range names {
		lower := strings.ToLower(name)
		for _, kw := range curveKeywords {
			if strings.Contains(lower, kw) {
				if kw == "alarm" {
					return CurveAlarms
				}
				return curveAliases[kw]
			}
		}
	}
	return CurveOther
}

// Tag is the classification of a photo, computed once at ingestion.
type Tag struct {
	ResultIndex int // 1-based, 0 unknown
	SampleIndex int // 1-based, 0 unknown
	Zoom        string
	Curve       CurveKind
}

// Classify derives the tag of p from its subcategory, falling back to its
// file names.
func Classify(p Photo) Tag {
	names := []string{p.OriginalName.String(), p.Name.String(), path.Base(p.FilePath.String())}
	tag := Tag{Curve: ParseCurveKind(p.Subcategory.String(), names...)}
	sub := p.Subcategory.String()
	if parsed, err := dsl.ParseTag(sub); err == nil {
		tag.ResultIndex = parsed.Result
		tag.SampleIndex = parsed.SampleIndex()
		tag.Zoom = parsed.ZoomLabel()
		return tag
	}
	if _, ok := dsl.ZoomLevel(sub); ok || strings.EqualFold(sub, "other") {
		_, _, tag.Zoom = dsl.ScanName(" " + sub + " ")
		if tag.Zoom == "" {
			tag.Zoom = "other"
		}
	}
	for _, name := range names {
		r, s, z := dsl.ScanName(name)
		if tag.ResultIndex == 0 {
			tag.ResultIndex = r
		}
		if tag.SampleIndex == 0 {
			tag.SampleIndex = s
		}
		if tag.Zoom == "" {
			tag.Zoom = z
		}
	}
	return tag
}

// Matches reports whether the tag belongs to the given result and sample
// (1-based).
func (t Tag) Matches(result, sample int) bool {
	return t.ResultIndex == result && t.SampleIndex == sample
}

// Section keys after canonicalisation.
const (
	SectionIdentification = "identification"
	SectionLoad           = "load"
	SectionRecipe         = "recipe"
	SectionCurves         = "curves"
	SectionDatapaq        = "datapaq"
	SectionMicrography    = "micrography"
	SectionControl        = "control"
	SectionPostTreatment  = "postTreatment"
	SectionObservations   = "observations"
)

var sectionAliases = map[string]string{
	"identification": SectionIdentification,
	"part":           SectionIdentification,
	"load":           SectionLoad,
	"loaddesign":     SectionLoad,
	"loaddata":       SectionLoad,
	"recipe":         SectionRecipe,
	"curves":         SectionCurves,
	"furnacereport":  SectionCurves,
	"furnacecurves":  SectionCurves,
	"datapaq":        SectionDatapaq,
	"micrography":    SectionMicrography,
	"micrographs":    SectionMicrography,
	"micrographies":  SectionMicrography,
	"control":        SectionControl,
	"posttreatment":  SectionPostTreatment,
	"observations":   SectionObservations,
	"observation":    SectionObservations,
}

// CanonicalSection maps the spellings used by the API onto section keys.
// Unknown keys are returned unchanged.
func CanonicalSection(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.NewReplacer("_", "", "-", "", " ", "").Replace(k)
	if s, ok := sectionAliases[k]; ok {
		return s
	}
	return strings.TrimSpace(key)
}

// AssetResolver may rewrite or veto the source of a photo.
type AssetResolver interface {
	Resolve(ctx context.Context, p Photo) (string, error)
}

// DroppedPhoto records a photo left out of the report.
type DroppedPhoto struct {
	Section string
	Name    string
	Reason  string
}

// PhotoSet is the normalised photo collection, bucketed by section.
type PhotoSet struct {
	sections map[string][]Photo
	present  map[string]bool
	dropped  []DroppedPhoto
}

// Section returns the valid photos of a section in payload order.
func (s PhotoSet) Section(name string) []Photo {
	return s.sections[CanonicalSection(name)]
}

// Present reports whether the payload carried a bucket for the section,
// even an empty one.
func (s PhotoSet) Present(name string) bool {
	return s.present[CanonicalSection(name)]
}

// Count returns the number of valid photos.
func (s PhotoSet) Count() int {
	n := 0
	for _, ps := range s.sections {
		n += len(ps)
	}
	return n
}

// Sections returns the section keys that hold photos or a bucket, sorted.
func (s PhotoSet) Sections() []string {
	seen := make(map[string]bool)
	for k := range s.sections {
		seen[k] = true
	}
	for k := range s.present {
		seen[k] = true
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Dropped lists the photos discarded during normalisation.
func (s PhotoSet) Dropped() []DroppedPhoto {
	return s.dropped
}

// PhotoOption configures NormalizePhotos.
type PhotoOption func(*photoOptions)

type photoOptions struct {
	idPattern string
	resolver  AssetResolver
	ctx       context.Context
}

// WithIDPattern sets the URL pattern used for photos that only carry an
// id, e.g. "/api/files/{id}/view".
func WithIDPattern(pattern string) PhotoOption {
	return func(o *photoOptions) { o.idPattern = pattern }
}

// WithResolver lets r rewrite or veto each photo source.
func WithResolver(ctx context.Context, r AssetResolver) PhotoOption {
	return func(o *photoOptions) {
		o.ctx = ctx
		o.resolver = r
	}
}

// NormalizePhotos accepts either a flat list of photos (section taken from
// category) or a map section → list / section → subcategory → list, and
// returns the valid, classified photos per section.
func NormalizePhotos(raw json.RawMessage, opts ...PhotoOption) (PhotoSet, error) {
	o := photoOptions{ctx: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}
	set := PhotoSet{sections: map[string][]Photo{}, present: map[string]bool{}}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return set, nil
	}
	switch trimmed[0] {
	case '[':
		var list []Photo
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return set, fmt.Errorf("照片列表无效: %w", err)
		}
		for _, p := range list {
			section := CanonicalSection(p.Category.String())
			if section != "" {
				set.present[section] = true
			}
			set.add(&o, section, p)
		}
	case '{':
		buckets, err := orderedObject(trimmed)
		if err != nil {
			return set, fmt.Errorf("照片分组无效: %w", err)
		}
		for _, b := range buckets {
			section := CanonicalSection(b.key)
			set.present[section] = true
			if err := set.addBucket(&o, section, b.key, b.value); err != nil {
				return set, err
			}
		}
	default:
		return set, fmt.Errorf("照片字段类型无效")
	}
	return set, nil
}

func (s *PhotoSet) addBucket(o *photoOptions, section, key string, raw json.RawMessage) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '[' {
		var list []Photo
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return fmt.Errorf("照片分组 %s 无效: %w", key, err)
		}
		for _, p := range list {
			if p.Category.Empty() {
				p.Category = Text(key)
			}
			s.add(o, section, p)
		}
		return nil
	}
	subs, err := orderedObject(trimmed)
	if err != nil {
		return fmt.Errorf("照片分组 %s 无效: %w", key, err)
	}
	for _, sub := range subs {
		var list []Photo
		if err := json.Unmarshal(sub.value, &list); err != nil {
			return fmt.Errorf("照片分组 %s/%s 无效: %w", key, sub.key, err)
		}
		for _, p := range list {
			if p.Category.Empty() {
				p.Category = Text(key)
			}
			if p.Subcategory.Empty() {
				p.Subcategory = Text(sub.key)
			}
			s.add(o, section, p)
		}
	}
	return nil
}

func (s *PhotoSet) add(o *photoOptions, section string, p Photo) {
	name := first(p.OriginalName, p.Name, p.ID).String()
	if section == "" {
		s.dropped = append(s.dropped, DroppedPhoto{Section: section, Name: name, Reason: "无分类"})
		return
	}
	p.Source = p.source(o.idPattern)
	if p.Source == "" {
		s.dropped = append(s.dropped, DroppedPhoto{Section: section, Name: name, Reason: "无图片地址"})
		return
	}
	if o.resolver != nil {
		if err := o.ctx.Err(); err != nil {
			s.dropped = append(s.dropped, DroppedPhoto{Section: section, Name: name, Reason: err.Error()})
			return
		}
		src, err := o.resolver.Resolve(o.ctx, p)
		if err != nil {
			s.dropped = append(s.dropped, DroppedPhoto{Section: section, Name: name, Reason: err.Error()})
			return
		}
		p.Source = src
	}
	p.Tag = Classify(p)
	s.sections[section] = append(s.sections[section], p)
}

type keyedRaw struct {
	key   string
	value json.RawMessage
}

// orderedObject decodes a JSON object keeping the key order of the source.
func orderedObject(data []byte) ([]keyedRaw, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var out []keyedRaw
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("意外的键 %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		out = append(out, keyedRaw{key: key, value: value})
	}
	return out, nil
}
