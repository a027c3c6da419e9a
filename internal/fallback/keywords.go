package fallback

import (
	"strings"
	"unicode"

	"placeimages/internal/models"
)

// Fields a rule can inspect.
type field uint8

const (
	fieldType field = 1 << iota
	fieldName
	fieldDescription
	fieldLocation
	fieldTags
	fieldActivities
)

// Bucket is the coarse category derived from an entity's type.
type Bucket int

// Buckets
const (
	BucketOther Bucket = iota
	BucketHotel
	BucketRestaurant
	BucketCultural
	BucketNatural
	BucketTrekking
	BucketVillage
)

var bucketNames = map[Bucket]string{
	BucketOther:      "other",
	BucketHotel:      "hotel",
	BucketRestaurant: "restaurant",
	BucketCultural:   "cultural",
	BucketNatural:    "natural",
	BucketTrekking:   "trekking",
	BucketVillage:    "village",
}

func (b Bucket) String() string { return bucketNames[b] }

// rule matches when any substring occurs in, or any token equals a word of,
// one of the selected fields. Tokens cover short words such as "tal" that
// would otherwise match inside longer words.
type rule struct {
	fields field
	substr []string
	tokens []string
}

func (r rule) always() bool { return len(r.substr) == 0 && len(r.tokens) == 0 }

// text is the lowercased view of an entity the rules run against.
type text struct {
	values map[field]string
	words  map[field]map[string]struct{}
}

func newText(e *models.Entity) text {
	t := text{values: map[field]string{}, words: map[field]map[string]struct{}{}}
	if e == nil {
		return t
	}
	set := func(f field, v string) {
		v = strings.ToLower(v)
		t.values[f] = v
		ws := map[string]struct{}{}
		for _, w := range strings.FieldsFunc(v, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}) {
			ws[w] = struct{}{}
		}
		t.words[f] = ws
	}
	set(fieldType, e.Category())
	set(fieldName, e.Name)
	set(fieldDescription, e.Description)
	set(fieldLocation, e.Location)
	set(fieldTags, strings.Join(e.Tags, " "))
	set(fieldActivities, e.Activities)
	return t
}

func (t text) match(r rule) bool {
	for f := fieldType; f <= fieldActivities; f <<= 1 {
		if r.fields&f == 0 {
			continue
		}
		v := t.values[f]
		if v == "" {
			continue
		}
		for _, s := range r.substr {
			if strings.Contains(v, s) {
				return true
			}
		}
		for _, tok := range r.tokens {
			if _, ok := t.words[f][tok]; ok {
				return true
			}
		}
	}
	return false
}

// termRule adds terms when its rule matches.
type termRule struct {
	rule
	terms []string
}

// bucketRule maps a type to its bucket. Evaluated in order.
var bucketRules = []struct {
	rule
	bucket Bucket
}{
	{rule{fields: fieldType, substr: []string{"hotel", "accommodation", "lodge", "resort", "guesthouse"}}, BucketHotel},
	{rule{fields: fieldType, substr: []string{"restaurant", "food", "cafe", "dining"}}, BucketRestaurant},
	{rule{fields: fieldType, substr: []string{"temple", "cultural", "religious"}}, BucketCultural},
	{rule{fields: fieldType, substr: []string{"natural", "nature"}}, BucketNatural},
	{rule{fields: fieldType, substr: []string{"trekking", "adventure"}}, BucketTrekking},
	{rule{fields: fieldType, substr: []string{"village", "rural"}}, BucketVillage},
}

// BucketOf returns the category bucket for an entity.
func BucketOf(e *models.Entity) Bucket {
	return newText(e).bucket()
}

func (t text) bucket() Bucket {
	for _, br := range bucketRules {
		if t.match(br.rule) {
			return br.bucket
		}
	}
	return BucketOther
}

type bucketTerms struct {
	base []string
	// first matching sub rule wins; the final entry has no rule and always applies
	sub []termRule
}

var categoryTerms = map[Bucket]bucketTerms{
	BucketHotel: {
		base: []string{"hotel", "accommodation", "lodge"},
		sub: []termRule{
			{rule{fields: fieldLocation, substr: []string{"kathmandu"}}, []string{"kathmandu", "hotel"}},
			{rule{fields: fieldLocation, substr: []string{"pokhara"}}, []string{"pokhara", "lakeside", "hotel"}},
			{rule{fields: fieldLocation, substr: []string{"everest", "solukhumbu"}}, []string{"everest", "mountain", "lodge"}},
			{rule{}, []string{"mountain", "lodge", "traditional"}},
		},
	},
	BucketRestaurant: {
		base: []string{"restaurant", "food", "dining"},
		sub: []termRule{
			{rule{fields: fieldDescription, substr: []string{"traditional", "nepali"}}, []string{"traditional", "nepali", "cuisine"}},
			{rule{fields: fieldDescription, substr: []string{"international"}}, []string{"international", "dining"}},
			{rule{}, []string{"local", "food", "authentic"}},
		},
	},
	BucketCultural: {
		base: []string{"temple", "cultural", "heritage"},
		sub: []termRule{
			{rule{fields: fieldName | fieldDescription | fieldTags, substr: []string{"buddha", "stupa", "monastery", "gompa"}}, []string{"buddhist", "stupa", "monastery"}},
			{rule{fields: fieldName | fieldDescription | fieldTags, substr: []string{"hindu", "mandir", "shiva", "pashupati"}}, []string{"hindu", "temple", "pagoda"}},
			{rule{}, []string{"traditional", "architecture", "sacred"}},
		},
	},
	BucketNatural: {
		sub: []termRule{
			{rule{fields: fieldName | fieldDescription, substr: []string{"lake"}, tokens: []string{"tal"}}, []string{"lake", "reflection", "pristine"}},
			{rule{fields: fieldName | fieldDescription, substr: []string{"mountain", "himal", "peak"}}, []string{"mountain", "himalayan", "peaks"}},
			{rule{fields: fieldName | fieldDescription, substr: []string{"forest", "jungle"}}, []string{"forest", "wilderness", "nature"}},
			{rule{fields: fieldName | fieldDescription, substr: []string{"waterfall", "falls"}}, []string{"waterfall", "cascade", "natural"}},
			{rule{}, []string{"landscape", "scenic", "natural"}},
		},
	},
	BucketTrekking: {
		base: []string{"trekking", "hiking", "adventure"},
		sub: []termRule{
			{rule{fields: fieldDescription | fieldLocation | fieldName, substr: []string{"everest"}}, []string{"everest", "basecamp", "sherpa"}},
			{rule{fields: fieldDescription | fieldLocation | fieldName, substr: []string{"annapurna"}}, []string{"annapurna", "circuit", "mountain"}},
			{rule{}, []string{"trail", "mountain", "hiking"}},
		},
	},
	BucketVillage: {
		base: []string{"village", "rural", "traditional"},
		sub: []termRule{
			{rule{fields: fieldDescription, substr: []string{"sherpa"}}, []string{"sherpa", "culture", "mountain"}},
			{rule{fields: fieldLocation, substr: []string{"everest"}}, []string{"sherpa", "culture", "mountain"}},
			{rule{fields: fieldDescription, substr: []string{"gurung", "magar", "tharu", "newar"}}, []string{"ethnic", "culture", "traditional"}},
			{rule{}, []string{"rural", "authentic", "lifestyle"}},
		},
	},
}

// nameTerms pick up features named in the entity itself, for every bucket
// but hotel and restaurant.
var nameTerms = []termRule{
	{rule{fields: fieldName, substr: []string{"lake"}, tokens: []string{"tal"}}, []string{"lake"}},
	{rule{fields: fieldName, substr: []string{"mountain", "himal", "peak"}}, []string{"mountain"}},
	{rule{fields: fieldName, substr: []string{"waterfall"}}, []string{"waterfall"}},
	{rule{fields: fieldName, substr: []string{"temple", "mandir"}}, []string{"temple"}},
	{rule{fields: fieldName, substr: []string{"national park"}}, []string{"wildlife", "park"}},
	{rule{fields: fieldName, substr: []string{"village"}, tokens: []string{"gaun"}}, []string{"village"}},
}

// locationTerms: first match only.
var locationTerms = []termRule{
	{rule{fields: fieldLocation, substr: []string{"kathmandu"}}, []string{"kathmandu", "valley", "capital"}},
	{rule{fields: fieldLocation, substr: []string{"pokhara"}}, []string{"pokhara", "lakeside", "annapurna"}},
	{rule{fields: fieldLocation, substr: []string{"chitwan"}}, []string{"chitwan", "jungle", "wildlife"}},
	{rule{fields: fieldLocation, substr: []string{"lumbini"}}, []string{"lumbini", "birthplace", "buddha"}},
	{rule{fields: fieldLocation, substr: []string{"everest", "solukhumbu"}}, []string{"everest", "khumbu"}},
}

// contentTerms: every match applies.
var contentTerms = []termRule{
	{rule{fields: fieldActivities, substr: []string{"viewpoint"}}, []string{"viewpoint", "panoramic", "vista"}},
	{rule{fields: fieldActivities, substr: []string{"hiking"}}, []string{"hiking", "trail", "outdoor"}},
	{rule{fields: fieldActivities, substr: []string{"photography"}}, []string{"scenic", "photogenic", "beautiful"}},
	{rule{fields: fieldDescription | fieldTags, substr: []string{"strawberry", "farm"}}, []string{"farm", "agriculture", "rural"}},
	{rule{fields: fieldDescription | fieldTags, substr: []string{"trout", "fish"}}, []string{"fishing", "trout", "fresh"}},
	{rule{fields: fieldDescription | fieldTags, substr: []string{"panoramic", "view"}}, []string{"panoramic", "view", "scenic"}},
	{rule{fields: fieldDescription | fieldTags, substr: []string{"ancient", "historical"}}, []string{"ancient", "historical", "heritage"}},
	{rule{fields: fieldTags, substr: []string{"monastery"}}, []string{"monastery"}},
	{rule{fields: fieldTags, substr: []string{"waterfall"}}, []string{"waterfall"}},
}

var (
	baseTerm     = "nepal"
	defaultTerms = []string{"tourism", "destination", "travel"}
)

// Keywords derives the ordered, de-duplicated search terms for an entity.
// The result always starts with "nepal".
func Keywords(e *models.Entity) []string {
	t := newText(e)
	b := t.bucket()

	terms := []string{baseTerm}
	if ct, ok := categoryTerms[b]; ok {
		terms = append(terms, ct.base...)
		for _, sr := range ct.sub {
			if sr.always() || t.match(sr.rule) {
				terms = append(terms, sr.terms...)
				break
			}
		}
	}
	if b != BucketHotel && b != BucketRestaurant {
		for _, nr := range nameTerms {
			if t.match(nr.rule) {
				terms = append(terms, nr.terms...)
			}
		}
	}
	for _, lr := range locationTerms {
		if t.match(lr.rule) {
			terms = append(terms, lr.terms...)
			break
		}
	}
	for _, cr := range contentTerms {
		if t.match(cr.rule) {
			terms = append(terms, cr.terms...)
		}
	}
	if b == BucketOther {
		terms = append(terms, defaultTerms...)
	}
	return dedupe(terms)
}

// LocationTerm returns the primary location keyword, or "".
func LocationTerm(e *models.Entity) string {
	t := newText(e)
	for _, lr := range locationTerms {
		if t.match(lr.rule) {
			return lr.terms[0]
		}
	}
	return ""
}

// canonicalRules pick the single keyword used by the type-keyed provider.
var canonicalRules = []struct {
	rule
	term string
}{
	{rule{fields: fieldType, substr: []string{"hotel", "accommodation", "lodge", "resort", "guesthouse"}}, "hotel"},
	{rule{fields: fieldType, substr: []string{"restaurant", "food", "cafe", "dining"}}, "food"},
	{rule{fields: fieldType, substr: []string{"temple", "cultural", "religious"}}, "temple"},
	{rule{fields: fieldName, substr: []string{"lake"}, tokens: []string{"tal"}}, "lake"},
	{rule{fields: fieldName, substr: []string{"waterfall"}}, "waterfall"},
	{rule{fields: fieldType, substr: []string{"natural", "nature"}}, "mountain"},
	{rule{fields: fieldName, substr: []string{"mountain", "himal", "peak"}}, "mountain"},
	{rule{fields: fieldType, substr: []string{"trekking", "adventure"}}, "trekking"},
	{rule{fields: fieldType, substr: []string{"village", "rural"}}, "village"},
	{rule{fields: fieldName, substr: []string{"village"}, tokens: []string{"gaun"}}, "village"},
}

// CanonicalTerm returns the one keyword that best names the entity's category.
func CanonicalTerm(e *models.Entity) string {
	t := newText(e)
	for _, cr := range canonicalRules {
		if t.match(cr.rule) {
			return cr.term
		}
	}
	return "tourism"
}

// vocabularies restrict keywords for the category provider.
var vocabularies = map[Bucket][]string{
	BucketHotel:      {"nepal", "hotel", "accommodation", "lodge", "resort", "mountain", "lakeside", "traditional"},
	BucketRestaurant: {"nepal", "restaurant", "food", "dining", "cuisine", "traditional", "nepali"},
	BucketCultural:   {"nepal", "temple", "cultural", "heritage", "buddhist", "hindu", "pagoda", "stupa"},
	BucketNatural:    {"nepal", "mountain", "lake", "forest", "waterfall", "himalayan", "landscape", "scenic"},
	BucketTrekking:   {"nepal", "trekking", "hiking", "adventure", "everest", "annapurna", "trail"},
	BucketVillage:    {"nepal", "village", "rural", "traditional", "sherpa", "culture", "authentic"},
	BucketOther:      {"nepal", "tourism", "destination", "travel", "scenic", "beautiful", "lake", "mountain"},
}

var vocabularyDefaults = map[Bucket][]string{
	BucketHotel:      {"nepal", "hotel", "accommodation"},
	BucketRestaurant: {"nepal", "restaurant", "food"},
	BucketCultural:   {"nepal", "temple", "heritage"},
	BucketNatural:    {"nepal", "mountain", "landscape"},
	BucketTrekking:   {"nepal", "trekking", "mountain"},
	BucketVillage:    {"nepal", "village", "traditional"},
	BucketOther:      {"nepal", "tourism", "destination"},
}

// CategoryKeywords filters keywords to the bucket vocabulary and caps the result.
func CategoryKeywords(b Bucket, keywords []string, limit int) []string {
	allowed := map[string]struct{}{}
	for _, w := range vocabularies[b] {
		allowed[w] = struct{}{}
	}
	var out []string
	for _, k := range keywords {
		if _, ok := allowed[k]; ok {
			out = append(out, k)
		}
	}
	if len(out) == 0 {
		out = vocabularyDefaults[b]
	}
	return capTerms(out, limit)
}

func capTerms(terms []string, limit int) []string {
	if limit > 0 && len(terms) > limit {
		return terms[:limit]
	}
	return terms
}

func dedupe(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := terms[:0]
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
