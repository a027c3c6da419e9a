package fallback

import "placeimages/internal/models"

// Theme styles the placeholder image drawn for an entity.
type Theme struct {
	Background string
	Foreground string
	Emoji      string
	Label      string
}

const themeForeground = "FFFFFF"

// DefaultTheme is used when no rule matches.
var DefaultTheme = Theme{Background: "1E40AF", Foreground: themeForeground, Emoji: "🇳🇵", Label: "Nepal Tourism"}

var (
	lakeTheme      = Theme{"0EA5E9", themeForeground, "🏞️", "Nepal Lake"}
	mountainTheme  = Theme{"6B7280", themeForeground, "🏔️", "Nepal Mountains"}
	waterfallTheme = Theme{"06B6D4", themeForeground, "💧", "Nepal Waterfall"}

	lakeRule      = rule{fields: fieldName | fieldDescription, substr: []string{"lake"}, tokens: []string{"tal"}}
	mountainRule  = rule{fields: fieldName | fieldDescription, substr: []string{"mountain", "himal", "peak"}}
	waterfallRule = rule{fields: fieldName | fieldDescription, substr: []string{"waterfall"}}
)

// themeRules are evaluated in order; the first rule for the entity's bucket
// that matches wins. A rule with no substrings matches any entity in the bucket.
var themeRules = []struct {
	bucket Bucket
	rule   rule
	theme  Theme
}{
	{BucketHotel, rule{fields: fieldDescription, substr: []string{"luxury"}}, Theme{"B45309", themeForeground, "✨", "Luxury Nepal"}},
	{BucketHotel, rule{fields: fieldDescription | fieldLocation, substr: []string{"mountain", "everest"}}, Theme{"059669", themeForeground, "🏔️", "Mountain Lodge"}},
	{BucketHotel, rule{}, Theme{"7C3AED", themeForeground, "🏨", "Nepal Hotel"}},

	{BucketRestaurant, rule{fields: fieldDescription, substr: []string{"traditional", "nepali"}}, Theme{"DC2626", themeForeground, "🥘", "Nepali Cuisine"}},
	{BucketRestaurant, rule{fields: fieldDescription, substr: []string{"international"}}, Theme{"7C2D12", themeForeground, "🌍", "International"}},
	{BucketRestaurant, rule{}, Theme{"EA580C", themeForeground, "🍽️", "Nepal Dining"}},

	{BucketCultural, rule{fields: fieldName | fieldDescription, substr: []string{"buddha", "stupa", "monastery"}}, Theme{"F59E0B", themeForeground, "☸️", "Buddhist Site"}},
	{BucketCultural, rule{fields: fieldName | fieldDescription, substr: []string{"hindu", "mandir"}}, Theme{"DC2626", themeForeground, "🕉️", "Hindu Temple"}},
	{BucketCultural, rule{}, Theme{"DC2626", themeForeground, "🏛️", "Nepal Temple"}},

	{BucketNatural, lakeRule, lakeTheme},
	{BucketNatural, mountainRule, mountainTheme},
	{BucketNatural, waterfallRule, waterfallTheme},
	{BucketNatural, rule{}, Theme{"059669", themeForeground, "🏞️", "Nepal Nature"}},

	{BucketTrekking, rule{fields: fieldDescription | fieldLocation, substr: []string{"everest"}}, Theme{"1F2937", themeForeground, "🏔️", "Everest Trek"}},
	{BucketTrekking, rule{fields: fieldDescription | fieldLocation, substr: []string{"annapurna"}}, Theme{"059669", themeForeground, "⛰️", "Annapurna Trek"}},
	{BucketTrekking, rule{}, Theme{"7C2D12", themeForeground, "🥾", "Nepal Trekking"}},

	{BucketVillage, rule{fields: fieldDescription, substr: []string{"sherpa"}}, Theme{"374151", themeForeground, "🏔️", "Sherpa Village"}},
	{BucketVillage, rule{fields: fieldLocation, substr: []string{"everest"}}, Theme{"374151", themeForeground, "🏔️", "Sherpa Village"}},
	{BucketVillage, rule{fields: fieldDescription, substr: []string{"traditional"}}, Theme{"DC2626", themeForeground, "🏠", "Traditional Village"}},
	{BucketVillage, rule{}, Theme{"B45309", themeForeground, "🏘️", "Nepal Village"}},

	{BucketOther, rule{fields: fieldName, substr: []string{"national park"}}, Theme{"16A34A", themeForeground, "🌲", "Nepal Park"}},
	{BucketOther, rule{fields: fieldName, substr: []string{"lake"}, tokens: []string{"tal"}}, lakeTheme},
	{BucketOther, rule{fields: fieldName, substr: []string{"mountain", "himal", "peak"}}, mountainTheme},
	{BucketOther, rule{fields: fieldName, substr: []string{"waterfall"}}, waterfallTheme},
}

// ThemeFor picks the placeholder theme for an entity.
func ThemeFor(e *models.Entity) Theme {
	t := newText(e)
	b := t.bucket()
	for _, tr := range themeRules {
		if tr.bucket != b {
			continue
		}
		if tr.rule.always() || t.match(tr.rule) {
			return tr.theme
		}
	}
	return DefaultTheme
}
