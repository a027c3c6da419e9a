package fallback

import (
	"fmt"
	"net/url"
	"strings"

	"placeimages/internal/models"
)

// Strategy names, in default priority order.
const (
	StrategyTypeKeyed   = "type_keyed"
	StrategyContextual  = "contextual"
	StrategyCategory    = "category"
	StrategyPlaceholder = "placeholder"
)

// Strategy builds one candidate image URL for an entity.
type Strategy interface {
	Name() string
	Candidate(e *models.Entity, placeID string, keywords []string) (string, bool)
}

// Guaranteed is implemented by strategies whose URL is accepted without a preload.
type Guaranteed interface {
	Guaranteed() bool
}

// Providers configures the external image services.
type Providers struct {
	KeywordURL     string
	CategoryURL    string
	PlaceholderURL string
	Width          int
	Height         int
}

// DefaultProviders returns the public services the site has always used.
func DefaultProviders() Providers {
	return Providers{
		KeywordURL:     "https://source.unsplash.com",
		CategoryURL:    "https://loremflickr.com",
		PlaceholderURL: "https://via.placeholder.com",
		Width:          800,
		Height:         600,
	}
}

func (p Providers) withDefaults() Providers {
	d := DefaultProviders()
	if p.KeywordURL == "" {
		p.KeywordURL = d.KeywordURL
	}
	if p.CategoryURL == "" {
		p.CategoryURL = d.CategoryURL
	}
	if p.PlaceholderURL == "" {
		p.PlaceholderURL = d.PlaceholderURL
	}
	if p.Width <= 0 {
		p.Width = d.Width
	}
	if p.Height <= 0 {
		p.Height = d.Height
	}
	p.KeywordURL = strings.TrimRight(p.KeywordURL, "/")
	p.CategoryURL = strings.TrimRight(p.CategoryURL, "/")
	p.PlaceholderURL = strings.TrimRight(p.PlaceholderURL, "/")
	return p
}

// DefaultStrategies returns the four strategies in priority order.
func DefaultStrategies(p Providers) []Strategy {
	p = p.withDefaults()
	return []Strategy{
		TypeKeyed{Providers: p},
		Contextual{Providers: p, Limit: 4},
		Category{Providers: p, Limit: 3},
		Placeholder{Providers: p},
	}
}

// TypeKeyed queries the keyword provider with one canonical category term
// and the entity's primary location.
type TypeKeyed struct {
	Providers Providers
}

func (TypeKeyed) Name() string { return StrategyTypeKeyed }

func (s TypeKeyed) Candidate(e *models.Entity, placeID string, _ []string) (string, bool) {
	terms := []string{baseTerm, CanonicalTerm(e)}
	if loc := LocationTerm(e); loc != "" {
		terms = append(terms, loc)
	}
	return keywordURL(s.Providers, dedupe(terms), placeID), true
}

// Contextual queries the keyword provider with the leading derived keywords.
type Contextual struct {
	Providers Providers
	Limit     int
}

func (Contextual) Name() string { return StrategyContextual }

func (s Contextual) Candidate(_ *models.Entity, placeID string, keywords []string) (string, bool) {
	terms := capTerms(keywords, s.Limit)
	if len(terms) == 0 {
		return "", false
	}
	return keywordURL(s.Providers, terms, placeID), true
}

// Category queries the second provider with keywords restricted to the
// entity's category vocabulary. The lock parameter pins the photo per place.
type Category struct {
	Providers Providers
	Limit     int
}

func (Category) Name() string { return StrategyCategory }

func (s Category) Candidate(e *models.Entity, _ string, keywords []string) (string, bool) {
	terms := CategoryKeywords(BucketOf(e), keywords, s.Limit)
	if len(terms) == 0 {
		return "", false
	}
	p := s.Providers
	return fmt.Sprintf("%s/%d/%d/%s?lock=%d", p.CategoryURL, p.Width, p.Height,
		strings.Join(terms, ","), Seed(identity(e))), true
}

// Placeholder draws a themed solid-color image labelled with the entity name.
type Placeholder struct {
	Providers Providers
}

func (Placeholder) Name() string { return StrategyPlaceholder }

func (Placeholder) Guaranteed() bool { return true }

func (s Placeholder) Candidate(e *models.Entity, placeID string, _ []string) (string, bool) {
	theme := ThemeFor(e)
	name := "Nepal Destination"
	if e != nil && strings.TrimSpace(e.Name) != "" {
		name = strings.TrimSpace(e.Name)
	}
	p := s.Providers
	return fmt.Sprintf("%s/%dx%d/%s/%s?text=%s&sig=%s", p.PlaceholderURL, p.Width, p.Height,
		theme.Background, theme.Foreground, url.QueryEscape(theme.Emoji+" "+name), placeID), true
}

func keywordURL(p Providers, terms []string, placeID string) string {
	return fmt.Sprintf("%s/%dx%d/?%s&sig=%s", p.KeywordURL, p.Width, p.Height, strings.Join(terms, "+"), placeID)
}
