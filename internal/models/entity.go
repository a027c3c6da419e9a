package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Kind identifies which collection an entity record came from.
type Kind string

// Entity kinds
const (
	KindPlace      Kind = "place"
	KindHotel      Kind = "hotel"
	KindRestaurant Kind = "restaurant"
)

// Kinds lists every supported entity kind.
var Kinds = []Kind{KindPlace, KindHotel, KindRestaurant}

// ParseKind maps a path segment or type string to a Kind.
// Plural forms ("places", "hotels") are accepted.
func ParseKind(s string) (Kind, bool) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "place", "destination", "attraction":
		return KindPlace, true
	case "hotel":
		return KindHotel, true
	case "restaurant":
		return KindRestaurant, true
	}
	return "", false
}

// DisplayType returns the capitalised type name used when a record has no type of its own.
func (k Kind) DisplayType() string {
	switch k {
	case KindHotel:
		return "Hotel"
	case KindRestaurant:
		return "Restaurant"
	case KindPlace:
		return "Place"
	}
	return ""
}

// ID is an entity identifier. JSON numbers and strings are both accepted.
type ID string

// UnmarshalJSON accepts `12`, `"12"` and null.
func (id *ID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid entity id %s: %w", b, err)
	}
	*id = ID(n.String())
	return nil
}

// Entity is a place, hotel or restaurant record that needs a display image.
type Entity struct {
	ID          ID        `json:"id"`
	Kind        Kind      `json:"kind,omitempty"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	Tags        TagList   `json:"tags,omitempty"`
	Activities  string    `json:"activities,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Images      ImageList `json:"images,omitempty"`
	AllImages   ImageList `json:"all_images"`
}

// UnmarshalJSON decodes a record as the API serves it and normalizes the image lists.
func (e *Entity) UnmarshalJSON(b []byte) error {
	type plain Entity
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*e = Entity(p)
	e.Normalize()
	return nil
}

// Normalize drops empty, blank and "null" image references while keeping order.
func (e *Entity) Normalize() {
	if e == nil {
		return
	}
	e.AllImages = CleanImageRefs(e.AllImages)
	e.Images = CleanImageRefs(e.Images)
}

// Category returns the type that drives folder and theme mapping,
// falling back to the kind when the record carries no type.
func (e *Entity) Category() string {
	if e == nil {
		return ""
	}
	if t := strings.TrimSpace(e.Type); t != "" {
		return t
	}
	return e.Kind.DisplayType()
}

// IsBlankRef reports whether a stored image reference means "no image".
func IsBlankRef(ref string) bool {
	trimmed := strings.TrimSpace(ref)
	return trimmed == "" || trimmed == "null"
}

// CleanImageRefs returns refs without blank or "null" entries.
func CleanImageRefs(refs []string) []string {
	if len(refs) == 0 {
		return refs
	}
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if IsBlankRef(r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ImageList is an ordered list of image references. It decodes from a JSON
// array, a JSON-encoded array inside a string (as stored in TEXT columns),
// a single bare string, or null.
type ImageList []string

// UnmarshalJSON implements the lenient decoding described on ImageList.
func (l *ImageList) UnmarshalJSON(b []byte) error {
	list, err := decodeStringList(b, false)
	if err != nil {
		return err
	}
	*l = list
	return nil
}

// ParseImageList decodes a raw column value such as `["a.jpg","b.jpg"]`.
// Anything that is not a JSON array is treated as a single reference.
func ParseImageList(raw string) ImageList {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		if list, err := decodeStringList([]byte(trimmed), false); err == nil {
			return CleanImageRefs(list)
		}
	}
	return CleanImageRefs([]string{trimmed})
}

// TagList decodes from a JSON array or a comma-separated string.
type TagList []string

// UnmarshalJSON implements the lenient decoding described on TagList.
func (l *TagList) UnmarshalJSON(b []byte) error {
	list, err := decodeStringList(b, true)
	if err != nil {
		return err
	}
	*l = list
	return nil
}

// String joins the tags with ", ".
func (l TagList) String() string {
	return strings.Join(l, ", ")
}

// SplitTags splits a comma-separated tag column.
func SplitTags(raw string) TagList {
	var tags TagList
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func decodeStringList(b []byte, splitCommas bool) ([]string, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil, nil
	}

	switch b[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(b, &items); err != nil {
			return nil, fmt.Errorf("invalid list: %w", err)
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				// null or non-string entries carry no reference
				continue
			}
			out = append(out, s)
		}
		return out, nil
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil, fmt.Errorf("invalid list string: %w", err)
		}
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "[") {
			if nested, err := decodeStringList([]byte(s), splitCommas); err == nil {
				return nested, nil
			}
		}
		if splitCommas {
			return SplitTags(s), nil
		}
		if s == "" {
			return nil, nil
		}
		return []string{s}, nil
	}
	return nil, nil
}
