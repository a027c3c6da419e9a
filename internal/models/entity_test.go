package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestEntity_UnmarshalAllImages(t *testing.T) {
	tests := []struct {
		name string
		json string
		want ImageList
	}{
		{"array", `{"all_images":["a.jpg","b.jpg"]}`, ImageList{"a.jpg", "b.jpg"}},
		{"json encoded string", `{"all_images":"[\"a.jpg\",\"b.jpg\"]"}`, ImageList{"a.jpg", "b.jpg"}},
		{"bare string", `{"all_images":"hotel_images/x.jpg"}`, ImageList{"hotel_images/x.jpg"}},
		{"null", `{"all_images":null}`, nil},
		{"missing", `{}`, nil},
		{"empty string", `{"all_images":""}`, nil},
		{"drops blanks and null strings", `{"all_images":["", " ", "null", null, "a.jpg"]}`, ImageList{"a.jpg"}},
		{"empty array", `{"all_images":[]}`, ImageList{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e Entity
			if err := json.Unmarshal([]byte(tt.json), &e); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if len(e.AllImages) != len(tt.want) || (len(tt.want) > 0 && !reflect.DeepEqual(e.AllImages, tt.want)) {
				t.Errorf("AllImages = %#v, want %#v", e.AllImages, tt.want)
			}
		})
	}
}

func TestEntity_UnmarshalIDAndTags(t *testing.T) {
	var e Entity
	body := `{"id": 42, "name": "Boudhanath", "type": "cultural_religious_sites", "tags": "stupa, buddhist ,heritage"}`
	if err := json.Unmarshal([]byte(body), &e); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if e.ID != "42" {
		t.Errorf("ID = %q, want %q", e.ID, "42")
	}
	want := TagList{"stupa", "buddhist", "heritage"}
	if !reflect.DeepEqual(e.Tags, want) {
		t.Errorf("Tags = %#v, want %#v", e.Tags, want)
	}

	var s Entity
	if err := json.Unmarshal([]byte(`{"id":"abc","tags":["a","b"]}`), &s); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if s.ID != "abc" || len(s.Tags) != 2 {
		t.Errorf("got ID=%q tags=%v", s.ID, s.Tags)
	}
}

func TestParseImageList(t *testing.T) {
	tests := []struct {
		raw  string
		want ImageList
	}{
		{`["a.jpg","null",""]`, ImageList{"a.jpg"}},
		{`single.jpg`, ImageList{"single.jpg"}},
		{``, nil},
		{`null`, ImageList{}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParseImageList(tt.raw)
			if len(got) != len(tt.want) || (len(tt.want) > 0 && !reflect.DeepEqual(got, tt.want)) {
				t.Errorf("ParseImageList(%q) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"place", KindPlace, true},
		{"places", KindPlace, true},
		{"Hotel", KindHotel, true},
		{"restaurants", KindRestaurant, true},
		{"Attraction", KindPlace, true},
		{"event", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseKind(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseKind(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestEntity_Category(t *testing.T) {
	var nilEntity *Entity
	if got := nilEntity.Category(); got != "" {
		t.Errorf("nil Category() = %q, want empty", got)
	}
	if got := (&Entity{Kind: KindHotel}).Category(); got != "Hotel" {
		t.Errorf("Category() = %q, want %q", got, "Hotel")
	}
	if got := (&Entity{Kind: KindHotel, Type: "Resort"}).Category(); got != "Resort" {
		t.Errorf("Category() = %q, want %q", got, "Resort")
	}
}
