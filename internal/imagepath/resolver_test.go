package imagepath

import (
	"reflect"
	"testing"

	"placeimages/internal/models"
)

const host = "http://localhost:8000"

func TestResolveOne_NoImage(t *testing.T) {
	r := New(host, "")

	tests := []struct {
		name   string
		entity *models.Entity
	}{
		{"nil entity", nil},
		{"empty entity", &models.Entity{}},
		{"null all_images entry", &models.Entity{AllImages: models.ImageList{"null"}}},
		{"blank image_url", &models.Entity{ImageURL: "   "}},
		{"null image_url", &models.Entity{ImageURL: "null"}},
		{"blank legacy images", &models.Entity{Images: models.ImageList{"", " "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.ResolveOne(tt.entity, 0)
			if ok || got != "" {
				t.Errorf("ResolveOne() = %q, %v, want empty, false", got, ok)
			}
			if HasStoredImage(tt.entity) {
				t.Error("HasStoredImage() = true, want false")
			}
		})
	}
}

func TestResolveOne(t *testing.T) {
	r := New(host, "/datasets")

	tests := []struct {
		name   string
		entity *models.Entity
		index  int
		want   string
	}{
		{
			name:   "hotel backslash path",
			entity: &models.Entity{Name: "Hotel Everest View", Type: "Hotel", AllImages: models.ImageList{`hotel_images\main.jpg`}},
			want:   "http://localhost:8000/datasets/hotel_images/main.jpg",
		},
		{
			name:   "bare filename gets folder",
			entity: &models.Entity{Type: "Restaurant", AllImages: models.ImageList{"dal-bhat.jpg"}},
			want:   "http://localhost:8000/datasets/restaurant_images/dal-bhat.jpg",
		},
		{
			name:   "unknown type uses destination folder",
			entity: &models.Entity{Type: "natural_attractions", AllImages: models.ImageList{"phewa.jpg"}},
			want:   "http://localhost:8000/datasets/destination_images/phewa.jpg",
		},
		{
			name:   "absolute URL kept",
			entity: &models.Entity{AllImages: models.ImageList{"https://cdn.example.com/a.jpg"}},
			want:   "https://cdn.example.com/a.jpg",
		},
		{
			name:   "protocol relative kept",
			entity: &models.Entity{AllImages: models.ImageList{"//cdn.example.com/a.jpg"}},
			want:   "//cdn.example.com/a.jpg",
		},
		{
			name:   "dataset rooted path",
			entity: &models.Entity{AllImages: models.ImageList{"/datasets/destination_images/a.jpg"}},
			want:   "http://localhost:8000/datasets/destination_images/a.jpg",
		},
		{
			name:   "windows dataset path",
			entity: &models.Entity{Type: "Hotel", AllImages: models.ImageList{`datasets\hotel_images\b.jpg`}},
			want:   "http://localhost:8000/datasets/hotel_images/b.jpg",
		},
		{
			name:   "dot slash prefix",
			entity: &models.Entity{Type: "hotel", AllImages: models.ImageList{"./hotel_images/c.jpg"}},
			want:   "http://localhost:8000/datasets/hotel_images/c.jpg",
		},
		{
			name:   "index selects image",
			entity: &models.Entity{AllImages: models.ImageList{"a.jpg", "b.jpg"}},
			index:  1,
			want:   "http://localhost:8000/datasets/destination_images/b.jpg",
		},
		{
			name:   "index out of range uses first",
			entity: &models.Entity{AllImages: models.ImageList{"a.jpg", "b.jpg"}},
			index:  7,
			want:   "http://localhost:8000/datasets/destination_images/a.jpg",
		},
		{
			name:   "negative index uses first",
			entity: &models.Entity{AllImages: models.ImageList{"a.jpg"}},
			index:  -1,
			want:   "http://localhost:8000/datasets/destination_images/a.jpg",
		},
		{
			name:   "all_images wins over image_url",
			entity: &models.Entity{ImageURL: "z.jpg", AllImages: models.ImageList{"a.jpg"}},
			want:   "http://localhost:8000/datasets/destination_images/a.jpg",
		},
		{
			name:   "image_url wins over images",
			entity: &models.Entity{ImageURL: "z.jpg", Images: models.ImageList{"a.jpg"}},
			want:   "http://localhost:8000/datasets/destination_images/z.jpg",
		},
		{
			name:   "legacy images with null entries",
			entity: &models.Entity{Images: models.ImageList{"null", "a.jpg"}},
			want:   "http://localhost:8000/datasets/destination_images/a.jpg",
		},
		{
			name:   "kind drives folder without type",
			entity: &models.Entity{Kind: models.KindHotel, AllImages: models.ImageList{"x.jpg"}},
			want:   "http://localhost:8000/datasets/hotel_images/x.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.ResolveOne(tt.entity, tt.index)
			if !ok {
				t.Fatalf("ResolveOne() ok = false, want true")
			}
			if got != tt.want {
				t.Errorf("ResolveOne() = %q, want %q", got, tt.want)
			}
			if !HasStoredImage(tt.entity) {
				t.Error("HasStoredImage() = false, want true")
			}
		})
	}
}

func TestFolderFor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hotel", FolderHotel},
		{"HOTELS", FolderHotel},
		{"restaurant", FolderRestaurant},
		{"Place", FolderDestination},
		{"cultural_religious_sites", FolderDestination},
		{"", FolderDestination},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := FolderFor(tt.in); got != tt.want {
				t.Errorf("FolderFor(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolveAll(t *testing.T) {
	r := New(host+"/", "datasets")

	e := &models.Entity{
		Type:      "Hotel",
		AllImages: models.ImageList{"a.jpg", "null", "a.jpg", "https://cdn.example.com/b.jpg"},
	}
	want := []string{
		"http://localhost:8000/datasets/hotel_images/a.jpg",
		"http://localhost:8000/datasets/hotel_images/a.jpg",
		"https://cdn.example.com/b.jpg",
	}
	if got := r.ResolveAll(e); !reflect.DeepEqual(got, want) {
		t.Errorf("ResolveAll() = %v, want %v", got, want)
	}

	single := &models.Entity{ImageURL: "only.jpg"}
	if got := r.ResolveAll(single); len(got) != 1 || got[0] != "http://localhost:8000/datasets/destination_images/only.jpg" {
		t.Errorf("ResolveAll(image_url) = %v", got)
	}

	if got := r.ResolveAll(nil); got != nil {
		t.Errorf("ResolveAll(nil) = %v, want nil", got)
	}
}

func TestCanonicalize(t *testing.T) {
	r := New(host, "")
	if _, ok := r.Canonicalize(" null ", "Hotel"); ok {
		t.Error("Canonicalize(null) ok = true, want false")
	}
	got, ok := r.Canonicalize(`C:\images\a.jpg`, "Hotel")
	if !ok || got != "http://localhost:8000/datasets/hotel_images/C:/images/a.jpg" {
		t.Errorf("Canonicalize(drive path) = %q, %v", got, ok)
	}
}

func TestSized(t *testing.T) {
	tests := []struct {
		url  string
		size string
		want string
	}{
		{"http://h/a.jpg", SizeThumbnail, "http://h/a.jpg?size=150x150"},
		{"http://h/a.jpg", "Medium", "http://h/a.jpg?size=600x400"},
		{"http://h/a.jpg?v=1", SizeLarge, "http://h/a.jpg?v=1&size=1200x800"},
		{"http://h/a.jpg", SizeOriginal, "http://h/a.jpg"},
		{"http://h/a.jpg", "huge", "http://h/a.jpg"},
		{"", SizeSmall, ""},
	}

	for _, tt := range tests {
		t.Run(tt.size, func(t *testing.T) {
			if got := Sized(tt.url, tt.size); got != tt.want {
				t.Errorf("Sized(%q, %q) = %q, want %q", tt.url, tt.size, got, tt.want)
			}
		})
	}
}
