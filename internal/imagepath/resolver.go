// Package imagepath turns stored image references into canonical, fetchable URLs.
// It performs no I/O and holds no mutable state.
package imagepath

import (
	"strings"

	"placeimages/internal/models"
)

// DefaultDatasetRoot is the path prefix under which the API serves dataset images.
const DefaultDatasetRoot = "/datasets"

// Image folders under the dataset root.
const (
	FolderDestination = "destination_images"
	FolderHotel       = "hotel_images"
	FolderRestaurant  = "restaurant_images"
)

// Resolver canonicalizes image references against an API host.
type Resolver struct {
	host        string
	datasetRoot string
}

// New creates a resolver for the given API base URL and dataset root.
// An empty root uses DefaultDatasetRoot.
func New(host, datasetRoot string) *Resolver {
	if datasetRoot == "" {
		datasetRoot = DefaultDatasetRoot
	}
	return &Resolver{
		host:        strings.TrimRight(host, "/"),
		datasetRoot: "/" + strings.Trim(datasetRoot, "/"),
	}
}

// FolderFor maps an entity type to its dataset folder. Matching is case-insensitive
// and unknown types map to the destination folder.
func FolderFor(entityType string) string {
	switch strings.ToLower(strings.TrimSpace(entityType)) {
	case "hotel", "hotels":
		return FolderHotel
	case "restaurant", "restaurants":
		return FolderRestaurant
	default:
		return FolderDestination
	}
}

// ResolveOne returns the canonical URL of the image at index, or false when the
// entity has no usable stored image. Out-of-range indexes fall back to the first image.
func (r *Resolver) ResolveOne(e *models.Entity, index int) (string, bool) {
	raw, ok := selectRef(e, index)
	if !ok {
		return "", false
	}
	return r.canonicalize(raw, e.Category()), true
}

// ResolveAll returns every resolvable stored image in order. Duplicates are kept.
func (r *Resolver) ResolveAll(e *models.Entity) []string {
	if e == nil {
		return nil
	}

	refs := storedRefs(e)
	urls := make([]string, 0, len(refs))
	for _, ref := range refs {
		if models.IsBlankRef(ref) {
			continue
		}
		urls = append(urls, r.canonicalize(ref, e.Category()))
	}
	return urls
}

// HasStoredImage reports whether the entity carries at least one usable stored
// reference. The fallback generator relies on this exact predicate.
func HasStoredImage(e *models.Entity) bool {
	if e == nil {
		return false
	}
	if !models.IsBlankRef(e.ImageURL) {
		return true
	}
	for _, ref := range storedRefs(e) {
		if !models.IsBlankRef(ref) {
			return true
		}
	}
	return false
}

// Canonicalize resolves a single reference for the given entity type.
func (r *Resolver) Canonicalize(ref, entityType string) (string, bool) {
	if models.IsBlankRef(ref) {
		return "", false
	}
	return r.canonicalize(ref, entityType), true
}

func (r *Resolver) canonicalize(raw, entityType string) string {
	ref := strings.TrimSpace(raw)

	if hasScheme(ref) {
		return ref
	}
	if ref == r.datasetRoot || strings.HasPrefix(ref, r.datasetRoot+"/") {
		return r.host + ref
	}

	ref = strings.ReplaceAll(ref, `\`, "/")
	ref = strings.TrimPrefix(ref, "./")
	ref = strings.TrimLeft(ref, "/")

	// Windows-style paths may also carry the dataset root.
	if root := strings.TrimPrefix(r.datasetRoot, "/") + "/"; strings.HasPrefix(ref, root) {
		return r.host + "/" + ref
	}

	folder := FolderFor(entityType)
	if strings.HasPrefix(ref, folder) {
		return r.host + r.datasetRoot + "/" + ref
	}
	return r.host + r.datasetRoot + "/" + folder + "/" + ref
}

// selectRef applies the field precedence all_images > image_url > images.
func selectRef(e *models.Entity, index int) (string, bool) {
	if e == nil {
		return "", false
	}

	all := models.CleanImageRefs(e.AllImages)
	legacy := models.CleanImageRefs(e.Images)

	var raw string
	switch {
	case len(all) > 0:
		raw = pick(all, index)
	case !models.IsBlankRef(e.ImageURL):
		raw = e.ImageURL
	case len(legacy) > 0:
		raw = pick(legacy, index)
	}

	if models.IsBlankRef(raw) {
		return "", false
	}
	return raw, true
}

func pick(list []string, index int) string {
	if index >= 0 && index < len(list) {
		return list[index]
	}
	return list[0]
}

// storedRefs returns the list ResolveAll walks: all_images, else images, else image_url.
func storedRefs(e *models.Entity) []string {
	if all := models.CleanImageRefs(e.AllImages); len(all) > 0 {
		return all
	}
	if legacy := models.CleanImageRefs(e.Images); len(legacy) > 0 {
		return legacy
	}
	if !models.IsBlankRef(e.ImageURL) {
		return []string{e.ImageURL}
	}
	return nil
}

func hasScheme(ref string) bool {
	if strings.HasPrefix(ref, "//") {
		return true
	}
	i := strings.Index(ref, ":")
	if i <= 0 {
		return false
	}
	// A single letter before the colon is a Windows drive, not a scheme.
	if i == 1 {
		return false
	}
	for j, c := range ref[:i] {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case j > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return true
}
