package imagepath

import "strings"

// Image size names understood by the dataset server.
const (
	SizeThumbnail = "thumbnail"
	SizeSmall     = "small"
	SizeMedium    = "medium"
	SizeLarge     = "large"
	SizeOriginal  = "original"
)

var sizeDimensions = map[string]string{
	SizeThumbnail: "150x150",
	SizeSmall:     "300x200",
	SizeMedium:    "600x400",
	SizeLarge:     "1200x800",
}

// Sized appends a size hint to a resolved URL. Unknown sizes and
// SizeOriginal return the URL unchanged.
func Sized(url, size string) string {
	dims, ok := sizeDimensions[strings.ToLower(size)]
	if !ok || url == "" {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "size=" + dims
}
