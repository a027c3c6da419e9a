package fallback

import (
	"strconv"
	"strings"
	"unicode/utf16"

	"placeimages/internal/models"
)

// PlaceID derives the stable identifier used as the cache and dedup key.
// It is the base-36 absolute value of a 31x rolling hash over the UTF-16
// code units of lower(name + "_" + type + "_" + location). Missing fields
// contribute the empty string, so ids agree with those browsers compute only
// for records that carry all three fields.
func PlaceID(e *models.Entity) string {
	if e == nil {
		return ""
	}
	return strconv.FormatUint(uint64(Seed(identity(e))), 36)
}

// Seed returns the absolute 32-bit rolling hash of s.
func Seed(s string) uint32 {
	h := rollingHash(s)
	if h < 0 {
		// -(-2^31) overflows int32, so negate in uint32 space.
		return uint32(-int64(h))
	}
	return uint32(h)
}

func identity(e *models.Entity) string {
	return strings.ToLower(e.Name + "_" + e.Type + "_" + e.Location)
}

func rollingHash(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(c)
	}
	return h
}
