package display

import (
	"strings"

	"placeimages/internal/models"
)

// Icon names understood by the client.
const (
	IconMountain = "mountain"
	IconHotel    = "hotel"
	IconUtensils = "utensils"
	IconImage    = "image"
)

var iconTable = map[string]struct{ name, gradient string }{
	"place":       {IconMountain, "from-emerald-500 to-teal-600"},
	"destination": {IconMountain, "from-emerald-500 to-teal-600"},
	"attraction":  {IconMountain, "from-purple-500 to-pink-600"},
	"hotel":       {IconHotel, "from-blue-500 to-indigo-600"},
	"restaurant":  {IconUtensils, "from-orange-500 to-red-600"},
}

const defaultGradient = "from-gray-500 to-gray-600"

// IconFor returns the placeholder icon for an entity. The record's type is
// looked up first, then its kind.
func IconFor(e *models.Entity) *models.Icon {
	if e == nil {
		return &models.Icon{Name: IconImage, Gradient: defaultGradient, Label: "Image"}
	}

	label := e.Category()
	if label == "" {
		label = "Image"
	}

	for _, key := range []string{e.Type, string(e.Kind)} {
		if row, ok := iconTable[strings.ToLower(strings.TrimSpace(key))]; ok {
			return &models.Icon{Name: row.name, Gradient: row.gradient, Label: label}
		}
	}
	return &models.Icon{Name: IconImage, Gradient: defaultGradient, Label: label}
}
