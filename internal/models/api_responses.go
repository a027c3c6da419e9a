package models

// ImageResponse is the outcome of resolving a display image for one entity slot.
type ImageResponse struct {
	EntityID    ID     `json:"entity_id"`
	Kind        Kind   `json:"kind,omitempty"`
	Index       int    `json:"index"`
	State       string `json:"state"`
	URL         string `json:"url,omitempty"`
	IsGenerated bool   `json:"is_generated"`
	Icon        *Icon  `json:"icon,omitempty"`
	Retries     int    `json:"retries"`
}

// Icon is a client-side placeholder rendered when no network image loads.
type Icon struct {
	Name     string `json:"name"`
	Gradient string `json:"gradient"`
	Label    string `json:"label"`
}

// ImageListResponse lists every resolvable stored image of an entity.
type ImageListResponse struct {
	EntityID ID       `json:"entity_id"`
	Kind     Kind     `json:"kind,omitempty"`
	URLs     []string `json:"urls"`
}

// CacheStatsResponse describes the fallback resolution cache.
type CacheStatsResponse struct {
	CacheSize int      `json:"cache_size"`
	InFlight  int      `json:"in_flight"`
	PlaceIDs  []string `json:"place_ids"`
}

// PrewarmResponse summarises a batch fallback generation run.
type PrewarmResponse struct {
	Requested int `json:"requested"`
	Resolved  int `json:"resolved"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}
