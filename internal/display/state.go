package display

import "placeimages/internal/models"

// State is the display state of one rendered image slot.
type State int

// Display states
const (
	Idle State = iota
	Loading
	Loaded
	Failed
	FailedFinal
)

var stateNames = [...]string{"idle", "loading", "loaded", "failed", "failed_final"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Settled reports whether no further transition will happen without a new load.
func (s State) Settled() bool {
	return s == Loaded || s == FailedFinal
}

// Snapshot is a copy of an instance's state.
type Snapshot struct {
	State       State
	URL         string
	IsGenerated bool
	// Icon is set only in FailedFinal.
	Icon     *models.Icon
	Retries  int
	Strategy string
}

// Render returns what the slot shows: an image URL, or the icon when none loaded.
func (s Snapshot) Render() (url string, icon *models.Icon) {
	if s.State == Loaded {
		return s.URL, nil
	}
	return "", s.Icon
}
