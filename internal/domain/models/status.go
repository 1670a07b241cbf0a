package models

// TrackingState is the gesture/resolution snapshot of one camera. A nil field
// means the sub-query for it failed or returned nothing usable.
type TrackingState struct {
	LockedTarget *bool   `json:"lockedTarget,omitempty"`
	Recording    *bool   `json:"recording,omitempty"`
	Zoom         *bool   `json:"zoom,omitempty"`
	Resolution   *string `json:"resolution,omitempty"`
}

// GesturesEnabled reports whether any gesture control is known to be on.
func (s TrackingState) GesturesEnabled() bool {
	return isTrue(s.LockedTarget) || isTrue(s.Recording) || isTrue(s.Zoom)
}

func isTrue(b *bool) bool {
	return b != nil && *b
}

type TrackingPoll struct {
	States map[int64]TrackingState `json:"states"`
	Errors map[int64]string        `json:"errors,omitempty"`
}

// ActiveState is the UI-derived tracking state. Known is false when the probe
// failed, in which case Error is set and Active carries no meaning.
type ActiveState struct {
	Known  bool   `json:"known"`
	Active bool   `json:"active"`
	Error  string `json:"error,omitempty"`
}
