package runner

import (
	"time"

	"github.com/osa030/automix/internal/app/autodj"
	"github.com/osa030/automix/internal/domain/deck"
)

// EventType represents a runner event type.
type EventType int

const (
	EventEnabled       EventType = iota // AutoDJ switched on
	EventDisabled                       // AutoDJ switched off
	EventPhaseChanged                   // Transition phase changed
	EventFadeTriggered                  // Fade-now pulse sent at the exit point
	EventTrackSkipped                   // Upcoming track rejected
	EventTrackStaged                    // Upcoming track cued for entry
	EventSyncEngaged                    // Tempo sync engaged during a fade
	EventSyncReleased                   // Tempo sync released
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventEnabled:
		return "enabled"
	case EventDisabled:
		return "disabled"
	case EventPhaseChanged:
		return "phase_changed"
	case EventFadeTriggered:
		return "fade_triggered"
	case EventTrackSkipped:
		return "track_skipped"
	case EventTrackStaged:
		return "track_staged"
	case EventSyncEngaged:
		return "sync_engaged"
	case EventSyncReleased:
		return "sync_released"
	default:
		return "unknown"
	}
}

// Event represents a runner event.
type Event struct {
	Type  EventType
	Time  time.Time
	Phase autodj.Phase // Phase of the tick that produced the event
	Deck  deck.ID      // Deck concerned (next deck for selection events)
	Code  string       // Reject code for EventTrackSkipped
	State autodj.State // Transition state after the tick
}
