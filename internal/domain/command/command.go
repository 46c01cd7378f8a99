// Package command provides the output instructions sent to the host engine.
package command

import (
	"fmt"

	"github.com/osa030/automix/internal/domain/deck"
)

// Kind represents a command type.
type Kind int

const (
	SetEqParameter           Kind = iota // Set bass EQ parameter (Value)
	SetTempo                             // Set live tempo in BPM (Value)
	SetSyncMode                          // Set sync role (Mode)
	PulseSyncEnable                      // Click the sync button
	SetKey                               // Set musical key (Value)
	PulseSyncKey                         // Click the key sync button
	TriggerFadeNow                       // Start the host transition immediately
	TriggerSkipNext                      // Replace the upcoming track
	PositionNextDeckForEntry             // Cue to entry point, then jump back Beats
	SetQuickEffect                       // Set quick effect knob (Value)
	SetQuantize                          // Enable/disable quantize (Value 0/1)
	SetKeylock                           // Enable/disable keylock (Value 0/1)
	SetCrossfader                        // Move the master crossfader (Value, -1..1)
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case SetEqParameter:
		return "set_eq"
	case SetTempo:
		return "set_tempo"
	case SetSyncMode:
		return "set_sync_mode"
	case PulseSyncEnable:
		return "sync_enabled"
	case SetKey:
		return "set_key"
	case PulseSyncKey:
		return "sync_key"
	case TriggerFadeNow:
		return "fade_now"
	case TriggerSkipNext:
		return "skip_next"
	case PositionNextDeckForEntry:
		return "position_for_entry"
	case SetQuickEffect:
		return "set_quick_effect"
	case SetQuantize:
		return "set_quantize"
	case SetKeylock:
		return "set_keylock"
	case SetCrossfader:
		return "set_crossfader"
	default:
		return "unknown"
	}
}

// Command is a fire-and-forget instruction for the host.
// Deck is zero for master-level commands (fade, skip, crossfader).
type Command struct {
	Kind  Kind
	Deck  deck.ID
	Value float64
	Mode  deck.SyncMode
	Beats int
}

// String returns a compact log representation.
func (c Command) String() string {
	switch c.Kind {
	case TriggerFadeNow, TriggerSkipNext:
		return c.Kind.String()
	case SetCrossfader:
		return fmt.Sprintf("%s(%.3f)", c.Kind, c.Value)
	case SetSyncMode:
		return fmt.Sprintf("%s[%s](%s)", c.Kind, c.Deck, c.Mode)
	case PositionNextDeckForEntry:
		return fmt.Sprintf("%s[%s](-%d beats)", c.Kind, c.Deck, c.Beats)
	case PulseSyncEnable, PulseSyncKey:
		return fmt.Sprintf("%s[%s]", c.Kind, c.Deck)
	default:
		return fmt.Sprintf("%s[%s](%.4f)", c.Kind, c.Deck, c.Value)
	}
}

// Eq sets the bass EQ parameter of a deck.
func Eq(d deck.ID, value float64) Command {
	return Command{Kind: SetEqParameter, Deck: d, Value: value}
}

// Tempo sets the live tempo of a deck.
func Tempo(d deck.ID, bpm float64) Command {
	return Command{Kind: SetTempo, Deck: d, Value: bpm}
}

// SyncMode sets the sync role of a deck.
func SyncMode(d deck.ID, mode deck.SyncMode) Command {
	return Command{Kind: SetSyncMode, Deck: d, Mode: mode}
}

// SyncEnable pulses the sync button of a deck.
func SyncEnable(d deck.ID) Command {
	return Command{Kind: PulseSyncEnable, Deck: d}
}

// Key sets the musical key of a deck.
func Key(d deck.ID, key float64) Command {
	return Command{Kind: SetKey, Deck: d, Value: key}
}

// SyncKey pulses the key sync button of a deck.
func SyncKey(d deck.ID) Command {
	return Command{Kind: PulseSyncKey, Deck: d}
}

// FadeNow pulses the host transition trigger.
func FadeNow() Command {
	return Command{Kind: TriggerFadeNow}
}

// SkipNext pulses the host skip of the upcoming track.
func SkipNext() Command {
	return Command{Kind: TriggerSkipNext}
}

// PositionForEntry cues a deck to its entry point and jumps back beats.
func PositionForEntry(d deck.ID, beats int) Command {
	return Command{Kind: PositionNextDeckForEntry, Deck: d, Beats: beats}
}

// QuickEffect sets the quick effect knob of a deck.
func QuickEffect(d deck.ID, value float64) Command {
	return Command{Kind: SetQuickEffect, Deck: d, Value: value}
}

// Quantize toggles beat quantization on a deck.
func Quantize(d deck.ID, on bool) Command {
	return Command{Kind: SetQuantize, Deck: d, Value: boolValue(on)}
}

// Keylock toggles keylock on a deck.
func Keylock(d deck.ID, on bool) Command {
	return Command{Kind: SetKeylock, Deck: d, Value: boolValue(on)}
}

// Crossfader moves the master crossfader.
func Crossfader(value float64) Command {
	return Command{Kind: SetCrossfader, Value: value}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Count returns how many commands in cmds have the given kind.
func Count(cmds []Command, kind Kind) int {
	n := 0
	for _, c := range cmds {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// Find returns the first command of the given kind.
func Find(cmds []Command, kind Kind) (Command, bool) {
	for _, c := range cmds {
		if c.Kind == kind {
			return c, true
		}
	}
	return Command{}, false
}
