package autodj

import "github.com/osa030/automix/internal/domain/deck"

// fadeStartPosition is the next-deck position past which a transition counts
// as underway. Slightly negative to allow the staged pre-roll.
const fadeStartPosition = -0.15

// Phase represents the coarse transition phase of one tick.
type Phase int

const (
	PhaseSelecting Phase = iota // Next deck stopped, preparing the upcoming track
	PhaseFading                 // Next deck playing, blend in progress
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseSelecting:
		return "selecting"
	case PhaseFading:
		return "fading"
	default:
		return "unknown"
	}
}

// Pair is the resolved deck assignment for one tick.
type Pair struct {
	Prev       deck.ID
	Next       deck.ID
	PrevDeck   deck.Telemetry
	NextDeck   deck.Telemetry
	Crossfader float64 // 0 = fully on Prev, 1 = fully on Next
}

// ResolveRoles decides which deck is ending and which is entering.
// It returns false when either deck has an undefined position.
func ResolveRoles(s deck.Snapshot) (Pair, bool) {
	if !s.A.Defined() || !s.B.Defined() {
		return Pair{}, false
	}

	prev, next := deck.A, deck.B
	switch {
	case s.A.Playing && !s.B.Playing:
	case s.B.Playing && !s.A.Playing:
		prev, next = deck.B, deck.A
	default:
		// Further along is presumed to be ending; ties keep A as prev.
		if s.A.Position < s.B.Position {
			prev, next = deck.B, deck.A
		}
	}

	return Pair{
		Prev:       prev,
		Next:       next,
		PrevDeck:   s.Deck(prev),
		NextDeck:   s.Deck(next),
		Crossfader: normalizeCrossfader(s.Crossfader, next),
	}, true
}

// normalizeCrossfader maps the raw [-1,1] crossfader onto prev→next progress.
func normalizeCrossfader(raw float64, next deck.ID) float64 {
	f := (raw + 1.0) / 2.0
	if next == deck.A {
		f = 1.0 - f
	}
	return clamp01(f)
}

// PhaseOf derives the transition phase from live telemetry.
func PhaseOf(p Pair) Phase {
	if p.NextDeck.Playing && p.NextDeck.Position > fadeStartPosition {
		return PhaseFading
	}
	return PhaseSelecting
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
