// Package deck provides the deck identity and per-tick telemetry entities.
package deck

// ID identifies one of the two playback decks.
type ID int

const (
	A ID = iota + 1 // Deck A ([Channel1])
	B               // Deck B ([Channel2])
)

// Sentinels reported by the host.
const (
	UndefinedPosition = -1.0 // No track loaded or position unknown
	NoCue             = -1.0 // Hotcue not set
)

// String returns the string representation of the deck.
func (d ID) String() string {
	switch d {
	case A:
		return "A"
	case B:
		return "B"
	default:
		return "unknown"
	}
}

// Other returns the opposite deck.
func (d ID) Other() ID {
	if d == A {
		return B
	}
	return A
}

// Valid reports whether d names one of the two decks.
func (d ID) Valid() bool {
	return d == A || d == B
}

// SyncMode is the host's sync role for a deck.
type SyncMode int

const (
	SyncNone     SyncMode = iota // Sync disabled
	SyncFollower                 // Deck follows the master tempo
	SyncMaster                   // Deck provides the master tempo
)

// String returns the string representation of the sync mode.
func (m SyncMode) String() string {
	switch m {
	case SyncNone:
		return "none"
	case SyncFollower:
		return "follower"
	case SyncMaster:
		return "master"
	default:
		return "unknown"
	}
}

// Telemetry is one deck's host state, read once per tick.
type Telemetry struct {
	Playing       bool    // Play indicator
	Position      float64 // Track fraction 0..1, UndefinedPosition if unknown
	FileBPM       float64 // Tempo stored in the track file
	BPM           float64 // Live tempo after rate adjustment
	Key           float64 // Musical key as reported by the host
	BeatActive    bool    // True while the playhead is on a beat
	SampleRate    float64 // Track sample rate (Hz)
	Duration      float64 // Track duration (seconds)
	ExitCueSample float64 // Exit hotcue position in samples, NoCue if unset
	BassEQ        float64 // Low band EQ parameter, 0..1
}

// Defined reports whether the deck position is known.
func (t Telemetry) Defined() bool {
	return t.Position != UndefinedPosition
}

// HasExitCue reports whether the exit hotcue is set.
func (t Telemetry) HasExitCue() bool {
	return t.ExitCueSample != NoCue
}

// Snapshot is the complete host state for one tick.
type Snapshot struct {
	A          Telemetry
	B          Telemetry
	Crossfader float64 // Raw master crossfader, -1 = fully deck A, 1 = fully deck B
}

// Deck returns the telemetry of the given deck.
func (s Snapshot) Deck(id ID) Telemetry {
	if id == B {
		return s.B
	}
	return s.A
}
