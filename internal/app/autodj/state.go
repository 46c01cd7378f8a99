// Package autodj provides the transition decision engine: deck roles, tempo
// sync, EQ ramps, exit-cue timing and the key/skip policy.
package autodj

import (
	"math"
	"time"
)

// Config holds controller configuration. It is immutable for a session.
type Config struct {
	PreStartBeats      int     // Beats of pre-roll before the exit point
	UseEQ              bool    // Ramp bass EQ during transitions
	MaxBPMAdjustment   float64 // Max tempo deviation in percent
	Transpose          bool    // Align key of the next track
	TransposeMax       float64 // Max accepted key shift in semitones
	TransposeSkipsMax  int     // Key skips allowed before accepting anyway
	BPMSync            bool    // Engage tempo sync while fading
	BPMSyncFade        bool    // Gradual ramp (true) or instant sync on beat (false)
	FadeQuickEffect    bool    // Sweep the quick effect knob
	ReverseQuickEffect bool    // Flip the quick effect sweep direction
	FadeRange          float64 // Quick effect sweep range, 0..1

	TickInterval   time.Duration // Controller polling interval
	RefineInterval time.Duration // Minimum time between skip decisions
}

// DefaultConfig returns the stock controller settings.
func DefaultConfig() Config {
	return Config{
		PreStartBeats:     8,
		UseEQ:             true,
		MaxBPMAdjustment:  12,
		Transpose:         true,
		TransposeMax:      1,
		TransposeSkipsMax: 3,
		BPMSync:           true,
		BPMSyncFade:       true,
		FadeRange:         0.5,
		TickInterval:      250 * time.Millisecond,
		RefineInterval:    time.Second,
	}
}

// refineTicks is the number of selecting ticks between skip decisions.
func (c Config) refineTicks() int {
	if c.TickInterval <= 0 || c.RefineInterval <= c.TickInterval {
		return 1
	}
	return int(math.Ceil(float64(c.RefineInterval) / float64(c.TickInterval)))
}

// State is the transition state carried between ticks.
type State struct {
	Syncing       bool // Tempo sync engaged for the active pair
	SongStaged    bool // Next track cued and tempo-set for entry
	SkipStreak    int  // Consecutive skips caused by key mismatch
	RefineTicks   int  // Selecting ticks since the last skip decision
	FadeTriggered bool // Fade pulse sent for the current exit crossing
	TotalSkips    int  // Skips issued since the controller was enabled
}
