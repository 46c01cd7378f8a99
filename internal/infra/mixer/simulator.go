package mixer

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/automix/internal/domain/command"
	"github.com/osa030/automix/internal/domain/deck"
)

// Errors
var (
	ErrUnknownDeck     = errors.New("unknown deck")
	ErrNoEnableSignal  = errors.New("autodj enable control not available")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrSimulatorClosed = errors.New("simulator closed")
)

const (
	// stereoChannels is the number of interleaved samples per frame in
	// hotcue positions.
	stereoChannels = 2
	// beatWindow is the fraction of a beat during which the beat
	// indicator is lit.
	beatWindow = 0.2
	// neutral knob positions
	neutralEQ          = 1.0
	neutralQuickEffect = 0.5
)

// deckState is the simulated state of one deck.
type deckState struct {
	loaded      bool
	track       TrackConfig
	playing     bool
	position    float64 // Seconds of track time, negative during pre-roll
	rate        float64 // Tempo ratio applied to the file tempo
	key         float64
	bassEQ      float64
	quickEffect float64
	quantize    bool
	keylock     bool
	syncMode    deck.SyncMode
}

func (d *deckState) liveBPM() float64 {
	return d.track.BPM * d.rate
}

// exitCueSample returns the hotcue position in interleaved samples.
func (d *deckState) exitCueSample(hotcue int) float64 {
	if hotcue < 1 || hotcue > len(d.track.Hotcues) {
		return deck.NoCue
	}
	return d.track.Hotcues[hotcue-1] * d.track.SampleRate * stereoChannels
}

func (d *deckState) telemetry(exitCue int) deck.Telemetry {
	if !d.loaded {
		return deck.Telemetry{Position: deck.UndefinedPosition, ExitCueSample: deck.NoCue}
	}

	beats := d.position * d.track.BPM / 60
	return deck.Telemetry{
		Playing:       d.playing,
		Position:      d.position / d.track.DurationSeconds,
		FileBPM:       d.track.BPM,
		BPM:           d.liveBPM(),
		Key:           d.key,
		BeatActive:    d.playing && d.position >= 0 && beats-math.Floor(beats) < beatWindow,
		SampleRate:    d.track.SampleRate,
		Duration:      d.track.DurationSeconds,
		ExitCueSample: d.exitCueSample(exitCue),
		BassEQ:        d.bassEQ,
	}
}

// fade is an automatic crossfader sweep toward the incoming deck.
type fade struct {
	from     deck.ID
	to       deck.ID
	start    float64
	target   float64
	elapsed  float64
	duration float64
}

// Simulator is an in-memory two-deck host. It plays a cyclic track list,
// honours controller commands and exposes an AutoDJ enable control.
type Simulator struct {
	mu sync.Mutex

	settings   Settings
	decks      map[deck.ID]*deckState
	crossfader float64
	fading     *fade
	cursor     int // Index of the next track to load
	loads      int

	enabled    bool
	listeners  map[int]func(bool)
	listenerID int

	closed bool
}

// NewSimulator creates a simulator with deck A playing the first track and
// deck B cued on the second.
func NewSimulator(settings Settings) (*Simulator, error) {
	if len(settings.Tracks) < 2 {
		return nil, errors.Newf("at least 2 tracks are required, got %d", len(settings.Tracks))
	}

	s := &Simulator{
		settings:   settings,
		decks:      map[deck.ID]*deckState{deck.A: {}, deck.B: {}},
		crossfader: -1,
		enabled:    !settings.Manual,
		listeners:  make(map[int]func(bool)),
	}
	s.loadNextLocked(deck.A)
	s.loadNextLocked(deck.B)
	s.decks[deck.A].playing = true

	zlog.Info().Msgf("mixer: simulator ready: tracks=%d transition=%.1fs speed=%.1f",
		len(settings.Tracks), settings.TransitionSeconds, settings.Speed)
	return s, nil
}

// Read implements runner.Host.
func (s *Simulator) Read(ctx context.Context) (deck.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return deck.Snapshot{}, ErrSimulatorClosed
	}
	return deck.Snapshot{
		A:          s.decks[deck.A].telemetry(s.settings.ExitCue),
		B:          s.decks[deck.B].telemetry(s.settings.ExitCue),
		Crossfader: s.crossfader,
	}, nil
}

// Key implements runner.Host.
func (s *Simulator) Key(ctx context.Context, d deck.ID) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.decks[d]
	if !ok {
		return 0, errors.Wrapf(ErrUnknownDeck, "deck=%d", int(d))
	}
	return st.key, nil
}

// Apply implements runner.Host. Commands are applied in order and the first
// failing command aborts the rest.
func (s *Simulator) Apply(ctx context.Context, cmds ...command.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSimulatorClosed
	}
	for _, c := range cmds {
		if err := s.applyLocked(c); err != nil {
			return errors.Wrapf(err, "failed to apply %s", c)
		}
	}
	return nil
}

func (s *Simulator) applyLocked(c command.Command) error {
	// Crossfader and fade/skip pulses are not deck-specific.
	switch c.Kind {
	case command.SetCrossfader:
		s.crossfader = clamp(c.Value, -1, 1)
		return nil
	case command.TriggerFadeNow:
		s.fadeNowLocked()
		return nil
	case command.TriggerSkipNext:
		s.skipNextLocked()
		return nil
	}

	d, ok := s.decks[c.Deck]
	if !ok {
		return errors.Wrapf(ErrUnknownDeck, "deck=%d", int(c.Deck))
	}

	switch c.Kind {
	case command.SetEqParameter:
		d.bassEQ = clamp(c.Value, 0, 4)
	case command.SetTempo:
		if d.loaded && c.Value > 0 {
			d.rate = c.Value / d.track.BPM
		}
	case command.SetSyncMode:
		d.syncMode = c.Mode
	case command.PulseSyncEnable:
		s.matchTempoLocked(c.Deck)
	case command.SetKey:
		d.key = c.Value
	case command.PulseSyncKey:
		if other := s.decks[c.Deck.Other()]; other.loaded {
			d.key = other.key
		}
	case command.PositionNextDeckForEntry:
		if d.loaded && d.liveBPM() > 0 {
			d.position = -float64(c.Beats) * 60 / d.liveBPM()
		}
	case command.SetQuickEffect:
		d.quickEffect = clamp(c.Value, 0, 1)
	case command.SetQuantize:
		d.quantize = c.Value != 0
	case command.SetKeylock:
		d.keylock = c.Value != 0
	default:
		return errors.Wrapf(ErrUnknownCommand, "kind=%d", int(c.Kind))
	}

	zlog.Debug().Msgf("mixer: applied %s", c)
	return nil
}

// matchTempoLocked sets a deck's tempo to the other deck's, allowing double
// or half time.
func (s *Simulator) matchTempoLocked(id deck.ID) {
	d, other := s.decks[id], s.decks[id.Other()]
	if !d.loaded || !other.loaded || other.liveBPM() <= 0 {
		return
	}

	target := other.liveBPM()
	best := target
	for _, candidate := range []float64{target * 0.5, target * 2} {
		if math.Abs(candidate-d.track.BPM) < math.Abs(best-d.track.BPM) {
			best = candidate
		}
	}
	d.rate = best / d.track.BPM
}

// currentLocked returns the audible deck: the only one playing, or the one
// further into its track.
func (s *Simulator) currentLocked() deck.ID {
	a, b := s.decks[deck.A], s.decks[deck.B]
	switch {
	case a.playing && !b.playing:
		return deck.A
	case b.playing && !a.playing:
		return deck.B
	}
	if b.loaded && (!a.loaded || b.position/b.track.DurationSeconds > a.position/a.track.DurationSeconds) {
		return deck.B
	}
	return deck.A
}

func (s *Simulator) fadeNowLocked() {
	if s.fading != nil {
		zlog.Debug().Msg("mixer: fade already in progress")
		return
	}

	from := s.currentLocked()
	to := from.Other()
	next := s.decks[to]
	if !next.loaded {
		s.loadNextLocked(to)
	}
	next.playing = true

	target := 1.0
	if to == deck.A {
		target = -1.0
	}
	s.fading = &fade{
		from:     from,
		to:       to,
		start:    s.crossfader,
		target:   target,
		duration: s.settings.TransitionSeconds,
	}

	zlog.Info().Msgf("mixer: fading: from=%s to=%s title=%q", from, to, next.track.Title)
}

func (s *Simulator) skipNextLocked() {
	a, b := s.decks[deck.A], s.decks[deck.B]
	if a.playing && b.playing {
		zlog.Warn().Msg("mixer: skip ignored, both decks playing")
		return
	}

	next := s.currentLocked().Other()
	skipped := s.decks[next].track.Title
	s.loadNextLocked(next)

	zlog.Info().Msgf("mixer: skipped track: deck=%s skipped=%q loaded=%q", next, skipped, s.decks[next].track.Title)
}

// loadNextLocked loads the next track of the cyclic list onto a deck,
// stopped at its start with neutral settings.
func (s *Simulator) loadNextLocked(id deck.ID) {
	t := s.settings.Tracks[s.cursor%len(s.settings.Tracks)]
	s.cursor++
	s.loads++

	d := s.decks[id]
	*d = deckState{
		loaded:      true,
		track:       t,
		rate:        1,
		key:         t.Key,
		bassEQ:      neutralEQ,
		quickEffect: neutralQuickEffect,
		quantize:    d.quantize,
		keylock:     d.keylock,
	}
}

// Advance moves the simulation forward by dt of wall time.
func (s *Simulator) Advance(dt time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || dt <= 0 {
		return
	}
	step := dt.Seconds() * s.settings.Speed

	s.followSyncLocked()

	for _, id := range []deck.ID{deck.A, deck.B} {
		d := s.decks[id]
		if !d.loaded || !d.playing {
			continue
		}
		d.position += step * d.rate
		if d.position >= d.track.DurationSeconds {
			s.endOfTrackLocked(id)
		}
	}

	if f := s.fading; f != nil {
		f.elapsed += step
		progress := math.Min(f.elapsed/f.duration, 1)
		s.crossfader = f.start + (f.target-f.start)*progress
		if progress >= 1 {
			s.finishFadeLocked()
		}
	}
}

// followSyncLocked keeps a follower deck at its master's tempo.
func (s *Simulator) followSyncLocked() {
	for _, id := range []deck.ID{deck.A, deck.B} {
		if s.decks[id].syncMode == deck.SyncFollower && s.decks[id.Other()].syncMode == deck.SyncMaster {
			s.matchTempoLocked(id)
		}
	}
}

// endOfTrackLocked handles a deck running off the end of its track.
func (s *Simulator) endOfTrackLocked(id deck.ID) {
	title := s.decks[id].track.Title
	zlog.Info().Msgf("mixer: track ended: deck=%s title=%q", id, title)

	if s.fading != nil && s.fading.from == id {
		s.finishFadeLocked()
		return
	}

	s.loadNextLocked(id)
	// Keep the music going when nothing else is playing.
	if !s.decks[id.Other()].playing {
		other := s.decks[id.Other()]
		other.playing = true
		s.crossfader = -1
		if id == deck.A {
			s.crossfader = 1
		}
	}
}

// finishFadeLocked completes a fade: the outgoing deck is replaced by the
// next track of the list.
func (s *Simulator) finishFadeLocked() {
	f := s.fading
	s.fading = nil
	s.crossfader = f.target
	s.loadNextLocked(f.from)

	zlog.Info().Msgf("mixer: fade finished: now=%s cued=%q", f.to, s.decks[f.from].track.Title)
}

// Run advances the simulation by wall time until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Advance(now.Sub(last))
			last = now
		}
	}
}

// SubscribeEnabled implements runner.Host.
func (s *Simulator) SubscribeEnabled(fn func(enabled bool)) (func(), error) {
	s.mu.Lock()
	if s.settings.NoEnableSignal {
		s.mu.Unlock()
		return nil, ErrNoEnableSignal
	}
	s.listenerID++
	id := s.listenerID
	s.listeners[id] = fn
	enabled := s.enabled
	s.mu.Unlock()

	fn(enabled)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}, nil
}

// SetAutoDJ flips the simulated AutoDJ enable control.
func (s *Simulator) SetAutoDJ(enabled bool) {
	s.mu.Lock()
	if s.enabled == enabled {
		s.mu.Unlock()
		return
	}
	s.enabled = enabled
	fns := make([]func(bool), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	zlog.Info().Msgf("mixer: autodj control changed: enabled=%v", enabled)
	for _, fn := range fns {
		fn(enabled)
	}
}

// Loads returns how many tracks have been loaded onto decks so far.
func (s *Simulator) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

// Fading reports whether an automatic crossfade is in progress.
func (s *Simulator) Fading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fading != nil
}

// Close stops serving reads and commands.
func (s *Simulator) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
