package runner

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/automix/internal/app/autodj"
	"github.com/osa030/automix/internal/domain/command"
	"github.com/osa030/automix/internal/domain/deck"
)

// Errors
var (
	ErrNotStarted     = errors.New("runner not started")
	ErrAlreadyStarted = errors.New("runner already started")
)

// Host is the mixing application the runner controls.
type Host interface {
	// Read returns the telemetry of both decks.
	Read(ctx context.Context) (deck.Snapshot, error)
	// Apply sends commands to the host in order.
	Apply(ctx context.Context, cmds ...command.Command) error
	// Key reads the current key of a deck.
	Key(ctx context.Context, d deck.ID) (float64, error)
	// SubscribeEnabled reports AutoDJ enable changes. The callback is
	// invoked with the current value before SubscribeEnabled returns.
	SubscribeEnabled(fn func(enabled bool)) (unsubscribe func(), err error)
}

// Status is a point-in-time view of the runner.
type Status struct {
	State      State
	Enabled    bool
	Attached   bool // Following the host enable signal
	Ticks      uint64
	ReadErrors uint64
	LastTick   time.Time

	Defined    bool // Last tick resolved deck roles
	Phase      autodj.Phase
	Prev       deck.ID
	Next       deck.ID
	Crossfader float64
	TempoDiff  autodj.TempoDiff
	Transition autodj.State
}

// Runner polls the host on a fixed interval and applies the controller's
// commands. Ticks are serialized by the runner mutex.
type Runner struct {
	mu sync.RWMutex

	host Host
	ctrl *autodj.Controller

	state       State
	enabled     bool
	attached    bool
	generation  uint64 // Bumped on every enable so stale tickers stop
	tickCancel  func()
	unsubscribe func()

	ticks      uint64
	readErrors uint64
	lastTick   time.Time
	lastPhase  autodj.Phase
	hasPhase   bool

	// Events
	eventCh chan Event
	closed  bool

	// Context
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new runner for the given host.
func New(host Host, config autodj.Config) *Runner {
	return &Runner{
		host:    host,
		ctrl:    autodj.NewController(config),
		state:   StateStopped,
		eventCh: make(chan Event, 64),
	}
}

// Events returns the event channel.
func (r *Runner) Events() <-chan Event {
	return r.eventCh
}

// Start initialises the decks and attaches to the host enable signal.
// When the signal is unavailable the runner stays enabled for its lifetime.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.state != StateStopped {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.state = StateIdle
	r.mu.Unlock()

	if err := r.host.Apply(ctx, initCommands()...); err != nil {
		zlog.Warn().Msgf("runner: failed to initialise decks: err=%v", err)
	}

	// The callback re-enters the runner, so the lock must not be held here.
	unsubscribe, err := r.host.SubscribeEnabled(r.OnEnabledChanged)
	if err != nil {
		zlog.Warn().Msgf("runner: enable signal unavailable, running always-on: err=%v", err)
		r.OnEnabledChanged(true)
		return nil
	}

	r.mu.Lock()
	r.attached = true
	r.unsubscribe = unsubscribe
	r.mu.Unlock()

	zlog.Info().Msg("runner: attached to host enable signal")
	return nil
}

// initCommands puts both decks into the state transitions rely on.
func initCommands() []command.Command {
	return []command.Command{
		command.Quantize(deck.A, true),
		command.Quantize(deck.B, true),
		command.Keylock(deck.A, true),
		command.Keylock(deck.B, true),
		command.Crossfader(-1),
	}
}

// Stop detaches from the host and stops ticking.
func (r *Runner) Stop() {
	r.mu.Lock()
	unsubscribe := r.unsubscribe
	r.unsubscribe = nil
	r.stopTickerLocked()
	r.enabled = false
	r.attached = false
	r.state = StateStopped
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Close stops the runner and closes the event channel.
func (r *Runner) Close() {
	r.Stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.closed = true
		close(r.eventCh)
	}
}

// OnEnabledChanged handles the host's AutoDJ enable signal.
func (r *Runner) OnEnabledChanged(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.setEnabledLocked(enabled, "host")
}

// SetEnabled switches AutoDJ on or off explicitly.
func (r *Runner) SetEnabled(enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateStopped {
		return ErrNotStarted
	}
	r.setEnabledLocked(enabled, "api")
	return nil
}

func (r *Runner) setEnabledLocked(enabled bool, source string) {
	if r.state == StateStopped || enabled == r.enabled {
		return
	}
	r.enabled = enabled

	if !enabled {
		// Disabling leaves the decks as they are.
		r.stopTickerLocked()
		r.state = StateIdle
		zlog.Info().Msgf("runner: autodj disabled: source=%s", source)
		r.sendEventLocked(Event{Type: EventDisabled, Time: time.Now(), State: r.ctrl.State()})
		return
	}

	r.ctrl.Reset()
	r.hasPhase = false
	r.state = StateRunning
	r.startTickerLocked()

	zlog.Info().Msgf("runner: autodj enabled: source=%s interval=%v", source, r.ctrl.Config().TickInterval)
	r.sendEventLocked(Event{Type: EventEnabled, Time: time.Now(), State: r.ctrl.State()})
}

// Status returns the current runner status.
func (r *Runner) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Status{
		State:      r.state,
		Enabled:    r.enabled,
		Attached:   r.attached,
		Ticks:      r.ticks,
		ReadErrors: r.readErrors,
		LastTick:   r.lastTick,
		Transition: r.ctrl.State(),
	}
	if last, ok := r.ctrl.Last(); ok {
		s.Defined = true
		s.Phase = last.Phase
		s.Prev = last.Pair.Prev
		s.Next = last.Pair.Next
		s.Crossfader = last.Pair.Crossfader
		s.TempoDiff = last.Diff
	}
	return s
}

// Config returns the controller configuration.
func (r *Runner) Config() autodj.Config {
	return r.ctrl.Config()
}

// startTickerLocked starts the polling goroutine.
// Must be called with lock held.
func (r *Runner) startTickerLocked() {
	r.stopTickerLocked()
	r.generation++

	interval := r.ctrl.Config().TickInterval
	if interval <= 0 {
		interval = autodj.DefaultConfig().TickInterval
	}

	ctx, cancel := context.WithCancel(r.ctx)
	r.tickCancel = cancel
	gen := r.generation

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.tick(ctx, gen)
			}
		}
	}()
}

// stopTickerLocked stops the polling goroutine if any.
// Must be called with lock held.
func (r *Runner) stopTickerLocked() {
	if r.tickCancel != nil {
		r.tickCancel()
		r.tickCancel = nil
	}
}

// tick runs one controller step. Ticks from a previous enable are dropped.
func (r *Runner) tick(ctx context.Context, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.enabled || gen != r.generation {
		return
	}
	r.tickLocked(ctx)
}

// tickLocked reads telemetry, evaluates and applies the resulting commands.
// Must be called with lock held.
func (r *Runner) tickLocked(ctx context.Context) {
	snap, err := r.host.Read(ctx)
	if err != nil {
		r.readErrors++
		zlog.Debug().Msgf("runner: telemetry read failed, skipping tick: err=%v", err)
		return
	}

	before := r.ctrl.State()
	res := r.ctrl.Step(snap, &hostKeys{ctx: ctx, host: r.host})
	r.ticks++
	r.lastTick = time.Now()

	if !res.Defined {
		zlog.Debug().Msg("runner: deck roles undefined, skipping tick")
		return
	}

	if len(res.Commands) > 0 {
		zlog.Debug().Msgf("runner: applying commands: phase=%s count=%d", res.Phase, len(res.Commands))
		if err := r.host.Apply(ctx, res.Commands...); err != nil {
			zlog.Warn().Msgf("runner: failed to apply commands: phase=%s err=%v", res.Phase, err)
		}
	}

	r.emitLocked(before, res)
}

// emitLocked derives events from a tick's state change and commands.
// Must be called with lock held.
func (r *Runner) emitLocked(before autodj.State, res autodj.Result) {
	now := time.Now()
	after := res.State
	event := func(t EventType, d deck.ID) Event {
		return Event{Type: t, Time: now, Phase: res.Phase, Deck: d, State: after}
	}

	if !r.hasPhase || r.lastPhase != res.Phase {
		zlog.Info().Msgf("runner: phase changed: phase=%s prev=%s next=%s", res.Phase, res.Pair.Prev, res.Pair.Next)
		r.hasPhase = true
		r.lastPhase = res.Phase
		r.sendEventLocked(event(EventPhaseChanged, res.Pair.Next))
	}

	if command.Count(res.Commands, command.TriggerFadeNow) > 0 {
		zlog.Info().Msgf("runner: exit point reached, fading: prev=%s", res.Pair.Prev)
		r.sendEventLocked(event(EventFadeTriggered, res.Pair.Prev))
	}

	if command.Count(res.Commands, command.TriggerSkipNext) > 0 {
		e := event(EventTrackSkipped, res.Pair.Next)
		e.Code = autodj.CodeTempoMismatch
		if after.SkipStreak > before.SkipStreak {
			e.Code = autodj.CodeKeyMismatch
		}
		r.sendEventLocked(e)
	}

	if !before.SongStaged && after.SongStaged {
		r.sendEventLocked(event(EventTrackStaged, res.Pair.Next))
	}

	switch {
	case !before.Syncing && after.Syncing:
		r.sendEventLocked(event(EventSyncEngaged, res.Pair.Next))
	case before.Syncing && !after.Syncing:
		r.sendEventLocked(event(EventSyncReleased, res.Pair.Next))
	}
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (r *Runner) sendEventLocked(e Event) {
	if r.closed {
		return
	}
	select {
	case r.eventCh <- e:
	default:
		zlog.Warn().Msgf("runner: event channel full, dropping event: type=%s", e.Type)
	}
}

// hostKeys aligns a deck's key through the host's key sync.
type hostKeys struct {
	ctx  context.Context
	host Host
}

func (k *hostKeys) SyncKey(d deck.ID) (float64, error) {
	if err := k.host.Apply(k.ctx, command.SyncKey(d)); err != nil {
		return 0, errors.Wrapf(err, "failed to pulse key sync on deck %s", d)
	}
	key, err := k.host.Key(k.ctx, d)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to read key of deck %s", d)
	}
	return key, nil
}
