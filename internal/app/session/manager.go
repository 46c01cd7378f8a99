// Package session provides the session manager that ties the runner to its
// subscribers.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/automix/internal/app/autodj"
	"github.com/osa030/automix/internal/app/notification"
	"github.com/osa030/automix/internal/app/runner"
)

var (
	ErrSessionNotRunning = errors.New("session is not running")
	ErrSessionRunning    = errors.New("session is already running")
)

// Status is the session status reported to clients.
type Status struct {
	RunID       string
	StartedAt   time.Time
	Subscribers int
	Runner      runner.Status
}

// Manager manages one controller session.
type Manager struct {
	mu sync.RWMutex

	runID     string
	startedAt time.Time
	running   bool

	// Components
	runner       *runner.Runner
	notification *notification.Manager

	// Channels
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a new session manager for the given host.
func NewManager(cfg autodj.Config, host runner.Host) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		runID:        uuid.New().String(),
		runner:       runner.New(host, cfg),
		notification: notification.NewManager(),
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
}

// Start starts the runner and the event loop.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrSessionRunning
	}
	m.running = true
	m.startedAt = time.Now()
	m.mu.Unlock()

	go m.eventLoop()

	if err := m.runner.Start(m.ctx); err != nil {
		return errors.Wrap(err, "failed to start runner")
	}

	zlog.Info().Msgf("session started: run_id=%s", m.runID)
	return nil
}

// Stop stops the runner. Subscribers are notified and released.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return ErrSessionNotRunning
	}
	m.running = false
	m.mu.Unlock()

	m.runner.Stop()
	m.notification.Broadcast(stoppedStruct(m.runID))

	zlog.Info().Msgf("session stopped: run_id=%s", m.runID)
	close(m.done)
	return nil
}

// Done returns a channel closed when the session stops.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// SetEnabled switches AutoDJ on or off.
func (m *Manager) SetEnabled(enabled bool) error {
	if err := m.runner.SetEnabled(enabled); err != nil {
		return errors.Wrap(err, "failed to toggle autodj")
	}
	return nil
}

// GetStatus returns the current session status.
func (m *Manager) GetStatus() *Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return &Status{
		RunID:       m.runID,
		StartedAt:   m.startedAt,
		Subscribers: m.notification.SubscriberCount(),
		Runner:      m.runner.Status(),
	}
}

// Config returns the controller configuration.
func (m *Manager) Config() autodj.Config {
	return m.runner.Config()
}

// GetNotificationManager returns the notification manager.
func (m *Manager) GetNotificationManager() *notification.Manager {
	return m.notification
}

// Close releases the session. It is safe to call after Stop.
func (m *Manager) Close() {
	_ = m.Stop()
	m.cancel()
	m.runner.Close()
	m.notification.Close()
}

// eventLoop relays runner events to subscribers.
func (m *Manager) eventLoop() {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("session: event loop panicked: %v", r)
			// Restart loop so events keep flowing
			zlog.Info().Msg("session: restarting event loop")
			go m.eventLoop()
		}
	}()

	for {
		select {
		case <-m.ctx.Done():
			return
		case event, ok := <-m.runner.Events():
			if !ok {
				return
			}
			m.handleRunnerEvent(event)
		}
	}
}

// handleRunnerEvent broadcasts a runner event.
func (m *Manager) handleRunnerEvent(event runner.Event) {
	switch event.Type {
	case runner.EventTrackSkipped:
		zlog.Info().Msgf("session: track skipped: deck=%s code=%s total=%d", event.Deck, event.Code, event.State.TotalSkips)
	default:
		zlog.Debug().Msgf("session: runner event: type=%s phase=%s", event.Type, event.Phase)
	}

	seq := m.notification.Broadcast(EventStruct(m.runID, event))
	zlog.Debug().Msgf("session: broadcast %s: sequence_no=%d subscribers=%d", event.Type, seq, m.notification.SubscriberCount())
}
