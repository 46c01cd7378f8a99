package session

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/automix/internal/app/autodj"
	"github.com/osa030/automix/internal/app/runner"
	"github.com/osa030/automix/internal/domain/command"
	"github.com/osa030/automix/internal/domain/deck"
)

// Mock Host without an enable signal.
type stubHost struct{}

func (stubHost) Read(ctx context.Context) (deck.Snapshot, error) {
	return deck.Snapshot{}, errors.New("not loaded")
}

func (stubHost) Apply(ctx context.Context, cmds ...command.Command) error { return nil }

func (stubHost) Key(ctx context.Context, d deck.ID) (float64, error) { return 0, nil }

func (stubHost) SubscribeEnabled(fn func(bool)) (func(), error) {
	return nil, errors.New("no enable signal")
}

type collectingStream struct {
	mu  sync.Mutex
	got []*structpb.Struct
}

func (s *collectingStream) Send(n *structpb.Struct) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, n)
	return nil
}

func (s *collectingStream) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var types []string
	for _, n := range s.got {
		types = append(types, n.Fields["type"].GetStringValue())
	}
	return types
}

func testConfig() autodj.Config {
	cfg := autodj.DefaultConfig()
	cfg.TickInterval = time.Hour
	return cfg
}

func TestManager_Lifecycle(t *testing.T) {
	m := NewManager(testConfig(), stubHost{})
	defer m.Close()

	stream := &collectingStream{}
	m.GetNotificationManager().Subscribe(stream)

	require.NoError(t, m.Start(context.Background()))
	assert.ErrorIs(t, m.Start(context.Background()), ErrSessionRunning)

	// No enable signal: the runner runs always-on.
	require.Eventually(t, func() bool {
		types := stream.types()
		return len(types) == 1 && types[0] == runner.EventEnabled.String()
	}, time.Second, 5*time.Millisecond)

	status := m.GetStatus()
	assert.NotEmpty(t, status.RunID)
	assert.False(t, status.StartedAt.IsZero())
	assert.Equal(t, 1, status.Subscribers)
	assert.True(t, status.Runner.Enabled)

	require.NoError(t, m.SetEnabled(false))
	require.Eventually(t, func() bool {
		return len(stream.types()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, runner.EventDisabled.String(), stream.types()[1])

	require.NoError(t, m.Stop())
	assert.ErrorIs(t, m.Stop(), ErrSessionNotRunning)
	select {
	case <-m.Done():
	default:
		t.Fatal("done channel should be closed")
	}
	assert.Contains(t, stream.types(), TypeStopped)
}

func TestManager_SetEnabledBeforeStart(t *testing.T) {
	m := NewManager(testConfig(), stubHost{})
	defer m.Close()

	assert.ErrorIs(t, m.SetEnabled(true), runner.ErrNotStarted)
}

func TestStatusStruct(t *testing.T) {
	s := &Status{
		RunID:       "run-1",
		StartedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Subscribers: 2,
		Runner: runner.Status{
			State:      runner.StateRunning,
			Enabled:    true,
			Ticks:      42,
			Defined:    true,
			Phase:      autodj.PhaseFading,
			Prev:       deck.B,
			Next:       deck.A,
			Crossfader: 0.25,
			TempoDiff:  autodj.TempoDiff{Direct: math.Inf(1), Doubled: 1.5},
			Transition: autodj.State{Syncing: true, TotalSkips: 3},
		},
	}

	got := StatusStruct(s).AsMap()

	assert.Equal(t, "run-1", got["run_id"])
	assert.Equal(t, "running", got["state"])
	assert.Equal(t, true, got["enabled"])
	assert.Equal(t, 42.0, got["ticks"])
	assert.Equal(t, "fading", got["phase"])
	assert.Equal(t, deck.B.String(), got["prev_deck"])
	assert.Nil(t, got["tempo_diff_direct"])
	assert.Equal(t, 1.5, got["tempo_diff_doubled"])

	transition, ok := got["transition"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, transition["syncing"])
	assert.Equal(t, 3.0, transition["total_skips"])
}

func TestStatusStruct_Undefined(t *testing.T) {
	got := StatusStruct(&Status{RunID: "run-1"}).AsMap()

	assert.Equal(t, false, got["defined"])
	assert.NotContains(t, got, "phase")
	assert.Equal(t, "", got["started_at"])
}

func TestEventStruct(t *testing.T) {
	e := runner.Event{
		Type:  runner.EventTrackSkipped,
		Time:  time.Now(),
		Phase: autodj.PhaseSelecting,
		Deck:  deck.B,
		Code:  autodj.CodeKeyMismatch,
		State: autodj.State{SkipStreak: 1, TotalSkips: 1},
	}

	got := EventStruct("run-1", e).AsMap()

	assert.Equal(t, "track_skipped", got["type"])
	assert.Equal(t, "selecting", got["phase"])
	assert.Equal(t, deck.B.String(), got["deck"])
	assert.Equal(t, autodj.CodeKeyMismatch, got["code"])

	enabled := EventStruct("run-1", runner.Event{Type: runner.EventEnabled}).AsMap()
	assert.NotContains(t, enabled, "phase")
	assert.NotContains(t, enabled, "deck")
	assert.NotContains(t, enabled, "code")
}
