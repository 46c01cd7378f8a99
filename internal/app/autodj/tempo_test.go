package autodj

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/automix/internal/domain/command"
	"github.com/osa030/automix/internal/domain/deck"
)

func TestCompareTempo(t *testing.T) {
	tests := []struct {
		name        string
		prev, next  float64
		wantDirect  float64
		wantDoubled float64
		wantPrefer  bool
	}{
		{name: "identical", prev: 120, next: 120, wantDirect: 0, wantDoubled: 100},
		{name: "half time", prev: 128, next: 64, wantDirect: 100, wantDoubled: 0, wantPrefer: true},
		{name: "double time", prev: 70, next: 140, wantDirect: 50, wantDoubled: 0, wantPrefer: true},
		{name: "close tempo", prev: 125, next: 128, wantDirect: 100 * 3.0 / 128, wantDoubled: 100 * 122.0 / 128},
		{name: "near half", prev: 174, next: 85, wantDirect: 100 * 89.0 / 85, wantDoubled: 100 * 2.0 / 85, wantPrefer: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diff := CompareTempo(tt.prev, tt.next)
			assert.InDelta(t, tt.wantDirect, diff.Direct, 1e-9)
			assert.InDelta(t, tt.wantDoubled, diff.Doubled, 1e-9)
			assert.Equal(t, tt.wantPrefer, diff.PreferDoubled())
		})
	}
}

func TestCompareTempo_NonPositiveNext(t *testing.T) {
	diff := CompareTempo(120, 0)
	assert.True(t, math.IsInf(diff.Direct, 1))
	assert.True(t, math.IsInf(diff.Doubled, 1))
	assert.False(t, diff.Reconcilable(1000))
}

func TestCompareTempo_DoublingDirection(t *testing.T) {
	for _, prev := range []float64{70, 100, 128, 174} {
		for next := 30.0; next <= 400; next += 0.5 {
			diff := CompareTempo(prev, next)

			half := 100 * math.Abs(next-prev*0.5) / next
			double := 100 * math.Abs(next-prev*2) / next

			// Direction follows the sign of next − prev.
			if next < prev {
				require.InDelta(t, half, diff.Doubled, 1e-9, "prev=%v next=%v", prev, next)
			} else {
				require.InDelta(t, double, diff.Doubled, 1e-9, "prev=%v next=%v", prev, next)
			}

			// Whenever doubling wins, it used the closer reference.
			if diff.PreferDoubled() {
				require.LessOrEqual(t, diff.Doubled, math.Min(half, double)+1e-9, "prev=%v next=%v", prev, next)
			}
		}
	}
}

func TestTempoGate_ScenarioHalfTime(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBPMAdjustment = 0
	cfg.Transpose = false

	snap := deck.Snapshot{
		A:          newTelemetry(true, 0.4, 128),
		B:          newTelemetry(false, 0, 64),
		Crossfader: -1,
	}

	res := Evaluate(snap, State{}, cfg, nil)

	assert.Equal(t, 0.0, res.Diff.Doubled)
	assert.Equal(t, 0, command.Count(res.Commands, command.TriggerSkipNext))
	assert.True(t, res.State.SongStaged)
}

func fadingPair(cf float64, prevBPM, nextBPM float64) Pair {
	return Pair{
		Prev:       deck.A,
		Next:       deck.B,
		PrevDeck:   newTelemetry(true, 0.9, prevBPM),
		NextDeck:   newTelemetry(true, 0.05, nextBPM),
		Crossfader: cf,
	}
}

func TestSyncFading_ReleaseOnce(t *testing.T) {
	cfg := testConfig()
	st := State{Syncing: true}

	first := syncFading(fadingPair(0.74, 120, 122), CompareTempo(120, 122), &st, cfg)
	assert.True(t, st.Syncing)
	assert.Equal(t, 0, command.Count(first, command.SetSyncMode))

	second := syncFading(fadingPair(0.76, 120, 122), CompareTempo(120, 122), &st, cfg)
	assert.False(t, st.Syncing)
	require.Len(t, second, 3)
	assert.Equal(t, command.SyncEnable(deck.B), second[0])
	assert.Equal(t, command.SyncMode(deck.A, deck.SyncNone), second[1])
	assert.Equal(t, command.SyncMode(deck.B, deck.SyncNone), second[2])

	third := syncFading(fadingPair(0.8, 120, 122), CompareTempo(120, 122), &st, cfg)
	assert.Empty(t, third)
}

func TestSyncFading_ReleaseInstantPulsesPrev(t *testing.T) {
	cfg := testConfig()
	cfg.BPMSyncFade = false
	st := State{Syncing: true}

	cmds := syncFading(fadingPair(0.9, 120, 122), CompareTempo(120, 122), &st, cfg)

	require.NotEmpty(t, cmds)
	assert.Equal(t, command.SyncEnable(deck.A), cmds[0])
	assert.Equal(t, 0, command.Count(cmds, command.SetTempo))
}

func TestSyncFading_EngageGradual(t *testing.T) {
	cfg := testConfig()
	st := State{}

	cmds := syncFading(fadingPair(0.2, 120, 124), CompareTempo(120, 124), &st, cfg)

	assert.True(t, st.Syncing)
	require.Len(t, cmds, 4)
	assert.Equal(t, command.SyncMode(deck.B, deck.SyncFollower), cmds[0])
	assert.Equal(t, command.SyncMode(deck.A, deck.SyncMaster), cmds[1])
	assert.Equal(t, command.SyncEnable(deck.B), cmds[2])
	assert.Equal(t, command.SetTempo, cmds[3].Kind)
	assert.InDelta(t, 120+0.25*0.2*4, cmds[3].Value, 1e-9)
}

func TestSyncFading_EngageInstantWaitsForBeat(t *testing.T) {
	cfg := testConfig()
	cfg.BPMSyncFade = false
	st := State{}

	p := fadingPair(0.2, 120, 124)
	cmds := syncFading(p, CompareTempo(120, 124), &st, cfg)
	assert.Empty(t, cmds)
	assert.False(t, st.Syncing)

	p.PrevDeck.BeatActive = true
	cmds = syncFading(p, CompareTempo(120, 124), &st, cfg)
	assert.True(t, st.Syncing)
	assert.Equal(t, []command.Command{
		command.SyncMode(deck.A, deck.SyncFollower),
		command.SyncMode(deck.B, deck.SyncMaster),
		command.SyncEnable(deck.A),
	}, cmds)
}

func TestSyncFading_RampTowardDoubledTarget(t *testing.T) {
	cfg := testConfig()
	st := State{Syncing: true}

	cmds := syncFading(fadingPair(0.4, 130, 64), CompareTempo(130, 64), &st, cfg)

	tempo, ok := command.Find(cmds, command.SetTempo)
	require.True(t, ok)
	assert.Equal(t, deck.A, tempo.Deck)
	assert.InDelta(t, 130+0.25*0.4*(128-130), tempo.Value, 1e-9)
}

func TestSyncFading_RampConverges(t *testing.T) {
	cfg := testConfig()
	st := State{Syncing: true}
	p := fadingPair(0, 120, 126)
	diff := CompareTempo(120, 126)

	for cf := 0.0; cf < syncReleasePoint; cf += 0.02 {
		p.Crossfader = cf
		cmds := syncFading(p, diff, &st, cfg)
		tempo, ok := command.Find(cmds, command.SetTempo)
		require.True(t, ok)
		require.GreaterOrEqual(t, tempo.Value, p.PrevDeck.BPM, "ramp must be monotone")
		require.LessOrEqual(t, tempo.Value, 126.0)
		p.PrevDeck.BPM = tempo.Value
	}
	assert.InDelta(t, 126, p.PrevDeck.BPM, 0.5)
}

func TestSyncFading_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.BPMSync = false
	st := State{}

	assert.Empty(t, syncFading(fadingPair(0.3, 120, 124), CompareTempo(120, 124), &st, cfg))
	assert.False(t, st.Syncing)
}

func TestSyncSelecting(t *testing.T) {
	tests := []struct {
		name        string
		gradual     bool
		syncing     bool
		wantTempo   bool
		wantCleanup bool
	}{
		{name: "gradual pins tempo", gradual: true, wantTempo: true},
		{name: "instant leaves tempo", gradual: false},
		{name: "aborted sync is cleared", gradual: true, syncing: true, wantTempo: true, wantCleanup: true},
		{name: "aborted instant sync is cleared", gradual: false, syncing: true, wantCleanup: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.BPMSyncFade = tt.gradual
			st := State{Syncing: tt.syncing}
			p := fadingPair(0, 124, 120)
			p.PrevDeck.BPM = 124.00001

			cmds := syncSelecting(p, &st, cfg)

			assert.False(t, st.Syncing)
			tempo, ok := command.Find(cmds, command.SetTempo)
			assert.Equal(t, tt.wantTempo, ok)
			if ok {
				assert.Equal(t, 124.0, tempo.Value)
			}
			if tt.wantCleanup {
				assert.Equal(t, 2, command.Count(cmds, command.SetSyncMode))
			} else {
				assert.Equal(t, 0, command.Count(cmds, command.SetSyncMode))
			}
		})
	}
}

func TestStagedTempo(t *testing.T) {
	tests := []struct {
		name       string
		prev, next float64
		gradual    bool
		expected   float64
	}{
		{name: "instant keeps own tempo", prev: 128, next: 124, gradual: false, expected: 124},
		{name: "gradual matches prev", prev: 128, next: 124, gradual: true, expected: 128},
		{name: "gradual half time", prev: 128, next: 66, gradual: true, expected: 64},
		{name: "gradual double time", prev: 70, next: 138, gradual: true, expected: 140},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diff := CompareTempo(tt.prev, tt.next)
			assert.Equal(t, tt.expected, stagedTempo(tt.prev, tt.next, diff, tt.gradual))
		})
	}
}
