package autodj

import (
	"github.com/osa030/automix/internal/domain/command"
	"github.com/osa030/automix/internal/domain/deck"
)

// Result is the outcome of evaluating one tick.
type Result struct {
	Defined  bool // False when the tick was skipped for undefined telemetry
	Phase    Phase
	Pair     Pair
	Diff     TempoDiff
	State    State
	Commands []command.Command
}

// Evaluate computes the commands for one tick from a snapshot and the
// previous state. Apart from the key probe it has no side effects; the
// returned State replaces st.
func Evaluate(snap deck.Snapshot, st State, cfg Config, keys KeySyncer) Result {
	pair, ok := ResolveRoles(snap)
	if !ok {
		return Result{State: st}
	}

	diff := CompareTempo(pair.PrevDeck.FileBPM, pair.NextDeck.FileBPM)
	phase := PhaseOf(pair)

	var cmds []command.Command
	switch phase {
	case PhaseFading:
		// The staged track is being consumed.
		st.SongStaged = false
		st.FadeTriggered = false
		st.RefineTicks = 0

		cmds = append(cmds, eqFading(pair, cfg)...)
		cmds = append(cmds, quickEffectFading(pair, cfg)...)
		cmds = append(cmds, syncFading(pair, diff, &st, cfg)...)

	case PhaseSelecting:
		cmds = append(cmds, eqSelecting(pair, cfg)...)
		cmds = append(cmds, syncSelecting(pair, &st, cfg)...)
		cmds = append(cmds, quickEffectSelecting(pair, cfg)...)
		cmds = append(cmds, scheduleExit(pair, &st, cfg)...)
		cmds = append(cmds, selectNext(pair, diff, &st, cfg, keys)...)
	}

	return Result{
		Defined:  true,
		Phase:    phase,
		Pair:     pair,
		Diff:     diff,
		State:    st,
		Commands: cmds,
	}
}
