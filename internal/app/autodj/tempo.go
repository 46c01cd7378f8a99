package autodj

import (
	"math"

	"github.com/osa030/automix/internal/domain/command"
	"github.com/osa030/automix/internal/domain/deck"
)

const (
	// syncReleasePoint is the crossfader fraction at which sync is released.
	// It leaves more than one tick of fade after phase alignment.
	syncReleasePoint = 0.75
	// rampRate is the share of the remaining tempo gap closed per tick,
	// further scaled by the crossfader fraction.
	rampRate = 0.25
)

// TempoDiff holds the percentage tempo deviation of next from prev.
type TempoDiff struct {
	Direct  float64 // 100·|n−p|/n
	Doubled float64 // Same, against p×2 or p×0.5, whichever is closer to n
}

// CompareTempo computes the direct and doubled/halved deviations.
// A non-positive next tempo is never reconcilable.
func CompareTempo(prevBPM, nextBPM float64) TempoDiff {
	if nextBPM <= 0 {
		return TempoDiff{Direct: math.Inf(1), Doubled: math.Inf(1)}
	}

	reference := prevBPM * 2
	if nextBPM < prevBPM {
		reference = prevBPM * 0.5
	}

	return TempoDiff{
		Direct:  100 * math.Abs(nextBPM-prevBPM) / nextBPM,
		Doubled: 100 * math.Abs(nextBPM-reference) / nextBPM,
	}
}

// PreferDoubled reports whether a double/half tempo relationship is closer.
func (d TempoDiff) PreferDoubled() bool {
	return d.Doubled < d.Direct
}

// Reconcilable reports whether either deviation fits within maxPercent.
func (d TempoDiff) Reconcilable(maxPercent float64) bool {
	return d.Direct <= maxPercent || d.Doubled <= maxPercent
}

// rampTarget is the tempo prev converges to while fading.
func rampTarget(prevFileBPM, nextFileBPM float64, diff TempoDiff) float64 {
	if !diff.PreferDoubled() {
		return nextFileBPM
	}
	if nextFileBPM < prevFileBPM {
		return nextFileBPM * 2
	}
	return nextFileBPM / 2
}

// stagedTempo is the starting tempo for the next deck.
func stagedTempo(prevFileBPM, nextFileBPM float64, diff TempoDiff, gradual bool) float64 {
	if !gradual {
		return nextFileBPM
	}
	if !diff.PreferDoubled() {
		return prevFileBPM
	}
	if nextFileBPM < prevFileBPM {
		return prevFileBPM / 2
	}
	return prevFileBPM * 2
}

// syncFading engages, ramps and releases tempo sync during a blend.
func syncFading(p Pair, diff TempoDiff, st *State, cfg Config) []command.Command {
	if !cfg.BPMSync {
		return nil
	}

	var cmds []command.Command
	cf := p.Crossfader

	if cf > syncReleasePoint && st.Syncing {
		st.Syncing = false
		if cfg.BPMSyncFade {
			cmds = append(cmds, command.SyncEnable(p.Next))
		} else {
			cmds = append(cmds, command.SyncEnable(p.Prev))
		}
		cmds = append(cmds,
			command.SyncMode(p.Prev, deck.SyncNone),
			command.SyncMode(p.Next, deck.SyncNone),
		)
	} else if cf < syncReleasePoint && !st.Syncing {
		// Follower is set before master so the host does not re-adjust late.
		if cfg.BPMSyncFade {
			st.Syncing = true
			cmds = append(cmds,
				command.SyncMode(p.Next, deck.SyncFollower),
				command.SyncMode(p.Prev, deck.SyncMaster),
				command.SyncEnable(p.Next),
			)
		} else if p.PrevDeck.BeatActive {
			st.Syncing = true
			cmds = append(cmds,
				command.SyncMode(p.Prev, deck.SyncFollower),
				command.SyncMode(p.Next, deck.SyncMaster),
				command.SyncEnable(p.Prev),
			)
		}
	}

	if cfg.BPMSyncFade && st.Syncing {
		current := p.PrevDeck.BPM
		target := rampTarget(p.PrevDeck.FileBPM, p.NextDeck.FileBPM, diff)
		cmds = append(cmds, command.Tempo(p.Prev, current+rampRate*cf*(target-current)))
	}

	return cmds
}

// syncSelecting pins prev back to its file tempo and clears a stale sync.
func syncSelecting(p Pair, st *State, cfg Config) []command.Command {
	var cmds []command.Command

	if cfg.BPMSyncFade {
		cmds = append(cmds, command.Tempo(p.Prev, p.PrevDeck.FileBPM))
	}

	if st.Syncing {
		st.Syncing = false
		cmds = append(cmds,
			command.SyncMode(p.Prev, deck.SyncNone),
			command.SyncMode(p.Next, deck.SyncNone),
		)
	}

	return cmds
}
