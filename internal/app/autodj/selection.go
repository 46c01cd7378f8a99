package autodj

import (
	"math"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/automix/internal/domain/command"
	"github.com/osa030/automix/internal/domain/deck"
)

// keyEpsilon absorbs float noise in the key read back from the host.
const keyEpsilon = 0.001

// Reject codes for the upcoming track.
const (
	CodeTempoMismatch = "tempo_mismatch"
	CodeKeyMismatch   = "key_mismatch"
)

// KeySyncer aligns a deck's key to the other deck and reports the result.
// Implementations pulse the host's key sync and read the key back.
type KeySyncer interface {
	SyncKey(d deck.ID) (float64, error)
}

// Verdict is the outcome of checking the upcoming track.
type Verdict struct {
	Accepted bool
	Code     string // Reject reason when not accepted
}

func accept() Verdict {
	return Verdict{Accepted: true}
}

func reject(code string) Verdict {
	return Verdict{Accepted: false, Code: code}
}

// checkTempo rejects a track whose tempo cannot be reconciled, even
// allowing for double or half time.
func checkTempo(diff TempoDiff, cfg Config) Verdict {
	if !diff.Reconcilable(cfg.MaxBPMAdjustment) {
		return reject(CodeTempoMismatch)
	}
	return accept()
}

// checkKey syncs the next key and rejects too large a shift while the skip
// budget lasts. Once the budget is spent the shift is undone and the track
// accepted. ok is false when the host could not be probed.
func checkKey(p Pair, st *State, cfg Config, keys KeySyncer) (v Verdict, cmds []command.Command, ok bool) {
	oldKey := p.NextDeck.Key
	newKey, err := keys.SyncKey(p.Next)
	if err != nil {
		zlog.Warn().Msgf("autodj: key sync failed, retrying next tick: deck=%s err=%v", p.Next, err)
		return Verdict{}, nil, false
	}

	shift := math.Abs(newKey - oldKey)
	if shift <= cfg.TransposeMax+keyEpsilon {
		return accept(), nil, true
	}

	if st.SkipStreak < cfg.TransposeSkipsMax {
		st.SkipStreak++
		return reject(CodeKeyMismatch), nil, true
	}

	zlog.Info().Msgf("autodj: skip budget spent, keeping original key: deck=%s shift=%.2f streak=%d",
		p.Next, shift, st.SkipStreak)
	return accept(), []command.Command{command.Key(p.Next, oldKey)}, true
}

// selectNext decides whether to skip or stage the upcoming track.
// A staged track is not re-examined until it is consumed or skipped.
func selectNext(p Pair, diff TempoDiff, st *State, cfg Config, keys KeySyncer) []command.Command {
	if st.SongStaged {
		return nil
	}

	st.RefineTicks++
	if st.RefineTicks < cfg.refineTicks() {
		return nil
	}

	var cmds []command.Command
	verdict := checkTempo(diff, cfg)

	if verdict.Accepted && cfg.Transpose && keys != nil {
		v, keyCmds, ok := checkKey(p, st, cfg, keys)
		if !ok {
			return nil
		}
		verdict = v
		cmds = append(cmds, keyCmds...)
	}
	st.RefineTicks = 0

	if !verdict.Accepted {
		st.SongStaged = false
		st.TotalSkips++
		zlog.Info().Msgf("autodj: skipping next track: deck=%s code=%s direct=%.2f%% doubled=%.2f%% streak=%d total=%d",
			p.Next, verdict.Code, diff.Direct, diff.Doubled, st.SkipStreak, st.TotalSkips)
		return append(cmds, command.SkipNext())
	}

	st.SkipStreak = 0
	st.SongStaged = true

	tempo := stagedTempo(p.PrevDeck.FileBPM, p.NextDeck.FileBPM, diff, cfg.BPMSyncFade)
	cmds = append(cmds, command.PositionForEntry(p.Next, cfg.PreStartBeats))
	if cfg.UseEQ {
		cmds = append(cmds, command.Eq(p.Next, eqStagedBass))
	}
	cmds = append(cmds, command.Tempo(p.Next, tempo))

	zlog.Info().Msgf("autodj: staged next track: deck=%s tempo=%.2f pre_start=%d",
		p.Next, tempo, cfg.PreStartBeats)
	return cmds
}
