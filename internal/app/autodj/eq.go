package autodj

import "github.com/osa030/automix/internal/domain/command"

const (
	eqStep          = 0.025 // Bass change per tick
	eqStagedBass    = 0.2   // Bass level of a freshly staged track
	eqNextFadeStart = 0.5   // Crossfader fraction where next bass starts rising
	eqPrevFadeStart = 0.1   // Crossfader fraction where prev bass starts falling

	quickEffectCenter = 0.5
)

// eqFading swaps bass from prev to next as the crossfader moves.
func eqFading(p Pair, cfg Config) []command.Command {
	if !cfg.UseEQ {
		return nil
	}

	var cmds []command.Command
	if p.Crossfader > eqNextFadeStart {
		cmds = append(cmds, command.Eq(p.Next, stepToward(p.NextDeck.BassEQ, 1)))
	}
	if p.Crossfader > eqPrevFadeStart {
		cmds = append(cmds, command.Eq(p.Prev, stepToward(p.PrevDeck.BassEQ, 0)))
	}
	return cmds
}

// eqSelecting restores full bass on the deck that kept playing.
func eqSelecting(p Pair, cfg Config) []command.Command {
	if !cfg.UseEQ || p.PrevDeck.BassEQ == 1 {
		return nil
	}
	return []command.Command{command.Eq(p.Prev, stepToward(p.PrevDeck.BassEQ, 1))}
}

// stepToward moves v one eqStep toward target and clamps to [0,1].
func stepToward(v, target float64) float64 {
	switch {
	case v < target:
		v += eqStep
		if v > target {
			v = target
		}
	case v > target:
		v -= eqStep
		if v < target {
			v = target
		}
	}
	return clamp01(v)
}

// quickEffectSign is +1 when next fades in from the right.
func quickEffectSign(cfg Config) float64 {
	if cfg.ReverseQuickEffect {
		return -1
	}
	return 1
}

// quickEffectFading sweeps prev away from center and next back to it.
func quickEffectFading(p Pair, cfg Config) []command.Command {
	if !cfg.FadeQuickEffect {
		return nil
	}
	half := cfg.FadeRange / 2
	sign := quickEffectSign(cfg)
	return []command.Command{
		command.QuickEffect(p.Prev, clamp01(quickEffectCenter-sign*half*p.Crossfader)),
		command.QuickEffect(p.Next, clamp01(quickEffectCenter+sign*half*(1-p.Crossfader))),
	}
}

// quickEffectSelecting prepares the knobs for the next blend.
func quickEffectSelecting(p Pair, cfg Config) []command.Command {
	if !cfg.FadeQuickEffect {
		return nil
	}
	return []command.Command{
		command.QuickEffect(p.Next, clamp01(quickEffectCenter+quickEffectSign(cfg)*cfg.FadeRange/2)),
		command.QuickEffect(p.Prev, quickEffectCenter),
	}
}
