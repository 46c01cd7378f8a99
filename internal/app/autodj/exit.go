package autodj

import "github.com/osa030/automix/internal/domain/command"

const (
	// cueSampleFactor converts host cue samples to frames. The host counts
	// interleaved stereo samples in hotcue positions.
	cueSampleFactor = 2.0
	// exitMargin triggers slightly early to absorb discrete sampling.
	exitMargin = 0.0008
	// tempoDoublingSlack is the BPM slack before a tempo gap counts as
	// double or half time.
	tempoDoublingSlack = 1.0
)

// ExitTriggerPosition returns the prev-deck position at which the fade
// must start. It returns false when the exit cue is unset or the
// telemetry cannot support the computation.
func ExitTriggerPosition(p Pair, preStartBeats int) (float64, bool) {
	prev, next := p.PrevDeck, p.NextDeck
	if !prev.HasExitCue() {
		return 0, false
	}
	if prev.SampleRate <= 0 || prev.Duration <= 0 || prev.BPM <= 0 {
		return 0, false
	}

	exitCuePos := prev.ExitCueSample / prev.SampleRate / prev.Duration / cueSampleFactor
	offset := float64(preStartBeats) * 60.0 / prev.BPM / prev.Duration

	// Keep the pre-roll constant in beats of the incoming track.
	if next.BPM > prev.BPM+tempoDoublingSlack {
		offset *= 0.5
	}
	if next.BPM+tempoDoublingSlack < prev.BPM {
		offset *= 2
	}

	return exitCuePos - offset - exitMargin, true
}

// scheduleExit pulses fade-now once per crossing of the exit threshold.
func scheduleExit(p Pair, st *State, cfg Config) []command.Command {
	threshold, ok := ExitTriggerPosition(p, cfg.PreStartBeats)
	if !ok {
		return nil
	}

	if p.PrevDeck.Position < threshold {
		st.FadeTriggered = false
		return nil
	}
	if st.FadeTriggered {
		return nil
	}

	st.FadeTriggered = true
	return []command.Command{command.FadeNow()}
}
