package session

import (
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/automix/internal/app/autodj"
	"github.com/osa030/automix/internal/app/runner"
)

// Notification types that do not come from runner events.
const (
	TypeInitialState = "initial_state"
	TypeStopped      = "stopped"
)

// StatusStruct encodes a status for the control API.
func StatusStruct(s *Status) *structpb.Struct {
	r := s.Runner
	fields := map[string]*structpb.Value{
		"run_id":      structpb.NewStringValue(s.RunID),
		"started_at":  structpb.NewStringValue(formatTime(s.StartedAt)),
		"subscribers": structpb.NewNumberValue(float64(s.Subscribers)),
		"state":       structpb.NewStringValue(r.State.String()),
		"enabled":     structpb.NewBoolValue(r.Enabled),
		"attached":    structpb.NewBoolValue(r.Attached),
		"ticks":       structpb.NewNumberValue(float64(r.Ticks)),
		"read_errors": structpb.NewNumberValue(float64(r.ReadErrors)),
		"last_tick":   structpb.NewStringValue(formatTime(r.LastTick)),
		"defined":     structpb.NewBoolValue(r.Defined),
		"transition":  structpb.NewStructValue(transitionStruct(r.Transition)),
	}
	if r.Defined {
		fields["phase"] = structpb.NewStringValue(r.Phase.String())
		fields["prev_deck"] = structpb.NewStringValue(r.Prev.String())
		fields["next_deck"] = structpb.NewStringValue(r.Next.String())
		fields["crossfader"] = structpb.NewNumberValue(r.Crossfader)
		fields["tempo_diff_direct"] = numberOrNull(r.TempoDiff.Direct)
		fields["tempo_diff_doubled"] = numberOrNull(r.TempoDiff.Doubled)
	}
	return &structpb.Struct{Fields: fields}
}

// EventStruct encodes a runner event as a notification.
func EventStruct(runID string, e runner.Event) *structpb.Struct {
	fields := map[string]*structpb.Value{
		"type":       structpb.NewStringValue(e.Type.String()),
		"run_id":     structpb.NewStringValue(runID),
		"time":       structpb.NewStringValue(formatTime(e.Time)),
		"transition": structpb.NewStructValue(transitionStruct(e.State)),
	}
	switch e.Type {
	case runner.EventEnabled, runner.EventDisabled:
	default:
		fields["phase"] = structpb.NewStringValue(e.Phase.String())
	}
	if e.Deck.Valid() {
		fields["deck"] = structpb.NewStringValue(e.Deck.String())
	}
	if e.Code != "" {
		fields["code"] = structpb.NewStringValue(e.Code)
	}
	return &structpb.Struct{Fields: fields}
}

// InitialStateStruct wraps a status as the first notification of a stream.
func InitialStateStruct(s *Status) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"type":   structpb.NewStringValue(TypeInitialState),
		"run_id": structpb.NewStringValue(s.RunID),
		"status": structpb.NewStructValue(StatusStruct(s)),
	}}
}

func stoppedStruct(runID string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"type":   structpb.NewStringValue(TypeStopped),
		"run_id": structpb.NewStringValue(runID),
		"time":   structpb.NewStringValue(formatTime(time.Now())),
	}}
}

func transitionStruct(st autodj.State) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"syncing":        structpb.NewBoolValue(st.Syncing),
		"song_staged":    structpb.NewBoolValue(st.SongStaged),
		"skip_streak":    structpb.NewNumberValue(float64(st.SkipStreak)),
		"refine_ticks":   structpb.NewNumberValue(float64(st.RefineTicks)),
		"fade_triggered": structpb.NewBoolValue(st.FadeTriggered),
		"total_skips":    structpb.NewNumberValue(float64(st.TotalSkips)),
	}}
}

// numberOrNull encodes non-finite values as null, which JSON cannot carry.
func numberOrNull(v float64) *structpb.Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return structpb.NewNullValue()
	}
	return structpb.NewNumberValue(v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

