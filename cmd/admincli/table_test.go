package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestStatusRows(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{
		"state":   "running",
		"enabled": true,
		"ticks":   42,
		"transition": map[string]any{
			"skip_streak": 2,
		},
	})
	require.NoError(t, err)
	s.Fields["tempo_diff_direct"] = structpb.NewNullValue()

	assert.Equal(t, [][2]string{
		{"enabled", "true"},
		{"state", "running"},
		{"tempo_diff_direct", "-"},
		{"ticks", "42"},
		{"transition.skip_streak", "2"},
	}, statusRows("", s))

	assert.Contains(t, renderStatus(s), "transition.skip_streak")
}

func TestFormatEvent(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		want string
	}{
		{
			name: "skip",
			in:   map[string]any{"sequence_no": 7, "type": "track_skipped", "phase": "selecting", "deck": "B", "code": "key_mismatch"},
			want: "#7 track_skipped phase=selecting deck=B code=key_mismatch",
		},
		{
			name: "initial state",
			in: map[string]any{"sequence_no": 1, "type": "initial_state", "status": map[string]any{
				"state": "idle", "enabled": false,
			}},
			want: "#1 initial_state state=idle enabled=false",
		},
		{
			name: "enabled",
			in:   map[string]any{"sequence_no": 2, "type": "enabled"},
			want: "#2 enabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := structpb.NewStruct(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, formatEvent(s))
		})
	}
}
