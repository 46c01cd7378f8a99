package notification

import (
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

type recordingStream struct {
	mu    sync.Mutex
	got   []*structpb.Struct
	err   error
	block chan struct{}
}

func (s *recordingStream) Send(n *structpb.Struct) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, n)
	return s.err
}

func (s *recordingStream) received() []*structpb.Struct {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*structpb.Struct(nil), s.got...)
}

func newNotification(t *testing.T, kind string) *structpb.Struct {
	n, err := structpb.NewStruct(map[string]any{"type": kind})
	require.NoError(t, err)
	return n
}

func TestManager_BroadcastStampsSequence(t *testing.T) {
	m := NewManager()
	a, b := &recordingStream{}, &recordingStream{}
	m.Subscribe(a)
	m.Subscribe(b)

	assert.Equal(t, uint64(1), m.Broadcast(newNotification(t, "enabled")))
	assert.Equal(t, uint64(2), m.Broadcast(newNotification(t, "phase_changed")))

	for _, s := range []*recordingStream{a, b} {
		got := s.received()
		require.Len(t, got, 2)
		assert.Equal(t, "enabled", got[0].Fields["type"].GetStringValue())
		assert.Equal(t, 1.0, got[0].Fields[SequenceField].GetNumberValue())
		assert.Equal(t, 2.0, got[1].Fields[SequenceField].GetNumberValue())
	}
}

func TestManager_Unsubscribe(t *testing.T) {
	m := NewManager()
	s := &recordingStream{}
	id := m.Subscribe(s)
	assert.Equal(t, 1, m.SubscriberCount())

	m.Unsubscribe(id)
	m.Broadcast(newNotification(t, "disabled"))

	assert.Equal(t, 0, m.SubscriberCount())
	assert.Empty(t, s.received())
}

func TestManager_SlowSubscriberDoesNotBlock(t *testing.T) {
	m := NewManager()
	slow := &recordingStream{block: make(chan struct{})}
	defer close(slow.block)
	fast := &recordingStream{}
	m.Subscribe(slow)
	m.Subscribe(fast)

	start := time.Now()
	m.Broadcast(newNotification(t, "fade_triggered"))

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Len(t, fast.received(), 1)
}

func TestManager_SendErrorIsContained(t *testing.T) {
	m := NewManager()
	broken := &recordingStream{err: errors.New("stream closed")}
	ok := &recordingStream{}
	m.Subscribe(broken)
	m.Subscribe(ok)

	m.Broadcast(newNotification(t, "track_skipped"))

	assert.Len(t, ok.received(), 1)
}

func TestManager_SendUnknownSubscription(t *testing.T) {
	m := NewManager()
	assert.NoError(t, m.Send("missing", newNotification(t, "initial_state")))

	s := &recordingStream{}
	id := m.Subscribe(s)
	require.NoError(t, m.Send(id, newNotification(t, "initial_state")))
	assert.Len(t, s.received(), 1)
}

func TestStamp_EmptyStruct(t *testing.T) {
	n := &structpb.Struct{}
	Stamp(n, 7)
	assert.Equal(t, 7.0, n.Fields[SequenceField].GetNumberValue())
}
