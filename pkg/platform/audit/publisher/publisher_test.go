package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "attendly/pkg/domain"
	audit "attendly/pkg/platform/audit"
	"attendly/pkg/platform/audit/store/memory"
)

func emit(t *testing.T, pub *Publisher, userID id.UserID, action audit.AuditEvent) {
	t.Helper()
	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		UserID: userID,
		Action: string(action),
	}))
}

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	userID := id.NewUserID()
	emit(t, pub, userID, audit.EventCheckedIn)

	events, err := pub.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventCheckedIn), events[0].Action)
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))
	defer pub.Close()

	userID := id.NewUserID()
	emit(t, pub, userID, audit.EventVerificationDenied)

	require.Eventually(t, func() bool {
		events, err := pub.List(context.Background(), userID)
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond, "async worker must deliver the event")
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	userID := id.NewUserID()
	for range 10 {
		emit(t, pub, userID, audit.EventCheckedIn)
	}

	pub.Close()

	events, err := store.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, events, 10, "every buffered event must be written before Close returns")
}

func TestPublisher_BufferFullDropsNotBlocks(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	userID := id.NewUserID()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// ErrBufferFull is acceptable; blocking is not.
			_ = pub.Emit(context.Background(), audit.Event{
				UserID: userID,
				Action: string(audit.EventCheckedIn),
			})
		}()
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit must never block on a full buffer")
	}
}

func TestPublisher_Timestamps(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	t.Run("stamps missing timestamp", func(t *testing.T) {
		userID := id.NewUserID()
		before := time.Now()
		emit(t, pub, userID, audit.EventCheckedOut)

		events, err := pub.List(context.Background(), userID)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.False(t, events[0].Timestamp.Before(before))
		assert.False(t, events[0].Timestamp.After(time.Now()))
	})

	t.Run("keeps caller's timestamp", func(t *testing.T) {
		userID := id.NewUserID()
		stamped := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, pub.Emit(context.Background(), audit.Event{
			UserID:    userID,
			Action:    string(audit.EventCheckedIn),
			Timestamp: stamped,
		}))

		events, err := pub.List(context.Background(), userID)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, stamped, events[0].Timestamp)
	})
}

func TestPublisher_SessionTrail(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	sessionID := id.NewSessionID()
	for _, action := range []audit.AuditEvent{audit.EventCheckedIn, audit.EventCheckedOut} {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{
			UserID:    id.NewUserID(),
			SessionID: sessionID,
			Action:    string(action),
		}))
	}
	emit(t, pub, id.NewUserID(), audit.EventLoginSucceeded) // no session

	events, err := store.ListBySession(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, string(audit.EventCheckedIn), events[0].Action)
	assert.Equal(t, string(audit.EventCheckedOut), events[1].Action)
}

type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
	closed bool
}

func (s *recordingSink) Publish(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func TestPublisher_FansOutToSink(t *testing.T) {
	store := memory.NewInMemoryStore()
	sink := &recordingSink{}
	pub := NewPublisher(store, WithSink(sink))

	emit(t, pub, id.NewUserID(), audit.EventDuplicateRejected)
	pub.Close()

	assert.Len(t, sink.events, 1)
	assert.True(t, sink.closed, "close should propagate to sinks")
}
