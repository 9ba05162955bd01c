package realtime

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	events []Event
	closed bool
	err    error
}

func (s *fakeSession) WriteJSON(v interface{}) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, v.(Event))
	return nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

func TestHub_PublishReachesAllSessionsOfUser(t *testing.T) {
	hub := NewHub()
	tab1 := &fakeSession{}
	tab2 := &fakeSession{}
	other := &fakeSession{}

	hub.Join("user-1", tab1)
	hub.Join("user-1", tab2)
	hub.Join("user-2", other)

	event := Event{Type: "status", Message: `Task "Ship it" status changed to "Completed"`}
	hub.Publish("user-1", event)

	require.Len(t, tab1.events, 1)
	require.Len(t, tab2.events, 1)
	assert.Equal(t, event, tab1.events[0])
	assert.Equal(t, event, tab2.events[0])
	assert.Empty(t, other.events)
}

func TestHub_PublishWithoutSessionsIsNoop(t *testing.T) {
	hub := NewHub()

	// Nobody connected; best-effort delivery just drops the event.
	hub.Publish("nobody", Event{Type: "share", Message: "hi"})

	assert.Zero(t, hub.SessionCount("nobody"))
}

func TestHub_LeaveStopsDelivery(t *testing.T) {
	hub := NewHub()
	session := &fakeSession{}

	hub.Join("user-1", session)
	hub.Leave("user-1", session)
	hub.Publish("user-1", Event{Type: "share", Message: "hi"})

	assert.Empty(t, session.events)
	assert.Zero(t, hub.SessionCount("user-1"))
}

func TestHub_FailingSessionDoesNotBlockOthers(t *testing.T) {
	hub := NewHub()
	broken := &fakeSession{err: errors.New("connection reset")}
	healthy := &fakeSession{}

	hub.Join("user-1", broken)
	hub.Join("user-1", healthy)

	hub.Publish("user-1", Event{Type: "status", Message: "hi"})

	assert.Len(t, healthy.events, 1)
}

// concurrencySession flags any two writes that enter WriteJSON at the same
// time; a real websocket connection panics on a second concurrent writer.
type concurrencySession struct {
	inFlight int32
	overlaps int32
	writes   int32
}

func (s *concurrencySession) WriteJSON(v interface{}) error {
	if atomic.AddInt32(&s.inFlight, 1) > 1 {
		atomic.AddInt32(&s.overlaps, 1)
	}
	runtime.Gosched()
	atomic.AddInt32(&s.writes, 1)
	atomic.AddInt32(&s.inFlight, -1)
	return nil
}

func (s *concurrencySession) Close() error { return nil }

func TestHub_PublishSerializesWritesPerSession(t *testing.T) {
	hub := NewHub()
	session := &concurrencySession{}
	hub.Join("user-1", session)

	const publishers = 8
	const eventsEach = 2000

	var wg sync.WaitGroup
	for i := 0; i < publishers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < eventsEach; j++ {
				hub.Publish("user-1", Event{Type: "status", Message: "hi"})
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, atomic.LoadInt32(&session.overlaps))
	assert.EqualValues(t, publishers*eventsEach, atomic.LoadInt32(&session.writes))
}

func TestHub_SessionCount(t *testing.T) {
	hub := NewHub()
	assert.Zero(t, hub.SessionCount("user-1"))

	s1 := &fakeSession{}
	s2 := &fakeSession{}
	hub.Join("user-1", s1)
	hub.Join("user-1", s2)
	assert.Equal(t, 2, hub.SessionCount("user-1"))

	hub.Leave("user-1", s1)
	assert.Equal(t, 1, hub.SessionCount("user-1"))
}

func TestHub_CloseAll(t *testing.T) {
	hub := NewHub()
	s1 := &fakeSession{}
	s2 := &fakeSession{}
	hub.Join("user-1", s1)
	hub.Join("user-2", s2)

	hub.CloseAll()

	assert.True(t, s1.closed)
	assert.True(t, s2.closed)
	assert.Zero(t, hub.SessionCount("user-1"))
	assert.Zero(t, hub.SessionCount("user-2"))
}
