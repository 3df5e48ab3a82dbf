package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/anatolykoptev/go_ats/internal/engine"
	"github.com/anatolykoptev/go_ats/internal/engine/ats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect() (func(SessionResult), func() []SessionResult, chan struct{}) {
	var mu sync.Mutex
	var got []SessionResult
	notify := make(chan struct{}, 16)
	cb := func(r SessionResult) {
		mu.Lock()
		got = append(got, r)
		mu.Unlock()
		notify <- struct{}{}
	}
	snapshot := func() []SessionResult {
		mu.Lock()
		defer mu.Unlock()
		return append([]SessionResult(nil), got...)
	}
	return cb, snapshot, notify
}

func TestSession_DebounceCoalesces(t *testing.T) {
	h := newEchoHandler()
	m := newTestManager(t, engine.Config{DebounceDelay: 50 * time.Millisecond}, h.handle)
	cb, results, notify := collect()
	s := m.NewSession(cb)
	t.Cleanup(s.Close)

	s.Update(newInput("draft one"))
	s.Update(newInput("draft two"))
	last := s.Update(newInput("draft three"))

	select {
	case <-notify:
	case <-time.After(2 * time.Second):
		t.Fatal("no result delivered")
	}
	time.Sleep(150 * time.Millisecond)

	got := results()
	require.Len(t, got, 1)
	assert.Equal(t, last, got[0].Generation)
	assert.Equal(t, "draft three", got[0].Input.ResumeText)
	require.NoError(t, got[0].Err)
	assert.Equal(t, "draft three", got[0].Result.Explanation)
	assert.EqualValues(t, 1, h.calls.Load())
}

func TestSession_SkipsUnchangedInput(t *testing.T) {
	h := newEchoHandler()
	m := newTestManager(t, engine.Config{DebounceDelay: 20 * time.Millisecond}, h.handle)
	cb, results, notify := collect()
	s := m.NewSession(cb)
	t.Cleanup(s.Close)

	g := s.Update(newInput("same"))
	assert.NotZero(t, g)
	assert.Zero(t, s.Update(newInput("same")))
	<-notify
	assert.Zero(t, s.Update(newInput("same")))
	time.Sleep(80 * time.Millisecond)
	assert.Len(t, results(), 1)
}

func TestSession_LaterGenerationsDelivered(t *testing.T) {
	h := newEchoHandler()
	m := newTestManager(t, engine.Config{DebounceDelay: 20 * time.Millisecond}, h.handle)
	cb, results, notify := collect()
	s := m.NewSession(cb)
	t.Cleanup(s.Close)

	s.Update(newInput("first"))
	<-notify
	s.Update(newInput("second"))
	<-notify

	got := results()
	require.Len(t, got, 2)
	assert.Less(t, got[0].Generation, got[1].Generation)
	assert.Equal(t, "second", got[1].Result.Explanation)
}

func TestSession_Flush(t *testing.T) {
	h := newEchoHandler()
	m := newTestManager(t, engine.Config{DebounceDelay: time.Hour}, h.handle)
	cb, results, _ := collect()
	s := m.NewSession(cb)
	t.Cleanup(s.Close)

	s.Update(newInput("now"))
	s.Flush()
	got := results()
	require.Len(t, got, 1)
	assert.Equal(t, "now", got[0].Result.Explanation)
}

func TestSession_CloseStopsDelivery(t *testing.T) {
	h := newEchoHandler()
	m := newTestManager(t, engine.Config{DebounceDelay: 30 * time.Millisecond}, h.handle)
	cb, results, _ := collect()
	s := m.NewSession(cb)

	s.Update(newInput("never"))
	s.Close()
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, results())
	assert.Zero(t, h.calls.Load())
	assert.Zero(t, s.Update(newInput("after close")))
}

func waitResult(t *testing.T, notify chan struct{}) {
	t.Helper()
	select {
	case <-notify:
	case <-time.After(2 * time.Second):
		t.Fatal("no result delivered")
	}
}

func TestSession_SessionsDoNotAbortEachOther(t *testing.T) {
	release := make(chan struct{})
	started := make(chan string, 4)
	h := func(ctx context.Context, req Request) Response {
		text := req.Payload.ResumeText
		started <- text
		if text == "held" {
			select {
			case <-release:
			case <-ctx.Done():
				return errorResponse(req.ID, ctx.Err())
			}
		}
		return Response{Type: TypeScoreCalculated, Payload: &ats.ATSResult{Explanation: text}}
	}
	m := newTestManager(t, engine.Config{DebounceDelay: 10 * time.Millisecond}, h)

	cb1, results1, notify1 := collect()
	cb2, results2, notify2 := collect()
	s1 := m.NewSession(cb1)
	s2 := m.NewSession(cb2)
	t.Cleanup(s1.Close)
	t.Cleanup(s2.Close)

	s1.Update(newInput("held"))
	require.Equal(t, "held", <-started)
	s2.Update(newInput("quick"))
	require.Eventually(t, func() bool { return m.Pending() == 2 }, 2*time.Second, 5*time.Millisecond)
	close(release)

	waitResult(t, notify1)
	waitResult(t, notify2)
	got1, got2 := results1(), results2()
	require.Len(t, got1, 1)
	require.Len(t, got2, 1)
	require.NoError(t, got1[0].Err)
	require.NoError(t, got2[0].Err)
	assert.Equal(t, "held", got1[0].Result.Explanation)
	assert.Equal(t, "quick", got2[0].Result.Explanation)
}

func TestSession_RetryAfterFailure(t *testing.T) {
	h := newEchoHandler()
	m := newTestManager(t, engine.Config{DebounceDelay: 10 * time.Millisecond}, h.handle)
	cb, results, notify := collect()
	s := m.NewSession(cb)
	t.Cleanup(s.Close)

	first := s.Update(newInput("fail"))
	require.NotZero(t, first)
	waitResult(t, notify)
	require.Error(t, results()[0].Err)

	second := s.Update(newInput("fail"))
	assert.Greater(t, second, first)
	waitResult(t, notify)
	assert.Len(t, results(), 2)
	assert.EqualValues(t, 2, h.calls.Load())
}
