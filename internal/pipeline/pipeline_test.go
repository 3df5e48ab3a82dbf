package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anatolykoptev/go_ats/internal/engine"
	"github.com/anatolykoptev/go_ats/internal/engine/ats"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJob = `We are looking for a senior Go engineer to build distributed systems on AWS.
You will design REST APIs, run Docker and Kubernetes, and mentor engineers.`

const testResume = `Jane Doe
jane@example.com
(555) 123-4567
Experience
- Built REST APIs in Go serving 50,000 requests per second on AWS
- Led a team of 6 engineers migrating services to Kubernetes`

// echoHandler answers score requests with the resume text as explanation
// and counts how many computations ran.
type echoHandler struct {
	calls   atomic.Int64
	mu      sync.Mutex
	inputs  []string
	started chan string
}

func newEchoHandler() *echoHandler {
	return &echoHandler{started: make(chan string, 16)}
}

func (h *echoHandler) handle(ctx context.Context, req Request) Response {
	h.calls.Add(1)
	text := req.Payload.ResumeText
	h.mu.Lock()
	h.inputs = append(h.inputs, text)
	h.mu.Unlock()
	h.started <- text
	switch {
	case strings.HasPrefix(text, "slow"):
		<-ctx.Done()
		return errorResponse(req.ID, ctx.Err())
	case text == "crash":
		panic("handler exploded")
	case text == "fail":
		return errorResponse(req.ID, errors.New("bad input"))
	}
	return Response{Type: TypeScoreCalculated, ID: "ignored", Payload: &ats.ATSResult{Explanation: text, Tier: req.ID}}
}

func newTestManager(t *testing.T, cfg engine.Config, h Handler) *Manager {
	t.Helper()
	m := NewManager(cfg, WithHandler(h))
	t.Cleanup(func() { m.Close() })
	return m
}

func newInput(resume string) ats.Input {
	return ats.Input{ResumeText: resume, JobText: testJob}
}

func TestManager_DefaultHandler(t *testing.T) {
	m := NewManager(engine.Config{})
	t.Cleanup(func() { m.Close() })

	res, err := m.Score(context.Background(), newInput(testResume))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Greater(t, res.OverallScore, 0.0)

	fb, err := m.Feedback(context.Background(), newInput(testResume))
	require.NoError(t, err)
	require.NotNil(t, fb)
	assert.Equal(t, len(fb.Suggestions), fb.Statistics.Total)
	assert.Zero(t, m.Pending())
}

func TestManager_IDRoundTrip(t *testing.T) {
	h := newEchoHandler()
	m := newTestManager(t, engine.Config{}, h.handle)

	res, err := m.Score(context.Background(), newInput("id check"))
	require.NoError(t, err)
	// The handler echoes the request ID it saw; the worker restores it on
	// the response, so correlation succeeded.
	_, err = uuid.Parse(res.Tier)
	assert.NoError(t, err)
}

func TestWorker_ResponseCarriesRequestID(t *testing.T) {
	out := make(chan event, 1)
	h := newEchoHandler()
	w := newWorker(h.handle, out, 1)
	defer w.shutdown()

	req := NewRequest(TypeCalculateScore, newInput("direct"))
	require.True(t, w.submit(job{ctx: context.Background(), req: req}))
	ev := <-out
	require.NoError(t, ev.crash)
	assert.Equal(t, req.ID, ev.resp.ID)
	require.NotNil(t, ev.resp.Performance)
	assert.False(t, ev.resp.Performance.Timestamp.IsZero())
}

func TestWorker_SkipsCancelledJobs(t *testing.T) {
	out := make(chan event, 1)
	h := newEchoHandler()
	w := newWorker(h.handle, out, 2)
	defer w.shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.True(t, w.submit(job{ctx: ctx, req: NewRequest(TypeCalculateScore, newInput("cancelled"))}))
	require.True(t, w.submit(job{ctx: context.Background(), req: NewRequest(TypeCalculateScore, newInput("live"))}))

	ev := <-out
	assert.Equal(t, "live", ev.resp.Payload.Explanation)
	assert.EqualValues(t, 1, h.calls.Load())
}

func TestManager_CacheHit(t *testing.T) {
	h := newEchoHandler()
	m := newTestManager(t, engine.Config{}, h.handle)

	a, err := m.Score(context.Background(), newInput("cached"))
	require.NoError(t, err)
	b, err := m.Score(context.Background(), newInput("cached"))
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.EqualValues(t, 1, h.calls.Load())

	// Structured metadata is part of the key.
	withMeta := newInput("cached")
	withMeta.Resume = &ats.Resume{Metadata: ats.Metadata{Columns: 2}}
	_, err = m.Score(context.Background(), withMeta)
	require.NoError(t, err)
	assert.EqualValues(t, 2, h.calls.Load())
}

func TestManager_FeedbackNotCached(t *testing.T) {
	var calls atomic.Int64
	h := func(ctx context.Context, req Request) Response {
		calls.Add(1)
		return Response{Type: TypeFeedbackGenerated, Feedback: &ats.Feedback{Summary: "ok"}}
	}
	m := newTestManager(t, engine.Config{}, h)
	for range 2 {
		fb, err := m.Feedback(context.Background(), newInput("same"))
		require.NoError(t, err)
		assert.Equal(t, "ok", fb.Summary)
	}
	assert.EqualValues(t, 2, calls.Load())
}

func TestManager_SupersedeAborts(t *testing.T) {
	h := newEchoHandler()
	m := newTestManager(t, engine.Config{}, h.handle)

	errc := make(chan error, 1)
	go func() {
		_, err := m.Score(context.Background(), newInput("slow stale"))
		errc <- err
	}()
	require.Equal(t, "slow stale", <-h.started)

	res, err := m.Score(context.Background(), newInput("fresh"))
	require.NoError(t, err)
	assert.Equal(t, "fresh", res.Explanation)
	assert.ErrorIs(t, <-errc, ErrAborted)
	assert.Zero(t, m.Pending())
}

func TestManager_CacheHitSupersedes(t *testing.T) {
	h := newEchoHandler()
	m := newTestManager(t, engine.Config{}, h.handle)

	_, err := m.Score(context.Background(), newInput("cached"))
	require.NoError(t, err)
	<-h.started

	errc := make(chan error, 1)
	go func() {
		_, err := m.Score(context.Background(), newInput("slow pending"))
		errc <- err
	}()
	require.Equal(t, "slow pending", <-h.started)

	res, err := m.Score(context.Background(), newInput("cached"))
	require.NoError(t, err)
	assert.Equal(t, "cached", res.Explanation)
	assert.ErrorIs(t, <-errc, ErrAborted)
	assert.Zero(t, m.Pending())
}

func TestManager_IndependentDoesNotSupersede(t *testing.T) {
	release := make(chan struct{})
	h := func(ctx context.Context, req Request) Response {
		if req.Payload.ResumeText == "first" {
			<-release
		}
		return Response{Type: TypeScoreCalculated, Payload: &ats.ATSResult{Explanation: req.Payload.ResumeText}}
	}
	m := newTestManager(t, engine.Config{}, h)

	type out struct {
		res *ats.ATSResult
		err error
	}
	first := make(chan out, 1)
	go func() {
		res, err := m.ScoreIndependent(context.Background(), newInput("first"))
		first <- out{res, err}
	}()
	require.Eventually(t, func() bool { return m.Pending() == 1 }, time.Second, 5*time.Millisecond)

	second := make(chan out, 1)
	go func() {
		res, err := m.ScoreIndependent(context.Background(), newInput("second"))
		second <- out{res, err}
	}()
	require.Eventually(t, func() bool { return m.Pending() == 2 }, time.Second, 5*time.Millisecond)
	close(release)

	f, s := <-first, <-second
	require.NoError(t, f.err)
	require.NoError(t, s.err)
	assert.Equal(t, "first", f.res.Explanation)
	assert.Equal(t, "second", s.res.Explanation)
}

func TestManager_Timeout(t *testing.T) {
	h := newEchoHandler()
	m := newTestManager(t, engine.Config{RequestTimeout: 50 * time.Millisecond}, h.handle)

	start := time.Now()
	_, err := m.Score(context.Background(), newInput("slow timeout"))
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Zero(t, m.Pending())
}

func TestManager_CallerCancel(t *testing.T) {
	h := newEchoHandler()
	m := newTestManager(t, engine.Config{}, h.handle)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-h.started
		cancel()
	}()
	_, err := m.Score(ctx, newInput("slow cancel"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrTimeout))
}

func TestManager_CrashRejectsAndRecovers(t *testing.T) {
	h := newEchoHandler()
	m := newTestManager(t, engine.Config{}, h.handle)

	_, err := m.Score(context.Background(), newInput("crash"))
	require.ErrorIs(t, err, ErrWorkerCrashed)
	assert.True(t, IsPipelineError(err))
	assert.Zero(t, m.Pending())

	res, err := m.Score(context.Background(), newInput("after crash"))
	require.NoError(t, err)
	assert.Equal(t, "after crash", res.Explanation)
}

func TestManager_ComputationError(t *testing.T) {
	h := newEchoHandler()
	m := newTestManager(t, engine.Config{}, h.handle)

	_, err := m.Score(context.Background(), newInput("fail"))
	require.ErrorIs(t, err, ErrComputation)
	assert.Contains(t, err.Error(), "bad input")
}

func TestManager_Busy(t *testing.T) {
	h := newEchoHandler()
	m := newTestManager(t, engine.Config{MaxPending: 1}, h.handle)

	errc := make(chan error, 1)
	go func() {
		_, err := m.ScoreIndependent(context.Background(), newInput("slow busy"))
		errc <- err
	}()
	<-h.started

	_, err := m.ScoreIndependent(context.Background(), newInput("second"))
	assert.ErrorIs(t, err, ErrBusy)

	require.NoError(t, m.Close())
	assert.ErrorIs(t, <-errc, ErrClosed)
}

func TestManager_Closed(t *testing.T) {
	h := newEchoHandler()
	m := NewManager(engine.Config{}, WithHandler(h.handle))
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err := m.Score(context.Background(), newInput("late"))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = m.Feedback(context.Background(), newInput("late"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestResponseErr(t *testing.T) {
	assert.NoError(t, Response{Type: TypeScoreCalculated}.Err())
	err := errorResponse("id", errors.New("boom")).Err()
	assert.ErrorIs(t, err, ErrComputation)
}
