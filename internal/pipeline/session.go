package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/anatolykoptev/go_ats/internal/engine"
	"github.com/anatolykoptev/go_ats/internal/engine/ats"
	"github.com/google/uuid"
)

// SessionResult is delivered to the session callback once per computed
// generation.
type SessionResult struct {
	Generation uint64
	Input      ats.Input
	Result     *ats.ATSResult
	Err        error
}

// Session scores a live, changing input. Updates within the debounce
// delay coalesce into one computation of the latest input; identical
// input is skipped; results older than the latest delivered one are
// discarded. Sessions on one Manager supersede only their own requests.
type Session struct {
	m        *Manager
	scope    string
	delay    time.Duration
	onResult func(SessionResult)

	mu        sync.Mutex
	timer     *time.Timer
	gen       uint64
	input     ats.Input
	lastKey   engine.InputKey
	hasLast   bool
	closed    bool
	ctx       context.Context
	cancel    context.CancelFunc
	deliverMu sync.Mutex
	delivered uint64
}

// NewSession creates a debounced scoring session on m. onResult runs on
// a timer goroutine and must not block for long.
func (m *Manager) NewSession(onResult func(SessionResult)) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		m:        m,
		scope:    "session:" + uuid.NewString(),
		delay:    m.cfg.DebounceDelay,
		onResult: onResult,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Update records new input and (re)starts the debounce timer. It returns
// the generation assigned to in, or 0 when in was skipped as unchanged.
func (s *Session) Update(in ats.Input) uint64 {
	key := inputKey(in)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	if s.hasLast && key == s.lastKey {
		engine.IncrDebounceSkips()
		slog.Debug("pipeline: unchanged input skipped")
		return 0
	}
	s.lastKey, s.hasLast = key, true
	s.gen++
	s.input = in
	if s.timer != nil {
		s.timer.Stop()
	}
	g := s.gen
	s.timer = time.AfterFunc(s.delay, func() { s.fire(g) })
	return g
}

// fire runs the computation for generation g if it is still the latest.
func (s *Session) fire(g uint64) {
	s.mu.Lock()
	if s.closed || g != s.gen {
		s.mu.Unlock()
		return
	}
	in := s.input
	ctx := s.ctx
	s.mu.Unlock()

	res, err := s.m.score(ctx, in, s.scope)
	if errors.Is(err, ErrAborted) || errors.Is(err, context.Canceled) {
		s.forget(g)
		return
	}

	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	s.mu.Lock()
	stale := s.closed || g != s.gen || g <= s.delivered
	s.mu.Unlock()
	if stale {
		slog.Debug("pipeline: discarding stale session result", slog.Uint64("generation", g))
		return
	}
	s.delivered = g
	if err != nil {
		s.forget(g)
	}
	if s.onResult != nil {
		s.onResult(SessionResult{Generation: g, Input: in, Result: res, Err: err})
	}
}

// forget clears the hash gate when generation g, still the latest, did not
// produce a score, so updating with the same input retries it.
func (s *Session) forget(g uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g == s.gen {
		s.hasLast = false
	}
}

// Flush cancels the pending timer and computes the latest input now,
// delivering through the callback as usual.
func (s *Session) Flush() {
	s.mu.Lock()
	if s.closed || !s.hasLast {
		s.mu.Unlock()
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	g := s.gen
	s.mu.Unlock()
	s.fire(g)
}

// Close stops the session. In-flight computations are cancelled and no
// further results are delivered.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.cancel()
}
