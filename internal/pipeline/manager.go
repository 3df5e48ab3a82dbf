package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/anatolykoptev/go_ats/internal/engine"
	"github.com/anatolykoptev/go_ats/internal/engine/ats"
)

// result is what a waiting caller receives.
type result struct {
	resp Response
	err  error
}

// slot is one entry of the pending-request arena.
type slot struct {
	used   bool
	id     string
	kind   MessageType
	scope  string
	key    engine.InputKey
	cancel context.CancelFunc
	reply  chan result // buffered 1; written exactly once per occupancy
}

// Manager correlates requests with worker responses. It enforces the
// per-request timeout, supersedes in-flight live requests, caches scores,
// and rejects everything pending when the worker crashes. The worker is
// created lazily and recreated after a crash.
type Manager struct {
	cfg     engine.Config
	handler Handler
	scores  *engine.Cache[*ats.ATSResult]

	mu      sync.Mutex
	worker  *Worker
	events  chan event
	slots   []slot
	free    []int
	byID    map[string]int
	current map[supersedeKey]string // in-flight superseding request per type and scope
	closed  bool
	quit    chan struct{}
	loopWG  sync.WaitGroup
}

// managerScope is the supersede scope shared by Score and Feedback.
// Sessions use their own scope; Independent calls use none.
const managerScope = "manager"

// supersedeKey identifies the requests that abort each other.
type supersedeKey struct {
	kind  MessageType
	scope string
}

// Option configures a Manager.
type Option func(*Manager)

// WithHandler replaces the engine handler, mainly for tests.
func WithHandler(h Handler) Option {
	return func(m *Manager) { m.handler = h }
}

// NewManager creates a manager. Zero config fields take defaults.
func NewManager(cfg engine.Config, opts ...Option) *Manager {
	cfg = cfg.WithDefaults()
	m := &Manager{
		cfg:     cfg,
		handler: DefaultHandler,
		scores:  engine.NewCache[*ats.ATSResult](cfg.CacheSize, 0),
		events:  make(chan event, cfg.MaxPending),
		slots:   make([]slot, cfg.MaxPending),
		free:    make([]int, 0, cfg.MaxPending),
		byID:    make(map[string]int, cfg.MaxPending),
		current: make(map[supersedeKey]string),
		quit:    make(chan struct{}),
	}
	for i := cfg.MaxPending - 1; i >= 0; i-- {
		m.free = append(m.free, i)
	}
	for _, o := range opts {
		o(m)
	}
	m.loopWG.Add(1)
	go m.loop()
	return m
}

// Config returns the effective configuration.
func (m *Manager) Config() engine.Config { return m.cfg }

// Score computes the ATS score for in. A newer Score call aborts this one
// with ErrAborted. Identical inputs are served from the cache.
func (m *Manager) Score(ctx context.Context, in ats.Input) (*ats.ATSResult, error) {
	return m.score(ctx, in, managerScope)
}

// Feedback computes feedback for in. A newer Feedback call aborts this one.
// Feedback is not cached.
func (m *Manager) Feedback(ctx context.Context, in ats.Input) (*ats.Feedback, error) {
	return m.feedback(ctx, in, managerScope)
}

// ScoreIndependent is Score without supersede semantics, for callers that
// are not a single live editor (for example concurrent tool calls).
func (m *Manager) ScoreIndependent(ctx context.Context, in ats.Input) (*ats.ATSResult, error) {
	return m.score(ctx, in, "")
}

// FeedbackIndependent is Feedback without supersede semantics.
func (m *Manager) FeedbackIndependent(ctx context.Context, in ats.Input) (*ats.Feedback, error) {
	return m.feedback(ctx, in, "")
}

// score computes in. A non-empty scope aborts the in-flight score request
// of the same scope, also when the answer comes from the cache.
func (m *Manager) score(ctx context.Context, in ats.Input, scope string) (*ats.ATSResult, error) {
	engine.IncrScoreRequests()
	key := inputKey(in)
	if res, ok := m.scores.Get(key); ok {
		slog.Debug("pipeline: score cache hit", slog.String("hash", truncKey(key)))
		if scope != "" {
			m.mu.Lock()
			m.supersedeLocked(TypeCalculateScore, scope)
			m.mu.Unlock()
		}
		return res, nil
	}
	var resp Response
	err := engine.TrackOperation(ctx, "ats_score", m.cfg.SlowThreshold, func(ctx context.Context) error {
		var err error
		resp, err = m.dispatch(ctx, TypeCalculateScore, in, key, scope)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp.Payload, nil
}

func (m *Manager) feedback(ctx context.Context, in ats.Input, scope string) (*ats.Feedback, error) {
	engine.IncrFeedbackRequests()
	var resp Response
	err := engine.TrackOperation(ctx, "ats_feedback", m.cfg.SlowThreshold, func(ctx context.Context) error {
		var err error
		resp, err = m.dispatch(ctx, TypeGenerateFeedback, in, inputKey(in), scope)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp.Feedback, nil
}

// dispatch registers a pending slot, hands the request to the worker and
// waits for the matching response.
func (m *Manager) dispatch(ctx context.Context, t MessageType, in ats.Input, key engine.InputKey, scope string) (Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()
	req := NewRequest(t, in)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Response{}, ErrClosed
	}
	if scope != "" {
		m.supersedeLocked(t, scope)
	}
	if len(m.free) == 0 {
		m.mu.Unlock()
		return Response{}, ErrBusy
	}
	i := m.free[len(m.free)-1]
	m.free = m.free[:len(m.free)-1]
	reply := make(chan result, 1)
	m.slots[i] = slot{used: true, id: req.ID, kind: t, scope: scope, key: key, cancel: cancel, reply: reply}
	m.byID[req.ID] = i
	if scope != "" {
		m.current[supersedeKey{t, scope}] = req.ID
	}
	if m.worker == nil {
		m.worker = newWorker(m.handler, m.events, m.cfg.MaxPending)
		slog.Debug("pipeline: worker started")
	}
	if !m.worker.submit(job{ctx: reqCtx, req: req}) {
		m.releaseLocked(req.ID)
		m.mu.Unlock()
		return Response{}, ErrBusy
	}
	m.mu.Unlock()

	select {
	case r := <-reply:
		return r.resp, r.err
	case <-reqCtx.Done():
	}

	m.mu.Lock()
	_, stillPending := m.byID[req.ID]
	if stillPending {
		m.releaseLocked(req.ID)
	}
	m.mu.Unlock()
	if !stillPending {
		// Someone else settled the slot first; their answer wins.
		r := <-reply
		return r.resp, r.err
	}
	if ctx.Err() != nil {
		return Response{}, ctx.Err()
	}
	engine.IncrTimeouts()
	slog.Warn("pipeline: request timed out", slog.String("id", req.ID), slog.String("type", string(t)), slog.Duration("timeout", m.cfg.RequestTimeout))
	return Response{}, ErrTimeout
}

// loop settles pending slots from worker events.
func (m *Manager) loop() {
	defer m.loopWG.Done()
	for {
		select {
		case <-m.quit:
			return
		case ev := <-m.events:
			if ev.crash != nil {
				m.handleCrash(ev)
				continue
			}
			m.handleResponse(ev.resp)
		}
	}
}

func (m *Manager) handleResponse(resp Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.byID[resp.ID]
	if !ok {
		slog.Debug("pipeline: dropping late result", slog.String("id", resp.ID))
		return
	}
	s := m.slots[i]
	m.releaseLocked(resp.ID)
	if err := resp.Err(); err != nil {
		s.reply <- result{err: err}
		return
	}
	if resp.Type == TypeScoreCalculated && resp.Payload != nil {
		m.scores.Set(s.key, resp.Payload)
	}
	s.reply <- result{resp: resp}
}

func (m *Manager) handleCrash(ev event) {
	engine.IncrWorkerCrashes()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.worker == ev.worker {
		m.worker = nil
	}
	n := 0
	for id := range m.byID {
		m.rejectLocked(id, ev.crash)
		n++
	}
	slog.Warn("pipeline: rejected pending requests after crash", slog.Int("count", n), slog.Any("error", ev.crash))
}

// supersedeLocked aborts the in-flight request of kind t in scope.
func (m *Manager) supersedeLocked(t MessageType, scope string) {
	prev, ok := m.current[supersedeKey{t, scope}]
	if !ok {
		return
	}
	m.rejectLocked(prev, ErrAborted)
	engine.IncrAborted()
	slog.Debug("pipeline: superseded request", slog.String("id", prev), slog.String("scope", scope))
}

// rejectLocked settles a pending slot with err.
func (m *Manager) rejectLocked(id string, err error) {
	i, ok := m.byID[id]
	if !ok {
		return
	}
	s := m.slots[i]
	m.releaseLocked(id)
	s.cancel()
	s.reply <- result{err: err}
}

// releaseLocked frees the slot held by id.
func (m *Manager) releaseLocked(id string) {
	i, ok := m.byID[id]
	if !ok {
		return
	}
	ck := supersedeKey{m.slots[i].kind, m.slots[i].scope}
	if m.current[ck] == id {
		delete(m.current, ck)
	}
	delete(m.byID, id)
	m.slots[i] = slot{}
	m.free = append(m.free, i)
}

// Pending returns the number of requests awaiting a response.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// Close rejects pending requests with ErrClosed and stops the worker.
// It is safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	for id := range m.byID {
		m.rejectLocked(id, ErrClosed)
	}
	w := m.worker
	m.worker = nil
	close(m.quit)
	m.mu.Unlock()

	if w != nil {
		w.shutdown()
	}
	m.loopWG.Wait()
	return nil
}

// IsPipelineError reports whether err is one of the rejection errors.
func IsPipelineError(err error) bool {
	for _, target := range []error{ErrAborted, ErrTimeout, ErrWorkerCrashed, ErrBusy, ErrClosed, ErrComputation} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// inputKey keys the cache on both texts plus any structured resume fields,
// since metadata changes the formatting score.
func inputKey(in ats.Input) engine.InputKey {
	resume := in.ResumeText
	if in.Resume != nil {
		if strings.TrimSpace(resume) == "" {
			resume = in.Resume.RawText
		}
		doc := *in.Resume
		doc.RawText = ""
		if b, err := json.Marshal(doc); err == nil {
			resume += "\x00" + string(b)
		}
	}
	return engine.KeyFor(resume, in.JobText)
}

func truncKey(k engine.InputKey) string {
	return engine.TruncateRunes(k.Hash, 32, "...")
}
