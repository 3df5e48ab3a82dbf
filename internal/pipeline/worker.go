package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anatolykoptev/go_ats/internal/engine"
	"github.com/anatolykoptev/go_ats/internal/engine/ats"
)

// Handler computes the response for one request.
type Handler func(ctx context.Context, req Request) Response

// DefaultHandler dispatches requests to the ATS engine.
func DefaultHandler(ctx context.Context, req Request) Response {
	switch req.Type {
	case TypeCalculateScore:
		res, err := ats.CalculateATSScore(ctx, req.Payload)
		if err != nil {
			return errorResponse(req.ID, err)
		}
		return Response{Type: TypeScoreCalculated, ID: req.ID, Payload: res}
	case TypeGenerateFeedback:
		fb, err := ats.GenerateFeedback(ctx, req.Payload)
		if err != nil {
			return errorResponse(req.ID, err)
		}
		return Response{Type: TypeFeedbackGenerated, ID: req.ID, Feedback: fb}
	}
	return errorResponse(req.ID, fmt.Errorf("unknown request type %q", req.Type))
}

// job is a request plus the context that bounds it.
type job struct {
	ctx context.Context
	req Request
}

// event is what a worker reports: a response, or the crash that ended it.
type event struct {
	worker *Worker
	resp   Response
	crash  error
}

// Worker owns computation on a single goroutine. It is reached only
// through its inbox; results and crashes go to the outbox.
type Worker struct {
	inbox   chan job
	outbox  chan<- event
	stop    chan struct{}
	done    chan struct{}
	handler Handler
}

func newWorker(handler Handler, outbox chan<- event, queue int) *Worker {
	w := &Worker{
		inbox:   make(chan job, queue),
		outbox:  outbox,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		handler: handler,
	}
	go w.run()
	return w
}

// run processes jobs in order. A panic ends the goroutine and is reported
// as a crash event.
func (w *Worker) run() {
	defer close(w.done)
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("pipeline: worker crashed", slog.Any("panic", r))
			w.emit(event{worker: w, crash: fmt.Errorf("%w: %v", ErrWorkerCrashed, r)})
		}
	}()
	for {
		select {
		case <-w.stop:
			return
		case j := <-w.inbox:
			if j.ctx.Err() != nil {
				slog.Debug("pipeline: skipping cancelled request", slog.String("id", j.req.ID))
				continue
			}
			engine.IncrComputations()
			start := time.Now()
			resp := w.handler(j.ctx, j.req)
			resp.ID = j.req.ID
			resp.Performance = &Performance{Duration: time.Since(start), Timestamp: start}
			w.emit(event{worker: w, resp: resp})
		}
	}
}

func (w *Worker) emit(ev event) {
	select {
	case w.outbox <- ev:
	case <-w.stop:
	}
}

// submit queues a job without blocking. It reports false when the inbox
// is full.
func (w *Worker) submit(j job) bool {
	select {
	case w.inbox <- j:
		return true
	default:
		return false
	}
}

// shutdown stops the worker and waits for it to exit.
func (w *Worker) shutdown() {
	close(w.stop)
	<-w.done
}
