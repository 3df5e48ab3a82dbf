// Package pipeline runs ATS computations off the caller's goroutine:
// a worker owns the computation, a manager correlates requests and
// responses, and a session debounces live input.
package pipeline

import (
	"errors"
	"time"

	"github.com/anatolykoptev/go_ats/internal/engine/ats"
	"github.com/google/uuid"
)

// MessageType tags worker requests and responses.
type MessageType string

const (
	TypeCalculateScore    MessageType = "CALCULATE_SCORE"
	TypeGenerateFeedback  MessageType = "GENERATE_FEEDBACK"
	TypeScoreCalculated   MessageType = "SCORE_CALCULATED"
	TypeFeedbackGenerated MessageType = "FEEDBACK_GENERATED"
	TypeError             MessageType = "ERROR"
)

// Pipeline errors. A rejected computation is never retried here.
var (
	ErrAborted       = errors.New("pipeline: request superseded")
	ErrTimeout       = errors.New("pipeline: request timed out")
	ErrWorkerCrashed = errors.New("pipeline: worker crashed")
	ErrBusy          = errors.New("pipeline: too many pending requests")
	ErrClosed        = errors.New("pipeline: manager closed")
	ErrComputation   = errors.New("pipeline: computation failed")
)

// Request is a unit of work for the worker.
type Request struct {
	Type    MessageType `json:"type"`
	ID      string      `json:"id"`
	Payload ats.Input   `json:"payload"`
}

// NewRequest builds a request with a fresh correlation ID.
func NewRequest(t MessageType, in ats.Input) Request {
	return Request{Type: t, ID: uuid.NewString(), Payload: in}
}

// Performance reports how long the worker spent on a request.
type Performance struct {
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// Response answers a Request with the same ID. Exactly one of Payload,
// Feedback or Error is set, matching Type.
type Response struct {
	Type        MessageType    `json:"type"`
	ID          string         `json:"id"`
	Payload     *ats.ATSResult `json:"payload,omitempty"`
	Feedback    *ats.Feedback  `json:"feedback,omitempty"`
	Error       string         `json:"error,omitempty"`
	Performance *Performance   `json:"performance,omitempty"`
}

// Err returns the response's failure as an error wrapping ErrComputation.
func (r Response) Err() error {
	if r.Type != TypeError {
		return nil
	}
	return errors.Join(ErrComputation, errors.New(r.Error))
}

func errorResponse(id string, err error) Response {
	return Response{Type: TypeError, ID: id, Error: err.Error()}
}
