// Package session keeps the conversation state of live calls and serialises
// workflow operations per call.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/Proton-105/rental-agent/internal/workflow"
)

var (
	// ErrCallNotFound indicates that no session exists for the call id.
	ErrCallNotFound = errors.New("call not found")
	// ErrCallEnded indicates an operation on a call that already reached call_ended.
	ErrCallEnded = errors.New("call has ended")
)

// Record is the persisted session of one call.
type Record struct {
	CallID    string                      `json:"call_id"`
	State     *workflow.ConversationState `json:"state"`
	StartedAt time.Time                   `json:"started_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}

func (r *Record) clone() *Record {
	c := *r
	if r.State != nil {
		c.State = r.State.Clone()
	}
	return &c
}

// Store defines the persistence contract for call sessions.
type Store interface {
	// Get returns the session or ErrCallNotFound.
	Get(ctx context.Context, callID string) (*Record, error)
	Save(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, callID string) error
	List(ctx context.Context) ([]*Record, error)
}
