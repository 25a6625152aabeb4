package llm

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// Reply is one scripted Stub outcome.
type Reply struct {
	Content string
	Usage   Usage
	Err     error
}

// Stub is a scripted Provider for tests and offline runs. Replies are
// served in order and run through the same schema checks as real providers.
type Stub struct {
	mu       sync.Mutex
	replies  []Reply
	requests []Request
}

// NewStub returns a Stub that serves replies in order.
func NewStub(replies ...Reply) *Stub {
	return &Stub{replies: replies}
}

func (s *Stub) Generate(_ context.Context, req Request) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)
	if len(s.replies) == 0 {
		return nil, &Error{Kind: KindUnavailable, Err: errors.New("stub has no replies left")}
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	if r.Err != nil {
		return nil, r.Err
	}
	return finish(req, r.Content, r.Usage, s.ModelID(), false)
}

func (s *Stub) ModelID() string { return ProviderStub }

// Push queues more replies.
func (s *Stub) Push(replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, replies...)
}

// Requests returns every request seen so far.
func (s *Stub) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}
