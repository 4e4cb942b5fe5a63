// Package checkout models the one interactive step of a checkout: waiting
// for the client to supply their details. It resolves either with the data
// or with ErrCancelled.
package checkout

import (
	"context"
	"errors"
	"sync"

	"github.com/lbksmart/storefront/internal/domain"
)

var (
	// ErrCancelled is the negative outcome of a collection. It is not a failure.
	ErrCancelled = errors.New("client info collection cancelled")
	// ErrInFlight is returned when a prompt is already waiting for an answer.
	ErrInFlight = errors.New("client info collection already in progress")
	// ErrNoPending is returned when answering a prompt nobody is waiting on.
	ErrNoPending = errors.New("no client info collection in progress")
)

// Collector obtains the client details for one checkout.
type Collector interface {
	Collect(ctx context.Context) (domain.ClientInfo, error)
}

// CollectorFunc adapts a function to Collector.
type CollectorFunc func(ctx context.Context) (domain.ClientInfo, error)

func (f CollectorFunc) Collect(ctx context.Context) (domain.ClientInfo, error) {
	return f(ctx)
}

// Submitted resolves immediately with info. The HTTP checkout uses it since
// the request body already carries the form.
func Submitted(info domain.ClientInfo) Collector {
	return CollectorFunc(func(context.Context) (domain.ClientInfo, error) {
		return info, nil
	})
}

// Cancelled resolves immediately with ErrCancelled.
func Cancelled() Collector {
	return CollectorFunc(func(context.Context) (domain.ClientInfo, error) {
		return domain.ClientInfo{}, ErrCancelled
	})
}

type answer struct {
	info      domain.ClientInfo
	cancelled bool
}

// Prompt is a Collector answered from elsewhere, e.g. a second request of an
// interactive front end. At most one collection waits at a time and it has
// no timeout; only Cancel or the caller's context ends it negatively.
type Prompt struct {
	mu      sync.Mutex
	pending chan answer
}

// NewPrompt creates an idle prompt.
func NewPrompt() *Prompt {
	return &Prompt{}
}

// Collect blocks until Submit or Cancel is called. A second concurrent call
// fails with ErrInFlight.
func (p *Prompt) Collect(ctx context.Context) (domain.ClientInfo, error) {
	p.mu.Lock()
	if p.pending != nil {
		p.mu.Unlock()
		return domain.ClientInfo{}, ErrInFlight
	}
	ch := make(chan answer, 1)
	p.pending = ch
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		if p.pending == ch {
			p.pending = nil
		}
		p.mu.Unlock()
	}()

	select {
	case a := <-ch:
		if a.cancelled {
			return domain.ClientInfo{}, ErrCancelled
		}
		return a.info, nil
	case <-ctx.Done():
		return domain.ClientInfo{}, ErrCancelled
	}
}

// Submit answers the waiting collection with info.
func (p *Prompt) Submit(info domain.ClientInfo) error {
	return p.resolve(answer{info: info})
}

// Cancel answers the waiting collection with ErrCancelled.
func (p *Prompt) Cancel() error {
	return p.resolve(answer{cancelled: true})
}

// Pending reports whether a collection is waiting.
func (p *Prompt) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending != nil
}

func (p *Prompt) resolve(a answer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return ErrNoPending
	}
	p.pending <- a
	p.pending = nil
	return nil
}

// Prompts keeps the open prompt of each session so the request that answers
// it can find the one a checkout is waiting on.
type Prompts struct {
	mu      sync.Mutex
	prompts map[string]*Prompt
}

// NewPrompts creates an empty registry.
func NewPrompts() *Prompts {
	return &Prompts{prompts: make(map[string]*Prompt)}
}

// Open returns the session's prompt, creating it when none is open.
func (ps *Prompts) Open(session string) *Prompt {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	p, ok := ps.prompts[session]
	if !ok {
		p = NewPrompt()
		ps.prompts[session] = p
	}
	return p
}

// Lookup returns the session's open prompt.
func (ps *Prompts) Lookup(session string) (*Prompt, bool) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	p, ok := ps.prompts[session]
	return p, ok
}

// Close forgets p once nothing waits on it.
func (ps *Prompts) Close(session string, p *Prompt) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.prompts[session] == p && !p.Pending() {
		delete(ps.prompts, session)
	}
}

// Answer resolves the session's waiting prompt. It fails with ErrNoPending
// when no checkout waits for client details.
func (ps *Prompts) Answer(session string, info domain.ClientInfo, cancelled bool) error {
	p, ok := ps.Lookup(session)
	if !ok {
		return ErrNoPending
	}
	if cancelled {
		return p.Cancel()
	}
	return p.Submit(info)
}
