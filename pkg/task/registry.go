package task

import (
	"context"
	"fmt"
	"sort"

	"github.com/sameehj/dataworks/pkg/sandbox"
)

// Handler executes one recognized task type against the sandbox. A non-nil
// error is a failure; its PublicMessage is what the caller sees.
type Handler interface {
	ID() HandlerID
	Description() string
	Execute(ctx context.Context, box *sandbox.IO) (Result, error)
}

type Registry struct {
	handlers map[HandlerID]Handler
}

func NewRegistry(handlers ...Handler) *Registry {
	r := &Registry{handlers: make(map[HandlerID]Handler)}
	for _, h := range handlers {
		_ = r.Register(h)
	}
	return r
}

func (r *Registry) Register(h Handler) error {
	if h == nil {
		return fmt.Errorf("handler is nil")
	}
	if _, exists := r.handlers[h.ID()]; exists {
		return fmt.Errorf("handler already registered: %s", h.ID())
	}
	r.handlers[h.ID()] = h
	return nil
}

func (r *Registry) Get(id HandlerID) (Handler, bool) {
	h, ok := r.handlers[id]
	return h, ok
}

func (r *Registry) List() []Handler {
	out := make([]Handler, 0, len(r.handlers))
	for _, h := range r.handlers {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
