package tasks

import "context"

// Inline executes tasks synchronously in the scheduling goroutine. It
// backs tests and single-process deployments that run without Redis.
type Inline struct {
	H *Handler
}

func NewInline(h *Handler) *Inline {
	in := &Inline{H: h}
	h.SetScheduler(in)
	return in
}

func (in *Inline) Schedule(ctx context.Context, t Task) error {
	return in.H.Handle(ctx, t)
}
