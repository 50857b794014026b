package onion

import (
	"fmt"
	"runtime/debug"
	"sync/atomic"
)

// Next invokes the downstream part of the chain and returns its outcome.
type Next func() error

// Middleware is a unit of request handling. Code before next() runs on the
// way in, code after it runs on the way out in reverse registration order.
type Middleware func(c *Context, next Next) error

// Handler is a composed middleware chain. The optional next runs after the
// last middleware calls its continuation.
type Handler func(c *Context, next Next) error

// ComposeFunc turns a middleware stack into a Handler.
type ComposeFunc func(middleware []Middleware) Handler

// Compose builds a single Handler from the middleware stack.
// It panics with ErrInvalidMiddlewareStack if any entry is nil.
//
// Each invocation of the returned Handler keeps its own cursor, so the
// handler is safe for concurrent use. Calling next() more than once from
// the same middleware returns ErrNextCalledMultipleTimes and fails the
// whole invocation.
func Compose(middleware []Middleware) Handler {
	for i, fn := range middleware {
		if fn == nil {
			panic(fmt.Errorf("%w: entry %d is nil", ErrInvalidMiddlewareStack, i))
		}
	}

	stack := make([]Middleware, len(middleware))
	copy(stack, middleware)

	return func(c *Context, next Next) error {
		inv := &invocation{stack: stack, ctx: c, next: next}
		inv.index.Store(-1)

		err := inv.dispatch(0)
		if err == nil {
			if v := inv.violation.Load(); v != nil {
				return *v
			}
		}
		return err
	}
}

// invocation is the state machine for one run of a composed chain.
// State is the last dispatched index; it only moves forward.
type invocation struct {
	stack     []Middleware
	ctx       *Context
	next      Next
	index     atomic.Int64
	violation atomic.Pointer[error]
}

func (inv *invocation) dispatch(i int) (err error) {
	for {
		cur := inv.index.Load()
		if int64(i) <= cur {
			violation := ErrNextCalledMultipleTimes
			inv.violation.CompareAndSwap(nil, &violation)
			return violation
		}
		if inv.index.CompareAndSwap(cur, int64(i)) {
			break
		}
	}

	var fn Middleware
	switch {
	case i < len(inv.stack):
		fn = inv.stack[i]
	case i == len(inv.stack) && inv.next != nil:
		next := inv.next
		fn = func(*Context, Next) error { return next() }
	default:
		return nil
	}

	defer func() {
		if p := recover(); p != nil {
			err = &panicError{
				value: p,
				err:   toError(p),
				stack: debug.Stack(),
			}
		}
	}()

	return fn(inv.ctx, func() error { return inv.dispatch(i + 1) })
}
