package app

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
)

var ErrStopped = errors.New("state loop stopped")

// Loop serializes every access to a State through one goroutine. Callers post
// messages instead of taking locks.
type Loop struct {
	msgs  chan func(*State)
	state *State
	done  chan struct{}
}

func NewLoop(state *State, buffer int) *Loop {
	if state == nil {
		state = NewState()
	}
	return &Loop{
		msgs:  make(chan func(*State), buffer),
		state: state,
		done:  make(chan struct{}),
	}
}

// Run consumes messages until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	log.Debug("state loop started")
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			log.Debug("state loop stopped")
			return
		case msg := <-l.msgs:
			l.apply(msg)
		}
	}
}

func (l *Loop) apply(msg func(*State)) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("state message panicked", "panic", r)
		}
	}()
	msg(l.state)
}

// Done is closed once Run returns.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Post queues msg for the loop. It blocks while the buffer is full and fails
// once the loop has stopped.
func (l *Loop) Post(msg func(*State)) error {
	select {
	case <-l.done:
		return ErrStopped
	default:
	}
	select {
	case l.msgs <- msg:
		return nil
	case <-l.done:
		return ErrStopped
	}
}

// View runs read on the loop goroutine and returns its result. read must not
// return references into the state; use Snapshot or the copying accessors.
func View[T any](ctx context.Context, l *Loop, read func(*State) T) (T, error) {
	reply := make(chan T, 1)
	var zero T
	if err := l.Post(func(s *State) { reply <- read(s) }); err != nil {
		return zero, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-l.done:
		return zero, ErrStopped
	}
}

// Update runs write on the loop goroutine and waits for it to finish.
func Update(ctx context.Context, l *Loop, write func(*State)) error {
	_, err := View(ctx, l, func(s *State) struct{} {
		write(s)
		return struct{}{}
	})
	return err
}

// Future is the pending result of work started with Go.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Wait blocks until the result has been delivered to the state.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Go runs work on its own goroutine, then hands the result to deliver on the
// loop goroutine. The Future resolves after deliver has run, so a caller that
// waits observes the updated state.
func Go[T any](ctx context.Context, l *Loop, work func(context.Context) (T, error), deliver func(*State, T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		v, err := work(ctx)
		f.val, f.err = v, err
		posted := l.Post(func(s *State) {
			defer close(f.done)
			if deliver != nil {
				deliver(s, v, err)
			}
		})
		if posted != nil {
			f.err = errors.Join(err, posted)
			close(f.done)
		}
	}()
	return f
}
