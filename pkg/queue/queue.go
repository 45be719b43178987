package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/segmentio/ksuid"

	"cutboard/pkg/cut"
	"cutboard/pkg/pipeline"
	"cutboard/pkg/utils"
)

var (
	ErrFull    = errors.New("queue is full")
	ErrStopped = errors.New("queue is stopped")
)

const DefaultSize = 100

// Batch is one pipeline run waiting for a worker.
type Batch struct {
	ID       string
	Pipeline *pipeline.Pipeline
	Request  pipeline.Request

	// Started, Progress and Done are called from the worker goroutine.
	Started  func(id string)
	Progress pipeline.ProgressFunc
	Done     func(id string, cuts []cut.Cut, err error)
}

// Queue runs batches on a fixed number of workers. Each batch is processed
// sequentially by one worker.
type Queue struct {
	items   chan *Batch
	stop    chan struct{}
	workers int
	once    sync.Once
	wg      sync.WaitGroup
}

func New(size, workers int) *Queue {
	if size <= 0 {
		size = DefaultSize
	}
	return &Queue{
		items:   make(chan *Batch, size),
		stop:    make(chan struct{}),
		workers: max(workers, 1),
	}
}

func (q *Queue) Start(ctx context.Context) {
	for i := range q.workers {
		q.wg.Add(1)
		go q.processLoop(ctx, i)
	}
}

// Stop signals the workers and waits for the batches in progress to end.
func (q *Queue) Stop() {
	q.once.Do(func() { close(q.stop) })
	q.wg.Wait()
}

// Add enqueues b without blocking and returns its id.
func (q *Queue) Add(b *Batch) (string, error) {
	select {
	case <-q.stop:
		return "", ErrStopped
	default:
	}
	if b.ID == "" {
		b.ID = ksuid.New().String()
	}
	select {
	case q.items <- b:
		return b.ID, nil
	default:
		return "", ErrFull
	}
}

func (q *Queue) Len() int { return len(q.items) }

func (q *Queue) processLoop(ctx context.Context, worker int) {
	defer q.wg.Done()
	log.Info("batch worker started", "worker", worker)
	for {
		select {
		case <-q.stop:
			log.Info("batch worker stopped", "worker", worker)
			return
		case <-ctx.Done():
			log.Info("batch worker stopped", "worker", worker, "reason", ctx.Err())
			return
		case b := <-q.items:
			q.processBatch(ctx, b)
		}
	}
}

func (q *Queue) processBatch(ctx context.Context, b *Batch) {
	log.Info("processing batch", "id", b.ID, "kind", b.Pipeline.Kind, "input", utils.LimitStr(b.Request.Input, 50))
	if b.Started != nil {
		b.Started(b.ID)
	}

	cuts, err := b.Pipeline.Run(ctx, b.Request, b.Progress)
	if err != nil {
		log.Error("batch failed", "id", b.ID, "error", err)
	} else {
		log.Info("batch finished", "id", b.ID, "cuts", len(cuts))
	}
	if b.Done != nil {
		b.Done(b.ID, cuts, err)
	}
}
