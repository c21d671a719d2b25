// Package parallel runs record sets through a pool of workers while
// preserving input order.
//
// One producer goroutine refills record sets from the reader, N workers
// process them, and a collector hands results to the sink in the exact
// order the reader produced them. Used sets cycle back to the producer
// over a dedicated channel, so a steady state needs no allocation.
package parallel

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultQueue is the extra number of record sets kept in flight beyond
// one per worker.
const DefaultQueue = 2

// Source produces record sets. It is implemented by fasta.Reader and
// fastq.Reader via their ReadRecordSet methods.
type Source[T any] interface {
	ReadRecordSet(*T) (bool, error)
}

// Run reads record sets from src and processes them with workers
// concurrent invocations of work, passing each set and its result to sink
// in input order. At most workers+queue sets are in flight; the producer
// blocks when all are busy. The first error from the reader, a worker or
// the sink cancels the pipeline and is returned after in-flight sets have
// drained. workers <= 0 selects runtime.NumCPU(), queue <= 0 selects
// DefaultQueue.
//
// work runs concurrently from multiple goroutines; use RunWith when each
// worker needs its own state.
func Run[T, O any](ctx context.Context, src Source[T], workers, queue int, work func(*T) (O, error), sink func(*T, O) error) error {
	return RunWith(ctx, src, workers, queue, func() func(*T) (O, error) { return work }, sink)
}

// RunWith is Run with a per-worker constructor: newWork is called once in
// each worker goroutine, so the returned function can close over
// worker-local state (scratch buffers, encoders, counters).
func RunWith[T, O any](ctx context.Context, src Source[T], workers, queue int, newWork func() func(*T) (O, error), sink func(*T, O) error) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queue <= 0 {
		queue = DefaultQueue
	}
	inFlight := workers + queue

	type item struct {
		seq uint64
		set *T
		out O
	}

	// results and recycle are sized for every set in existence, so workers
	// and the collector never block sending.
	jobs := make(chan item, inFlight)
	results := make(chan item, inFlight)
	recycle := make(chan *T, inFlight)
	for range inFlight {
		recycle <- new(T)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	// Producer: refill recycled sets and dispatch them tagged with a
	// monotonic sequence number.
	g.Go(func() error {
		defer close(jobs)
		var seq uint64
		for {
			var set *T
			select {
			case set = <-recycle:
			case <-gctx.Done():
				return gctx.Err()
			}
			ok, err := src.ReadRecordSet(set)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			select {
			case jobs <- item{seq: seq, set: set}:
				seq++
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	// Workers.
	for range workers {
		g.Go(func() error {
			work := newWork()
			for job := range jobs {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				out, err := work(job.set)
				if err != nil {
					return err
				}
				job.out = out
				results <- job
			}
			return nil
		})
	}

	// Collector: release results to the sink in sequence order.
	var sinkErr error
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		pending := make(map[uint64]item)
		var next uint64
		for res := range results {
			pending[res.seq] = res
			for {
				it, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				if sinkErr == nil && sink != nil {
					if err := sink(it.set, it.out); err != nil {
						sinkErr = err
						cancel()
					}
				}
				select {
				case recycle <- it.set:
				default:
				}
				next++
			}
		}
	}()

	workErr := g.Wait()
	close(results)
	<-collectorDone

	if workErr != nil && !errors.Is(workErr, context.Canceled) {
		return workErr
	}
	if sinkErr != nil {
		return sinkErr
	}
	return workErr
}
