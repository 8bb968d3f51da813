// Package batch runs one operation over many inputs with per-item isolation
package batch

import (
	"context"
	"sync"

	perr "radiodx/internal/platform/errors"
)

// Status summarizes a batch
type Status string

const (
	// StatusCompleted means no item failed (including the empty batch)
	StatusCompleted Status = "completed"
	// StatusPartial means at least one success and at least one failure
	StatusPartial Status = "partial"
	// StatusFailed means no item succeeded and at least one failed
	StatusFailed Status = "failed"
)

// Success is one item that completed
type Success[T any] struct {
	Ref   string `json:"ref"`
	Value T      `json:"value"`
}

// Failure is one item that did not complete
type Failure struct {
	Ref    string         `json:"ref"`
	Reason string         `json:"reason"`
	Code   perr.ErrorCode `json:"code"`
}

// Outcome partitions a batch; both lists follow input order
type Outcome[T any] struct {
	Status  Status       `json:"status"`
	Results []Success[T] `json:"results"`
	Errors  []Failure    `json:"errors"`
}

// Failed reports zero successes with at least one failure
func (o Outcome[T]) Failed() bool { return o.Status == StatusFailed }

// PartialSuccess reports at least one success, regardless of failures
func (o Outcome[T]) PartialSuccess() bool { return len(o.Results) > 0 }

// Len is the number of items accounted for
func (o Outcome[T]) Len() int { return len(o.Results) + len(o.Errors) }

// Options tunes a run
type Options struct {
	// Workers bounds concurrency; values below 1 mean sequential
	Workers int
}

// Run applies fn to every item. ref labels an item in the outcome. A failing
// or panicking item never affects the others; items not started because ctx
// ended are recorded as failures
func Run[In, Out any](
	ctx context.Context,
	items []In,
	opt Options,
	ref func(In) string,
	fn func(context.Context, In) (Out, error),
) Outcome[Out] {
	type slot struct {
		val Out
		err error
	}
	slots := make([]slot, len(items))

	workers := opt.Workers
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	wg := sync.WaitGroup{}

	for i := range items {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			slots[i].err = perr.Wrap(ctx.Err(), perr.ErrorCodeUnavailable, "batch cancelled before item started")
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer func() { <-sem; wg.Done() }()
			defer func() {
				if r := recover(); r != nil {
					slots[i].err = perr.PanicErrf("item panicked: %v", r)
				}
			}()
			slots[i].val, slots[i].err = fn(ctx, items[i])
		}(i)
	}
	wg.Wait()

	out := Outcome[Out]{
		Results: make([]Success[Out], 0, len(items)),
		Errors:  make([]Failure, 0),
	}
	for i, s := range slots {
		r := ref(items[i])
		if s.err != nil {
			out.Errors = append(out.Errors, failureOf(r, s.err))
			continue
		}
		out.Results = append(out.Results, Success[Out]{Ref: r, Value: s.val})
	}
	out.Status = statusOf(len(out.Results), len(out.Errors))
	return out
}

func statusOf(ok, failed int) Status {
	switch {
	case failed == 0:
		return StatusCompleted
	case ok == 0:
		return StatusFailed
	default:
		return StatusPartial
	}
}

func failureOf(ref string, err error) Failure {
	reason := err.Error()
	if e, ok := perr.As(err); ok {
		reason = e.Message()
	}
	return Failure{Ref: ref, Reason: reason, Code: perr.CodeOf(err)}
}
