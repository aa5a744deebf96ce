package scraper

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/firasghr/stealthscraper/worker"
)

// BatchRequest is one unit of work for Gather.
type BatchRequest struct {
	Method string // defaults to GET if empty
	URL    string
	Opts   []Option
}

// BatchResult collects Gather's per-index outcomes, preserving input order.
// A failed index holds a nil Response and a non-nil Errors entry; Gather
// never returns an error itself, matching the Python original's
// accumulate-then-let-the-caller-decide design.
type BatchResult struct {
	Responses []*Response
	Errors    map[int]error
}

// SuccessCount returns how many requests completed without error.
func (b *BatchResult) SuccessCount() int {
	n := 0
	for _, r := range b.Responses {
		if r != nil {
			n++
		}
	}
	return n
}

// FailureCount returns how many requests failed.
func (b *BatchResult) FailureCount() int {
	return len(b.Errors)
}

// AllSucceeded reports whether every request in the batch succeeded.
func (b *BatchResult) AllSucceeded() bool {
	return len(b.Errors) == 0
}

// RaiseOnError returns an error stating how many requests failed and
// wrapping the error of the lowest failed index, or nil if the batch fully
// succeeded.
func (b *BatchResult) RaiseOnError() error {
	if len(b.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("scraper: %d of %d batch requests failed: %w", len(b.Errors), len(b.Responses), firstError(b.Errors))
}

func firstError(errs map[int]error) error {
	best := -1
	var err error
	for idx, e := range errs {
		if best == -1 || idx < best {
			best = idx
			err = e
		}
	}
	return err
}

// Gather executes requests with at most concurrency in flight at once,
// preserving input order in the returned BatchResult. A concurrency <= 0
// falls back to the client's configured DefaultConcurrency.
//
// When stopOnError is true, no new request is started once the first
// failure is observed; requests already in flight are allowed to finish
// (their results are kept), and every request that was never started is
// left as a nil Response with no entry in Errors.
func (c *Client) Gather(ctx context.Context, requests []BatchRequest, concurrency int, stopOnError bool) *BatchResult {
	if concurrency <= 0 {
		concurrency = c.cfg.DefaultConcurrency
	}

	result := &BatchResult{
		Responses: make([]*Response, len(requests)),
		Errors:    make(map[int]error),
	}
	if len(requests) == 0 {
		return result
	}

	var mu sync.Mutex
	var wg sync.WaitGroup

	var stopped bool
	shouldStop := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return stopped
	}

	pool := worker.NewWorkerPool(concurrency)
	pool.Start()

	for i, req := range requests {
		if stopOnError && shouldStop() {
			break
		}

		wg.Add(1)
		idx, req := i, req
		pool.Submit(func() {
			defer wg.Done()

			if stopOnError && shouldStop() {
				return
			}

			method := req.Method
			if method == "" {
				method = http.MethodGet
			}
			resp, err := c.Do(ctx, method, req.URL, req.Opts...)

			mu.Lock()
			if err != nil {
				result.Errors[idx] = err
				if stopOnError {
					stopped = true
				}
			} else {
				result.Responses[idx] = resp
			}
			mu.Unlock()
		})
	}

	wg.Wait()
	pool.Stop()
	return result
}
