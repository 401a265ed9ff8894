package utils

import (
	"context"
	"sync"
)

type CompletedTask[T any] struct {
	Index  int
	Result T
	Error  error
}

// RunInPool applies worker to every input using at most maxWorkers goroutines.
// Results are returned in input order. Inputs not yet started when ctx is
// cancelled complete with ctx.Err().
func RunInPool[In any, Out any](ctx context.Context, worker func(context.Context, In) (Out, error), inputs []In, maxWorkers int) []CompletedTask[Out] {
	completed := make([]CompletedTask[Out], len(inputs))
	if len(inputs) == 0 {
		return completed
	}

	workers := max(1, min(len(inputs), maxWorkers))

	queue := make(chan int, len(inputs))
	for i := range inputs {
		queue <- i
	}
	close(queue)

	wg := sync.WaitGroup{}
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()

			for i := range queue {
				if err := ctx.Err(); err != nil {
					completed[i] = CompletedTask[Out]{Index: i, Error: err}
					continue
				}

				res, err := worker(ctx, inputs[i])
				completed[i] = CompletedTask[Out]{Index: i, Result: res, Error: err}
			}
		}()
	}

	wg.Wait()

	return completed
}

// FirstError returns the error of the earliest failed task, if any.
func FirstError[T any](tasks []CompletedTask[T]) error {
	for _, task := range tasks {
		if task.Error != nil {
			return task.Error
		}
	}
	return nil
}
