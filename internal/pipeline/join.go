// Package pipeline turns a stream of map selections into popup content,
// one selection at a time, with the latest selection always winning.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/mobil-koeln/sunmap/internal/api"
	"github.com/mobil-koeln/sunmap/internal/models"
)

// Join waits for both tasks and combines their payloads. The first failure
// fails the join and cancels the other task. No partial result is returned.
func Join(ctx context.Context, geocoding, sunriseSunset *api.Task) (models.AggregateResult, error) {
	raws, err := JoinAll(ctx, geocoding, sunriseSunset)
	if err != nil {
		return models.AggregateResult{}, err
	}
	return models.AggregateResult{
		Geocoding:     raws[0],
		SunriseSunset: raws[1],
	}, nil
}

// JoinAll waits until every task settled successfully and returns their
// responses in task order. A task cancelled on its own fails the join with
// api.ErrCancelled. If ctx ends first, every task is cancelled and the error
// wraps api.ErrTimeout or api.ErrCancelled.
func JoinAll(ctx context.Context, tasks ...*api.Task) ([]models.RawResponse, error) {
	waitCtx, stop := context.WithCancel(ctx)
	defer stop()

	settled := make(chan int, len(tasks))
	for i, task := range tasks {
		go func() {
			select {
			case <-task.Finished():
				settled <- i
			case <-waitCtx.Done():
			}
		}()
	}

	out := make([]models.RawResponse, len(tasks))
	for range tasks {
		select {
		case <-ctx.Done():
			cancelAll(tasks)
			return nil, joinContextError(ctx)
		case i := <-settled:
			raw, err := tasks[i].Result()
			if err == nil && raw == nil {
				err = api.ErrUpstream
			}
			if err != nil {
				cancelAll(tasks)
				return nil, fmt.Errorf("%s: %w", tasks[i].Endpoint, err)
			}
			out[i] = *raw
		}
	}
	return out, nil
}

func cancelAll(tasks []*api.Task) {
	for _, task := range tasks {
		task.Cancel()
	}
}

func joinContextError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("join: %w: %w", api.ErrTimeout, ctx.Err())
	}
	return fmt.Errorf("join: %w: %w", api.ErrCancelled, ctx.Err())
}
