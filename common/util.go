package common

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// RunParallel takes multiple functions that each return an error,
// runs them in parallel using goroutines, then aggregates any
// errors using errors.Join.
func RunParallel(funcs ...func() error) (error, int) {
	var wg sync.WaitGroup
	errs := make(chan error, len(funcs))

	for _, fn := range funcs {
		wg.Add(1)
		go func(fn func() error) {
			defer wg.Done()
			if err := fn(); err != nil {
				errs <- err
			}
		}(fn)
	}

	wg.Wait()
	close(errs)

	var allErrs []error
	for err := range errs {
		allErrs = append(allErrs, err)
	}
	return errors.Join(allErrs...), len(allErrs)
}

type firstResult[T any] struct {
	value T
	err   error
}

// FirstSuccess runs fn once per source concurrently and returns the first
// value that comes back without an error. Slower sources are left to finish
// on their own, the buffered channel keeps them from blocking. When every
// source fails, the joined errors are returned.
func FirstSuccess[S any, T any](
	ctx context.Context,
	sources []S,
	name func(S) string,
	fn func(ctx context.Context, s S) (T, error),
) (T, error) {
	var zero T
	if len(sources) == 0 {
		return zero, fmt.Errorf("no source to read from")
	}
	resCh := make(chan firstResult[T], len(sources))
	for i := range sources {
		s := sources[i]
		go func() {
			v, err := fn(ctx, s)
			if err != nil {
				err = fmt.Errorf("%s: %w", name(s), err)
			}
			resCh <- firstResult[T]{value: v, err: err}
		}()
	}
	errs := []error{}
	for i := 0; i < len(sources); i++ {
		result := <-resCh
		if result.err == nil {
			return result.value, nil
		}
		errs = append(errs, result.err)
	}
	return zero, errors.Join(errs...)
}
