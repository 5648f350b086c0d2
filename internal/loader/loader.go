// Package loader fetches lists for screens and decides what an empty or
// failed fetch turns into.
package loader

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// ErrUnavailable matches every *LoadError.
var ErrUnavailable = errors.New("loader: unavailable")

type Kind int

const (
	Empty Kind = iota
	Failed
	RateLimited
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Failed:
		return "failed"
	case RateLimited:
		return "rate_limited"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// LoadError is the outcome of a fetch with no usable items.
type LoadError struct {
	Key  string
	Kind Kind
	Err  error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %s: %s: %v", e.Key, e.Kind, e.Err)
	}
	return fmt.Sprintf("load %s: %s", e.Key, e.Kind)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrUnavailable }

// Fetcher produces the items for key.
type Fetcher[T any] func(ctx context.Context, key string) ([]T, error)

// Policy says when to substitute Fallback. The zero Policy never does.
type Policy[T any] struct {
	Fallback func(key string) []T
	OnEmpty  bool
	OnError  bool

	// IsRateLimited classifies fetch errors; rate limited errors never fall
	// back.
	IsRateLimited func(error) bool
}

type Result[T any] struct {
	Items        []T
	FromFallback bool
}

// Load runs fetch and applies p.
func Load[T any](ctx context.Context, key string, fetch Fetcher[T], p Policy[T]) (Result[T], error) {
	items, err := fetch(ctx, key)
	switch {
	case err != nil:
		if p.IsRateLimited != nil && p.IsRateLimited(err) {
			return Result[T]{}, &LoadError{Key: key, Kind: RateLimited, Err: err}
		}
		if p.OnError {
			if fb := fallback(key, p); len(fb) > 0 {
				return Result[T]{Items: fb, FromFallback: true}, nil
			}
		}
		return Result[T]{}, &LoadError{Key: key, Kind: Failed, Err: err}
	case len(items) == 0:
		if p.OnEmpty {
			if fb := fallback(key, p); len(fb) > 0 {
				return Result[T]{Items: fb, FromFallback: true}, nil
			}
		}
		return Result[T]{}, &LoadError{Key: key, Kind: Empty}
	}
	return Result[T]{Items: items}, nil
}

func fallback[T any](key string, p Policy[T]) []T {
	if p.Fallback == nil {
		return nil
	}
	return p.Fallback(key)
}
