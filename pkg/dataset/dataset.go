// Package dataset defines the contract between a pipeline and the datasets
// it reads from and writes to.
//
// A dataset is a named, configured handle on some external data: loading
// returns the data (possibly lazily), saving writes it back. Concrete
// implementations live under pkg/datasets/.
package dataset

import (
	"context"
	"fmt"
	"reflect"
)

// Dataset is the typed contract every dataset implements.
// I is the type accepted by Save and O the type returned by Load.
type Dataset[I, O any] interface {
	// Load returns the data held by the dataset.
	Load(ctx context.Context) (O, error)

	// Save writes data to the dataset.
	Save(ctx context.Context, data I) error

	// Exists reports whether the underlying data is present.
	Exists(ctx context.Context) (bool, error)

	// Describe returns static metadata used for logging and introspection.
	Describe() map[string]any
}

// Any is the type-erased form of Dataset, used where datasets of different
// types are held together (for example in a catalog).
type Any interface {
	Load(ctx context.Context) (any, error)
	Save(ctx context.Context, data any) error
	Exists(ctx context.Context) (bool, error)
	Describe() map[string]any
}

// SingleProcess is implemented by datasets whose state cannot be shared with
// forked worker processes. Thread-based concurrency remains allowed.
type SingleProcess interface {
	SingleProcess() bool
}

// RequiresSingleProcess reports whether v declares itself process-bound.
func RequiresSingleProcess(v any) bool {
	if e, ok := v.(erased); ok {
		v = e.inner
	}
	sp, ok := v.(SingleProcess)
	return ok && sp.SingleProcess()
}

// Erase adapts a typed dataset to Any.
func Erase[I, O any](d Dataset[I, O]) Any {
	return erased{
		inner: d,
		load:  func(ctx context.Context) (any, error) { return d.Load(ctx) },
		save: func(ctx context.Context, data any) error {
			if data == nil {
				var zero I
				return d.Save(ctx, zero)
			}
			typed, ok := data.(I)
			if !ok {
				return &InputTypeError{Want: reflect.TypeFor[I]().String(), Got: fmt.Sprintf("%T", data)}
			}
			return d.Save(ctx, typed)
		},
		exists:   d.Exists,
		describe: d.Describe,
	}
}

// Unwrap returns the typed dataset behind an erased one, or a itself when
// it was not produced by Erase.
func Unwrap(a Any) any {
	if e, ok := a.(erased); ok {
		return e.inner
	}
	return a
}

type erased struct {
	inner    any
	load     func(context.Context) (any, error)
	save     func(context.Context, any) error
	exists   func(context.Context) (bool, error)
	describe func() map[string]any
}

func (e erased) Load(ctx context.Context) (any, error) { return e.load(ctx) }

func (e erased) Save(ctx context.Context, data any) error { return e.save(ctx, data) }

func (e erased) Exists(ctx context.Context) (bool, error) { return e.exists(ctx) }

func (e erased) Describe() map[string]any { return e.describe() }

func (e erased) String() string { return fmt.Sprint(e.inner) }
