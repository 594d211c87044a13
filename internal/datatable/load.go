package datatable

import "context"

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Snapshot is a fetched collection together with its load phase.
type Snapshot[T any] struct {
	Phase   Phase
	Records []T
	Err     error
}

func (s Snapshot[T]) Begin() Snapshot[T] {
	return Snapshot[T]{Phase: PhaseLoading}
}

// Resolve ends a load. It only has an effect on a loading snapshot.
func (s Snapshot[T]) Resolve(records []T, err error) Snapshot[T] {
	if s.Phase != PhaseLoading {
		return s
	}
	if err != nil {
		return Snapshot[T]{Phase: PhaseFailed, Err: err}
	}
	return Snapshot[T]{Phase: PhaseLoaded, Records: records}
}

// Load runs fetch and always ends in PhaseLoaded or PhaseFailed.
func Load[T any](ctx context.Context, fetch func(ctx context.Context) ([]T, error)) Snapshot[T] {
	s := Snapshot[T]{}.Begin()
	if err := ctx.Err(); err != nil {
		return s.Resolve(nil, err)
	}
	records, err := fetch(ctx)
	return s.Resolve(records, err)
}
