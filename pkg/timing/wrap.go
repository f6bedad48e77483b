package timing

import "context"

// Track begins an invocation and returns the function that ends it, for
// use with defer:
//
//	defer timing.Track(site)()
func Track(s *Site) func() {
	inv := s.Begin()
	return func() { inv.End() }
}

// Run times fn on s. The site sees the end of the call even when fn
// panics; the panic then continues up the stack.
func Run(s *Site, fn func() error) error {
	inv := s.Begin()
	defer inv.End()
	return fn()
}

// Call times fn on s and passes its results through
func Call[T any](s *Site, fn func() (T, error)) (T, error) {
	inv := s.Begin()
	defer inv.End()
	return fn()
}

// Wrap returns fn instrumented by s
func Wrap(s *Site, fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		inv := s.Begin()
		defer inv.End()
		return fn(ctx)
	}
}
