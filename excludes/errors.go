package excludes

import "fmt"

// OverflowError is raised, as a panic, when a composite spec would exceed the
// maximum nesting depth of the base factory. It signals degenerate input and
// is never retried.
type OverflowError struct {
	Op    string
	Depth int
	Limit int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("exclude spec overflow: %s nesting depth %d exceeds limit %d", e.Op, e.Depth, e.Limit)
}

// Recover runs build and converts an *OverflowError panic into an error.
// Any other panic is propagated unchanged.
func Recover(build func() Spec) (spec Spec, err error) {
	defer func() {
		if r := recover(); r != nil {
			overflow, ok := r.(*OverflowError)
			if !ok {
				panic(r)
			}
			spec, err = nil, overflow
		}
	}()
	return build(), nil
}
