package grounding

// Outcome carries a usable value together with an optional soft failure.
// Degraded is set when the value is partial or a fallback; callers log it
// and continue.
type Outcome[T any] struct {
	Value    T
	Degraded error
}

// OK reports whether the value was produced without degradation.
func (o Outcome[T]) OK() bool {
	return o.Degraded == nil
}
