package chain

import "fmt"

// InvariantError is the panic value used when a structural invariant of the
// chain algebra is violated, e.g. an enumerator step that is not followed by
// an element step. It signals a logic error in the producer of the chain and
// is never returned as an ordinary error.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("chain: internal invariant violated in %s: %s", e.Op, e.Detail)
}

func invariantf(op, format string, args ...any) *InvariantError {
	return &InvariantError{Op: op, Detail: fmt.Sprintf(format, args...)}
}
