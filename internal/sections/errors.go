package sections

import "fmt"

// CompositionError covers section-marker structural problems: a close
// marker with no matching open, or content ending with markers still open.
type CompositionError struct {
	Reason string
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("sections: %s", e.Reason)
}

func errUnmatchedClose(kind, name string) error {
	if name == "" {
		return &CompositionError{Reason: fmt.Sprintf("/%s with no matching open marker", kind)}
	}
	return &CompositionError{Reason: fmt.Sprintf("/%s: %s with no matching open marker", kind, name)}
}

func errUnterminated(open []string) error {
	return &CompositionError{Reason: fmt.Sprintf("unterminated marker(s): %v", open)}
}
