package discovery

import "fmt"

// ShadowingError reports that a later layer declared a new definition
// whose id was already introduced by an earlier layer.
type ShadowingError struct {
	Layer string
	ID    string
}

func (e *ShadowingError) Error() string {
	return fmt.Sprintf("discovery: %q shadows an id already defined by an earlier layer: %s", e.Layer, e.ID)
}

// DanglingOverlayError reports that an overlay referenced an id no
// earlier layer ever defined.
type DanglingOverlayError struct {
	Layer string
	ID    string
}

func (e *DanglingOverlayError) Error() string {
	return fmt.Sprintf("discovery: %q overlay references undefined id: %s", e.Layer, e.ID)
}
