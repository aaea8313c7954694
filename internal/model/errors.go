package model

import (
	"errors"
	"fmt"
)

// ErrUnknownModel is returned for names outside the supported set.
var ErrUnknownModel = errors.New("unknown model")

// LoadError reports a model that could not be made ready for inference.
type LoadError struct {
	Name Name
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to load model %q: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("failed to load model %q from %s: %v", e.Name, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
