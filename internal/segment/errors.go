package segment

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyImage     = errors.New("image has no pixels")
	ErrNilModel       = errors.New("model is not loaded")
	ErrOutputShape    = errors.New("unsupported model output shape")
	ErrInvalidOpacity = errors.New("opacity must be within [0, 1]")
)

// ShapeMismatchError reports a mask whose dimensions differ from the image
// it is applied to.
type ShapeMismatchError struct {
	Image Size
	Mask  Size
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("mask is %dx%d but image is %dx%d",
		e.Mask.Width, e.Mask.Height, e.Image.Width, e.Image.Height)
}
