package segment

import (
	"fmt"
	"image"
)

// Result holds everything derived from one uploaded image.
type Result struct {
	Size          Size
	Mask          *image.Gray
	ColoredMask   *image.RGBA
	Overlay       *image.NRGBA
	WaterFraction float64
}

// Run executes prepare, infer, finalize and both visualizations in order.
func Run(m Model, img image.Image) (*Result, error) {
	if m == nil {
		return nil, ErrNilModel
	}

	tensor, size, err := Prepare(img)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}

	probs, err := Infer(m, tensor)
	if err != nil {
		return nil, err
	}

	mask, err := Finalize(probs, size)
	if err != nil {
		return nil, fmt.Errorf("finalize: %w", err)
	}

	overlay, err := Overlay(img, mask, Opacity)
	if err != nil {
		return nil, fmt.Errorf("overlay: %w", err)
	}

	return &Result{
		Size:          size,
		Mask:          mask,
		ColoredMask:   ColoredMask(mask),
		Overlay:       overlay,
		WaterFraction: WaterFraction(mask),
	}, nil
}
