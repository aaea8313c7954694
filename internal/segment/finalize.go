package segment

import (
	"fmt"
	"image"
	"image/color"

	"github.com/nfnt/resize"
)

// Finalize thresholds p and scales the result to size. Every pixel of the
// returned mask is either 0 or 255.
func Finalize(p ProbabilityMap, size Size) (*image.Gray, error) {
	if p.Height <= 0 || p.Width <= 0 || len(p.Data) != p.Height*p.Width {
		return nil, fmt.Errorf("%w: probability map %dx%d with %d values", ErrOutputShape, p.Width, p.Height, len(p.Data))
	}
	if size.Height <= 0 || size.Width <= 0 {
		return nil, ErrEmptyImage
	}

	native := image.NewGray(image.Rect(0, 0, p.Width, p.Height))
	for i, v := range p.Data {
		if v > Threshold {
			native.Pix[i] = 255
		}
	}
	if p.Height == size.Height && p.Width == size.Width {
		return native, nil
	}

	// nfnt averages taps when shrinking even with NearestNeighbor, so the
	// result is thresholded again.
	resized := resize.Resize(uint(size.Width), uint(size.Height), native, resize.NearestNeighbor)
	rb := resized.Bounds()

	mask := image.NewGray(image.Rect(0, 0, size.Width, size.Height))
	for y := 0; y < size.Height; y++ {
		for x := 0; x < size.Width; x++ {
			g := color.GrayModel.Convert(resized.At(rb.Min.X+x, rb.Min.Y+y)).(color.Gray)
			if g.Y > 127 {
				mask.Pix[y*mask.Stride+x] = 255
			}
		}
	}
	return mask, nil
}
