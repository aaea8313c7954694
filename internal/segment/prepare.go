package segment

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// Prepare resizes img to InputSize x InputSize, scales 8-bit channels into
// [0,1] and adds a batch axis. The returned Size is the resolution of img
// before resizing.
func Prepare(img image.Image) (Tensor, Size, error) {
	bounds := img.Bounds()
	size := Size{Height: bounds.Dy(), Width: bounds.Dx()}
	if size.Height <= 0 || size.Width <= 0 {
		return Tensor{}, size, ErrEmptyImage
	}

	resized := resize.Resize(InputSize, InputSize, imaging.Clone(img), resize.Bilinear)
	rb := resized.Bounds()

	data := make([]float32, InputSize*InputSize*3)
	for y := 0; y < InputSize; y++ {
		for x := 0; x < InputSize; x++ {
			c := color.NRGBAModel.Convert(resized.At(rb.Min.X+x, rb.Min.Y+y)).(color.NRGBA)

			i := (y*InputSize + x) * 3
			data[i] = float32(c.R) / 255.0
			data[i+1] = float32(c.G) / 255.0
			data[i+2] = float32(c.B) / 255.0
		}
	}

	return Tensor{
		Shape: []int64{1, InputSize, InputSize, 3},
		Data:  data,
	}, size, nil
}
