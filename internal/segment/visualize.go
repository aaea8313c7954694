package segment

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// ColoredMask paints water pixels of mask in WaterColor on a black canvas.
func ColoredMask(mask *image.Gray) *image.RGBA {
	b := mask.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	black := color.RGBA{A: 255}
	water := WaterColor()

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if mask.GrayAt(b.Min.X+x, b.Min.Y+y).Y > 0 {
				out.SetRGBA(x, y, water)
			} else {
				out.SetRGBA(x, y, black)
			}
		}
	}
	return out
}

// Overlay blends WaterColor into original at the water pixels of mask:
// result = original*(1-opacity) + painted*opacity, per channel.
func Overlay(original image.Image, mask *image.Gray, opacity float64) (*image.NRGBA, error) {
	if opacity < 0 || opacity > 1 || math.IsNaN(opacity) {
		return nil, ErrInvalidOpacity
	}

	ob, mb := original.Bounds(), mask.Bounds()
	if ob.Dx() != mb.Dx() || ob.Dy() != mb.Dy() {
		return nil, &ShapeMismatchError{
			Image: Size{Height: ob.Dy(), Width: ob.Dx()},
			Mask:  Size{Height: mb.Dy(), Width: mb.Dx()},
		}
	}

	src := imaging.Clone(original)
	out := image.NewNRGBA(src.Rect)
	water := [3]uint8{WaterR, WaterG, WaterB}
	w := ob.Dx()

	for i := 0; i < len(src.Pix); i += 4 {
		p := i / 4
		isWater := mask.Pix[mask.PixOffset(mb.Min.X+p%w, mb.Min.Y+p/w)] > 0

		for c := 0; c < 3; c++ {
			orig := src.Pix[i+c]
			painted := orig
			if isWater {
				painted = water[c]
			}
			out.Pix[i+c] = blend(orig, painted, opacity)
		}
		out.Pix[i+3] = src.Pix[i+3]
	}
	return out, nil
}

func blend(orig, painted uint8, opacity float64) uint8 {
	v := math.Round(float64(orig)*(1-opacity) + float64(painted)*opacity)
	return uint8(math.Max(0, math.Min(255, v)))
}

// WaterFraction is the share of mask pixels classified as water.
func WaterFraction(mask *image.Gray) float64 {
	b := mask.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}

	water := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if mask.GrayAt(x, y).Y > 0 {
				water++
			}
		}
	}
	return float64(water) / float64(total)
}
