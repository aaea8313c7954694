package segment

import "image/color"

const (
	// InputSize is the square resolution both models were trained on.
	InputSize = 256
	// Threshold splits water from background. Values must be strictly greater.
	Threshold = 0.5
	// Opacity of the water color in overlays.
	Opacity = 0.3
)

// Royal blue, the color water pixels are painted with.
const (
	WaterR = 65
	WaterG = 105
	WaterB = 225
)

// WaterColor returns the opaque water color.
func WaterColor() color.RGBA {
	return color.RGBA{R: WaterR, G: WaterG, B: WaterB, A: 255}
}

// Layout is the axis order a model expects for its input tensor.
type Layout string

const (
	LayoutNHWC Layout = "NHWC"
	LayoutNCHW Layout = "NCHW"
)

// Size is an image resolution in pixels.
type Size struct {
	Height int `json:"height"`
	Width  int `json:"width"`
}

// Tensor is a batched image in NHWC order with values in [0,1].
type Tensor struct {
	Shape []int64
	Data  []float32
}

// CHW returns the tensor data reordered to channel-first.
func (t Tensor) CHW() []float32 {
	h, w, c := int(t.Shape[1]), int(t.Shape[2]), int(t.Shape[3])
	plane := h * w
	out := make([]float32, len(t.Data))
	for p := 0; p < plane; p++ {
		for ch := 0; ch < c; ch++ {
			out[ch*plane+p] = t.Data[p*c+ch]
		}
	}
	return out
}

// ProbabilityMap is a per-pixel water probability at the model's native
// resolution, row-major.
type ProbabilityMap struct {
	Height int
	Width  int
	Data   []float32
}

// At returns the probability at row y, column x.
func (p ProbabilityMap) At(y, x int) float32 {
	return p.Data[y*p.Width+x]
}

// Model is a loaded segmentation network.
type Model interface {
	Layout() Layout
	// Predict runs a forward pass and returns the raw output with its shape.
	Predict(input []float32) ([]float32, []int64, error)
}
