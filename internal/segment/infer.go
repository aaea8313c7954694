package segment

import "fmt"

// Infer runs m on t and strips the batch and channel axes from the output.
func Infer(m Model, t Tensor) (ProbabilityMap, error) {
	if m == nil {
		return ProbabilityMap{}, ErrNilModel
	}

	input := t.Data
	if m.Layout() == LayoutNCHW {
		input = t.CHW()
	}

	out, shape, err := m.Predict(input)
	if err != nil {
		return ProbabilityMap{}, fmt.Errorf("inference failed: %w", err)
	}

	h, w, err := spatialDims(shape)
	if err != nil {
		return ProbabilityMap{}, err
	}
	if len(out) != h*w {
		return ProbabilityMap{}, fmt.Errorf("%w: %v holds %d values, want %d", ErrOutputShape, shape, len(out), h*w)
	}

	data := make([]float32, len(out))
	copy(data, out)
	return ProbabilityMap{Height: h, Width: w, Data: data}, nil
}

// spatialDims extracts height and width from a single-channel output shape.
func spatialDims(shape []int64) (int, int, error) {
	switch {
	case len(shape) == 4 && shape[0] == 1 && shape[3] == 1:
		return int(shape[1]), int(shape[2]), nil
	case len(shape) == 4 && shape[0] == 1 && shape[1] == 1:
		return int(shape[2]), int(shape[3]), nil
	case len(shape) == 3 && shape[0] == 1:
		return int(shape[1]), int(shape[2]), nil
	case len(shape) == 2:
		return int(shape[0]), int(shape[1]), nil
	}
	return 0, 0, fmt.Errorf("%w: %v", ErrOutputShape, shape)
}
