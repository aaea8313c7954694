package model

import (
	"encoding/json"
	"fmt"
)

// Layer is a non-standard building block an artifact depends on.
type Layer interface {
	ClassName() string
	Validate() error
}

// LayerFactory rebuilds a layer from its serialized configuration.
type LayerFactory func(config json.RawMessage) (Layer, error)

// LayerRegistry maps class names to factories. Each architecture carries its
// own registry; the loader resolves an artifact's custom layers against it.
type LayerRegistry map[string]LayerFactory

// Resolve rebuilds every layer in specs. A class name missing from the
// registry is an error.
func (r LayerRegistry) Resolve(specs []LayerSpec) ([]Layer, error) {
	layers := make([]Layer, 0, len(specs))
	for _, spec := range specs {
		factory, ok := r[spec.ClassName]
		if !ok {
			return nil, fmt.Errorf("unknown layer %q", spec.ClassName)
		}
		layer, err := factory(spec.Config)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", spec.ClassName, err)
		}
		if err := layer.Validate(); err != nil {
			return nil, fmt.Errorf("layer %q: %w", spec.ClassName, err)
		}
		layers = append(layers, layer)
	}
	return layers, nil
}

const convBlockClass = "ConvBlock"

// ConvBlock is a Conv2D (same padding, no bias) followed by batch
// normalization and ReLU.
type ConvBlock struct {
	Filters      int `json:"filters"`
	KernelSize   int `json:"kernel_size"`
	DilationRate int `json:"dilation_rate"`
}

// NewConvBlock returns a block with the training-time defaults.
func NewConvBlock() ConvBlock {
	return ConvBlock{Filters: 512, KernelSize: 3, DilationRate: 1}
}

func (c ConvBlock) ClassName() string { return convBlockClass }

func (c ConvBlock) Validate() error {
	if c.Filters <= 0 {
		return fmt.Errorf("filters must be positive, got %d", c.Filters)
	}
	if c.KernelSize <= 0 {
		return fmt.Errorf("kernel_size must be positive, got %d", c.KernelSize)
	}
	if c.DilationRate < 1 {
		return fmt.Errorf("dilation_rate must be at least 1, got %d", c.DilationRate)
	}
	return nil
}

// Sublayers lists the standard layers the block is composed of.
func (c ConvBlock) Sublayers() []string {
	return []string{"Conv2D", "BatchNormalization", "ReLU"}
}

// EffectiveKernel is the receptive field of the dilated convolution along one
// axis.
func (c ConvBlock) EffectiveKernel() int {
	return c.KernelSize + (c.KernelSize-1)*(c.DilationRate-1)
}

// UnmarshalJSON fills fields absent from data with the defaults.
func (c *ConvBlock) UnmarshalJSON(data []byte) error {
	type plain ConvBlock
	block := plain(NewConvBlock())
	if err := json.Unmarshal(data, &block); err != nil {
		return err
	}
	*c = ConvBlock(block)
	return nil
}

func decodeConvBlock(config json.RawMessage) (Layer, error) {
	block := NewConvBlock()
	if len(config) > 0 {
		if err := json.Unmarshal(config, &block); err != nil {
			return nil, err
		}
	}
	return block, nil
}
