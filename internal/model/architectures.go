package model

// Architecture tells the loader where a model lives and which custom layers
// it may reference.
type Architecture struct {
	Name     Name
	Artifact string
	Metadata string
	Layers   LayerRegistry
}

// DefaultArchitectures returns the shipped models.
func DefaultArchitectures() map[Name]Architecture {
	return map[Name]Architecture{
		UNet: {
			Name:     UNet,
			Artifact: "unet.onnx",
			Metadata: "unet.json",
			Layers:   LayerRegistry{},
		},
		DeepLabV3Plus: {
			Name:     DeepLabV3Plus,
			Artifact: "deeplabv3plus.onnx",
			Metadata: "deeplabv3plus.json",
			Layers: LayerRegistry{
				convBlockClass: decodeConvBlock,
			},
		},
	}
}

// Names returns the supported names in display order.
func Names() []Name {
	return []Name{UNet, DeepLabV3Plus}
}
