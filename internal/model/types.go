package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Name identifies one of the supported segmentation architectures.
type Name string

const (
	UNet          Name = "U-Net"
	DeepLabV3Plus Name = "DeepLabV3+"
)

// ParseName maps user input to a known architecture name.
func ParseName(s string) (Name, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "u-net", "unet":
		return UNet, nil
	case "deeplabv3+", "deeplabv3plus", "deeplab":
		return DeepLabV3Plus, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, s)
}

// Metadata is the JSON sidecar shipped next to each ONNX artifact.
type Metadata struct {
	Name         string      `json:"name"`
	InputName    string      `json:"input_name"`
	OutputName   string      `json:"output_name"`
	InputShape   []int64     `json:"input_shape"`
	OutputShape  []int64     `json:"output_shape"`
	Layout       string      `json:"layout"`
	ImageSize    int         `json:"image_size"`
	CustomLayers []LayerSpec `json:"custom_layers,omitempty"`
	Metrics      *Metrics    `json:"metrics,omitempty"`
}

// LayerSpec is a serialized non-standard layer: its registered class name
// and its configuration.
type LayerSpec struct {
	ClassName string          `json:"class_name"`
	Config    json.RawMessage `json:"config"`
}

// Metrics are evaluation scores recorded when the model was trained, in
// percent.
type Metrics struct {
	Accuracy  float64 `json:"accuracy"`
	IoU       float64 `json:"iou"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Info describes a model without loading it.
type Info struct {
	Name         Name     `json:"name"`
	Artifact     string   `json:"artifact"`
	ImageSize    int      `json:"image_size"`
	Layout       string   `json:"layout"`
	InputShape   []int64  `json:"input_shape"`
	OutputShape  []int64  `json:"output_shape"`
	CustomLayers []string `json:"custom_layers"`
	Metrics      *Metrics `json:"metrics,omitempty"`
}
