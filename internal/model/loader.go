package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Brownie44l1/aquasense/internal/segment"
)

// Options configure where artifacts live and how sessions run.
type Options struct {
	ModelDir          string
	SharedLibraryPath string
	IntraOpThreads    int
	InterOpThreads    int
}

// Loader turns a model name into a ready Server.
type Loader struct {
	opts  Options
	archs map[Name]Architecture
}

// NewLoader returns a loader over archs. Custom layers are resolved only
// against the registry of the architecture being loaded.
func NewLoader(opts Options, archs map[Name]Architecture) *Loader {
	return &Loader{opts: opts, archs: archs}
}

type resolved struct {
	arch     Architecture
	metadata Metadata
	layers   []Layer
}

func (l *Loader) resolve(input string) (*resolved, error) {
	name, err := ParseName(input)
	if err != nil {
		return nil, &LoadError{Name: Name(input), Err: err}
	}
	arch, ok := l.archs[name]
	if !ok {
		return nil, &LoadError{Name: name, Err: fmt.Errorf("%w: %q is not registered", ErrUnknownModel, name)}
	}

	metaPath := filepath.Join(l.opts.ModelDir, arch.Metadata)
	metaFile, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, &LoadError{Name: name, Path: metaPath, Err: fmt.Errorf("failed to read metadata: %w", err)}
	}

	var metadata Metadata
	if err := json.Unmarshal(metaFile, &metadata); err != nil {
		return nil, &LoadError{Name: name, Path: metaPath, Err: fmt.Errorf("failed to parse metadata: %w", err)}
	}
	if err := metadata.normalize(); err != nil {
		return nil, &LoadError{Name: name, Path: metaPath, Err: err}
	}

	layers, err := arch.Layers.Resolve(metadata.CustomLayers)
	if err != nil {
		return nil, &LoadError{Name: name, Path: metaPath, Err: err}
	}

	return &resolved{arch: arch, metadata: metadata, layers: layers}, nil
}

// Describe reads a model's metadata without creating a session.
func (l *Loader) Describe(name string) (Info, error) {
	r, err := l.resolve(name)
	if err != nil {
		return Info{}, err
	}

	classes := make([]string, 0, len(r.layers))
	for _, layer := range r.layers {
		classes = append(classes, layer.ClassName())
	}

	return Info{
		Name:         r.arch.Name,
		Artifact:     r.arch.Artifact,
		ImageSize:    r.metadata.ImageSize,
		Layout:       r.metadata.Layout,
		InputShape:   r.metadata.InputShape,
		OutputShape:  r.metadata.OutputShape,
		CustomLayers: classes,
		Metrics:      r.metadata.Metrics,
	}, nil
}

// Catalog describes every supported model. Models whose metadata cannot be
// read are left out and reported in the returned error.
func (l *Loader) Catalog() ([]Info, error) {
	var infos []Info
	var errs []error
	for _, name := range Names() {
		info, err := l.Describe(string(name))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		infos = append(infos, info)
	}
	return infos, errors.Join(errs...)
}

// Load resolves name, checks the artifact and opens an inference session.
func (l *Loader) Load(name string) (*Server, error) {
	r, err := l.resolve(name)
	if err != nil {
		return nil, err
	}

	modelPath := filepath.Join(l.opts.ModelDir, r.arch.Artifact)
	if _, err := os.Stat(modelPath); err != nil {
		return nil, &LoadError{Name: r.arch.Name, Path: modelPath, Err: err}
	}

	server, err := newServer(modelPath, r, l.opts)
	if err != nil {
		return nil, &LoadError{Name: r.arch.Name, Path: modelPath, Err: err}
	}
	return server, nil
}

// normalize fills defaults and checks the declared I/O against the
// pipeline's fixed input size.
func (m *Metadata) normalize() error {
	if m.InputName == "" {
		m.InputName = "input"
	}
	if m.OutputName == "" {
		m.OutputName = "output"
	}
	if m.Layout == "" {
		m.Layout = string(segment.LayoutNHWC)
	}
	if m.ImageSize == 0 {
		m.ImageSize = segment.InputSize
	}
	if m.ImageSize != segment.InputSize {
		return fmt.Errorf("image_size %d is not supported, want %d", m.ImageSize, segment.InputSize)
	}

	size := int64(m.ImageSize)
	var want []int64
	switch segment.Layout(m.Layout) {
	case segment.LayoutNHWC:
		want = []int64{1, size, size, 3}
	case segment.LayoutNCHW:
		want = []int64{1, 3, size, size}
	default:
		return fmt.Errorf("unknown layout %q", m.Layout)
	}

	if len(m.InputShape) == 0 {
		m.InputShape = want
	} else if !equalShape(m.InputShape, want) {
		return fmt.Errorf("input_shape %v does not match %s layout %v", m.InputShape, m.Layout, want)
	}

	if len(m.OutputShape) == 0 {
		m.OutputShape = []int64{1, size, size, 1}
	}
	if len(m.OutputShape) < 2 || len(m.OutputShape) > 4 {
		return fmt.Errorf("output_shape %v must have 2 to 4 dimensions", m.OutputShape)
	}
	for _, dim := range m.OutputShape {
		if dim <= 0 {
			return fmt.Errorf("output_shape %v has a non-positive dimension", m.OutputShape)
		}
	}
	return nil
}

func equalShape(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
