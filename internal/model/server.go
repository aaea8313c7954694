package model

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Brownie44l1/aquasense/internal/segment"
	ort "github.com/yalue/onnxruntime_go"
)

var errClosed = errors.New("model is closed")

// Server is a loaded model bound to preallocated input and output tensors.
// Predict calls are serialized because the tensors are shared.
type Server struct {
	mu sync.Mutex

	name     Name
	Metadata Metadata
	Layers   []Layer

	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	ownsEnv      bool
}

func newServer(modelPath string, r *resolved, opts Options) (*Server, error) {
	s := &Server{
		name:     r.arch.Name,
		Metadata: r.metadata,
		Layers:   r.layers,
	}

	if err := acquireEnvironment(opts.SharedLibraryPath); err != nil {
		return nil, err
	}
	s.ownsEnv = true

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(s.Metadata.InputShape...))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	s.inputTensor = inputTensor

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(s.Metadata.OutputShape...))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	s.outputTensor = outputTensor

	options, err := sessionOptions(opts)
	if err != nil {
		s.Close()
		return nil, err
	}
	if options != nil {
		defer options.Destroy()
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{s.Metadata.InputName}, []string{s.Metadata.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		options)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	s.session = session

	return s, nil
}

func sessionOptions(opts Options) (*ort.SessionOptions, error) {
	if opts.IntraOpThreads <= 0 && opts.InterOpThreads <= 0 {
		return nil, nil
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	if opts.IntraOpThreads > 0 {
		if err := options.SetIntraOpNumThreads(opts.IntraOpThreads); err != nil {
			options.Destroy()
			return nil, fmt.Errorf("failed to set intra-op threads: %w", err)
		}
	}
	if opts.InterOpThreads > 0 {
		if err := options.SetInterOpNumThreads(opts.InterOpThreads); err != nil {
			options.Destroy()
			return nil, fmt.Errorf("failed to set inter-op threads: %w", err)
		}
	}
	return options, nil
}

// Name returns the architecture this server runs.
func (s *Server) Name() Name { return s.name }

// Layout returns the input axis order the model expects.
func (s *Server) Layout() segment.Layout {
	if s == nil {
		return ""
	}
	return segment.Layout(s.Metadata.Layout)
}

// Predict copies input into the bound tensor, runs the session and returns a
// copy of the output together with its shape.
func (s *Server) Predict(input []float32) ([]float32, []int64, error) {
	if s == nil {
		return nil, nil, errClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, nil, errClosed
	}

	in := s.inputTensor.GetData()
	if len(input) != len(in) {
		return nil, nil, fmt.Errorf("expected %d input values, got %d", len(in), len(input))
	}
	copy(in, input)

	if err := s.session.Run(); err != nil {
		return nil, nil, fmt.Errorf("inference failed: %w", err)
	}

	outputData := s.outputTensor.GetData()
	out := make([]float32, len(outputData))
	copy(out, outputData)

	shape := make([]int64, len(s.Metadata.OutputShape))
	copy(shape, s.Metadata.OutputShape)
	return out, shape, nil
}

// Close releases the session, its tensors and the environment reference.
func (s *Server) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
		s.inputTensor = nil
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
		s.outputTensor = nil
	}
	if s.ownsEnv {
		releaseEnvironment()
		s.ownsEnv = false
	}
}
