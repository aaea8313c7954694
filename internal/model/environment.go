package model

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// The ONNX Runtime environment is process-wide; every open Server holds one
// reference.
var (
	envMu   sync.Mutex
	envRefs int

	setLibraryPath     = ort.SetSharedLibraryPath
	initEnvironment    = ort.InitializeEnvironment
	destroyEnvironment = ort.DestroyEnvironment
)

func acquireEnvironment(sharedLibraryPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if envRefs == 0 {
		if sharedLibraryPath != "" {
			setLibraryPath(sharedLibraryPath)
		}
		if err := initEnvironment(); err != nil {
			return fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}
	envRefs++
	return nil
}

func releaseEnvironment() {
	envMu.Lock()
	defer envMu.Unlock()

	if envRefs == 0 {
		return
	}
	envRefs--
	if envRefs == 0 {
		destroyEnvironment()
	}
}
