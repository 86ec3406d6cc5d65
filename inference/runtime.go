// Package inference - onnxruntime environment, sessions and tensor codecs used
// by the pretrained annotators.
package inference

import (
	"sync"

	"github.com/nvr-ai/go-annotators/inference/providers"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"
)

// Config holds the runtime and execution provider settings shared by every
// session.
type Config struct {
	// LibraryPath is the onnxruntime shared library. Empty selects the platform
	// default from providers.GetSharedLibPath.
	LibraryPath string `json:"library_path" yaml:"library_path"`
	// Provider selects and tunes the execution provider.
	Provider providers.Config `json:"provider" yaml:"provider"`
}

// DefaultConfig returns a configuration using the platform library and the
// CPU provider.
func DefaultConfig() Config {
	return Config{Provider: providers.DefaultConfig()}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	return errors.Wrap(c.Provider.Validate(), "invalid provider config")
}

var runtimeMu sync.Mutex

// Initialize loads the onnxruntime shared library and creates the process-wide
// environment. Calling it again once the environment is up is a no-op.
//
// Arguments:
//   - cfg: The runtime configuration.
//
// Returns:
//   - error: An error if the library cannot be located or loaded.
func Initialize(cfg Config) error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}

	path := cfg.LibraryPath
	if path == "" {
		var err error
		if path, err = providers.GetSharedLibPath(); err != nil {
			return err
		}
	}

	ort.SetSharedLibraryPath(path)
	if err := ort.InitializeEnvironment(); err != nil {
		return errors.Wrapf(err, "failed to initialize onnxruntime from %s", path)
	}
	logrus.WithFields(logrus.Fields{
		"library": path,
		"backend": cfg.Provider.Backend,
	}).Debug("onnxruntime initialized")
	return nil
}

// Shutdown destroys the onnxruntime environment. Sessions must be closed first.
func Shutdown() error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if !ort.IsInitialized() {
		return nil
	}
	return errors.Wrap(ort.DestroyEnvironment(), "failed to destroy onnxruntime environment")
}
