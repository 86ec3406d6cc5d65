// Package providers - Execution provider selection for onnxruntime sessions.
package providers

import (
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// ProviderBackend represents an onnxruntime execution provider.
type ProviderBackend string

const (
	// CPUProviderBackend runs inference on the default CPU provider.
	CPUProviderBackend ProviderBackend = "cpu"
	// CUDAProviderBackend uses NVIDIA CUDA for GPU acceleration.
	CUDAProviderBackend ProviderBackend = "cuda"
	// CoreMLProviderBackend uses Apple CoreML for macOS/iOS acceleration.
	CoreMLProviderBackend ProviderBackend = "coreml"
	// OpenVINOProviderBackend uses Intel OpenVINO for inference optimization.
	OpenVINOProviderBackend ProviderBackend = "openvino"
)

// Backends is the list of supported backends.
var Backends = []ProviderBackend{
	CPUProviderBackend,
	CUDAProviderBackend,
	CoreMLProviderBackend,
	OpenVINOProviderBackend,
}

// GraphOptimization names an onnxruntime graph optimization level.
type GraphOptimization string

const (
	// GraphOptimizationDisabled disables all graph rewrites.
	GraphOptimizationDisabled GraphOptimization = "disabled"
	// GraphOptimizationBasic enables redundant node elimination and constant folding.
	GraphOptimizationBasic GraphOptimization = "basic"
	// GraphOptimizationExtended additionally enables complex node fusions.
	GraphOptimizationExtended GraphOptimization = "extended"
	// GraphOptimizationAll enables every optimization including layout rewrites.
	GraphOptimizationAll GraphOptimization = "all"
)

// level maps the name to the onnxruntime constant.
func (g GraphOptimization) level() (ort.GraphOptimizationLevel, error) {
	switch g {
	case GraphOptimizationDisabled:
		return ort.GraphOptimizationLevelDisableAll, nil
	case GraphOptimizationBasic:
		return ort.GraphOptimizationLevelEnableBasic, nil
	case "", GraphOptimizationExtended:
		return ort.GraphOptimizationLevelEnableExtended, nil
	case GraphOptimizationAll:
		return ort.GraphOptimizationLevelEnableAll, nil
	default:
		return 0, errors.Errorf("unknown graph optimization level: %q", g)
	}
}

// Config selects and tunes the execution provider used by every session.
type Config struct {
	// Backend specifies the execution provider. Empty means CPU.
	Backend ProviderBackend `json:"backend" yaml:"backend"`
	// IntraOpThreads parallelizes execution within graph nodes. 0 uses the
	// onnxruntime default.
	IntraOpThreads int `json:"intra_op_threads" yaml:"intra_op_threads"`
	// InterOpThreads parallelizes execution across independent graph nodes. 0 uses
	// the onnxruntime default.
	InterOpThreads int `json:"inter_op_threads" yaml:"inter_op_threads"`
	// Parallel switches the executor to parallel mode.
	Parallel bool `json:"parallel" yaml:"parallel"`
	// GraphOptimization controls graph rewrites applied when loading a model.
	GraphOptimization GraphOptimization `json:"graph_optimization" yaml:"graph_optimization"`
	// CUDA holds options for the CUDA backend.
	CUDA CUDAOptions `json:"cuda" yaml:"cuda"`
	// CoreML holds options for the CoreML backend.
	CoreML CoreMLOptions `json:"coreml" yaml:"coreml"`
	// OpenVINO holds options for the OpenVINO backend.
	OpenVINO OpenVINOOptions `json:"openvino" yaml:"openvino"`
}

// DefaultConfig returns a CPU configuration with extended graph optimization.
//
// Returns:
//   - Config: The default configuration.
func DefaultConfig() Config {
	return Config{
		Backend:           CPUProviderBackend,
		GraphOptimization: GraphOptimizationExtended,
		OpenVINO: OpenVINOOptions{
			DeviceType: "CPU",
			Precision:  "FP32",
		},
	}
}

// Validate checks the configuration for unsupported values.
//
// Returns:
//   - error: An error describing the first invalid field.
func (c Config) Validate() error {
	switch c.Backend {
	case "", CPUProviderBackend, CUDAProviderBackend, CoreMLProviderBackend, OpenVINOProviderBackend:
	default:
		return errors.Errorf("unsupported provider backend: %q", c.Backend)
	}
	if c.IntraOpThreads < 0 || c.InterOpThreads < 0 {
		return errors.Errorf("thread counts must not be negative (intra=%d, inter=%d)",
			c.IntraOpThreads, c.InterOpThreads)
	}
	if _, err := c.GraphOptimization.level(); err != nil {
		return err
	}
	return nil
}
