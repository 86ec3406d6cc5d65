package providers

import (
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// SessionOptions builds onnxruntime session options for the configuration and
// appends the selected execution provider. The caller must destroy the result.
//
// Arguments:
//   - cfg: The provider configuration.
//
// Returns:
//   - *ort.SessionOptions: The session options.
//   - error: An error if the configuration is invalid or the provider cannot be
//     appended.
func SessionOptions(cfg Config) (*ort.SessionOptions, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "error creating session options")
	}

	if err := configure(opts, cfg); err != nil {
		opts.Destroy()
		return nil, err
	}
	return opts, nil
}

func configure(opts *ort.SessionOptions, cfg Config) error {
	if cfg.IntraOpThreads > 0 {
		if err := opts.SetIntraOpNumThreads(cfg.IntraOpThreads); err != nil {
			return errors.Wrap(err, "error setting intra-op threads")
		}
	}
	if cfg.InterOpThreads > 0 {
		if err := opts.SetInterOpNumThreads(cfg.InterOpThreads); err != nil {
			return errors.Wrap(err, "error setting inter-op threads")
		}
	}
	if cfg.Parallel {
		if err := opts.SetExecutionMode(ort.ExecutionModeParallel); err != nil {
			return errors.Wrap(err, "error setting execution mode")
		}
	}

	level, err := cfg.GraphOptimization.level()
	if err != nil {
		return err
	}
	if err := opts.SetGraphOptimizationLevel(level); err != nil {
		return errors.Wrap(err, "error setting graph optimization level")
	}

	switch cfg.Backend {
	case CUDAProviderBackend:
		cuda, err := cfg.CUDA.ToNativeProviderOptions()
		if err != nil {
			return err
		}
		defer cuda.Destroy()
		if err := opts.AppendExecutionProviderCUDA(cuda); err != nil {
			return errors.Wrap(err, "error appending CUDA execution provider")
		}
	case CoreMLProviderBackend:
		if err := opts.AppendExecutionProviderCoreML(cfg.CoreML.Flags()); err != nil {
			return errors.Wrap(err, "error appending CoreML execution provider")
		}
	case OpenVINOProviderBackend:
		if err := opts.AppendExecutionProviderOpenVINO(cfg.OpenVINO.Settings()); err != nil {
			return errors.Wrap(err, "error appending OpenVINO execution provider")
		}
	}
	return nil
}
