package providers

import (
	"strconv"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// CUDAOptions contains arguments for the CUDA provider.
// See:
// https://onnxruntime.ai/docs/execution-providers/CUDA-ExecutionProvider.html#configuration-options
type CUDAOptions struct {
	// The device ID.
	DeviceID int `json:"device_id" yaml:"device_id"`
	// The size limit of the device memory arena in bytes. 0 leaves the limit unset.
	GPUMemLimit int64 `json:"gpu_mem_limit" yaml:"gpu_mem_limit"`
	// The type of search done for cuDNN convolution algorithms: EXHAUSTIVE, HEURISTIC
	// or DEFAULT.
	CudnnConvAlgoSearch string `json:"cudnn_conv_algo_search" yaml:"cudnn_conv_algo_search"`
	// Whether to do copies in the default stream or use separate streams.
	DoCopyInDefaultStream bool `json:"do_copy_in_default_stream" yaml:"do_copy_in_default_stream"`
	// TF32 allows float32 convolutions to run on tensor cores with reduced precision.
	UseTF32 bool `json:"use_tf32" yaml:"use_tf32"`
}

// settings returns the provider options as onnxruntime key/value pairs.
func (o CUDAOptions) settings() map[string]string {
	settings := map[string]string{
		"device_id":                 strconv.Itoa(o.DeviceID),
		"do_copy_in_default_stream": boolFlag(o.DoCopyInDefaultStream),
		"use_tf32":                  boolFlag(o.UseTF32),
	}
	if o.GPUMemLimit > 0 {
		settings["gpu_mem_limit"] = strconv.FormatInt(o.GPUMemLimit, 10)
	}
	if o.CudnnConvAlgoSearch != "" {
		settings["cudnn_conv_algo_search"] = o.CudnnConvAlgoSearch
	}
	return settings
}

// ToNativeProviderOptions converts the CUDA options to onnxruntime provider
// options. The caller must destroy the returned value.
func (o CUDAOptions) ToNativeProviderOptions() (*ort.CUDAProviderOptions, error) {
	opts, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return nil, errors.Wrap(err, "error creating CUDA provider options")
	}
	if err := opts.Update(o.settings()); err != nil {
		opts.Destroy()
		return nil, errors.Wrap(err, "error updating CUDA provider options")
	}
	return opts, nil
}

func boolFlag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
