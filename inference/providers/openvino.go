package providers

import "strconv"

// OpenVINOOptions contains arguments for the OpenVINO provider.
// See:
// https://onnxruntime.ai/docs/execution-providers/OpenVINO-ExecutionProvider.html#summary-of-options
type OpenVINOOptions struct {
	// Overrides the accelerator hardware type (CPU, GPU, NPU) at runtime.
	DeviceType string `json:"device_type" yaml:"device_type"`
	// Precision is one of FP32, FP16 or ACCURACY.
	Precision string `json:"precision" yaml:"precision"`
	// Overrides the accelerator default number of threads. 0 keeps the default.
	NumOfThreads int `json:"num_of_threads" yaml:"num_of_threads"`
	// Rewrites dynamic shaped models to static shapes at runtime.
	DisableDynamicShapes bool `json:"disable_dynamic_shapes" yaml:"disable_dynamic_shapes"`
}

// Settings returns the provider options as onnxruntime key/value pairs.
func (o OpenVINOOptions) Settings() map[string]string {
	settings := map[string]string{
		"disable_dynamic_shapes": strconv.FormatBool(o.DisableDynamicShapes),
	}
	if o.DeviceType != "" {
		settings["device_type"] = o.DeviceType
	}
	if o.Precision != "" {
		settings["precision"] = o.Precision
	}
	if o.NumOfThreads > 0 {
		settings["num_of_threads"] = strconv.Itoa(o.NumOfThreads)
	}
	return settings
}
