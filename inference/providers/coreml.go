package providers

// CoreML provider flags, see coreml_provider_factory.h.
const (
	coreMLFlagUseCPUOnly          uint32 = 0x001
	coreMLFlagEnableOnSubgraph    uint32 = 0x002
	coreMLFlagOnlyEnableDeviceANE uint32 = 0x004
)

// CoreMLOptions contains arguments for the CoreML provider.
// See: https://onnxruntime.ai/docs/execution-providers/CoreML-ExecutionProvider.html
type CoreMLOptions struct {
	// CPUOnly limits CoreML to running on CPU only.
	CPUOnly bool `json:"cpu_only" yaml:"cpu_only"`
	// EnableOnSubgraphs lets CoreML run subgraphs in the body of control flow operators.
	EnableOnSubgraphs bool `json:"enable_on_subgraphs" yaml:"enable_on_subgraphs"`
	// RequireANE only enables CoreML on devices with an Apple Neural Engine.
	RequireANE bool `json:"require_ane" yaml:"require_ane"`
}

// Flags returns the bitmask passed to AppendExecutionProviderCoreML.
func (o CoreMLOptions) Flags() uint32 {
	var flags uint32
	if o.CPUOnly {
		flags |= coreMLFlagUseCPUOnly
	}
	if o.EnableOnSubgraphs {
		flags |= coreMLFlagEnableOnSubgraph
	}
	if o.RequireANE {
		flags |= coreMLFlagOnlyEnableDeviceANE
	}
	return flags
}
