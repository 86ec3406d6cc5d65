package annotators

import (
	"os"
	"path/filepath"

	"github.com/nvr-ai/go-annotators/annotators/annotator"
	"github.com/nvr-ai/go-annotators/annotators/pretrained"
	"github.com/nvr-ai/go-annotators/inference"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ModelDirEnv overrides Config.ModelDir when set.
const ModelDirEnv = "ANNOTATORS_MODEL_DIR"

// ModelConfig overrides the defaults of one pretrained annotator.
type ModelConfig struct {
	// Path is the model file. Relative paths resolve against Config.ModelDir.
	Path string `json:"path" yaml:"path"`
	// Disabled makes the registry refuse to load the annotator.
	Disabled bool `json:"disabled" yaml:"disabled"`
}

// Config configures a Registry.
type Config struct {
	// ModelDir is the directory holding the model files.
	ModelDir string `json:"model_dir" yaml:"model_dir"`
	// Models holds per-annotator overrides.
	Models map[annotator.Name]ModelConfig `json:"models" yaml:"models"`
	// Runtime configures onnxruntime.
	Runtime inference.Config `json:"runtime" yaml:"runtime"`
}

// DefaultConfig returns a configuration reading models from ./models, or from
// ANNOTATORS_MODEL_DIR when it is set.
func DefaultConfig() Config {
	dir := "models"
	if env := os.Getenv(ModelDirEnv); env != "" {
		dir = env
	}
	return Config{
		ModelDir: dir,
		Models:   map[annotator.Name]ModelConfig{},
		Runtime:  inference.DefaultConfig(),
	}
}

// LoadConfig reads a YAML configuration file on top of DefaultConfig.
//
// Arguments:
//   - path: The YAML file.
//
// Returns:
//   - Config: The merged, validated configuration.
//   - error: An error if the file cannot be read, parsed or validated.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "failed to parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// Validate checks that every override names a pretrained annotator and that the
// runtime settings are valid.
func (c Config) Validate() error {
	for name := range c.Models {
		if !name.Pretrained() {
			return errors.Wrapf(annotator.ErrUnknownAnnotator, "model override for %q", name)
		}
	}
	return c.Runtime.Validate()
}

// ModelPath returns the model file for a pretrained annotator.
func (c Config) ModelPath(spec pretrained.Spec) string {
	path := spec.File
	if m, ok := c.Models[spec.Name]; ok && m.Path != "" {
		path = m.Path
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.ModelDir, path)
}
