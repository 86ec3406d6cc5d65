// Package annotators - Registry of annotators with lazy, per-entry loading.
package annotators

import (
	"context"
	"sync"
	"time"

	"github.com/nvr-ai/go-annotators/annotators/annotator"
	"github.com/nvr-ai/go-annotators/annotators/canny"
	"github.com/nvr-ai/go-annotators/annotators/pretrained"
	"github.com/nvr-ai/go-annotators/annotators/shuffle"
	"github.com/nvr-ai/go-annotators/annotators/xdog"
	"github.com/nvr-ai/go-annotators/profiler"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Sentinel errors shared with the annotator package.
var (
	ErrUnknownAnnotator = annotator.ErrUnknownAnnotator
	ErrModelNotFound    = annotator.ErrModelNotFound
	// ErrDisabled is returned for annotators disabled in the configuration.
	ErrDisabled = errors.New("annotator disabled")
	// ErrClosed is returned once the registry has been closed.
	ErrClosed = errors.New("registry closed")
)

// NewAnnotator creates an annotator instance for the given name.
//
// Procedural annotators are created immediately; pretrained annotators load
// their model from the path resolved by cfg.
//
// Arguments:
//   - name: The annotator to create.
//   - cfg: The registry configuration.
//   - log: The logger handed to annotators that log, or nil for the logrus
//     standard logger.
//
// Returns:
//   - annotator.Annotator: The annotator.
//   - error: An error wrapping ErrUnknownAnnotator, ErrModelNotFound or a
//     runtime failure.
func NewAnnotator(name annotator.Name, cfg Config, log logrus.FieldLogger) (annotator.Annotator, error) {
	switch name {
	case annotator.ScribbleXDOG:
		return xdog.New(), nil
	case annotator.Canny:
		return canny.New(), nil
	case annotator.ContentShuffle:
		return shuffle.New(), nil
	case annotator.None:
		return passthrough{}, nil
	}

	spec, err := pretrained.SpecFor(name)
	if err != nil {
		return nil, err
	}
	if m, ok := cfg.Models[name]; ok && m.Disabled {
		return nil, errors.Wrapf(ErrDisabled, "%s", name)
	}
	a, err := pretrained.New(spec, cfg.ModelPath(spec), cfg.Runtime, log)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// factory builds an annotator; replaced in tests.
type factory func(annotator.Name, Config, logrus.FieldLogger) (annotator.Annotator, error)

// entry holds one lazily loaded annotator. Its lock only serializes loading
// and closing, so a slow or failing load never blocks other names.
type entry struct {
	mu        sync.Mutex
	name      annotator.Name
	annotator annotator.Annotator
}

// Registry maps every annotator name to an entry that is loaded on first use.
// It is safe for concurrent use; Close must not race with Get or Process.
type Registry struct {
	cfg     Config
	log     logrus.FieldLogger
	create  factory
	timings *profiler.Timings
	entries map[annotator.Name]*entry
	closed  bool
	mu      sync.RWMutex
}

// NewRegistry creates a registry holding an unloaded entry per annotator name.
//
// Arguments:
//   - cfg: The registry configuration.
//   - log: The logger, or nil for the logrus standard logger.
//
// Returns:
//   - *Registry: The registry.
//   - error: An error if cfg is invalid.
func NewRegistry(cfg Config, log logrus.FieldLogger) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newRegistry(cfg, log, NewAnnotator), nil
}

func newRegistry(cfg Config, log logrus.FieldLogger, create factory) *Registry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &Registry{
		cfg:     cfg,
		log:     log,
		create:  create,
		timings: profiler.NewTimings(profiler.DefaultMaxSamples),
		entries: make(map[annotator.Name]*entry),
	}
	for _, name := range annotator.Names() {
		r.entries[name] = &entry{name: name}
	}
	return r
}

// Names returns every name the registry can serve.
func (r *Registry) Names() []annotator.Name {
	return annotator.Names()
}

// Get returns the annotator for name, loading it on first use. A failed load
// is logged and retried on the next call.
//
// Arguments:
//   - ctx: Checked before loading.
//   - name: The annotator name.
//
// Returns:
//   - annotator.Annotator: The loaded annotator.
//   - error: An error if the name is unknown or the load fails.
func (r *Registry) Get(ctx context.Context, name annotator.Name) (annotator.Annotator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrClosed
	}

	e, ok := r.entries[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownAnnotator, "%q", name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.annotator != nil {
		return e.annotator, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	a, err := r.create(name, r.cfg, r.log)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"annotator": name,
			"error":     err,
		}).Warn("failed to load annotator")
		return nil, errors.Wrapf(err, "failed to load %s", name)
	}
	r.log.WithFields(logrus.Fields{
		"annotator": name,
		"duration":  time.Since(start),
	}).Info("annotator loaded")

	e.annotator = a
	return a, nil
}

// Preload loads the named annotators, or every annotator when names is empty.
// Failures are isolated per name.
//
// Returns:
//   - map[annotator.Name]error: The load error of each name that failed.
func (r *Registry) Preload(ctx context.Context, names ...annotator.Name) map[annotator.Name]error {
	if len(names) == 0 {
		names = annotator.Names()
	}
	failures := make(map[annotator.Name]error)
	for _, name := range names {
		if _, err := r.Get(ctx, name); err != nil {
			failures[name] = err
		}
	}
	return failures
}

// Process looks up name and runs it on img.
//
// Arguments:
//   - ctx: The request context.
//   - name: The annotator name.
//   - img: The source image, not modified.
//   - opts: The annotator options.
//
// Returns:
//   - gocv.Mat: The map, owned by the caller.
//   - bool: The annotator's detection flag.
//   - error: A lookup, load or processing error.
func (r *Registry) Process(
	ctx context.Context,
	name annotator.Name,
	img gocv.Mat,
	opts annotator.Options,
) (gocv.Mat, bool, error) {
	a, err := r.Get(ctx, name)
	if err != nil {
		return gocv.NewMat(), false, err
	}

	start := time.Now()
	done := r.timings.StartOperation(string(name))
	out, ok, err := a.Process(ctx, img, opts)
	done(err)
	if err != nil {
		return gocv.NewMat(), false, errors.Wrapf(err, "%s failed", name)
	}
	r.log.WithFields(logrus.Fields{
		"annotator": name,
		"duration":  time.Since(start),
	}).Debug("image processed")
	return out, ok, nil
}

// Timings returns the per-annotator processing times recorded by Process.
func (r *Registry) Timings() *profiler.Timings {
	return r.timings
}

// Loaded reports whether name has been loaded.
func (r *Registry) Loaded(name annotator.Name) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.annotator != nil
}

// Close releases every loaded annotator. The first close error is returned;
// the rest are logged.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	var first error
	for _, name := range annotator.Names() {
		e := r.entries[name]
		e.mu.Lock()
		if e.annotator != nil {
			if err := e.annotator.Close(); err != nil {
				r.log.WithFields(logrus.Fields{"annotator": name, "error": err}).Error("failed to close annotator")
				if first == nil {
					first = errors.Wrapf(err, "failed to close %s", name)
				}
			}
			e.annotator = nil
		}
		e.mu.Unlock()
	}
	return first
}
