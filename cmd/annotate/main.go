// Command annotate runs an annotator over image files or a camera stream.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/nvr-ai/go-annotators/annotators"
	"github.com/nvr-ai/go-annotators/annotators/annotator"
	"github.com/nvr-ai/go-annotators/images"
	"github.com/nvr-ai/go-annotators/inference"
	"github.com/nvr-ai/go-annotators/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultOutputDir is where maps are written when -output is not given.
	DefaultOutputDir = "annotations"
	// noCamera disables camera mode.
	noCamera = -1
)

type options struct {
	configPath string
	name       string
	input      string
	outputDir  string
	resolution int
	thresholdA float64
	thresholdB float64
	seed       int64
	camera     int
	list       bool
	logLevel   string
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.configPath, "config", "", "Path to a YAML registry configuration")
	flag.StringVar(&o.name, "annotator", string(annotator.ScribbleXDOG), "Annotator to run (see -list)")
	flag.StringVar(&o.input, "input", "", "Image file or directory of images")
	flag.StringVar(&o.outputDir, "output", DefaultOutputDir, "Output directory for annotation maps")
	flag.IntVar(&o.resolution, "resolution", annotator.DefaultResolution, "Shorter side length to process at")
	flag.Float64Var(&o.thresholdA, "threshold", -1, "First threshold; negative keeps the annotator default")
	flag.Float64Var(&o.thresholdB, "threshold-b", -1, "Second threshold; negative keeps the annotator default")
	flag.Int64Var(&o.seed, "seed", 0, "Seed for stochastic annotators; 0 picks one at random")
	flag.IntVar(&o.camera, "camera", noCamera, "Video capture device to annotate live instead of -input")
	flag.BoolVar(&o.list, "list", false, "List annotators and exit")
	flag.StringVar(&o.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()
	return o
}

// annotatorOptions converts the flags into per-call options.
func (o options) annotatorOptions() annotator.Options {
	opts := annotator.Options{Resolution: o.resolution}
	if o.thresholdA >= 0 {
		opts.ThresholdA = annotator.Float(o.thresholdA)
	}
	if o.thresholdB >= 0 {
		opts.ThresholdB = annotator.Float(o.thresholdB)
	}
	if o.seed != 0 {
		opts.Seed = annotator.Int64(o.seed)
	}
	return opts
}

func main() {
	o := parseFlags()

	level, err := logrus.ParseLevel(o.logLevel)
	if err != nil {
		logrus.Fatalf("invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if o.list {
		for _, name := range annotator.Names() {
			kind := "procedural"
			if name.Pretrained() {
				kind = "pretrained"
			}
			fmt.Printf("%-16s %s\n", name, kind)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o); err != nil {
		logrus.WithError(err).Fatal("annotate failed")
	}
}

func run(ctx context.Context, o options) error {
	name, err := annotator.ParseName(o.name)
	if err != nil {
		return err
	}

	cfg := annotators.DefaultConfig()
	if o.configPath != "" {
		if cfg, err = annotators.LoadConfig(o.configPath); err != nil {
			return err
		}
	}

	registry, err := annotators.NewRegistry(cfg, logrus.StandardLogger())
	if err != nil {
		return err
	}
	defer func() {
		registry.Timings().Report(logrus.StandardLogger())
		if err := registry.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close registry")
		}
		if err := inference.Shutdown(); err != nil {
			logrus.WithError(err).Warn("failed to shut down onnxruntime")
		}
	}()

	if failures := registry.Preload(ctx, name); len(failures) > 0 {
		return failures[name]
	}

	if o.camera != noCamera {
		return runCamera(ctx, registry, name, o.camera, o.annotatorOptions())
	}
	if o.input == "" {
		return errors.New("either -input or -camera is required")
	}
	return runFiles(ctx, registry, name, o)
}

func runFiles(ctx context.Context, registry *annotators.Registry, name annotator.Name, o options) error {
	files, err := util.ResolveImageFiles(o.input)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.Errorf("no images found in %s", o.input)
	}
	if err := os.MkdirAll(o.outputDir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create output directory %s", o.outputDir)
	}

	opts := o.annotatorOptions()
	failed := 0
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		out := filepath.Join(o.outputDir, fmt.Sprintf("%s_%s.png", file.Stem, strings.ToLower(string(name))))
		if err := annotateFile(ctx, registry, name, file.Path, out, opts); err != nil {
			logrus.WithError(err).WithField("path", file.Path).Error("failed to annotate")
			failed++
		}
	}
	if failed > 0 {
		return errors.Errorf("%d of %d images failed", failed, len(files))
	}
	return nil
}

func annotateFile(
	ctx context.Context,
	registry *annotators.Registry,
	name annotator.Name,
	in, out string,
	opts annotator.Options,
) error {
	start := time.Now()
	img, err := images.Load(in)
	if err != nil {
		return err
	}
	defer img.Close()

	result, ok, err := registry.Process(ctx, name, img, opts)
	if err != nil {
		return err
	}
	defer result.Close()

	if err := images.Save(result, out); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"annotator": name,
		"path":      in,
		"output":    out,
		"detected":  ok,
		"shape":     images.ShapeOf(result),
		"duration":  time.Since(start),
	}).Info("annotated")
	return nil
}
