package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/nvr-ai/go-annotators/annotators"
	"github.com/nvr-ai/go-annotators/annotators/annotator"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// runCamera annotates frames from a capture device and shows the maps in a
// window until the context ends or Esc is pressed.
func runCamera(
	ctx context.Context,
	registry *annotators.Registry,
	name annotator.Name,
	deviceID int,
	opts annotator.Options,
) error {
	webcam, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return errors.Wrapf(err, "failed to open capture device %d", deviceID)
	}
	defer webcam.Close()

	window := gocv.NewWindow(fmt.Sprintf("annotate: %s", name))
	defer window.Close()

	frame := gocv.NewMat()
	defer frame.Close()
	rgb := gocv.NewMat()
	defer rgb.Close()
	display := gocv.NewMat()
	defer display.Close()

	green := color.RGBA{0, 255, 0, 0}
	fps := 0.0
	frameCount := 0
	lastTime := time.Now()

	logrus.WithFields(logrus.Fields{"device": deviceID, "annotator": name}).Info("reading camera")
	for ctx.Err() == nil {
		if ok := webcam.Read(&frame); !ok {
			return errors.Errorf("cannot read device %d", deviceID)
		}
		if frame.Empty() {
			continue
		}

		frameCount++
		if elapsed := time.Since(lastTime); elapsed >= time.Second {
			fps = float64(frameCount) / elapsed.Seconds()
			frameCount = 0
			lastTime = time.Now()
		}

		// Capture devices deliver BGR; annotators work on RGB.
		gocv.CvtColor(frame, &rgb, gocv.ColorBGRToRGB)
		result, _, err := registry.Process(ctx, name, rgb, opts)
		if err != nil {
			return err
		}
		gocv.CvtColor(result, &display, gocv.ColorRGBToBGR)
		result.Close()

		gocv.PutText(&display, fmt.Sprintf("FPS: %.1f", fps), image.Pt(10, 30),
			gocv.FontHersheyPlain, 1.5, green, 2)
		window.IMShow(display)
		if window.WaitKey(1) == 27 {
			break
		}
	}
	return nil
}
