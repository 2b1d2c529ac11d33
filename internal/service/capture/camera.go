// Package capture reads frames from the kiosk camera.
package capture

import (
	"errors"
	"fmt"
	"image"
	"strconv"

	"kiosk/internal/attention"
	"kiosk/internal/logger"
	"kiosk/internal/service/vision"

	"gocv.io/x/gocv"
)

// ErrCaptureClosed is returned by Read when no more frames can be read.
var ErrCaptureClosed = errors.New("capture closed")

// Camera holds the current frame at native resolution and a copy resized to
// the processing width.
type Camera struct {
	device    string
	capture   *gocv.VideoCapture
	frame     gocv.Mat
	processed gocv.Mat
	width     int
	logger    *logger.Logger
}

// Open opens device, either a numeric camera index or a file/stream URL.
func Open(device string, processingWidth int, logger *logger.Logger) (*Camera, error) {
	var source interface{} = device
	if index, err := strconv.Atoi(device); err == nil {
		source = index
	}

	vc, err := gocv.OpenVideoCapture(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %s: %w", device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("camera %s is not available", device)
	}

	logger.Info("📷 Camera %s opened (%.0fx%.0f)", device,
		vc.Get(gocv.VideoCaptureFrameWidth), vc.Get(gocv.VideoCaptureFrameHeight))

	return &Camera{
		device:    device,
		capture:   vc,
		frame:     gocv.NewMat(),
		processed: gocv.NewMat(),
		width:     processingWidth,
		logger:    logger,
	}, nil
}

// Read grabs the next frame and refreshes the processing copy.
func (c *Camera) Read() error {
	if ok := c.capture.Read(&c.frame); !ok || c.frame.Empty() {
		return ErrCaptureClosed
	}

	if c.width <= 0 || c.width >= c.frame.Cols() {
		c.frame.CopyTo(&c.processed)
		return nil
	}

	height := c.frame.Rows() * c.width / c.frame.Cols()
	gocv.Resize(c.frame, &c.processed, image.Pt(c.width, height), 0, 0, gocv.InterpolationLinear)
	return nil
}

// Original returns the last frame at native resolution. It is valid until the next Read.
func (c *Camera) Original() attention.Image {
	return vision.BorrowMatImage(c.frame)
}

// Processed returns the last frame at processing resolution. It is valid until the next Read.
func (c *Camera) Processed() attention.Image {
	return vision.BorrowMatImage(c.processed)
}

func (c *Camera) Close() error {
	c.frame.Close()
	c.processed.Close()
	if err := c.capture.Close(); err != nil {
		return fmt.Errorf("failed to close camera %s: %w", c.device, err)
	}
	c.logger.Info("Camera %s closed", c.device)
	return nil
}
