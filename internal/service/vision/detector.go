package vision

import (
	"fmt"
	"image"
	"os"
	"sync"

	"kiosk/internal/attention"
	"kiosk/internal/logger"

	"gocv.io/x/gocv"
)

// BlobParams describes how a frame is turned into network input.
type BlobParams struct {
	Scale  float64
	Size   image.Point
	Mean   gocv.Scalar
	SwapRB bool
}

var (
	// PersonBlob fits the MobileNet SSD COCO model.
	PersonBlob = BlobParams{
		Scale:  1.0 / 127.5,
		Size:   image.Pt(300, 300),
		Mean:   gocv.NewScalar(127.5, 127.5, 127.5, 0),
		SwapRB: true,
	}
	// FaceBlob fits the res10 SSD face model.
	FaceBlob = BlobParams{
		Scale:  1.0,
		Size:   image.Pt(300, 300),
		Mean:   gocv.NewScalar(104, 177, 123, 0),
		SwapRB: false,
	}
)

// SSDDetector runs a single-shot detector network loaded with gocv.ReadNet.
type SSDDetector struct {
	name       string
	net        gocv.Net
	params     BlobParams
	modelPath  string
	configPath string
	mu         sync.Mutex
	logger     *logger.Logger
}

// NewSSDDetector loads the network from modelPath and configPath.
func NewSSDDetector(name, modelPath, configPath string, params BlobParams, logger *logger.Logger) (*SSDDetector, error) {
	d := &SSDDetector{
		name:       name,
		params:     params,
		modelPath:  modelPath,
		configPath: configPath,
		logger:     logger,
	}
	if err := d.initializeNet(); err != nil {
		return nil, err
	}
	return d, nil
}

// initializeNet loads the DNN network and sets backend/target preferences.
func (d *SSDDetector) initializeNet() error {
	if _, err := os.Stat(d.modelPath); os.IsNotExist(err) {
		return fmt.Errorf("%s model file not found: %s", d.name, d.modelPath)
	}
	if _, err := os.Stat(d.configPath); os.IsNotExist(err) {
		return fmt.Errorf("%s config file not found: %s", d.name, d.configPath)
	}

	net := gocv.ReadNet(d.modelPath, d.configPath)
	if net.Empty() {
		return fmt.Errorf("failed to load %s network", d.name)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return fmt.Errorf("failed to set preferable backend or target for %s network", d.name)
	}

	d.net = net
	d.logger.Info("%s network initialized from %s", d.name, d.modelPath)
	return nil
}

// Detect runs the network on img and returns detections with confidence above
// threshold, in pixel coordinates clamped to the image.
func (d *SSDDetector) Detect(img attention.Image, threshold float64) ([]attention.Detection, error) {
	mat, ok := AsMat(img)
	if !ok {
		return nil, fmt.Errorf("%s detector: unsupported image type %T", d.name, img)
	}
	if mat.Empty() {
		return nil, fmt.Errorf("%s detector: empty image", d.name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	blob := gocv.BlobFromImage(mat, d.params.Scale, d.params.Size, d.params.Mean, d.params.SwapRB, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	// Rows of [batch_id, class_id, confidence, x1, y1, x2, y2], coordinates normalised.
	rows := output.Reshape(1, output.Total()/7)
	defer rows.Close()

	width, height := mat.Cols(), mat.Rows()
	var detections []attention.Detection
	for i := 0; i < rows.Rows(); i++ {
		confidence := float64(rows.GetFloatAt(i, 2))
		if confidence <= threshold {
			continue
		}

		box := image.Rect(
			clamp(int(rows.GetFloatAt(i, 3)*float32(width)), 0, width),
			clamp(int(rows.GetFloatAt(i, 4)*float32(height)), 0, height),
			clamp(int(rows.GetFloatAt(i, 5)*float32(width)), 0, width),
			clamp(int(rows.GetFloatAt(i, 6)*float32(height)), 0, height),
		)
		detections = append(detections, attention.Detection{
			Box:        box,
			ClassID:    int(rows.GetFloatAt(i, 1)),
			Confidence: confidence,
		})
	}

	return detections, nil
}

func (d *SSDDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
