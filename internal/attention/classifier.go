package attention

import "image"

const (
	// DefaultPersonThreshold is the confidence needed for person detections.
	DefaultPersonThreshold = 0.5
	// DefaultFaceThreshold is lower than the person threshold because faces
	// inside a person crop are small.
	DefaultFaceThreshold = 0.4
	// DefaultMinPersonArea is the pixel area (at processing resolution) a
	// person must cover to be considered close to the display.
	DefaultMinPersonArea = 65000
	// DefaultMaxFaceAspectRatio rejects tall face boxes, which come from
	// profile or tilted faces.
	DefaultMaxFaceAspectRatio = 1.4
)

// ClassifierConfig holds the proximity and orientation gates.
type ClassifierConfig struct {
	MinPersonArea      int
	MaxFaceAspectRatio float64
	FaceThreshold      float64
}

// DefaultClassifierConfig returns the calibrated kiosk defaults.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		MinPersonArea:      DefaultMinPersonArea,
		MaxFaceAspectRatio: DefaultMaxFaceAspectRatio,
		FaceThreshold:      DefaultFaceThreshold,
	}
}

// Classifier decides whether a detected person is paying attention.
type Classifier struct {
	faces  Detector
	config ClassifierConfig
	logger Logger
}

// NewClassifier creates a classifier running faces on person crops.
// logger may be nil.
func NewClassifier(faces Detector, config ClassifierConfig, logger Logger) *Classifier {
	return &Classifier{
		faces:  faces,
		config: config,
		logger: logger,
	}
}

// Qualifies reports whether a person box passes the area and fence gates that
// must hold before any face detection is attempted.
func (c *Classifier) Qualifies(person, fence image.Rectangle) bool {
	return Area(person) >= c.config.MinPersonArea && IsInsideFence(person, fence)
}

// Classify runs face detection on the person's crop of frame and applies the
// aspect-ratio heuristic to the selected face.
func (c *Classifier) Classify(frame Image, person, fence image.Rectangle) bool {
	if !c.Qualifies(person, fence) {
		return false
	}

	region := person.Intersect(frame.Bounds())
	if Area(region) == 0 {
		return false
	}

	crop := frame.Crop(region)
	defer crop.Close()

	faces, err := c.faces.Detect(crop, c.config.FaceThreshold)
	if err != nil {
		c.warn("Face detection failed for person %v: %v", person, err)
		return false
	}

	face, ok := SelectFace(faces)
	if !ok {
		return false
	}
	return IsFrontal(face.Box, c.config.MaxFaceAspectRatio)
}

// IsFrontal reports whether height/width of the face box is below maxAspect.
// Boxes with no width never qualify.
func IsFrontal(face image.Rectangle, maxAspect float64) bool {
	width := face.Dx()
	if width <= 0 {
		return false
	}
	return float64(face.Dy())/float64(width) < maxAspect
}

func (c *Classifier) warn(format string, v ...interface{}) {
	if c.logger != nil {
		c.logger.Warning(format, v...)
	}
}
