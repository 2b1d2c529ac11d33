// Package attention turns per-frame person and face detections into a stable
// scene-level attention signal, a dwell timer and one-shot impact events.
//
// The package performs no I/O. Detection models, frames and clocks are passed
// in through small interfaces and explicit arguments so the timing rules can be
// exercised deterministically.
package attention

import (
	"image"
	"sort"
)

// Detection is a single bounding box produced by a detector for one image.
// Box coordinates are pixels relative to the image that was passed in.
type Detection struct {
	Box        image.Rectangle
	ClassID    int
	Confidence float64
}

// Image is a frame (or a region of one) that detectors can run on.
type Image interface {
	Bounds() image.Rectangle
	// Crop returns the sub-image covered by r. The result must be closed.
	Crop(r image.Rectangle) Image
	Close() error
}

// Detector returns the detections in img with confidence >= threshold.
type Detector interface {
	Detect(img Image, threshold float64) ([]Detection, error)
}

// Labeler resolves class ids to names.
type Labeler interface {
	Label(classID int) string
}

// Logger receives non-fatal problems such as detector failures.
type Logger interface {
	Warning(format string, v ...interface{})
}

// SelectFace picks the face used for the orientation check: highest confidence
// first, then larger area, then detector order. It returns false for an empty
// slice.
func SelectFace(faces []Detection) (Detection, bool) {
	if len(faces) == 0 {
		return Detection{}, false
	}
	ranked := make([]Detection, len(faces))
	copy(ranked, faces)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Confidence != ranked[j].Confidence {
			return ranked[i].Confidence > ranked[j].Confidence
		}
		return Area(ranked[i].Box) > Area(ranked[j].Box)
	})
	return ranked[0], true
}
