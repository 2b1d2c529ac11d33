package attention

import (
	"fmt"
	"image"
)

// fakeImage stands in for a frame; crops keep the requested bounds.
type fakeImage struct {
	bounds image.Rectangle
	closed *int
}

func newFrame(w, h int) *fakeImage {
	return &fakeImage{bounds: image.Rect(0, 0, w, h), closed: new(int)}
}

func (f *fakeImage) Bounds() image.Rectangle { return f.bounds }

func (f *fakeImage) Crop(r image.Rectangle) Image {
	return &fakeImage{bounds: image.Rect(0, 0, r.Dx(), r.Dy()), closed: f.closed}
}

func (f *fakeImage) Close() error {
	*f.closed++
	return nil
}

// scriptedDetector returns one result set per call, repeating the last one.
type scriptedDetector struct {
	results    [][]Detection
	err        error
	calls      int
	thresholds []float64
}

func (d *scriptedDetector) Detect(img Image, threshold float64) ([]Detection, error) {
	d.calls++
	d.thresholds = append(d.thresholds, threshold)
	if d.err != nil {
		return nil, d.err
	}
	if len(d.results) == 0 {
		return nil, nil
	}
	i := d.calls - 1
	if i >= len(d.results) {
		i = len(d.results) - 1
	}
	return d.results[i], nil
}

type cocoLabels map[int]string

func (l cocoLabels) Label(classID int) string {
	if name, ok := l[classID]; ok {
		return name
	}
	return fmt.Sprintf("unknown%d", classID)
}

var testLabels = cocoLabels{1: "person", 3: "car"}

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Warning(format string, v ...interface{}) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, v...))
}

func person(box image.Rectangle) Detection {
	return Detection{Box: box, ClassID: 1, Confidence: 0.8}
}

func face(w, h int, confidence float64) Detection {
	return Detection{Box: image.Rect(10, 10, 10+w, 10+h), ClassID: 1, Confidence: confidence}
}
