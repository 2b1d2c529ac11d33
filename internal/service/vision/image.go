// Package vision adapts OpenCV matrices and SSD networks to the attention detectors.
package vision

import (
	"image"

	"kiosk/internal/attention"

	"gocv.io/x/gocv"
)

// MatImage wraps a gocv.Mat as an attention.Image.
type MatImage struct {
	mat      gocv.Mat
	borrowed bool
}

// NewMatImage wraps mat and takes ownership of it.
func NewMatImage(mat gocv.Mat) *MatImage {
	return &MatImage{mat: mat}
}

// BorrowMatImage wraps mat without taking ownership; Close leaves mat open.
func BorrowMatImage(mat gocv.Mat) *MatImage {
	return &MatImage{mat: mat, borrowed: true}
}

// Mat returns the wrapped matrix.
func (m *MatImage) Mat() gocv.Mat {
	return m.mat
}

func (m *MatImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.mat.Cols(), m.mat.Rows())
}

// Crop returns a region sharing memory with m. The region must be closed.
func (m *MatImage) Crop(r image.Rectangle) attention.Image {
	return &MatImage{mat: m.mat.Region(r.Intersect(m.Bounds()))}
}

func (m *MatImage) Close() error {
	if m.borrowed {
		return nil
	}
	return m.mat.Close()
}

// AsMat extracts the matrix behind an attention.Image produced by this package.
func AsMat(img attention.Image) (gocv.Mat, bool) {
	m, ok := img.(*MatImage)
	if !ok {
		return gocv.Mat{}, false
	}
	return m.mat, true
}
