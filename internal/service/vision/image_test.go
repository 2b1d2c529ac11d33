package vision

import (
	"image"
	"testing"

	"gocv.io/x/gocv"
)

func TestMatImage_CropClipsToBounds(t *testing.T) {
	img := NewMatImage(gocv.NewMatWithSize(80, 100, gocv.MatTypeCV8UC3))
	defer img.Close()

	crop := img.Crop(image.Rect(50, 40, 150, 120))
	defer crop.Close()

	if got := crop.Bounds().Size(); got != image.Pt(50, 40) {
		t.Errorf("crop size: got %v, want (50,40)", got)
	}
}

func TestMatImage_BorrowedCloseKeepsMat(t *testing.T) {
	mat := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC3)
	defer mat.Close()

	BorrowMatImage(mat).Close()
	if mat.Empty() {
		t.Error("borrowed close should not release the matrix")
	}
}
