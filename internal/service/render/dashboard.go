// Package render composes the fullscreen kiosk dashboard.
package render

import (
	"fmt"
	"image"
	"image/color"

	"kiosk/internal/attention"
	"kiosk/internal/dto"
	"kiosk/internal/logger"
	"kiosk/internal/service/vision"

	"gocv.io/x/gocv"
)

const windowName = "Kiosk"

var (
	blue   = color.RGBA{R: 0, G: 0, B: 255, A: 0}
	green  = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	red    = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	white  = color.RGBA{R: 255, G: 255, B: 255, A: 0}
	yellow = color.RGBA{R: 255, G: 255, B: 0, A: 0}
)

// Dashboard draws the annotated frame letterboxed onto a screen-sized canvas
// and optionally shows it in a fullscreen window.
type Dashboard struct {
	width     int
	height    int
	annotated gocv.Mat
	canvas    gocv.Mat
	window    *gocv.Window
	logger    *logger.Logger
}

// NewDashboard creates a width x height dashboard. With display set it opens
// a fullscreen window.
func NewDashboard(width, height int, display bool, logger *logger.Logger) *Dashboard {
	d := &Dashboard{
		width:     width,
		height:    height,
		annotated: gocv.NewMat(),
		canvas:    gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3),
		logger:    logger,
	}

	if display {
		d.window = gocv.NewWindow(windowName)
		d.window.SetWindowProperty(gocv.WindowPropertyFullscreen, gocv.WindowFullscreen)
		logger.Info("Dashboard window opened (%dx%d)", width, height)
	}
	return d
}

// Render draws overlay on original and composes the canvas.
func (d *Dashboard) Render(original attention.Image, overlay dto.Overlay) error {
	src, ok := vision.AsMat(original)
	if !ok {
		return fmt.Errorf("dashboard: unsupported image type %T", original)
	}
	if src.Empty() {
		return fmt.Errorf("dashboard: empty frame")
	}
	src.CopyTo(&d.annotated)

	scaleX, scaleY := 1.0, 1.0
	if overlay.ProcessedSize.X > 0 && overlay.ProcessedSize.Y > 0 {
		scaleX = float64(src.Cols()) / float64(overlay.ProcessedSize.X)
		scaleY = float64(src.Rows()) / float64(overlay.ProcessedSize.Y)
	}

	gocv.Rectangle(&d.annotated, scaleRect(overlay.Fence, scaleX, scaleY), blue, 3)
	for _, p := range overlay.Persons {
		boxColor := green
		if p.Attention {
			boxColor = red
		}
		gocv.Rectangle(&d.annotated, scaleRect(p.Box, scaleX, scaleY), boxColor, 2)
	}

	letterbox(d.annotated, &d.canvas, d.width, d.height)
	d.drawText(overlay)
	return nil
}

func (d *Dashboard) drawText(overlay dto.Overlay) {
	if overlay.SessionActive {
		gocv.PutText(&d.canvas, "ATTENTION ACTIVE!!", image.Pt(20, 50), gocv.FontHersheySimplex, 1.2, yellow, 3)
		timer := fmt.Sprintf("Attention time: %.1fs", overlay.Dwell.Seconds())
		gocv.PutText(&d.canvas, timer, image.Pt(20, 100), gocv.FontHersheySimplex, 1.0, white, 2)
	}

	impacts := fmt.Sprintf("Real impacts: %d", overlay.Impacts)
	size := gocv.GetTextSize(impacts, gocv.FontHersheySimplex, 1.2, 3)
	gocv.PutText(&d.canvas, impacts, image.Pt(d.width-size.X-20, 50), gocv.FontHersheySimplex, 1.2, yellow, 3)

	persons := fmt.Sprintf("Persons in frame: %d", len(overlay.Persons))
	size = gocv.GetTextSize(persons, gocv.FontHersheySimplex, 1.0, 2)
	gocv.PutText(&d.canvas, persons, image.Pt(d.width-size.X-20, 100), gocv.FontHersheySimplex, 1.0, white, 2)
}

// Encode returns the current canvas as JPEG.
func (d *Dashboard) Encode() ([]byte, error) {
	buf, err := gocv.IMEncode(".jpg", d.canvas)
	if err != nil {
		return nil, fmt.Errorf("failed to encode dashboard: %w", err)
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())
	return data, nil
}

// Show displays the canvas and reports false once the operator pressed q.
func (d *Dashboard) Show() bool {
	if d.window == nil {
		return true
	}
	d.window.IMShow(d.canvas)
	key := d.window.WaitKey(1)
	return key&0xFF != 'q'
}

func (d *Dashboard) Close() error {
	if d.window != nil {
		d.window.Close()
	}
	d.annotated.Close()
	return d.canvas.Close()
}

func scaleRect(r image.Rectangle, sx, sy float64) image.Rectangle {
	return image.Rect(
		int(float64(r.Min.X)*sx), int(float64(r.Min.Y)*sy),
		int(float64(r.Max.X)*sx), int(float64(r.Max.Y)*sy),
	)
}

// letterbox resizes src to fit width x height keeping its aspect ratio and
// centres it on a black dst.
func letterbox(src gocv.Mat, dst *gocv.Mat, width, height int) {
	scale := min(float64(width)/float64(src.Cols()), float64(height)/float64(src.Rows()))
	newWidth := int(float64(src.Cols()) * scale)
	newHeight := int(float64(src.Rows()) * scale)

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(src, &resized, image.Pt(newWidth, newHeight), 0, 0, gocv.InterpolationLinear)

	dst.SetTo(gocv.NewScalar(0, 0, 0, 0))

	x := (width - newWidth) / 2
	y := (height - newHeight) / 2
	roi := dst.Region(image.Rect(x, y, x+newWidth, y+newHeight))
	resized.CopyTo(&roi)
	roi.Close()
}
