package dto

import (
	"image"
	"time"

	"kiosk/internal/attention"
)

// Overlay is what the dashboard draws over a frame. Boxes are in processing
// coordinates; ProcessedSize lets the renderer scale them to the original frame.
type Overlay struct {
	Fence         image.Rectangle
	Persons       []attention.PersonRecord
	ProcessedSize image.Point
	SessionActive bool
	Dwell         time.Duration
	Impacts       int
}
