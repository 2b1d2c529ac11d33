package attention

import (
	"fmt"
	"image"
)

// MinFenceOverlap is the share of a person's box that must fall inside the
// fence for the person to count as standing in front of the display.
const MinFenceOverlap = 0.3

// FenceRegion is the geofence rectangle in relative coordinates (0.0-1.0).
type FenceRegion struct {
	XMin float64
	YMin float64
	XMax float64
	YMax float64
}

// Validate checks the fence bounds.
func (f FenceRegion) Validate() error {
	if f.XMin < 0 || f.YMin < 0 || f.XMax > 1 || f.YMax > 1 {
		return fmt.Errorf("fence %+v must lie within 0.0-1.0", f)
	}
	if f.XMin >= f.XMax {
		return fmt.Errorf("fence x_min %.2f must be lower than x_max %.2f", f.XMin, f.XMax)
	}
	if f.YMin >= f.YMax {
		return fmt.Errorf("fence y_min %.2f must be lower than y_max %.2f", f.YMin, f.YMax)
	}
	return nil
}

// ToPixels converts the fence to pixel coordinates of a width x height frame.
func (f FenceRegion) ToPixels(width, height int) image.Rectangle {
	return image.Rect(
		int(f.XMin*float64(width)),
		int(f.YMin*float64(height)),
		int(f.XMax*float64(width)),
		int(f.YMax*float64(height)),
	)
}

// Area returns the pixel area of r, zero for empty or inverted boxes.
func Area(r image.Rectangle) int {
	if r.Empty() {
		return 0
	}
	return r.Dx() * r.Dy()
}

// IsInsideFence reports whether more than MinFenceOverlap of the person box
// intersects the fence. Zero-area person boxes never qualify.
func IsInsideFence(person, fence image.Rectangle) bool {
	personArea := Area(person)
	if personArea == 0 {
		return false
	}
	overlap := Area(person.Intersect(fence))
	return float64(overlap)/float64(personArea) > MinFenceOverlap
}
