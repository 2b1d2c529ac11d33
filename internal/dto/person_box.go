package dto

import "kiosk/internal/attention"

// PersonBox is a person record in API payloads and buffered evidence.
type PersonBox struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float64 `json:"confidence"`
	Attention  bool    `json:"attention"`
}

// PersonBoxes converts sampled person records.
func PersonBoxes(persons []attention.PersonRecord) []PersonBox {
	boxes := make([]PersonBox, 0, len(persons))
	for _, p := range persons {
		boxes = append(boxes, PersonBox{
			X:          p.Box.Min.X,
			Y:          p.Box.Min.Y,
			Width:      p.Box.Dx(),
			Height:     p.Box.Dy(),
			Confidence: p.Confidence,
			Attention:  p.Attention,
		})
	}
	return boxes
}
