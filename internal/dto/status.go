package dto

import "time"

// Status is the live kiosk state served by /api/status and pushed to viewers.
type Status struct {
	Phase          string      `json:"phase"`
	Attention      bool        `json:"attention"`
	AttentionCount int         `json:"attentionCount"`
	PersonCount    int         `json:"personCount"`
	DwellSeconds   float64     `json:"dwellSeconds"`
	Impacts        int         `json:"impacts"`
	SessionID      string      `json:"sessionId,omitempty"`
	Frame          int         `json:"frame"`
	UpdatedAt      time.Time   `json:"updatedAt"`
	Persons        []PersonBox `json:"persons"`
}

// ViewerMessage is the websocket payload: status plus the dashboard as base64 JPEG.
type ViewerMessage struct {
	Status Status `json:"status"`
	Image  string `json:"image,omitempty"`
}
