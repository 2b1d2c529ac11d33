package dto

import (
	"encoding/json"
	"time"
)

// ImpactInfo is an impact as listed by the gallery API.
type ImpactInfo struct {
	Name           string      `json:"name"`
	Thumbnail      string      `json:"thumbnail"`
	Date           time.Time   `json:"date"`
	TimeOfDay      time.Time   `json:"timeOfDay"`
	AttentionCount int         `json:"attentionCount"`
	DwellSeconds   float64     `json:"dwellSeconds"`
	SessionID      string      `json:"sessionId"`
	Persons        []PersonBox `json:"persons"`
}

// MarshalJSON customizes JSON output for ImpactInfo to format date and time-of-day.
func (p ImpactInfo) MarshalJSON() ([]byte, error) {
	type Alias ImpactInfo
	return json.Marshal(&struct {
		Date      string `json:"date"`
		TimeOfDay string `json:"timeOfDay"`
		Alias
	}{
		Date:      p.Date.Format("02-01-2006"),
		TimeOfDay: p.TimeOfDay.Format("15:04:05"),
		Alias:     (Alias)(p),
	})
}
