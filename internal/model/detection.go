package model

// Detection is a person box recorded with an impact's evidence frame.
type Detection struct {
	ID         int64   `json:"id"`
	ImpactID   int64   `json:"impact_id"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float64 `json:"confidence"`
	Attention  bool    `json:"attention"`
}
