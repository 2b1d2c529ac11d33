package dto

// ImpactsData is a paginated response payload for the impact gallery.
type ImpactsData struct {
	Impacts     []ImpactInfo `json:"impacts"`
	EvidenceDir string       `json:"evidenceDir"`
	Size        int64        `json:"size"`
	Length      int          `json:"length"`
	TotalPages  int          `json:"totalPages"`
	CurrentPage int          `json:"currentPage"`
	Limit       int          `json:"pageSize"`
}
