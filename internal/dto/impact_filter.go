package dto

import "time"

// ImpactFilters describe user-provided filters to narrow the impact list.
type ImpactFilters struct {
	DateAfter  time.Time
	DateBefore time.Time
	MinCount   int
	Limit      int
	Offset     int
}
