package dto

import "time"

// BufferedEvidence holds an evidence frame and its metadata before flushing to disk.
type BufferedEvidence struct {
	Filename       string
	Timestamp      time.Time
	SessionID      string
	AttentionCount int
	Dwell          time.Duration
	Persons        []PersonBox
	Data           []byte
}
