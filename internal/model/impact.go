package model

import "time"

// Impact represents a sustained-attention episode saved as evidence.
type Impact struct {
	ID             int64     `json:"id"`
	SessionID      string    `json:"session_id"`
	Filename       string    `json:"filename"`
	AttentionCount int       `json:"attention_count"`
	DwellSeconds   float64   `json:"dwell_seconds"`
	Timestamp      time.Time `json:"timestamp"`
	FilePath       string    `json:"filepath"`
	ThumbnailPath  string    `json:"thumbnail_path"`
	FileSize       int64     `json:"filesize"`
}

// ImpactStats summarizes stored impacts.
type ImpactStats struct {
	TotalImpacts   int            `json:"total_impacts"`
	TotalAttention int            `json:"total_attention"`
	TotalSizeBytes int64          `json:"total_size_bytes"`
	AverageDwell   float64        `json:"average_dwell_seconds"`
	PerDay         map[string]int `json:"per_day"`
}
