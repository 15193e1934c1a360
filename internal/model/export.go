package model

import "time"

// ResultExport is the top-level JSON structure for exam result export.
type ResultExport struct {
	ExamID      string         `json:"exam_id"`
	Title       string         `json:"title"`
	ExportedAt  time.Time      `json:"exported_at"`
	TotalPoints int            `json:"total_points"`
	NumResults  int            `json:"num_results"`
	Results     []ResultReview `json:"results"`
}
