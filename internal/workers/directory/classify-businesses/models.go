// internal/workers/directory/classify-businesses/models.go
package classifybusinesses

import "visa-directory/internal/models"

// Input classifies the given businesses, or the whole directory when none are passed.
// Buckets override the configured keyword buckets and need explicit businesses.
type Input struct {
	Businesses []models.Business    `json:"businesses"`
	Buckets    map[string][]string `json:"buckets"`
}

type Output struct {
	Buckets map[string][]string `json:"buckets"`
	Counts  map[string]int      `json:"counts"`
	Tags    map[string][]string `json:"tags"`
}
