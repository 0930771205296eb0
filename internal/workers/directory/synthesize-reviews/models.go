// internal/workers/directory/synthesize-reviews/models.go
package synthesizereviews

import "visa-directory/internal/models"

type Input struct {
	BusinessName string `json:"businessName"`
	TargetCount  int    `json:"targetCount"`
	Offset       int    `json:"offset"`
	Limit        int    `json:"limit"`
}

type Output struct {
	Reviews []models.SyntheticReview `json:"reviews"`
	Total   int                      `json:"total"`
	Offset  int                      `json:"offset"`
	Limit   int                      `json:"limit"`
}
