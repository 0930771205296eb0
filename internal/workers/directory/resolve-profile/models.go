// internal/workers/directory/resolve-profile/models.go
package resolveprofile

import "visa-directory/internal/models"

// Input carries either an id or a slug pair.
type Input struct {
	BusinessID   string `json:"businessId"`
	LocationSlug string `json:"locationSlug"`
	NameSlug     string `json:"nameSlug"`
}

type Output struct {
	Business      models.Business `json:"business"`
	CanonicalSlug string          `json:"canonicalSlug"`
	CanonicalURL  string          `json:"canonicalUrl"`
	Redirect      bool            `json:"redirect"`
	MatchStrategy string          `json:"matchStrategy"`
}
