// internal/models/review.go
package models

// Review is a single review shown on a profile. Synthetic reviews are generated
// deterministically and must never be treated as ground truth.
type Review struct {
	ID          string `json:"id"`
	AuthorName  string `json:"authorName"`
	Rating      int    `json:"rating"`
	Text        string `json:"text"`
	RelativeAge string `json:"relativeAge"`
	AvatarRef   string `json:"avatarRef"`
	Synthetic   bool   `json:"synthetic"`
}

// SyntheticReview is the generator's output type. It shares Review's shape.
type SyntheticReview = Review
