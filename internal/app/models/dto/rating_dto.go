package dto

import "github.com/volunnet/volunnet/internal/app/models"

// RateRequest represents a directional rating. Bounds and direction are checked by the rating service.
type RateRequest struct {
	VolunteerID int64                  `json:"volunteerId"`
	Rating      int                    `json:"rating"`
	Comment     string                 `json:"comment" binding:"max=2000"`
	Type        models.RatingDirection `json:"type"`
}

// RatingValue is the stored rating echoed to the caller
type RatingValue struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// RateResponse is returned after a successful rating
type RateResponse struct {
	Message string      `json:"message"`
	Rating  RatingValue `json:"rating"`
}
