package dto

import (
	"strings"

	"github.com/volunnet/volunnet/internal/app/models"
)

// LocationRequest is an optional place with coordinates
type LocationRequest struct {
	Address   string   `json:"address" binding:"omitempty,max=255"`
	City      string   `json:"city" binding:"omitempty,max=100"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" binding:"omitempty,longitude"`
}

// ToModel converts the request to a location; coordinates are kept only as a pair
func (l LocationRequest) ToModel() models.Location {
	loc := models.Location{
		Address: strings.TrimSpace(l.Address),
		City:    strings.TrimSpace(l.City),
	}
	if l.Latitude != nil && l.Longitude != nil {
		lat, lon := *l.Latitude, *l.Longitude
		loc.Latitude, loc.Longitude = &lat, &lon
	}
	return loc
}

// UpdateVolunteerRequest holds the mutable volunteer profile attributes
type UpdateVolunteerRequest struct {
	FirstName string          `json:"firstName" binding:"required,max=100"`
	LastName  string          `json:"lastName" binding:"omitempty,max=100"`
	Bio       string          `json:"bio" binding:"omitempty,max=2000"`
	Skills    []string        `json:"skills" binding:"omitempty,max=50,dive,max=50"`
	Interests []string        `json:"interests" binding:"omitempty,max=50,dive,max=50"`
	Languages []string        `json:"languages" binding:"omitempty,max=20,dive,max=50"`
	Location  LocationRequest `json:"location"`
}

// UpdateOrganizationRequest holds the mutable organization profile attributes
type UpdateOrganizationRequest struct {
	Name        string          `json:"name" binding:"required,max=200"`
	Description string          `json:"description" binding:"omitempty,max=4000"`
	Website     string          `json:"website" binding:"omitempty,url,max=255"`
	FocusAreas  []string        `json:"focusAreas" binding:"omitempty,max=20,dive,max=50"`
	Location    LocationRequest `json:"location"`
}
