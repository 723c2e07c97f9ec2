package dto

import (
	"time"

	"github.com/volunnet/volunnet/internal/app/models"
)

// CreateEventRequest represents the payload to create an event
type CreateEventRequest struct {
	Title         string          `json:"title" binding:"required,max=200"`
	Description   string          `json:"description" binding:"required,max=10000"`
	CategoryID    *int64          `json:"categoryId" binding:"omitempty,min=1"`
	StartDate     time.Time       `json:"startDate" binding:"required"`
	EndDate       time.Time       `json:"endDate" binding:"required,gtfield=StartDate"`
	Location      LocationRequest `json:"location"`
	MaxVolunteers int             `json:"maxVolunteers" binding:"required,min=1,max=10000"`
	Skills        []string        `json:"skills" binding:"omitempty,max=30,dive,max=50"`
	Requirements  []string        `json:"requirements" binding:"omitempty,max=30,dive,max=200"`
	Benefits      []string        `json:"benefits" binding:"omitempty,max=30,dive,max=200"`
	Publish       bool            `json:"publish"`
}

// UpdateEventRequest represents the editable event attributes
type UpdateEventRequest struct {
	Title         string          `json:"title" binding:"required,max=200"`
	Description   string          `json:"description" binding:"required,max=10000"`
	CategoryID    *int64          `json:"categoryId" binding:"omitempty,min=1"`
	StartDate     time.Time       `json:"startDate" binding:"required"`
	EndDate       time.Time       `json:"endDate" binding:"required,gtfield=StartDate"`
	Location      LocationRequest `json:"location"`
	MaxVolunteers int             `json:"maxVolunteers" binding:"required,min=1,max=10000"`
	Skills        []string        `json:"skills" binding:"omitempty,max=30,dive,max=50"`
	Requirements  []string        `json:"requirements" binding:"omitempty,max=30,dive,max=200"`
	Benefits      []string        `json:"benefits" binding:"omitempty,max=30,dive,max=200"`
}

// EventFilterRequest represents event list filters bound from the query string
type EventFilterRequest struct {
	Status         string `form:"status" binding:"omitempty,oneof=DRAFT PUBLISHED ONGOING COMPLETED ARCHIVED CANCELLED"`
	CategoryID     *int64 `form:"categoryId" binding:"omitempty,min=1"`
	OrganizationID *int64 `form:"organizationId" binding:"omitempty,min=1"`
	City           string `form:"city" binding:"omitempty,max=100"`
	Search         string `form:"search" binding:"omitempty,max=100"`
}

// EventListResponse is a page of events
type EventListResponse struct {
	Events     []*models.Event `json:"events"`
	Pagination PaginationInfo  `json:"pagination"`
}

// EventTransitionResponse is returned by lifecycle endpoints
type EventTransitionResponse struct {
	Message string        `json:"message"`
	Event   *models.Event `json:"event"`
}

// CompletionInfoResponse describes what the caller may do with an event around completion
type CompletionInfoResponse struct {
	Event             *models.Event `json:"event"`
	CanComplete       bool          `json:"canComplete"`
	IsParticipant     bool          `json:"isParticipant"`
	ParticipantsCount int           `json:"participantsCount"`
	// The caller's own application when they took part
	Application *models.EventApplication `json:"application,omitempty"`
}
