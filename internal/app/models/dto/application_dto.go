package dto

import (
	"time"

	"github.com/volunnet/volunnet/internal/app/models"
)

// ApplyRequest represents an application to an event
type ApplyRequest struct {
	EventID int64  `json:"eventId" binding:"required,min=1"`
	Message string `json:"message" binding:"omitempty,max=1000"`
}

// ApplicationSummary is the short form of an application
type ApplicationSummary struct {
	ID        int64                    `json:"id"`
	Status    models.ApplicationStatus `json:"status"`
	AppliedAt time.Time                `json:"appliedAt"`
}

// NewApplicationSummary maps an application to its summary
func NewApplicationSummary(app *models.EventApplication) *ApplicationSummary {
	if app == nil {
		return nil
	}
	return &ApplicationSummary{ID: app.ID, Status: app.Status, AppliedAt: app.AppliedAt}
}

// ApplyResponse is returned after a successful application
type ApplyResponse struct {
	Message     string              `json:"message"`
	Application *ApplicationSummary `json:"application"`
}

// ApplicationStatusResponse tells whether the caller applied to an event
type ApplicationStatusResponse struct {
	HasApplied  bool                     `json:"hasApplied"`
	Application *models.EventApplication `json:"application"`
}

// ApplicationListResponse lists the applications of a volunteer
type ApplicationListResponse struct {
	Applications []*models.ApplicationWithEvent `json:"applications"`
}

// ApplicantListResponse lists the applicants of an event for its organizer
type ApplicantListResponse struct {
	Applications []*models.ApplicantView `json:"applications"`
}

// ReviewApplicationResponse is returned after accept or reject
type ReviewApplicationResponse struct {
	Message     string                   `json:"message"`
	Application *models.EventApplication `json:"application"`
}
