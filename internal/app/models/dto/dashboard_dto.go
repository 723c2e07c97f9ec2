package dto

import "github.com/volunnet/volunnet/internal/app/models"

// VolunteerDashboard aggregates a volunteer's activity
type VolunteerDashboard struct {
	PendingApplications   int64           `json:"pendingApplications"`
	AcceptedApplications  int64           `json:"acceptedApplications"`
	RejectedApplications  int64           `json:"rejectedApplications"`
	CompletedApplications int64           `json:"completedApplications"`
	TotalHours            float64         `json:"totalHours"`
	EventsCompleted       int             `json:"eventsCompleted"`
	Rating                float64         `json:"rating"`
	RatingCount           int             `json:"ratingCount"`
	UnreadNotifications   int64           `json:"unreadNotifications"`
	UpcomingEvents        []*models.Event `json:"upcomingEvents"`
	// Stale is set when the figures come from the cache after a timed out read
	Stale bool `json:"stale,omitempty"`
}

// OrganizationDashboard aggregates an organization's activity
type OrganizationDashboard struct {
	EventsByStatus      map[models.EventStatus]int64 `json:"eventsByStatus"`
	PendingApplications int64                        `json:"pendingApplications"`
	TotalVolunteers     int64                        `json:"totalVolunteers"`
	EventsHosted        int                          `json:"eventsHosted"`
	EventsCompleted     int                          `json:"eventsCompleted"`
	Rating              float64                      `json:"rating"`
	RatingCount         int                          `json:"ratingCount"`
	UnreadNotifications int64                        `json:"unreadNotifications"`
	Stale               bool                         `json:"stale,omitempty"`
}

// Recommendation is an event suggested to a volunteer
type Recommendation struct {
	Event         *models.Event `json:"event"`
	Score         float64       `json:"score"`
	DistanceKm    *float64      `json:"distanceKm,omitempty"`
	MatchedSkills []string      `json:"matchedSkills"`
}

// RecommendationListResponse lists recommendations best first
type RecommendationListResponse struct {
	Recommendations []*Recommendation `json:"recommendations"`
	Stale           bool              `json:"stale,omitempty"`
}
