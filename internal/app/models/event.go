package models

import "time"

// Category groups events by cause
type Category struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Event is a volunteering opportunity published by an organization
type Event struct {
	ID                int64       `json:"id" db:"id"`
	OrganizationID    int64       `json:"organizationId" db:"organization_id"`
	CategoryID        *int64      `json:"categoryId,omitempty" db:"category_id"`
	Title             string      `json:"title" db:"title"`
	Description       string      `json:"description" db:"description"`
	StartDate         time.Time   `json:"startDate" db:"start_date"`
	EndDate           time.Time   `json:"endDate" db:"end_date"`
	Location          Location    `json:"location"`
	MaxVolunteers     int         `json:"maxVolunteers" db:"max_volunteers"`
	CurrentVolunteers int         `json:"currentVolunteers" db:"current_volunteers"`
	Skills            []string    `json:"skills" db:"skills"`
	Requirements      []string    `json:"requirements" db:"requirements"`
	Benefits          []string    `json:"benefits" db:"benefits"`
	Status            EventStatus `json:"status" db:"status"`
	CreatedAt         time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time   `json:"updatedAt" db:"updated_at"`

	// Joined from organizations; the organizer is the user owning the organization
	OrganizerUserID  int64  `json:"organizerUserId" db:"organizer_user_id"`
	OrganizationName string `json:"organizationName,omitempty" db:"organization_name"`
	CategoryName     string `json:"categoryName,omitempty" db:"category_name"`
}

// IsOrganizer reports whether userID owns the organization that created the event
func (e *Event) IsOrganizer(userID int64) bool {
	return userID > 0 && e.OrganizerUserID == userID
}

// SeatsLeft returns the remaining capacity
func (e *Event) SeatsLeft() int {
	left := e.MaxVolunteers - e.CurrentVolunteers
	if left < 0 {
		return 0
	}
	return left
}

// DurationHours returns the scheduled length of the event in hours
func (e *Event) DurationHours() float64 {
	if !e.EndDate.After(e.StartDate) {
		return 0
	}
	return e.EndDate.Sub(e.StartDate).Hours()
}

// EventApplication links one volunteer to one event
type EventApplication struct {
	ID          int64             `json:"id" db:"id"`
	EventID     int64             `json:"eventId" db:"event_id"`
	VolunteerID int64             `json:"volunteerId" db:"volunteer_id"`
	Status      ApplicationStatus `json:"status" db:"status"`
	Message     string            `json:"message,omitempty" db:"message"`
	AppliedAt   time.Time         `json:"appliedAt" db:"applied_at"`
	ReviewedAt  *time.Time        `json:"reviewedAt,omitempty" db:"reviewed_at"`
	Rating      *int              `json:"rating,omitempty" db:"rating"`
	Feedback    *string           `json:"feedback,omitempty" db:"feedback"`
	CompletedAt *time.Time        `json:"completedAt,omitempty" db:"completed_at"`

	// Joined from volunteers
	VolunteerUserID int64 `json:"volunteerUserId" db:"volunteer_user_id"`
}

// ApplicationWithEvent is an application together with the event summary it belongs to
type ApplicationWithEvent struct {
	EventApplication
	Event *Event `json:"event"`
}

// ApplicantView is an application enriched with the applicant's name for organizers
type ApplicantView struct {
	EventApplication
	VolunteerName  string   `json:"volunteerName"`
	VolunteerEmail string   `json:"volunteerEmail"`
	Skills         []string `json:"skills"`
}

// EventRating is one directional rating attached to an application
type EventRating struct {
	ID            int64           `json:"id" db:"id"`
	ApplicationID int64           `json:"applicationId" db:"application_id"`
	EventID       int64           `json:"eventId" db:"event_id"`
	VolunteerID   int64           `json:"volunteerId" db:"volunteer_id"`
	Direction     RatingDirection `json:"type" db:"direction"`
	RaterUserID   int64           `json:"raterUserId" db:"rater_user_id"`
	Rating        int             `json:"rating" db:"rating"`
	Comment       string          `json:"comment" db:"comment"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
}

// CompletionSummary is what the completion transaction touched
type CompletionSummary struct {
	Event                 *Event
	CompletedApplications int64
}

// EventFilter narrows event listings
type EventFilter struct {
	Statuses       []EventStatus
	CategoryID     *int64
	OrganizationID *int64
	City           string
	Search         string
}
