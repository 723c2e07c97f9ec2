package models

// Role defines the user role type
type Role string

const (
	RoleVolunteer    Role = "VOLUNTEER"
	RoleOrganization Role = "ORGANIZATION"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return r == RoleVolunteer || r == RoleOrganization
}

// EventStatus is the lifecycle state of an event
type EventStatus string

const (
	EventStatusDraft     EventStatus = "DRAFT"
	EventStatusPublished EventStatus = "PUBLISHED"
	EventStatusOngoing   EventStatus = "ONGOING"
	EventStatusCompleted EventStatus = "COMPLETED"
	EventStatusArchived  EventStatus = "ARCHIVED"
	EventStatusCancelled EventStatus = "CANCELLED"
)

// IsValid reports whether s is a known event status
func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusDraft, EventStatusPublished, EventStatusOngoing,
		EventStatusCompleted, EventStatusArchived, EventStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition leaves s
func (s EventStatus) IsTerminal() bool {
	return s == EventStatusArchived || s == EventStatusCancelled
}

// AcceptsApplications reports whether volunteers may apply while the event is in s
func (s EventStatus) AcceptsApplications() bool {
	return s == EventStatusPublished || s == EventStatusOngoing
}

// ApplicationStatus is the state of a volunteer's application
type ApplicationStatus string

const (
	ApplicationStatusPending   ApplicationStatus = "PENDING"
	ApplicationStatusAccepted  ApplicationStatus = "ACCEPTED"
	ApplicationStatusRejected  ApplicationStatus = "REJECTED"
	ApplicationStatusCompleted ApplicationStatus = "COMPLETED"
)

// IsValid reports whether s is a known application status
func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusAccepted,
		ApplicationStatusRejected, ApplicationStatusCompleted:
		return true
	}
	return false
}

// Participated reports whether the application counts as event participation
func (s ApplicationStatus) Participated() bool {
	return s == ApplicationStatusAccepted || s == ApplicationStatusCompleted
}

// RatingDirection tells which party rated which
type RatingDirection string

const (
	RatingOrganizationToVolunteer RatingDirection = "ORGANIZATION_TO_VOLUNTEER"
	RatingVolunteerToOrganization RatingDirection = "VOLUNTEER_TO_ORGANIZATION"
)

// IsValid reports whether d is a known rating direction
func (d RatingDirection) IsValid() bool {
	return d == RatingOrganizationToVolunteer || d == RatingVolunteerToOrganization
}

const (
	MinRating = 1
	MaxRating = 5
)
