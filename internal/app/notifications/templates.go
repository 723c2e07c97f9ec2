package notifications

import (
	"fmt"

	"github.com/volunnet/volunnet/internal/app/models"
)

// Subcategories
const (
	SubWelcome             = "welcome"
	SubApplicationReceived = "application_received"
	SubApplicationNew      = "application_new"
	SubApplicationAccepted = "application_accepted"
	SubApplicationRejected = "application_rejected"
	SubApplicationWithdraw = "application_withdrawn"
	SubEventCancelled      = "event_cancelled"
	SubRatingRequest       = "rating_request"
	SubRatingReceived      = "rating_received"
)

func eventURL(eventID int64) *string {
	u := fmt.Sprintf("/events/%d", eventID)
	return &u
}

func forEvent(userID int64, event *models.Event, category models.NotificationCategory, sub string, priority models.NotificationPriority) *models.Notification {
	eventID := event.ID
	return &models.Notification{
		UserID:      userID,
		Category:    category,
		Subcategory: sub,
		Priority:    priority,
		EventID:     &eventID,
		ActionURL:   eventURL(event.ID),
	}
}

// Welcome greets a newly registered user
func Welcome(user *models.User) *models.Notification {
	return &models.Notification{
		UserID:      user.ID,
		Category:    models.CategoryAccount,
		Subcategory: SubWelcome,
		Priority:    models.PriorityNormal,
		Title:       "Welcome to VolunNet",
		Message:     fmt.Sprintf("Hi %s, your account is ready. Verify your email to get started.", user.FirstName),
	}
}

// ApplicationReceived confirms an application to the volunteer
func ApplicationReceived(volunteerUserID int64, event *models.Event) *models.Notification {
	n := forEvent(volunteerUserID, event, models.CategoryApplication, SubApplicationReceived, models.PriorityNormal)
	n.Title = "Application submitted"
	n.Message = fmt.Sprintf("Your application to %q was received and is awaiting review.", event.Title)
	return n
}

// NewApplicant tells the organizer someone applied
func NewApplicant(event *models.Event, volunteerName string) *models.Notification {
	n := forEvent(event.OrganizerUserID, event, models.CategoryApplication, SubApplicationNew, models.PriorityHigh)
	n.Title = "New volunteer application"
	n.Message = fmt.Sprintf("%s applied to %q.", volunteerName, event.Title)
	applicants := fmt.Sprintf("/events/%d/applications", event.ID)
	n.ActionURL = &applicants
	return n
}

// ApplicationWithdrawn tells the organizer an applicant withdrew
func ApplicationWithdrawn(event *models.Event, volunteerName string) *models.Notification {
	n := forEvent(event.OrganizerUserID, event, models.CategoryApplication, SubApplicationWithdraw, models.PriorityLow)
	n.Title = "Application withdrawn"
	n.Message = fmt.Sprintf("%s withdrew their application to %q.", volunteerName, event.Title)
	return n
}

// ApplicationReviewed tells the volunteer the organizer's decision
func ApplicationReviewed(volunteerUserID int64, event *models.Event, status models.ApplicationStatus) *models.Notification {
	if status == models.ApplicationStatusAccepted {
		n := forEvent(volunteerUserID, event, models.CategoryApplication, SubApplicationAccepted, models.PriorityHigh)
		n.Title = "Application accepted"
		n.Message = fmt.Sprintf("You're confirmed for %q on %s.", event.Title, event.StartDate.Format("Jan 2, 2006"))
		return n
	}
	n := forEvent(volunteerUserID, event, models.CategoryApplication, SubApplicationRejected, models.PriorityNormal)
	n.Title = "Application not accepted"
	n.Message = fmt.Sprintf("Your application to %q was not accepted this time.", event.Title)
	return n
}

// RatingRequest invites a participant or the organizer to rate after completion
func RatingRequest(userID int64, event *models.Event, organizer bool) *models.Notification {
	n := forEvent(userID, event, models.CategoryRating, SubRatingRequest, models.PriorityNormal)
	n.Title = "Event completed"
	if organizer {
		n.Message = fmt.Sprintf("%q is complete. Rate the volunteers who took part.", event.Title)
	} else {
		n.Message = fmt.Sprintf("Thanks for volunteering at %q! Rate your experience with %s.", event.Title, event.OrganizationName)
	}
	return n
}

// EventCancelled tells an applicant the event will not happen
func EventCancelled(userID int64, event *models.Event) *models.Notification {
	n := forEvent(userID, event, models.CategoryEvent, SubEventCancelled, models.PriorityUrgent)
	n.Title = "Event cancelled"
	n.Message = fmt.Sprintf("%q has been cancelled by the organizer.", event.Title)
	return n
}

// RatingReceived tells the rated party about a new rating
func RatingReceived(userID int64, event *models.Event, rating int) *models.Notification {
	n := forEvent(userID, event, models.CategoryRating, SubRatingReceived, models.PriorityLow)
	n.Title = "New rating"
	n.Message = fmt.Sprintf("You received a %d-star rating for %q.", rating, event.Title)
	return n
}
