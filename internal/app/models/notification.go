package models

import "time"

// NotificationStatus tracks delivery and interaction
type NotificationStatus string

const (
	NotificationStatusPending   NotificationStatus = "PENDING"
	NotificationStatusSent      NotificationStatus = "SENT"
	NotificationStatusDelivered NotificationStatus = "DELIVERED"
	NotificationStatusRead      NotificationStatus = "READ"
	NotificationStatusActed     NotificationStatus = "ACTED"
	NotificationStatusExpired   NotificationStatus = "EXPIRED"
)

// NotificationPriority orders notifications in the inbox
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "LOW"
	PriorityNormal NotificationPriority = "NORMAL"
	PriorityHigh   NotificationPriority = "HIGH"
	PriorityUrgent NotificationPriority = "URGENT"
)

// NotificationCategory is the top level grouping of a notification
type NotificationCategory string

const (
	CategoryAccount     NotificationCategory = "ACCOUNT"
	CategoryApplication NotificationCategory = "APPLICATION"
	CategoryEvent       NotificationCategory = "EVENT"
	CategoryRating      NotificationCategory = "RATING"
)

// Notification is a message addressed to one user
type Notification struct {
	ID          int64                `json:"id" db:"id"`
	UserID      int64                `json:"userId" db:"user_id"`
	Category    NotificationCategory `json:"category" db:"category"`
	Subcategory string               `json:"subcategory" db:"subcategory"`
	Title       string               `json:"title" db:"title"`
	Message     string               `json:"message" db:"message"`
	Priority    NotificationPriority `json:"priority" db:"priority"`
	Status      NotificationStatus   `json:"status" db:"status"`
	ActionURL   *string              `json:"actionUrl,omitempty" db:"action_url"`
	EventID     *int64               `json:"eventId,omitempty" db:"event_id"`
	ExpiresAt   *time.Time           `json:"expiresAt,omitempty" db:"expires_at"`
	ReadAt      *time.Time           `json:"readAt,omitempty" db:"read_at"`
	ActedAt     *time.Time           `json:"actedAt,omitempty" db:"acted_at"`
	CreatedAt   time.Time            `json:"createdAt" db:"created_at"`
}

// NotificationPreference selects the optional delivery channels of a user.
// In-app delivery is always enabled.
type NotificationPreference struct {
	UserID       int64     `json:"userId" db:"user_id"`
	EmailEnabled bool      `json:"emailEnabled" db:"email_enabled"`
	PushEnabled  bool      `json:"pushEnabled" db:"push_enabled"`
	SMSEnabled   bool      `json:"smsEnabled" db:"sms_enabled"`
	Phone        *string   `json:"phone,omitempty" db:"phone"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// DefaultNotificationPreference is used when a user has no stored preference row
func DefaultNotificationPreference(userID int64) *NotificationPreference {
	return &NotificationPreference{
		UserID:       userID,
		EmailEnabled: true,
	}
}
