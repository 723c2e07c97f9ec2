package dto

import "github.com/volunnet/volunnet/internal/app/models"

// NotificationFilterRequest represents inbox filters
type NotificationFilterRequest struct {
	Unread bool `form:"unread"`
}

// NotificationListResponse is a page of notifications
type NotificationListResponse struct {
	Notifications []*models.Notification `json:"notifications"`
	Pagination    PaginationInfo         `json:"pagination"`
}

// UnreadCountResponse carries the unread badge count
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// MarkAllReadResponse reports how many notifications were marked read
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// UpdatePreferencesRequest selects the optional delivery channels
type UpdatePreferencesRequest struct {
	EmailEnabled bool    `json:"emailEnabled"`
	PushEnabled  bool    `json:"pushEnabled"`
	SMSEnabled   bool    `json:"smsEnabled"`
	Phone        *string `json:"phone" binding:"omitempty,e164"`
}
