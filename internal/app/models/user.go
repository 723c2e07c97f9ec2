package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID          int64      `json:"id" db:"id"`
	Email       string     `json:"email" db:"email"`
	Password    string     `json:"-" db:"password"`
	FirstName   string     `json:"firstName" db:"first_name"`
	LastName    string     `json:"lastName" db:"last_name"`
	Role        Role       `json:"role" db:"role"`
	IsVerified  bool       `json:"isVerified" db:"is_verified"`
	IsActive    bool       `json:"isActive" db:"is_active"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// FullName joins first and last name
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Location is a place with optional coordinates
type Location struct {
	Address   string   `json:"address,omitempty" db:"address"`
	City      string   `json:"city,omitempty" db:"city"`
	Latitude  *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude *float64 `json:"longitude,omitempty" db:"longitude"`
}

// HasCoordinates reports whether both latitude and longitude are set
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Volunteer defines the volunteer profile, owned 1:1 by a user
type Volunteer struct {
	ID              int64     `json:"id" db:"id"`
	UserID          int64     `json:"userId" db:"user_id"`
	Bio             string    `json:"bio,omitempty" db:"bio"`
	Skills          []string  `json:"skills" db:"skills"`
	Interests       []string  `json:"interests" db:"interests"`
	Languages       []string  `json:"languages" db:"languages"`
	Location        Location  `json:"location"`
	Rating          float64   `json:"rating" db:"rating"`
	RatingCount     int       `json:"ratingCount" db:"rating_count"`
	TotalHours      float64   `json:"totalHours" db:"total_hours"`
	EventsCompleted int       `json:"eventsCompleted" db:"events_completed"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`

	User *User `json:"user,omitempty"`
}

// Organization defines the organization profile, owned 1:1 by a user
type Organization struct {
	ID              int64     `json:"id" db:"id"`
	UserID          int64     `json:"userId" db:"user_id"`
	Name            string    `json:"name" db:"name"`
	Description     string    `json:"description,omitempty" db:"description"`
	Website         string    `json:"website,omitempty" db:"website"`
	IsVerified      bool      `json:"isVerified" db:"is_verified"`
	FocusAreas      []string  `json:"focusAreas" db:"focus_areas"`
	Location        Location  `json:"location"`
	Rating          float64   `json:"rating" db:"rating"`
	RatingCount     int       `json:"ratingCount" db:"rating_count"`
	EventsHosted    int       `json:"eventsHosted" db:"events_hosted"`
	EventsCompleted int       `json:"eventsCompleted" db:"events_completed"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

// RefreshToken is a persisted, revocable refresh token
type RefreshToken struct {
	Token      string    `db:"token"`
	UserID     int64     `db:"user_id"`
	ExpiryDate time.Time `db:"expiry_date"`
	IsRevoked  bool      `db:"is_revoked"`
	CreatedAt  time.Time `db:"created_at"`
}

// VerificationToken confirms ownership of an email address
type VerificationToken struct {
	ID         int64     `db:"id"`
	Token      string    `db:"token"`
	UserID     int64     `db:"user_id"`
	ExpiryDate time.Time `db:"expiry_date"`
	IsUsed     bool      `db:"is_used"`
	CreatedAt  time.Time `db:"created_at"`
}
