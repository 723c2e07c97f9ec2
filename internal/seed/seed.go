package seed

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	appModels "github.com/volunnet/volunnet/internal/app/models"
	appRepos "github.com/volunnet/volunnet/internal/app/repositories"
	"github.com/volunnet/volunnet/internal/pkg/auth"
)

// DefaultCategories are created on every seed run; existing slugs are left alone
var DefaultCategories = []struct{ Name, Slug string }{
	{"Environment", "environment"},
	{"Education", "education"},
	{"Health", "health"},
	{"Animal Welfare", "animal-welfare"},
	{"Community", "community"},
	{"Disaster Relief", "disaster-relief"},
	{"Elderly Care", "elderly-care"},
	{"Arts & Culture", "arts-culture"},
}

const (
	demoOrganizationEmail = "demo-org@volunnet.app"
	demoVolunteerEmail    = "demo-volunteer@volunnet.app"
	demoPassword          = "volunnet-demo"
)

// CreateDefaultData creates the default event categories if they don't exist
func CreateDefaultData(ctx context.Context, repos *appRepos.Repositories, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default categories...")
	var finalErr error

	created := 0
	for _, c := range DefaultCategories {
		added, err := repos.CategoryRepository.EnsureCategory(ctx, c.Name, c.Slug)
		if err != nil {
			lgr.Error().Err(err).Str("slug", c.Slug).Msg("Error creating category")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		if added {
			created++
		}
	}

	lgr.Info().Int("created", created).Int("total", len(DefaultCategories)).Msg("Default categories checked")
	return finalErr
}

// CreateDemoData adds a verified demo organization with one published event and a demo volunteer.
// It does nothing when the demo organization already exists.
func CreateDemoData(ctx context.Context, repos *appRepos.Repositories, lgr zerolog.Logger) error {
	exists, err := repos.UserRepository.EmailExists(ctx, demoOrganizationEmail)
	if err != nil {
		return err
	}
	if exists {
		lgr.Info().Msg("Demo data already exists, skipping creation")
		return nil
	}

	hash, err := auth.HashPassword(demoPassword)
	if err != nil {
		return err
	}

	lat, lon := 41.0082, 28.9784
	location := appModels.Location{City: "Istanbul", Latitude: &lat, Longitude: &lon}

	orgUser := &appModels.User{
		Email: demoOrganizationEmail, Password: hash, FirstName: "Demo", LastName: "Organizer",
		Role: appModels.RoleOrganization, IsVerified: true, IsActive: true,
	}
	org := &appModels.Organization{
		Name:       "Demo Shoreline Trust",
		FocusAreas: []string{"environment"},
		Location:   location,
	}
	if err := repos.UserRepository.CreateAccount(ctx, orgUser, nil, org); err != nil {
		return err
	}

	volUser := &appModels.User{
		Email: demoVolunteerEmail, Password: hash, FirstName: "Demo", LastName: "Volunteer",
		Role: appModels.RoleVolunteer, IsVerified: true, IsActive: true,
	}
	volunteer := &appModels.Volunteer{
		Skills:    []string{"first aid", "logistics"},
		Interests: []string{"environment"},
		Languages: []string{"en"},
		Location:  location,
	}
	if err := repos.UserRepository.CreateAccount(ctx, volUser, volunteer, nil); err != nil {
		return err
	}

	start := time.Now().Add(7 * 24 * time.Hour).Truncate(time.Hour)
	event := &appModels.Event{
		OrganizationID: org.ID,
		Title:          "Beach clean-up",
		Description:    "Collect and sort litter along the shore.",
		StartDate:      start,
		EndDate:        start.Add(3 * time.Hour),
		Location:       location,
		MaxVolunteers:  20,
		Skills:         []string{"logistics"},
		Requirements:   []string{},
		Benefits:       []string{"certificate"},
		Status:         appModels.EventStatusPublished,
	}
	if err := repos.EventRepository.CreateEvent(ctx, event); err != nil {
		return err
	}

	lgr.Info().
		Int64("organizationID", org.ID).
		Int64("eventID", event.ID).
		Str("password", demoPassword).
		Msg("Demo accounts created")
	return nil
}
