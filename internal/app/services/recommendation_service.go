package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	appAuth "github.com/volunnet/volunnet/internal/app/auth"
	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/app/models/dto"
	"github.com/volunnet/volunnet/internal/pkg/cache"
	"github.com/volunnet/volunnet/internal/pkg/helpers"
	"github.com/volunnet/volunnet/internal/pkg/metrics"
)

// Scoring weights. A perfect skill match, a category in the volunteer's interests
// and an event next door add up to 1.
const (
	skillWeight    = 0.5
	interestWeight = 0.25
	distanceWeight = 0.25

	// Events further than this contribute nothing for distance
	maxDistanceKm = 100.0

	candidateLimit      = 200
	recommendationLimit = 20
)

// RecommendationService suggests open events to volunteers
type RecommendationService interface {
	Recommend(ctx context.Context, userID int64) (*dto.RecommendationListResponse, error)
}

type recommendationServiceImpl struct {
	authz    *appAuth.AuthorizationService
	events   EventStore
	cache    cache.Cache
	metrics  *metrics.Recorder
	settings CacheSettings
	logger   zerolog.Logger
}

// NewRecommendationService creates a new recommendation service
func NewRecommendationService(
	authz *appAuth.AuthorizationService,
	events EventStore,
	c cache.Cache,
	recorder *metrics.Recorder,
	settings CacheSettings,
	logger zerolog.Logger,
) RecommendationService {
	return &recommendationServiceImpl{
		authz:    authz,
		events:   events,
		cache:    c,
		metrics:  recorder,
		settings: settings,
		logger:   logger,
	}
}

// Recommend ranks published events with free seats for the calling volunteer
func (s *recommendationServiceImpl) Recommend(ctx context.Context, userID int64) (*dto.RecommendationListResponse, error) {
	volunteer, err := s.authz.RequireVolunteer(ctx, userID)
	if err != nil {
		return nil, err
	}

	load := func(ctx context.Context) ([]*dto.Recommendation, error) {
		events, err := s.events.ListOpenEvents(ctx, time.Now(), candidateLimit)
		if err != nil {
			return nil, err
		}
		return Rank(volunteer, events, recommendationLimit), nil
	}

	recs, stale, err := readThrough(ctx, s.cache, s.metrics,
		fmt.Sprintf("recommendations:%d", volunteer.ID), s.settings.RecommendationsTTL, s.settings.ReadTimeout,
		[]string{cache.VolunteerTag(volunteer.ID), cache.CatalogTag}, load, []*dto.Recommendation{})
	if err != nil {
		s.logger.Error().Err(err).Int64("volunteerID", volunteer.ID).Msg("Failed to build recommendations")
		return nil, fmt.Errorf("error building recommendations: %w", err)
	}
	if recs == nil {
		recs = []*dto.Recommendation{}
	}
	return &dto.RecommendationListResponse{Recommendations: recs, Stale: stale}, nil
}

// Rank scores events for a volunteer and returns the best `limit`, highest score
// first and earlier events first on ties.
func Rank(volunteer *models.Volunteer, events []*models.Event, limit int) []*dto.Recommendation {
	skills := toSet(volunteer.Skills)
	interests := toSet(volunteer.Interests)

	recs := make([]*dto.Recommendation, 0, len(events))
	for _, e := range events {
		if e.SeatsLeft() == 0 {
			continue
		}
		rec := &dto.Recommendation{Event: e, MatchedSkills: []string{}}

		if len(e.Skills) > 0 {
			for _, skill := range e.Skills {
				if _, ok := skills[strings.ToLower(skill)]; ok {
					rec.MatchedSkills = append(rec.MatchedSkills, skill)
				}
			}
			rec.Score += skillWeight * float64(len(rec.MatchedSkills)) / float64(len(e.Skills))
		}

		if e.CategoryName != "" {
			if _, ok := interests[strings.ToLower(e.CategoryName)]; ok {
				rec.Score += interestWeight
			}
		}

		if volunteer.Location.HasCoordinates() && e.Location.HasCoordinates() {
			d := helpers.HaversineKm(*volunteer.Location.Latitude, *volunteer.Location.Longitude,
				*e.Location.Latitude, *e.Location.Longitude)
			rec.DistanceKm = &d
			rec.Score += distanceWeight * math.Max(0, 1-d/maxDistanceKm)
		}

		rec.Score = math.Round(rec.Score*1000) / 1000
		recs = append(recs, rec)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].Event.StartDate.Before(recs[j].Event.StartDate)
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range helpers.NormalizeTags(values) {
		set[v] = struct{}{}
	}
	return set
}
