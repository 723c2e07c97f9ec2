package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	appAuth "github.com/volunnet/volunnet/internal/app/auth"
	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/pkg/apperrors"
	"github.com/volunnet/volunnet/internal/pkg/cache"
	"github.com/volunnet/volunnet/internal/pkg/metrics"
)

// memDB is an in-memory stand-in for the PostgreSQL repositories. Every method
// holds the lock for its whole body so compound updates behave like transactions.
type memDB struct {
	mu sync.Mutex

	nextID        int64
	users         map[int64]*models.User
	volunteers    map[int64]*models.Volunteer
	organizations map[int64]*models.Organization
	categories    map[int64]*models.Category
	events        map[int64]*models.Event
	applications  map[int64]*models.EventApplication
	ratings       []*models.EventRating
	notifications map[int64]*models.Notification
	preferences   map[int64]*models.NotificationPreference

	// failures injected per method name
	failures map[string]error
	// delay applied to dashboard reads
	readDelay time.Duration
}

func newMemDB() *memDB {
	return &memDB{
		users:         map[int64]*models.User{},
		volunteers:    map[int64]*models.Volunteer{},
		organizations: map[int64]*models.Organization{},
		categories:    map[int64]*models.Category{},
		events:        map[int64]*models.Event{},
		applications:  map[int64]*models.EventApplication{},
		notifications: map[int64]*models.Notification{},
		preferences:   map[int64]*models.NotificationPreference{},
		failures:      map[string]error{},
	}
}

func (m *memDB) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memDB) fail(method string) error {
	return m.failures[method]
}

// seeding helpers

func (m *memDB) addVolunteer(first string) (*models.User, *models.Volunteer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &models.User{ID: m.id(), Email: strings.ToLower(first) + "@example.org", FirstName: first, Role: models.RoleVolunteer, IsActive: true}
	v := &models.Volunteer{ID: m.id(), UserID: u.ID, Skills: []string{}, Interests: []string{}, Languages: []string{}}
	m.users[u.ID] = u
	m.volunteers[v.ID] = v
	return u, v
}

func (m *memDB) addOrganization(name string) (*models.User, *models.Organization) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &models.User{ID: m.id(), Email: strings.ToLower(name) + "@example.org", FirstName: name, Role: models.RoleOrganization, IsActive: true}
	o := &models.Organization{ID: m.id(), UserID: u.ID, Name: name, FocusAreas: []string{}}
	m.users[u.ID] = u
	m.organizations[o.ID] = o
	return u, o
}

func (m *memDB) addEvent(org *models.Organization, status models.EventStatus, max int) *models.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := time.Now().Add(48 * time.Hour)
	e := &models.Event{
		ID:             m.id(),
		OrganizationID: org.ID,
		Title:          "Beach cleanup",
		Description:    "Pick up litter",
		StartDate:      start,
		EndDate:        start.Add(3 * time.Hour),
		MaxVolunteers:  max,
		Skills:         []string{},
		Requirements:   []string{},
		Benefits:       []string{},
		Status:         status,
	}
	m.events[e.ID] = e
	return m.eventView(e)
}

func (m *memDB) addApplication(event *models.Event, v *models.Volunteer, status models.ApplicationStatus) *models.EventApplication {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := &models.EventApplication{ID: m.id(), EventID: event.ID, VolunteerID: v.ID, Status: status, AppliedAt: time.Now()}
	m.applications[a.ID] = a
	if status == models.ApplicationStatusPending || status == models.ApplicationStatusAccepted {
		m.events[event.ID].CurrentVolunteers++
	}
	return m.applicationView(a)
}

func (m *memDB) event(id int64) *models.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventView(m.events[id])
}

func (m *memDB) application(id int64) *models.EventApplication {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applicationView(m.applications[id])
}

func (m *memDB) volunteer(id int64) *models.Volunteer {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := *m.volunteers[id]
	return &v
}

func (m *memDB) organization(id int64) *models.Organization {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := *m.organizations[id]
	return &o
}

// views copy records and fill the joined columns

func (m *memDB) eventView(e *models.Event) *models.Event {
	if e == nil {
		return nil
	}
	c := *e
	if org := m.organizations[e.OrganizationID]; org != nil {
		c.OrganizerUserID = org.UserID
		c.OrganizationName = org.Name
	}
	if e.CategoryID != nil {
		if cat := m.categories[*e.CategoryID]; cat != nil {
			c.CategoryName = cat.Name
		}
	}
	return &c
}

func (m *memDB) applicationView(a *models.EventApplication) *models.EventApplication {
	if a == nil {
		return nil
	}
	c := *a
	if v := m.volunteers[a.VolunteerID]; v != nil {
		c.VolunteerUserID = v.UserID
	}
	return &c
}

// UserStore

func (m *memDB) CreateAccount(_ context.Context, u *models.User, volunteer *models.Volunteer, org *models.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	u.ID = m.id()
	u.CreatedAt = time.Now()
	stored := *u
	m.users[u.ID] = &stored
	if volunteer != nil {
		volunteer.ID, volunteer.UserID = m.id(), u.ID
		v := *volunteer
		m.volunteers[v.ID] = &v
	}
	if org != nil {
		org.ID, org.UserID = m.id(), u.ID
		o := *org
		m.organizations[o.ID] = &o
	}
	m.preferences[u.ID] = models.DefaultNotificationPreference(u.ID)
	return nil
}

func (m *memDB) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memDB) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u := m.users[id]; u != nil {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (m *memDB) EmailExists(ctx context.Context, email string) (bool, error) {
	u, err := m.GetUserByEmail(ctx, email)
	return u != nil, err
}

func (m *memDB) UpdateLastLogin(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	m.users[userID].LastLoginAt = &now
	return nil
}

func (m *memDB) MarkVerified(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID].IsVerified = true
	return nil
}

func (m *memDB) UpdateName(_ context.Context, userID int64, firstName, lastName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID].FirstName, m.users[userID].LastName = firstName, lastName
	return nil
}

func (m *memDB) UpdatePassword(_ context.Context, userID int64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID].Password = passwordHash
	return nil
}

func (m *memDB) GetVolunteerByUserID(_ context.Context, userID int64) (*models.Volunteer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.volunteers {
		if v.UserID == userID {
			c := *v
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memDB) GetVolunteerByID(_ context.Context, id int64) (*models.Volunteer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v := m.volunteers[id]; v != nil {
		c := *v
		return &c, nil
	}
	return nil, nil
}

func (m *memDB) UpdateVolunteer(_ context.Context, v *models.Volunteer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *v
	c.User = nil
	m.volunteers[v.ID] = &c
	return nil
}

func (m *memDB) GetOrganizationByUserID(_ context.Context, userID int64) (*models.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.organizations {
		if o.UserID == userID {
			c := *o
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memDB) GetOrganizationByID(_ context.Context, id int64) (*models.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o := m.organizations[id]; o != nil {
		c := *o
		return &c, nil
	}
	return nil, nil
}

func (m *memDB) UpdateOrganization(_ context.Context, o *models.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *o
	m.organizations[o.ID] = &c
	return nil
}

// CategoryStore

func (m *memDB) ListCategories(_ context.Context) ([]*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memDB) GetCategoryByID(_ context.Context, id int64) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.categories[id], nil
}

// EventStore

func (m *memDB) CreateEvent(_ context.Context, e *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.id()
	e.CreatedAt = time.Now()
	c := *e
	m.events[e.ID] = &c
	return nil
}

func (m *memDB) GetEventByID(_ context.Context, id int64) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetEventByID"); err != nil {
		return nil, err
	}
	return m.eventView(m.events[id]), nil
}

func (m *memDB) ListEvents(_ context.Context, filter models.EventFilter, offset uint64, limit int) ([]*models.Event, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*models.Event
	for _, e := range m.events {
		ok := len(filter.Statuses) == 0
		for _, s := range filter.Statuses {
			if e.Status == s {
				ok = true
			}
		}
		if filter.OrganizationID != nil && e.OrganizationID != *filter.OrganizationID {
			ok = false
		}
		if ok {
			matched = append(matched, m.eventView(e))
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := int64(len(matched))
	if int(offset) >= len(matched) {
		return []*models.Event{}, total, nil
	}
	end := int(offset) + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *memDB) UpdateEvent(_ context.Context, e *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *e
	m.events[e.ID] = &c
	return nil
}

func (m *memDB) TransitionStatus(_ context.Context, id int64, from []models.EventStatus, to models.EventStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.events[id]
	if e == nil {
		return false, nil
	}
	for _, s := range from {
		if e.Status == s {
			e.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (m *memDB) CompleteEvent(_ context.Context, id int64) (*models.CompletionSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CompleteEvent"); err != nil {
		return nil, err
	}
	e := m.events[id]
	if e.Status != models.EventStatusPublished && e.Status != models.EventStatusOngoing {
		return nil, apperrors.NewInvalidTransitionError("only published or ongoing events can be completed")
	}
	e.Status = models.EventStatusCompleted

	var completed int64
	for _, a := range m.applications {
		if a.EventID != id || a.Status != models.ApplicationStatusAccepted {
			continue
		}
		a.Status = models.ApplicationStatusCompleted
		completed++
		v := m.volunteers[a.VolunteerID]
		v.EventsCompleted++
		v.TotalHours += e.DurationHours()
	}
	m.organizations[e.OrganizationID].EventsCompleted++
	return &models.CompletionSummary{Event: m.eventView(e), CompletedApplications: completed}, nil
}

func (m *memDB) ArchiveCompletedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, e := range m.events {
		if e.Status == models.EventStatusCompleted && e.EndDate.Before(cutoff) {
			e.Status = models.EventStatusArchived
			n++
		}
	}
	return n, nil
}

func (m *memDB) ListOpenEvents(_ context.Context, after time.Time, limit int) ([]*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Event
	for _, e := range m.events {
		if e.Status == models.EventStatusPublished && e.StartDate.After(after) && e.CurrentVolunteers < e.MaxVolunteers {
			out = append(out, m.eventView(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ApplicationStore

func (m *memDB) CreateApplication(_ context.Context, app *models.EventApplication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.events[app.EventID]
	switch {
	case e == nil:
		return apperrors.ErrEventNotFound
	case !e.Status.AcceptsApplications():
		return apperrors.NewInvalidStateError("event is not open for applications")
	case e.CurrentVolunteers >= e.MaxVolunteers:
		return apperrors.ErrEventFull
	}
	for _, a := range m.applications {
		if a.EventID == app.EventID && a.VolunteerID == app.VolunteerID {
			return apperrors.ErrAlreadyApplied
		}
	}
	e.CurrentVolunteers++
	app.ID = m.id()
	app.Status = models.ApplicationStatusPending
	app.AppliedAt = time.Now()
	c := *app
	m.applications[app.ID] = &c
	return nil
}

func (m *memDB) GetApplication(_ context.Context, eventID, volunteerID int64) (*models.EventApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.applications {
		if a.EventID == eventID && a.VolunteerID == volunteerID {
			return m.applicationView(a), nil
		}
	}
	return nil, nil
}

func (m *memDB) GetApplicationByID(_ context.Context, id int64) (*models.EventApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applicationView(m.applications[id]), nil
}

func (m *memDB) ListByVolunteer(_ context.Context, volunteerID int64) ([]*models.ApplicationWithEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ApplicationWithEvent
	for _, a := range m.applications {
		if a.VolunteerID == volunteerID {
			out = append(out, &models.ApplicationWithEvent{EventApplication: *m.applicationView(a), Event: m.eventView(m.events[a.EventID])})
		}
	}
	return out, nil
}

func (m *memDB) ListByEvent(_ context.Context, eventID int64) ([]*models.ApplicantView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ApplicantView
	for _, a := range m.applications {
		if a.EventID == eventID {
			view := &models.ApplicantView{EventApplication: *m.applicationView(a)}
			if v := m.volunteers[a.VolunteerID]; v != nil {
				view.VolunteerName = m.users[v.UserID].FullName()
				view.Skills = v.Skills
			}
			out = append(out, view)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDB) ListParticipants(_ context.Context, eventID int64) ([]*models.EventApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.EventApplication
	for _, a := range m.applications {
		if a.EventID == eventID && a.Status.Participated() {
			out = append(out, m.applicationView(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDB) AcceptApplication(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.applications[id]
	if a == nil || a.Status != models.ApplicationStatusPending || !m.eventOpen(a.EventID) {
		return apperrors.NewInvalidStateError("only pending applications of open events can be accepted")
	}
	now := time.Now()
	a.Status, a.ReviewedAt = models.ApplicationStatusAccepted, &now
	return nil
}

func (m *memDB) RejectApplication(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.applications[id]
	if a == nil || (a.Status != models.ApplicationStatusPending && a.Status != models.ApplicationStatusAccepted) || !m.eventOpen(a.EventID) {
		return apperrors.NewInvalidStateError("only pending or accepted applications of open events can be rejected")
	}
	now := time.Now()
	a.Status, a.ReviewedAt = models.ApplicationStatusRejected, &now
	m.releaseSeat(a.EventID)
	return nil
}

func (m *memDB) WithdrawApplication(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.applications[id]
	if a == nil || a.Status != models.ApplicationStatusPending {
		return apperrors.NewInvalidStateError("only pending applications can be withdrawn")
	}
	delete(m.applications, id)
	m.releaseSeat(a.EventID)
	return nil
}

func (m *memDB) eventOpen(eventID int64) bool {
	e := m.events[eventID]
	return e != nil && e.Status.AcceptsApplications()
}

func (m *memDB) releaseSeat(eventID int64) {
	if e := m.events[eventID]; e != nil && e.CurrentVolunteers > 0 {
		e.CurrentVolunteers--
	}
}

func (m *memDB) CountByStatusForVolunteer(ctx context.Context, volunteerID int64) (map[models.ApplicationStatus]int64, error) {
	if err := m.slowRead(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[models.ApplicationStatus]int64{}
	for _, a := range m.applications {
		if a.VolunteerID == volunteerID {
			counts[a.Status]++
		}
	}
	return counts, nil
}

// RatingStore

func (m *memDB) CreateRating(_ context.Context, rating *models.EventRating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.ratings {
		if r.ApplicationID == rating.ApplicationID && r.Direction == rating.Direction {
			return apperrors.ErrRatingAlreadyExists
		}
	}
	rating.ID = m.id()
	rating.CreatedAt = time.Now()
	c := *rating
	m.ratings = append(m.ratings, &c)

	a := m.applications[rating.ApplicationID]
	a.Status = models.ApplicationStatusCompleted
	completedAt := rating.CreatedAt
	a.CompletedAt = &completedAt

	switch rating.Direction {
	case models.RatingOrganizationToVolunteer:
		score, comment := rating.Rating, rating.Comment
		a.Rating, a.Feedback = &score, &comment
		v := m.volunteers[rating.VolunteerID]
		v.Rating, v.RatingCount = m.average(func(r *models.EventRating) bool {
			return r.VolunteerID == v.ID && r.Direction == models.RatingOrganizationToVolunteer
		})
	case models.RatingVolunteerToOrganization:
		org := m.organizations[m.events[rating.EventID].OrganizationID]
		org.Rating, org.RatingCount = m.average(func(r *models.EventRating) bool {
			return m.events[r.EventID].OrganizationID == org.ID && r.Direction == models.RatingVolunteerToOrganization
		})
	}
	return nil
}

func (m *memDB) average(match func(*models.EventRating) bool) (float64, int) {
	var sum, n int
	for _, r := range m.ratings {
		if match(r) {
			sum += r.Rating
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return float64(sum) / float64(n), n
}

func (m *memDB) ListRatingsByEvent(_ context.Context, eventID int64) ([]*models.EventRating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.EventRating
	for _, r := range m.ratings {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

// InboxStore

func (m *memDB) CreateNotification(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = m.id()
	n.CreatedAt = time.Now()
	c := *n
	m.notifications[n.ID] = &c
	return nil
}

func (m *memDB) ListNotifications(_ context.Context, userID int64, unreadOnly bool, offset uint64, limit int) ([]*models.Notification, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Notification
	for _, n := range m.notifications {
		if n.UserID != userID || n.Status == models.NotificationStatusExpired {
			continue
		}
		if unreadOnly && n.ReadAt != nil {
			continue
		}
		c := *n
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := int64(len(out))
	if int(offset) >= len(out) {
		return []*models.Notification{}, total, nil
	}
	end := int(offset) + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (m *memDB) CountUnread(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, n := range m.notifications {
		if n.UserID == userID && n.ReadAt == nil && n.Status != models.NotificationStatusExpired {
			count++
		}
	}
	return count, nil
}

func (m *memDB) MarkRead(_ context.Context, id, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.notifications[id]
	if n == nil || n.UserID != userID {
		return false, nil
	}
	now := time.Now()
	n.ReadAt, n.Status = &now, models.NotificationStatusRead
	return true, nil
}

func (m *memDB) MarkActed(_ context.Context, id, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.notifications[id]
	if n == nil || n.UserID != userID {
		return false, nil
	}
	now := time.Now()
	if n.ReadAt == nil {
		n.ReadAt = &now
	}
	n.ActedAt, n.Status = &now, models.NotificationStatusActed
	return true, nil
}

func (m *memDB) MarkAllRead(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	now := time.Now()
	for _, n := range m.notifications {
		if n.UserID == userID && n.ReadAt == nil {
			n.ReadAt, n.Status = &now, models.NotificationStatusRead
			count++
		}
	}
	return count, nil
}

func (m *memDB) ExpireNotifications(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, n := range m.notifications {
		if n.ExpiresAt != nil && n.ExpiresAt.Before(now) && n.Status != models.NotificationStatusExpired {
			n.Status = models.NotificationStatusExpired
			count++
		}
	}
	return count, nil
}

// PreferenceStore

func (m *memDB) GetPreference(_ context.Context, userID int64) (*models.NotificationPreference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p := m.preferences[userID]; p != nil {
		c := *p
		return &c, nil
	}
	return nil, nil
}

func (m *memDB) UpsertPreference(_ context.Context, p *models.NotificationPreference) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *p
	m.preferences[p.UserID] = &c
	return nil
}

// DashboardStore

func (m *memDB) slowRead(ctx context.Context) error {
	if m.readDelay == 0 {
		return nil
	}
	select {
	case <-time.After(m.readDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *memDB) UpcomingEventsForVolunteer(ctx context.Context, volunteerID int64, now time.Time, limit int) ([]*models.Event, error) {
	if err := m.slowRead(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Event
	for _, a := range m.applications {
		e := m.events[a.EventID]
		if a.VolunteerID == volunteerID && a.Status == models.ApplicationStatusAccepted && e.StartDate.After(now) {
			out = append(out, m.eventView(e))
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memDB) EventCountsByStatus(ctx context.Context, organizationID int64) (map[models.EventStatus]int64, error) {
	if err := m.slowRead(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[models.EventStatus]int64{}
	for _, e := range m.events {
		if e.OrganizationID == organizationID {
			counts[e.Status]++
		}
	}
	return counts, nil
}

func (m *memDB) ApplicationCountsForOrganization(ctx context.Context, organizationID int64) (pending, volunteers int64, err error) {
	if err := m.slowRead(ctx); err != nil {
		return 0, 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[int64]bool{}
	for _, a := range m.applications {
		if m.events[a.EventID].OrganizationID != organizationID {
			continue
		}
		if a.Status == models.ApplicationStatusPending {
			pending++
		}
		if a.Status.Participated() && !seen[a.VolunteerID] {
			seen[a.VolunteerID] = true
			volunteers++
		}
	}
	return pending, volunteers, nil
}

// memTokens implements RefreshTokenStore
type memTokens struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken
}

func newMemTokens() *memTokens {
	return &memTokens{tokens: map[string]*models.RefreshToken{}}
}

func (t *memTokens) CreateToken(_ context.Context, token string, userID int64, expiryDate time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tokens[token] = &models.RefreshToken{Token: token, UserID: userID, ExpiryDate: expiryDate, CreatedAt: time.Now()}
	return nil
}

func (t *memTokens) GetToken(_ context.Context, token string) (*models.RefreshToken, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	stored := t.tokens[token]
	switch {
	case stored == nil:
		return nil, apperrors.ErrTokenNotFound
	case stored.IsRevoked:
		return nil, apperrors.ErrTokenRevoked
	case stored.ExpiryDate.Before(time.Now()):
		return nil, apperrors.ErrTokenExpired
	}
	c := *stored
	return &c, nil
}

func (t *memTokens) RevokeToken(_ context.Context, token string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if stored := t.tokens[token]; stored != nil {
		stored.IsRevoked = true
	}
	return nil
}

func (t *memTokens) RevokeAllUserTokens(_ context.Context, userID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, stored := range t.tokens {
		if stored.UserID == userID {
			stored.IsRevoked = true
		}
	}
	return nil
}

func (t *memTokens) CleanupExpiredTokens(_ context.Context, revokedBefore time.Time) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var n int64
	for key, stored := range t.tokens {
		if (stored.IsRevoked && stored.CreatedAt.Before(revokedBefore)) || stored.ExpiryDate.Before(time.Now()) {
			delete(t.tokens, key)
			n++
		}
	}
	return n, nil
}

func (t *memTokens) active(userID int64) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, stored := range t.tokens {
		if stored.UserID == userID && !stored.IsRevoked {
			n++
		}
	}
	return n
}

// memOneTime implements OneTimeTokenStore
type memOneTime struct {
	mu     sync.Mutex
	tokens map[string]*models.VerificationToken
}

func newMemOneTime() *memOneTime {
	return &memOneTime{tokens: map[string]*models.VerificationToken{}}
}

func (t *memOneTime) CreateToken(_ context.Context, userID int64, token string, expiryDate time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tokens[token] = &models.VerificationToken{Token: token, UserID: userID, ExpiryDate: expiryDate, CreatedAt: time.Now()}
	return nil
}

func (t *memOneTime) GetToken(_ context.Context, token string) (*models.VerificationToken, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if stored := t.tokens[token]; stored != nil {
		c := *stored
		return &c, nil
	}
	return nil, nil
}

func (t *memOneTime) MarkUsed(_ context.Context, token string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	stored := t.tokens[token]
	if stored == nil || stored.IsUsed {
		return false, nil
	}
	stored.IsUsed = true
	return true, nil
}

func (t *memOneTime) DeleteExpiredTokens(_ context.Context, now time.Time) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var n int64
	for key, stored := range t.tokens {
		if stored.ExpiryDate.Before(now) {
			delete(t.tokens, key)
			n++
		}
	}
	return n, nil
}

func (t *memOneTime) latestFor(userID int64) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var latest *models.VerificationToken
	for _, stored := range t.tokens {
		if stored.UserID == userID && (latest == nil || stored.CreatedAt.After(latest.CreatedAt)) {
			latest = stored
		}
	}
	if latest == nil {
		return ""
	}
	return latest.Token
}

// recordingNotifier collects notifications instead of dispatching them
type recordingNotifier struct {
	mu   sync.Mutex
	sent []*models.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n *models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) to(userID int64) []*models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Notification
	for _, n := range r.sent {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// fixture wires every service on top of one memDB
type fixture struct {
	db       *memDB
	notifier *recordingNotifier
	cache    *cache.Memory
	metrics  *metrics.Recorder
	authz    *appAuth.AuthorizationService

	applications ApplicationService
	events       EventService
	lifecycle    LifecycleService
	ratings      RatingService
}

func newFixture() *fixture {
	db := newMemDB()
	f := &fixture{
		db:       db,
		notifier: &recordingNotifier{},
		cache:    cache.NewMemory(),
		metrics:  metrics.New(),
		authz:    appAuth.NewAuthorizationService(db, db, db),
	}
	logger := zerolog.Nop()
	f.applications = NewApplicationService(f.authz, db, db, f.notifier, f.cache, f.metrics, logger)
	f.events = NewEventService(f.authz, db, db, f.cache, logger)
	f.lifecycle = NewLifecycleService(f.authz, db, db, f.notifier, f.cache, f.metrics, logger)
	f.ratings = NewRatingService(f.authz, db, db, f.notifier, f.cache, f.metrics, logger)
	return f
}
