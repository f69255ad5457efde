package organiser_api_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
	"golang.org/x/crypto/bcrypt"

	"event-booking/internal/config"
	"event-booking/internal/events"
	events_db "event-booking/internal/events/db"
	"event-booking/internal/kafka"
	"event-booking/internal/logger"
	"event-booking/internal/models"
	"event-booking/internal/organiser"
	organiser_db "event-booking/internal/organiser/db"
	"event-booking/internal/organiser/organiser_api"
	"event-booking/internal/session"
)

// mapStore is an in-memory session.Store so the full middleware chain runs
// without a Redis instance.
type mapStore struct {
	sessions map[string]string
}

func (s *mapStore) Set(ctx context.Context, id, identity string, ttl time.Duration) error {
	s.sessions[id] = identity
	return nil
}

func (s *mapStore) Get(ctx context.Context, id string) (string, error) {
	identity, ok := s.sessions[id]
	if !ok {
		return "", session.ErrNoSession
	}
	return identity, nil
}

func (s *mapStore) Del(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

// setupRouter wires the organiser routes the same way main does, with real
// services over an in-memory database.
func setupRouter(t *testing.T) (*chi.Mux, *bun.DB) {
	// keep the test log files out of the tree (t.Chdir needs go1.24+)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	sqldb, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.Organiser)(nil), (*models.Event)(nil),
		(*models.Booking)(nil), (*models.SiteSettings)(nil),
	} {
		_, err = bunDB.NewCreateTable().Model(model).Exec(ctx)
		require.NoError(t, err)
	}

	producer := kafka.NewProducer(config.KafkaConfig{Enabled: false})
	organiserService := organiser.NewService(&organiser_db.DB{Bun: bunDB})
	eventService := events.NewService(&events_db.DB{Bun: bunDB}, producer)

	sessions := session.NewManager(&mapStore{sessions: make(map[string]string)}, config.SessionConfig{
		CookieName: "session_id",
		TTL:        2 * time.Hour,
	})

	handler := &organiser_api.Handler{
		OrganiserService: organiserService,
		EventService:     eventService,
		Sessions:         sessions,
		Logger:           logger.NewLogger(),
	}

	r := chi.NewRouter()
	r.Route("/organiser", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(sessions.RequireAnon)
			r.Get("/login", handler.LoginPage)
			r.Post("/login", handler.Login)
			r.Get("/register", handler.RegisterPage)
			r.Post("/register", handler.Register)
		})
		r.Group(func(r chi.Router) {
			r.Use(sessions.RequireAuth)
			r.Get("/logout", handler.Logout)
			r.Get("/home", handler.Home)
			r.Get("/create-event", handler.CreateEventPage)
			r.Post("/create-event", handler.CreateEvent)
			r.Get("/edit-event/{id}", handler.EditEventPage)
			r.Post("/edit-event/{id}", handler.EditEvent)
			r.Post("/delete/{id}", handler.DeleteEvent)
			r.Post("/publish/{id}", handler.PublishEvent)
			r.Get("/site-settings", handler.SiteSettingsPage)
			r.Post("/site-settings", handler.SaveSiteSettings)
		})
	})
	return r, bunDB
}

func registerOrganiser(t *testing.T, bunDB *bun.DB, username, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	account := &models.Organiser{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	_, err = bunDB.NewInsert().Model(account).Exec(context.Background())
	require.NoError(t, err)
}

func insertEvent(t *testing.T, bunDB *bun.DB, artist, status string) *models.Event {
	t.Helper()
	now := time.Now()
	event := &models.Event{
		Name:              "Warehouse Gig",
		Description:       "A night of live music",
		Date:              now.AddDate(0, 1, 0),
		Artist:            artist,
		Status:            status,
		FullPriceTickets:  10,
		FullPrice:         25.0,
		ConcessionTickets: 5,
		ConcessionPrice:   12.5,
		CreatedAt:         now,
		LastModified:      now,
	}
	_, err := bunDB.NewInsert().Model(event).Exec(context.Background())
	require.NoError(t, err)
	return event
}

func postForm(r http.Handler, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func get(r http.Handler, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// loginAs registers the account directly and logs in over HTTP, returning
// the session cookie.
func loginAs(t *testing.T, r http.Handler, bunDB *bun.DB, username string) *http.Cookie {
	t.Helper()
	registerOrganiser(t, bunDB, username, "s3cret")

	rec := postForm(r, "/organiser/login", url.Values{
		"username": {username},
		"password": {"s3cret"},
	}, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/organiser/home", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func locationError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	return location.Query().Get("error")
}

func TestRegisterThenLoginFlow(t *testing.T) {
	r, _ := setupRouter(t)

	rec := postForm(r, "/organiser/register", url.Values{
		"username":        {"asha"},
		"password":        {"s3cret"},
		"confirmPassword": {"s3cret"},
	}, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/organiser/login", rec.Header().Get("Location"))

	rec = postForm(r, "/organiser/login", url.Values{
		"username": {"asha"},
		"password": {"s3cret"},
	}, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/organiser/home", rec.Header().Get("Location"))
	assert.NotEmpty(t, rec.Result().Cookies())
}

func TestRegisterDuplicateUsername(t *testing.T) {
	r, bunDB := setupRouter(t)
	registerOrganiser(t, bunDB, "asha", "s3cret")

	rec := postForm(r, "/organiser/register", url.Values{
		"username":        {"asha"},
		"password":        {"pw"},
		"confirmPassword": {"pw"},
	}, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "Username already exists", locationError(t, rec))
}

func TestRegisterPasswordMismatch(t *testing.T) {
	r, _ := setupRouter(t)

	rec := postForm(r, "/organiser/register", url.Values{
		"username":        {"asha"},
		"password":        {"pw1"},
		"confirmPassword": {"pw2"},
	}, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "Passwords do not match", locationError(t, rec))
}

func TestLoginWrongPassword(t *testing.T) {
	r, bunDB := setupRouter(t)
	registerOrganiser(t, bunDB, "asha", "s3cret")

	rec := postForm(r, "/organiser/login", url.Values{
		"username": {"asha"},
		"password": {"wrong"},
	}, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "Invalid credentials", locationError(t, rec))
}

func TestHomeRequiresSession(t *testing.T) {
	r, _ := setupRouter(t)

	rec := get(r, "/organiser/home", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/organiser/login", rec.Header().Get("Location"))
}

func TestLoginPageRedirectsAuthenticated(t *testing.T) {
	r, bunDB := setupRouter(t)
	cookie := loginAs(t, r, bunDB, "asha")

	rec := get(r, "/organiser/login", cookie)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/organiser/home", rec.Header().Get("Location"))
}

func TestHomeSplitsPublishedAndDrafts(t *testing.T) {
	r, bunDB := setupRouter(t)
	cookie := loginAs(t, r, bunDB, "asha")
	insertEvent(t, bunDB, "asha", models.EventStatusPublished)
	insertEvent(t, bunDB, "asha", models.EventStatusDraft)
	insertEvent(t, bunDB, "other", models.EventStatusPublished)

	rec := get(r, "/organiser/home", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ArtistName string         `json:"artist_name"`
		Published  []models.Event `json:"published_events"`
		Drafts     []models.Event `json:"draft_events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "asha", body.ArtistName)
	assert.Len(t, body.Published, 1)
	assert.Len(t, body.Drafts, 1)
}

func TestCreateEventStartsAsDraft(t *testing.T) {
	r, bunDB := setupRouter(t)
	cookie := loginAs(t, r, bunDB, "asha")

	rec := postForm(r, "/organiser/create-event", url.Values{
		"name":               {"Roof Session"},
		"description":        {"Acoustic set"},
		"eventDateTime":      {"2026-10-01T19:30"},
		"full_price_tickets": {"40"},
		"full_price":         {"20"},
		"concession_tickets": {"10"},
		"concession_price":   {"10"},
	}, cookie)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/organiser/home", rec.Header().Get("Location"))

	var event models.Event
	err := bunDB.NewSelect().Model(&event).Where("name = ?", "Roof Session").Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusDraft, event.Status)
	assert.Equal(t, "asha", event.Artist)
	assert.Equal(t, 40, event.FullPriceTickets)
}

func TestEditEventUpdatesOwnEvent(t *testing.T) {
	r, bunDB := setupRouter(t)
	cookie := loginAs(t, r, bunDB, "asha")
	event := insertEvent(t, bunDB, "asha", models.EventStatusDraft)

	rec := postForm(r, fmt.Sprintf("/organiser/edit-event/%d", event.ID), url.Values{
		"name":               {"Renamed Gig"},
		"description":        {"Updated"},
		"eventDateTime":      {"2026-11-05T20:00"},
		"full_price_tickets": {"15"},
		"full_price":         {"30"},
		"concession_tickets": {"5"},
		"concession_price":   {"15"},
	}, cookie)
	require.Equal(t, http.StatusFound, rec.Code)

	var updated models.Event
	err := bunDB.NewSelect().Model(&updated).Where("id = ?", event.ID).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Renamed Gig", updated.Name)
	assert.Equal(t, 15, updated.FullPriceTickets)
}

func TestEditEventNotOwned(t *testing.T) {
	r, bunDB := setupRouter(t)
	cookie := loginAs(t, r, bunDB, "asha")
	event := insertEvent(t, bunDB, "other", models.EventStatusDraft)

	rec := get(r, fmt.Sprintf("/organiser/edit-event/%d", event.ID), cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = postForm(r, fmt.Sprintf("/organiser/edit-event/%d", event.ID), url.Values{
		"name":               {"Hijacked"},
		"eventDateTime":      {"2026-11-05T20:00"},
		"full_price_tickets": {"1"},
		"full_price":         {"1"},
		"concession_tickets": {"1"},
		"concession_price":   {"1"},
	}, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublishEvent(t *testing.T) {
	r, bunDB := setupRouter(t)
	cookie := loginAs(t, r, bunDB, "asha")
	event := insertEvent(t, bunDB, "asha", models.EventStatusDraft)

	rec := postForm(r, fmt.Sprintf("/organiser/publish/%d", event.ID), nil, cookie)
	require.Equal(t, http.StatusFound, rec.Code)

	var published models.Event
	err := bunDB.NewSelect().Model(&published).Where("id = ?", event.ID).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusPublished, published.Status)
}

func TestPublishNotOwned(t *testing.T) {
	r, bunDB := setupRouter(t)
	cookie := loginAs(t, r, bunDB, "asha")
	event := insertEvent(t, bunDB, "other", models.EventStatusDraft)

	rec := postForm(r, fmt.Sprintf("/organiser/publish/%d", event.ID), nil, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var unchanged models.Event
	err := bunDB.NewSelect().Model(&unchanged).Where("id = ?", event.ID).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusDraft, unchanged.Status)
}

func TestDeleteEventWithoutBookings(t *testing.T) {
	r, bunDB := setupRouter(t)
	cookie := loginAs(t, r, bunDB, "asha")
	event := insertEvent(t, bunDB, "asha", models.EventStatusDraft)

	rec := postForm(r, fmt.Sprintf("/organiser/delete/%d", event.ID), nil, cookie)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/organiser/home", rec.Header().Get("Location"))

	count, err := bunDB.NewSelect().Model((*models.Event)(nil)).Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDeleteEventWithBookingsRefused(t *testing.T) {
	r, bunDB := setupRouter(t)
	cookie := loginAs(t, r, bunDB, "asha")
	event := insertEvent(t, bunDB, "asha", models.EventStatusPublished)

	placed := &models.Booking{
		Reference:         "ref-1",
		EventID:           event.ID,
		AttendeeName:      "Sam",
		FullPriceQuantity: 2,
		BookingDate:       time.Now(),
	}
	_, err := bunDB.NewInsert().Model(placed).Exec(context.Background())
	require.NoError(t, err)

	rec := postForm(r, fmt.Sprintf("/organiser/delete/%d", event.ID), nil, cookie)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "Cannot delete an event with bookings", locationError(t, rec))

	count, err := bunDB.NewSelect().Model((*models.Event)(nil)).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSaveSiteSettingsMissingFields(t *testing.T) {
	r, bunDB := setupRouter(t)
	cookie := loginAs(t, r, bunDB, "asha")

	rec := postForm(r, "/organiser/site-settings", url.Values{
		"siteName":        {""},
		"siteDescription": {"Gigs"},
	}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "All fields are required.")
}

func TestSaveSiteSettingsRoundTrip(t *testing.T) {
	r, bunDB := setupRouter(t)
	cookie := loginAs(t, r, bunDB, "asha")

	rec := postForm(r, "/organiser/site-settings", url.Values{
		"siteName":        {"Asha Live"},
		"siteDescription": {"Gigs and sessions"},
	}, cookie)
	require.Equal(t, http.StatusFound, rec.Code)

	rec = get(r, "/organiser/site-settings", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Asha Live", body["site_name"])
	assert.Equal(t, "Gigs and sessions", body["site_description"])
}

func TestLogoutDestroysSession(t *testing.T) {
	r, bunDB := setupRouter(t)
	cookie := loginAs(t, r, bunDB, "asha")

	rec := get(r, "/organiser/logout", cookie)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/organiser/login", rec.Header().Get("Location"))

	// the old cookie no longer opens protected pages
	rec = get(r, "/organiser/home", cookie)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/organiser/login", rec.Header().Get("Location"))
}
