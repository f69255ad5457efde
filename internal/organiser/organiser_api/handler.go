package organiser_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"event-booking/internal/events"
	"event-booking/internal/logger"
	"event-booking/internal/organiser"
	"event-booking/internal/session"
)

type Handler struct {
	OrganiserService *organiser.Service
	EventService     *events.Service
	Sessions         *session.Manager
	Logger           *logger.Logger
}

// ---------------- AUTH ----------------

// LoginPage surfaces a prior login error from the query string.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"error": r.URL.Query().Get("error"),
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	err := h.OrganiserService.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, organiser.ErrInvalidCredentials) {
			h.Logger.LogSecurity("LOGIN_FAILED", fmt.Sprintf("username=%s", username))
			redirectWithError(w, r, "/organiser/login", "Invalid credentials")
			return
		}
		h.Logger.Error("API", fmt.Sprintf("Login: %v", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := h.Sessions.Create(r.Context(), w, username); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Login: failed to create session: %v", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.Logger.LogSession("LOGIN", fmt.Sprintf("artist=%s", username))
	http.Redirect(w, r, "/organiser/home", http.StatusFound)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	artist := session.Artist(r.Context())
	if err := h.Sessions.Destroy(w, r); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Logout: %v", err))
	}
	h.Logger.LogSession("LOGOUT", fmt.Sprintf("artist=%s", artist))
	http.Redirect(w, r, "/organiser/login", http.StatusFound)
}

// RegisterPage surfaces a prior registration error from the query string.
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"error": r.URL.Query().Get("error"),
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}

	err := h.OrganiserService.Register(r.Context(),
		r.PostFormValue("username"),
		r.PostFormValue("password"),
		r.PostFormValue("confirmPassword"),
	)
	switch {
	case err == nil:
		http.Redirect(w, r, "/organiser/login", http.StatusFound)
	case errors.Is(err, organiser.ErrMissingFields):
		redirectWithError(w, r, "/organiser/register", "All fields are required")
	case errors.Is(err, organiser.ErrPasswordMismatch):
		redirectWithError(w, r, "/organiser/register", "Passwords do not match")
	case errors.Is(err, organiser.ErrDuplicateUsername):
		redirectWithError(w, r, "/organiser/register", "Username already exists")
	default:
		h.Logger.Error("API", fmt.Sprintf("Register: %v", err))
		redirectWithError(w, r, "/organiser/register", "Registration failed")
	}
}

// ---------------- HOME ----------------

// Home returns the organiser's site settings plus their published and draft
// events as two separate lists.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	artist := session.Artist(r.Context())

	settings, err := h.OrganiserService.SiteSettings(r.Context(), artist)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Home: %v", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	published, drafts, err := h.EventService.Home(r.Context(), artist)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Home: %v", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"artist_name":      artist,
		"site_name":        settings.Name,
		"site_description": settings.Description,
		"published_events": published,
		"draft_events":     drafts,
		"error":            r.URL.Query().Get("error"),
	})
}

// ---------------- EVENTS ----------------

func (h *Handler) CreateEventPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"artist_name": session.Artist(r.Context()),
	})
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	artist := session.Artist(r.Context())

	input, err := eventInputFromForm(r)
	if err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}

	event, err := h.EventService.CreateDraft(r.Context(), artist, input)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateEvent: %v", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.Logger.LogEvent("CREATED", event.ID, fmt.Sprintf("artist=%s name=%s", artist, event.Name))
	http.Redirect(w, r, "/organiser/home", http.StatusFound)
}

// EditEventPage fetches an owned event for the edit form; 404 when the
// event is absent or owned by another organiser.
func (h *Handler) EditEventPage(w http.ResponseWriter, r *http.Request) {
	artist := session.Artist(r.Context())
	eventID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}

	event, err := h.EventService.GetForEdit(r.Context(), artist, eventID)
	if err != nil {
		if errors.Is(err, events.ErrEventNotFound) {
			http.Error(w, "Event not found", http.StatusNotFound)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("EditEventPage: %v", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{"event": event})
}

func (h *Handler) EditEvent(w http.ResponseWriter, r *http.Request) {
	artist := session.Artist(r.Context())
	eventID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}

	input, err := eventInputFromForm(r)
	if err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}

	err = h.EventService.Update(r.Context(), artist, eventID, input)
	if err != nil {
		if errors.Is(err, events.ErrEventNotFound) {
			http.Error(w, "Event not found", http.StatusNotFound)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("EditEvent: %v", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.Logger.LogEvent("UPDATED", eventID, fmt.Sprintf("artist=%s", artist))
	http.Redirect(w, r, "/organiser/home", http.StatusFound)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	artist := session.Artist(r.Context())
	eventID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}

	err = h.EventService.Delete(r.Context(), artist, eventID)
	switch {
	case err == nil:
		h.Logger.LogEvent("DELETED", eventID, fmt.Sprintf("artist=%s", artist))
		http.Redirect(w, r, "/organiser/home", http.StatusFound)
	case errors.Is(err, events.ErrHasBookings):
		redirectWithError(w, r, "/organiser/home", "Cannot delete an event with bookings")
	case errors.Is(err, events.ErrEventNotFound):
		http.Error(w, "Event not found", http.StatusNotFound)
	default:
		h.Logger.Error("API", fmt.Sprintf("DeleteEvent: %v", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (h *Handler) PublishEvent(w http.ResponseWriter, r *http.Request) {
	artist := session.Artist(r.Context())
	eventID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}

	err = h.EventService.Publish(r.Context(), artist, eventID)
	if err != nil {
		if errors.Is(err, events.ErrEventNotFound) {
			http.Error(w, "Event not found", http.StatusNotFound)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("PublishEvent: %v", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.Logger.LogEvent("PUBLISHED", eventID, fmt.Sprintf("artist=%s", artist))
	http.Redirect(w, r, "/organiser/home", http.StatusFound)
}

// ---------------- SITE SETTINGS ----------------

func (h *Handler) SiteSettingsPage(w http.ResponseWriter, r *http.Request) {
	artist := session.Artist(r.Context())

	settings, err := h.OrganiserService.SiteSettings(r.Context(), artist)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("SiteSettingsPage: %v", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"artist_name":      artist,
		"site_name":        settings.Name,
		"site_description": settings.Description,
	})
}

func (h *Handler) SaveSiteSettings(w http.ResponseWriter, r *http.Request) {
	artist := session.Artist(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}

	err := h.OrganiserService.SaveSiteSettings(r.Context(), artist,
		r.PostFormValue("siteName"),
		r.PostFormValue("siteDescription"),
	)
	if err != nil {
		if errors.Is(err, organiser.ErrMissingFields) {
			http.Error(w, "All fields are required.", http.StatusBadRequest)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("SaveSiteSettings: %v", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/organiser/home", http.StatusFound)
}

// ---------------- HELPERS ----------------

// eventDateLayouts covers the datetime-local form value plus RFC3339 and
// date-only fallbacks.
var eventDateLayouts = []string{
	"2006-01-02T15:04",
	time.RFC3339,
	"2006-01-02",
}

func parseEventDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range eventDateLayouts {
		date, err := time.Parse(layout, value)
		if err == nil {
			return date, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func eventInputFromForm(r *http.Request) (events.EventInput, error) {
	if err := r.ParseForm(); err != nil {
		return events.EventInput{}, err
	}

	date, err := parseEventDate(r.PostFormValue("eventDateTime"))
	if err != nil {
		return events.EventInput{}, err
	}

	fullTickets, _ := strconv.Atoi(r.PostFormValue("full_price_tickets"))
	fullPrice, _ := strconv.ParseFloat(r.PostFormValue("full_price"), 64)
	concessionTickets, _ := strconv.Atoi(r.PostFormValue("concession_tickets"))
	concessionPrice, _ := strconv.ParseFloat(r.PostFormValue("concession_price"), 64)

	return events.EventInput{
		Name:              r.PostFormValue("name"),
		Description:       r.PostFormValue("description"),
		Date:              date,
		FullPriceTickets:  fullTickets,
		FullPrice:         fullPrice,
		ConcessionTickets: concessionTickets,
		ConcessionPrice:   concessionPrice,
	}, nil
}

func redirectWithError(w http.ResponseWriter, r *http.Request, path, message string) {
	http.Redirect(w, r, fmt.Sprintf("%s?error=%s", path, url.QueryEscape(message)), http.StatusFound)
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}
