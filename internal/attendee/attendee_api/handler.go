package attendee_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"event-booking/internal/booking"
	"event-booking/internal/booking/qr"
	"event-booking/internal/events"
	"event-booking/internal/logger"
	"event-booking/internal/organiser"
)

type Handler struct {
	BookingService   *booking.Service
	EventService     *events.Service
	OrganiserService *organiser.Service
	Logger           *logger.Logger
}

// Home lists published, future-dated events together with the site settings.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	settings, err := h.OrganiserService.LandingSettings(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Home: failed to fetch site settings: %v", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	upcoming, err := h.EventService.Upcoming(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Home: failed to list events: %v", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(w).Encode(map[string]interface{}{
		"site_name":        settings.Name,
		"site_description": settings.Description,
		"events":           upcoming,
	})
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Home: failed to encode response: %v", err))
	}
}

// EventDetail shows one published event with its remaining availability.
// The success and error query params carry messages from a prior action.
func (h *Handler) EventDetail(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}

	detail, err := h.BookingService.EventDetail(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, booking.ErrEventNotFound) {
			http.Error(w, "Event not found", http.StatusNotFound)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("EventDetail: %v", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(w).Encode(map[string]interface{}{
		"event":   detail,
		"success": r.URL.Query().Get("success"),
		"error":   r.URL.Query().Get("error"),
	})
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("EventDetail: failed to encode response: %v", err))
	}
}

// Book handles a ticket booking submission and answers with a redirect back
// to the event detail page carrying a success or error message.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	eventID, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		h.redirectWithError(w, r, idParam, "Event not found")
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}

	req := booking.BookingRequest{
		EventID:            eventID,
		AttendeeName:       r.PostFormValue("attendeeName"),
		FullPriceQuantity:  formQuantity(r, "fullPriceQuantity"),
		ConcessionQuantity: formQuantity(r, "concessionQuantity"),
	}

	placed, err := h.BookingService.Submit(r.Context(), req)
	switch {
	case err == nil:
		h.Logger.LogBooking("ACCEPTED", placed.Reference,
			fmt.Sprintf("event=%d full=%d concession=%d", eventID, placed.FullPriceQuantity, placed.ConcessionQuantity))
		http.Redirect(w, r,
			fmt.Sprintf("/attendee/event/%d?success=%s&ref=%s",
				eventID, url.QueryEscape("Booking successful!"), placed.Reference),
			http.StatusFound)
	case errors.Is(err, booking.ErrMissingDetails):
		h.redirectWithError(w, r, idParam, "Please provide your name and select at least one ticket")
	case errors.Is(err, booking.ErrEventNotFound):
		h.redirectWithError(w, r, idParam, "Event not found")
	case errors.Is(err, booking.ErrNotEnoughTickets):
		h.redirectWithError(w, r, idParam, "Not enough tickets available")
	default:
		h.Logger.Error("API", fmt.Sprintf("Book: %v", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// BookingQR renders a booking confirmation as a QR PNG for door check-in.
func (h *Handler) BookingQR(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	placed, err := h.BookingService.GetByReference(r.Context(), reference)
	if err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			http.Error(w, "Booking not found", http.StatusNotFound)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("BookingQR: %v", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	png, err := qr.Generate(*placed)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("BookingQR: failed to generate QR: %v", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(png); err != nil {
		h.Logger.Error("API", fmt.Sprintf("BookingQR: failed to write response: %v", err))
	}
}

func (h *Handler) redirectWithError(w http.ResponseWriter, r *http.Request, eventID, message string) {
	http.Redirect(w, r,
		fmt.Sprintf("/attendee/event/%s?error=%s", eventID, url.QueryEscape(message)),
		http.StatusFound)
}

// formQuantity reads a quantity field, treating absent or malformed values
// as zero.
func formQuantity(r *http.Request, field string) int {
	quantity, err := strconv.Atoi(r.PostFormValue(field))
	if err != nil {
		return 0
	}
	return quantity
}
