package qr

import (
	"encoding/json"

	"github.com/skip2/go-qrcode"

	"event-booking/internal/models"
)

// Payload is what the door scanner reads off a booking confirmation QR.
type Payload struct {
	Reference          string `json:"reference"`
	EventID            int64  `json:"event_id"`
	AttendeeName       string `json:"attendee_name"`
	FullPriceQuantity  int    `json:"full_price_quantity"`
	ConcessionQuantity int    `json:"concession_quantity"`
}

// Generate renders a booking confirmation as a QR PNG.
func Generate(booking models.Booking) ([]byte, error) {
	data, err := json.Marshal(Payload{
		Reference:          booking.Reference,
		EventID:            booking.EventID,
		AttendeeName:       booking.AttendeeName,
		FullPriceQuantity:  booking.FullPriceQuantity,
		ConcessionQuantity: booking.ConcessionQuantity,
	})
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(string(data), qrcode.Medium, 256)
}
