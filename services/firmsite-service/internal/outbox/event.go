package outbox

import (
	"encoding/json"
	"strconv"

	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/model"
	"github.com/google/uuid"
)

// Appointment event types. The Kafka topic name equals the event type.
const (
	AppointmentBooked    = "booking.appointment.booked.v1"
	AppointmentUpdated   = "booking.appointment.updated.v1"
	AppointmentCancelled = "booking.appointment.cancelled.v1"
)

const aggregateAppointment = "appointment"

// Event is the domain event envelope written to the outbox table.
type Event struct {
	EventID       string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

type appointmentPayload struct {
	AppointmentID int64  `json:"appointment_id"`
	UserID        *int64 `json:"user_id,omitempty"`
	ServiceID     int64  `json:"service_id"`
	DateTime      string `json:"date_time"`
	Email         string `json:"email"`
}

// AppointmentEvent builds the event for an appointment write. a.ID must already be assigned.
func AppointmentEvent(eventType string, a model.Appointment) (Event, error) {
	payload, err := json.Marshal(appointmentPayload{
		AppointmentID: a.ID,
		UserID:        a.UserID,
		ServiceID:     a.ServiceID,
		DateTime:      a.DateTime.Format("2006-01-02T15:04:05"),
		Email:         a.Email,
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		EventID:       uuid.NewString(),
		AggregateType: aggregateAppointment,
		AggregateID:   strconv.FormatInt(a.ID, 10),
		EventType:     eventType,
		Payload:       payload,
	}, nil
}
