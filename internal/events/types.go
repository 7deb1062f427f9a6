package events

// Appointment lifecycle events carried through the outbox. The reporting
// projector consumes these strictly after the writing transaction commits.
const (
	TypeAppointmentCreated = "appointment.created"
	TypeAppointmentUpdated = "appointment.updated"
	TypeAppointmentDeleted = "appointment.deleted"
)

// AppointmentEvent is the payload for all appointment.* event types.
type AppointmentEvent struct {
	AppointmentID int64 `json:"appointment_id"`
}
