package reminder

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Appointment is a scheduled visit as written by the booking flow. The
// scheduler only reads these rows, it never transitions their status.
type Appointment struct {
	ID          uuid.UUID
	PatientID   uuid.UUID
	DoctorID    uuid.UUID
	Date        time.Time // calendar date, midnight in server local time
	StartMinute int       // time of day in minutes since midnight
	Status      AppointmentStatus
}

type Patient struct {
	ID    uuid.UUID
	Name  string
	Email *string
}

type Doctor struct {
	ID        uuid.UUID
	Name      string
	Specialty *string
}

const NotificationTypeReminder = "appointment_reminder"

// Notification is the in-app row written once per dispatched reminder.
// Append-only; this service never updates or deletes notifications.
type Notification struct {
	UserID    uuid.UUID
	Title     string
	Message   string
	Type      string
	RelatedID uuid.UUID
	ActionURL string
}

// EmailMessage is the payload posted to the transactional email
// dispatcher. Transient, never persisted.
type EmailMessage struct {
	Type            string `json:"type"`
	To              string `json:"to"`
	PatientName     string `json:"patientName"`
	DoctorName      string `json:"doctorName"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	ReminderMinutes int    `json:"reminderMinutes"`
}
