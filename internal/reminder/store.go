package reminder

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrDoctorNotFound  = errors.New("doctor not found")
)

// Store contains all DB interactions needed by the scheduler.
type Store interface {
	// Candidate retrieval: scheduled appointments on the given calendar date.
	ListScheduledForDate(ctx context.Context, date time.Time) ([]Appointment, error)

	// Recipient resolution
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)

	// Output: one row per dispatched reminder
	InsertNotification(ctx context.Context, n Notification) error
}
