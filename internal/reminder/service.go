package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Stage names for per-pair failures.
const (
	StageResolve      = "resolve"
	StageEmail        = "email"
	StageNotification = "notification"
)

// PairFailure records one failed step for a due (appointment, tier) pair.
// Pair failures never abort the sweep; they ride back to the invoker.
type PairFailure struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Tier          int       `json:"tier"`
	Stage         string    `json:"stage"`
	Error         string    `json:"error"`
}

// RunResult summarizes one sweep. Sent counts pairs whose in-app
// notification was created; a failed email alone does not exclude a pair.
type RunResult struct {
	Evaluated int
	Sent      int
	Failures  []PairFailure
}

// Scheduler performs one reminder sweep per Run call. It holds no state
// between runs; the only durable trace of prior sends is the notification
// rows already written. A pair whose window passed unserved is never
// retried.
type Scheduler struct {
	store    Store
	mailer   Mailer
	schedule Schedule
	log      *logrus.Logger
	now      func() time.Time
}

func NewScheduler(store Store, mailer Mailer, schedule Schedule, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		store:    store,
		mailer:   mailer,
		schedule: schedule,
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the scheduler's wall clock. Test hook.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

type pairKey struct {
	appointmentID uuid.UUID
	tier          int
}

// Run executes one sweep: fetch today's scheduled appointments, match
// each against the tier windows, and dispatch an email plus an in-app
// notification for every due pair. Only the candidate fetch is fatal;
// every later failure is isolated to its own pair.
func (s *Scheduler) Run(ctx context.Context) (RunResult, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	candidates, err := s.store.ListScheduledForDate(ctx, today)
	if err != nil {
		return RunResult{}, fmt.Errorf("list scheduled appointments: %w", err)
	}

	res := RunResult{Evaluated: len(candidates)}
	dispatched := make(map[pairKey]bool)

	for _, appt := range candidates {
		minutesUntil := MinutesUntil(appt, now)

		for _, tier := range s.schedule.DueTiers(minutesUntil) {
			key := pairKey{appt.ID, tier}
			if dispatched[key] {
				continue
			}
			dispatched[key] = true

			s.dispatchPair(ctx, appt, tier, &res)
		}
	}

	return res, nil
}

// dispatchPair sends the email and inserts the in-app notification for
// one due pair. The two side effects are independent: either may fail
// without touching the other.
func (s *Scheduler) dispatchPair(ctx context.Context, appt Appointment, tier int, res *RunResult) {
	pairLog := s.log.WithFields(logrus.Fields{
		"appointment_id": appt.ID,
		"tier":           tier,
	})

	patientName, doctorName, email, resolveErr := s.resolvePair(ctx, appt)
	if resolveErr != nil {
		pairLog.WithError(resolveErr).Warn("recipient resolution failed, skipping email")
		res.Failures = append(res.Failures, PairFailure{appt.ID, tier, StageResolve, resolveErr.Error()})
	}

	switch {
	case resolveErr != nil:
		// in-app only
	case email == "":
		pairLog.Info("patient has no email on file, in-app notification only")
	default:
		msg := EmailMessage{
			Type:            NotificationTypeReminder,
			To:              email,
			PatientName:     patientName,
			DoctorName:      doctorName,
			Date:            appt.Date.Format("2006-01-02"),
			Time:            formatStartMinute(appt.StartMinute),
			ReminderMinutes: tier,
		}
		if err := s.mailer.SendReminder(ctx, msg); err != nil {
			pairLog.WithError(err).Warn("reminder email dispatch failed")
			res.Failures = append(res.Failures, PairFailure{appt.ID, tier, StageEmail, err.Error()})
		}
	}

	n := Notification{
		UserID:    appt.PatientID,
		Title:     "Appointment Reminder",
		Message:   fmt.Sprintf("Your appointment with %s starts in %d minutes.", doctorName, tier),
		Type:      NotificationTypeReminder,
		RelatedID: appt.ID,
		ActionURL: "/appointments/" + appt.ID.String(),
	}
	if err := s.store.InsertNotification(ctx, n); err != nil {
		pairLog.WithError(err).Error("notification insert failed")
		res.Failures = append(res.Failures, PairFailure{appt.ID, tier, StageNotification, err.Error()})
		return
	}

	res.Sent++
	pairLog.Info("reminder dispatched")
}

// resolvePair looks up display names and the patient's contact email.
// Any failure degrades the pair to an in-app notification with generic
// wording; doctorName is always usable.
func (s *Scheduler) resolvePair(ctx context.Context, appt Appointment) (patientName, doctorName, email string, err error) {
	doctorName = "your doctor"

	patient, err := s.store.GetPatientByID(ctx, appt.PatientID)
	if err != nil {
		return "", doctorName, "", fmt.Errorf("resolve patient %s: %w", appt.PatientID, err)
	}
	patientName = patient.Name
	if patient.Email != nil {
		email = *patient.Email
	}

	doctor, err := s.store.GetDoctorByID(ctx, appt.DoctorID)
	if err != nil {
		return patientName, doctorName, "", fmt.Errorf("resolve doctor %s: %w", appt.DoctorID, err)
	}
	doctorName = "Dr. " + doctor.Name

	return patientName, doctorName, email, nil
}

func formatStartMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
