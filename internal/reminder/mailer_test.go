package reminder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage() EmailMessage {
	return EmailMessage{
		Type:            NotificationTypeReminder,
		To:              "pat@example.com",
		PatientName:     "Pat Doe",
		DoctorName:      "Dr. Grey",
		Date:            "2026-08-31",
		Time:            "14:30",
		ReminderMinutes: 30,
	}
}

func TestHTTPMailer_PostsPayload(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	mailer := NewHTTPMailer(srv.URL, "svc-token")
	err := mailer.SendReminder(context.Background(), testMessage())
	require.NoError(t, err)

	assert.Equal(t, "Bearer svc-token", gotAuth)
	assert.Equal(t, "appointment_reminder", gotBody["type"])
	assert.Equal(t, "pat@example.com", gotBody["to"])
	assert.Equal(t, "Pat Doe", gotBody["patientName"])
	assert.Equal(t, "Dr. Grey", gotBody["doctorName"])
	assert.Equal(t, "2026-08-31", gotBody["date"])
	assert.Equal(t, "14:30", gotBody["time"])
	assert.Equal(t, float64(30), gotBody["reminderMinutes"])
}

func TestHTTPMailer_NoTokenNoAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	mailer := NewHTTPMailer(srv.URL, "")
	assert.NoError(t, mailer.SendReminder(context.Background(), testMessage()))
}

func TestHTTPMailer_Non2xxIsDispatchError(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadRequest} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "provider unhappy", status)
		}))

		mailer := NewHTTPMailer(srv.URL, "")
		err := mailer.SendReminder(context.Background(), testMessage())
		assert.ErrorIs(t, err, ErrEmailDispatch, "status %d", status)
		assert.ErrorContains(t, err, "provider unhappy")

		srv.Close()
	}
}

func TestHTTPMailer_ConnectionFailureIsDispatchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	mailer := NewHTTPMailer(srv.URL, "")
	err := mailer.SendReminder(context.Background(), testMessage())
	assert.ErrorIs(t, err, ErrEmailDispatch)
}
