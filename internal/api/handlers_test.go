package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/appointment-reminders/internal/reminder"
)

type stubRunner struct {
	res reminder.RunResult
	err error
}

func (s *stubRunner) Run(_ context.Context) (reminder.RunResult, error) {
	return s.res, s.err
}

func TestTriggerRunHandler_Success(t *testing.T) {
	log, _ := logrustest.NewNullLogger()
	runner := &stubRunner{res: reminder.RunResult{Evaluated: 7, Sent: 3}}
	handler := triggerRunHandler(runner, log)

	req := httptest.NewRequest(http.MethodPost, "/reminders/run", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.RemindersSent)
	assert.Equal(t, 7, resp.Evaluated)
	assert.Empty(t, resp.Failures)
}

func TestTriggerRunHandler_ReportsPairFailures(t *testing.T) {
	log, _ := logrustest.NewNullLogger()
	apptID := uuid.New()
	runner := &stubRunner{res: reminder.RunResult{
		Evaluated: 2,
		Sent:      1,
		Failures: []reminder.PairFailure{
			{AppointmentID: apptID, Tier: 30, Stage: reminder.StageEmail, Error: "rate limited"},
		},
	}}
	handler := triggerRunHandler(runner, log)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/reminders/run", nil))

	// Partial success is still a 200; failures ride along in the body.
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.RemindersSent)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, apptID, resp.Failures[0].AppointmentID)
	assert.Equal(t, "email", resp.Failures[0].Stage)
}

func TestTriggerRunHandler_FatalRunIs500(t *testing.T) {
	log, _ := logrustest.NewNullLogger()
	runner := &stubRunner{err: errors.New("list scheduled appointments: connection refused")}
	handler := triggerRunHandler(runner, log)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/reminders/run", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp RunErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "connection refused")
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	})

	t.Run("generates when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RequestIDMiddleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
	})

	t.Run("propagates when present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-123")
		rec := httptest.NewRecorder()
		RequestIDMiddleware(next).ServeHTTP(rec, req)

		assert.Equal(t, "req-123", seen)
		assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	})
}
