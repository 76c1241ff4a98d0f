package api

import (
	"encoding/json"
	"net/http"

	"github.com/careloop/appointment-reminders/internal/reminder"
)

type RunResponse struct {
	Success       bool                   `json:"success"`
	RemindersSent int                    `json:"remindersSent"`
	Evaluated     int                    `json:"evaluated"`
	Failures      []reminder.PairFailure `json:"failures,omitempty"`
}

type RunErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
