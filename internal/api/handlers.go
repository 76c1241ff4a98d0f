package api

import (
	"net/http"

	"github.com/sirupsen/logrus"
)

// triggerRunHandler invokes one reminder sweep. The run either completes
// with a sent count plus any per-pair failures, or fails outright when the
// candidate fetch is unavailable.
func triggerRunHandler(runner Runner, log *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := runner.Run(r.Context())
		if err != nil {
			log.WithError(err).WithField("request_id", GetRequestID(r.Context())).Error("reminder run failed")
			writeJSON(w, http.StatusInternalServerError, RunErrorResponse{Error: err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, RunResponse{
			Success:       true,
			RemindersSent: res.Sent,
			Evaluated:     res.Evaluated,
			Failures:      res.Failures,
		})
	}
}
