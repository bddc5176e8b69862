package httpapi

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/dmitrijs2005/playtracker/internal/logging"
)

func handleHealth(log logging.Logger, checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				log.Warn(ctx, "health check failed", "check", name, "error", err.Error())
				status = http.StatusServiceUnavailable
				body["status"] = "unavailable"
				body[name] = "down"
				continue
			}
			body[name] = "up"
		}
		writeJSON(w, status, body)
	}
}
