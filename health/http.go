package health

import (
	"net/http"
	"time"

	"github.com/jonwraymond/bwsproxy/observe"
)

// Handler returns an HTTP handler that serves checker's result.
//
// A check that could not be performed is served as 500 "Internal Server
// Error" and logged at info level.
func Handler(checker Checker, logger observe.Logger) http.HandlerFunc {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		result := checker.Check(r.Context()).WithDuration(time.Since(start))

		w.Header().Set("Content-Type", "text/plain")

		if result.Error != nil {
			logger.Info(r.Context(), "health check failed",
				observe.Field{Key: "checker", Value: checker.Name()},
				observe.Field{Key: "duration_ms", Value: float64(result.Duration.Microseconds()) / 1000},
				observe.Field{Key: "error", Value: result.Error},
			)
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(http.StatusText(http.StatusInternalServerError)))
			return
		}

		w.WriteHeader(result.Status)
		_, _ = w.Write(result.Body)
	}
}

// LivenessHandler returns an HTTP handler for liveness probes.
// It always answers 200 "Ok".
func LivenessHandler() http.HandlerFunc {
	return Handler(Liveness, nil)
}
