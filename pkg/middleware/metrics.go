package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Dias221467/social_network/pkg/metrics"
	"github.com/gorilla/mux"
)

// MetricsMiddleware records request counts and latency labelled by route template,
// so ids in paths do not explode label cardinality.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := "unmatched"
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}
		if path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := newStatusRecorder(w)
		start := time.Now()
		metrics.RequestStarted()
		defer metrics.RequestFinished()

		next.ServeHTTP(rec, r)

		metrics.ObserveRequest(r.Method, path, strconv.Itoa(rec.status), time.Since(start).Seconds())
	})
}
