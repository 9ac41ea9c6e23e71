package services

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "club_portal_requests_total",
		Help: "Requests served, by method and status.",
	}, []string{"method", "status"})

	requestLatencyMetric = promauto.NewSummary(prometheus.SummaryOpts{
		Name: "club_portal_request_seconds",
		Help: "Request latency.",
	})
)

func requestMetrics(next http.Handler) http.Handler {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		timer := prometheus.NewTimer(requestLatencyMetric)
		next.ServeHTTP(ww, r)
		timer.ObserveDuration()

		requestsMetric.WithLabelValues(r.Method, strconv.Itoa(ww.Status())).Inc()
	}
	return http.HandlerFunc(handler)
}
