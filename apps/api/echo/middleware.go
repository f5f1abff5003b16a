package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edplatform_http_requests_total",
		Help: "Number of HTTP requests served, by route and status.",
	}, []string{"method", "route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "edplatform_http_request_duration_seconds",
		Help:    "Duration of the HTTP requests served, by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

func adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		if claims.IsAdmin() {
			return next(ctx)
		}
		return errHttpForbidden
	}
}

func metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		start := time.Now()
		err := next(ctx)
		if err != nil {
			ctx.Error(err) // writes the response so its status is known
		}

		route := ctx.Path()
		if route == "" {
			route = "unmatched"
		}
		method := ctx.Request().Method
		requestsTotal.WithLabelValues(method, route, strconv.Itoa(ctx.Response().Status)).Inc()
		requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return nil
	}
}
