package httpmiddleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/lewisedginton/parallax/pkg/logger"
)

// HTTPLogger logs one line per request once the response is written.
type HTTPLogger struct {
	logger logger.Logger
}

// NewHTTPLogger creates request logging middleware backed by log.
func NewHTTPLogger(log logger.Logger) *HTTPLogger {
	return &HTTPLogger{logger: log}
}

// Middleware logs each request with method, path, status and duration.
func (h *HTTPLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		log := h.RequestLogger(r).WithFields(
			logger.HTTPStatusField(status),
			logger.IntField("response_bytes", ww.BytesWritten()),
			logger.DurationField("duration", time.Since(start)),
		)
		switch {
		case status >= http.StatusInternalServerError:
			log.Error("HTTP request failed")
		case status >= http.StatusBadRequest:
			log.Warn("HTTP request rejected")
		default:
			log.Info("HTTP request completed")
		}
	})
}

// RequestLogger returns a logger carrying the request's method, path, client
// address and correlation id.
func (h *HTTPLogger) RequestLogger(r *http.Request) logger.Logger {
	return h.logger.WithFields(
		logger.ClientIPField(r.RemoteAddr),
		logger.HTTPMethodField(r.Method),
		logger.HTTPPathField(r.URL.Path),
		logger.CorrelationIDField(logger.GetCorrelationIDFromContext(r.Context())),
	)
}
