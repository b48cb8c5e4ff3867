// Package middleware holds HTTP middleware specific to the API server.
package middleware

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/lewisedginton/parallax/pkg/logger"
)

// RecoveryConfig configures Recovery.
type RecoveryConfig struct {
	Logger           logger.Logger
	EnableStackTrace bool
	// ResponseBody is written with the 500 status; it must be JSON.
	ResponseBody string
}

// DefaultRecoveryConfig logs panics with stack traces and answers 500.
func DefaultRecoveryConfig(log logger.Logger) RecoveryConfig {
	return RecoveryConfig{
		Logger:           log,
		EnableStackTrace: true,
		ResponseBody:     `{"error":"internal server error"}`,
	}
}

// Recovery turns a handler panic into a logged 500 JSON response.
// http.ErrAbortHandler is re-raised so the server can abort the connection.
func Recovery(config RecoveryConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				logPanic(r, rec, config)

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Connection", "close")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(config.ResponseBody))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func logPanic(r *http.Request, rec any, config RecoveryConfig) {
	if config.Logger == nil {
		return
	}
	fields := []logger.LogField{
		logger.StringField("panic", fmt.Sprintf("%v", rec)),
		logger.HTTPMethodField(r.Method),
		logger.HTTPPathField(r.URL.Path),
		logger.ClientIPField(ClientIP(r)),
		logger.StringField("user_agent", r.UserAgent()),
	}
	if config.EnableStackTrace {
		fields = append(fields, logger.StringField("stack_trace", string(debug.Stack())))
	}
	logger.GetLoggerFromContext(r.Context(), config.Logger).Error("HTTP handler panic recovered", fields...)
}

// ClientIP returns the first X-Forwarded-For hop, X-Real-IP, or the host
// part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
