package logger

import (
	"net/http"
	"time"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

// WriteHeader records the status before delegating.
func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Write counts the bytes written.
func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMiddleware logs each request and response at debug level with a
// correlation id, which is echoed back in the response header. It suits
// auxiliary listeners such as /metrics; the API uses httpmiddleware.
func (l *logger) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		r, correlationID := EnsureHTTPCorrelationID(r)
		w.Header().Set(CorrelationIDHeader, correlationID)

		requestLogger := l.WithFields(
			ClientIPField(r.RemoteAddr),
			HTTPMethodField(r.Method),
			HTTPPathField(r.URL.Path),
			CorrelationIDField(correlationID),
		)
		requestLogger.Debug("HTTP request received")

		wrapped := newResponseWriter(w)
		next.ServeHTTP(wrapped, r)

		requestLogger.Debug("HTTP response sent",
			HTTPStatusField(wrapped.statusCode),
			IntField("response_bytes", wrapped.bytesWritten),
			DurationField("duration", time.Since(start)),
		)
	})
}
