package httpmiddleware

import (
	"net/http"

	"github.com/lewisedginton/parallax/pkg/logger"
)

// CorrelationID keeps a well-formed client X-Correlation-ID, or replaces it
// with a fresh UUID, and stores it on the request context. The id is echoed
// on the response.
func CorrelationID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, id := logger.EnsureHTTPCorrelationID(r)
			w.Header().Set(logger.CorrelationIDHeader, id)
			next.ServeHTTP(w, r)
		})
	}
}
