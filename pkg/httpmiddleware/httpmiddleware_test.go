package httpmiddleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/parallax/pkg/logger"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, 60*time.Second, config.Timeout)
	assert.NotNil(t, config.CORS)
	assert.True(t, config.EnableCorrelationID)
	assert.True(t, config.EnableRecovery)
	assert.False(t, config.EnableLogging, "logging needs a logger")
	assert.Equal(t, int64(1<<20), config.MaxBodyBytes)
}

func TestCorrelationID(t *testing.T) {
	var seen string
	h := CorrelationID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = logger.GetCorrelationIDFromContext(r.Context())
	}))

	t.Run("generates an id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		_, err := uuid.Parse(seen)
		require.NoError(t, err)
		assert.Equal(t, seen, rec.Header().Get(logger.CorrelationIDHeader))
	})

	t.Run("keeps a valid client id", func(t *testing.T) {
		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(logger.CorrelationIDHeader, id)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, id, seen)
	})

	t.Run("replaces a malformed client id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(logger.CorrelationIDHeader, "<script>")

		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.NotEqual(t, "<script>", seen)
		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
	})
}

func TestApplyToRouter(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(logger.Config{Level: logger.DebugLevel, Format: "json", Service: "test", Output: &buf})

	router := chi.NewRouter()
	WithLogger(router, log)
	router.Get("/hello", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("hi"))
	})
	router.Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hello", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hi", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(logger.CorrelationIDHeader))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, buf.String(), "HTTP request completed")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	assert.NotPanics(t, func() {
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestApplyToRouter_CustomRecovererAndExtras(t *testing.T) {
	config := DefaultConfig()
	var order []string
	config.Recoverer = func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "recover")
			next.ServeHTTP(w, r)
		})
	}
	config.Extra = []func(http.Handler) http.Handler{func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "extra")
			next.ServeHTTP(w, r)
		})
	}}

	router := chi.NewRouter()
	ApplyToRouter(router, config)
	router.Get("/", func(http.ResponseWriter, *http.Request) { order = append(order, "handler") })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"recover", "extra", "handler"}, order)
}

func TestStripPrefix(t *testing.T) {
	tests := []struct {
		prefix, path, want string
	}{
		{prefix: "/parallax", path: "/parallax/api/mediate", want: "/api/mediate"},
		{prefix: "/parallax/", path: "/parallax", want: "/"},
		{prefix: "/parallax", path: "/parallaxed", want: "/parallaxed"},
		{prefix: "", path: "/api", want: "/api"},
	}

	for _, tt := range tests {
		t.Run(tt.prefix+tt.path, func(t *testing.T) {
			var got string
			h := StripPrefix(tt.prefix)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				got = r.URL.Path
			}))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := CORS(DefaultCORSConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/mediate", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
