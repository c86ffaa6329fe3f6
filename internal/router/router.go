package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/telmaril/userapi/internal/auth"
	"github.com/telmaril/userapi/internal/docs"
	"github.com/telmaril/userapi/internal/user"
	"github.com/telmaril/userapi/pkg/utilities"
)

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware returns a middleware that logs requests at debug level using the provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
				"request_id", w.Header().Get("X-Request-Id"),
			)
		})
	}
}

// RequestIDMiddleware assigns a fresh id to each request (or keeps the one a
// proxy already set) and echoes it in the response.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-Id")
			if id == "" {
				id = utilities.NewRequestID()
			}
			w.Header().Set("X-Request-Id", id)
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Deps carries everything the router mounts.
type Deps struct {
	Logger *zap.SugaredLogger
	Users  *user.Handler
	Auth   *auth.Handler
	Docs   *docs.Handler

	// Gate protects /users and /api-docs per AUTH_MODE; Logout is always
	// the bearer gate since logout is defined in terms of a token subject.
	Gate   auth.Gate
	Logout auth.Gate
}

// New mounts all routes and wraps them with the middleware chain.
func New(d Deps) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("Welcome to the User CRUD API"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}).Methods(http.MethodGet)

	// public auth routes; logout carries the bearer gate
	a := r.PathPrefix("/auth").Subrouter()
	a.HandleFunc("/register", d.Auth.Register).Methods(http.MethodPost)
	a.HandleFunc("/login", d.Auth.Login).Methods(http.MethodPost)
	a.Handle("/logout", d.Logout.Wrap(http.HandlerFunc(d.Auth.Logout))).Methods(http.MethodPost)

	// protected CRUD surface
	u := r.PathPrefix("/users").Subrouter()
	u.Use(mux.MiddlewareFunc(d.Gate.Wrap))
	u.HandleFunc("", d.Users.List).Methods(http.MethodGet)
	u.HandleFunc("", d.Users.Create).Methods(http.MethodPost)
	u.HandleFunc("/{id}", d.Users.Get).Methods(http.MethodGet)
	u.HandleFunc("/{id}", d.Users.Replace).Methods(http.MethodPut)
	u.HandleFunc("/{id}", d.Users.Patch).Methods(http.MethodPatch)
	u.HandleFunc("/{id}", d.Users.Delete).Methods(http.MethodDelete)

	// docs share the CRUD gate
	r.Handle("/api-docs", d.Gate.Wrap(http.HandlerFunc(d.Docs.UI))).Methods(http.MethodGet)
	r.Handle("/api-docs.json", d.Gate.Wrap(http.HandlerFunc(d.Docs.JSON))).Methods(http.MethodGet)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)

	handler := RequestIDMiddleware()(LoggingMiddleware(d.Logger)(SecurityHeadersMiddleware()(r)))
	return cors(handler)
}
