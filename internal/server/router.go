package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const corsMaxAge = 24 * time.Hour

// RouterDependencies collects handler dependencies.
type RouterDependencies struct {
	Health           HealthService
	API              *APIHandlers
	Environment      string
	AllowedOrigins   []string
	AllowAllOrigins  bool
	AllowCredentials bool
	// Metrics, when set, instruments every matched route and serves /metrics.
	Metrics MetricsRecorder
	// AuthRateLimit caps register and login requests per client per second;
	// zero disables the limit.
	AuthRateLimit float64
	AuthRateBurst int
}

// MetricsRecorder instruments routes and exposes the collected metrics.
type MetricsRecorder interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

// NewRouter wires the HTTP routes exposed by the backend API.
func NewRouter(logger *slog.Logger, deps RouterDependencies) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
		r.Handle("/metrics", deps.Metrics.Handler()).Methods(http.MethodGet)
	}

	r.HandleFunc("/health", healthHandler(logger, deps.Health, deps.Environment)).Methods(http.MethodGet)

	if api := deps.API; api != nil {
		authRoutes := r.PathPrefix("/api/auth").Subrouter()
		authRoutes.HandleFunc("/me", api.me).Methods(http.MethodGet)

		credentials := authRoutes.NewRoute().Subrouter()
		if deps.AuthRateLimit > 0 {
			credentials.Use(newClientRateLimiter(deps.AuthRateLimit, deps.AuthRateBurst).middleware)
		}
		credentials.HandleFunc("/register", api.register).Methods(http.MethodPost)
		credentials.HandleFunc("/login", api.login).Methods(http.MethodPost)

		financial := r.PathPrefix("/api/financial").Subrouter()
		financial.Use(api.authGate)
		financial.HandleFunc("/profile", api.getProfile).Methods(http.MethodGet)
		financial.HandleFunc("/profile", api.updateProfile).Methods(http.MethodPut, http.MethodPost)
		financial.HandleFunc("/retirement", api.getRetirement).Methods(http.MethodGet)
		financial.HandleFunc("/retirement", api.updateRetirement).Methods(http.MethodPut, http.MethodPost)
		financial.HandleFunc("/retirement-advice", api.retirementAdvice).Methods(http.MethodGet)
		financial.HandleFunc("/retirement/projection", api.projection).Methods(http.MethodPost)
		financial.HandleFunc("/settings", api.getSettings).Methods(http.MethodGet)
		financial.HandleFunc("/settings", api.updateSettings).Methods(http.MethodPut, http.MethodPost)
	}

	handler := http.Handler(loggingMiddleware(logger, recoveryMiddleware(logger, r)))
	if deps.AllowAllOrigins || len(deps.AllowedOrigins) > 0 {
		origins := deps.AllowedOrigins
		if deps.AllowAllOrigins {
			origins = []string{"*"}
		}
		handler = corsMiddleware(origins, deps.AllowCredentials)(handler)
	}
	return handler
}

func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestID,
		)
	})
}

func recoveryMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic serving request",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				writeError(w, http.StatusInternalServerError, "Internal Server Error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func corsMiddleware(allowedOrigins []string, allowCredentials bool) func(http.Handler) http.Handler {
	normalized := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		normalized[origin] = struct{}{}
	}
	maxAge := strconv.Itoa(int(corsMaxAge.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !containsOrigin(normalized, origin) && !containsOrigin(normalized, "*") {
				if r.Method == http.MethodOptions {
					// Reject pre-flight from an origin that is not whitelisted.
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			// Echo the origin rather than "*" so credentialed requests work.
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			if allowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Max-Age", maxAge)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func containsOrigin(set map[string]struct{}, origin string) bool {
	_, ok := set[origin]
	return ok
}
