package routes

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Digitallaureate/kabirFirstBackend/controllers"
	"github.com/Digitallaureate/kabirFirstBackend/controllers/admins"
	"github.com/Digitallaureate/kabirFirstBackend/middleware"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps carries the handlers the router mounts.
type Deps struct {
	Admin        *admins.Handler
	Events       *controllers.EventsController
	EventsSecret string
}

func optionsHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"service":   "kabir-api",
	})
}

func InitRouter(d Deps) *mux.Router {
	r := mux.NewRouter()

	// Health check and metrics (root level)
	r.Handle("/health", http.HandlerFunc(healthHandler)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// CORS origins from CORS_ALLOWED_ORIGINS (comma-separated) on top of local defaults
	origins := []string{
		"http://localhost:3000", "http://localhost:8080", "http://127.0.0.1:3000", "http://127.0.0.1:8080",
	}
	if originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS"); originsEnv != "" {
		for _, p := range strings.Split(originsEnv, ",") {
			if o := strings.TrimSpace(p); o != "" {
				origins = append(origins, o)
			}
		}
	}
	r.Use(func(next http.Handler) http.Handler {
		return handlers.CORS(
			handlers.AllowedOrigins(origins),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Requested-With", "X-Request-ID"}),
			handlers.AllowCredentials(),
		)(next)
	})
	// Route-aware instrumentation runs after matching so labels use templates.
	r.Use(middleware.TracingMiddleware)
	r.Use(middleware.MetricsMiddleware)

	api := r.PathPrefix("/v3").Subrouter()

	// Catch-all OPTIONS handler for CORS preflight
	api.PathPrefix("/").HandlerFunc(optionsHandler).Methods(http.MethodOptions)

	api.Handle("/health", http.HandlerFunc(healthHandler)).Methods(http.MethodGet)

	if d.Events != nil {
		webhookLimiter := middleware.NewWebhookLimiter(
			getEnvInt("RATE_WEBHOOK_PER_HOUR", 5000), time.Hour,
			strings.Split(os.Getenv("WEBHOOK_WHITELIST"), ","),
		)
		api.Handle("/events/messages",
			webhookLimiter.Middleware(middleware.SharedSecretMiddleware(d.EventsSecret)(http.HandlerFunc(d.Events.HandleMessage))),
		).Methods(http.MethodPost)
	}

	if d.Admin != nil {
		SetAdminRoutes(api, d.Admin)
	}

	return r
}

func getEnvInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return def
}
