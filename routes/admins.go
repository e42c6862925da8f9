package routes

import (
	"net/http"
	"time"

	"github.com/Digitallaureate/kabirFirstBackend/controllers/admins"
	"github.com/Digitallaureate/kabirFirstBackend/middleware"

	"github.com/gorilla/mux"
)

func SetAdminRoutes(api *mux.Router, h *admins.Handler) {
	// Rate limiter for admin login: 5 attempts per IP per minute
	adminLoginLimiter := middleware.NewIPRateLimiter(5, time.Minute)

	// Public admin routes
	api.Handle("/admin/login", adminLoginLimiter.Middleware(http.HandlerFunc(admins.Login))).Methods(http.MethodPost)

	// Protected admin routes
	adminRouter := api.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.AdminAuthMiddleware)
	adminRouter.Use(middleware.NewAdminRateLimiter(
		getEnvInt("RATE_ADMIN_READ", 600),
		getEnvInt("RATE_ADMIN_WRITE", 120),
		60,
	).Middleware)

	adminRouter.Handle("/logout", http.HandlerFunc(admins.Logout)).Methods(http.MethodPost)

	// Magic word requests
	adminRouter.Handle("/magic-words", http.HandlerFunc(h.ListMagicWordRequests)).Methods(http.MethodGet)
	adminRouter.Handle("/magic-words/user/{userId}", http.HandlerFunc(h.ListUserRequests)).Methods(http.MethodGet)
	adminRouter.Handle("/magic-words/user/{userId}/orders", http.HandlerFunc(h.ListUserOrders)).Methods(http.MethodGet)
	adminRouter.Handle("/magic-words/user/{userId}/payments", http.HandlerFunc(h.ListUserPayments)).Methods(http.MethodGet)
	adminRouter.Handle("/magic-words/{id}", http.HandlerFunc(h.GetMagicWordRequest)).Methods(http.MethodGet)
	adminRouter.Handle("/magic-words/{id}/status", http.HandlerFunc(h.UpdateMagicWordStatus)).Methods(http.MethodPut)
	adminRouter.Handle("/magic-words/{id}/send-message", http.HandlerFunc(h.SendMessage)).Methods(http.MethodPost)

	// Chats
	adminRouter.Handle("/chats/{chatId}/toggle-interaction", http.HandlerFunc(h.ToggleInteraction)).Methods(http.MethodPut)

	// Catalog
	adminRouter.Handle("/monuments", http.HandlerFunc(h.ListMonuments)).Methods(http.MethodGet)
	adminRouter.Handle("/monuments/{id}/services", http.HandlerFunc(h.ListMonumentServices)).Methods(http.MethodGet)
	adminRouter.Handle("/service-languages", http.HandlerFunc(h.ListLanguages)).Methods(http.MethodGet)

	// Uploads
	adminRouter.Handle("/uploads/image", http.HandlerFunc(h.UploadImage)).Methods(http.MethodPost)
}
