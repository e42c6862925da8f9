package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Digitallaureate/kabirFirstBackend/models"
	"github.com/Digitallaureate/kabirFirstBackend/utils"

	"go.uber.org/zap"
)

// lookupAdmin is replaced in tests.
var lookupAdmin = models.GetAdminByID

// AdminAuthMiddleware verifies that the request is from an authenticated admin
// and stores the admin id in the request context.
func AdminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{
				Success: false,
				Message: "Unauthorized: No token provided",
			})
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		// checks aud/iss/exp/nbf and revocation
		_, claims, err := utils.ValidateAccessToken(tokenString)
		if err != nil {
			utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{
				Success: false,
				Message: "Unauthorized: Invalid token",
			})
			return
		}

		role, ok := claims["role"].(string)
		if !ok || role != "admin" {
			utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{
				Success: false,
				Message: "Forbidden: Admin access required",
			})
			return
		}

		adminID := utils.ClaimInt64(claims, "id")
		admin, err := lookupAdmin(adminID)
		if err != nil {
			utils.Logger().Debug("admin lookup failed", zap.Int64("admin_id", adminID), zap.Error(err))
			utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{
				Success: false,
				Message: "Unauthorized: Admin not found",
			})
			return
		}
		if !admin.IsActive {
			utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{
				Success: false,
				Message: "Forbidden",
			})
			return
		}

		ctx := context.WithValue(r.Context(), utils.AdminIDKey, adminID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
