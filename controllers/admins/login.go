package admins

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Digitallaureate/kabirFirstBackend/middleware"
	"github.com/Digitallaureate/kabirFirstBackend/models"
	"github.com/Digitallaureate/kabirFirstBackend/utils"

	"go.uber.org/zap"
)

// replaced in tests
var (
	findAdmin  = models.GetAdminByUsername
	touchLogin = models.TouchLastLogin
)

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

// POST /v3/admin/login
func Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	if locked, remaining := middleware.IsAccountLocked(req.Username); locked {
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(remaining.Seconds())+1))
		utils.WriteJSON(w, http.StatusTooManyRequests, utils.APIResponse{
			Success: false,
			Message: "Account temporarily locked, try again later",
		})
		return
	}

	admin, err := findAdmin(strings.TrimSpace(req.Username))
	if err != nil || !admin.ValidatePassword(req.Password) {
		middleware.RecordFailedLogin(req.Username)
		utils.Logger().Warn("admin login failed", zap.String("username", req.Username))
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{
			Success: false,
			Message: "Invalid username or password",
		})
		return
	}
	middleware.ResetFailedLogin(req.Username)

	token, err := utils.GenerateJWT(admin.ID, admin.Username, "admin")
	if err != nil {
		utils.Logger().Error("token generation failed", zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to create token",
		})
		return
	}
	if err := touchLogin(admin.ID); err != nil {
		utils.Logger().Warn("recording last login failed", zap.Int64("admin_id", admin.ID), zap.Error(err))
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Logged in",
		Data: map[string]interface{}{
			"token": token,
			"admin": admin,
		},
	})
}

// POST /v3/admin/logout
func Logout(w http.ResponseWriter, r *http.Request) {
	tokenString := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	_, claims, err := utils.ValidateAccessToken(tokenString)
	if err != nil {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized: Invalid token"})
		return
	}
	jti, _ := claims["jti"].(string)
	if err := utils.RevokeJTI(jti, utils.TokenRemaining(claims)); err != nil {
		utils.Logger().Error("token revocation failed", zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to log out"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Logged out"})
}
