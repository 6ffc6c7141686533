package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/xelth-com/fieldopsgo/internal/models"
	"github.com/xelth-com/fieldopsgo/internal/utils"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// login handles user login against the locally synced account table, so a
// device that has synced once can authenticate offline.
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var loginReq LoginRequest
	if err := json.NewDecoder(req.Body).Decode(&loginReq); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	// 1. Find User
	var user models.UserAccount
	if err := r.db.DB.Where("username = ? AND is_active = 1", loginReq.Username).First(&user).Error; err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// 2. Check Password
	if !utils.CheckPasswordHash(loginReq.Password, user.PasswordHash) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// 3. Generate Tokens
	accessToken, refreshToken, err := utils.GenerateTokens(&user, r.cfg)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}

	// 4. Point the sync engine at this user's scope
	r.syncSvc.Engine().SetIdentity(models.UserTypeCode(user.Role), user.ServerID)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tokens": map[string]string{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
		},
		"user": map[string]interface{}{
			"id":       user.ServerID,
			"name":     user.Name,
			"username": user.Username,
			"role":     user.Role,
		},
	})
}
