package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/matchpoint-backend/internal/logger"
	"github.com/yungbote/matchpoint-backend/internal/services"
)

type AuthHandler struct {
	log     *logger.Logger
	authSvc services.AuthService
}

func NewAuthHandler(log *logger.Logger, authSvc services.AuthService) *AuthHandler {
	return &AuthHandler{
		log:     log.With("handler", "AuthHandler"),
		authSvc: authSvc,
	}
}

type registerRequest struct {
	UID      string `json:"uid" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uid, email and password are required"})
		return
	}
	user, err := h.authSvc.Register(c.Request.Context(), req.UID, req.Email, req.Password)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, gin.H{"message": "User registered", "user": user})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}
	token, user, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"token": token, "user": user})
}
