package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/matchpoint-backend/internal/logger"
	"github.com/yungbote/matchpoint-backend/internal/pii"
	"github.com/yungbote/matchpoint-backend/internal/services"
)

type ProfileQuizHandler struct {
	log     *logger.Logger
	quizSvc services.ProfileQuizService
}

func NewProfileQuizHandler(log *logger.Logger, quizSvc services.ProfileQuizService) *ProfileQuizHandler {
	return &ProfileQuizHandler{
		log:     log.With("handler", "ProfileQuizHandler"),
		quizSvc: quizSvc,
	}
}

type quizSaveRequest struct {
	Responses []pii.Response `json:"responses" binding:"required"`
}

// POST /api/pii/profile
func (h *ProfileQuizHandler) Save(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	var req quizSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "responses are required"})
		return
	}
	quiz, created, err := h.quizSvc.Save(c.Request.Context(), user, req.Responses)
	if err != nil {
		RespondError(c, err)
		return
	}
	if created {
		RespondCreated(c, gin.H{"message": "Profile saved", "id": quiz.ID})
		return
	}
	RespondOK(c, gin.H{"message": "Profile updated", "id": quiz.ID})
}

// GET /api/pii/profile
func (h *ProfileQuizHandler) Get(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	responses, err := h.quizSvc.Get(c.Request.Context(), user)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"uid": user.UID, "responses": responses})
}

// DELETE /api/pii/profile
func (h *ProfileQuizHandler) Delete(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	if err := h.quizSvc.Delete(c.Request.Context(), user); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "Profile deleted"})
}

// GET /api/pii/all-profiles
// Public listing; every profile passes through the PII safety filter.
func (h *ProfileQuizHandler) ListAll(c *gin.Context) {
	profiles, err := h.quizSvc.GetAll(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"profiles": profiles, "count": len(profiles)})
}

// GET /api/pii/safe-profile
// The caller's own profile as others would see it.
func (h *ProfileQuizHandler) SafeProfile(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	responses, err := h.quizSvc.GetSafeProfile(c.Request.Context(), user)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"uid": user.UID, "responses": responses})
}
