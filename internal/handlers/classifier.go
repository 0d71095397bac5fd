package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/matchpoint-backend/internal/logger"
	"github.com/yungbote/matchpoint-backend/internal/services"
)

type ClassifierHandler struct {
	log           *logger.Logger
	classifierSvc services.ClassifierService
}

func NewClassifierHandler(log *logger.Logger, classifierSvc services.ClassifierService) *ClassifierHandler {
	return &ClassifierHandler{
		log:           log.With("handler", "ClassifierHandler"),
		classifierSvc: classifierSvc,
	}
}

type analyzePersonalityRequest struct {
	Responses []services.QuizAnswer `json:"responses"`
}

// POST /api/analyze-personality
func (h *ClassifierHandler) AnalyzePersonality(c *gin.Context) {
	var req analyzePersonalityRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Responses) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No responses provided"})
		return
	}
	result := h.classifierSvc.ClassifyPersonality(c.Request.Context(), req.Responses)
	RespondOK(c, result)
}

type bioRequest struct {
	BioText string `json:"bio_text"`
	Section string `json:"section"`
}

// POST /api/analyze-bio-safety
func (h *ClassifierHandler) AnalyzeBioSafety(c *gin.Context) {
	var req bioRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.BioText == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No bio text provided"})
		return
	}
	section := req.Section
	if section == "" {
		section = "bio"
	}
	report, fallback := h.classifierSvc.AnalyzeBioSafety(c.Request.Context(), req.BioText)
	RespondOK(c, gin.H{
		"success":  true,
		"analysis": report,
		"section":  section,
		"fallback": fallback,
	})
}

// POST /api/enhance-bio
func (h *ClassifierHandler) EnhanceBio(c *gin.Context) {
	var req bioRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.BioText == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No bio text provided"})
		return
	}
	enhancement, fallback := h.classifierSvc.EnhanceBio(c.Request.Context(), req.BioText)
	RespondOK(c, gin.H{
		"success":     true,
		"enhancement": enhancement,
		"fallback":    fallback,
	})
}
