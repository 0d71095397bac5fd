package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/matchpoint-backend/internal/apperr"
	"github.com/yungbote/matchpoint-backend/internal/logger"
	"github.com/yungbote/matchpoint-backend/internal/requestdata"
	"github.com/yungbote/matchpoint-backend/internal/services"
	"github.com/yungbote/matchpoint-backend/internal/types"
)

type ProfileDataHandler struct {
	log     *logger.Logger
	dataSvc services.ProfileDataService
}

func NewProfileDataHandler(log *logger.Logger, dataSvc services.ProfileDataService) *ProfileDataHandler {
	return &ProfileDataHandler{
		log:     log.With("handler", "ProfileDataHandler"),
		dataSvc: dataSvc,
	}
}

// currentUser rebuilds the caller from the token claims. Identity only; no
// database round trip.
func currentUser(c *gin.Context) *types.User {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		return nil
	}
	return &types.User{ID: rd.UserID, UID: rd.UID, Role: rd.Role}
}

// GET /api/match/data?section=
func (h *ProfileDataHandler) GetData(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	sections, err := h.dataSvc.Get(c.Request.Context(), user, c.Query("section"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "Data retrieved", "data": sections})
}

type dataWriteRequest struct {
	Section string         `json:"section" binding:"required"`
	Data    map[string]any `json:"data"`
}

// POST /api/match/data-write
func (h *ProfileDataHandler) WriteData(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	var req dataWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "section is required"})
		return
	}
	doc, err := h.dataSvc.Write(c.Request.Context(), user, req.Section, req.Data)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, gin.H{"message": "Data written", "data": doc})
}

// POST /api/match/setup
func (h *ProfileDataHandler) Setup(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	sections, err := h.dataSvc.Setup(c.Request.Context(), user)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, gin.H{"message": "Profile setup created", "data": sections})
}

type fieldRequest struct {
	Index string `json:"index" binding:"required"`
	Data  any    `json:"data"`
}

// POST /api/match/add
func (h *ProfileDataHandler) AddField(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	var req fieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index is required"})
		return
	}
	doc, err := h.dataSvc.UpsertField(c.Request.Context(), user, req.Index, req.Data)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "Field added", "data": doc})
}

type removeFieldRequest struct {
	Index string `json:"index" binding:"required"`
}

// DELETE /api/match/add
func (h *ProfileDataHandler) RemoveField(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	var req removeFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index is required"})
		return
	}
	removed, remainder, err := h.dataSvc.RemoveField(c.Request.Context(), user, req.Index)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "Field removed", "removed": removed, "data": remainder})
}

// GET /api/match/all-data
func (h *ProfileDataHandler) ListAll(c *gin.Context) {
	entries, err := h.dataSvc.ListAll(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "All profiles retrieved", "data": entries, "count": len(entries)})
}

type quizBlobRequest struct {
	Responses any `json:"responses"`
}

// POST /api/match/save
func (h *ProfileDataHandler) SaveQuiz(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	var req quizBlobRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Responses == nil {
		RespondError(c, apperr.New(apperr.CodeValidation, "ProfileDataHandler.SaveQuiz", "responses are required"))
		return
	}
	doc, err := h.dataSvc.SaveQuizBlob(c.Request.Context(), user, req.Responses)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "Quiz responses saved", "data": doc})
}
