package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/matchpoint-backend/internal/logger"
	"github.com/yungbote/matchpoint-backend/internal/services"
	"github.com/yungbote/matchpoint-backend/internal/types"
)

// ControlPanelHandler is the admin dashboard surface: aggregate metrics, the
// audit trails, the write gate toggles and export/import previews.
type ControlPanelHandler struct {
	log      *logger.Logger
	auditSvc services.AuditService
	gateSvc  services.GateService
	dataSvc  services.ProfileDataService
	quizSvc  services.ProfileQuizService
}

func NewControlPanelHandler(
	log *logger.Logger,
	auditSvc services.AuditService,
	gateSvc services.GateService,
	dataSvc services.ProfileDataService,
	quizSvc services.ProfileQuizService,
) *ControlPanelHandler {
	return &ControlPanelHandler{
		log:      log.With("handler", "ControlPanelHandler"),
		auditSvc: auditSvc,
		gateSvc:  gateSvc,
		dataSvc:  dataSvc,
		quizSvc:  quizSvc,
	}
}

// window reads the ?hours= and ?limit= query params with sane defaults.
func window(c *gin.Context) (time.Time, int) {
	hours, err := strconv.Atoi(c.DefaultQuery("hours", "24"))
	if err != nil || hours <= 0 {
		hours = 24
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil {
		limit = 100
	}
	return time.Now().UTC().Add(-time.Duration(hours) * time.Hour), limit
}

// GET /api/control-panel/metrics
func (h *ControlPanelHandler) Metrics(c *gin.Context) {
	snapshot, err := h.auditSvc.Metrics(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, snapshot)
}

// GET /api/control-panel/error-logs
func (h *ControlPanelHandler) ErrorLogs(c *gin.Context) {
	since, limit := window(c)
	logs, err := h.auditSvc.ListErrors(c.Request.Context(), since, limit)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"logs": logs, "count": len(logs)})
}

type postErrorRequest struct {
	ErrorType    string `json:"error_type"`
	Endpoint     string `json:"endpoint"`
	ErrorMessage string `json:"error_message" binding:"required"`
	StatusCode   int    `json:"status_code"`
}

// POST /api/control-panel/error-logs
// Clients report their own errors here.
func (h *ControlPanelHandler) PostErrorLog(c *gin.Context) {
	var req postErrorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "error_message is required"})
		return
	}
	entry := &types.ErrorLog{
		ErrorType:    req.ErrorType,
		Endpoint:     req.Endpoint,
		ErrorMessage: req.ErrorMessage,
		StatusCode:   req.StatusCode,
	}
	if user := currentUser(c); user != nil {
		id := user.ID
		entry.UserID = &id
	}
	h.auditSvc.LogError(c.Request.Context(), entry)
	RespondCreated(c, gin.H{"message": "Error logged"})
}

// GET /api/control-panel/fetch-logs
func (h *ControlPanelHandler) FetchLogs(c *gin.Context) {
	since, limit := window(c)
	errorsOnly := c.Query("errors_only") == "true"
	logs, err := h.auditSvc.ListFetches(c.Request.Context(), since, limit, errorsOnly)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"logs": logs, "count": len(logs)})
}

// GET /api/control-panel/change-logs
func (h *ControlPanelHandler) ChangeLogs(c *gin.Context) {
	since, limit := window(c)
	logs, err := h.auditSvc.ListChanges(c.Request.Context(), since, limit, c.Query("entity_type"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"logs": logs, "count": len(logs)})
}

// GET /api/control-panel/database-status
func (h *ControlPanelHandler) DatabaseStatus(c *gin.Context) {
	status, err := h.gateSvc.Status(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, status)
}

type pauseRequest struct {
	Reason string `json:"reason"`
}

// POST /api/control-panel/pause
func (h *ControlPanelHandler) Pause(c *gin.Context) {
	var req pauseRequest
	_ = c.ShouldBindJSON(&req)
	status, err := h.gateSvc.PauseGlobal(c.Request.Context(), req.Reason)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "Writes paused", "status": status})
}

// POST /api/control-panel/resume
func (h *ControlPanelHandler) Resume(c *gin.Context) {
	status, err := h.gateSvc.ResumeGlobal(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "Writes resumed", "status": status})
}

// POST /api/control-panel/pause-matchmakers
func (h *ControlPanelHandler) PauseMatchmakers(c *gin.Context) {
	var req pauseRequest
	_ = c.ShouldBindJSON(&req)
	status, err := h.gateSvc.PauseMatchmakers(c.Request.Context(), req.Reason)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "Matchmakers writes paused", "status": status})
}

// POST /api/control-panel/resume-matchmakers
func (h *ControlPanelHandler) ResumeMatchmakers(c *gin.Context) {
	status, err := h.gateSvc.ResumeMatchmakers(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "Matchmakers writes resumed", "status": status})
}

// GET /api/control-panel/export
// Read-only preview of everything the store holds.
func (h *ControlPanelHandler) Export(c *gin.Context) {
	profiles, err := h.dataSvc.ListAll(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	quizzes, err := h.quizSvc.GetAll(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"exported_at": time.Now().UTC(),
		"profiles":    profiles,
		"quizzes":     quizzes,
	})
}

type importRequest struct {
	Profiles []struct {
		UID      string                    `json:"uid"`
		Sections map[string]map[string]any `json:"sections"`
	} `json:"profiles"`
}

// POST /api/control-panel/import
// Validation only; nothing is persisted. Reports what an import would touch.
func (h *ControlPanelHandler) Import(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a profiles array"})
		return
	}
	invalid := []string{}
	sectionCount := 0
	for _, profile := range req.Profiles {
		if profile.UID == "" {
			invalid = append(invalid, "profile with empty uid")
			continue
		}
		for section := range profile.Sections {
			if !types.ValidSection(section) {
				invalid = append(invalid, profile.UID+": unknown section "+section)
				continue
			}
			sectionCount++
		}
	}
	RespondOK(c, gin.H{
		"valid":          len(invalid) == 0,
		"profile_count":  len(req.Profiles),
		"section_count":  sectionCount,
		"invalid_values": invalid,
	})
}

// GET /api/control-panel/summary
func (h *ControlPanelHandler) Summary(c *gin.Context) {
	snapshot, err := h.auditSvc.Metrics(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	status, err := h.gateSvc.Status(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"metrics":     snapshot,
		"gate_status": status,
	})
}
