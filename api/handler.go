package api

import (
	"net/http"
	"strconv"

	"easyform/models"
	"easyform/services"
	"easyform/utils"

	"github.com/gin-gonic/gin"
)

// APIHandler holds all dependencies for API handlers.
type APIHandler struct {
	formService  services.FormService
	draftService services.DraftService
}

// NewAPIHandler creates a new APIHandler with necessary dependencies.
func NewAPIHandler(formService services.FormService, draftService services.DraftService) *APIHandler {
	return &APIHandler{
		formService:  formService,
		draftService: draftService,
	}
}

// requestMetadata collects transport-level context for the submission record.
func requestMetadata(c *gin.Context) *models.RequestMetadata {
	return &models.RequestMetadata{
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
		Referer:   c.GetHeader("Referer"),
		Origin:    c.GetHeader("Origin"),
	}
}

// SubmitFormHandler handles POST /api/forms/submit.
func (h *APIHandler) SubmitFormHandler(c *gin.Context) {
	var req models.FormSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}

	result, err := h.formService.SubmitForm(&req, requestMetadata(c))
	if err != nil {
		if httpErr, ok := utils.AsHTTPError(err); ok {
			utils.SendJSONError(c, httpErr.Status, httpErr.Message, nil)
			return
		}
		utils.SendJSONError(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.", err)
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	c.JSON(status, result)
}

// ListSubmissionsHandler handles GET /api/forms/submissions.
func (h *APIHandler) ListSubmissionsHandler(c *gin.Context) {
	limit := 10
	offset := 0

	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			utils.SendJSONError(c, http.StatusBadRequest, "Limit must be between 1 and 100", err)
			return
		}
		limit = parsed
	}
	if raw := c.Query("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			utils.SendJSONError(c, http.StatusBadRequest, "Offset must be non-negative", err)
			return
		}
		offset = parsed
	}

	submissions, total, err := h.formService.GetFormSubmissions(c.Query("formId"), c.Query("userEmail"), limit, offset)
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to fetch form submissions", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submissions": submissions,
		"total":       total,
	})
}

// GetSubmissionHandler handles GET /api/forms/submissions/:id.
func (h *APIHandler) GetSubmissionHandler(c *gin.Context) {
	submission, err := h.formService.GetFormSubmissionByID(c.Param("id"))
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to fetch form submission", err)
		return
	}
	if submission == nil {
		utils.SendJSONError(c, http.StatusNotFound, "Form submission not found", nil)
		return
	}
	c.JSON(http.StatusOK, submission)
}

// FormStatisticsHandler handles GET /api/forms/statistics.
func (h *APIHandler) FormStatisticsHandler(c *gin.Context) {
	stats, err := h.formService.GetFormStatistics(c.Query("formId"))
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to fetch form statistics", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// SaveDraftHandler handles POST /api/drafts/save.
func (h *APIHandler) SaveDraftHandler(c *gin.Context) {
	var req models.SaveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}

	result, err := h.draftService.SaveDraft(&req, requestMetadata(c))
	if err != nil {
		if httpErr, ok := utils.AsHTTPError(err); ok {
			utils.SendJSONError(c, httpErr.Status, httpErr.Message, nil)
			return
		}
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to save draft", err)
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	c.JSON(status, result)
}

// GetDraftHandler handles GET /api/drafts/:sessionId.
func (h *APIHandler) GetDraftHandler(c *gin.Context) {
	draft, err := h.draftService.GetDraft(c.Param("sessionId"))
	if err != nil {
		if httpErr, ok := utils.AsHTTPError(err); ok {
			utils.SendJSONError(c, httpErr.Status, httpErr.Message, nil)
			return
		}
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to fetch draft", err)
		return
	}

	if draft == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "No draft found for this session",
			"draft":   nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Draft retrieved successfully",
		"draft":   draft,
	})
}

// DeleteDraftHandler handles DELETE /api/drafts/:sessionId.
func (h *APIHandler) DeleteDraftHandler(c *gin.Context) {
	if err := h.draftService.DeleteDraft(c.Param("sessionId")); err != nil {
		if httpErr, ok := utils.AsHTTPError(err); ok {
			utils.SendJSONError(c, httpErr.Status, httpErr.Message, nil)
			return
		}
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to delete draft", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Draft deleted successfully",
	})
}

// DraftStatisticsHandler handles GET /api/drafts.
func (h *APIHandler) DraftStatisticsHandler(c *gin.Context) {
	stats, err := h.draftService.GetDraftStatistics(c.Query("formId"))
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to get draft statistics", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CleanupDraftsHandler handles GET /api/drafts/admin/cleanup. The sweep
// never errors; failures come back as a zero count.
func (h *APIHandler) CleanupDraftsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.draftService.CleanupExpiredDrafts())
}

// HealthHandler handles GET /health.
func (h *APIHandler) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
