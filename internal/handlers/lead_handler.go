package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maestriajurisp/leads-api/internal/models"
	"github.com/maestriajurisp/leads-api/internal/services"
	"github.com/maestriajurisp/leads-api/internal/validation"
)

type submitFunc func(ctx context.Context, payload models.Payload, meta models.RequestMeta) *models.SubmissionResult

type LeadHandler struct {
	service services.LeadServiceInterface
}

func NewLeadHandler(service services.LeadServiceInterface) *LeadHandler {
	return &LeadHandler{service: service}
}

// SubmitEbook handles the e-book download form (JSON or form-encoded)
func (h *LeadHandler) SubmitEbook(c *gin.Context) {
	h.submit(c, h.service.SubmitEbookLead)
}

// SubmitContact handles the contact form (JSON or form-encoded)
func (h *LeadHandler) SubmitContact(c *gin.Context) {
	h.submit(c, h.service.SubmitContactLead)
}

func (h *LeadHandler) submit(c *gin.Context, submit submitFunc) {
	// Bind into a plain map; gin's form binding only accepts map[string]string
	var raw map[string]string
	if err := c.ShouldBind(&raw); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	meta := models.RequestMeta{
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}

	result := submit(c.Request.Context(), models.Payload(raw), meta)
	c.JSON(statusForResult(result), result)
}

func statusForResult(result *models.SubmissionResult) int {
	if result.Success {
		return http.StatusOK
	}
	if result.Kind == models.KindSideEffectFailed {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadRequest
}

// GetOptions serves the selector values and phone policies of both forms
func (h *LeadHandler) GetOptions(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=300")
	c.JSON(http.StatusOK, h.service.Options())
}

// ValidateField checks one field of a form for instant feedback
func (h *LeadHandler) ValidateField(c *gin.Context) {
	variant := models.FormVariant(c.Param("form"))
	if !variant.IsValid() {
		respondError(c, http.StatusNotFound, "Unknown form", nil)
		return
	}

	var req FieldValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	issue, err := h.service.Schema(variant).ValidateField(variant, req.Field, req.Value)
	if err != nil {
		if errors.Is(err, validation.ErrUnknownField) {
			respondError(c, http.StatusBadRequest, "Unknown field", err)
			return
		}
		respondError(c, http.StatusInternalServerError, "Internal server error", err)
		return
	}

	if issue == nil {
		c.JSON(http.StatusOK, FieldValidationResponse{Valid: true})
		return
	}
	c.JSON(http.StatusOK, FieldValidationResponse{Valid: false, Error: toValidationError(*issue)})
}
