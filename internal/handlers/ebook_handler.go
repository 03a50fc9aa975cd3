package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maestriajurisp/leads-api/internal/services"
)

type EbookHandler struct {
	service services.EbookServiceInterface
}

func NewEbookHandler(service services.EbookServiceInterface) *EbookHandler {
	return &EbookHandler{service: service}
}

// GetPreview returns what the landing page needs to render the first pages
func (h *EbookHandler) GetPreview(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=3600")
	c.JSON(http.StatusOK, h.service.Preview())
}

// Download redirects a holder of a valid download token to the e-book
func (h *EbookHandler) Download(c *gin.Context) {
	target, err := h.service.ResolveDownload(c.Request.Context(), c.Query("token"))
	if err != nil {
		status := statusForError(err)
		message := "Failed to resolve download"
		switch status {
		case http.StatusUnauthorized:
			message = "Invalid or expired download link"
		case http.StatusNotFound:
			message = "Download not found"
		}
		respondError(c, status, message, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Redirect(http.StatusFound, target)
}
