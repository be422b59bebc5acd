package handler

import (
	"net/http"

	"fileflow/internal/services"
	"fileflow/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DownloadHandler struct {
	service *services.DownloadService
}

func NewDownloadHandler(service *services.DownloadService) *DownloadHandler {
	return &DownloadHandler{service: service}
}

func (h *DownloadHandler) Request(c *gin.Context) {
	var req httpdto.RequestDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid tenant_id", "INVALID_REQUEST"))
		return
	}
	d, err := h.service.RequestDownload(c.Request.Context(), services.RequestDownloadInput{
		TenantID:   tenantID,
		SourceURL:  req.SourceURL,
		FileName:   req.FileName,
		WebhookURL: req.WebhookURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, httpdto.NewSuccessResponse(httpdto.NewDownloadDTO(d)))
}

func (h *DownloadHandler) GetByID(c *gin.Context) {
	downloadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid download id", "INVALID_REQUEST"))
		return
	}
	d, err := h.service.GetByID(c.Request.Context(), downloadID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewDownloadDTO(d)))
}
