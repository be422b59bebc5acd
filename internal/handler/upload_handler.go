package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"fileflow/internal/domain/session"
	"fileflow/internal/services"
	"fileflow/internal/transport/httpdto"
	fileflow_errors "fileflow/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UploadHandler struct {
	sessions  *services.SessionService
	multipart *services.MultipartService
}

func NewUploadHandler(sessions *services.SessionService, multipart *services.MultipartService) *UploadHandler {
	return &UploadHandler{sessions: sessions, multipart: multipart}
}

func (h *UploadHandler) InitSingle(c *gin.Context) {
	var req httpdto.InitSingleUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid tenant_id", "INVALID_REQUEST"))
		return
	}
	result, err := h.sessions.InitSingle(c.Request.Context(), services.InitSingleInput{
		TenantID:       tenantID,
		IdempotencyKey: req.IdempotencyKey,
		FileName:       req.FileName,
		FileSize:       req.FileSize,
		ContentType:    req.ContentType,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	dto := httpdto.NewSessionDTO(result.Session)
	dto.UploadHeaders = result.Headers
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(dto))
}

func (h *UploadHandler) InitMultipart(c *gin.Context) {
	var req httpdto.InitMultipartUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid tenant_id", "INVALID_REQUEST"))
		return
	}
	sess, err := h.multipart.InitMultipart(c.Request.Context(), services.InitMultipartInput{
		TenantID:    tenantID,
		FileName:    req.FileName,
		FileSize:    req.FileSize,
		ContentType: req.ContentType,
		PartSize:    req.PartSize,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.NewSessionDTO(sess)))
}

func (h *UploadHandler) CompleteSingle(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid session id", "INVALID_REQUEST"))
		return
	}
	var req httpdto.CompleteSingleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	sess, err := h.sessions.CompleteSingle(c.Request.Context(), sessionID, req.ETag)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewSessionDTO(sess)))
}

func (h *UploadHandler) ReportPart(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid session id", "INVALID_REQUEST"))
		return
	}
	partNumber, err := strconv.Atoi(c.Param("number"))
	if err != nil || partNumber < 1 {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid part number", "INVALID_REQUEST"))
		return
	}
	var req httpdto.ReportPartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	if err := h.multipart.MarkPartUploaded(c.Request.Context(), sessionID, partNumber, req.ETag, req.Size); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *UploadHandler) CompleteMultipart(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid session id", "INVALID_REQUEST"))
		return
	}
	sess, err := h.multipart.CompleteMultipart(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewSessionDTO(sess)))
}

func (h *UploadHandler) Fail(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid session id", "INVALID_REQUEST"))
		return
	}
	var req httpdto.FailSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	sess, err := h.sessions.Fail(c.Request.Context(), sessionID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewSessionDTO(sess)))
}

func (h *UploadHandler) Cancel(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid session id", "INVALID_REQUEST"))
		return
	}
	sess, err := h.sessions.Cancel(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewSessionDTO(sess)))
}

func (h *UploadHandler) GetByID(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid session id", "INVALID_REQUEST"))
		return
	}
	sess, err := h.sessions.GetByID(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewSessionDTO(sess)))
}

func (h *UploadHandler) ListByTenant(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Query("tenant_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid tenant_id", "INVALID_REQUEST"))
		return
	}
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	status := session.Status(c.Query("status"))

	items, total, err := h.sessions.ListByTenant(c.Request.Context(), tenantID, status, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := httpdto.ListSessionsResponse{Total: total, Sessions: make([]httpdto.SessionDTO, 0, len(items))}
	for _, s := range items {
		resp.Sessions = append(resp.Sessions, httpdto.NewSessionDTO(s))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(resp))
}

func (h *UploadHandler) DeleteStale(c *gin.Context) {
	olderThanSec, _ := strconv.Atoi(c.Query("older_than_sec"))
	count, err := h.sessions.DeleteStale(c.Request.Context(), time.Duration(olderThanSec)*time.Second)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"deleted": count}))
}

// respondError maps domain sentinel errors onto HTTP statuses and stable
// error codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, fileflow_errors.ErrNotFound):
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse(err.Error(), "NOT_FOUND"))
	case errors.Is(err, fileflow_errors.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_REQUEST"))
	case errors.Is(err, fileflow_errors.ErrInvalidTransition):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse(err.Error(), "INVALID_TRANSITION"))
	case errors.Is(err, fileflow_errors.ErrETagMismatch):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse(err.Error(), "ETAG_MISMATCH"))
	case errors.Is(err, fileflow_errors.ErrIncompleteUpload):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse(err.Error(), "INCOMPLETE_UPLOAD"))
	case errors.Is(err, fileflow_errors.ErrAlreadyExists):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse(err.Error(), "ALREADY_EXISTS"))
	default:
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("internal error", "INTERNAL"))
	}
}
