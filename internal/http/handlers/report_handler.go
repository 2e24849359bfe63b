package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/agroflow/agroflow-backend/internal/dto"
	"github.com/agroflow/agroflow-backend/internal/http/handlers/common"
	"github.com/agroflow/agroflow-backend/internal/service"
	"github.com/agroflow/agroflow-backend/internal/storage"
)

// Allowed evidence file types. Images plus PDF scans.
var allowedEvidenceMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
}

var allowedEvidenceExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".pdf":  true,
}

// ReportHandler serves the misconduct report endpoints.
type ReportHandler struct {
	reports *service.ReportService
	storage *storage.EvidenceStorage
}

// NewReportHandler creates the handler.
func NewReportHandler(reports *service.ReportService, storage *storage.EvidenceStorage) *ReportHandler {
	return &ReportHandler{reports: reports, storage: storage}
}

// CreateReport handles POST /reports.
func (h *ReportHandler) CreateReport(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	reportedID, err := uuid.Parse(req.ReportedAdminID)
	if err != nil {
		common.RespondBadRequest(c, "invalid reported_admin_id")
		return
	}

	report, err := h.reports.CreateReport(c.Request.Context(), userID, service.CreateReportInput{
		ReportedAdminID: reportedID,
		ReportType:      req.ReportType,
		Title:           req.Title,
		Description:     req.Description,
		Evidence:        req.Evidence,
		Priority:        req.Priority,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, report)
}

// UploadEvidence handles POST /reports/evidence. Accepts a multipart file,
// verifies the real type by magic bytes and stores it on disk. The returned
// path is meant to be passed as the evidence field when filing a report.
func (h *ReportHandler) UploadEvidence(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		common.RespondBadRequest(c, "field file is required")
		return
	}
	if file.Size == 0 {
		common.RespondBadRequest(c, "file cannot be empty")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedEvidenceExtensions[ext] {
		common.RespondBadRequest(c, "unsupported file extension")
		return
	}

	src, err := file.Open()
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	defer src.Close()

	// Sniff the first 512 bytes so a renamed executable cannot pass as a scan.
	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		common.RespondBadRequest(c, "could not read file")
		return
	}

	kind, err := filetype.Match(buffer[:n])
	if err != nil || kind == filetype.Unknown {
		common.RespondBadRequest(c, "could not determine file type")
		return
	}

	contentType := kind.MIME.Value
	if !allowedEvidenceMimeTypes[contentType] {
		common.RespondBadRequest(c, fmt.Sprintf("unsupported file type (%s)", contentType))
		return
	}

	expectedExt := "." + kind.Extension
	if ext != expectedExt && !(ext == ".jpg" && expectedExt == ".jpeg") && !(ext == ".jpeg" && expectedExt == ".jpg") {
		common.RespondBadRequest(c, fmt.Sprintf("file extension (%s) does not match the real type (%s)", ext, expectedExt))
		return
	}

	if seeker, ok := src.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			common.RespondError(c, http.StatusInternalServerError, "could not rewind file")
			return
		}
	}

	relativePath, size, err := h.storage.Save(c.Request.Context(), userID, file.Filename, src)
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusCreated, dto.EvidenceUploadResponse{
		Path: filepath.ToSlash(relativePath),
		Size: size,
	})
}

// ListReports handles GET /reports. Federal administrators see every report,
// optionally filtered by ?status=; everyone else sees only their own filings.
func (h *ReportHandler) ListReports(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	if c.Query("all") == "true" {
		reports, err := h.reports.ListAllReports(c.Request.Context(), userID, c.Query("status"), limit, offset)
		if err != nil {
			common.RespondAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"reports": reports})
		return
	}

	reports, err := h.reports.ListMyReports(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// GetReport handles GET /reports/:id.
func (h *ReportHandler) GetReport(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	reportID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	report, err := h.reports.GetReport(c.Request.Context(), userID, reportID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// UpdateReportStatus handles PATCH /reports/:id/status.
func (h *ReportHandler) UpdateReportStatus(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	reportID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdateReportStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	report, err := h.reports.UpdateReportStatus(c.Request.Context(), userID, reportID, req.Status, req.ResolutionNotes)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
