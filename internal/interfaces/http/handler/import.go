package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poinmhs/backend/internal/application/access"
	importapp "github.com/poinmhs/backend/internal/application/import"
	"github.com/poinmhs/backend/internal/domain/shared"
	csvimport "github.com/poinmhs/backend/internal/infrastructure/import"
	"github.com/poinmhs/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

const (
	importFileField = "file"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type sheetImporter interface {
	Import(ctx context.Context, p *access.Principal, sheet *csvimport.Sheet) (*importapp.ImportResult, error)
}

type tableExporter func(ctx context.Context, p *access.Principal) (*importapp.Table, error)

// ImportSettings bounds uploaded spreadsheets
type ImportSettings struct {
	MaxFileSize int64
	MaxRows     int
	// Timeout cancels a run that takes too long; zero means no limit
	Timeout time.Duration
}

// ImportHandler handles spreadsheet import and export
type ImportHandler struct {
	BaseHandler
	claims        sheetImporter
	students      sheetImporter
	activityTypes sheetImporter
	exports       *importapp.ExportService
	settings      ImportSettings
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(
	claims *importapp.ClaimImportService,
	students *importapp.StudentImportService,
	activityTypes *importapp.ActivityTypeImportService,
	exports *importapp.ExportService,
	settings ImportSettings,
) *ImportHandler {
	return &ImportHandler{
		claims:        claims,
		students:      students,
		activityTypes: activityTypes,
		exports:       exports,
		settings:      settings,
	}
}

// ImportClaims godoc
// @ID           importClaims
// @Summary      Import claims
// @Description  Bulk reconciliation from an .xlsx or .csv sheet. Each row keeps the status given in its Status column (revision when empty or unknown); approved rows are credited once. Duplicates are skipped.
// @Tags         import
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Spreadsheet"
// @Success      200 {object} APIResponse[importapp.ImportResult]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /claims/import [post]
func (h *ImportHandler) ImportClaims(c *gin.Context) {
	h.importSheet(c, importapp.EntityClaim, h.claims)
}

// ImportStudents godoc
// @ID           importStudents
// @Summary      Import students
// @Description  Creates students and their logins from an .xlsx or .csv sheet
// @Tags         import
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Spreadsheet"
// @Success      200 {object} APIResponse[importapp.ImportResult]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /students/import [post]
func (h *ImportHandler) ImportStudents(c *gin.Context) {
	h.importSheet(c, importapp.EntityStudent, h.students)
}

// ImportActivityTypes godoc
// @ID           importActivityTypes
// @Summary      Import activity types
// @Description  Loads master poin entries from an .xlsx or .csv sheet
// @Tags         import
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Spreadsheet"
// @Success      200 {object} APIResponse[importapp.ImportResult]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /activity-types/import [post]
func (h *ImportHandler) ImportActivityTypes(c *gin.Context) {
	h.importSheet(c, importapp.EntityActivityType, h.activityTypes)
}

// ExportClaims godoc
// @ID           exportClaims
// @Summary      Export claims
// @Tags         export
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200 {file} binary
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /claims/export [get]
func (h *ImportHandler) ExportClaims(c *gin.Context) {
	h.exportTable(c, h.exports.Claims)
}

// ExportStudents godoc
// @ID           exportStudents
// @Summary      Export students
// @Tags         export
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200 {file} binary
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /students/export [get]
func (h *ImportHandler) ExportStudents(c *gin.Context) {
	h.exportTable(c, h.exports.Students)
}

// ExportActivityTypes godoc
// @ID           exportActivityTypes
// @Summary      Export activity types
// @Tags         export
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200 {file} binary
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /activity-types/export [get]
func (h *ImportHandler) ExportActivityTypes(c *gin.Context) {
	h.exportTable(c, h.exports.ActivityTypes)
}

func (h *ImportHandler) importSheet(c *gin.Context, entity string, importer sheetImporter) {
	ctx := c.Request.Context()
	p := principal(c)
	// Checked before the upload is parsed
	if err := access.RequireAdmin(p); err != nil {
		h.HandleError(c, err)
		return
	}

	upload, err := readUpload(c, importFileField, h.settings.MaxFileSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if upload == nil {
		h.HandleError(c, shared.NewValidationError("%s file is required", importFileField))
		return
	}

	sheet, err := importapp.DecodeSheet(upload.Filename, upload.Data, h.settings.MaxRows)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if h.settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.settings.Timeout)
		defer cancel()
	}
	result, err := importer.Import(ctx, p, sheet)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	logger.L(ctx).Info("Import finished",
		zap.String("entity", entity),
		zap.String("filename", upload.Filename),
		zap.Int("total_rows", result.TotalRows),
		zap.Int("inserted", result.Inserted),
		zap.Int("failed", result.Failed))
	h.Success(c, result)
}

func (h *ImportHandler) exportTable(c *gin.Context, export tableExporter) {
	table, err := export(c.Request.Context(), principal(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	data, err := table.XLSX()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	attachment(c, table.Filename, xlsxContentType, data)
}
