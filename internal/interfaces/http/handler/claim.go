package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	claimapp "github.com/poinmhs/backend/internal/application/claim"
	"github.com/poinmhs/backend/internal/domain/claim"
	"github.com/poinmhs/backend/internal/domain/shared"
)

// Multipart field carrying the evidence document
const evidenceField = "bukti_kegiatan"

// ClaimForm is the multipart body of a claim submission or resubmission
type ClaimForm struct {
	StudentID          string `form:"mahasiswa_id" binding:"omitempty,uuid"`
	ActivityTypeID     string `form:"master_poin_id" binding:"omitempty,uuid"`
	PeriodePengajuan   string `form:"periode_pengajuan" binding:"max=50"`
	TanggalPengajuan   string `form:"tanggal_pengajuan"`
	RincianAcara       string `form:"rincian_acara" binding:"max=1000"`
	Tingkat            string `form:"tingkat" binding:"max=50"`
	Tempat             string `form:"tempat" binding:"max=200"`
	TanggalPelaksanaan string `form:"tanggal_pelaksanaan"`
	Mentor             string `form:"mentor" binding:"max=150"`
	Narasumber         string `form:"narasumber" binding:"max=150"`
}

func (f ClaimForm) details() (claimapp.ClaimDetailsInput, error) {
	submitted, err := parseDate("tanggal_pengajuan", f.TanggalPengajuan)
	if err != nil {
		return claimapp.ClaimDetailsInput{}, err
	}
	executed, err := parseDate("tanggal_pelaksanaan", f.TanggalPelaksanaan)
	if err != nil {
		return claimapp.ClaimDetailsInput{}, err
	}
	return claimapp.ClaimDetailsInput{
		PeriodePengajuan:   f.PeriodePengajuan,
		TanggalPengajuan:   submitted,
		RincianAcara:       f.RincianAcara,
		Tingkat:            f.Tingkat,
		Tempat:             f.Tempat,
		TanggalPelaksanaan: executed,
		Mentor:             f.Mentor,
		Narasumber:         f.Narasumber,
	}, nil
}

// parseDate reads a yyyy-mm-dd form value. Blank values stay zero and are
// rejected by the domain.
func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(claim.DateLayout, value)
	if err != nil {
		return time.Time{}, shared.NewValidationError("%s must be a date in YYYY-MM-DD format", field)
	}
	return t, nil
}

// ClaimListQuery holds the claim list query parameters
type ClaimListQuery struct {
	// Status accepts English tokens or Indonesian labels in any casing
	Status   string `form:"status"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ClaimHandler handles point claim endpoints
type ClaimHandler struct {
	BaseHandler
	claimService    *claimapp.ClaimService
	evidenceMaxSize int64
}

// NewClaimHandler creates a new ClaimHandler. evidenceMaxSize caps the
// multipart read of the evidence file.
func NewClaimHandler(claimService *claimapp.ClaimService, evidenceMaxSize int64) *ClaimHandler {
	return &ClaimHandler{
		claimService:    claimService,
		evidenceMaxSize: evidenceMaxSize,
	}
}

// List godoc
// @ID           listClaims
// @Summary      List claims
// @Description  Newest first. Students only see their own claims.
// @Tags         claims
// @Produce      json
// @Param        status query string false "Status filter, e.g. approved or Disetujui"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]claimapp.ClaimResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /claims [get]
func (h *ClaimHandler) List(c *gin.Context) {
	var q ClaimListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationFailed(c, err)
		return
	}

	claims, total, err := h.claimService.List(c.Request.Context(), principal(c), claimapp.ListClaimsFilter{
		Status:   q.Status,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, claims, total, q.Page, q.PageSize)
}

// Get godoc
// @ID           getClaim
// @Summary      Get a claim
// @Tags         claims
// @Produce      json
// @Param        id path string true "Claim ID" format(uuid)
// @Success      200 {object} APIResponse[claimapp.ClaimResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /claims/{id} [get]
func (h *ClaimHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.claimService.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Create godoc
// @ID           createClaim
// @Summary      Submit a claim
// @Description  Files a claim with its evidence document. Admins may file for a student by passing mahasiswa_id.
// @Tags         claims
// @Accept       multipart/form-data
// @Produce      json
// @Param        mahasiswa_id formData string false "Student ID, admins only" format(uuid)
// @Param        master_poin_id formData string true "Activity type ID" format(uuid)
// @Param        periode_pengajuan formData string true "Submission period"
// @Param        tanggal_pengajuan formData string true "Submission date" format(date)
// @Param        rincian_acara formData string true "Event description"
// @Param        tingkat formData string true "Level"
// @Param        tempat formData string true "Venue"
// @Param        tanggal_pelaksanaan formData string true "Event date" format(date)
// @Param        mentor formData string false "Mentor"
// @Param        narasumber formData string false "Speaker"
// @Param        bukti_kegiatan formData file true "Evidence document"
// @Success      201 {object} APIResponse[claimapp.ClaimResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /claims [post]
func (h *ClaimHandler) Create(c *gin.Context) {
	var form ClaimForm
	if err := c.ShouldBind(&form); err != nil {
		h.ValidationFailed(c, err)
		return
	}
	details, err := form.details()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	evidence, err := readUpload(c, evidenceField, h.evidenceMaxSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	in := claimapp.CreateClaimInput{
		Details:  details,
		Evidence: evidence,
	}
	if form.ActivityTypeID != "" {
		in.ActivityTypeID = uuid.MustParse(form.ActivityTypeID)
	}
	if form.StudentID != "" {
		sid := uuid.MustParse(form.StudentID)
		in.StudentID = &sid
	}

	resp, err := h.claimService.Create(c.Request.Context(), principal(c), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Resubmit godoc
// @ID           resubmitClaim
// @Summary      Resubmit a claim
// @Description  The owner corrects a claim sent back for revision. A new evidence file replaces the old one.
// @Tags         claims
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "Claim ID" format(uuid)
// @Param        periode_pengajuan formData string true "Submission period"
// @Param        tanggal_pengajuan formData string true "Submission date" format(date)
// @Param        rincian_acara formData string true "Event description"
// @Param        tingkat formData string true "Level"
// @Param        tempat formData string true "Venue"
// @Param        tanggal_pelaksanaan formData string true "Event date" format(date)
// @Param        mentor formData string false "Mentor"
// @Param        narasumber formData string false "Speaker"
// @Param        bukti_kegiatan formData file false "Replacement evidence"
// @Success      200 {object} APIResponse[claimapp.ClaimResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /claims/{id} [put]
func (h *ClaimHandler) Resubmit(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var form ClaimForm
	if err := c.ShouldBind(&form); err != nil {
		h.ValidationFailed(c, err)
		return
	}
	details, err := form.details()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	evidence, err := readUpload(c, evidenceField, h.evidenceMaxSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.claimService.Resubmit(c.Request.Context(), principal(c), id, claimapp.ResubmitClaimInput{
		Details:  details,
		Evidence: evidence,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Review godoc
// @ID           reviewClaim
// @Summary      Review a claim
// @Description  Approve, reject or send back for revision. Rejection and revision require a note.
// @Tags         claims
// @Accept       json
// @Produce      json
// @Param        id path string true "Claim ID" format(uuid)
// @Param        request body claimapp.ReviewClaimInput true "Decision"
// @Success      200 {object} APIResponse[claimapp.ClaimResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /claims/{id}/status [patch]
func (h *ClaimHandler) Review(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req claimapp.ReviewClaimInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationFailed(c, err)
		return
	}

	resp, err := h.claimService.Review(c.Request.Context(), principal(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete godoc
// @ID           deleteClaim
// @Summary      Delete a claim
// @Description  Admin only. Approved claims cannot be deleted. The evidence file is removed best-effort.
// @Tags         claims
// @Param        id path string true "Claim ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /claims/{id} [delete]
func (h *ClaimHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	if err := h.claimService.Delete(c.Request.Context(), principal(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Evidence godoc
// @ID           getClaimEvidence
// @Summary      Download claim evidence
// @Tags         claims
// @Produce      octet-stream
// @Param        id path string true "Claim ID" format(uuid)
// @Success      200 {file} binary
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /claims/{id}/evidence [get]
func (h *ClaimHandler) Evidence(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	body, contentType, err := h.claimService.Evidence(c.Request.Context(), principal(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	stream(c, body, contentType)
}
