package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/poinmhs/backend/internal/application/ledger"
	studentapp "github.com/poinmhs/backend/internal/application/student"
	"github.com/poinmhs/backend/internal/interfaces/http/middleware"
)

const photoField = "foto"

// PointsCheckResponse reports whether a student's total matches their
// approved claims
// @name HandlerPointsCheckResponse
type PointsCheckResponse struct {
	Consistent  bool                `json:"consistent"`
	Discrepancy *ledger.Discrepancy `json:"discrepancy,omitempty"`
}

// StudentHandler handles student record endpoints
type StudentHandler struct {
	BaseHandler
	studentService *studentapp.StudentService
	photoMaxSize   int64
}

// NewStudentHandler creates a new StudentHandler
func NewStudentHandler(studentService *studentapp.StudentService, photoMaxSize int64) *StudentHandler {
	return &StudentHandler{
		studentService: studentService,
		photoMaxSize:   photoMaxSize,
	}
}

// List godoc
// @ID           listStudents
// @Summary      List students
// @Description  Ranking of students ordered by total points. Admin only.
// @Tags         students
// @Produce      json
// @Param        search query string false "Match on NIM or name"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]studentapp.StudentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	var q studentapp.StudentListFilter
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationFailed(c, err)
		return
	}

	students, total, err := h.studentService.List(c.Request.Context(), principal(c), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, students, total, q.Page, q.PageSize)
}

// Me godoc
// @ID           getStudentMe
// @Summary      Own student record
// @Tags         students
// @Produce      json
// @Success      200 {object} APIResponse[studentapp.StudentResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /students/me [get]
func (h *StudentHandler) Me(c *gin.Context) {
	resp, err := h.studentService.Me(c.Request.Context(), principal(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get godoc
// @ID           getStudent
// @Summary      Get a student
// @Tags         students
// @Produce      json
// @Param        id path string true "Student ID" format(uuid)
// @Success      200 {object} APIResponse[studentapp.StudentResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.studentService.GetByID(c.Request.Context(), principal(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Create godoc
// @ID           createStudent
// @Summary      Register a student
// @Description  Creates the student record and its login. The initial password is the NIM.
// @Tags         students
// @Accept       json,multipart/form-data
// @Produce      json
// @Param        request body studentapp.CreateStudentRequest true "Student"
// @Success      201 {object} APIResponse[studentapp.StudentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req studentapp.CreateStudentRequest
	if err := c.ShouldBind(&req); err != nil {
		h.ValidationFailed(c, err)
		return
	}
	photo, err := readUpload(c, photoField, h.photoMaxSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.studentService.Create(c.Request.Context(), principal(c), req, photo)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Update godoc
// @ID           updateStudent
// @Summary      Update a student
// @Description  Admin only. The point total cannot be edited here.
// @Tags         students
// @Accept       json,multipart/form-data
// @Produce      json
// @Param        id path string true "Student ID" format(uuid)
// @Param        request body studentapp.UpdateStudentRequest true "Student"
// @Success      200 {object} APIResponse[studentapp.StudentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req studentapp.UpdateStudentRequest
	if err := c.ShouldBind(&req); err != nil {
		h.ValidationFailed(c, err)
		return
	}
	photo, err := readUpload(c, photoField, h.photoMaxSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.studentService.Update(c.Request.Context(), principal(c), id, req, photo)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete godoc
// @ID           deleteStudent
// @Summary      Delete a student
// @Description  Removes the student, their claims, their login and stored files
// @Tags         students
// @Param        id path string true "Student ID" format(uuid)
// @Success      204
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	if err := h.studentService.Delete(c.Request.Context(), principal(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Photo godoc
// @ID           getStudentPhoto
// @Summary      Student photo
// @Tags         students
// @Produce      image/jpeg,image/png
// @Param        id path string true "Student ID" format(uuid)
// @Success      200 {file} binary
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /students/{id}/photo [get]
func (h *StudentHandler) Photo(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	body, contentType, err := h.studentService.Photo(c.Request.Context(), principal(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	stream(c, body, contentType)
}

// CV godoc
// @ID           getStudentCV
// @Summary      CV data
// @Description  Biodata and approved activities grouped into organisation, achievement and other sections
// @Tags         students
// @Produce      json
// @Param        id path string true "Student ID" format(uuid)
// @Success      200 {object} APIResponse[studentapp.CVResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /students/{id}/cv [get]
func (h *StudentHandler) CV(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.studentService.CV(c.Request.Context(), principal(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CVPDF godoc
// @ID           downloadStudentCV
// @Summary      Download CV as PDF
// @Tags         students
// @Produce      application/pdf
// @Param        id path string true "Student ID" format(uuid)
// @Success      200 {file} binary
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /students/{id}/cv/pdf [get]
func (h *StudentHandler) CVPDF(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	pdf, filename, err := h.studentService.CVPDF(c.Request.Context(), principal(c), id, middleware.GetJWTToken(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	attachment(c, filename, "application/pdf", pdf)
}

// VerifyPoints godoc
// @ID           verifyStudentPoints
// @Summary      Check a student's point total
// @Description  Compares the stored total with the sum of approved claims. Admin only.
// @Tags         students
// @Produce      json
// @Param        id path string true "Student ID" format(uuid)
// @Success      200 {object} APIResponse[PointsCheckResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /students/{id}/points/verify [get]
func (h *StudentHandler) VerifyPoints(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	d, err := h.studentService.VerifyPoints(c.Request.Context(), principal(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, PointsCheckResponse{Consistent: d == nil, Discrepancy: d})
}
