package handler

import (
	"github.com/gin-gonic/gin"
	activityapp "github.com/poinmhs/backend/internal/application/activity"
)

// ActivityTypeHandler handles the master poin catalog
type ActivityTypeHandler struct {
	BaseHandler
	activityTypeService *activityapp.ActivityTypeService
}

// NewActivityTypeHandler creates a new ActivityTypeHandler
func NewActivityTypeHandler(activityTypeService *activityapp.ActivityTypeService) *ActivityTypeHandler {
	return &ActivityTypeHandler{activityTypeService: activityTypeService}
}

// List godoc
// @ID           listActivityTypes
// @Summary      List activity types
// @Tags         activity-types
// @Produce      json
// @Param        search query string false "Match on code or category"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]activityapp.ActivityTypeResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /activity-types [get]
func (h *ActivityTypeHandler) List(c *gin.Context) {
	var q activityapp.ActivityTypeListFilter
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationFailed(c, err)
		return
	}

	types, total, err := h.activityTypeService.List(c.Request.Context(), principal(c), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, types, total, q.Page, q.PageSize)
}

// Get godoc
// @ID           getActivityType
// @Summary      Get an activity type
// @Tags         activity-types
// @Produce      json
// @Param        id path string true "Activity type ID" format(uuid)
// @Success      200 {object} APIResponse[activityapp.ActivityTypeResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /activity-types/{id} [get]
func (h *ActivityTypeHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.activityTypeService.GetByID(c.Request.Context(), principal(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Create godoc
// @ID           createActivityType
// @Summary      Create an activity type
// @Tags         activity-types
// @Accept       json
// @Produce      json
// @Param        request body activityapp.CreateActivityTypeRequest true "Activity type"
// @Success      201 {object} APIResponse[activityapp.ActivityTypeResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /activity-types [post]
func (h *ActivityTypeHandler) Create(c *gin.Context) {
	var req activityapp.CreateActivityTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationFailed(c, err)
		return
	}
	resp, err := h.activityTypeService.Create(c.Request.Context(), principal(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Update godoc
// @ID           updateActivityType
// @Summary      Update an activity type
// @Description  A new weight applies to later claims only
// @Tags         activity-types
// @Accept       json
// @Produce      json
// @Param        id path string true "Activity type ID" format(uuid)
// @Param        request body activityapp.UpdateActivityTypeRequest true "Changed fields"
// @Success      200 {object} APIResponse[activityapp.ActivityTypeResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /activity-types/{id} [put]
func (h *ActivityTypeHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req activityapp.UpdateActivityTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationFailed(c, err)
		return
	}
	resp, err := h.activityTypeService.Update(c.Request.Context(), principal(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete godoc
// @ID           deleteActivityType
// @Summary      Delete an activity type
// @Description  Refused while claims still reference it
// @Tags         activity-types
// @Param        id path string true "Activity type ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /activity-types/{id} [delete]
func (h *ActivityTypeHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	if err := h.activityTypeService.Delete(c.Request.Context(), principal(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
