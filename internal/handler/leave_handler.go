package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tejraval11/student-leave-mgmt/internal/models"
	"github.com/tejraval11/student-leave-mgmt/internal/service"
	appErrors "github.com/tejraval11/student-leave-mgmt/pkg/errors"
	"github.com/tejraval11/student-leave-mgmt/pkg/response"
)

// LeaveHandler wires HTTP endpoints to the leave service.
type LeaveHandler struct {
	service *service.LeaveService
	metrics *service.MetricsService
}

// NewLeaveHandler creates a new handler.
func NewLeaveHandler(svc *service.LeaveService, metrics *service.MetricsService) *LeaveHandler {
	return &LeaveHandler{service: svc, metrics: metrics}
}

// Create godoc
// @Summary Submit leave application
// @Description Submit a new leave application for the authenticated student
// @Tags Leave
// @Accept json
// @Produce json
// @Param payload body models.CreateLeaveRequest true "Leave payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /leave-applications [post]
func (h *LeaveHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid leave payload"))
		return
	}

	detail, err := h.service.Submit(c.Request.Context(), actorFromClaims(claims), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, detail)
}

// List godoc
// @Summary List leave applications
// @Description List applications visible to the authenticated user
// @Tags Leave
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /leave-applications [get]
func (h *LeaveHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var status *models.LeaveStatus
	if raw := c.Query("status"); raw != "" {
		s := models.LeaveStatus(raw)
		status = &s
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	list, pagination, err := h.service.List(c.Request.Context(), actorFromClaims(claims), status, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, list, &pagination)
}

// Get godoc
// @Summary Get leave application
// @Description Fetch one application the user participates in
// @Tags Leave
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /leave-applications/{id} [get]
func (h *LeaveHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	detail, err := h.service.Get(c.Request.Context(), actorFromClaims(claims), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// Transition godoc
// @Summary Act on leave application
// @Description Apply an approve/reject/cancel/parent decision to an application
// @Tags Leave
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body models.LeaveActionRequest true "Action payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /leave-applications/{id} [patch]
func (h *LeaveHandler) Transition(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.LeaveActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid action payload"))
		return
	}

	detail, err := h.service.Transition(c.Request.Context(), actorFromClaims(claims), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.ObserveTransition(req.Action)
	response.JSON(c, http.StatusOK, detail, nil)
}

// Withdraw godoc
// @Summary Withdraw leave application
// @Description Hard-delete a pending application owned by the student
// @Tags Leave
// @Produce json
// @Param id path string true "Application ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /leave-applications/{id} [delete]
func (h *LeaveHandler) Withdraw(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Withdraw(c.Request.Context(), actorFromClaims(claims), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
