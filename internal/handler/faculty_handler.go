package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tejraval11/student-leave-mgmt/internal/service"
	"github.com/tejraval11/student-leave-mgmt/pkg/response"
)

// FacultyHandler serves the faculty roster.
type FacultyHandler struct {
	service *service.DirectoryService
}

// NewFacultyHandler creates a new handler.
func NewFacultyHandler(svc *service.DirectoryService) *FacultyHandler {
	return &FacultyHandler{service: svc}
}

// List godoc
// @Summary List faculty
// @Description List all faculty members for the application form
// @Tags Directory
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /faculty [get]
func (h *FacultyHandler) List(c *gin.Context) {
	list, err := h.service.ListFaculty(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, list, nil)
}
