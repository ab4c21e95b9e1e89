package assignment

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/handover/handover/internal/platform/auth"
	"github.com/handover/handover/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("physician", "nurse", "charge"))
	g.POST("/assignments", h.CreateAssignment)
	g.GET("/patients/:id/assignments", h.ListPatientAssignments)
}

type createAssignmentRequest struct {
	PatientID uuid.UUID `json:"patient_id"`
	UserID    uuid.UUID `json:"user_id"`
	ShiftID   string    `json:"shift_id"`
	IsPrimary bool      `json:"is_primary"`
}

func (h *Handler) CreateAssignment(c echo.Context) error {
	var req createAssignmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID == uuid.Nil || req.UserID == uuid.Nil || req.ShiftID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id, user_id and shift_id are required")
	}

	a := &Assignment{
		PatientID: req.PatientID,
		UserID:    req.UserID,
		ShiftID:   req.ShiftID,
		IsPrimary: req.IsPrimary,
	}
	if err := h.svc.Assign(c.Request().Context(), a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) ListPatientAssignments(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	page := pagination.FromContext(c)

	items, total, err := h.svc.ListByPatient(c.Request().Context(), patientID, page.Limit, page.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, page))
}
