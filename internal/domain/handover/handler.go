package handover

import (
	"errors"
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
	g.POST("/handovers", h.CreateHandover)
	g.GET("/handovers/:id", h.GetHandover)
	g.GET("/patients/:id/handovers", h.ListPatientHandovers)
	g.POST("/handovers/:id/ready", h.action(func(c echo.Context, id, user uuid.UUID) (*Handover, error) {
		return h.svc.Ready(c.Request().Context(), id, user)
	}))
	g.POST("/handovers/:id/return", h.action(func(c echo.Context, id, user uuid.UUID) (*Handover, error) {
		return h.svc.ReturnForChanges(c.Request().Context(), id, user)
	}))
	g.POST("/handovers/:id/start", h.action(func(c echo.Context, id, user uuid.UUID) (*Handover, error) {
		return h.svc.Start(c.Request().Context(), id, user)
	}))
	g.POST("/handovers/:id/accept", h.action(func(c echo.Context, id, user uuid.UUID) (*Handover, error) {
		return h.svc.Accept(c.Request().Context(), id, user)
	}))
	g.POST("/handovers/:id/complete", h.action(func(c echo.Context, id, user uuid.UUID) (*Handover, error) {
		return h.svc.Complete(c.Request().Context(), id, user)
	}))
	g.POST("/handovers/:id/reject", h.actionWithReason(func(c echo.Context, id uuid.UUID, reason string, user uuid.UUID) (*Handover, error) {
		return h.svc.Reject(c.Request().Context(), id, reason, user)
	}))
	g.POST("/handovers/:id/cancel", h.actionWithReason(func(c echo.Context, id uuid.UUID, reason string, user uuid.UUID) (*Handover, error) {
		return h.svc.Cancel(c.Request().Context(), id, reason, user)
	}))
}

type createHandoverRequest struct {
	PatientID   uuid.UUID `json:"patient_id"`
	FromShiftID string    `json:"from_shift_id"`
	ToShiftID   string    `json:"to_shift_id,omitempty"`
	Summary     string    `json:"summary,omitempty"`
}

func (h *Handler) CreateHandover(c echo.Context) error {
	var req createHandoverRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID == uuid.Nil || req.FromShiftID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id and from_shift_id are required")
	}
	sender, err := actingUser(c)
	if err != nil {
		return err
	}

	created, err := h.svc.Create(c.Request().Context(), CreateParams{
		PatientID:    req.PatientID,
		FromShiftID:  req.FromShiftID,
		ToShiftID:    req.ToShiftID,
		SenderUserID: sender,
		Summary:      req.Summary,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetHandover(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid handover id")
	}
	found, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, handoverResponse(found))
}

func (h *Handler) ListPatientHandovers(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	page := pagination.FromContext(c)

	items, total, err := h.svc.ListByPatient(c.Request().Context(), patientID, page.Limit, page.Offset)
	if err != nil {
		return httpError(err)
	}
	data := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		data = append(data, handoverResponse(item))
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(data, total, page))
}

// action wraps the transition endpoints that take no request body.
func (h *Handler) action(fn func(c echo.Context, id, user uuid.UUID) (*Handover, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid handover id")
		}
		user, err := actingUser(c)
		if err != nil {
			return err
		}
		updated, err := fn(c, id, user)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, handoverResponse(updated))
	}
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) actionWithReason(fn func(c echo.Context, id uuid.UUID, reason string, user uuid.UUID) (*Handover, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid handover id")
		}
		var req reasonRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if req.Reason == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "reason is required")
		}
		user, err := actingUser(c)
		if err != nil {
			return err
		}
		updated, err := fn(c, id, req.Reason, user)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, handoverResponse(updated))
	}
}

// handoverResponse adds the derived state alongside the stored fields.
func handoverResponse(h *Handover) map[string]interface{} {
	return map[string]interface{}{
		"handover": h,
		"state":    h.State(),
	}
}

func actingUser(c echo.Context) (uuid.UUID, error) {
	raw := auth.UserIDFromContext(c.Request().Context())
	if raw == "" {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authenticated user")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "authenticated user id is not a uuid")
	}
	return id, nil
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNoCoverage):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrDuplicateWindow):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
