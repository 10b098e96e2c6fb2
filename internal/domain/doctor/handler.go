package doctor

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/doctors", h.List)
	api.GET("/doctors/available", h.ListAvailable)
	api.GET("/doctors/:id", h.Get)
	api.POST("/doctors", h.Create)
	api.PUT("/doctors/:id", h.Update)
	api.PATCH("/doctors/:id/availability", h.SetAvailability)
	api.DELETE("/doctors/:id", h.Delete)
	api.GET("/departments/:id/doctors", h.ListByDepartment)
}

func (h *Handler) Create(c echo.Context) error {
	if err := auth.Gate(c, auth.ActionCreate, auth.KindDoctor, nil); err != nil {
		return err
	}
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if _, err := h.svc.Create(c.Request().Context(), &d); err != nil {
		return doctorError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) Get(c echo.Context) error {
	if err := auth.Gate(c, auth.ActionRetrieve, auth.KindDoctor, &auth.Target{}); err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return doctorError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) List(c echo.Context) error {
	return h.list(c, false)
}

// ListAvailable is the booking directory: only doctors currently
// accepting appointments.
func (h *Handler) ListAvailable(c echo.Context) error {
	return h.list(c, true)
}

func (h *Handler) list(c echo.Context, availableOnly bool) error {
	if err := auth.Gate(c, auth.ActionList, auth.KindDoctor, nil); err != nil {
		return err
	}

	q := ListQuery{AvailableOnly: availableOnly}
	if v := c.QueryParam("department_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid department_id")
		}
		q.DepartmentID = &id
	}
	q.Specialization = c.QueryParam("specialization")

	pg := pagination.FromContext(c)
	docs, total, err := h.svc.List(c.Request().Context(), q, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(docs, total, pg.Limit, pg.Offset))
}

// ListByDepartment lists the roster of one department.
func (h *Handler) ListByDepartment(c echo.Context) error {
	if err := auth.Gate(c, auth.ActionList, auth.KindDoctor, nil); err != nil {
		return err
	}
	deptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	pg := pagination.FromContext(c)
	docs, total, err := h.svc.List(c.Request().Context(), ListQuery{DepartmentID: &deptID}, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(docs, total, pg.Limit, pg.Offset))
}

func (h *Handler) Update(c echo.Context) error {
	if err := auth.Gate(c, auth.ActionUpdate, auth.KindDoctor, &auth.Target{}); err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.ID = id
	if _, err := h.svc.Update(c.Request().Context(), &d); err != nil {
		return doctorError(err)
	}
	return c.JSON(http.StatusOK, d)
}

type availabilityRequest struct {
	Available bool `json:"available"`
}

func (h *Handler) SetAvailability(c echo.Context) error {
	if err := auth.Gate(c, auth.ActionUpdate, auth.KindDoctor, &auth.Target{}); err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req availabilityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.SetAvailability(c.Request().Context(), id, req.Available)
	if err != nil {
		return doctorError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := auth.Gate(c, auth.ActionDelete, auth.KindDoctor, &auth.Target{}); err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return doctorError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func doctorError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	case errors.Is(err, ErrLicenseTaken):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
