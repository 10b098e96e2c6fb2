package patient

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
	api.GET("/patients", h.List)
	api.GET("/patients/:id", h.Get)
	api.POST("/patients", h.Create)
	api.PUT("/patients/:id", h.Update)
	api.DELETE("/patients/:id", h.Delete)
}

func (h *Handler) Create(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	actor, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	// Patients may create exactly one profile: their own. The created
	// row is what their account gets linked to.
	target := &auth.Target{}
	if actor.Role == auth.RolePatient {
		target.PatientID = actor.PatientID
	}
	if err := auth.Gate(c, auth.ActionCreate, auth.KindPatient, target); err != nil {
		return err
	}

	if _, err := h.svc.Create(c.Request().Context(), &p); err != nil {
		return patientError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return patientError(err)
	}
	if err := auth.Gate(c, auth.ActionRetrieve, auth.KindPatient, &auth.Target{PatientID: &p.ID}); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) List(c echo.Context) error {
	actor, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	if err := auth.Gate(c, auth.ActionList, auth.KindPatient, nil); err != nil {
		return err
	}

	q := ListQuery{
		Filter: auth.RowFilter(actor, auth.KindPatient),
		Name:   c.QueryParam("name"),
	}
	pg := pagination.FromContext(c)
	pats, total, err := h.svc.List(c.Request().Context(), q, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(pats, total, pg.Limit, pg.Offset))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	existing, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return patientError(err)
	}
	if err := auth.Gate(c, auth.ActionUpdate, auth.KindPatient, &auth.Target{PatientID: &existing.ID}); err != nil {
		return err
	}

	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id
	if _, err := h.svc.Update(c.Request().Context(), &p); err != nil {
		return patientError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	existing, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return patientError(err)
	}
	if err := auth.Gate(c, auth.ActionDelete, auth.KindPatient, &auth.Target{PatientID: &existing.ID}); err != nil {
		return err
	}

	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return patientError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func patientError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}
