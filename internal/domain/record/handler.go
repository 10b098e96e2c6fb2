package record

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
	api.GET("/medical-records", h.List)
	api.GET("/medical-records/:id", h.Get)
	api.POST("/medical-records", h.Create)
	api.PUT("/medical-records/:id", h.Update)
	api.POST("/medical-records/:id/deactivate", h.Deactivate)

	api.GET("/medical-records/:id/prescriptions", h.ListPrescriptions)
	api.POST("/medical-records/:id/prescriptions", h.Prescribe)
	api.GET("/prescriptions/:id", h.GetPrescription)
	api.POST("/prescriptions/:id/deactivate", h.DeactivatePrescription)
}

func (h *Handler) Create(c echo.Context) error {
	if err := auth.Gate(c, auth.ActionCreate, auth.KindMedicalRecord, nil); err != nil {
		return err
	}
	actor, err := auth.MustActor(c)
	if err != nil {
		return err
	}

	var m MedicalRecord
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if _, err := h.svc.Create(c.Request().Context(), actor, &m); err != nil {
		return recordError(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	m, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return recordError(err)
	}
	if err := auth.Gate(c, auth.ActionRetrieve, auth.KindMedicalRecord, &auth.Target{PatientID: &m.PatientID}); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) List(c echo.Context) error {
	actor, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	if err := auth.Gate(c, auth.ActionList, auth.KindMedicalRecord, nil); err != nil {
		return err
	}

	q := ListQuery{
		Filter:     auth.RowFilter(actor, auth.KindMedicalRecord),
		ActiveOnly: c.QueryParam("active") == "true",
	}
	if v := c.QueryParam("patient_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		q.PatientID = &id
	}
	if v := c.QueryParam("doctor_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
		}
		q.DoctorID = &id
	}

	pg := pagination.FromContext(c)
	recs, total, err := h.svc.List(c.Request().Context(), q, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(recs, total, pg.Limit, pg.Offset))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	existing, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return recordError(err)
	}
	if err := auth.Gate(c, auth.ActionUpdate, auth.KindMedicalRecord, &auth.Target{PatientID: &existing.PatientID}); err != nil {
		return err
	}

	var m MedicalRecord
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m.ID = id
	m.PatientID = existing.PatientID
	m.DoctorID = existing.DoctorID
	m.Active = existing.Active
	if _, err := h.svc.Update(c.Request().Context(), &m); err != nil {
		return recordError(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) Deactivate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	existing, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return recordError(err)
	}
	if err := auth.Gate(c, auth.ActionUpdate, auth.KindMedicalRecord, &auth.Target{PatientID: &existing.PatientID}); err != nil {
		return err
	}

	m, err := h.svc.Deactivate(c.Request().Context(), id)
	if err != nil {
		return recordError(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) Prescribe(c echo.Context) error {
	if err := auth.Gate(c, auth.ActionCreate, auth.KindPrescription, nil); err != nil {
		return err
	}
	actor, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var p Prescription
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.MedicalRecordID = recordID
	if _, err := h.svc.Prescribe(c.Request().Context(), actor, &p); err != nil {
		return recordError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPrescription(c echo.Context) error {
	if err := auth.Gate(c, auth.ActionRetrieve, auth.KindPrescription, &auth.Target{}); err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPrescription(c.Request().Context(), id)
	if err != nil {
		return recordError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPrescriptions(c echo.Context) error {
	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	// Prescriptions are chart details: visibility follows the parent
	// record, and the prescription policy gates the roles.
	m, err := h.svc.Get(c.Request().Context(), recordID)
	if err != nil {
		return recordError(err)
	}
	if err := auth.Gate(c, auth.ActionList, auth.KindPrescription, nil); err != nil {
		return err
	}
	if err := auth.Gate(c, auth.ActionRetrieve, auth.KindMedicalRecord, &auth.Target{PatientID: &m.PatientID}); err != nil {
		return err
	}

	rxs, err := h.svc.Prescriptions(c.Request().Context(), recordID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rxs)
}

func (h *Handler) DeactivatePrescription(c echo.Context) error {
	if err := auth.Gate(c, auth.ActionUpdate, auth.KindPrescription, &auth.Target{}); err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.DeactivatePrescription(c.Request().Context(), id)
	if err != nil {
		return recordError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func recordError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "medical record not found")
	case errors.Is(err, ErrPrescriptionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "prescription not found")
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
