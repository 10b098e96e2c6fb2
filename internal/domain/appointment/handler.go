package appointment

import (
	"errors"
	"net/http"
	"time"

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
	api.GET("/appointments", h.List)
	api.GET("/appointments/upcoming", h.Upcoming)
	api.GET("/appointments/free-slots", h.FreeSlots)
	api.GET("/appointments/:id", h.Get)
	api.POST("/appointments", h.Book)
	api.PUT("/appointments/:id", h.Reschedule)
	api.PATCH("/appointments/:id/status", h.UpdateStatus)
	api.POST("/appointments/:id/cancel", h.Cancel)
}

type bookRequest struct {
	PatientID       uuid.UUID `json:"patient_id"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	Date            string    `json:"appointment_date"`
	StartTime       string    `json:"appointment_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Reason          string    `json:"reason"`
}

func (h *Handler) Book(c echo.Context) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	actor, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	// A patient booking for themselves may omit patient_id.
	if req.PatientID == uuid.Nil && actor.PatientID != nil {
		req.PatientID = *actor.PatientID
	}

	target := &auth.Target{PatientID: &req.PatientID, DoctorID: &req.DoctorID}
	if err := auth.Gate(c, auth.ActionCreate, auth.KindAppointment, target); err != nil {
		return err
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.DurationMinutes == 0 {
		req.DurationMinutes = MinDurationMinutes * 2
	}

	a := &Appointment{
		PatientID:       req.PatientID,
		DoctorID:        req.DoctorID,
		Date:            date,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		Reason:          req.Reason,
	}
	if _, err := h.svc.Book(c.Request().Context(), a); err != nil {
		return apptError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apptError(err)
	}
	if err := auth.Gate(c, auth.ActionRetrieve, auth.KindAppointment, targetOf(a)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	actor, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	if err := auth.Gate(c, auth.ActionList, auth.KindAppointment, nil); err != nil {
		return err
	}

	q := ListQuery{Filter: auth.RowFilter(actor, auth.KindAppointment)}
	if v := c.QueryParam("doctor_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
		}
		q.DoctorID = &id
	}
	if v := c.QueryParam("patient_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		q.PatientID = &id
	}
	if v := c.QueryParam("date"); v != "" {
		d, err := parseDate(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		q.Date = &d
	}
	if v := c.QueryParam("status"); v != "" {
		st, err := ParseStatus(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		q.Status = st
	}

	pg := pagination.FromContext(c)
	appts, total, err := h.svc.List(c.Request().Context(), q, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(appts, total, pg.Limit, pg.Offset))
}

func (h *Handler) Upcoming(c echo.Context) error {
	actor, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	if err := auth.Gate(c, auth.ActionList, auth.KindAppointment, nil); err != nil {
		return err
	}

	q := ListQuery{Filter: auth.RowFilter(actor, auth.KindAppointment)}
	pg := pagination.FromContext(c)
	appts, total, err := h.svc.Upcoming(c.Request().Context(), q, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(appts, total, pg.Limit, pg.Offset))
}

func (h *Handler) FreeSlots(c echo.Context) error {
	doctorID, err := uuid.Parse(c.QueryParam("doctor_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "doctor_id is required")
	}
	date, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// Slot availability reveals nothing private; any authenticated
	// actor who can see the doctor directory may query it.
	if err := auth.Gate(c, auth.ActionRetrieve, auth.KindDoctor, &auth.Target{}); err != nil {
		return err
	}

	slots, err := h.svc.FreeSlots(c.Request().Context(), doctorID, date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"doctor_id": doctorID,
		"date":      date.Format("2006-01-02"),
		"slots":     slots,
	})
}

type rescheduleRequest struct {
	Date            string `json:"appointment_date"`
	StartTime       string `json:"appointment_time"`
	DurationMinutes int    `json:"duration_minutes"`
}

func (h *Handler) Reschedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apptError(err)
	}
	if err := auth.Gate(c, auth.ActionUpdate, auth.KindAppointment, targetOf(a)); err != nil {
		return err
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	updated, err := h.svc.Reschedule(c.Request().Context(), id, date, req.StartTime, req.DurationMinutes)
	if err != nil {
		return apptError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

type statusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	st, err := ParseStatus(req.Status)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apptError(err)
	}
	if err := auth.Gate(c, auth.ActionUpdate, auth.KindAppointment, targetOf(a)); err != nil {
		return err
	}

	updated, err := h.svc.UpdateStatus(c.Request().Context(), id, st, req.Notes)
	if err != nil {
		return apptError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req statusRequest
	_ = c.Bind(&req)

	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apptError(err)
	}
	if err := auth.Gate(c, auth.ActionUpdate, auth.KindAppointment, targetOf(a)); err != nil {
		return err
	}

	updated, err := h.svc.Cancel(c.Request().Context(), id, req.Notes)
	if err != nil {
		return apptError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func targetOf(a *Appointment) *auth.Target {
	return &auth.Target{PatientID: &a.PatientID, DoctorID: &a.DoctorID}
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, errors.New("invalid date, want YYYY-MM-DD")
	}
	return d, nil
}

func apptError(err error) error {
	var conflict *ConflictError
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	case errors.As(err, &conflict):
		// Booking conflicts are validation failures naming the window's
		// current holder, not resource-state conflicts.
		return echo.NewHTTPError(http.StatusBadRequest, conflict.Error())
	case errors.Is(err, ErrTerminalStatus), errors.Is(err, ErrInvalidStatus):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
