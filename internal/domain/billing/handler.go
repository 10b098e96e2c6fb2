package billing

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

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
	api.GET("/billing", h.List)
	api.GET("/billing/:id", h.Get)
	api.GET("/billing/:id/payments", h.ListPayments)
	api.POST("/billing", h.Create)
	api.POST("/billing/:id/payments", h.RecordPayment)
	api.PATCH("/billing/:id/status", h.SetStatus)
}

type createRequest struct {
	PatientID     uuid.UUID  `json:"patient_id"`
	AppointmentID *uuid.UUID `json:"appointment_id"`
	Description   string     `json:"description"`
	TotalAmount   string     `json:"total_amount"`
	DueDate       string     `json:"due_date"`
}

func (h *Handler) Create(c echo.Context) error {
	if err := auth.Gate(c, auth.ActionCreate, auth.KindBilling, nil); err != nil {
		return err
	}

	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	total, err := decimal.NewFromString(req.TotalAmount)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid total_amount")
	}

	inv := &Invoice{
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		Description:   req.Description,
		TotalAmount:   total,
		PaidAmount:    decimal.Zero,
	}
	if req.DueDate != "" {
		d, err := parseDate(req.DueDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		inv.DueDate = &d
	}

	if _, err := h.svc.CreateInvoice(c.Request().Context(), inv); err != nil {
		return billingError(err)
	}
	return c.JSON(http.StatusCreated, inv)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	inv, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return billingError(err)
	}
	if err := auth.Gate(c, auth.ActionRetrieve, auth.KindBilling, &auth.Target{PatientID: &inv.PatientID}); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) List(c echo.Context) error {
	actor, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	if err := auth.Gate(c, auth.ActionList, auth.KindBilling, nil); err != nil {
		return err
	}

	q := ListQuery{Filter: auth.RowFilter(actor, auth.KindBilling)}
	if v := c.QueryParam("patient_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		q.PatientID = &id
	}
	if v := c.QueryParam("status"); v != "" {
		st, err := ParseStatus(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		q.Status = st
	}

	pg := pagination.FromContext(c)
	invs, total, err := h.svc.List(c.Request().Context(), q, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(invs, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListPayments(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	inv, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return billingError(err)
	}
	if err := auth.Gate(c, auth.ActionRetrieve, auth.KindBilling, &auth.Target{PatientID: &inv.PatientID}); err != nil {
		return err
	}
	payments, err := h.svc.Payments(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, payments)
}

type paymentRequest struct {
	Amount    string `json:"amount"`
	Method    string `json:"method"`
	Reference string `json:"reference"`
}

func (h *Handler) RecordPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req paymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid amount")
	}

	inv, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return billingError(err)
	}
	if err := auth.Gate(c, auth.Custom("record_payment"), auth.KindBilling, &auth.Target{PatientID: &inv.PatientID}); err != nil {
		return err
	}

	updated, err := h.svc.RecordPayment(c.Request().Context(), id, amount, req.Method, req.Reference)
	if err != nil {
		return billingError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) SetStatus(c echo.Context) error {
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

	inv, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return billingError(err)
	}
	if err := auth.Gate(c, auth.ActionUpdate, auth.KindBilling, &auth.Target{PatientID: &inv.PatientID}); err != nil {
		return err
	}

	updated, err := h.svc.SetStatus(c.Request().Context(), id, st)
	if err != nil {
		return billingError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, errors.New("invalid date, want YYYY-MM-DD")
	}
	return d, nil
}

func billingError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "invoice not found")
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrOverPayment),
		errors.Is(err, ErrClosed), errors.Is(err, ErrInvalidStatus):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
