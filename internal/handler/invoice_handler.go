package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/wiseroute/transport-booking/internal/dto"
	"github.com/wiseroute/transport-booking/internal/middleware"
	"github.com/wiseroute/transport-booking/internal/models"
	"github.com/wiseroute/transport-booking/internal/repository"
	"github.com/wiseroute/transport-booking/internal/service"
)

type InvoiceHandler struct {
	svc service.InvoiceService
}

func NewInvoiceHandler(svc service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{svc: svc}
}

func (h *InvoiceHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/invoices", middleware.RequireRole("admin"))
	g.GET("", h.List)
	g.GET("/stats", h.Stats)
	g.GET("/:id", h.Get)
	g.PUT("/:id/approve", h.Approve)
	g.PUT("/:id/reject", h.Reject)
}

func (h *InvoiceHandler) List(c echo.Context) error {
	filter := repository.InvoiceFilter{
		Status: models.InvoiceStatus(c.QueryParam("status")),
		Search: c.QueryParam("search"),
	}
	if s := c.QueryParam("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid start date")
		}
		filter.StartDate = &t
	}
	if s := c.QueryParam("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid end date")
		}
		end := t.AddDate(0, 0, 1)
		filter.EndDate = &end
	}

	invoices, err := h.svc.List(c.Request().Context(), filter)
	if err != nil {
		return invoiceError(err)
	}
	resp := make([]dto.InvoiceResponse, len(invoices))
	for i := range invoices {
		resp[i] = dto.ToInvoiceResponse(&invoices[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *InvoiceHandler) Stats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return invoiceError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *InvoiceHandler) Get(c echo.Context) error {
	id, err := invoiceID(c)
	if err != nil {
		return err
	}
	invoice, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return invoiceError(err)
	}
	return c.JSON(http.StatusOK, dto.ToInvoiceResponse(invoice))
}

func (h *InvoiceHandler) Approve(c echo.Context) error {
	id, err := invoiceID(c)
	if err != nil {
		return err
	}
	var req dto.ApproveInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	invoice, err := h.svc.Approve(c.Request().Context(), middleware.UserID(c), id, req.Notes)
	if err != nil {
		return invoiceError(err)
	}
	return c.JSON(http.StatusOK, dto.ToInvoiceResponse(invoice))
}

func (h *InvoiceHandler) Reject(c echo.Context) error {
	id, err := invoiceID(c)
	if err != nil {
		return err
	}
	var req dto.RejectInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	invoice, err := h.svc.Reject(c.Request().Context(), middleware.UserID(c), id, req.Notes)
	if err != nil {
		return invoiceError(err)
	}
	return c.JSON(http.StatusOK, dto.ToInvoiceResponse(invoice))
}

func invoiceID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}
	return uint(id), nil
}
