package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/wiseroute/transport-booking/internal/catalog"
	"github.com/wiseroute/transport-booking/internal/dto"
	"github.com/wiseroute/transport-booking/internal/middleware"
	"github.com/wiseroute/transport-booking/internal/models"
	"github.com/wiseroute/transport-booking/internal/service"
)

type BookingHandler struct {
	svc service.InvoiceService
}

func NewBookingHandler(svc service.InvoiceService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

func (h *BookingHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/bookings", middleware.RequireRole("student"))
	g.POST("/register", h.Register)
	g.POST("/invoices/:id/pay", h.SubmitPayment)
	g.GET("/status", h.Status)
}

func (h *BookingHandler) Register(c echo.Context) error {
	var req dto.RegisterBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.RouteID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "route_id is required")
	}

	in := service.RegisterInput{
		StudentID:  middleware.UserID(c),
		RouteID:    req.RouteID,
		SubRouteID: req.SubRouteID,
		Kind:       models.BookingKind(req.Kind),
	}
	switch in.Kind {
	case models.KindMonthly:
		if req.Month < 1 || req.Month > 12 || req.Year == 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "month and year are required for a monthly booking")
		}
		in.Month = req.Month
		in.Year = req.Year
	case models.KindDaily:
		if req.BookingDate == "" || req.TimeSlotID == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "booking_date and time_slot_id are required for a daily booking")
		}
		date, err := time.Parse("2006-01-02", req.BookingDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid booking date")
		}
		in.BookingDate = &date
		in.TimeSlotID = req.TimeSlotID
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "kind must be monthly or daily")
	}

	intent, invoice, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		return invoiceError(err)
	}
	return c.JSON(http.StatusCreated, dto.RegisterBookingResponse{
		Intent:  intent,
		Invoice: dto.ToInvoiceResponse(invoice),
	})
}

func (h *BookingHandler) SubmitPayment(c echo.Context) error {
	invoiceID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}

	var req dto.SubmitPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.BankName == "" || req.AccountNumber == "" || req.TransactionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "bank_name, account_number and transaction_id are required")
	}

	invoice, err := h.svc.SubmitPayment(c.Request().Context(), middleware.UserID(c), uint(invoiceID), service.PaymentProof{
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		TransactionID: req.TransactionID,
		ScreenshotURL: req.ScreenshotURL,
	})
	if err != nil {
		return invoiceError(err)
	}
	return c.JSON(http.StatusOK, dto.ToInvoiceResponse(invoice))
}

func (h *BookingHandler) Status(c echo.Context) error {
	user, err := h.svc.BookingStatus(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return invoiceError(err)
	}
	return c.JSON(http.StatusOK, dto.BookingStatusResponse{
		HasMonthlyBooking:    user.HasMonthlyBooking,
		HasDailyBooking:      user.HasDailyBooking,
		MonthlyBookingExpiry: user.MonthlyBookingExpiry,
		DailyBookingExpiry:   user.DailyBookingExpiry,
		ActiveIntentID:       user.ActiveIntentID,
	})
}

func invoiceError(err error) error {
	switch {
	case errors.Is(err, catalog.ErrRouteNotFound),
		errors.Is(err, catalog.ErrSubRouteNotFound),
		errors.Is(err, catalog.ErrTimeSlotNotFound),
		errors.Is(err, service.ErrInvoiceNotFound),
		errors.Is(err, service.ErrStudentNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvoiceExpired):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidStateTransition),
		errors.Is(err, service.ErrActiveIntentExists):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
