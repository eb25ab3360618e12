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

type SeatHandler struct {
	svc service.SeatService
}

func NewSeatHandler(svc service.SeatService) *SeatHandler {
	return &SeatHandler{svc: svc}
}

func (h *SeatHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/seat-booking", middleware.RequireRole("student"))
	g.GET("/routes", h.Routes)
	g.GET("/routes/:routeId/timeslots", h.TimeSlots)
	g.GET("/vehicles/:vehicleId/seats", h.SeatMap)
	g.POST("/book", h.BookSeat)
	g.POST("/cancel", h.CancelSeat)
	g.GET("/history", h.History)
}

func parseBookingDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	return time.Parse("2006-01-02", s)
}

func (h *SeatHandler) Routes(c echo.Context) error {
	overview, err := h.svc.RoutesOverview(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return seatError(err)
	}
	return c.JSON(http.StatusOK, overview)
}

func (h *SeatHandler) TimeSlots(c echo.Context) error {
	date, err := parseBookingDate(c.QueryParam("bookingDate"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking date")
	}

	result, err := h.svc.TimeSlots(c.Request().Context(), middleware.UserID(c), c.Param("routeId"), date)
	if err != nil {
		return seatError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *SeatHandler) SeatMap(c echo.Context) error {
	routeID := c.QueryParam("routeId")
	timeSlotID := c.QueryParam("timeSlotId")
	bookingDate := c.QueryParam("bookingDate")
	if routeID == "" || timeSlotID == "" || bookingDate == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "routeId, timeSlotId and bookingDate are required")
	}
	date, err := parseBookingDate(bookingDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking date")
	}

	seatMap, err := h.svc.SeatMap(c.Request().Context(), middleware.UserID(c), routeID, timeSlotID, c.Param("vehicleId"), date)
	if err != nil {
		return seatError(err)
	}
	return c.JSON(http.StatusOK, seatMap)
}

func (h *SeatHandler) BookSeat(c echo.Context) error {
	var req dto.BookSeatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.RouteID == "" || req.TimeSlotID == "" || req.VehicleID == "" ||
		req.SeatNumber == 0 || req.Gender == "" || req.BookingDate == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "all fields are required")
	}
	gender := models.Gender(req.Gender)
	if gender != models.GenderMale && gender != models.GenderFemale {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid gender")
	}
	date, err := time.Parse("2006-01-02", req.BookingDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking date")
	}

	booking, err := h.svc.BookSeat(c.Request().Context(), service.BookSeatInput{
		StudentID:   middleware.UserID(c),
		RouteID:     req.RouteID,
		TimeSlotID:  req.TimeSlotID,
		VehicleID:   req.VehicleID,
		SeatNumber:  req.SeatNumber,
		Gender:      gender,
		BookingDate: date,
	})
	if err != nil {
		return seatError(err)
	}
	return c.JSON(http.StatusCreated, dto.ToSeatBookingResponse(booking))
}

func (h *SeatHandler) CancelSeat(c echo.Context) error {
	var req dto.CancelSeatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.BookingID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "booking_id is required")
	}

	booking, err := h.svc.CancelSeat(c.Request().Context(), middleware.UserID(c), req.BookingID)
	if err != nil {
		return seatError(err)
	}
	return c.JSON(http.StatusOK, dto.ToSeatBookingResponse(booking))
}

func (h *SeatHandler) History(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	bookings, total, err := h.svc.History(c.Request().Context(), middleware.UserID(c), page, limit)
	if err != nil {
		return seatError(err)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	resp := dto.PaginatedBookings{
		Bookings: make([]dto.SeatBookingResponse, len(bookings)),
		Page:     page,
		Limit:    limit,
		Total:    total,
	}
	for i := range bookings {
		resp.Bookings[i] = dto.ToSeatBookingResponse(&bookings[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func seatError(err error) error {
	switch {
	case errors.Is(err, catalog.ErrRouteNotFound),
		errors.Is(err, catalog.ErrSubRouteNotFound),
		errors.Is(err, catalog.ErrTimeSlotNotFound),
		errors.Is(err, catalog.ErrVehicleNotFound),
		errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrStudentNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSeatConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrSlotClosed),
		errors.Is(err, service.ErrCancellationWindowClosed),
		errors.Is(err, service.ErrSeatRestricted),
		errors.Is(err, service.ErrInvalidSeat),
		errors.Is(err, service.ErrQuotaExceeded),
		errors.Is(err, service.ErrNoActiveBooking):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
