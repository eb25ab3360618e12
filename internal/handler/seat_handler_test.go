package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/wiseroute/transport-booking/internal/dto"
	"github.com/wiseroute/transport-booking/internal/middleware"
	"github.com/wiseroute/transport-booking/internal/models"
	"github.com/wiseroute/transport-booking/internal/service"
)

// --- Mock SeatService ---

type mockSeatService struct {
	routesFn  func(ctx context.Context, studentID string) (*service.RoutesOverview, error)
	slotsFn   func(ctx context.Context, studentID, routeID string, date time.Time) (*service.TimeSlotsResult, error)
	seatMapFn func(ctx context.Context, studentID, routeID, timeSlotID, vehicleID string, date time.Time) (*service.SeatMap, error)
	bookFn    func(ctx context.Context, in service.BookSeatInput) (*models.SeatBooking, error)
	cancelFn  func(ctx context.Context, studentID string, bookingID uint) (*models.SeatBooking, error)
	historyFn func(ctx context.Context, studentID string, page, limit int) ([]models.SeatBooking, int64, error)
}

func (m *mockSeatService) RoutesOverview(ctx context.Context, studentID string) (*service.RoutesOverview, error) {
	return m.routesFn(ctx, studentID)
}
func (m *mockSeatService) TimeSlots(ctx context.Context, studentID, routeID string, date time.Time) (*service.TimeSlotsResult, error) {
	return m.slotsFn(ctx, studentID, routeID, date)
}
func (m *mockSeatService) SeatMap(ctx context.Context, studentID, routeID, timeSlotID, vehicleID string, date time.Time) (*service.SeatMap, error) {
	return m.seatMapFn(ctx, studentID, routeID, timeSlotID, vehicleID, date)
}
func (m *mockSeatService) BookSeat(ctx context.Context, in service.BookSeatInput) (*models.SeatBooking, error) {
	return m.bookFn(ctx, in)
}
func (m *mockSeatService) CancelSeat(ctx context.Context, studentID string, bookingID uint) (*models.SeatBooking, error) {
	return m.cancelFn(ctx, studentID, bookingID)
}
func (m *mockSeatService) History(ctx context.Context, studentID string, page, limit int) ([]models.SeatBooking, int64, error) {
	return m.historyFn(ctx, studentID, page, limit)
}

func studentContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder) echo.Context {
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextUserID, "stu-1")
	c.Set(middleware.ContextUserRole, "student")
	return c
}

func TestBookSeat_Handler_Success(t *testing.T) {
	svc := &mockSeatService{
		bookFn: func(ctx context.Context, in service.BookSeatInput) (*models.SeatBooking, error) {
			assert.Equal(t, "stu-1", in.StudentID)
			assert.Equal(t, 5, in.SeatNumber)
			return &models.SeatBooking{
				ID:          1,
				StudentID:   in.StudentID,
				RouteID:     in.RouteID,
				TimeSlotID:  in.TimeSlotID,
				VehicleID:   in.VehicleID,
				SeatNumber:  in.SeatNumber,
				SeatLabel:   service.SeatLabel(in.SeatNumber),
				Gender:      in.Gender,
				BookingDate: in.BookingDate,
				Status:      models.SeatBooked,
			}, nil
		},
	}

	e := echo.New()
	body := `{"route_id":"route-1","time_slot_id":"slot-1","vehicle_id":"veh-1","seat_number":5,"gender":"male","booking_date":"2026-03-10"}`
	req := httptest.NewRequest(http.MethodPost, "/seat-booking/book", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := studentContext(e, req, rec)

	h := NewSeatHandler(svc)
	assert.NoError(t, h.BookSeat(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp dto.SeatBookingResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "B1", resp.SeatLabel)
	assert.Equal(t, models.SeatBooked, resp.Status)
}

func TestBookSeat_Handler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"seat conflict", service.ErrSeatConflict, http.StatusConflict},
		{"slot closed", service.ErrSlotClosed, http.StatusBadRequest},
		{"quota exceeded", service.ErrQuotaExceeded, http.StatusBadRequest},
		{"seat restricted", service.ErrSeatRestricted, http.StatusBadRequest},
		{"invalid seat", service.ErrInvalidSeat, http.StatusBadRequest},
		{"no active booking", service.ErrNoActiveBooking, http.StatusBadRequest},
		{"student missing", service.ErrStudentNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockSeatService{
				bookFn: func(ctx context.Context, in service.BookSeatInput) (*models.SeatBooking, error) {
					return nil, tt.err
				},
			}

			e := echo.New()
			body := `{"route_id":"route-1","time_slot_id":"slot-1","vehicle_id":"veh-1","seat_number":5,"gender":"male","booking_date":"2026-03-10"}`
			req := httptest.NewRequest(http.MethodPost, "/seat-booking/book", strings.NewReader(body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := studentContext(e, req, rec)

			err := NewSeatHandler(svc).BookSeat(c)
			he, ok := err.(*echo.HTTPError)
			assert.True(t, ok)
			assert.Equal(t, tt.code, he.Code)
		})
	}
}

func TestBookSeat_Handler_MissingFields(t *testing.T) {
	e := echo.New()
	body := `{"route_id":"route-1"}`
	req := httptest.NewRequest(http.MethodPost, "/seat-booking/book", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := studentContext(e, req, rec)

	err := NewSeatHandler(&mockSeatService{}).BookSeat(c)
	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestBookSeat_Handler_InvalidGender(t *testing.T) {
	e := echo.New()
	body := `{"route_id":"route-1","time_slot_id":"slot-1","vehicle_id":"veh-1","seat_number":5,"gender":"other","booking_date":"2026-03-10"}`
	req := httptest.NewRequest(http.MethodPost, "/seat-booking/book", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := studentContext(e, req, rec)

	err := NewSeatHandler(&mockSeatService{}).BookSeat(c)
	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestCancelSeat_Handler_WindowClosed(t *testing.T) {
	svc := &mockSeatService{
		cancelFn: func(ctx context.Context, studentID string, bookingID uint) (*models.SeatBooking, error) {
			return nil, service.ErrCancellationWindowClosed
		},
	}

	e := echo.New()
	body := `{"booking_id":9}`
	req := httptest.NewRequest(http.MethodPost, "/seat-booking/cancel", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := studentContext(e, req, rec)

	err := NewSeatHandler(svc).CancelSeat(c)
	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestCancelSeat_Handler_NotFound(t *testing.T) {
	svc := &mockSeatService{
		cancelFn: func(ctx context.Context, studentID string, bookingID uint) (*models.SeatBooking, error) {
			return nil, service.ErrBookingNotFound
		},
	}

	e := echo.New()
	body := `{"booking_id":404}`
	req := httptest.NewRequest(http.MethodPost, "/seat-booking/cancel", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := studentContext(e, req, rec)

	err := NewSeatHandler(svc).CancelSeat(c)
	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Code)
}

func TestHistory_Handler_Pagination(t *testing.T) {
	svc := &mockSeatService{
		historyFn: func(ctx context.Context, studentID string, page, limit int) ([]models.SeatBooking, int64, error) {
			assert.Equal(t, 2, page)
			assert.Equal(t, 5, limit)
			return []models.SeatBooking{{ID: 6, StudentID: studentID, Status: models.SeatCancelled}}, 6, nil
		},
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/seat-booking/history?page=2&limit=5", nil)
	rec := httptest.NewRecorder()
	c := studentContext(e, req, rec)

	assert.NoError(t, NewSeatHandler(svc).History(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.PaginatedBookings
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(6), resp.Total)
	assert.Equal(t, 2, resp.Page)
	assert.Len(t, resp.Bookings, 1)
}

func TestTimeSlots_Handler_BadDate(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/seat-booking/routes/route-1/timeslots?bookingDate=10-03-2026", nil)
	rec := httptest.NewRecorder()
	c := studentContext(e, req, rec)
	c.SetParamNames("routeId")
	c.SetParamValues("route-1")

	err := NewSeatHandler(&mockSeatService{}).TimeSlots(c)
	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestSeatMap_Handler_MissingParams(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/seat-booking/vehicles/veh-1/seats?routeId=route-1", nil)
	rec := httptest.NewRecorder()
	c := studentContext(e, req, rec)
	c.SetParamNames("vehicleId")
	c.SetParamValues("veh-1")

	err := NewSeatHandler(&mockSeatService{}).SeatMap(c)
	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}
