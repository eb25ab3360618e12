package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wiseroute/transport-booking/internal/catalog"
	"github.com/wiseroute/transport-booking/internal/models"
	"github.com/wiseroute/transport-booking/internal/notify"
	"github.com/wiseroute/transport-booking/internal/repository"
	"github.com/wiseroute/transport-booking/internal/timeslot"
)

// BookSeatInput carries one booking attempt. Identity comes from the auth
// layer, everything else from the request body.
type BookSeatInput struct {
	StudentID   string
	RouteID     string
	TimeSlotID  string
	VehicleID   string
	SeatNumber  int
	Gender      models.Gender
	BookingDate time.Time
}

// RoutesOverview is the student's entry screen for seat booking.
type RoutesOverview struct {
	MainRoute      *catalog.Route      `json:"main_route,omitempty"`
	TriesUsed      int                 `json:"alternative_tries_used"`
	TriesRemaining int                 `json:"alternative_tries_remaining"`
	HasBookedToday bool                `json:"has_booked_today"`
	TodayBooking   *models.SeatBooking `json:"today_booking,omitempty"`
	Routes         []catalog.Route     `json:"routes"`
}

// SlotVehicle summarizes one vehicle's occupancy for the slot listing.
type SlotVehicle struct {
	Vehicle        catalog.Vehicle `json:"vehicle"`
	BookedSeats    int             `json:"booked_seats"`
	AvailableSeats int             `json:"available_seats"`
	IsFull         bool            `json:"is_full"`
}

// SlotAvailability pairs the gate's verdict with per-vehicle seat summaries.
type SlotAvailability struct {
	Evaluation timeslot.Evaluation `json:"evaluation"`
	Vehicles   []SlotVehicle       `json:"vehicles"`
}

// TimeSlotsResult is the full listing for a route and date.
type TimeSlotsResult struct {
	Route     *catalog.Route     `json:"route"`
	Date      time.Time          `json:"booking_date"`
	Slots     []SlotAvailability `json:"time_slots"`
	AllClosed bool               `json:"all_closed"`
	NextDate  *time.Time         `json:"next_date,omitempty"`
}

type SeatService interface {
	RoutesOverview(ctx context.Context, studentID string) (*RoutesOverview, error)
	TimeSlots(ctx context.Context, studentID, routeID string, date time.Time) (*TimeSlotsResult, error)
	SeatMap(ctx context.Context, studentID, routeID, timeSlotID, vehicleID string, date time.Time) (*SeatMap, error)
	BookSeat(ctx context.Context, in BookSeatInput) (*models.SeatBooking, error)
	CancelSeat(ctx context.Context, studentID string, bookingID uint) (*models.SeatBooking, error)
	History(ctx context.Context, studentID string, page, limit int) ([]models.SeatBooking, int64, error)
}

type seatService struct {
	cat     *catalog.Catalog
	gate    *timeslot.Gate
	seats   repository.SeatBookingRepository
	tries   repository.RouteTriesRepository
	users   repository.UserRepository
	intents repository.BookingIntentRepository
	sink    notify.Sink
	log     *zap.SugaredLogger
	now     func() time.Time
}

func NewSeatService(
	cat *catalog.Catalog,
	gate *timeslot.Gate,
	seats repository.SeatBookingRepository,
	tries repository.RouteTriesRepository,
	users repository.UserRepository,
	intents repository.BookingIntentRepository,
	sink notify.Sink,
	log *zap.SugaredLogger,
) SeatService {
	return &seatService{
		cat:     cat,
		gate:    gate,
		seats:   seats,
		tries:   tries,
		users:   users,
		intents: intents,
		sink:    sink,
		log:     log,
		now:     time.Now,
	}
}

func (s *seatService) RoutesOverview(ctx context.Context, studentID string) (*RoutesOverview, error) {
	user, err := s.users.FindByID(ctx, nil, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	if user.ActiveIntentID == nil {
		return nil, ErrNoActiveBooking
	}

	// backfill the main route from the governing intent for accounts
	// registered before the field existed
	if user.MainRouteID == "" {
		intent, err := s.intents.FindByID(ctx, nil, *user.ActiveIntentID)
		if err == nil && intent.RouteID != "" {
			if err := s.users.SetMainRoute(ctx, nil, studentID, intent.RouteID); err == nil {
				user.MainRouteID = intent.RouteID
			}
		}
	}

	now := s.now()
	overview := &RoutesOverview{
		TriesRemaining: models.MaxAlternativeTries,
		Routes:         s.cat.Routes(),
	}

	if user.MainRouteID != "" {
		if route, err := s.cat.Route(user.MainRouteID); err == nil {
			overview.MainRoute = route
		}
	}

	tries, err := s.tries.Find(ctx, studentID, int(now.Month()), now.Year())
	if err == nil {
		overview.TriesUsed = tries.TriesUsed
		overview.TriesRemaining = models.MaxAlternativeTries - tries.TriesUsed
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	today := timeslot.DateOnly(now)
	if booking, err := s.seats.FindBookedByStudentAndDate(ctx, nil, studentID, today); err == nil {
		overview.HasBookedToday = true
		overview.TodayBooking = booking
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return overview, nil
}

func (s *seatService) TimeSlots(ctx context.Context, studentID, routeID string, date time.Time) (*TimeSlotsResult, error) {
	route, err := s.cat.Route(routeID)
	if err != nil {
		return nil, err
	}

	date = timeslot.DateOnly(date)
	gateRes := s.gate.Evaluate(route.TimeSlots, date, s.now())

	result := &TimeSlotsResult{
		Route:     route,
		Date:      date,
		Slots:     make([]SlotAvailability, 0, len(gateRes.Slots)),
		AllClosed: gateRes.AllClosed,
		NextDate:  gateRes.NextDate,
	}

	for i, ev := range gateRes.Slots {
		slot := route.TimeSlots[i]
		vehicles := make([]SlotVehicle, 0, len(slot.Vehicles))
		for _, v := range slot.Vehicles {
			booked, err := s.seats.ListBookedByVehicleSlotDate(ctx, v.ID, slot.ID, date)
			if err != nil {
				return nil, err
			}
			vehicles = append(vehicles, SlotVehicle{
				Vehicle:        v,
				BookedSeats:    len(booked),
				AvailableSeats: v.TotalSeats - len(booked),
				IsFull:         len(booked) >= v.TotalSeats,
			})
		}
		result.Slots = append(result.Slots, SlotAvailability{Evaluation: ev, Vehicles: vehicles})
	}

	return result, nil
}

func (s *seatService) SeatMap(ctx context.Context, studentID, routeID, timeSlotID, vehicleID string, date time.Time) (*SeatMap, error) {
	vehicle, err := s.cat.Vehicle(routeID, timeSlotID, vehicleID)
	if err != nil {
		return nil, err
	}

	date = timeslot.DateOnly(date)
	booked, err := s.seats.ListBookedByVehicleSlotDate(ctx, vehicleID, timeSlotID, date)
	if err != nil {
		return nil, err
	}

	var gender models.Gender
	if user, err := s.users.FindByID(ctx, nil, studentID); err == nil {
		gender = user.Gender
	}

	return BuildSeatMap(vehicle, booked, studentID, gender), nil
}

// BookSeat is the allocation path: gate check, restriction check, then one
// transaction covering replace-on-rebook, the quota consume, and the insert.
// The partial unique index on (vehicle, slot, date, seat) resolves races the
// pre-check misses.
func (s *seatService) BookSeat(ctx context.Context, in BookSeatInput) (*models.SeatBooking, error) {
	route, err := s.cat.Route(in.RouteID)
	if err != nil {
		return nil, err
	}
	slot, err := s.cat.TimeSlot(in.RouteID, in.TimeSlotID)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.cat.Vehicle(in.RouteID, in.TimeSlotID, in.VehicleID)
	if err != nil {
		return nil, err
	}

	if in.SeatNumber < 1 || in.SeatNumber > vehicle.TotalSeats {
		return nil, ErrInvalidSeat
	}
	if !vehicle.SeatAllowed(in.SeatNumber, in.Gender) {
		return nil, ErrSeatRestricted
	}

	now := s.now()
	date := timeslot.DateOnly(in.BookingDate)

	ev := s.gate.EvaluateSlot(*slot, date, now)
	if !ev.IsBookable {
		return nil, ErrSlotClosed
	}

	departure, err := timeslot.DepartureAt(slot.Time, date)
	if err != nil {
		return nil, ErrSlotClosed
	}

	var result *models.SeatBooking

	err = s.seats.Transaction(ctx, func(tx *gorm.DB) error {
		user, err := s.users.FindByID(ctx, tx, in.StudentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStudentNotFound
			}
			return err
		}
		if user.ActiveIntentID == nil {
			return ErrNoActiveBooking
		}

		// a student holds at most one seat per date; the new booking
		// supersedes any prior one
		if err := s.seats.CancelBookedForStudentDate(ctx, tx, in.StudentID, date); err != nil {
			return err
		}

		isAlternative := user.MainRouteID != "" && user.MainRouteID != in.RouteID
		if isAlternative {
			if _, err := s.tries.GetOrCreate(ctx, tx, in.StudentID, *user.ActiveIntentID, int(now.Month()), now.Year()); err != nil {
				return err
			}
			ok, err := s.tries.TryConsume(ctx, tx, in.StudentID, int(now.Month()), now.Year(), in.RouteID, now)
			if err != nil {
				return err
			}
			if !ok {
				return ErrQuotaExceeded
			}
		}

		// fast path; the unique index is the backstop under races
		if _, err := s.seats.FindBookedBySeat(ctx, tx, in.VehicleID, in.TimeSlotID, date, in.SeatNumber); err == nil {
			return ErrSeatConflict
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		booking := &models.SeatBooking{
			IntentID:           *user.ActiveIntentID,
			StudentID:          in.StudentID,
			RouteID:            route.ID,
			TimeSlotID:         slot.ID,
			TimeSlotTime:       slot.Time,
			VehicleID:          vehicle.ID,
			VehicleNumber:      vehicle.VehicleNumber,
			VehicleType:        vehicle.VehicleType,
			SeatNumber:         in.SeatNumber,
			SeatLabel:          SeatLabel(in.SeatNumber),
			Gender:             in.Gender,
			BookingDate:        date,
			Status:             models.SeatBooked,
			IsAlternativeRoute: isAlternative,
			ExpiresAt:          departure,
		}
		if err := s.seats.Create(ctx, tx, booking); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrSeatConflict
			}
			return err
		}

		result = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sink.Notify(ctx, notify.Message{
		RecipientID: in.StudentID,
		Title:       "Seat Booked",
		Body: fmt.Sprintf("Seat %s confirmed on %s at %s for %s.",
			result.SeatLabel, route.Name, slot.Time, date.Format("2006-01-02")),
		Type: "seat_booked",
	})
	s.log.Infow("seat booked",
		"student", in.StudentID, "route", in.RouteID, "slot", in.TimeSlotID,
		"vehicle", in.VehicleID, "seat", in.SeatNumber, "date", date.Format("2006-01-02"),
		"alternative", result.IsAlternativeRoute)
	return result, nil
}

func (s *seatService) CancelSeat(ctx context.Context, studentID string, bookingID uint) (*models.SeatBooking, error) {
	booking, err := s.seats.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if booking.StudentID != studentID || booking.Status != models.SeatBooked {
		return nil, ErrBookingNotFound
	}

	departure, err := timeslot.DepartureAt(booking.TimeSlotTime, booking.BookingDate)
	if err != nil {
		return nil, ErrCancellationWindowClosed
	}
	if departure.Sub(s.now()) <= timeslot.CutoffWindow {
		return nil, ErrCancellationWindowClosed
	}

	if err := s.seats.UpdateStatus(ctx, nil, bookingID, models.SeatCancelled); err != nil {
		return nil, err
	}
	booking.Status = models.SeatCancelled

	// alternative-route tries are intentionally not refunded

	return booking, nil
}

func (s *seatService) History(ctx context.Context, studentID string, page, limit int) ([]models.SeatBooking, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.seats.ListByStudent(ctx, studentID, (page-1)*limit, limit)
}
