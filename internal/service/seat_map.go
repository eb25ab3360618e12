package service

import (
	"github.com/wiseroute/transport-booking/internal/catalog"
	"github.com/wiseroute/transport-booking/internal/models"
)

// SeatsPerRow fixes the grid width of the rendered seat map.
const SeatsPerRow = 4

var rowLabels = [...]string{"A", "B", "C", "D", "E", "F", "G", "H"}

// Seat is one cell of the seat map grid.
type Seat struct {
	SeatNumber   int           `json:"seat_number"`
	SeatLabel    string        `json:"seat_label"`
	IsBooked     bool          `json:"is_booked"`
	IsAvailable  bool          `json:"is_available"`
	IsRestricted bool          `json:"is_restricted,omitempty"`
	BookedByUser bool          `json:"booked_by_user,omitempty"`
	Gender       models.Gender `json:"gender,omitempty"`
	StudentID    string        `json:"student_id,omitempty"`
}

// SeatMap is the grid for one vehicle on one run. Trailing cells of the last
// row are nil so clients can render a fixed-width layout.
type SeatMap struct {
	Rows           [][]*Seat `json:"rows"`
	TotalSeats     int       `json:"total_seats"`
	BookedSeats    int       `json:"booked_seats"`
	AvailableSeats int       `json:"available_seats"`
}

// SeatLabel derives the "A1".."H4" style label for a seat number.
func SeatLabel(seatNumber int) string {
	row := (seatNumber - 1) / SeatsPerRow
	seatInRow := (seatNumber-1)%SeatsPerRow + 1
	if row >= len(rowLabels) {
		return ""
	}
	return rowLabels[row] + string(rune('0'+seatInRow))
}

// BuildSeatMap lays out the vehicle's seats and marks occupancy. forGender is
// the viewing student's gender; seats locked to the opposing gender or
// reserved outright are shown unavailable regardless of occupancy.
func BuildSeatMap(vehicle *catalog.Vehicle, booked []models.SeatBooking, viewerID string, forGender models.Gender) *SeatMap {
	bookedBySeat := make(map[int]*models.SeatBooking, len(booked))
	for i := range booked {
		bookedBySeat[booked[i].SeatNumber] = &booked[i]
	}

	total := vehicle.TotalSeats
	rows := (total + SeatsPerRow - 1) / SeatsPerRow
	grid := make([][]*Seat, 0, rows)

	for row := 0; row < rows; row++ {
		rowSeats := make([]*Seat, 0, SeatsPerRow)
		for col := 0; col < SeatsPerRow; col++ {
			seatNumber := row*SeatsPerRow + col + 1
			if seatNumber > total {
				rowSeats = append(rowSeats, nil)
				continue
			}

			seat := &Seat{
				SeatNumber: seatNumber,
				SeatLabel:  SeatLabel(seatNumber),
			}
			if b, ok := bookedBySeat[seatNumber]; ok {
				seat.IsBooked = true
				seat.Gender = b.Gender
				seat.StudentID = b.StudentID
				seat.BookedByUser = b.StudentID == viewerID
			} else if !vehicle.SeatAllowed(seatNumber, forGender) {
				seat.IsRestricted = true
			} else {
				seat.IsAvailable = true
			}
			rowSeats = append(rowSeats, seat)
		}
		grid = append(grid, rowSeats)
	}

	return &SeatMap{
		Rows:           grid,
		TotalSeats:     total,
		BookedSeats:    len(booked),
		AvailableSeats: total - len(booked),
	}
}
