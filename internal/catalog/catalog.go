// Package catalog holds the read-only route catalog: routes own ordered time
// slots, time slots own ordered vehicles. The booking core addresses all of
// it by stable IDs through index maps built once at load; nothing here is
// ever mutated after Load returns.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/wiseroute/transport-booking/internal/models"
)

var (
	ErrRouteNotFound    = errors.New("route not found")
	ErrSubRouteNotFound = errors.New("sub-route not found")
	ErrTimeSlotNotFound = errors.New("time slot not found")
	ErrVehicleNotFound  = errors.New("vehicle not found")
)

type SubRoute struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type Vehicle struct {
	ID            string `json:"id"`
	VehicleNumber string `json:"vehicle_number"`
	VehicleType   string `json:"vehicle_type"`
	TotalSeats    int    `json:"total_seats"`

	// seat numbers permanently unavailable (driver, conductor, ...)
	ReservedSeats []int `json:"reserved_seats,omitempty"`
	// seat numbers restricted to one gender
	MaleSeats   []int `json:"male_seats,omitempty"`
	FemaleSeats []int `json:"female_seats,omitempty"`
}

// SeatAllowed reports whether the given seat may be taken by the given
// gender. Reserved seats are never allowed.
func (v *Vehicle) SeatAllowed(seatNumber int, gender models.Gender) bool {
	for _, s := range v.ReservedSeats {
		if s == seatNumber {
			return false
		}
	}
	if gender == models.GenderMale {
		for _, s := range v.FemaleSeats {
			if s == seatNumber {
				return false
			}
		}
	}
	if gender == models.GenderFemale {
		for _, s := range v.MaleSeats {
			if s == seatNumber {
				return false
			}
		}
	}
	return true
}

type TimeSlot struct {
	ID       string    `json:"id"`
	Time     string    `json:"time"` // wall-clock, e.g. "2:00 PM"
	Vehicles []Vehicle `json:"vehicles"`
}

type Route struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	StartingPoint   string     `json:"starting_point"`
	MainDestination string     `json:"main_destination"`
	MonthlyFare     float64    `json:"monthly_fare"`
	SubRoutes       []SubRoute `json:"sub_routes,omitempty"`
	TimeSlots       []TimeSlot `json:"time_slots"`
}

type slotKey struct {
	routeID string
	slotID  string
}

type vehicleKey struct {
	routeID   string
	slotID    string
	vehicleID string
}

type Catalog struct {
	routes    []Route
	routeByID map[string]*Route
	slotByID  map[slotKey]*TimeSlot
	vehByID   map[vehicleKey]*Vehicle
}

// Load reads the catalog file and builds the ID indexes.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var doc struct {
		Routes []Route `json:"routes"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	return New(doc.Routes), nil
}

// New builds a catalog from an in-memory route list (tests use this).
func New(routes []Route) *Catalog {
	c := &Catalog{
		routes:    routes,
		routeByID: make(map[string]*Route),
		slotByID:  make(map[slotKey]*TimeSlot),
		vehByID:   make(map[vehicleKey]*Vehicle),
	}
	for i := range c.routes {
		r := &c.routes[i]
		c.routeByID[r.ID] = r
		for j := range r.TimeSlots {
			ts := &r.TimeSlots[j]
			c.slotByID[slotKey{r.ID, ts.ID}] = ts
			for k := range ts.Vehicles {
				v := &ts.Vehicles[k]
				c.vehByID[vehicleKey{r.ID, ts.ID, v.ID}] = v
			}
		}
	}
	return c
}

func (c *Catalog) Routes() []Route {
	return c.routes
}

func (c *Catalog) Route(routeID string) (*Route, error) {
	r, ok := c.routeByID[routeID]
	if !ok {
		return nil, ErrRouteNotFound
	}
	return r, nil
}

func (c *Catalog) SubRoute(routeID, subRouteID string) (*SubRoute, error) {
	r, err := c.Route(routeID)
	if err != nil {
		return nil, err
	}
	for i := range r.SubRoutes {
		if r.SubRoutes[i].ID == subRouteID {
			return &r.SubRoutes[i], nil
		}
	}
	return nil, ErrSubRouteNotFound
}

func (c *Catalog) TimeSlot(routeID, slotID string) (*TimeSlot, error) {
	if _, ok := c.routeByID[routeID]; !ok {
		return nil, ErrRouteNotFound
	}
	ts, ok := c.slotByID[slotKey{routeID, slotID}]
	if !ok {
		return nil, ErrTimeSlotNotFound
	}
	return ts, nil
}

func (c *Catalog) Vehicle(routeID, slotID, vehicleID string) (*Vehicle, error) {
	if _, err := c.TimeSlot(routeID, slotID); err != nil {
		return nil, err
	}
	v, ok := c.vehByID[vehicleKey{routeID, slotID, vehicleID}]
	if !ok {
		return nil, ErrVehicleNotFound
	}
	return v, nil
}
