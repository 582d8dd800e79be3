package storage

import (
	"context"
	"errors"
	"time"
)

// Common errors
var (
	ErrFleetNotFound  = errors.New("fleet not found")
	ErrDriverNotFound = errors.New("driver not found")
	ErrDriverExists   = errors.New("driver already exists")
)

// Fleet represents a fleet owned by a fleet owner
type Fleet struct {
	ID          int64     `json:"id" dynamodbav:"id"`
	Name        string    `json:"name" dynamodbav:"name"`
	Description string    `json:"description" dynamodbav:"description"`
	OwnerID     int64     `json:"owner_id,omitempty" dynamodbav:"owner_id,omitempty"`
	CreatedAt   time.Time `json:"created_at" dynamodbav:"created_at"`
}

// Driver represents a driver and the fleets they belong to or are invited to
type Driver struct {
	ID              int64   `json:"id" dynamodbav:"id"`
	FirstName       string  `json:"first_name" dynamodbav:"first_name"`
	LastName        string  `json:"last_name" dynamodbav:"last_name"`
	Username        string  `json:"username" dynamodbav:"username"`
	FleetIDs        []int64 `json:"-" dynamodbav:"fleet_ids,omitempty,numberset"`
	PendingFleetIDs []int64 `json:"-" dynamodbav:"pending_fleet_ids,omitempty,numberset"`
}

// InFleet reports whether the driver is a member of the fleet
func (d *Driver) InFleet(fleetID int64) bool {
	return containsID(d.FleetIDs, fleetID)
}

// PendingFleet reports whether the driver has an open invitation to the fleet
func (d *Driver) PendingFleet(fleetID int64) bool {
	return containsID(d.PendingFleetIDs, fleetID)
}

// FleetStorage defines the interface for fleet and driver data operations
type FleetStorage interface {
	// CreateFleet stores a new fleet and assigns its ID
	CreateFleet(ctx context.Context, fleet *Fleet) error

	// GetFleet retrieves a fleet by ID
	GetFleet(ctx context.Context, fleetID int64) (*Fleet, error)

	// ListFleets returns all fleets ordered by ID
	ListFleets(ctx context.Context) ([]*Fleet, error)

	// DeleteFleet removes a fleet record
	DeleteFleet(ctx context.Context, fleetID int64) error

	// CreateDriver stores a new driver, assigning an ID when zero
	CreateDriver(ctx context.Context, driver *Driver) error

	// GetDriver retrieves a driver by ID
	GetDriver(ctx context.Context, driverID int64) (*Driver, error)

	// ListDriversByFleet returns the members of a fleet ordered by ID
	ListDriversByFleet(ctx context.Context, fleetID int64) ([]*Driver, error)

	// ListInvitableDrivers returns drivers that are neither members of nor
	// invited to the fleet, ordered by ID
	ListInvitableDrivers(ctx context.Context, fleetID int64) ([]*Driver, error)

	// AddDriverToFleet makes the driver a member and clears any pending invitation
	AddDriverToFleet(ctx context.Context, driverID, fleetID int64) error

	// RemoveDriverFromFleet removes the driver's membership
	RemoveDriverFromFleet(ctx context.Context, driverID, fleetID int64) error

	// AddPendingFleet records an invitation for the driver
	AddPendingFleet(ctx context.Context, driverID, fleetID int64) error

	// RemovePendingFleet withdraws an invitation
	RemovePendingFleet(ctx context.Context, driverID, fleetID int64) error
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []int64, id int64) []int64 {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
