package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"fleet-console/internal/kinesis"
	"fleet-console/internal/storage"
)

var (
	ErrInvalidFleet = errors.New("fleet name is required")
	ErrNotMember    = errors.New("driver is not a member of the fleet")
	ErrNoInvitation = errors.New("driver has no invitation to the fleet")
)

// EventPublisher receives fleet events after successful mutations
type EventPublisher interface {
	Publish(ctx context.Context, event kinesis.FleetEvent)
}

// InviteConflictError lists the drivers an invitation could not be offered to.
// The remaining drivers in the request were still invited.
type InviteConflictError struct {
	InFleet []int64
	Pending []int64
}

func (e *InviteConflictError) Error() string {
	var parts []string
	if len(e.InFleet) > 0 {
		parts = append(parts, "already in fleet: "+joinIDs(e.InFleet))
	}
	if len(e.Pending) > 0 {
		parts = append(parts, "already pending: "+joinIDs(e.Pending))
	}
	return "invite conflict: " + strings.Join(parts, "; ")
}

// FleetService handles fleet management operations
type FleetService struct {
	storage   storage.FleetStorage
	publisher EventPublisher
}

// NewFleetService creates a new fleet service instance. publisher may be nil.
func NewFleetService(storage storage.FleetStorage, publisher EventPublisher) *FleetService {
	return &FleetService{
		storage:   storage,
		publisher: publisher,
	}
}

// ListFleets returns all fleets ordered by id
func (f *FleetService) ListFleets(ctx context.Context) ([]*storage.Fleet, error) {
	return f.storage.ListFleets(ctx)
}

// GetFleet returns a single fleet
func (f *FleetService) GetFleet(ctx context.Context, fleetID int64) (*storage.Fleet, error) {
	return f.storage.GetFleet(ctx, fleetID)
}

// CreateFleet validates and stores a new fleet
func (f *FleetService) CreateFleet(ctx context.Context, name, description string, ownerID int64) (*storage.Fleet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidFleet
	}

	fleet := &storage.Fleet{
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
	}
	if err := f.storage.CreateFleet(ctx, fleet); err != nil {
		return nil, err
	}

	slog.Info("Fleet created", "fleet_id", fleet.ID, "name", fleet.Name)
	f.publish(ctx, kinesis.EventFleetCreated, fleet.ID, nil)
	return fleet, nil
}

// DeleteFleet releases the fleet's drivers and removes the fleet
func (f *FleetService) DeleteFleet(ctx context.Context, fleetID int64) error {
	if _, err := f.storage.GetFleet(ctx, fleetID); err != nil {
		return err
	}

	members, err := f.storage.ListDriversByFleet(ctx, fleetID)
	if err != nil {
		return err
	}
	for _, driver := range members {
		if err := f.storage.RemoveDriverFromFleet(ctx, driver.ID, fleetID); err != nil {
			return fmt.Errorf("failed to release driver %d: %w", driver.ID, err)
		}
	}

	if err := f.storage.DeleteFleet(ctx, fleetID); err != nil {
		return err
	}

	slog.Info("Fleet deleted", "fleet_id", fleetID, "released_drivers", len(members))
	f.publish(ctx, kinesis.EventFleetDeleted, fleetID, nil)
	return nil
}

// ListDrivers returns the members of an existing fleet
func (f *FleetService) ListDrivers(ctx context.Context, fleetID int64) ([]*storage.Driver, error) {
	if _, err := f.storage.GetFleet(ctx, fleetID); err != nil {
		return nil, err
	}
	return f.storage.ListDriversByFleet(ctx, fleetID)
}

// DismissDriver removes a member from a fleet
func (f *FleetService) DismissDriver(ctx context.Context, fleetID, driverID int64) error {
	if _, err := f.storage.GetFleet(ctx, fleetID); err != nil {
		return err
	}

	driver, err := f.storage.GetDriver(ctx, driverID)
	if err != nil {
		return err
	}
	if !driver.InFleet(fleetID) {
		return fmt.Errorf("driver %d, fleet %d: %w", driverID, fleetID, ErrNotMember)
	}

	if err := f.storage.RemoveDriverFromFleet(ctx, driverID, fleetID); err != nil {
		return err
	}

	slog.Info("Driver dismissed", "fleet_id", fleetID, "driver_id", driverID)
	f.publish(ctx, kinesis.EventDriverDismissed, fleetID, []int64{driverID})
	return nil
}

// InviteDrivers offers membership to each driver. Drivers already in the fleet
// or already invited are skipped and reported in an *InviteConflictError.
func (f *FleetService) InviteDrivers(ctx context.Context, fleetID int64, driverIDs []int64) error {
	if _, err := f.storage.GetFleet(ctx, fleetID); err != nil {
		return err
	}

	conflict := &InviteConflictError{}
	var invited []int64
	for _, driverID := range driverIDs {
		driver, err := f.storage.GetDriver(ctx, driverID)
		if err != nil {
			return err
		}

		switch {
		case driver.InFleet(fleetID):
			conflict.InFleet = append(conflict.InFleet, driverID)
		case driver.PendingFleet(fleetID):
			conflict.Pending = append(conflict.Pending, driverID)
		default:
			if err := f.storage.AddPendingFleet(ctx, driverID, fleetID); err != nil {
				return err
			}
			invited = append(invited, driverID)
		}
	}

	if len(invited) > 0 {
		slog.Info("Drivers invited", "fleet_id", fleetID, "driver_ids", invited)
		f.publish(ctx, kinesis.EventDriversInvited, fleetID, invited)
	}

	if len(conflict.InFleet) > 0 || len(conflict.Pending) > 0 {
		return conflict
	}
	return nil
}

// InvitableDrivers returns the drivers that are neither members of nor
// invited to an existing fleet
func (f *FleetService) InvitableDrivers(ctx context.Context, fleetID int64) ([]*storage.Driver, error) {
	if _, err := f.storage.GetFleet(ctx, fleetID); err != nil {
		return nil, err
	}
	return f.storage.ListInvitableDrivers(ctx, fleetID)
}

// PendingFleets returns the fleets a driver has been invited to.
// Invitations to fleets deleted since are skipped.
func (f *FleetService) PendingFleets(ctx context.Context, driverID int64) ([]*storage.Fleet, error) {
	driver, err := f.storage.GetDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}

	fleets := make([]*storage.Fleet, 0, len(driver.PendingFleetIDs))
	for _, fleetID := range driver.PendingFleetIDs {
		fleet, err := f.storage.GetFleet(ctx, fleetID)
		if errors.Is(err, storage.ErrFleetNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		fleets = append(fleets, fleet)
	}

	sort.Slice(fleets, func(i, j int) bool { return fleets[i].ID < fleets[j].ID })
	return fleets, nil
}

// AcceptInvite turns a pending invitation into membership
func (f *FleetService) AcceptInvite(ctx context.Context, fleetID, driverID int64) error {
	if err := f.requireInvitation(ctx, fleetID, driverID); err != nil {
		return err
	}
	if err := f.storage.AddDriverToFleet(ctx, driverID, fleetID); err != nil {
		return err
	}

	slog.Info("Invitation accepted", "fleet_id", fleetID, "driver_id", driverID)
	f.publish(ctx, kinesis.EventInviteAccepted, fleetID, []int64{driverID})
	return nil
}

// DeclineInvite withdraws a pending invitation without joining the fleet
func (f *FleetService) DeclineInvite(ctx context.Context, fleetID, driverID int64) error {
	if err := f.requireInvitation(ctx, fleetID, driverID); err != nil {
		return err
	}
	if err := f.storage.RemovePendingFleet(ctx, driverID, fleetID); err != nil {
		return err
	}

	slog.Info("Invitation declined", "fleet_id", fleetID, "driver_id", driverID)
	f.publish(ctx, kinesis.EventInviteDeclined, fleetID, []int64{driverID})
	return nil
}

func (f *FleetService) requireInvitation(ctx context.Context, fleetID, driverID int64) error {
	if _, err := f.storage.GetFleet(ctx, fleetID); err != nil {
		return err
	}

	driver, err := f.storage.GetDriver(ctx, driverID)
	if err != nil {
		return err
	}
	if !driver.PendingFleet(fleetID) {
		return fmt.Errorf("driver %d, fleet %d: %w", driverID, fleetID, ErrNoInvitation)
	}
	return nil
}

// RegisterDriver stores a new driver
func (f *FleetService) RegisterDriver(ctx context.Context, driver *storage.Driver) error {
	return f.storage.CreateDriver(ctx, driver)
}

func (f *FleetService) publish(ctx context.Context, eventType string, fleetID int64, driverIDs []int64) {
	if f.publisher == nil {
		return
	}
	f.publisher.Publish(ctx, kinesis.FleetEvent{
		EventType: eventType,
		FleetID:   fleetID,
		DriverIDs: driverIDs,
	})
}

func joinIDs(ids []int64) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(s, ",")
}
