package viewmodel

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"fleet-console/internal/api"
	"fleet-console/internal/selection"
)

// Common errors
var (
	ErrNoFleetSelected = errors.New("no fleet selected")
	ErrSuperseded      = errors.New("response superseded by a newer request")
)

// State is the loading state of a FleetDetail
type State int

const (
	Uninitialized State = iota
	LoadingFleet
	LoadingDrivers
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case LoadingFleet:
		return "loading_fleet"
	case LoadingDrivers:
		return "loading_drivers"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// FleetDetail is the view-model for one fleet and its drivers.
// The fleet and drivers live in a selection.Store so other views can read them.
//
// Every load takes a generation number; a response that arrives after a
// newer load has started is dropped instead of overwriting newer state.
type FleetDetail struct {
	client api.FleetAPI
	store  selection.Store
	logger *slog.Logger

	mu         sync.Mutex
	state      State
	generation uint64
	lastErr    error
}

// NewFleetDetail creates a fleet detail view-model over shared selection state
func NewFleetDetail(client api.FleetAPI, store selection.Store, logger *slog.Logger) *FleetDetail {
	if logger == nil {
		logger = slog.Default()
	}
	return &FleetDetail{
		client: client,
		store:  store,
		logger: logger,
	}
}

// Init opens the detail view for a fleet
func (d *FleetDetail) Init(ctx context.Context, fleetID int64) error {
	return d.LoadFleet(ctx, fleetID)
}

// LoadFleet fetches a fleet, stores it as the selection and loads its drivers
func (d *FleetDetail) LoadFleet(ctx context.Context, fleetID int64) error {
	gen := d.begin(LoadingFleet)

	fleet, err := d.client.GetFleet(ctx, fleetID)

	d.mu.Lock()
	if gen != d.generation {
		d.mu.Unlock()
		d.logger.Debug("Dropping stale fleet response", "fleet_id", fleetID)
		return ErrSuperseded
	}
	if err != nil {
		d.failLocked(err)
		d.mu.Unlock()
		d.logger.Error("Failed to load fleet", "fleet_id", fleetID, "error", err)
		return err
	}
	d.store.SetFleet(fleet)
	d.state = LoadingDrivers
	d.mu.Unlock()

	return d.loadDrivers(ctx, gen, fleet.ID)
}

// LoadDrivers fetches the drivers of the selected fleet. While a LoadFleet
// is in flight it returns ErrSuperseded, since that load fetches the
// drivers of the newer fleet itself.
func (d *FleetDetail) LoadDrivers(ctx context.Context) error {
	d.mu.Lock()
	if d.state == LoadingFleet {
		d.mu.Unlock()
		d.logger.Debug("Skipping driver refresh while a fleet load is pending")
		return ErrSuperseded
	}

	fleet := d.store.Fleet()
	if fleet == nil {
		d.mu.Unlock()
		d.logger.Warn("Cannot load drivers without a selected fleet")
		return ErrNoFleetSelected
	}

	d.generation++
	d.state = LoadingDrivers
	gen := d.generation
	d.mu.Unlock()

	return d.loadDrivers(ctx, gen, fleet.ID)
}

func (d *FleetDetail) loadDrivers(ctx context.Context, gen uint64, fleetID int64) error {
	drivers, err := d.client.ListDrivers(ctx, fleetID)

	d.mu.Lock()
	defer d.mu.Unlock()

	if gen != d.generation {
		d.logger.Debug("Dropping stale driver response", "fleet_id", fleetID)
		return ErrSuperseded
	}
	if err != nil {
		d.failLocked(err)
		d.logger.Error("Failed to load drivers", "fleet_id", fleetID, "error", err)
		return err
	}

	d.store.SetDrivers(drivers)
	d.state = Ready
	d.lastErr = nil
	d.logger.Debug("Drivers loaded", "fleet_id", fleetID, "count", len(drivers))
	return nil
}

// DismissDriver drops the driver from the local list, then dismisses it on
// the server. Only the first matching driver is removed and the local
// removal stands even if the request fails.
func (d *FleetDetail) DismissDriver(ctx context.Context, fleetID, driverID int64) error {
	if fleet := d.store.Fleet(); fleet != nil && fleet.ID == fleetID {
		d.store.RemoveDriver(driverID)
	}

	if err := d.client.DismissDriver(ctx, fleetID, driverID); err != nil {
		d.logger.Error("Failed to dismiss driver", "fleet_id", fleetID, "driver_id", driverID, "error", err)
		return err
	}

	d.logger.Info("Driver dismissed", "fleet_id", fleetID, "driver_id", driverID)
	return nil
}

// InviteDrivers offers membership of the selected fleet to drivers
func (d *FleetDetail) InviteDrivers(ctx context.Context, driverIDs []int64) error {
	fleet := d.store.Fleet()
	if fleet == nil {
		return ErrNoFleetSelected
	}

	if err := d.client.InviteDrivers(ctx, fleet.ID, driverIDs); err != nil {
		d.logger.Error("Failed to invite drivers", "fleet_id", fleet.ID, "driver_ids", driverIDs, "error", err)
		return err
	}

	d.logger.Info("Drivers invited", "fleet_id", fleet.ID, "driver_ids", driverIDs)
	return nil
}

// InvitableDrivers fetches the drivers that can still be invited to the
// selected fleet. The result is not kept in the selection.
func (d *FleetDetail) InvitableDrivers(ctx context.Context) ([]*api.Driver, error) {
	fleet := d.store.Fleet()
	if fleet == nil {
		return nil, ErrNoFleetSelected
	}

	drivers, err := d.client.InvitableDrivers(ctx, fleet.ID)
	if err != nil {
		d.logger.Error("Failed to load invitable drivers", "fleet_id", fleet.ID, "error", err)
		return nil, err
	}
	return drivers, nil
}

// FleetID returns the selected fleet's id, or -1 when none is selected
func (d *FleetDetail) FleetID() int64 {
	if fleet := d.store.Fleet(); fleet != nil {
		return fleet.ID
	}
	return -1
}

// FleetName returns the selected fleet's name, or "NoName" when none is selected
func (d *FleetDetail) FleetName() string {
	if fleet := d.store.Fleet(); fleet != nil {
		return fleet.Name
	}
	return "NoName"
}

// Fleet returns the selected fleet
func (d *FleetDetail) Fleet() *api.Fleet {
	return d.store.Fleet()
}

// Drivers returns the drivers of the selected fleet
func (d *FleetDetail) Drivers() []*api.Driver {
	return d.store.Drivers()
}

// State returns the current loading state
func (d *FleetDetail) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.state
}

// LastError returns the error that put the view into Failed, if any
func (d *FleetDetail) LastError() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.lastErr
}

func (d *FleetDetail) begin(state State) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.generation++
	d.state = state
	return d.generation
}

func (d *FleetDetail) failLocked(err error) {
	d.state = Failed
	d.lastErr = err
}
