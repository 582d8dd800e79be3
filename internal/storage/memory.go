package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryFleetStorage implements FleetStorage using in-memory maps
type MemoryFleetStorage struct {
	fleets       map[int64]*Fleet
	drivers      map[int64]*Driver
	nextFleetID  int64
	nextDriverID int64
	mu           sync.RWMutex
}

// NewMemoryFleetStorage creates a new in-memory storage instance
func NewMemoryFleetStorage() *MemoryFleetStorage {
	return &MemoryFleetStorage{
		fleets:       make(map[int64]*Fleet),
		drivers:      make(map[int64]*Driver),
		nextFleetID:  1,
		nextDriverID: 1,
	}
}

func (m *MemoryFleetStorage) CreateFleet(ctx context.Context, fleet *Fleet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	fleet.ID = m.nextFleetID
	m.nextFleetID++
	if fleet.CreatedAt.IsZero() {
		fleet.CreatedAt = time.Now().UTC()
	}

	stored := *fleet
	m.fleets[fleet.ID] = &stored
	return nil
}

func (m *MemoryFleetStorage) GetFleet(ctx context.Context, fleetID int64) (*Fleet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	fleet, exists := m.fleets[fleetID]
	if !exists {
		return nil, fmt.Errorf("fleet %d: %w", fleetID, ErrFleetNotFound)
	}

	result := *fleet
	return &result, nil
}

func (m *MemoryFleetStorage) ListFleets(ctx context.Context) ([]*Fleet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Fleet, 0, len(m.fleets))
	for _, fleet := range m.fleets {
		f := *fleet
		result = append(result, &f)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MemoryFleetStorage) DeleteFleet(ctx context.Context, fleetID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.fleets[fleetID]; !exists {
		return fmt.Errorf("fleet %d: %w", fleetID, ErrFleetNotFound)
	}

	delete(m.fleets, fleetID)
	return nil
}

func (m *MemoryFleetStorage) CreateDriver(ctx context.Context, driver *Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if driver.ID == 0 {
		driver.ID = m.nextDriverID
	}
	if _, exists := m.drivers[driver.ID]; exists {
		return fmt.Errorf("driver %d: %w", driver.ID, ErrDriverExists)
	}
	if driver.ID >= m.nextDriverID {
		m.nextDriverID = driver.ID + 1
	}

	m.drivers[driver.ID] = copyDriver(driver)
	return nil
}

func (m *MemoryFleetStorage) GetDriver(ctx context.Context, driverID int64) (*Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	driver, exists := m.drivers[driverID]
	if !exists {
		return nil, fmt.Errorf("driver %d: %w", driverID, ErrDriverNotFound)
	}

	return copyDriver(driver), nil
}

func (m *MemoryFleetStorage) ListDriversByFleet(ctx context.Context, fleetID int64) ([]*Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Driver
	for _, driver := range m.drivers {
		if driver.InFleet(fleetID) {
			result = append(result, copyDriver(driver))
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MemoryFleetStorage) ListInvitableDrivers(ctx context.Context, fleetID int64) ([]*Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Driver
	for _, driver := range m.drivers {
		if !driver.InFleet(fleetID) && !driver.PendingFleet(fleetID) {
			result = append(result, copyDriver(driver))
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MemoryFleetStorage) AddDriverToFleet(ctx context.Context, driverID, fleetID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	driver, exists := m.drivers[driverID]
	if !exists {
		return fmt.Errorf("driver %d: %w", driverID, ErrDriverNotFound)
	}

	driver.PendingFleetIDs = removeID(driver.PendingFleetIDs, fleetID)
	if !driver.InFleet(fleetID) {
		driver.FleetIDs = append(driver.FleetIDs, fleetID)
	}
	return nil
}

func (m *MemoryFleetStorage) RemoveDriverFromFleet(ctx context.Context, driverID, fleetID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	driver, exists := m.drivers[driverID]
	if !exists {
		return fmt.Errorf("driver %d: %w", driverID, ErrDriverNotFound)
	}

	driver.FleetIDs = removeID(driver.FleetIDs, fleetID)
	return nil
}

func (m *MemoryFleetStorage) AddPendingFleet(ctx context.Context, driverID, fleetID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	driver, exists := m.drivers[driverID]
	if !exists {
		return fmt.Errorf("driver %d: %w", driverID, ErrDriverNotFound)
	}

	if !driver.PendingFleet(fleetID) {
		driver.PendingFleetIDs = append(driver.PendingFleetIDs, fleetID)
	}
	return nil
}

func (m *MemoryFleetStorage) RemovePendingFleet(ctx context.Context, driverID, fleetID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	driver, exists := m.drivers[driverID]
	if !exists {
		return fmt.Errorf("driver %d: %w", driverID, ErrDriverNotFound)
	}

	driver.PendingFleetIDs = removeID(driver.PendingFleetIDs, fleetID)
	return nil
}

func copyDriver(d *Driver) *Driver {
	c := *d
	c.FleetIDs = append([]int64(nil), d.FleetIDs...)
	c.PendingFleetIDs = append([]int64(nil), d.PendingFleetIDs...)
	return &c
}
