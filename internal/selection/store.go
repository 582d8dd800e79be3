// Package selection holds the fleet currently open in the console and its
// drivers, shared between the views that load a fleet and the views that
// manage its drivers.
package selection

import (
	"maps"
	"sync"

	"fleet-console/internal/api"
)

// Store defines the shared selected-fleet state
type Store interface {
	// SetFleet replaces the selected fleet and clears its driver list
	SetFleet(fleet *api.Fleet)

	// Fleet returns a copy of the selected fleet, or nil when none is selected
	Fleet() *api.Fleet

	// SetDrivers replaces the driver list of the selected fleet
	SetDrivers(drivers []*api.Driver)

	// Drivers returns a copy of the driver list and its records
	Drivers() []*api.Driver

	// RemoveDriver drops the first driver with the given id
	RemoveDriver(driverID int64) bool
}

// MemoryStore implements Store in memory
type MemoryStore struct {
	fleet   *api.Fleet
	drivers []*api.Driver
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SetFleet(fleet *api.Fleet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fleet = copyFleet(fleet)
	s.drivers = nil
}

func (s *MemoryStore) Fleet() *api.Fleet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyFleet(s.fleet)
}

func (s *MemoryStore) SetDrivers(drivers []*api.Driver) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.drivers = copyDrivers(drivers)
}

func (s *MemoryStore) Drivers() []*api.Driver {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyDrivers(s.drivers)
}

func (s *MemoryStore) RemoveDriver(driverID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, d := range s.drivers {
		if d.ID == driverID {
			s.drivers = append(s.drivers[:i:i], s.drivers[i+1:]...)
			return true
		}
	}
	return false
}

func copyFleet(fleet *api.Fleet) *api.Fleet {
	if fleet == nil {
		return nil
	}
	c := *fleet
	c.Extra = maps.Clone(fleet.Extra)
	return &c
}

func copyDrivers(drivers []*api.Driver) []*api.Driver {
	if drivers == nil {
		return nil
	}
	out := make([]*api.Driver, len(drivers))
	for i, d := range drivers {
		c := *d
		c.Extra = maps.Clone(d.Extra)
		out[i] = &c
	}
	return out
}
