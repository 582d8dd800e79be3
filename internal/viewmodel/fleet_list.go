// Package viewmodel holds the console's view state: the list of fleets and
// the fleet detail with its drivers. Mutations are optimistic; server
// failures are logged and returned but never rolled back locally.
package viewmodel

import (
	"context"
	"log/slog"
	"sync"

	"fleet-console/internal/api"
)

// FleetList is the view-model for the fleet overview
type FleetList struct {
	client api.FleetAPI
	logger *slog.Logger

	mu     sync.RWMutex
	fleets []*api.Fleet
}

// NewFleetList creates a fleet list view-model
func NewFleetList(client api.FleetAPI, logger *slog.Logger) *FleetList {
	if logger == nil {
		logger = slog.Default()
	}
	return &FleetList{
		client: client,
		logger: logger,
	}
}

// Fetch loads all fleets; on success the local list mirrors the server's order.
func (l *FleetList) Fetch(ctx context.Context) error {
	fleets, err := l.client.ListFleets(ctx)
	if err != nil {
		l.logger.Error("Failed to fetch fleets", "error", err)
		return err
	}

	l.mu.Lock()
	l.fleets = fleets
	l.mu.Unlock()

	l.logger.Debug("Fleets fetched", "count", len(fleets))
	return nil
}

// Remove drops the fleet locally, then deletes it on the server.
// The local removal stands even if the delete fails.
func (l *FleetList) Remove(ctx context.Context, fleetID int64) error {
	l.mu.Lock()
	for i, f := range l.fleets {
		if f.ID == fleetID {
			l.fleets = append(l.fleets[:i:i], l.fleets[i+1:]...)
			break
		}
	}
	l.mu.Unlock()

	if err := l.client.DeleteFleet(ctx, fleetID); err != nil {
		l.logger.Error("Failed to delete fleet", "fleet_id", fleetID, "error", err)
		return err
	}

	l.logger.Info("Fleet deleted", "fleet_id", fleetID)
	return nil
}

// Create creates a fleet on the server and refetches the list so the new
// fleet shows up with its server-assigned fields.
func (l *FleetList) Create(ctx context.Context, name, description string) (int64, error) {
	fleetID, err := l.client.CreateFleet(ctx, name, description)
	if err != nil {
		l.logger.Error("Failed to create fleet", "name", name, "error", err)
		return 0, err
	}

	l.logger.Info("Fleet created", "fleet_id", fleetID, "name", name)
	return fleetID, l.Fetch(ctx)
}

// Fleets returns a copy of the local fleet list
func (l *FleetList) Fleets() []*api.Fleet {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]*api.Fleet(nil), l.fleets...)
}
