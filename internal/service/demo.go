package service

import (
	"context"
	"fmt"
	"log/slog"

	"fleet-console/internal/storage"
)

type demoFleet struct {
	name        string
	description string
	members     []int64
	invited     []int64
}

var demoDrivers = []*storage.Driver{
	{ID: 1, FirstName: "Ada", LastName: "Lovelace", Username: "ada"},
	{ID: 2, FirstName: "Grace", LastName: "Hopper", Username: "grace"},
	{ID: 3, FirstName: "Edsger", LastName: "Dijkstra", Username: "edsger"},
	{ID: 4, FirstName: "Barbara", LastName: "Liskov", Username: "barbara"},
	{ID: 5, Username: "night-courier"},
}

var demoFleets = []demoFleet{
	{name: "Downtown", description: "Day shift deliveries", members: []int64{1, 2, 3}, invited: []int64{4}},
	{name: "Airport", description: "Terminal shuttles", members: []int64{3, 4}},
	{name: "Night Owls", description: "After hours couriers", members: []int64{5}, invited: []int64{1}},
}

// SeedDemoData registers a fixed set of drivers and fleets so a fresh
// in-memory server has something to show.
func SeedDemoData(ctx context.Context, fleetService *FleetService) error {
	for _, driver := range demoDrivers {
		d := *driver
		if err := fleetService.RegisterDriver(ctx, &d); err != nil {
			return fmt.Errorf("failed to seed driver %d: %w", driver.ID, err)
		}
	}

	for _, df := range demoFleets {
		fleet, err := fleetService.CreateFleet(ctx, df.name, df.description, 0)
		if err != nil {
			return fmt.Errorf("failed to seed fleet %s: %w", df.name, err)
		}

		if len(df.members) > 0 {
			if err := fleetService.InviteDrivers(ctx, fleet.ID, df.members); err != nil {
				return err
			}
			for _, driverID := range df.members {
				if err := fleetService.AcceptInvite(ctx, fleet.ID, driverID); err != nil {
					return err
				}
			}
		}

		if len(df.invited) > 0 {
			if err := fleetService.InviteDrivers(ctx, fleet.ID, df.invited); err != nil {
				return err
			}
		}
	}

	slog.Info("Demo data seeded", "fleets", len(demoFleets), "drivers", len(demoDrivers))
	return nil
}
