package tui

import (
	"context"

	"fleet-console/internal/viewmodel"

	tea "github.com/charmbracelet/bubbletea"
)

func fetchFleetsCmd(ctx context.Context, vm *viewmodel.FleetList) tea.Cmd {
	return func() tea.Msg {
		return FleetsLoadedMsg{Err: vm.Fetch(ctx)}
	}
}

func removeFleetCmd(ctx context.Context, vm *viewmodel.FleetList, fleetID int64) tea.Cmd {
	return func() tea.Msg {
		return FleetRemovedMsg{FleetID: fleetID, Err: vm.Remove(ctx, fleetID)}
	}
}

func openFleetCmd(fleetID int64) tea.Cmd {
	return func() tea.Msg {
		return OpenFleetMsg{FleetID: fleetID}
	}
}

func backCmd() tea.Msg {
	return BackMsg{}
}

func loadFleetCmd(ctx context.Context, vm *viewmodel.FleetDetail, fleetID int64) tea.Cmd {
	return func() tea.Msg {
		return FleetLoadedMsg{FleetID: fleetID, Err: vm.Init(ctx, fleetID)}
	}
}

func loadDriversCmd(ctx context.Context, vm *viewmodel.FleetDetail) tea.Cmd {
	return func() tea.Msg {
		return DriversLoadedMsg{Err: vm.LoadDrivers(ctx)}
	}
}

func dismissDriverCmd(ctx context.Context, vm *viewmodel.FleetDetail, fleetID, driverID int64) tea.Cmd {
	return func() tea.Msg {
		return DriverDismissedMsg{
			FleetID:  fleetID,
			DriverID: driverID,
			Err:      vm.DismissDriver(ctx, fleetID, driverID),
		}
	}
}
