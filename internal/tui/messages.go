package tui

// FleetsLoadedMsg is sent when a fleet list fetch finishes.
type FleetsLoadedMsg struct {
	Err error
}

// FleetRemovedMsg is sent when a fleet delete request finishes. The fleet is
// already gone from the local list whatever Err says.
type FleetRemovedMsg struct {
	FleetID int64
	Err     error
}

// OpenFleetMsg switches the console to the detail screen of a fleet.
type OpenFleetMsg struct {
	FleetID int64
}

// BackMsg returns from the detail screen to the fleet list.
type BackMsg struct{}

// FleetLoadedMsg is sent when a fleet and its drivers finished loading.
type FleetLoadedMsg struct {
	FleetID int64
	Err     error
}

// DriversLoadedMsg is sent when a driver refresh finishes.
type DriversLoadedMsg struct {
	Err error
}

// DriverDismissedMsg is sent when a dismiss request finishes.
type DriverDismissedMsg struct {
	FleetID  int64
	DriverID int64
	Err      error
}
