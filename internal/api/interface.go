package api

import "context"

// FleetAPI defines the interface for fleet API operations
type FleetAPI interface {
	ListFleets(ctx context.Context) ([]*Fleet, error)
	GetFleet(ctx context.Context, fleetID int64) (*Fleet, error)
	DeleteFleet(ctx context.Context, fleetID int64) error
	ListDrivers(ctx context.Context, fleetID int64) ([]*Driver, error)
	DismissDriver(ctx context.Context, fleetID, driverID int64) error
	CreateFleet(ctx context.Context, name, description string) (int64, error)
	InviteDrivers(ctx context.Context, fleetID int64, driverIDs []int64) error
	InvitableDrivers(ctx context.Context, fleetID int64) ([]*Driver, error)
}

// InvitationAPI covers the driver side of fleet invitations
type InvitationAPI interface {
	PendingFleets(ctx context.Context, driverID int64) ([]*Fleet, error)
	AcceptInvites(ctx context.Context, driverID int64, fleetIDs []int64) error
	DeclineInvites(ctx context.Context, driverID int64, fleetIDs []int64) error
}

var (
	_ FleetAPI      = (*Client)(nil)
	_ InvitationAPI = (*Client)(nil)
)
