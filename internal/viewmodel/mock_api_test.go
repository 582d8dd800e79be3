package viewmodel

import (
	"context"

	"fleet-console/internal/api"

	"github.com/stretchr/testify/mock"
)

// MockFleetAPI mocks the fleet API client
type MockFleetAPI struct {
	mock.Mock
}

func (m *MockFleetAPI) ListFleets(ctx context.Context) ([]*api.Fleet, error) {
	args := m.Called(ctx)
	fleets, _ := args.Get(0).([]*api.Fleet)
	return fleets, args.Error(1)
}

func (m *MockFleetAPI) GetFleet(ctx context.Context, fleetID int64) (*api.Fleet, error) {
	args := m.Called(ctx, fleetID)
	fleet, _ := args.Get(0).(*api.Fleet)
	return fleet, args.Error(1)
}

func (m *MockFleetAPI) DeleteFleet(ctx context.Context, fleetID int64) error {
	args := m.Called(ctx, fleetID)
	return args.Error(0)
}

func (m *MockFleetAPI) ListDrivers(ctx context.Context, fleetID int64) ([]*api.Driver, error) {
	args := m.Called(ctx, fleetID)
	drivers, _ := args.Get(0).([]*api.Driver)
	return drivers, args.Error(1)
}

func (m *MockFleetAPI) DismissDriver(ctx context.Context, fleetID, driverID int64) error {
	args := m.Called(ctx, fleetID, driverID)
	return args.Error(0)
}

func (m *MockFleetAPI) CreateFleet(ctx context.Context, name, description string) (int64, error) {
	args := m.Called(ctx, name, description)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFleetAPI) InviteDrivers(ctx context.Context, fleetID int64, driverIDs []int64) error {
	args := m.Called(ctx, fleetID, driverIDs)
	return args.Error(0)
}

func (m *MockFleetAPI) InvitableDrivers(ctx context.Context, fleetID int64) ([]*api.Driver, error) {
	args := m.Called(ctx, fleetID)
	drivers, _ := args.Get(0).([]*api.Driver)
	return drivers, args.Error(1)
}
