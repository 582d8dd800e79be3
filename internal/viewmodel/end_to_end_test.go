package viewmodel_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"fleet-console/internal/api"
	"fleet-console/internal/handlers"
	"fleet-console/internal/selection"
	"fleet-console/internal/service"
	"fleet-console/internal/storage"
	"fleet-console/internal/viewmodel"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startFleetAPI(t *testing.T) (*api.Client, *storage.MemoryFleetStorage) {
	t.Helper()

	fleetStorage := storage.NewMemoryFleetStorage()
	fleetService := service.NewFleetService(fleetStorage, nil)
	require.NoError(t, service.SeedDemoData(context.Background(), fleetService))

	router := mux.NewRouter()
	handlers.NewHTTPHandler(fleetService).RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return api.NewClient(server.URL), fleetStorage
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestEndToEnd_FleetListLifecycle(t *testing.T) {
	client, _ := startFleetAPI(t)
	ctx := context.Background()
	list := viewmodel.NewFleetList(client, quietLogger())

	require.NoError(t, list.Fetch(ctx))
	fleets := list.Fleets()
	require.Len(t, fleets, 3)
	assert.Equal(t, "Downtown", fleets[0].Name)
	// created_at is not part of api.Fleet but survives a round trip
	assert.Contains(t, fleets[0].Extra, "created_at")

	id, err := list.Create(ctx, "Harbor", "port shuttles")
	require.NoError(t, err)
	assert.Len(t, list.Fleets(), 4)

	require.NoError(t, list.Remove(ctx, id))
	assert.Len(t, list.Fleets(), 3)

	// A second delete fails server-side, the local list stays as it is
	err = list.Remove(ctx, id)
	assert.True(t, errors.Is(err, api.ErrNotFound), "got %v", err)
	assert.Len(t, list.Fleets(), 3)

	require.NoError(t, list.Fetch(ctx))
	assert.Len(t, list.Fleets(), 3)
}

func TestEndToEnd_FleetDetailLifecycle(t *testing.T) {
	client, fleetStorage := startFleetAPI(t)
	ctx := context.Background()
	store := selection.NewMemoryStore()
	detail := viewmodel.NewFleetDetail(client, store, quietLogger())

	require.NoError(t, detail.Init(ctx, 1))
	assert.Equal(t, viewmodel.Ready, detail.State())
	assert.Equal(t, "Downtown", detail.FleetName())
	require.Len(t, detail.Drivers(), 3)
	assert.Equal(t, "Ada Lovelace", detail.Drivers()[0].DisplayName())

	require.NoError(t, detail.DismissDriver(ctx, 1, 2))
	assert.Len(t, store.Drivers(), 2)

	driver, _ := fleetStorage.GetDriver(ctx, 2)
	assert.False(t, driver.InFleet(1))

	// Driver 4 is already invited to Downtown
	err := detail.InviteDrivers(ctx, []int64{2, 4})
	assert.True(t, errors.Is(err, api.ErrConflict), "got %v", err)

	var statusErr *api.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Contains(t, statusErr.Messages, "Drivers is already in pending fleet: [4]")

	require.NoError(t, detail.LoadDrivers(ctx))
	assert.Len(t, detail.Drivers(), 2)
}

func TestEndToEnd_UnknownFleet(t *testing.T) {
	client, _ := startFleetAPI(t)
	detail := viewmodel.NewFleetDetail(client, selection.NewMemoryStore(), quietLogger())

	err := detail.LoadFleet(context.Background(), 99)
	assert.True(t, errors.Is(err, api.ErrNotFound), "got %v", err)
	assert.Equal(t, viewmodel.Failed, detail.State())
	assert.Equal(t, int64(-1), detail.FleetID())
}
