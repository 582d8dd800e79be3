package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fleet-console/internal/handlers"
	"fleet-console/internal/kinesis"
	"fleet-console/internal/service"
	"fleet-console/internal/storage"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T) (string, *storage.MemoryFleetStorage) {
	t.Helper()

	fleetStorage := storage.NewMemoryFleetStorage()
	fleetService := service.NewFleetService(fleetStorage, nil)
	require.NoError(t, service.SeedDemoData(context.Background(), fleetService))

	router := mux.NewRouter()
	handlers.NewHTTPHandler(fleetService).RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server.URL, fleetStorage
}

// execute runs the root command against url with a config file that does not exist.
func execute(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{
		"--config", filepath.Join(t.TempDir(), "missing.yaml"),
		"--log-level", "error",
		"--api-url", url,
	}, args...))

	err := rootCmd.Execute()
	return out.String(), err
}

func TestFleetsListCmd(t *testing.T) {
	url, _ := startServer(t)

	out, err := execute(t, url, "fleets", "list")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "Downtown")
	assert.Contains(t, lines[2], "Airport")
	assert.Contains(t, lines[3], "Night Owls")
}

func TestFleetsCreateCmd(t *testing.T) {
	url, fleetStorage := startServer(t)

	out, err := execute(t, url, "fleets", "create", "Harbor", "--description", "port shuttles")
	require.NoError(t, err)
	assert.Contains(t, out, "Created fleet 4 (Harbor)")

	fleet, err := fleetStorage.GetFleet(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "port shuttles", fleet.Description)
}

func TestFleetsDeleteCmd_PartialFailure(t *testing.T) {
	url, fleetStorage := startServer(t)

	out, err := execute(t, url, "fleets", "delete", "1", "99")
	require.Error(t, err)
	assert.Contains(t, out, "Deleted fleet 1")
	assert.Contains(t, err.Error(), "fleet 99")

	_, getErr := fleetStorage.GetFleet(context.Background(), 1)
	assert.ErrorIs(t, getErr, storage.ErrFleetNotFound)
}

func TestFleetsDeleteCmd_InvalidID(t *testing.T) {
	url, _ := startServer(t)

	_, err := execute(t, url, "fleets", "delete", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid fleet id "abc"`)
}

func TestDriversListCmd(t *testing.T) {
	url, _ := startServer(t)

	out, err := execute(t, url, "drivers", "list", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Fleet 1: Downtown")
	assert.Contains(t, out, "Day shift deliveries")
	assert.Contains(t, out, "Ada Lovelace")
	assert.Contains(t, out, "grace")

	out, err = execute(t, url, "drivers", "list", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "night-courier")
}

func TestDriversDismissCmd(t *testing.T) {
	url, fleetStorage := startServer(t)

	out, err := execute(t, url, "drivers", "dismiss", "1", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Dismissed driver 2 from fleet 1")

	driver, _ := fleetStorage.GetDriver(context.Background(), 2)
	assert.False(t, driver.InFleet(1))

	// Dismissing again is a conflict on the server
	_, err = execute(t, url, "drivers", "dismiss", "1", "2")
	assert.Error(t, err)
}

func TestDriversInviteCmd(t *testing.T) {
	url, fleetStorage := startServer(t)

	out, err := execute(t, url, "drivers", "invite", "2", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Invited 1 drivers to Airport")

	driver, _ := fleetStorage.GetDriver(context.Background(), 1)
	assert.True(t, driver.PendingFleet(2))

	_, err = execute(t, url, "drivers", "invite", "1", "1", "4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "some drivers were not invited to Downtown")
	assert.Contains(t, err.Error(), "Drivers is already in fleet: [1]")
	assert.Contains(t, err.Error(), "Drivers is already in pending fleet: [4]")
}

func TestEventsCmd_RequiresStream(t *testing.T) {
	t.Setenv("KINESIS_FLEET_EVENTS_STREAM", "")
	url, _ := startServer(t)

	_, err := execute(t, url, "events")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no event stream configured")
}

func TestFormatEvent(t *testing.T) {
	event := kinesis.FleetEvent{
		EventType: kinesis.EventDriversInvited,
		FleetID:   7,
		DriverIDs: []int64{3, 4},
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	line := formatEvent(event)
	assert.Contains(t, line, "drivers_invited")
	assert.Contains(t, line, "fleet=7")
	assert.True(t, strings.HasSuffix(line, "drivers=3,4"))

	event.DriverIDs = nil
	assert.NotContains(t, formatEvent(event), "drivers=")
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs("driver", []string{"1", "22"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 22}, ids)

	_, err = parseIDs("driver", []string{"1", "0"})
	assert.Error(t, err)
}

func TestDriversInvitableCmd(t *testing.T) {
	url, _ := startServer(t)

	out, err := execute(t, url, "drivers", "invitable", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "night-courier")
	assert.NotContains(t, out, "Ada Lovelace")
	assert.NotContains(t, out, "Barbara")

	_, err = execute(t, url, "drivers", "invitable", "99")
	assert.Error(t, err)
}

func TestInvitesCmds(t *testing.T) {
	url, fleetStorage := startServer(t)

	out, err := execute(t, url, "invites", "list", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Night Owls")

	out, err = execute(t, url, "invites", "accept", "1", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Driver 1 joined fleets 3")

	driver, _ := fleetStorage.GetDriver(context.Background(), 1)
	assert.True(t, driver.InFleet(3))

	out, err = execute(t, url, "invites", "decline", "4", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Driver 4 declined fleets 1")

	driver, _ = fleetStorage.GetDriver(context.Background(), 4)
	assert.False(t, driver.PendingFleet(1))
	assert.False(t, driver.InFleet(1))

	out, err = execute(t, url, "invites", "list", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "No pending invitations.")

	// Nothing left to accept
	_, err = execute(t, url, "invites", "accept", "4", "1")
	assert.Error(t, err)
}
