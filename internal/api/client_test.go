package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_ListFleets(t *testing.T) {
	// Create mock server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/fleet/" {
			t.Errorf("Expected path '/api/fleet/', got %s", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET method, got %s", r.Method)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 3, "name": "North", "description": "night shift", "owner": 7},
			{"id": 1, "name": "South"}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	fleets, err := client.ListFleets(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(fleets) != 2 {
		t.Fatalf("Expected 2 fleets, got %d", len(fleets))
	}

	// Server order is preserved
	if fleets[0].ID != 3 || fleets[1].ID != 1 {
		t.Errorf("Expected fleet ids [3 1], got [%d %d]", fleets[0].ID, fleets[1].ID)
	}

	if fleets[0].Name != "North" {
		t.Errorf("Expected name 'North', got %s", fleets[0].Name)
	}

	if string(fleets[0].Extra["owner"]) != "7" {
		t.Errorf("Expected extra field owner=7, got %s", fleets[0].Extra["owner"])
	}
}

func TestClient_GetFleet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		expectedPath := "/api/fleet/42/"
		if r.URL.Path != expectedPath {
			t.Errorf("Expected path '%s', got %s", expectedPath, r.URL.Path)
		}

		json.NewEncoder(w).Encode(map[string]any{"id": 42, "name": "Harbor"})
	}))
	defer server.Close()

	client := NewClient(server.URL + "/")

	fleet, err := client.GetFleet(context.Background(), 42)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if fleet.ID != 42 || fleet.Name != "Harbor" {
		t.Errorf("Expected fleet 42 'Harbor', got %d '%s'", fleet.ID, fleet.Name)
	}
}

func TestClient_GetFleet_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status": "error", "errors": ["fleet 9 not found"]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	_, err := client.GetFleet(context.Background(), 9)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected *StatusError, got %T", err)
	}

	if len(statusErr.Messages) != 1 || statusErr.Messages[0] != "fleet 9 not found" {
		t.Errorf("Expected server message to be parsed, got %v", statusErr.Messages)
	}
}

func TestClient_DeleteFleet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		expectedPath := "/api/fleet/5/delete"
		if r.URL.Path != expectedPath {
			t.Errorf("Expected path '%s', got %s", expectedPath, r.URL.Path)
		}

		if r.Method != http.MethodDelete {
			t.Errorf("Expected DELETE method, got %s", r.Method)
		}

		w.Write([]byte(`{"status": "ok"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	if err := client.DeleteFleet(context.Background(), 5); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
}

func TestClient_ListDrivers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		expectedPath := "/api/fleet/5/drivers/"
		if r.URL.Path != expectedPath {
			t.Errorf("Expected path '%s', got %s", expectedPath, r.URL.Path)
		}

		w.Write([]byte(`[{"id": 10, "first_name": "Ada", "last_name": "Byron", "rating": 4.5}, {"id": 11}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	drivers, err := client.ListDrivers(context.Background(), 5)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(drivers) != 2 {
		t.Fatalf("Expected 2 drivers, got %d", len(drivers))
	}

	if drivers[0].DisplayName() != "Ada Byron" {
		t.Errorf("Expected 'Ada Byron', got %s", drivers[0].DisplayName())
	}

	if drivers[1].DisplayName() != "driver #11" {
		t.Errorf("Expected 'driver #11', got %s", drivers[1].DisplayName())
	}

	// Unknown fields survive a round trip
	data, err := json.Marshal(drivers[0])
	if err != nil {
		t.Fatalf("Failed to marshal driver: %v", err)
	}

	var roundTrip map[string]any
	json.Unmarshal(data, &roundTrip)
	if roundTrip["rating"] != 4.5 {
		t.Errorf("Expected rating 4.5 to be preserved, got %v", roundTrip["rating"])
	}
}

func TestClient_DismissDriver(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		expectedPath := "/api/fleet/5/dismiss/"
		if r.URL.Path != expectedPath {
			t.Errorf("Expected path '%s', got %s", expectedPath, r.URL.Path)
		}

		if r.Method != http.MethodDelete {
			t.Errorf("Expected DELETE method, got %s", r.Method)
		}

		if ct := r.Header.Get("Content-Type"); ct != "application/json;charset=utf-8" {
			t.Errorf("Expected Content-Type 'application/json;charset=utf-8', got %s", ct)
		}

		// Verify request body
		var dismissal struct {
			DriverID int64 `json:"driver_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&dismissal); err != nil {
			t.Fatalf("Failed to decode request body: %v", err)
		}

		if dismissal.DriverID != 10 {
			t.Errorf("Expected driver_id 10, got %d", dismissal.DriverID)
		}

		w.Write([]byte(`{"status": "ok"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	if err := client.DismissDriver(context.Background(), 5, 10); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
}

func TestClient_DismissDriver_Conflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"status": "error", "errors": ["Not owner of fleet"]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	err := client.DismissDriver(context.Background(), 5, 10)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Expected ErrConflict, got %v", err)
	}
}

func TestClient_CreateFleet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST method, got %s", r.Method)
		}

		var fleetRequest struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&fleetRequest); err != nil {
			t.Fatalf("Failed to decode request body: %v", err)
		}

		if fleetRequest.Name != "Airport" {
			t.Errorf("Expected name 'Airport', got %s", fleetRequest.Name)
		}

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"status": "ok", "fleet_id": 77}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	fleetID, err := client.CreateFleet(context.Background(), "Airport", "shuttles")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if fleetID != 77 {
		t.Errorf("Expected fleet id 77, got %d", fleetID)
	}
}

func TestClient_InviteDrivers_Conflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var invitation struct {
			DriverID string `json:"driver_id"`
		}
		json.NewDecoder(r.Body).Decode(&invitation)

		if invitation.DriverID != "1,2,3" {
			t.Errorf("Expected driver_id '1,2,3', got %s", invitation.DriverID)
		}

		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"status": "error", "errors": {"Drivers is already in fleet": ["2"], "Drivers is already in pending fleet": []}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	err := client.InviteDrivers(context.Background(), 5, []int64{1, 2, 3})

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected *StatusError, got %v", err)
	}

	if len(statusErr.Messages) != 2 {
		t.Fatalf("Expected 2 grouped messages, got %v", statusErr.Messages)
	}

	if statusErr.Messages[0] != `Drivers is already in fleet: ["2"]` {
		t.Errorf("Unexpected first message: %s", statusErr.Messages[0])
	}
}

func TestClient_BasicAuthAndUserAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "owner" || pass != "secret" {
			t.Errorf("Expected basic auth owner/secret, got %q/%q (%v)", user, pass, ok)
		}

		if ua := r.Header.Get("User-Agent"); ua != "fleet-console/test" {
			t.Errorf("Expected User-Agent 'fleet-console/test', got %s", ua)
		}

		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL,
		WithBasicAuth("owner", "secret"),
		WithUserAgent("fleet-console/test"),
		WithTimeout(2*time.Second),
	)

	fleets, err := client.ListFleets(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(fleets) != 0 {
		t.Errorf("Expected no fleets, got %d", len(fleets))
	}
}

func TestClient_ServerError(t *testing.T) {
	// Create mock server that returns error
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)

	_, err := client.ListFleets(context.Background())
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
		t.Errorf("Expected a plain status error, got %v", err)
	}
}

func TestClient_InvitableDrivers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/fleet/4/pending/" {
			t.Errorf("Expected path '/api/fleet/4/pending/', got %s", r.URL.Path)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id": 7, "username": "night-courier"}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	drivers, err := client.InvitableDrivers(context.Background(), 4)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(drivers) != 1 || drivers[0].ID != 7 {
		t.Errorf("Expected driver 7, got %+v", drivers)
	}
}

func TestClient_DriverInvitations(t *testing.T) {
	var answers []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/driver/5/pending_fleets/":
			w.Write([]byte(`[{"id": 2, "name": "Airport"}]`))
		case "/api/driver/5/pending_fleets/accept/", "/api/driver/5/pending_fleets/decline/":
			if r.Method != http.MethodPost {
				t.Errorf("Expected POST method, got %s", r.Method)
			}

			var answer struct {
				FleetID string `json:"fleet_id"`
			}
			json.NewDecoder(r.Body).Decode(&answer)
			answers = append(answers, r.URL.Path+" "+answer.FleetID)
			w.Write([]byte(`{"status": "ok"}`))
		default:
			t.Errorf("Unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	fleets, err := client.PendingFleets(ctx, 5)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(fleets) != 1 || fleets[0].Name != "Airport" {
		t.Errorf("Expected Airport, got %+v", fleets)
	}

	if err := client.AcceptInvites(ctx, 5, []int64{2, 3}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := client.DeclineInvites(ctx, 5, []int64{9}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	expected := []string{
		"/api/driver/5/pending_fleets/accept/ 2,3",
		"/api/driver/5/pending_fleets/decline/ 9",
	}
	if len(answers) != 2 || answers[0] != expected[0] || answers[1] != expected[1] {
		t.Errorf("Expected %v, got %v", expected, answers)
	}
}
