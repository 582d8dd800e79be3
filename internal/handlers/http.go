package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"fleet-console/internal/service"
	"fleet-console/internal/storage"

	"github.com/gorilla/mux"
)

// Invite conflict keys. Clients match on this exact wording.
const (
	conflictInFleet = "Drivers is already in fleet"
	conflictPending = "Drivers is already in pending fleet"
)

// HTTPHandler serves the fleet REST API
type HTTPHandler struct {
	fleetService *service.FleetService
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(fleetService *service.FleetService) *HTTPHandler {
	return &HTTPHandler{
		fleetService: fleetService,
	}
}

// RegisterRoutes sets up HTTP routes
func (h *HTTPHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.Health).Methods("GET")
	router.HandleFunc("/api/fleet/", h.ListFleets).Methods("GET")
	router.HandleFunc("/api/fleet/", h.CreateFleet).Methods("POST")
	router.HandleFunc("/api/fleet/{id:[0-9]+}/", h.GetFleet).Methods("GET")
	router.HandleFunc("/api/fleet/{id:[0-9]+}/", h.DeleteFleet).Methods("DELETE")
	router.HandleFunc("/api/fleet/{id:[0-9]+}/delete", h.DeleteFleet).Methods("DELETE")
	router.HandleFunc("/api/fleet/{id:[0-9]+}/drivers/", h.ListDrivers).Methods("GET")
	router.HandleFunc("/api/fleet/{id:[0-9]+}/dismiss/", h.DismissDriver).Methods("DELETE", "POST")
	router.HandleFunc("/api/fleet/{id:[0-9]+}/invite/", h.InviteDrivers).Methods("POST")
	router.HandleFunc("/api/fleet/{id:[0-9]+}/pending/", h.InvitableDrivers).Methods("GET")
	router.HandleFunc("/api/driver/{id:[0-9]+}/pending_fleets/", h.PendingFleets).Methods("GET")
	router.HandleFunc("/api/driver/{id:[0-9]+}/pending_fleets/accept/", h.AcceptInvites).Methods("POST")
	router.HandleFunc("/api/driver/{id:[0-9]+}/pending_fleets/decline/", h.DeclineInvites).Methods("POST")
}

// Health returns service health status
func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ListFleets returns all fleets
func (h *HTTPHandler) ListFleets(w http.ResponseWriter, r *http.Request) {
	fleets, err := h.fleetService.ListFleets(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, fleets)
}

// CreateFleet stores a new fleet and answers with its id
func (h *HTTPHandler) CreateFleet(w http.ResponseWriter, r *http.Request) {
	var fleetRequest struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		OwnerID     int64  `json:"owner_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&fleetRequest); err != nil {
		slog.Error("Failed to decode fleet creation request", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	fleet, err := h.fleetService.CreateFleet(r.Context(), fleetRequest.Name, fleetRequest.Description, fleetRequest.OwnerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"status": "ok", "fleet_id": fleet.ID})
}

// GetFleet returns a single fleet
func (h *HTTPHandler) GetFleet(w http.ResponseWriter, r *http.Request) {
	fleetID, ok := fleetIDVar(w, r)
	if !ok {
		return
	}

	fleet, err := h.fleetService.GetFleet(r.Context(), fleetID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, fleet)
}

// DeleteFleet removes a fleet
func (h *HTTPHandler) DeleteFleet(w http.ResponseWriter, r *http.Request) {
	fleetID, ok := fleetIDVar(w, r)
	if !ok {
		return
	}

	if err := h.fleetService.DeleteFleet(r.Context(), fleetID); err != nil {
		slog.Error("Fleet deletion failed", "fleet_id", fleetID, "error", err)
		writeServiceError(w, err)
		return
	}

	writeOK(w)
}

// ListDrivers returns the drivers of a fleet
func (h *HTTPHandler) ListDrivers(w http.ResponseWriter, r *http.Request) {
	fleetID, ok := fleetIDVar(w, r)
	if !ok {
		return
	}

	drivers, err := h.fleetService.ListDrivers(r.Context(), fleetID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if drivers == nil {
		drivers = []*storage.Driver{}
	}
	writeJSON(w, http.StatusOK, drivers)
}

// DismissDriver removes a driver from a fleet
func (h *HTTPHandler) DismissDriver(w http.ResponseWriter, r *http.Request) {
	fleetID, ok := fleetIDVar(w, r)
	if !ok {
		return
	}

	var dismissal struct {
		DriverID json.RawMessage `json:"driver_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&dismissal); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	driverIDs, err := parseIDs("driver_id", dismissal.DriverID)
	if err != nil || len(driverIDs) != 1 {
		writeError(w, http.StatusBadRequest, "driver_id must be a single driver id")
		return
	}

	if err := h.fleetService.DismissDriver(r.Context(), fleetID, driverIDs[0]); err != nil {
		slog.Error("Driver dismissal failed",
			"fleet_id", fleetID,
			"driver_id", driverIDs[0],
			"error", err)
		writeServiceError(w, err)
		return
	}

	writeOK(w)
}

// InviteDrivers offers fleet membership to a comma separated list of drivers
func (h *HTTPHandler) InviteDrivers(w http.ResponseWriter, r *http.Request) {
	fleetID, ok := fleetIDVar(w, r)
	if !ok {
		return
	}

	var invitation struct {
		DriverID json.RawMessage `json:"driver_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&invitation); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	driverIDs, err := parseIDs("driver_id", invitation.DriverID)
	if err != nil || len(driverIDs) == 0 {
		writeError(w, http.StatusBadRequest, "driver_id must list at least one driver id")
		return
	}

	err = h.fleetService.InviteDrivers(r.Context(), fleetID, driverIDs)

	var conflict *service.InviteConflictError
	if errors.As(err, &conflict) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"status": "error",
			"errors": map[string][]int64{
				conflictInFleet: nonNil(conflict.InFleet),
				conflictPending: nonNil(conflict.Pending),
			},
		})
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeOK(w)
}

// InvitableDrivers returns the drivers that can still be invited to a fleet
func (h *HTTPHandler) InvitableDrivers(w http.ResponseWriter, r *http.Request) {
	fleetID, ok := fleetIDVar(w, r)
	if !ok {
		return
	}

	drivers, err := h.fleetService.InvitableDrivers(r.Context(), fleetID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if drivers == nil {
		drivers = []*storage.Driver{}
	}
	writeJSON(w, http.StatusOK, drivers)
}

// PendingFleets returns the fleets a driver has been invited to
func (h *HTTPHandler) PendingFleets(w http.ResponseWriter, r *http.Request) {
	driverID, ok := driverIDVar(w, r)
	if !ok {
		return
	}

	fleets, err := h.fleetService.PendingFleets(r.Context(), driverID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, fleets)
}

// AcceptInvites makes a driver a member of each listed fleet it was invited to
func (h *HTTPHandler) AcceptInvites(w http.ResponseWriter, r *http.Request) {
	h.answerInvites(w, r, "accept", h.fleetService.AcceptInvite)
}

// DeclineInvites withdraws a driver's invitations to each listed fleet
func (h *HTTPHandler) DeclineInvites(w http.ResponseWriter, r *http.Request) {
	h.answerInvites(w, r, "decline", h.fleetService.DeclineInvite)
}

func (h *HTTPHandler) answerInvites(w http.ResponseWriter, r *http.Request, action string, answer func(ctx context.Context, fleetID, driverID int64) error) {
	driverID, ok := driverIDVar(w, r)
	if !ok {
		return
	}

	var answerRequest struct {
		FleetID json.RawMessage `json:"fleet_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&answerRequest); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	fleetIDs, err := parseIDs("fleet_id", answerRequest.FleetID)
	if err != nil || len(fleetIDs) == 0 {
		writeError(w, http.StatusBadRequest, "fleet_id must list at least one fleet id")
		return
	}

	for _, fleetID := range fleetIDs {
		if err := answer(r.Context(), fleetID, driverID); err != nil {
			slog.Error("Invitation answer failed",
				"action", action,
				"fleet_id", fleetID,
				"driver_id", driverID,
				"error", err)
			writeServiceError(w, err)
			return
		}
	}

	writeOK(w)
}

func fleetIDVar(w http.ResponseWriter, r *http.Request) (int64, bool) {
	fleetID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid fleet id")
		return 0, false
	}
	return fleetID, true
}

func driverIDVar(w http.ResponseWriter, r *http.Request) (int64, bool) {
	driverID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid driver id")
		return 0, false
	}
	return driverID, true
}

// parseIDs accepts a JSON number, or a string of comma separated ids.
func parseIDs(field string, raw json.RawMessage) ([]int64, error) {
	var single int64
	if err := json.Unmarshal(raw, &single); err == nil {
		return []int64{single}, nil
	}

	var list string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}

	var ids []int64
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", field, part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrFleetNotFound), errors.Is(err, storage.ErrDriverNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidFleet):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotMember), errors.Is(err, service.ErrNoInvitation), errors.Is(err, storage.ErrDriverExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"status": "error", "errors": []string{message}})
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
