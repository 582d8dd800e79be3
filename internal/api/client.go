package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	jsonContentType = "application/json;charset=utf-8"
	defaultTimeout  = 10 * time.Second
)

// Client handles communication with the fleet management API
type Client struct {
	baseURL    string
	httpClient *http.Client
	username   string
	password   string
	userAgent  string
}

// Option configures a Client
type Option func(*Client)

// WithBasicAuth sends HTTP basic credentials on every request.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// NewClient creates a new fleet API client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListFleets retrieves every fleet visible to the caller
func (c *Client) ListFleets(ctx context.Context) ([]*Fleet, error) {
	var fleets []*Fleet
	if err := c.do(ctx, http.MethodGet, "/api/fleet/", nil, &fleets); err != nil {
		return nil, err
	}
	return fleets, nil
}

// GetFleet retrieves a single fleet
func (c *Client) GetFleet(ctx context.Context, fleetID int64) (*Fleet, error) {
	var fleet Fleet
	if err := c.do(ctx, http.MethodGet, fleetPath(fleetID, "/"), nil, &fleet); err != nil {
		return nil, err
	}
	return &fleet, nil
}

// DeleteFleet deletes a fleet on the server
func (c *Client) DeleteFleet(ctx context.Context, fleetID int64) error {
	return c.do(ctx, http.MethodDelete, fleetPath(fleetID, "/delete"), nil, nil)
}

// ListDrivers retrieves the drivers of a fleet
func (c *Client) ListDrivers(ctx context.Context, fleetID int64) ([]*Driver, error) {
	var drivers []*Driver
	if err := c.do(ctx, http.MethodGet, fleetPath(fleetID, "/drivers/"), nil, &drivers); err != nil {
		return nil, err
	}
	return drivers, nil
}

// DismissDriver removes a driver from a fleet
func (c *Client) DismissDriver(ctx context.Context, fleetID, driverID int64) error {
	dismissal := struct {
		DriverID int64 `json:"driver_id"`
	}{
		DriverID: driverID,
	}

	return c.do(ctx, http.MethodDelete, fleetPath(fleetID, "/dismiss/"), dismissal, nil)
}

// CreateFleet creates a fleet owned by the caller and returns its id
func (c *Client) CreateFleet(ctx context.Context, name, description string) (int64, error) {
	fleetRequest := struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}{
		Name:        name,
		Description: description,
	}

	var created struct {
		Status  string `json:"status"`
		FleetID int64  `json:"fleet_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/fleet/", fleetRequest, &created); err != nil {
		return 0, err
	}
	return created.FleetID, nil
}

// InviteDrivers offers fleet membership to the given drivers
func (c *Client) InviteDrivers(ctx context.Context, fleetID int64, driverIDs []int64) error {
	invitation := struct {
		DriverID string `json:"driver_id"`
	}{
		DriverID: joinIDs(driverIDs),
	}

	return c.do(ctx, http.MethodPost, fleetPath(fleetID, "/invite/"), invitation, nil)
}

// InvitableDrivers retrieves the drivers that are neither members of nor
// invited to a fleet
func (c *Client) InvitableDrivers(ctx context.Context, fleetID int64) ([]*Driver, error) {
	var drivers []*Driver
	if err := c.do(ctx, http.MethodGet, fleetPath(fleetID, "/pending/"), nil, &drivers); err != nil {
		return nil, err
	}
	return drivers, nil
}

// PendingFleets retrieves the fleets a driver has been invited to
func (c *Client) PendingFleets(ctx context.Context, driverID int64) ([]*Fleet, error) {
	var fleets []*Fleet
	if err := c.do(ctx, http.MethodGet, driverPath(driverID, "/pending_fleets/"), nil, &fleets); err != nil {
		return nil, err
	}
	return fleets, nil
}

// AcceptInvites makes the driver a member of each fleet it was invited to
func (c *Client) AcceptInvites(ctx context.Context, driverID int64, fleetIDs []int64) error {
	return c.do(ctx, http.MethodPost, driverPath(driverID, "/pending_fleets/accept/"), fleetIDList(fleetIDs), nil)
}

// DeclineInvites withdraws the driver's invitations to the given fleets
func (c *Client) DeclineInvites(ctx context.Context, driverID int64, fleetIDs []int64) error {
	return c.do(ctx, http.MethodPost, driverPath(driverID, "/pending_fleets/decline/"), fleetIDList(fleetIDs), nil)
}

func fleetIDList(fleetIDs []int64) any {
	return struct {
		FleetID string `json:"fleet_id"`
	}{
		FleetID: joinIDs(fleetIDs),
	}
}

func joinIDs(ids []int64) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(s, ",")
}

func driverPath(driverID int64, suffix string) string {
	return fmt.Sprintf("/api/driver/%d%s", driverID, suffix)
}

func fleetPath(fleetID int64, suffix string) string {
	return fmt.Sprintf("/api/fleet/%d%s", fleetID, suffix)
}

// do sends a request with an optional JSON body and decodes a JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", jsonContentType)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Messages:   parseErrorMessages(respBody),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}
	return nil
}
