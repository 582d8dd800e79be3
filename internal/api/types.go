package api

import (
	"encoding/json"
	"fmt"
)

// Fleet represents a fleet returned by the fleet API.
// Fields the server adds beyond the known ones are kept in Extra and
// written back out unchanged by MarshalJSON.
type Fleet struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	OwnerID     int64  `json:"owner_id,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Driver represents a driver assigned to a fleet
type Driver struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// DisplayName returns "First Last", falling back to the username and then the id.
func (d *Driver) DisplayName() string {
	switch {
	case d.FirstName != "" || d.LastName != "":
		if d.LastName == "" {
			return d.FirstName
		}
		if d.FirstName == "" {
			return d.LastName
		}
		return d.FirstName + " " + d.LastName
	case d.Username != "":
		return d.Username
	default:
		return fmt.Sprintf("driver #%d", d.ID)
	}
}

var (
	fleetFields  = []string{"id", "name", "description", "owner_id"}
	driverFields = []string{"id", "first_name", "last_name", "username"}
)

func (f *Fleet) UnmarshalJSON(data []byte) error {
	type plain Fleet
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data, fleetFields)
	if err != nil {
		return err
	}
	*f = Fleet(p)
	f.Extra = extra
	return nil
}

func (f Fleet) MarshalJSON() ([]byte, error) {
	type plain Fleet
	return mergeExtra(plain(f), f.Extra)
}

func (d *Driver) UnmarshalJSON(data []byte) error {
	type plain Driver
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data, driverFields)
	if err != nil {
		return err
	}
	*d = Driver(p)
	d.Extra = extra
	return nil
}

func (d Driver) MarshalJSON() ([]byte, error) {
	type plain Driver
	return mergeExtra(plain(d), d.Extra)
}

// extraFields returns the members of a JSON object that are not in known.
func extraFields(data []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

func mergeExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	var out map[string]json.RawMessage
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, exists := out[k]; !exists {
			out[k] = raw
		}
	}
	return json.Marshal(out)
}
